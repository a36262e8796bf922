//go:build wireinject
// +build wireinject

package wire

import (
	"turret-server/internal/actuation/httpapi"
	"turret-server/internal/actuation/persistence"
	"turret-server/internal/actuation/solenoid"
	"turret-server/internal/actuation/usecases"
	"turret-server/internal/infra/async"
	"turret-server/internal/infra/cache"

	"github.com/google/wire"
)

func InitializeAxisService() (*usecases.SimpleAxisService, error) {
	wire.Build(
		provideAppConfig,
		provideDatabase,
		persistence.NewCommandRecordRepository,
		wire.Bind(new(usecases.CommandRecorder), new(*persistence.SimpleCommandRecordRepository)),
		provideStepperDriver,
		provideAxisService,
	)
	return nil, nil
}

func InitializeSolenoidClient() (*solenoid.Client, error) {
	wire.Build(
		provideAppConfig,
		provideDatabase,
		persistence.NewCommandRecordRepository,
		wire.Bind(new(usecases.CommandRecorder), new(*persistence.SimpleCommandRecordRepository)),
		provideSolenoidClient,
	)
	return nil, nil
}

func InitializeAxisController(service usecases.AxisService) (*httpapi.AxisController, error) {
	wire.Build(
		provideStatusCache,
		wire.Bind(new(cache.Cache), new(*cache.RistrettoCache)),
		httpapi.NewAxisController,
	)
	return nil, nil
}

func InitializeSolenoidController(service usecases.SolenoidService) (*httpapi.SolenoidController, error) {
	wire.Build(
		httpapi.NewSolenoidController,
	)
	return nil, nil
}

func InitializeCommandLogController() (*httpapi.CommandLogController, error) {
	wire.Build(
		provideAppConfig,
		provideDatabase,
		persistence.NewCommandRecordRepository,
		wire.Bind(new(usecases.CommandRecorder), new(*persistence.SimpleCommandRecordRepository)),
		httpapi.NewCommandLogController,
	)
	return nil, nil
}

func InitializeStatusWebSocketController(broker async.InternalBroker) (*httpapi.StatusWebSocketController, error) {
	wire.Build(
		httpapi.NewStatusWebSocketController,
	)
	return nil, nil
}
