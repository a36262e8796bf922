package wire

import (
	"sync"

	"turret-server/cmd/config"
	"turret-server/internal/actuation/domain"
	"turret-server/internal/actuation/solenoid"
	"turret-server/internal/actuation/tic"
	"turret-server/internal/actuation/usecases"
	"turret-server/internal/infra/async"
	"turret-server/internal/infra/cache"
	"turret-server/internal/infra/cli"
	"turret-server/internal/infra/sql"
)

func provideAppConfig() config.AppConfig {
	return config.LoadConfig()
}

var databaseOnce sync.Once
var databaseInstance sql.ORM
var databaseErr error

// provideDatabase opens the sqlite database once and shares it between every
// injector, so migrations run a single time.
func provideDatabase(cfg config.AppConfig) (sql.ORM, error) {
	databaseOnce.Do(func() {
		databaseInstance, databaseErr = sql.NewSQLiteORM(cfg.Database.DSN)
	})
	return databaseInstance, databaseErr
}

func provideStepperDriver(cfg config.AppConfig) usecases.StepperDriver {
	return tic.NewClient(cfg.Stepper.TiccmdPath, cli.NewExecRunner())
}

func provideAxisService(
	cfg config.AppConfig,
	driver usecases.StepperDriver,
	recorder usecases.CommandRecorder,
) *usecases.SimpleAxisService {
	axes := make([]domain.Axis, 0, len(cfg.Stepper.Axes))
	for name, axisCfg := range cfg.Stepper.Axes {
		axes = append(axes, domain.Axis{
			ID:           name,
			Device:       axisCfg.Device,
			StepsPerUnit: axisCfg.StepsPerUnit,
		})
	}
	return usecases.NewAxisService(axes, driver, async.NewSerialQueue(), recorder, cfg.Stepper.EnergizePermitted)
}

func provideSolenoidClient(cfg config.AppConfig, recorder usecases.CommandRecorder) *solenoid.Client {
	launcher := solenoid.NewExecLauncher(cfg.Solenoid.Command)
	return solenoid.NewClient(launcher, recorder, solenoid.Options{
		ShootPulseMs:   cfg.Solenoid.ShootPulseMs,
		ReleasePulseMs: cfg.Solenoid.ReleasePulseMs,
	})
}

func provideStatusCache() (*cache.RistrettoCache, error) {
	return cache.New(nil)
}
