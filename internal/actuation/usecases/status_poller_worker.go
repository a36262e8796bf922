package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"turret-server/internal/infra/async"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	ActuatorEventsTopic async.BrokerTopicName = "actuator_events"

	EventAxisStatusUpdated     = "axis_status_updated"
	EventSolenoidStatusUpdated = "solenoid_status_updated"

	_metricKeyStatusPolls = "status_polls"
)

func NewStatusPollerWorker(
	schedule string,
	axisService AxisService,
	solenoidService SolenoidService,
	broker async.InternalBroker,
) *StatusPollerWorker {
	return &StatusPollerWorker{
		schedule:        schedule,
		axisService:     axisService,
		solenoidService: solenoidService,
		broker:          broker,
		metricCounters:  make(map[string]metric.Float64Counter),
	}
}

var _ async.Worker = &StatusPollerWorker{}

// StatusPollerWorker periodically refreshes the status of every axis and of
// the solenoid daemon, then publishes the fresh snapshots on the internal
// broker for the websocket and MQTT consumers.
type StatusPollerWorker struct {
	schedule        string
	axisService     AxisService
	solenoidService SolenoidService
	broker          async.InternalBroker
	metricCounters  map[string]metric.Float64Counter
}

func (w *StatusPollerWorker) Run(ctx context.Context, done func()) {
	slog.Debug("status poller worker started", slog.String("schedule", w.schedule))
	defer done()
	var wg sync.WaitGroup
	w.setupOtelCounters()

	scheduler := cron.New()
	_, err := scheduler.AddFunc(w.schedule, func() {
		wg.Add(1)
		w.poll(context.Background(), wg.Done)
	})
	if err != nil {
		slog.Error("invalid poller schedule",
			slog.String("schedule", w.schedule), slog.Any("error", err))
		return
	}
	scheduler.Start()

	<-ctx.Done()
	slog.Info("status poller worker cancelled")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	wg.Wait()
}

func (w *StatusPollerWorker) setupOtelCounters() {
	meter := otel.Meter("turret_server")
	pollCounter, _ := meter.Float64Counter(
		fmt.Sprintf("%s.%s", "turret_server", "status_polls"),
		metric.WithDescription("turret_server status poll counter"),
	)

	w.metricCounters[_metricKeyStatusPolls] = pollCounter
}

func (w *StatusPollerWorker) poll(ctx context.Context, done func()) {
	slog.Debug("polling actuator status", slog.Time("time", time.Now()))
	defer done()

	snapshots := w.axisService.StatusAll(ctx)
	brokerMsg := async.BrokerMessage{
		Event: EventAxisStatusUpdated,
		Value: snapshots,
	}
	if err := w.broker.Publish(ctx, ActuatorEventsTopic, brokerMsg); err != nil {
		slog.Error("publishing axis status event", slog.Any("error", err))
	}

	solenoidStatus, err := w.solenoidService.Probe(ctx)
	if err != nil {
		slog.Warn("probing solenoid daemon", slog.Any("error", err))
		solenoidStatus = w.solenoidService.Status()
	}
	brokerMsg = async.BrokerMessage{
		Event: EventSolenoidStatusUpdated,
		Value: solenoidStatus,
	}
	if err := w.broker.Publish(ctx, ActuatorEventsTopic, brokerMsg); err != nil {
		slog.Error("publishing solenoid status event", slog.Any("error", err))
	}

	attributes := []attribute.KeyValue{
		attribute.Int("axes", len(snapshots)),
		attribute.Bool("solenoid_ready", solenoidStatus.Ready),
	}
	w.metricCounters[_metricKeyStatusPolls].Add(ctx, 1, metric.WithAttributes(attributes...))
}

func (w *StatusPollerWorker) Shutdown() {
	slog.Debug("status poller worker shutdown")
}
