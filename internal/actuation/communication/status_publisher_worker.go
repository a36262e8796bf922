package communication

import (
	"context"
	"fmt"
	"log/slog"

	"turret-server/internal/actuation/domain"
	"turret-server/internal/actuation/usecases"
	"turret-server/internal/infra/async"
	"turret-server/internal/infra/mqtt"
)

func NewStatusPublisherWorker(
	mqttClient mqtt.Client,
	broker async.InternalBroker,
	topicPrefix string,
) *StatusPublisherWorker {
	return &StatusPublisherWorker{
		mqttClient:  mqttClient,
		broker:      broker,
		topicPrefix: topicPrefix,
	}
}

var _ async.Worker = &StatusPublisherWorker{}

// StatusPublisherWorker mirrors the internal status events onto MQTT so
// external dashboards can follow the rig without polling the HTTP API.
// Axis snapshots go to <prefix>/axis/<id>/status, the solenoid state to
// <prefix>/solenoid/status.
type StatusPublisherWorker struct {
	mqttClient  mqtt.Client
	broker      async.InternalBroker
	topicPrefix string
}

func (w *StatusPublisherWorker) Run(ctx context.Context, done func()) {
	slog.Debug("status publisher worker started", slog.String("topic_prefix", w.topicPrefix))
	defer done()

	subscription, err := w.broker.Subscribe(usecases.ActuatorEventsTopic)
	if err != nil {
		slog.Error("subscribing to actuator events", slog.Any("error", err))
		return
	}
	defer w.broker.Unsubscribe(usecases.ActuatorEventsTopic, subscription)

	for {
		select {
		case <-ctx.Done():
			slog.Info("status publisher worker cancelled")
			return
		case msg, ok := <-subscription.Receiver:
			if !ok {
				return
			}
			w.handleEvent(msg)
		}
	}
}

func (w *StatusPublisherWorker) handleEvent(msg async.BrokerMessage) {
	switch msg.Event {
	case usecases.EventAxisStatusUpdated:
		snapshots, ok := msg.Value.(map[string]domain.StatusSnapshot)
		if !ok {
			slog.Warn("unexpected axis status payload", slog.String("event", msg.Event))
			return
		}
		for id, snapshot := range snapshots {
			topic := fmt.Sprintf("%s/axis/%s/status", w.topicPrefix, id)
			if err := w.mqttClient.Publish(topic, snapshot); err != nil {
				slog.Error("publishing axis status",
					slog.String("topic", topic), slog.Any("error", err))
			}
		}
	case usecases.EventSolenoidStatusUpdated:
		status, ok := msg.Value.(domain.SolenoidStatus)
		if !ok {
			slog.Warn("unexpected solenoid status payload", slog.String("event", msg.Event))
			return
		}
		topic := fmt.Sprintf("%s/solenoid/status", w.topicPrefix)
		if err := w.mqttClient.Publish(topic, status); err != nil {
			slog.Error("publishing solenoid status",
				slog.String("topic", topic), slog.Any("error", err))
		}
	default:
		slog.Debug("ignoring event", slog.String("event", msg.Event))
	}
}

func (w *StatusPublisherWorker) Shutdown() {
	slog.Debug("status publisher worker shutdown")
}
