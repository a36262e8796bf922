package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"turret-server/cmd/config"
	"turret-server/cmd/server/wire"
	"turret-server/internal/actuation/communication"
	"turret-server/internal/actuation/httpapi"
	"turret-server/internal/actuation/solenoid"
	"turret-server/internal/actuation/usecases"
	"turret-server/internal/infra/async"
	"turret-server/internal/infra/httpserver"
	"turret-server/internal/infra/mqtt"
	"turret-server/internal/infra/node"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

var (
	logLevelMapping = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

const _stopAllTimeout = 5 * time.Second

func main() {
	configDir := pflag.String("config-dir", "", "extra directory searched for server.yaml")
	pflag.Parse()
	if *configDir != "" {
		config.AddConfigPath(*configDir)
	}
	config := config.LoadConfig()

	level := logLevelMapping[config.General.LogLevel]
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true, Level: level, ReplaceAttr: slogReplaceAttr})
	handler := baseHandler.WithAttrs([]slog.Attr{slog.String("version", node.Version)})
	slog.SetDefault(slog.New(handler))
	slog.Info("🚀 turret server is initializing")
	slog.Debug("config loaded", "data", config)

	shutdownOtel := startOTel()

	internalBroker := async.NewLocalBroker()

	axisService := handleWireInjector(wire.InitializeAxisService()).(*usecases.SimpleAxisService)
	solenoidClient := handleWireInjector(wire.InitializeSolenoidClient()).(*solenoid.Client)

	appCtx, cancelFn := context.WithCancel(context.Background())

	if err := solenoidClient.Start(appCtx); err != nil {
		slog.Error("solenoid daemon failed to start, continuing without it", slog.Any("error", err))
	}

	wsController := handleWireInjector(wire.InitializeStatusWebSocketController(internalBroker)).(*httpapi.StatusWebSocketController)

	httpServer := httpserver.NewServer(
		config.HTTP.Addr,
		handleWireInjector(wire.InitializeAxisController(axisService)).(httpserver.Controller),
		handleWireInjector(wire.InitializeSolenoidController(solenoidClient)).(httpserver.Controller),
		handleWireInjector(wire.InitializeCommandLogController()).(httpserver.Controller),
		wsController,
	)
	go httpServer.Run()

	var wg sync.WaitGroup

	statusPoller := usecases.NewStatusPollerWorker(config.Poller.Schedule, axisService, solenoidClient, internalBroker)
	wg.Add(1)
	go statusPoller.Run(appCtx, wg.Done)

	if config.MQTTClient.Broker != "" {
		clientID := config.MQTTClient.ClientID
		if clientID == "" {
			// Several rigs can share one broker; derive a unique client ID.
			clientID = "turret-server-" + node.GetNodeInfo().ShortID()
		}
		simpleClientOpts := mqtt.SimpleClientOpts{
			Broker:   config.MQTTClient.Broker,
			ClientID: clientID,
			Username: config.MQTTClient.Username,
			Password: config.MQTTClient.Password, //pragma: allowlist secret
		}
		mqttClient, err := mqtt.NewSimpleClient(simpleClientOpts)
		if err != nil {
			slog.Warn("mqtt broker unreachable, status mirroring disabled", slog.Any("error", err))
		} else {
			statusPublisher := communication.NewStatusPublisherWorker(mqttClient, internalBroker, config.MQTTClient.TopicPrefix)
			wg.Add(1)
			go statusPublisher.Run(appCtx, wg.Done)
		}
	}

	signalChannel := make(chan os.Signal, 2)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

	<-signalChannel
	slog.Info("shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), _stopAllTimeout)
	for axis, result := range axisService.StopAll(stopCtx) {
		if !result.OK {
			slog.Error("axis did not stop cleanly", slog.String("axis", axis), slog.String("error", result.Error))
		}
	}
	stopCancel()

	solenoidClient.Shutdown()
	wsController.Shutdown()

	cancelFn()
	wg.Wait()
	internalBroker.Stop()
	httpServer.Shutdown()
	shutdownOtel()

	slog.Info("good bye!!!")
	os.Exit(0)
}

func slogReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
		return slog.Any(a.Key, source)
	}
	return a
}

type ShutdownFunc func() error

const (
	_defautlEndpoint = "localhost:4317"
	_collectPeriod   = 30 * time.Second
	_collectTimeout  = 35 * time.Second
	_minimumInterval = time.Minute
)

var (
	_histogramBuckets = []float64{5, 10, 25, 50, 75, 100, 250, 500, 750, 1000, 2500, 5000, 7500, 10000, 25000, 50000, 100000}
)

func startOTel() ShutdownFunc {
	slog.Info("starting OTel providers")
	shutdown, err := otelStart(context.Background())
	if err != nil {
		panic(err)
	}

	return shutdown
}

func otelStart(ctx context.Context) (ShutdownFunc, error) {
	metricsShutdownFunc, err := startMetricsProvider(ctx)
	if err != nil {
		return nil, err
	}

	traceShutdownFunc, err := startTraceProvider(ctx)
	if err != nil {
		return nil, err
	}

	return func() error {
		if err := metricsShutdownFunc(); err != nil {
			return err
		}
		if err := traceShutdownFunc(); err != nil {
			return err
		}
		return nil
	}, nil
}

func startTraceProvider(ctx context.Context) (ShutdownFunc, error) {
	exp, err := newTraceExporter(ctx)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("turret-server"),
		)),
	)
	otel.SetTracerProvider(tp)

	return func() error {
		return tp.Shutdown(ctx)
	}, nil
}

func newTraceExporter(ctx context.Context) (trace.SpanExporter, error) {
	endpoint := _defautlEndpoint
	if value, ok := os.LookupEnv("TURRET_SERVER_OTELCOL_ENDPOINT"); ok {
		endpoint = value
	}

	return otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
}

func startMetricsProvider(ctx context.Context) (ShutdownFunc, error) {
	exp, err := newMetricExporter(ctx)
	if err != nil {
		return nil, err
	}

	mp := newMeterProvider(exp)
	otel.SetMeterProvider(mp)

	err = runtime.Start(runtime.WithMinimumReadMemStatsInterval(_minimumInterval))
	if err != nil {
		return nil, err
	}

	return func() error {
		return mp.Shutdown(ctx)
	}, nil
}

func newMetricExporter(ctx context.Context) (metric.Exporter, error) {
	endpoint := _defautlEndpoint
	if value, ok := os.LookupEnv("TURRET_SERVER_OTELCOL_ENDPOINT"); ok {
		endpoint = value
	}

	return otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
}

func newMeterProvider(metricExporter metric.Exporter) *metric.MeterProvider {
	return metric.NewMeterProvider(
		metric.WithReader(
			metric.NewPeriodicReader(
				metricExporter,
				metric.WithTimeout(_collectTimeout),
				metric.WithInterval(_collectPeriod))),
		metric.WithView(metric.NewView(
			metric.Instrument{
				Name: "*",
				Kind: metric.InstrumentKindHistogram,
			},
			metric.Stream{
				Aggregation: metric.AggregationExplicitBucketHistogram{
					Boundaries: _histogramBuckets,
				},
			},
		)),
	)
}

func handleWireInjector(value any, err error) any {
	if err != nil {
		panic(err)
	}

	return value
}
