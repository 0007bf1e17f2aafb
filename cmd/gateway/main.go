package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/scanbridge/internal/api"
	"github.com/ahrav/scanbridge/internal/api/debug"
	appscanning "github.com/ahrav/scanbridge/internal/app/scanning"
	"github.com/ahrav/scanbridge/internal/config"
	"github.com/ahrav/scanbridge/internal/config/fileloader"
	"github.com/ahrav/scanbridge/internal/domain/events"
	"github.com/ahrav/scanbridge/internal/domain/scanning"
	devicemem "github.com/ahrav/scanbridge/internal/infra/device/memory"
	busmem "github.com/ahrav/scanbridge/internal/infra/eventbus/memory"
	storagemem "github.com/ahrav/scanbridge/internal/infra/storage/scanning/memory"
	"github.com/ahrav/scanbridge/pkg/common/logger"
	"github.com/ahrav/scanbridge/pkg/common/otel"
)

var build = "develop"

const (
	serviceType = "scan-gateway"
)

func main() {
	// Set the correct number of threads for the service
	_, _ = maxprocs.Set()

	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalf("failed to get hostname: %v", err)
	}

	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("SCANBRIDGE_CONFIG"), "path to the gateway config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logEvents := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			errorAttrs := map[string]any{
				"error_message": r.Message,
				"error_time":    r.Time.UTC().Format(time.RFC3339),
				"trace_id":      otel.GetTraceID(ctx),
			}

			// Add any error-specific attributes.
			maps.Copy(errorAttrs, r.Attributes)

			errorAttrsJSON, err := json.Marshal(errorAttrs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to marshal error attributes: %v\n", err)
				return
			}

			fmt.Fprintf(os.Stderr, "Error event: %s, details: %s\n",
				r.Message, errorAttrsJSON)
		},
	}

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	svcName := fmt.Sprintf("SCAN-GATEWAY-%s", hostname)
	metadata := map[string]string{
		"service":   svcName,
		"hostname":  hostname,
		"pod":       os.Getenv("POD_NAME"),
		"namespace": os.Getenv("POD_NAMESPACE"),
		"app":       serviceType,
	}

	logger := logger.NewWithMetadata(os.Stdout, logLevel(cfg.Logging.Level), svcName, traceIDFn, logEvents, metadata)

	if err := run(ctx, logger, cfg, hostname); err != nil {
		logger.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

// loadConfig reads the gateway configuration from the given path, or falls
// back to the embedded defaults so the gateway starts without any file on
// disk.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path != "" {
		return fileloader.NewFileLoader(path).Load(ctx)
	}
	return config.DefaultConfig()
}

// logLevel maps the configured level name onto the logger's levels. Unknown
// names fall back to info.
func logLevel(name string) logger.Level {
	switch strings.ToLower(name) {
	case "debug":
		return logger.LevelDebug
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func run(ctx context.Context, log *logger.Logger, cfg *config.Config, hostname string) error {
	// -------------------------------------------------------------------------
	// GOMAXPROCS
	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0), "build", build)

	// -------------------------------------------------------------------------
	// Resolve Configured Vocabulary
	//
	// Device capabilities and scan defaults are declared by name. Resolving
	// them up front means a typo in the config fails startup with the
	// offending field instead of surfacing as a per-request error later.
	profiles, err := config.ResolveDevices(cfg.Devices)
	if err != nil {
		return fmt.Errorf("resolving devices: %w", err)
	}

	defaults, err := config.ResolveDefaults(cfg.Defaults)
	if err != nil {
		return fmt.Errorf("resolving scan defaults: %w", err)
	}

	// -------------------------------------------------------------------------
	// Start Tracing Support
	tracer := tracenoop.NewTracerProvider().Tracer(serviceType)
	var mp metric.MeterProvider = metricnoop.NewMeterProvider()

	if cfg.Telemetry.Enabled {
		log.Info(ctx, "startup", "status", "initializing tracing support")

		traceProvider, teardown, err := otel.InitTelemetry(log, otel.Config{
			ServiceName:      serviceType,
			ExporterEndpoint: cfg.Telemetry.ExporterEndpoint,
			ExcludedRoutes: map[string]struct{}{
				"/v1/health":    {},
				"/v1/readiness": {},
				"/debug":        {},
			},
			Probability: cfg.Telemetry.Probability,
			ResourceAttributes: map[string]string{
				"library.language": "go",
				"k8s.pod.name":     os.Getenv("POD_NAME"),
				"k8s.namespace":    os.Getenv("POD_NAMESPACE"),
				"k8s.container.id": hostname,
			},
			InsecureExporter: cfg.Telemetry.InsecureExporter,
		})
		if err != nil {
			return fmt.Errorf("starting tracing: %w", err)
		}
		defer teardown(ctx)

		tracer = traceProvider.Tracer(serviceType)
		mp = otel.GetMeterProvider()
	}

	// -------------------------------------------------------------------------
	// Start Debug Service

	if cfg.API.DebugHost != "" {
		go func() {
			log.Info(ctx, "startup", "status", "debug router started", "host", cfg.API.DebugHost)

			if err := http.ListenAndServe(cfg.API.DebugHost, debug.Mux()); err != nil {
				log.Error(ctx, "shutdown", "status", "debug router closed", "host", cfg.API.DebugHost, "msg", err)
			}
		}()
	}

	// -------------------------------------------------------------------------
	// Initialize Event Bus
	log.Info(ctx, "startup", "status", "initializing event bus")

	broker := busmem.NewBroker()
	defer broker.Close()

	eventPublisher := busmem.NewDomainEventPublisher(broker)

	if err := subscribeEventLog(ctx, broker, log); err != nil {
		return fmt.Errorf("subscribing event log: %w", err)
	}

	// -------------------------------------------------------------------------
	// Initialize Scanning Support
	log.Info(ctx, "startup", "status", "initializing scanning support", "devices", len(profiles))

	driver := devicemem.NewDriver(deviceConfigs(cfg.Devices)...)
	sessionStore := storagemem.NewSessionStore()

	registry, err := appscanning.NewDeviceRegistry(profiles)
	if err != nil {
		return fmt.Errorf("building device registry: %w", err)
	}

	sessionMetrics, err := appscanning.NewSessionMetrics(mp)
	if err != nil {
		return fmt.Errorf("creating session metrics: %w", err)
	}

	runner := appscanning.NewSessionRunner(hostname, driver, sessionStore, eventPublisher, log, tracer, sessionMetrics)

	runnerCtx, stopRunner := context.WithCancel(ctx)
	defer stopRunner()

	if err := runner.Run(runnerCtx, broker); err != nil {
		return fmt.Errorf("starting session runner: %w", err)
	}

	if err := appscanning.AnnounceDevices(ctx, registry, eventPublisher); err != nil {
		return err
	}

	warmUpDevices(ctx, log, driver, registry)

	sessionService := appscanning.NewSessionService(hostname, registry, sessionStore, eventPublisher, log, tracer)

	// -------------------------------------------------------------------------
	// Start API Service
	log.Info(ctx, "startup", "status", "initializing API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	apiMetrics, err := api.NewAPIMetrics(mp)
	if err != nil {
		return fmt.Errorf("creating API metrics: %w", err)
	}

	server, err := api.NewServer(cfg, defaults, sessionService, apiMetrics, log, tracer)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	serverErrors := make(chan error, 1)

	go func() { serverErrors <- server.Start(serverCtx) }()

	// -------------------------------------------------------------------------
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info(ctx, "shutdown", "status", "shutdown started", "signal", sig)
		defer log.Info(ctx, "shutdown", "status", "shutdown complete", "signal", sig)

		// Stop accepting requests and let in-flight ones drain.
		stopServer()
		if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		// Cancel in-flight sessions and wait for their wind-down to release
		// the devices.
		log.Info(ctx, "shutdown", "status", "draining session runner")
		stopRunner()
		runner.Wait()
	}

	return nil
}

// warmUpDevices probes every registered device in parallel so unreachable or
// busy hardware shows up in the startup log instead of on the first session.
// A failed probe is not fatal; the device may simply be mid-job.
func warmUpDevices(ctx context.Context, log *logger.Logger, driver scanning.DeviceDriver, registry *appscanning.DeviceRegistry) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, profile := range registry.List() {
		device := profile.Name()
		g.Go(func() error {
			if err := driver.Probe(ctx, device); err != nil {
				log.Warn(ctx, "device warm-up probe failed", "device", device, "err", err)
				return nil
			}
			log.Debug(ctx, "device warm-up probe succeeded", "device", device)
			return nil
		})
	}

	_ = g.Wait()
}

// deviceConfigs maps the configured device specs onto the simulated driver's
// per-device tuning.
func deviceConfigs(specs []config.DeviceSpec) []devicemem.DeviceConfig {
	configs := make([]devicemem.DeviceConfig, 0, len(specs))
	for _, spec := range specs {
		cfg := devicemem.DeviceConfig{Name: spec.Name}
		if sim := spec.Simulation; sim != nil {
			cfg.Pages = sim.Pages
			cfg.PageBytes = sim.PageBytes
			cfg.BusyProbes = sim.BusyProbes
			cfg.FailLoads = sim.FailLoads
			cfg.OpDelay = time.Duration(sim.OpDelayMS) * time.Millisecond
		}
		configs = append(configs, cfg)
	}
	return configs
}

// subscribeEventLog attaches a bus handler that writes one log line per
// lifecycle event, with identifiers rendered as their registered names.
func subscribeEventLog(ctx context.Context, bus events.EventBus, log *logger.Logger) error {
	eventTypes := []events.EventType{
		scanning.EventTypeDeviceRegistered,
		scanning.EventTypeSessionStarted,
		scanning.EventTypeSessionPhaseChanged,
		scanning.EventTypeSessionCompleted,
		scanning.EventTypeSessionFailed,
	}

	return bus.Subscribe(ctx, eventTypes, func(ctx context.Context, envelope events.EventEnvelope) error {
		switch evt := envelope.Payload.(type) {
		case scanning.DeviceRegisteredEvent:
			formats := make([]string, 0, len(evt.Formats()))
			for _, format := range evt.Formats() {
				formats = append(formats, format.MIMEName())
			}
			log.Info(ctx, "device registered",
				"device", evt.Device(),
				"protocol", evt.Proto().String(),
				"formats", strings.Join(formats, ","),
			)
		case scanning.SessionStartedEvent:
			log.Info(ctx, "session started",
				"session_id", evt.SessionID(),
				"device", evt.Device(),
				"source", evt.Source().String(),
				"color_mode", evt.ColorMode().String(),
				"format", evt.Format().MIMEName(),
			)
		case scanning.SessionPhaseChangedEvent:
			log.Debug(ctx, "session phase changed",
				"session_id", evt.SessionID(),
				"from", evt.From().String(),
				"to", evt.To().String(),
			)
		case scanning.SessionCompletedEvent:
			log.Info(ctx, "session completed",
				"session_id", evt.SessionID(),
				"device", evt.Device(),
				"pages_loaded", evt.PagesLoaded(),
				"elapsed", evt.Elapsed().String(),
			)
		case scanning.SessionFailedEvent:
			log.Error(ctx, "session failed",
				"session_id", evt.SessionID(),
				"device", evt.Device(),
				"phase", evt.Phase().String(),
				"reason", evt.Reason(),
			)
		}
		return nil
	})
}
