package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/vesselwatch/tracker/internal/api"
	"github.com/vesselwatch/tracker/internal/config"
	"github.com/vesselwatch/tracker/internal/dispatcher"
	"github.com/vesselwatch/tracker/internal/influx"
	"github.com/vesselwatch/tracker/internal/logging"
	"github.com/vesselwatch/tracker/internal/monitor"
	"github.com/vesselwatch/tracker/internal/notify"
	intOtel "github.com/vesselwatch/tracker/internal/otel"
	"github.com/vesselwatch/tracker/internal/parser"
	"github.com/vesselwatch/tracker/internal/render"
	"github.com/vesselwatch/tracker/internal/scheduler"
	"github.com/vesselwatch/tracker/internal/search"
	"github.com/vesselwatch/tracker/internal/storage"
	"github.com/vesselwatch/tracker/internal/store"
	"github.com/vesselwatch/tracker/internal/stream"
	"github.com/vesselwatch/tracker/internal/viewport"
	"github.com/vesselwatch/tracker/internal/worker"
	"github.com/vesselwatch/tracker/pkg/core"
	"github.com/vesselwatch/tracker/pkg/streaming"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"

	EngineName string = "vessel_tracker"
)

// file paths
var (
	// WorkDir is the directory the engine runs from; config and logs live
	// under it unless the config says otherwise.
	WorkDir string

	InitLogFilePath string
	InitLogFile     *os.File
	SessionLogPath  string
	SessionLogFile  *os.File
)

// global state
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()

	// Services
	vesselStore     *store.VesselStore
	parserService   *parser.Service
	notifier        *notify.Service
	apiClient       *api.Client
	searchService   *search.Service
	mapPacer        *scheduler.MapPacer
	sidebarThrottle *scheduler.SidebarThrottle
	viewportTracker *viewport.Tracker
	workerManager   *worker.Manager
	monitorService  *monitor.Service
	influxManager   *influx.Manager
	eventDispatcher *dispatcher.Dispatcher
	displayRenderer *render.ChannelRenderer

	liveClient *stream.Client
	subClient  *stream.Client

	// Storage backend (optional)
	storageBackend storage.Backend
)

func main() {
	if err := setup(); err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}

	startEngine()

	// run until interrupted
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdown()
}

// setup prepares logging, config and telemetry before any service starts.
func setup() error {
	var err error

	WorkDir, err = os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	InitLogFilePath = filepath.Join(WorkDir, "init.log")
	InitLogFile, err = os.Create(InitLogFilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create init log file: %v\n", err)
	}

	// Initialize slog manager with initial config
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(InitLogFile, viper.GetString("logLevel"), nil)
	Logger = SlogManager.Logger()

	// load config
	if err := config.Load(WorkDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	// create logs dir if it doesn't exist
	if _, err := os.Stat(viper.GetString("logsDir")); os.IsNotExist(err) {
		os.Mkdir(viper.GetString("logsDir"), 0755)
	}

	SessionLogPath = filepath.Join(
		viper.GetString("logsDir"),
		fmt.Sprintf("%s.%s.log", EngineName, SessionStartTime.Format("20060102_150405")),
	)

	SessionLogFile, err = os.OpenFile(SessionLogPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", SessionLogPath)
	}

	Logger.Info("Begin logging in logs directory", "path", SessionLogPath)

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    SessionLogFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "file", SessionLogPath)
		}
	}

	// Attach Graylog before the final logging setup
	if viper.GetBool("graylog.enabled") {
		if err := SlogManager.AttachGraylog(viper.GetString("graylog.address")); err != nil {
			Logger.Warn("Failed to attach Graylog writer", "error", err)
		}
	}

	// Dynamic engine state on every record
	SlogManager.SetContextProvider(func() []slog.Attr {
		attrs := []slog.Attr{}
		if vesselStore != nil {
			attrs = append(attrs,
				slog.String("mode", vesselStore.Mode().String()),
				slog.Int("cacheSize", vesselStore.Cache().Len()),
			)
		}
		if liveClient != nil {
			attrs = append(attrs, slog.String("stream", liveClient.State().String()))
		}
		return attrs
	})

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(SessionLogFile, viper.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", SessionLogPath)

	return nil
}

// startEngine wires and starts every service.
func startEngine() {
	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// core state
	vesselStore = store.New()
	parserService = parser.NewService()
	notifier = notify.NewService(Logger)

	schedCfg := config.GetSchedulerConfig()
	mapPacer = scheduler.NewMapPacer(schedCfg)
	sidebarThrottle = scheduler.NewSidebarThrottle(schedCfg)

	// backend API
	apiClient = api.New(config.GetString("api.serverUrl"), config.GetString("api.apiKey"))
	if err := apiClient.Healthcheck(); err != nil {
		Logger.Info("Vessel backend is offline", "error", err)
	} else {
		Logger.Info("Vessel backend is online")
	}

	// local storage
	var err error
	storageBackend, err = storage.NewBackend(config.GetStorageConfig(), zlog)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
	} else if err := storageBackend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		storageBackend = nil
	}

	// metrics
	influxManager = influx.NewManager(zlog, filepath.Join(WorkDir, "influx_backup.gz"))
	if err := influxManager.Connect(); err != nil {
		Logger.Info("InfluxDB disabled", "reason", err)
		influxManager = nil
	}

	searchService = search.New(vesselStore, apiClient, notifier, Logger)
	displayRenderer = render.NewChannelRenderer(64, Logger)

	// event dispatch
	dispatcherLogger := logging.NewDispatcherLogger(zlog)
	eventDispatcher, err = dispatcher.New(dispatcherLogger)
	if err != nil {
		Logger.Error("Failed to create dispatcher", "error", err)
		os.Exit(1)
	}

	viewportTracker = viewport.New(schedCfg, Logger, func(b core.ViewportBounds) {
		workerManager.OnViewportApplied(b)
	})

	workerManager = worker.NewManager(worker.Dependencies{
		Store:      vesselStore,
		Parser:     parserService,
		MapPacer:   mapPacer,
		Sidebar:    sidebarThrottle,
		Viewport:   viewportTracker,
		Search:     searchService,
		API:        apiClient,
		LogManager: SlogManager,
		Notifier:   notifier,
		Renderer:   displayRenderer,
		ConnectLive: func() {
			if liveClient != nil {
				if err := liveClient.Connect(); err != nil {
					Logger.Warn("Live feed connect failed", "error", err)
				}
			}
		},
		OnFleetChanged: resubscribeTracked,
	}, storageBackend)
	workerManager.RegisterHandlers(eventDispatcher)

	if err := workerManager.LoadTrackedFleet(); err != nil {
		Logger.Warn("Failed to load tracked fleet", "error", err)
	}

	startStreams()

	// status monitor
	monitorService = monitor.NewService(monitor.Dependencies{
		Store:      vesselStore,
		Notifier:   notifier,
		Influx:     influxManager,
		LogManager: SlogManager,
		StatusDir:  viper.GetString("statusDir"),
		StreamState: func() string {
			if liveClient == nil {
				return "disabled"
			}
			return liveClient.State().String()
		},
		StreamStats: workerManager.StreamStats,
	})
	if err := monitorService.Start(); err != nil {
		Logger.Error("Failed to start status monitor", "error", err)
	}
}

// startStreams connects the live feed and, when configured, the bounded
// subscription channel for tracked vessels.
func startStreams() {
	streamCfg := config.GetStreamConfig()

	subscribe, err := json.Marshal(streaming.GlobalSubscription(streamCfg.APIKey))
	if err != nil {
		Logger.Error("Failed to encode stream subscription", "error", err)
		return
	}

	liveClient = stream.NewClient(stream.Config{
		Name:        "live",
		URL:         streamCfg.URL,
		DialTimeout: streamCfg.DialTimeout,
		Retry:       stream.RetryPolicy{Delay: streamCfg.ReconnectDelay},
		Subscribe:   subscribe,
	}, dispatchEnvelope, Logger,
		stream.WithOnConnect(mapPacer.Reset),
		stream.WithRetryGate(func() bool {
			return vesselStore.Mode() == core.ModeAllVessels
		}),
		stream.WithOnTransportError(workerManager.OnLiveTransportError),
	)
	if err := liveClient.Connect(); err != nil {
		Logger.Warn("Initial live feed connect failed, retrying", "error", err)
	}

	if streamCfg.SubscriptionURL == "" {
		return
	}

	// The subscription channel watches only the tracked fleet.
	subMsg, err := trackedSubscription(streamCfg.APIKey)
	if err != nil {
		Logger.Error("Failed to encode tracked subscription", "error", err)
		return
	}

	subClient = stream.NewClient(stream.Config{
		Name:        "subscription",
		URL:         streamCfg.SubscriptionURL,
		DialTimeout: streamCfg.DialTimeout,
		Retry: stream.RetryPolicy{
			Delay:       streamCfg.SubscriptionReconnectDelay,
			MaxAttempts: streamCfg.SubscriptionMaxAttempts,
		},
		Subscribe: subMsg,
	}, dispatchEnvelope, Logger,
		stream.WithOnTerminalFailure(func(err error) {
			notifier.Notify(notify.SeverityError,
				"Subscription channel gave up reconnecting; tracked updates rely on the live feed")
		}),
	)
	if err := subClient.Connect(); err != nil {
		Logger.Warn("Initial subscription connect failed, retrying", "error", err)
	}
}

// trackedSubscription builds the subscribe message whose server-side MMSI
// filter matches the current tracked fleet.
func trackedSubscription(apiKey string) ([]byte, error) {
	mmsis := []string{}
	for _, t := range vesselStore.Tracked() {
		mmsis = append(mmsis, t.MMSI)
	}
	sub := streaming.GlobalSubscription(apiKey)
	sub.FiltersShipMMSI = mmsis
	return json.Marshal(sub)
}

// resubscribeTracked replays the subscription channel's filter after the
// fleet mutates so newly tracked vessels get updates without a restart.
func resubscribeTracked() {
	if subClient == nil {
		return
	}

	subMsg, err := trackedSubscription(config.GetStreamConfig().APIKey)
	if err != nil {
		Logger.Error("Failed to encode tracked subscription", "error", err)
		return
	}
	if err := subClient.SetSubscription(subMsg); err != nil {
		Logger.Warn("Subscription refresh failed, filter applies on reconnect", "error", err)
	}
}

// dispatchEnvelope feeds stream envelopes into the event loop.
func dispatchEnvelope(env streaming.Envelope) {
	command := ":VESSEL:UPDATE:"
	if env.Type == streaming.TypeStaticData {
		command = ":VESSEL:STATIC:"
	}

	_, err := eventDispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      []string{string(env.Data)},
		Timestamp: time.Now(),
	})
	if err != nil {
		Logger.Warn("Dispatch failed", "command", command, "error", err)
	}
}

// shutdown stops services in reverse start order.
func shutdown() {
	Logger.Info("Shutting down")

	if monitorService != nil {
		monitorService.Stop()
	}
	if subClient != nil {
		subClient.Close()
	}
	if liveClient != nil {
		liveClient.Close()
	}
	if viewportTracker != nil {
		viewportTracker.Stop()
	}
	if displayRenderer != nil {
		displayRenderer.Close()
	}
	if storageBackend != nil {
		storageBackend.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SlogManager.Flush(ctx); err != nil {
		Logger.Error("Log flush failed", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Error("OTel shutdown failed", "error", err)
		}
	}
	if InitLogFile != nil {
		InitLogFile.Close()
	}
	if SessionLogFile != nil {
		SessionLogFile.Close()
	}
}
