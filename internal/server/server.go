package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/aurora-os/nucleus/internal/api/http"
	"github.com/aurora-os/nucleus/internal/api/middleware"
	"github.com/aurora-os/nucleus/internal/config"
	"github.com/aurora-os/nucleus/internal/kernel"
	"github.com/aurora-os/nucleus/internal/kernel/sched"
	"github.com/aurora-os/nucleus/internal/logging"
	"github.com/aurora-os/nucleus/internal/monitoring"
	capabilityProvider "github.com/aurora-os/nucleus/internal/providers/capability"
	ipcProvider "github.com/aurora-os/nucleus/internal/providers/ipc"
	schedulerProvider "github.com/aurora-os/nucleus/internal/providers/scheduler"
	"github.com/aurora-os/nucleus/internal/service"
	"github.com/aurora-os/nucleus/internal/ws"
)

// Server wraps the HTTP server and the in-process kernel.
type Server struct {
	router   *gin.Engine
	httpSrv  *http.Server
	kernel   *kernel.Kernel
	registry *service.Registry
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics

	tickCancel context.CancelFunc
}

// New boots the kernel and assembles the gateway. Boot order: config,
// logger, metrics, kernel, providers, router.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	switch {
	case cfg.Logging.Development:
		logger = logging.NewDevelopment()
	case cfg.Logging.Level == "" || cfg.Logging.Level == logging.DefaultConfig().Level:
		logger = logging.NewDefault()
	default:
		logCfg := logging.DefaultConfig()
		logCfg.Level = cfg.Logging.Level
		l, err := logging.New(logCfg)
		if err != nil {
			return nil, fmt.Errorf("logger init: %w", err)
		}
		logger = l
	}

	logger.Info("Initializing nucleus",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Int("cpus", cfg.Kernel.CPUs),
	)

	metrics := monitoring.NewMetrics()

	// Context switches observed here count every dispatch decision,
	// including re-selection of the same task.
	switchLogger := logger.Named("sched")
	switcher := sched.SwitcherFunc(func(cpu uint32, task sched.Task) {
		metrics.ContextSwitches.Inc()
		switchLogger.Debug("context switch",
			zap.Uint32("cpu", cpu),
			zap.Uint32("task", task.ID),
			zap.Uint64("pass", task.Pass),
		)
	})

	k, err := kernel.Boot(kernel.Config{
		CPUs:             cfg.Kernel.CPUs,
		QueueCapacity:    cfg.Kernel.QueueCapacity,
		MaxChannels:      cfg.Kernel.MaxChannels,
		RingSize:         cfg.Kernel.RingSize,
		MaxProcesses:     cfg.Kernel.MaxProcesses,
		TokensPerProcess: cfg.Kernel.TokensPerProcess,
		AuditCapacity:    cfg.Kernel.AuditCapacity,
	}, switcher)
	if err != nil {
		return nil, fmt.Errorf("kernel boot: %w", err)
	}
	logger.Info("Kernel booted", zap.String("boot_id", k.BootID.String()))

	registry := service.NewRegistry()
	registerProviders(registry, k, metrics, logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(k, registry, metrics, logger)
	wsHandler := ws.NewHandler(k, logger.Named("ws"), time.Second)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Service management
	router.GET("/services", handlers.ListServices)
	router.POST("/services/execute", handlers.ExecuteService)

	// Capability operations
	router.POST("/kernel/capabilities/grant", handlers.GrantCapability)
	router.POST("/kernel/capabilities/check", handlers.CheckCapability)
	router.GET("/kernel/processes/:pid/permissions", handlers.ProcessPermissions)

	// Audit log
	router.GET("/kernel/audit", handlers.RecentAudit)
	router.GET("/kernel/audit/export", handlers.ExportAudit)

	// Message channels
	router.POST("/kernel/channels", handlers.CreateChannel)
	router.POST("/kernel/channels/:id/send", handlers.SendMessage)
	router.POST("/kernel/channels/:id/recv", handlers.RecvMessage)
	router.GET("/kernel/channels/:id/poll", handlers.PollChannel)
	router.GET("/kernel/channels/stats", handlers.ChannelStats)

	// Scheduler operations
	router.POST("/kernel/scheduler/tasks", handlers.EnqueueTask)
	router.POST("/kernel/scheduler/tick", handlers.TickCPU)
	router.POST("/kernel/schedule-next", handlers.ScheduleNext)
	router.DELETE("/kernel/scheduler/tasks/:id", handlers.TerminateTask)
	router.GET("/kernel/scheduler/stats", handlers.GetSchedulerStats)

	// WebSocket
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		kernel:   k,
		registry: registry,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Kernel exposes the booted kernel, mainly for tests.
func (s *Server) Kernel() *kernel.Kernel { return s.kernel }

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Run starts the tick source and the HTTP server, blocking until the
// listener fails or Shutdown is called.
func (s *Server) Run() error {
	if s.config.Kernel.TickerEnabled {
		s.startTickers()
	}

	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// startTickers owns the timer collaborators: one goroutine per CPU
// feeding Run with tick events. Exactly one tick per timer event.
func (s *Server) startTickers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.tickCancel = cancel

	for cpu := 0; cpu < s.config.Kernel.CPUs; cpu++ {
		ticks := make(chan struct{}, 1)
		go s.kernel.Scheduler.Run(ctx, uint32(cpu), ticks)

		go func(cpu uint32) {
			ticker := time.NewTicker(s.config.Kernel.TickInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.metrics.TicksTotal.Inc()
					select {
					case ticks <- struct{}{}:
					default:
						// Scheduler still busy with the previous tick.
					}
				}
			}
		}(uint32(cpu))
	}

	s.logger.Info("Tick source started",
		zap.Int("cpus", s.config.Kernel.CPUs),
		zap.Duration("interval", s.config.Kernel.TickInterval),
	)
}

// Shutdown stops tickers and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if s.tickCancel != nil {
		s.tickCancel()
	}

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP shutdown failed", zap.Error(err))
			return err
		}
	}

	s.logger.Sync()
	return nil
}

func registerProviders(registry *service.Registry, k *kernel.Kernel, metrics *monitoring.Metrics, logger *logging.Logger) {
	logger.Info("Registering service providers...")

	capProvider := capabilityProvider.NewProvider(k.Capabilities, k.Audit).WithMetrics(metrics)
	if err := registry.Register(capProvider); err != nil {
		logger.Warn("Failed to register capability provider", zap.Error(err))
	}

	msgProvider := ipcProvider.NewProvider(k.Channels).WithMetrics(metrics)
	if err := registry.Register(msgProvider); err != nil {
		logger.Warn("Failed to register ipc provider", zap.Error(err))
	}

	schedProvider := schedulerProvider.NewProvider(k.Scheduler).WithMetrics(metrics)
	if err := registry.Register(schedProvider); err != nil {
		logger.Warn("Failed to register scheduler provider", zap.Error(err))
	}

	stats := registry.Stats()
	logger.Info("Service providers registered",
		zap.Any("total_services", stats["total_services"]),
		zap.Any("total_tools", stats["total_tools"]),
	)
}
