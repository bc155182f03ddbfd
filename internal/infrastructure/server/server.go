package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/minicode/internal/api/http"
	"github.com/GriffinCanCode/minicode/internal/api/middleware"
	"github.com/GriffinCanCode/minicode/internal/api/ws"
	"github.com/GriffinCanCode/minicode/internal/domain/persistence"
	"github.com/GriffinCanCode/minicode/internal/domain/playground"
	"github.com/GriffinCanCode/minicode/internal/domain/sandbox"
	"github.com/GriffinCanCode/minicode/internal/infrastructure/config"
	"github.com/GriffinCanCode/minicode/internal/infrastructure/logging"
	"github.com/GriffinCanCode/minicode/internal/infrastructure/monitoring"
)

// Dependencies are the resources the caller owns and closes
type Dependencies struct {
	Store     *persistence.Store // required
	Clipboard playground.Copier
}

// Server wraps the HTTP server and the playground core
type Server struct {
	router    *gin.Engine
	http      *http.Server
	workspace *playground.Workspace
	hub       *ws.Hub
	metrics   *monitoring.Metrics
	logger    *logging.Logger
	config    *config.Config
}

// NewServer builds the workspace and mounts every route
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger, deps Dependencies) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing minicode server",
		zap.String("addr", cfg.Address()),
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("headless", cfg.Sandbox.Headless),
	)

	metrics := monitoring.NewMetrics()

	workspace, err := playground.New(ctx, WorkspaceOptions(cfg, deps, metrics, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	hub := ws.NewHub(workspace, ws.Options{
		AllowedOrigins: cfg.CORS.Origins,
		Recorder:       metrics,
		Logger:         logger.Component(logging.ComponentWS),
	})

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component(logging.ComponentHTTP)))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSForOrigins(cfg.CORS.Origins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := api.NewHandlers(workspace, metrics, logger.Component(logging.ComponentHTTP))
	handlers.Register(router)
	router.GET("/stream", hub.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Address(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		workspace: workspace,
		hub:       hub,
		metrics:   metrics,
		logger:    logger,
		config:    cfg,
	}, nil
}

// WorkspaceOptions translates configuration into playground options
func WorkspaceOptions(cfg *config.Config, deps Dependencies, recorder playground.Recorder, logger *logging.Logger) playground.Options {
	return playground.Options{
		QuietPeriod:       cfg.Preview.Debounce.Duration,
		ConsoleMaxEntries: cfg.Preview.ConsoleMaxEntries,
		Sandbox:           SandboxConfig(cfg),
		Store:             deps.Store,
		Clipboard:         deps.Clipboard,
		Recorder:          recorder,
		Logger:            logger.Component(logging.ComponentWorkspace),
	}
}

// SandboxConfig translates configuration into runner settings
func SandboxConfig(cfg *config.Config) sandbox.Config {
	sc := sandbox.DefaultConfig()
	sc.Timeout = cfg.Sandbox.Timeout.Duration
	sc.Headless = cfg.Sandbox.Headless
	sc.PoolSize = cfg.Sandbox.PoolSize
	if cfg.Sandbox.MaxTimers > 0 {
		sc.MaxTimers = cfg.Sandbox.MaxTimers
	}
	if cfg.Sandbox.MaxRepeats > 0 {
		sc.MaxRepeats = cfg.Sandbox.MaxRepeats
	}
	if cfg.Sandbox.MaxCallStack > 0 {
		sc.MaxCallStackSize = cfg.Sandbox.MaxCallStack
	}
	return sc
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Workspace returns the playground core
func (s *Server) Workspace() *playground.Workspace {
	return s.workspace
}

// Run serves HTTP until Shutdown is called
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, disconnects host UIs and commits any pending edit.
// The store stays open for its owner to close.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	s.hub.Close()
	if err := s.workspace.Close(); err != nil {
		s.logger.Error("Failed to close workspace", zap.Error(err))
		errs = append(errs, fmt.Errorf("workspace close: %w", err))
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
