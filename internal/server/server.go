package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lumenlabs/brandflow/internal/config"
	"github.com/lumenlabs/brandflow/internal/service"
	"github.com/lumenlabs/brandflow/internal/service/generate"
	"github.com/lumenlabs/brandflow/internal/store"
)

type Server struct {
	Config *config.Config
	Store  store.Store
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Auth      *service.AuthService
	Lifecycle *service.Lifecycle
	Images    *service.ImageService
	Scheduler *service.Scheduler
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize storage
	var st store.Store
	switch cfg.Database.Type {
	case "memory":
		st = store.NewMemoryStore()
	default:
		gormStore, err := store.NewGormStore(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		st = gormStore
	}

	// Initialize services
	provider := generate.NewGemini(&cfg.Generator, logger)
	auth := service.NewAuthService(&cfg.Auth, logger)
	lifecycle := service.NewLifecycle(st, provider, logger)
	images := service.NewImageService(st, logger)
	scheduler := service.NewScheduler(&cfg.Scheduler, logger, st)

	// Create router
	router := gin.New()

	srv := &Server{
		Config:    cfg,
		Store:     st,
		Router:    router,
		Logger:    logger,
		Auth:      auth,
		Lifecycle: lifecycle,
		Images:    images,
		Scheduler: scheduler,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", s.handleLogin)
			auth.GET("/me", s.Auth.Middleware(), s.handleCurrentUser)
			auth.POST("/logout", s.Auth.Middleware(), s.handleLogout)
		}

		content := api.Group("/content", s.Auth.Middleware())
		{
			content.GET("", s.handleListContent)
			content.POST("/generate", s.handleGenerateContent)
			content.PATCH("/:id/status", s.handleUpdateStatus)
			content.PATCH("/:id/schedule", s.handleSetSchedule)
			content.DELETE("/:id", s.handleDeleteContent)
		}

		data := api.Group("/data", s.Auth.Middleware())
		{
			data.GET("/context", s.handleGetContext)
			data.POST("/context", s.handleSaveContext)
		}

		images := api.Group("/images", s.Auth.Middleware())
		{
			images.GET("", s.handleListImages)
			images.POST("", s.handleAddImage)
			images.DELETE("/:id", s.handleDeleteImage)
		}
	}
}

func (s *Server) Start(ctx context.Context) error {
	// Start scheduler
	if err := s.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop scheduler first
	s.Scheduler.Stop()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
