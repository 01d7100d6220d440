package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"aria/internal/config"
	"aria/internal/intent"
	"aria/internal/logging"
	"aria/internal/metrics"
	"aria/internal/pipeline"
	"aria/internal/speech"
	"aria/internal/store"
)

// Dependencies carries the collaborators the server routes requests to.
type Dependencies struct {
	Speech     speech.Transcriber
	Classifier intent.Classifier
	Stores     store.Stores
	Sessions   *pipeline.Manager
	Metrics    *metrics.Metrics
	Logger     logging.Logger
	Clock      func() time.Time
}

// Server is the HTTP/WebSocket front of the service.
type Server struct {
	config     *config.Config
	deps       Dependencies
	engine     *gin.Engine
	httpServer *http.Server
	upgrader   websocket.Upgrader
	logger     logging.Logger
	clock      func() time.Time
	startTime  time.Time
}

// New assembles the gin engine, middleware, and routes.
func New(cfg *config.Config, deps Dependencies) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:    cfg,
		deps:      deps,
		logger:    logging.OrNop(deps.Logger),
		clock:     deps.Clock,
		startTime: time.Now(),
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestLog())

	if cfg.Server.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
		corsConfig.AllowWebSockets = true
		engine.Use(cors.New(corsConfig))
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	s.engine = engine
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.Use(s.auth())

	voice := api.Group("/voice")
	{
		voice.POST("/transcribe", s.handleTranscribe)
		voice.POST("/parse", s.handleParse)
		voice.GET("/stream/:session", s.handleStream)
	}

	todos := api.Group("/todos")
	{
		todos.POST("", s.handleCreateTodo)
		todos.GET("", s.handleListTodos)
		todos.GET("/:id", s.handleGetTodo)
		todos.PUT("/:id", s.handleUpdateTodo)
		todos.DELETE("/:id", s.handleDeleteTodo)
	}

	expenses := api.Group("/expenses")
	{
		expenses.POST("", s.handleCreateExpense)
		expenses.GET("", s.handleListExpenses)
		expenses.GET("/:id", s.handleGetExpense)
		expenses.PUT("/:id", s.handleUpdateExpense)
		expenses.DELETE("/:id", s.handleDeleteExpense)
	}

	events := api.Group("/events")
	{
		events.POST("", s.handleCreateEvent)
		events.GET("", s.handleListEvents)
		events.GET("/:id", s.handleGetEvent)
		events.PUT("/:id", s.handleUpdateEvent)
		events.DELETE("/:id", s.handleDeleteEvent)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

// Handler exposes the engine for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains with a 10s grace period.
func (s *Server) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.logger.Info("listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
