// Package httpapi exposes the triage pipeline and the company profile
// store over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// Server is the HTTP front end for the triage service
type Server struct {
	engine           *gin.Engine
	srv              *http.Server
	pipeline         *core.Pipeline
	store            core.ProfileStore
	logger           *zap.Logger
	maxContentLength int
	maxUploadBytes   int64
}

// NewServer creates the HTTP server and registers all routes
func NewServer(
	pipeline *core.Pipeline,
	store core.ProfileStore,
	logger *zap.Logger,
	listenAddress string,
	maxContentLength int,
	maxUploadBytes int64,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:           engine,
		pipeline:         pipeline,
		store:            store,
		logger:           logger,
		maxContentLength: maxContentLength,
		maxUploadBytes:   maxUploadBytes,
	}

	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)
	engine.POST("/classify-email", s.handleClassifyEmail)
	engine.POST("/company-config", s.handleSaveCompanyConfig)
	engine.GET("/company-config/:id", s.handleGetCompanyConfig)
	engine.POST("/extract-text", s.handleExtractText)

	s.srv = &http.Server{
		Addr:    listenAddress,
		Handler: engine,
	}
	return s
}

// Engine exposes the underlying gin engine for tests
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start begins serving HTTP requests. It blocks until the listener fails
// or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "llm-email-triage",
		"status":  "running",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
