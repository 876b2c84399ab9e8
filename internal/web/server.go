// Package web serves the audit pipeline over a JSON HTTP API.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/audithawk/internal/audit"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "audithawk"

// Options configures a Server.
type Options struct {
	// AccessLog receives gin's request log. Nil disables it.
	AccessLog io.Writer
	Now       func() time.Time
}

// Server is the audithawk HTTP API.
type Server struct {
	state  *audit.State
	router *gin.Engine
	now    func() time.Time
}

// NewServer creates the router and registers every route.
func NewServer(state *audit.State, opts Options) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	if opts.AccessLog != nil {
		router.Use(gin.LoggerWithWriter(opts.AccessLog))
	}
	router.MaxMultipartMemory = maxUploadSize

	s := &Server{
		state:  state,
		router: router,
		now:    opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/analyze", s.handleAnalyze)

		api.GET("/live", s.handleLive)
		api.DELETE("/live", s.handleClearLive)
		api.POST("/live/transactions/:index/accept", s.handleAccept)
		api.POST("/live/transactions/:index/reject", s.handleReject)

		api.GET("/sessions", s.handleListSessions)
		api.GET("/sessions/:id", s.handleGetSession)
		api.POST("/sessions/:id/select", s.handleSelectSession)

		api.GET("/vendors", s.handleListVendors)
		api.POST("/vendors", s.handleAddVendor)
		api.DELETE("/vendors/:name", s.handleRemoveVendor)
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting web server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("Shutting down web server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}
