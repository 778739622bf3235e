// Package panel serves the read-only status API the control panel polls.
package panel

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"go-goodhr-automation/internal/engine"
	"go-goodhr-automation/internal/models"

	"github.com/gin-gonic/gin"
)

type Server struct {
	stats  *engine.Stats
	quotas engine.QuotaStore
	userID string
	router *gin.Engine
	srv    *http.Server
}

func New(stats *engine.Stats, quotas engine.QuotaStore, userID string) *Server {
	s := &Server{stats: stats, quotas: quotas, userID: userID}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", s.health)
	api := r.Group("/api")
	api.GET("/session", s.session)
	api.GET("/quota", s.quota)
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Start listens in the background until Shutdown.
func (s *Server) Start(addr string) {
	s.srv = &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("🖥️ Panel API listening on %s", addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("❌ Panel API stopped: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"success": true,
		"time":    time.Now().Unix(),
	})
}

func (s *Server) session(c *gin.Context) {
	c.JSON(http.StatusOK, s.stats.Snapshot())
}

func (s *Server) quota(c *gin.Context) {
	state, err := s.quotas.QuotaState(c.Request.Context(), s.userID)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	case errors.Is(err, models.ErrMalformed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": string(engine.StopInvalidQuota), "detail": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	vq := state.Active()
	if vq == nil {
		vq = &models.VersionQuota{}
	}
	c.JSON(http.StatusOK, gin.H{
		"version":        state.Version,
		"greetCount":     vq.GreetCount,
		"remainingQuota": vq.RemainingQuota,
		"expiryDate":     vq.ExpiryDate,
		"lastResetDate":  vq.LastResetDate,
		"tokensUsed":     vq.TokensUsed,
	})
}
