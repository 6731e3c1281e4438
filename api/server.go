// Package api serves the control plane's HTTP/HTTPS API: health, status
// and the connect/disconnect commands, with logging, bearer-token auth and
// CORS middleware.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/socktun/socktun/identity"
)

const (
	certCommonName   = "socktun"
	certValidityDays = 3650
	shutdownTimeout  = 5 * time.Second
)

// Config is the server's runtime mode, derived from the persisted settings.
type Config struct {
	Port         int
	HTTPSEnabled bool
	AuthEnabled  bool
	Token        string
}

// Server binds the control API on all interfaces. Start and Stop are
// idempotent; calling either in the already-reached mode is a no-op.
type Server struct {
	conns    ConnectionService
	stats    StatsProvider
	identity *identity.Manager
	log      *logrus.Logger

	mu      sync.Mutex
	srv     *http.Server
	stopped chan struct{}
}

func NewServer(conns ConnectionService, stats StatsProvider, idm *identity.Manager, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{conns: conns, stats: stats, identity: idm, log: logger}
}

// Start brings the server up in the given mode. The TLS identity is
// ensured before the listener opens, keeping the CPU-heavy generation off
// the request path.
func (s *Server) Start(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}

	router := newRouter(cfg, handlers{conns: s.conns, stats: s.stats}, s.log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	var tlsEnabled bool
	if cfg.HTTPSEnabled {
		material, err := s.identity.Ensure(certCommonName, certValidityDays)
		if err != nil {
			return fmt.Errorf("Start: failed to ensure TLS identity: %w", err)
		}
		cert, err := material.TLSCertificate()
		if err != nil {
			return fmt.Errorf("Start: failed to load TLS identity: %w", err)
		}
		srv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
		tlsEnabled = true
	}

	stopped := make(chan struct{})
	s.srv = srv
	s.stopped = stopped

	go func() {
		defer close(stopped)
		var err error
		if tlsEnabled {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("control API server stopped unexpectedly")
		}
	}()

	s.log.WithField("port", cfg.Port).
		WithField("https", cfg.HTTPSEnabled).
		WithField("auth", cfg.AuthEnabled).
		Info("control API listening")
	return nil
}

// Stop shuts the listener down, waiting briefly for in-flight requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.srv
	stopped := s.stopped
	s.srv = nil
	s.stopped = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("Stop: shutdown did not complete cleanly: %w", err)
	}
	<-stopped
	s.log.Info("control API stopped")
	return nil
}

// newRouter assembles the middleware chain in its fixed order: request
// logging, CORS, auth (when enabled), default content type. CORS runs
// ahead of auth so the wildcard origin header reaches browser clients
// even on 401/403 rejections.
func newRouter(cfg Config, h handlers, logger *logrus.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(RequestLogger(logger), gin.Recovery(), CORS())
	if cfg.AuthEnabled {
		router.Use(TokenAuth(cfg.Token))
	}
	router.Use(DefaultContentType())
	registerRoutes(router, h)
	return router
}

// Running reports whether the server currently holds a listener.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srv != nil
}
