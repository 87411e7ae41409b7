package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/signalmesh/trafficctl/internal/link"
	"github.com/signalmesh/trafficctl/internal/observability"
	"github.com/signalmesh/trafficctl/internal/state"
)

// StaleAfter bounds how old the last field-controller heartbeat may be
// before /status reports the controller as disconnected.
const StaleAfter = 5 * time.Second

// Config holds the control-plane endpoint settings.
type Config struct {
	ListenAddr  string
	Node        string
	CorsOrigins []string
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:  ":5000",
		Node:        "trafficd",
		CorsOrigins: []string{"http://localhost:3000"},
	}
}

// Server is the control-plane boundary over the traffic store and the
// field link. All state access goes through the store's operations;
// handlers never reach into raw fields.
type Server struct {
	cfg     Config
	store   *state.Store
	link    *link.Manager
	started time.Time
	router  *gin.Engine
}

func NewServer(cfg Config, store *state.Store, lm *link.Manager) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultConfig().ListenAddr
	}
	if cfg.Node == "" {
		cfg.Node = DefaultConfig().Node
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		link:    lm,
		started: time.Now(),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(s.cfg.Node))
	if len(s.cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.CorsOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	s.registerRoutes(r)
	return r
}

// Router exposes the handler tree for in-process tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves the control plane until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the control plane on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.router}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	log.Info().Str("addr", ln.Addr().String()).Msg("control_plane_listening")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-serveErr
		return nil
	}
}
