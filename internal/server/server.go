package server

// HTTP boundary for the infographic pipeline
// Exposes POST /upload and GET /test behind CORS, rate limiting,
// request logging and panic recovery; shuts down gracefully on ctx cancel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"traffic-infographic/internal/features/delivery"
	"traffic-infographic/internal/features/infographic"
	logging "traffic-infographic/internal/infra/log"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultMaxUploadBytes  = 10 * 1024 * 1024
	defaultShutdownTimeout = 10 * time.Second
	maxMultipartMemory     = 32 << 20
)

type Options struct {
	Addr            string
	AllowedOrigins  []string
	MaxUploadBytes  int64
	RateLimit       float64 // requests per second, 0 disables
	RateBurst       int
	ShutdownTimeout time.Duration
}

type Server struct {
	opts     Options
	pipeline *infographic.Pipeline
	adapter  delivery.Adapter
	limiter  *rate.Limiter
	log      *logging.Logger
}

func New(opts Options, pipeline *infographic.Pipeline, adapter delivery.Adapter, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		opts:     opts,
		pipeline: pipeline,
		adapter:  adapter,
		log:      logger,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/test", s.handleTest).Methods(http.MethodGet)

	var h http.Handler = r
	h = s.rateLimit(h)
	h = s.cors(h)
	h = s.logRequests(h)
	h = s.recoverPanics(h)
	return h
}

// Run listens on opts.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests for at most ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Success("HTTP server listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("mode", string(s.adapter.Mode())))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.log.Error("HTTP server stopped", zap.Error(err))
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("Graceful shutdown timed out", zap.Error(err))
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.log.Success("HTTP server stopped gracefully")
	return nil
}
