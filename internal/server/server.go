package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/Rob--W/pdfjs-telemetry/internal/config"
	"github.com/Rob--W/pdfjs-telemetry/internal/model"
	"github.com/Rob--W/pdfjs-telemetry/internal/observability"
	"github.com/Rob--W/pdfjs-telemetry/internal/response"
)

const (
	ingestPath      = "/logpdfjs"
	challengePrefix = "/.well-known/acme-challenge"

	// Clients send no payload. The transport tolerates a single byte and
	// refuses anything past it before validation runs.
	bodyLimit = "1B"

	shutdownTimeout = 10 * time.Second
)

// Appender receives accepted telemetry records. The file-backed
// implementation lives in the storage package.
type Appender interface {
	Append(model.LogRecord) error
}

// Server holds the Echo app and dependencies.
type Server struct {
	Echo    *echo.Echo
	Config  *config.Config
	logger  zerolog.Logger
	sink    Appender
	metrics *observability.Metrics
}

// New builds the Echo server and registers the public routes: the ingest
// endpoint, the robots policy, and the certificate challenge directory when
// one is configured. Everything else answers 404 with an empty body.
func New(cfg *config.Config, logger zerolog.Logger, sink Appender, app *newrelic.Application) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		Echo:    e,
		Config:  cfg,
		logger:  logger,
		sink:    sink,
		metrics: observability.NewMetrics(),
	}

	e.HTTPErrorHandler = response.ErrorHandler(logger, func(status int) {
		s.metrics.RecordRequest(observability.OutcomeForStatus(status))
	})
	e.Use(middleware.Recover(), observability.Transaction(app), s.requestLog)

	e.POST(ingestPath, s.handleIngest, middleware.BodyLimit(bodyLimit))
	e.GET("/robots.txt", s.handleRobots)
	if cfg.Server.ACMEDir != "" {
		e.Static(challengePrefix, cfg.Server.ACMEDir)
	}

	// Pings are single-shot; keep the listener timeouts tight.
	for _, hs := range []*http.Server{e.Server, e.TLSServer} {
		hs.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
		hs.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second
		hs.IdleTimeout = time.Duration(cfg.Server.IdleTimeout) * time.Second
	}

	return s
}

// requestLog emits debug-level request lines. Client identifying values
// never land in the operational log; the telemetry file is the only place
// they are written.
func (s *Server) requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if err == nil {
			s.logger.Debug().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Msg("request")
		}
		return err
	}
}

// Start starts the listener, serving HTTPS when a certificate pair is
// configured. Blocks until the context is cancelled or the server fails; on
// cancel the server drains before Start returns.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil {
			s.logger.Error().Err(err).Msg("shutdown")
		}
	}()
	if s.Config.Server.TLS() {
		return s.Echo.StartTLS(s.Config.Server.Addr, s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}
	return s.Echo.Start(s.Config.Server.Addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
