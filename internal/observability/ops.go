package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// OpsServer serves Prometheus metrics and a liveness probe on its own
// listener, kept off the public surface. Intended for a loopback address.
type OpsServer struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewOpsServer builds the operations listener for addr.
func NewOpsServer(addr string, logger zerolog.Logger) *OpsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return &OpsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving the listener until Shutdown or failure.
func (o *OpsServer) Start() error {
	o.logger.Info().Str("addr", o.srv.Addr).Msg("ops listener starting")
	if err := o.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains the listener.
func (o *OpsServer) Shutdown(ctx context.Context) error {
	return o.srv.Shutdown(ctx)
}
