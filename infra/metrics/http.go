package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/rota/infra/logger"
)

// StartPromServer serves the default Prometheus gatherer on addr until ctx
// is canceled.
func StartPromServer(ctx context.Context, addr string) error {
	return ServeGatherer(ctx, addr, prometheus.DefaultGatherer)
}

// ServeGatherer exposes g on addr under /metrics. A dedicated ServeMux keeps
// the endpoint apart from the API handlers.
func ServeGatherer(ctx context.Context, addr string, g prometheus.Gatherer) error {
	log := logger.New("prometheus")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("prom server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
