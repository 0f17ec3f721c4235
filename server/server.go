package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"

	"github.com/microcosm-cc/itemcache/controller"
	"github.com/microcosm-cc/itemcache/metrics"
)

const shutdownTimeout = 10 * time.Second

// NewRouter registers every handler against a new router. Metrics are served
// from gatherer at /metrics.
func NewRouter(
	env *controller.Env,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
) *mux.Router {

	r := mux.NewRouter()
	r.Use(instrument(m))

	for url, handler := range handlers(env) {
		r.HandleFunc(url, handler)
	}

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.NotFoundHandler = http.HandlerFunc(controller.NotFoundHandler)

	return r
}

// instrument records the duration of each request against its route template
func instrument(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			route := r.URL.Path
			if cr := mux.CurrentRoute(r); cr != nil {
				if tpl, err := cr.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.ObserveRequest(route, r.Method, start)
		})
	}
}

// StartServer owns the http process and cron jobs. It returns when ctx is
// done, after the server has shut down, or when the server fails.
func StartServer(
	ctx context.Context,
	port int64,
	env *controller.Env,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	checkers ...Checker,
) error {

	// Set up the cron jobs
	c := cron.New()
	for schedule, job := range jobs(checkers) {
		if err := c.AddFunc(schedule, job); err != nil {
			return fmt.Errorf("cron schedule %q: %w", schedule, err)
		}
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(env, m, gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	if glog.V(2) {
		glog.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return err
	}

	err = <-errc
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
