package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/microcosm-cc/itemcache/cache"
	conf "github.com/microcosm-cc/itemcache/config"
	"github.com/microcosm-cc/itemcache/controller"
	h "github.com/microcosm-cc/itemcache/helpers"
	"github.com/microcosm-cc/itemcache/metrics"
	"github.com/microcosm-cc/itemcache/models"
	"github.com/microcosm-cc/itemcache/server"
)

var configPath = flag.String("config", conf.DefaultConfigFilePath, "path to the config file")

func main() {
	// Parse flags
	// Also used to init glog
	flag.Parse()

	// 100 megabytes max before rolling the log files
	glog.MaxSize = 1024 * 1024 * 100

	cfg, err := conf.Load(*configPath)
	if err != nil {
		glog.Error(err)
		glog.Flush()
		os.Exit(1)
	}

	// Catch closing signal, shut down and flush logs
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	err = run(ctx, cfg, prometheus.NewRegistry())
	stop()
	if err != nil {
		glog.Error(err)
		glog.Flush()
		os.Exit(1)
	}
	glog.Flush()
}

// run wires the store, cache and server together and blocks until ctx is done
// or the server fails
func run(ctx context.Context, cfg *conf.Config, reg *prometheus.Registry) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	backoff := h.Backoff{
		Initial: cfg.Seconds(conf.RetryInitialSeconds),
		Max:     cfg.Seconds(conf.RetryMaxSeconds),
	}

	// Both connections are made in the background so that the server can
	// answer health checks while they come up
	var (
		store    models.ItemStore
		checkers []server.Checker
	)

	switch cfg.String(conf.DatabaseDriver) {
	case conf.DriverMemory:
		if glog.V(2) {
			glog.Info("Using in-memory store")
		}
		ms := models.NewMemoryStore()
		store = ms
		checkers = append(checkers, ms)

	case conf.DriverPostgres:
		if glog.V(2) {
			glog.Infof(
				`Initialising DB connection on %s:%d for database %s`,
				cfg.String(conf.DatabaseHost),
				cfg.Int64(conf.DatabasePort),
				cfg.String(conf.DatabaseName),
			)
		}
		db, err := h.OpenDB(h.DBConfig{
			Host:     cfg.String(conf.DatabaseHost),
			Port:     cfg.Int64(conf.DatabasePort),
			Database: cfg.String(conf.DatabaseName),
			Username: cfg.String(conf.DatabaseUsername),
			Password: cfg.String(conf.DatabasePassword),
		})
		if err != nil {
			return err
		}
		ps := models.NewPostgresStore(db)
		defer ps.Close()

		go connectInBackground(ctx, "Postgres", ps.Connect, backoff)
		store = ps
		checkers = append(checkers, ps)

	default:
		return fmt.Errorf(
			"unknown %s %q",
			conf.DatabaseDriver,
			cfg.String(conf.DatabaseDriver),
		)
	}

	if glog.V(2) {
		glog.Infof(
			`Initialising cache connection to %s:%d`,
			cfg.String(conf.MemcachedHost),
			cfg.Int64(conf.MemcachedPort),
		)
	}
	mc := cache.New(
		cfg.String(conf.MemcachedHost),
		cfg.Int64(conf.MemcachedPort),
	)
	go connectInBackground(ctx, "Memcached", mc.Connect, backoff)
	checkers = append(checkers, mc)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	env := &controller.Env{
		Items: models.NewItems(
			store,
			mc,
			m,
			int32(cfg.Int64(conf.CacheTTLSeconds)),
		),
	}

	if glog.V(2) {
		glog.Infof(
			"Starting server on port %d",
			cfg.Int64(conf.ListenPort),
		)
	}

	return server.StartServer(
		ctx,
		cfg.Int64(conf.ListenPort),
		env,
		m,
		reg,
		checkers...,
	)
}

// connectInBackground calls connect and logs how it ended. Cancellation is
// the normal end during shutdown and is only logged verbosely.
func connectInBackground(
	ctx context.Context,
	name string,
	connect func(context.Context, h.Backoff) error,
	b h.Backoff,
) error {

	err := connect(ctx, b)
	switch {
	case err == nil:
		glog.Infof("%s connected", name)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		if glog.V(2) {
			glog.Infof("%s connection abandoned: %v", name, err)
		}
	default:
		glog.Errorf("%s connection failed: %+v", name, err)
	}
	return err
}
