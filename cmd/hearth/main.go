package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/hearthio/hearth/pkg/config"
	"github.com/hearthio/hearth/pkg/metrics"
	"github.com/hearthio/hearth/pkg/pool"
	"github.com/hearthio/hearth/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	flag.Parse()

	log := logrus.New()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load config")
		}
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("invalid log level")
	}
	log.SetLevel(level)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	mtr := metrics.New(registry)

	p, err := pool.New(cfg.Workers,
		pool.WithLogger(log),
		pool.WithHooks(mtr.PoolHooks()))
	if err != nil {
		log.WithError(err).Fatal("failed to create worker pool")
	}
	log.WithField("workers", cfg.Workers).Info("worker pool started")

	var metricsSrv *metrics.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = metrics.NewServer(cfg.MetricsAddr, registry)
		if err := metricsSrv.Start(); err != nil {
			log.WithError(err).Fatal("failed to start metrics server")
		}
		log.WithField("addr", metricsSrv.Addr().String()).Info("metrics server started")
	}

	srv := web.NewServer(cfg, p, web.WithLogger(log), web.WithMetrics(mtr))
	if err := srv.Start(); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")

	if err := srv.Stop(); err != nil {
		log.WithError(err).Error("error closing listener")
	}
	// Blocks until every accepted connection has been handled.
	p.Stop()

	if metricsSrv != nil {
		if err := metricsSrv.Stop(); err != nil {
			log.WithError(err).Error("error stopping metrics server")
		}
	}

	log.Info("shutdown complete")
}
