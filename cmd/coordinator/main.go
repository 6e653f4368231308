// Package main implements the distcolony coordinator service, the single
// authority for the cluster's shard-to-host topology.
//
// The coordinator:
//   - Creates the topology exactly once per cluster lifetime, on an
//     explicit POST /cluster/start request (idempotent via a caller key)
//   - Serves the topology to any reader via GET /topology
//   - Pushes shard-initialization messages to the backends
//   - Runs a background ticker that samples simulation progress
//
// Configuration (environment):
//   - COORDINATOR_HOST:       Advertised host (default: "127.0.0.1")
//   - COORDINATOR_PORT:       Advertised data-plane port (default: 8083)
//   - COORDINATOR_HTTP_PORT:  HTTP listen/advertised port (default: 8084)
//   - REGISTRY_DIR:           Shared registry directory (default: "output/registry")
//   - GRID_WIDTH/GRID_HEIGHT: Grid dimensions (default: 2000x1250)
//   - SHARD_WIDTH/SHARD_HEIGHT: Shard dimensions (default: 250x250)
//   - LOG_LEVEL, LOG_PRETTY:  Logging setup
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/yanivbyd/distcolony/internal/cluster"
	"github.com/yanivbyd/distcolony/internal/colony"
	"github.com/yanivbyd/distcolony/internal/coordinator"
	"github.com/yanivbyd/distcolony/internal/logging"
	"github.com/yanivbyd/distcolony/internal/registry"
	"github.com/yanivbyd/distcolony/internal/topology"
)

func main() {
	logging.Setup(getenv("LOG_LEVEL", "info"), getenv("LOG_PRETTY", "") != "")

	self := cluster.HostInfo{
		Host:     getenv("COORDINATOR_HOST", "127.0.0.1"),
		Port:     getenvInt("COORDINATOR_PORT", 8083),
		HTTPPort: getenvInt("COORDINATOR_HTTP_PORT", 8084),
	}
	grid := colony.GridConfig{
		GridWidth:   getenvInt("GRID_WIDTH", 2000),
		GridHeight:  getenvInt("GRID_HEIGHT", 1250),
		ShardWidth:  getenvInt("SHARD_WIDTH", 250),
		ShardHeight: getenvInt("SHARD_HEIGHT", 250),
	}
	if err := grid.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid grid configuration")
	}

	reg, err := registry.NewFileRegistry(getenv("REGISTRY_DIR", "output/registry"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open cluster registry")
	}
	if err := reg.RegisterCoordinator(self); err != nil {
		log.Fatal().Err(err).Msg("failed to register coordinator")
	}

	metrics := coordinator.NewMetrics(prometheus.DefaultRegisterer)
	store := topology.NewStore()
	srv := newServer(store, &coordinator.Creator{
		Grid:     grid,
		Self:     self,
		Store:    store,
		Registry: reg,
		Metrics:  metrics,
	}, metrics)

	mux := http.NewServeMux()
	mux.HandleFunc("/cluster/start", srv.handleClusterStart)
	mux.HandleFunc("/topology", srv.handleTopology)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:              self.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Background ticker starts before any topology exists; it skips cycles
	// until the create request arrives.
	tickCtx, stopTicker := context.WithCancel(context.Background())
	defer stopTicker()
	go coordinator.NewTicker(store, time.Second, nil).Run(tickCtx)

	go func() {
		log.Info().Str("addr", httpSrv.Addr).Msg("coordinator listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	stopTicker()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	if err := reg.UnregisterCoordinator(); err != nil {
		log.Warn().Err(err).Msg("failed to unregister coordinator")
	}
	log.Info().Msg("coordinator stopped")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Fatal().Str("var", k).Str("value", v).Msg("environment variable must be an integer")
	}
	return def
}
