// Package main implements the distcolony backend service, a worker process
// that hosts a subset of the grid's shards.
//
// The backend:
//   - Registers its address in the cluster registry at startup
//   - Accepts shard-initialization messages from the coordinator on its
//     data-plane port, caching the embedded topology on first contact
//   - Serves health, info and shard-status queries on its HTTP port
//   - Advances its hosted shards' tick counters in the background
//
// Configuration (environment):
//   - BACKEND_HOST:      Advertised host (default: "127.0.0.1")
//   - BACKEND_PORT:      Data-plane listen/advertised port (default: 8082)
//   - BACKEND_HTTP_PORT: Administrative HTTP port (default: 8085)
//   - REGISTRY_DIR:      Shared registry directory (default: "output/registry")
//   - LOG_LEVEL, LOG_PRETTY: Logging setup
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yanivbyd/distcolony/internal/backend"
	"github.com/yanivbyd/distcolony/internal/cluster"
	"github.com/yanivbyd/distcolony/internal/colony"
	"github.com/yanivbyd/distcolony/internal/logging"
	"github.com/yanivbyd/distcolony/internal/registry"
)

func main() {
	logging.Setup(getenv("LOG_LEVEL", "info"), getenv("LOG_PRETTY", "") != "")

	self := cluster.HostInfo{
		Host:     getenv("BACKEND_HOST", "127.0.0.1"),
		Port:     getenvInt("BACKEND_PORT", 8082),
		HTTPPort: getenvInt("BACKEND_HTTP_PORT", 8085),
	}
	be := backend.New(self)

	reg, err := registry.NewFileRegistry(getenv("REGISTRY_DIR", "output/registry"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open cluster registry")
	}
	instanceID := uuid.NewString()
	if err := reg.RegisterBackend(instanceID, self); err != nil {
		log.Fatal().Err(err).Msg("failed to register backend")
	}

	// Data-plane server: shard traffic from the coordinator.
	dataMux := http.NewServeMux()
	dataMux.HandleFunc("/shard/init", func(w http.ResponseWriter, r *http.Request) {
		handleInitShard(be, w, r)
	})
	dataSrv := &http.Server{
		Addr:              self.Addr(),
		Handler:           dataMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Administrative server: health, info, shard status.
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	adminMux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		handleInfo(be, w, r)
	})
	adminMux.HandleFunc("/shard/", func(w http.ResponseWriter, r *http.Request) {
		handleShardStatus(be, w, r)
	})
	adminSrv := &http.Server{
		Addr:              self.HTTPAddr(),
		Handler:           adminMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	tickCtx, stopTicker := context.WithCancel(context.Background())
	defer stopTicker()
	go be.RunTicker(tickCtx, 25*time.Millisecond)

	go func() {
		log.Info().Str("addr", dataSrv.Addr).Msg("backend data-plane listening")
		if err := dataSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("data-plane listen failed")
		}
	}()
	go func() {
		log.Info().Str("addr", adminSrv.Addr).Msg("backend admin listening")
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("admin listen failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	stopTicker()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = dataSrv.Shutdown(ctx)
	_ = adminSrv.Shutdown(ctx)
	if err := reg.UnregisterBackend(instanceID); err != nil {
		log.Warn().Err(err).Msg("failed to unregister backend")
	}
	log.Info().Msg("backend stopped")
}

// handleInitShard processes one shard-initialization message. A topology
// problem fails this one shard's initialization with a descriptive status;
// the process and other shards are unaffected.
func handleInitShard(be *backend.Backend, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cluster.InitShardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	resp, err := be.InitShard(req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, backend.ErrMissingTopology):
		log.Error().Str("shard", req.Shard.ID()).Msg("first-contact shard init carried no topology")
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, backend.ErrSelfNotInTopology):
		log.Error().Str("shard", req.Shard.ID()).Str("self", be.Self().Addr()).
			Msg("this backend is not part of the pushed topology")
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, backend.ErrShardNotInTopology):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func handleInfo(be *backend.Backend, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, be.Info())
}

// handleShardStatus serves GET /shard/{shard_id}/status, where {shard_id}
// is the canonical "{x}_{y}_{width}_{height}" form. The string id is used
// only at this HTTP boundary; lookup happens on the parsed value's id to
// reject malformed input explicitly.
func handleShardStatus(be *backend.Backend, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/shard/")
	shardID, ok := strings.CutSuffix(rest, "/status")
	if !ok || shardID == "" {
		http.Error(w, "expected /shard/{shard_id}/status", http.StatusBadRequest)
		return
	}

	shard, err := colony.ParseShardID(shardID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hosted, found := be.GetShard(shard.ID())
	if !found {
		http.Error(w, "shard not hosted here", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cluster.ShardInfo{
		ShardID: shard.ID(),
		Shard:   hosted.Shard,
		Tick:    hosted.Tick(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
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
