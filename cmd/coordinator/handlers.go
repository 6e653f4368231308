package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yanivbyd/distcolony/internal/coordinator"
	"github.com/yanivbyd/distcolony/internal/topology"
)

// server holds the coordinator's HTTP-facing state: the topology store, the
// creator that populates it, and the idempotency key accepted by the first
// successful create.
type server struct {
	store   *topology.Store
	creator *coordinator.Creator
	metrics *coordinator.Metrics

	mu        sync.Mutex
	storedKey string // idempotency key of the create that installed the topology
}

func newServer(store *topology.Store, creator *coordinator.Creator, metrics *coordinator.Metrics) *server {
	return &server{store: store, creator: creator, metrics: metrics}
}

// handleClusterStart processes POST /cluster/start?idempotency_key=K.
//
// Responses:
//   - 400: missing idempotency_key
//   - 200 + topology: cluster created by this request
//   - 200 + topology: cluster already created by a request with the same
//     key (an at-most-once retry from the same caller)
//   - 409: cluster already created under a different key
//   - 503: no backends available; caller may retry after backends register
//   - 422: invalid grid configuration
//
// The handler itself performs no presence check before creating; the
// store's install step is the single arbiter, so two concurrent first
// requests resolve to one "created" and one "already created".
func (s *server) handleClusterStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	key := r.URL.Query().Get("idempotency_key")
	if key == "" {
		http.Error(w, "idempotency_key parameter required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	topo, err := s.creator.CreateCluster(ctx)
	switch {
	case err == nil:
		s.mu.Lock()
		s.storedKey = key
		s.mu.Unlock()
		log.Info().Str("idempotency_key", key).Msg("cluster created")
		writeJSON(w, http.StatusOK, topo.Payload())

	case errors.Is(err, topology.ErrAlreadyInitialized):
		s.mu.Lock()
		matches := s.storedKey == key
		s.mu.Unlock()
		if matches {
			writeJSON(w, http.StatusOK, topo.Payload())
			return
		}
		http.Error(w, "cluster already started", http.StatusConflict)

	case errors.Is(err, topology.ErrNoHostsAvailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)

	default:
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	}
}

// handleTopology processes GET /topology: the current topology payload, or
// a 404 before the cluster has been created. Absence is an expected state
// for this endpoint; the bootstrap client drives creation off it.
func (s *server) handleTopology(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	topo, err := s.store.GetRequired()
	if err != nil {
		s.metrics.ReadOutcome("miss")
		http.Error(w, "topology not created", http.StatusNotFound)
		return
	}
	s.metrics.ReadOutcome("hit")
	writeJSON(w, http.StatusOK, topo.Payload())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
