package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yanivbyd/distcolony/internal/cluster"
	"github.com/yanivbyd/distcolony/internal/topology"
)

// ErrCreateFailed is returned when the cluster-create round trip completed
// but the follow-up topology read still reported absence. It is surfaced to
// the end user as a visible error; the client never loops a third time.
var ErrCreateFailed = errors.New("cluster create did not produce a topology")

// Client is the GUI-side bootstrap client. It talks only to the
// coordinator: it reads topology through the query endpoint, and when the
// cluster has not been created yet it issues the create request itself and
// re-reads once. It never talks to backends and never constructs topology
// locally.
type Client struct {
	coordinatorURL string
}

// NewClient returns a client for the coordinator at baseURL
// (e.g. "http://127.0.0.1:8084").
func NewClient(baseURL string) *Client {
	return &Client{coordinatorURL: baseURL}
}

// EnsureTopology returns the cluster topology, creating the cluster first
// if it does not exist yet.
//
// The retry is bounded: one read, at most one create (with a fresh
// idempotency key), one more read. If the second read still reports
// absence, EnsureTopology returns ErrCreateFailed rather than polling
// forever. No local state is held across the network round trips.
func (c *Client) EnsureTopology(ctx context.Context) (*topology.Topology, error) {
	topo, err := c.fetchTopology(ctx)
	if err == nil {
		return topo, nil
	}
	if !cluster.IsStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("query topology: %w", err)
	}

	key := uuid.NewString()
	log.Info().Str("idempotency_key", key).Msg("topology not created yet; requesting cluster start")
	createURL := fmt.Sprintf("%s/cluster/start?idempotency_key=%s", c.coordinatorURL, key)
	if err := cluster.PostJSON(ctx, createURL, nil, nil); err != nil {
		return nil, fmt.Errorf("start cluster: %w", err)
	}

	topo, err = c.fetchTopology(ctx)
	if err == nil {
		return topo, nil
	}
	if cluster.IsStatus(err, http.StatusNotFound) {
		return nil, ErrCreateFailed
	}
	return nil, fmt.Errorf("re-query topology: %w", err)
}

func (c *Client) fetchTopology(ctx context.Context) (*topology.Topology, error) {
	var payload cluster.TopologyPayload
	if err := cluster.GetJSON(ctx, c.coordinatorURL+"/topology", &payload); err != nil {
		return nil, err
	}
	return topology.FromPayload(&payload)
}
