package backend

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/yanivbyd/distcolony/internal/cluster"
	"github.com/yanivbyd/distcolony/internal/topology"
)

// TopologyCache is a backend's process-local copy of the cluster topology.
//
// It is the receiving end of the lazy distribution protocol: the
// coordinator embeds the routing table in every shard-initialization
// message, and the cache is populated from the first message that carries
// one. It is set at most once per process lifetime and never cleared;
// topology cannot change after creation, so a cached copy stays valid
// forever.
//
// Like the coordinator's store, the cache is a single-assignment cell with
// CAS install semantics. A backend hosting many shards receives one init
// message per shard, potentially concurrently; exactly one of them performs
// the transition, the rest either lose the race (and adopt the winner's
// value) or see the cache already populated and take the fast path.
type TopologyCache struct {
	self cluster.HostInfo
	cell atomic.Pointer[topology.Topology]
}

// NewTopologyCache returns an empty cache for a backend whose own identity
// is self. The identity is validated against every candidate topology
// before installation.
func NewTopologyCache(self cluster.HostInfo) *TopologyCache {
	return &TopologyCache{self: self}
}

// Ensure returns the cached topology, populating the cache from payload on
// first contact.
//
//   - Cache populated: the payload (if any) is redundant and ignored; the
//     cached value is returned.
//   - Cache empty, payload present: the payload is decoded and validated
//     (this backend must appear in the table, ErrSelfNotInTopology
//     otherwise), then installed. Losing an install race is success: the
//     winner's value is returned.
//   - Cache empty, no payload: ErrMissingTopology.
func (c *TopologyCache) Ensure(payload *cluster.TopologyPayload) (*topology.Topology, error) {
	if topo := c.cell.Load(); topo != nil {
		return topo, nil
	}
	if payload == nil {
		return nil, ErrMissingTopology
	}

	topo, err := topology.FromPayload(payload)
	if err != nil {
		return nil, err
	}
	if !topo.ContainsHost(c.self) {
		return nil, ErrSelfNotInTopology
	}

	if c.cell.CompareAndSwap(nil, topo) {
		log.Info().
			Str("self", c.self.Addr()).
			Int("shards", topo.ShardCount()).
			Msg("topology cached for process lifetime")
		return topo, nil
	}
	// Raced with a concurrent first-contact message; its value is just as
	// good as ours (topology is immutable, both decoded the same table).
	return c.cell.Load(), nil
}

// Get returns the cached topology, or ok=false before first contact.
func (c *TopologyCache) Get() (*topology.Topology, bool) {
	topo := c.cell.Load()
	return topo, topo != nil
}
