package backend

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"

	"github.com/yanivbyd/distcolony/internal/cluster"
	"github.com/yanivbyd/distcolony/internal/colony"
)

// HostedShard is the backend-local state for one shard this process hosts:
// the shard rectangle and its tick counter. The simulation rules that
// advance a shard's contents live elsewhere; the hosting layer only tracks
// existence and progress.
type HostedShard struct {
	Shard colony.Shard
	tick  atomic.Uint64
}

// Tick returns the shard's current tick count.
func (h *HostedShard) Tick() uint64 {
	return h.tick.Load()
}

// Backend is the per-process hosting state of one backend: its own host
// identity, its topology cache, and the set of shards it has been asked to
// host. Shard-initialization messages for different shards arrive
// concurrently; the hosted-shard map is a concurrent map and the topology
// cache handles its own install race.
type Backend struct {
	self   cluster.HostInfo
	cache  *TopologyCache
	shards *xsync.MapOf[string, *HostedShard]
}

// New returns a Backend with an empty topology cache and no hosted shards.
func New(self cluster.HostInfo) *Backend {
	return &Backend{
		self:   self,
		cache:  NewTopologyCache(self),
		shards: xsync.NewMapOf[string, *HostedShard](),
	}
}

// Self returns this backend's host identity.
func (b *Backend) Self() cluster.HostInfo {
	return b.self
}

// Topology exposes the cache for read access (info/debug endpoints).
func (b *Backend) Topology() *TopologyCache {
	return b.cache
}

// InitShard processes one inbound shard-initialization message.
//
// The topology cache is ensured first (populated from the request's payload
// on first contact, see TopologyCache.Ensure); then the shard itself is
// validated against the table and registered. Initializing a shard that is
// already hosted reports InitShardStatusAlreadyInitialized; the coordinator
// re-pushes all shards when a create request races, so duplicates are
// expected and harmless.
//
// Errors affect only the one shard being initialized. The process and the
// other hosted shards continue untouched.
func (b *Backend) InitShard(req cluster.InitShardRequest) (cluster.InitShardResponse, error) {
	topo, err := b.cache.Ensure(req.Topology)
	if err != nil {
		return cluster.InitShardResponse{}, err
	}
	if !topo.HasShard(req.Shard) {
		return cluster.InitShardResponse{}, ErrShardNotInTopology
	}

	hosted := &HostedShard{Shard: req.Shard}
	if _, loaded := b.shards.LoadOrStore(req.Shard.ID(), hosted); loaded {
		return cluster.InitShardResponse{Status: cluster.InitShardStatusAlreadyInitialized}, nil
	}

	log.Info().Str("shard", req.Shard.ID()).Msg("shard initialized")
	return cluster.InitShardResponse{Status: cluster.InitShardStatusInitialized}, nil
}

// GetShard returns the hosted state for the shard with the given canonical
// id, or ok=false when this backend does not host it.
func (b *Backend) GetShard(shardID string) (*HostedShard, bool) {
	return b.shards.Load(shardID)
}

// Info captures a snapshot of the hosted shards for the info endpoint,
// ordered by shard id for stable output.
func (b *Backend) Info() cluster.BackendInfo {
	var shards []cluster.ShardInfo
	b.shards.Range(func(id string, hosted *HostedShard) bool {
		shards = append(shards, cluster.ShardInfo{
			ShardID: id,
			Shard:   hosted.Shard,
			Tick:    hosted.Tick(),
		})
		return true
	})
	sort.Slice(shards, func(i, j int) bool { return shards[i].ShardID < shards[j].ShardID })
	return cluster.BackendInfo{Host: b.self, Shards: shards}
}

// advanceAll bumps every hosted shard's tick counter by one.
func (b *Backend) advanceAll() {
	b.shards.Range(func(_ string, hosted *HostedShard) bool {
		hosted.tick.Add(1)
		return true
	})
}

// RunTicker advances all hosted shards once per interval until ctx is
// canceled. Backends with no shards yet simply tick over nothing; there is
// no topology dependency here, so the loop never has to care whether the
// cluster has been created.
func (b *Backend) RunTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.advanceAll()
		case <-ctx.Done():
			log.Debug().Msg("backend ticker stopped")
			return
		}
	}
}
