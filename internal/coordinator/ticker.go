package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yanivbyd/distcolony/internal/cluster"
	"github.com/yanivbyd/distcolony/internal/colony"
	"github.com/yanivbyd/distcolony/internal/topology"
)

// TickFetchFunc retrieves the current tick count of one shard from the
// backend hosting it.
type TickFetchFunc func(ctx context.Context, host cluster.HostInfo, shard colony.Shard) (uint64, error)

// TickMonitor derives the simulation pace (ticks per second) from
// successive tick-count observations. The first observation only seeds the
// window and reports a pace of zero.
type TickMonitor struct {
	lastTick    uint64
	lastTime    time.Time
	initialized bool
}

// Pace records an observation and returns the pace since the previous one.
func (m *TickMonitor) Pace(currentTick uint64) float64 {
	now := time.Now()
	if !m.initialized {
		m.lastTick = currentTick
		m.lastTime = now
		m.initialized = true
		return 0
	}

	elapsed := now.Sub(m.lastTime).Seconds()
	var delta uint64
	if currentTick > m.lastTick {
		delta = currentTick - m.lastTick
	}
	m.lastTick = currentTick
	m.lastTime = now

	if elapsed <= 0 {
		return 0
	}
	return float64(delta) / elapsed
}

// Ticker is the coordinator's periodic background task: each cycle it reads
// the topology store and, when a topology exists, samples the first shard's
// tick count from its backend and logs the pace.
//
// Before the cluster is created the store reports absence; the ticker
// treats that as a normal state and skips the cycle with at most a debug
// log. The ticker runs from coordinator startup, typically long before any
// create request arrives, so "no topology yet" is the common case. It is
// never an error and never a trigger to initialize anything.
type Ticker struct {
	store    *topology.Store
	interval time.Duration
	fetch    TickFetchFunc
	monitor  TickMonitor
}

// NewTicker returns a ticker over store sampling every interval. A nil
// fetch uses the default HTTP shard-status query.
func NewTicker(store *topology.Store, interval time.Duration, fetch TickFetchFunc) *Ticker {
	if fetch == nil {
		fetch = fetchShardTick
	}
	return &Ticker{store: store, interval: interval, fetch: fetch}
}

// Run loops until ctx is canceled.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", t.interval).Msg("coordinator ticker started")
	for {
		select {
		case <-ticker.C:
			t.tick(ctx)
		case <-ctx.Done():
			log.Info().Msg("coordinator ticker stopped")
			return
		}
	}
}

func (t *Ticker) tick(ctx context.Context) {
	topo, ok := t.store.Get()
	if !ok {
		// Expected until the explicit create request arrives.
		log.Debug().Msg("topology not created yet; skipping tick sample")
		return
	}

	shards := topo.Shards()
	if len(shards) == 0 {
		return
	}
	shard := shards[0]
	host, _ := topo.HostFor(shard)

	tick, err := t.fetch(ctx, host, shard)
	if err != nil {
		log.Warn().Err(err).Str("shard", shard.ID()).Str("host", host.Addr()).Msg("tick sample failed")
		return
	}
	log.Info().
		Uint64("tick", tick).
		Str("pace", fmt.Sprintf("%.2f ticks/sec", t.monitor.Pace(tick))).
		Msg("cluster tick")
}

// fetchShardTick queries the backend's shard status endpoint for the
// shard's current tick count.
func fetchShardTick(ctx context.Context, host cluster.HostInfo, shard colony.Shard) (uint64, error) {
	url := fmt.Sprintf("http://%s/shard/%s/status", host.HTTPAddr(), shard.ID())
	var info cluster.ShardInfo
	if err := cluster.GetJSON(ctx, url, &info); err != nil {
		return 0, err
	}
	return info.Tick, nil
}
