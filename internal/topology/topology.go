package topology

import (
	"fmt"
	"sort"

	"github.com/yanivbyd/distcolony/internal/cluster"
	"github.com/yanivbyd/distcolony/internal/colony"
)

// RoutingTable maps every shard of the grid to the backend host that owns
// it. Tables are built by Assign and are treated as immutable afterwards;
// Topology copies the table on construction so no caller can mutate a
// published snapshot.
type RoutingTable map[colony.Shard]cluster.HostInfo

// Topology is the complete, immutable assignment of every shard to a
// hosting backend, plus the grid dimensions it was derived from. A Topology
// is constructed once (by the coordinator's create operation, or by a
// backend decoding the coordinator's payload) and never modified; readers
// holding a *Topology need no further synchronization.
type Topology struct {
	table       RoutingTable
	gridWidth   int
	gridHeight  int
	shardWidth  int
	shardHeight int
}

// New builds a Topology from a grid config and a routing table. The table
// is copied; the caller's map is not retained.
func New(cfg colony.GridConfig, table RoutingTable) *Topology {
	copied := make(RoutingTable, len(table))
	for shard, host := range table {
		copied[shard] = host
	}
	return &Topology{
		table:       copied,
		gridWidth:   cfg.GridWidth,
		gridHeight:  cfg.GridHeight,
		shardWidth:  cfg.ShardWidth,
		shardHeight: cfg.ShardHeight,
	}
}

// GridConfig returns the grid shape the topology was built from.
func (t *Topology) GridConfig() colony.GridConfig {
	return colony.GridConfig{
		GridWidth:   t.gridWidth,
		GridHeight:  t.gridHeight,
		ShardWidth:  t.shardWidth,
		ShardHeight: t.shardHeight,
	}
}

// HostFor returns the backend host assigned to shard.
func (t *Topology) HostFor(shard colony.Shard) (cluster.HostInfo, bool) {
	host, ok := t.table[shard]
	return host, ok
}

// HasShard reports whether shard exists in the routing table.
func (t *Topology) HasShard(shard colony.Shard) bool {
	_, ok := t.table[shard]
	return ok
}

// ContainsHost reports whether host appears anywhere in the routing table.
// Backends use this to validate their own identity on first contact.
func (t *Topology) ContainsHost(host cluster.HostInfo) bool {
	for _, h := range t.table {
		if h == host {
			return true
		}
	}
	return false
}

// Shards returns all shards in the table, ordered row-major. The slice is
// freshly allocated on each call.
func (t *Topology) Shards() []colony.Shard {
	shards := make([]colony.Shard, 0, len(t.table))
	for shard := range t.table {
		shards = append(shards, shard)
	}
	sort.Slice(shards, func(i, j int) bool {
		if shards[i].Y != shards[j].Y {
			return shards[i].Y < shards[j].Y
		}
		return shards[i].X < shards[j].X
	})
	return shards
}

// ShardsFor returns the shards assigned to host, ordered row-major.
func (t *Topology) ShardsFor(host cluster.HostInfo) []colony.Shard {
	var shards []colony.Shard
	for _, shard := range t.Shards() {
		if t.table[shard] == host {
			shards = append(shards, shard)
		}
	}
	return shards
}

// Hosts returns the distinct backend hosts referenced by the table, in
// first-appearance (row-major shard) order.
func (t *Topology) Hosts() []cluster.HostInfo {
	seen := make(map[cluster.HostInfo]bool)
	var hosts []cluster.HostInfo
	for _, shard := range t.Shards() {
		host := t.table[shard]
		if !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}
	return hosts
}

// ShardCount returns the number of shards in the routing table.
func (t *Topology) ShardCount() int {
	return len(t.table)
}

// Assign builds a routing table by distributing shards across hosts in
// interleaved round-robin order: shard i goes to hosts[i % len(hosts)].
//
// The result is balanced (per-host shard counts differ by at most one) and
// deterministic: the same (shards, hosts) pair always produces the same
// table, which keeps repeated create calls and failure replays consistent.
//
// An empty host list fails with ErrNoHostsAvailable. That is a hard
// precondition failure; Assign never retries discovery itself.
func Assign(shards []colony.Shard, hosts []cluster.HostInfo) (RoutingTable, error) {
	if len(hosts) == 0 {
		return nil, ErrNoHostsAvailable
	}

	table := make(RoutingTable, len(shards))
	for i, shard := range shards {
		table[shard] = hosts[i%len(hosts)]
	}
	return table, nil
}

// Build runs the full placement pipeline: partition the configured grid,
// assign the shards across hosts, and wrap the result in an immutable
// Topology. Any network work (host discovery, probing) happens before Build
// is called; Build itself is pure.
func Build(cfg colony.GridConfig, hosts []cluster.HostInfo) (*Topology, error) {
	shards, err := colony.Partition(cfg)
	if err != nil {
		return nil, err
	}
	table, err := Assign(shards, hosts)
	if err != nil {
		return nil, err
	}
	return New(cfg, table), nil
}

// Payload serializes the topology for the wire: the routing table as
// (shard id, host) entries in row-major order, plus the grid dimensions.
func (t *Topology) Payload() *cluster.TopologyPayload {
	routes := make([]cluster.RouteEntry, 0, len(t.table))
	for _, shard := range t.Shards() {
		routes = append(routes, cluster.RouteEntry{
			ShardID: shard.ID(),
			Host:    t.table[shard],
		})
	}
	return &cluster.TopologyPayload{
		GridWidth:   t.gridWidth,
		GridHeight:  t.gridHeight,
		ShardWidth:  t.shardWidth,
		ShardHeight: t.shardHeight,
		Routes:      routes,
	}
}

// FromPayload rebuilds a Topology from its wire form. Shard ids must parse
// back to valid shards; a malformed entry fails the whole payload.
func FromPayload(p *cluster.TopologyPayload) (*Topology, error) {
	table := make(RoutingTable, len(p.Routes))
	for _, route := range p.Routes {
		shard, err := colony.ParseShardID(route.ShardID)
		if err != nil {
			return nil, fmt.Errorf("topology payload: %w", err)
		}
		table[shard] = route.Host
	}
	cfg := colony.GridConfig{
		GridWidth:   p.GridWidth,
		GridHeight:  p.GridHeight,
		ShardWidth:  p.ShardWidth,
		ShardHeight: p.ShardHeight,
	}
	return New(cfg, table), nil
}
