package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yanivbyd/distcolony/internal/cluster"
	"github.com/yanivbyd/distcolony/internal/colony"
	"github.com/yanivbyd/distcolony/internal/registry"
	"github.com/yanivbyd/distcolony/internal/topology"
)

// ProbeFunc checks whether a discovered backend is reachable. It returns
// nil for an active backend and an error otherwise.
type ProbeFunc func(ctx context.Context, host cluster.HostInfo) error

// Creator runs the coordinator's explicit cluster-create operation:
// discover the backend fleet, filter it down to reachable hosts, build the
// topology, install it in the store, and push every shard's initialization
// message to its assigned backend.
//
// All network work (discovery, probing, pushes) happens outside the store's
// atomic install step; the install itself is a pure memory operation.
type Creator struct {
	Grid     colony.GridConfig
	Self     cluster.HostInfo // coordinator's own address, excluded from discovery results
	Store    *topology.Store
	Registry registry.Registry
	Probe    ProbeFunc // nil means the default HTTP health probe
	Metrics  *Metrics  // nil disables instrumentation
}

// CreateCluster performs one create attempt.
//
// When another create already installed a topology, CreateCluster returns
// the installed value together with topology.ErrAlreadyInitialized and does
// not push shard initializations again. Discovery or placement failures
// (topology.ErrNoHostsAvailable, colony.ErrConfig) leave the store empty
// and may be retried by the caller.
func (c *Creator) CreateCluster(ctx context.Context) (*topology.Topology, error) {
	hosts := c.discoverActiveBackends(ctx)
	log.Info().Int("backends", len(hosts)).Msg("starting cluster create")

	topo, err := c.Store.Create(c.Grid, hosts)
	if err != nil {
		if errors.Is(err, topology.ErrAlreadyInitialized) {
			c.Metrics.createOutcome("already_initialized")
			log.Info().Msg("topology already installed; create is a no-op")
			return topo, err
		}
		c.Metrics.createOutcome("error")
		return nil, err
	}
	c.Metrics.createOutcome("created")
	c.Metrics.setShardCount(topo.ShardCount())

	for _, host := range topo.Hosts() {
		log.Info().
			Str("host", host.Addr()).
			Int("shards", len(topo.ShardsFor(host))).
			Msg("placement")
	}

	c.pushShardInits(ctx, topo)
	return topo, nil
}

// discoverActiveBackends queries the registry, drops any entry matching the
// coordinator's own address (in local runs every process shares one IP, so
// the port must be compared too), probes the remainder, and returns the
// active hosts sorted by address. Sorting makes the host list, and with it
// the round-robin assignment, independent of registry enumeration order.
func (c *Creator) discoverActiveBackends(ctx context.Context) []cluster.HostInfo {
	probe := c.Probe
	if probe == nil {
		probe = defaultProbe
	}

	var hosts []cluster.HostInfo
	for _, host := range c.Registry.DiscoverBackends() {
		if host.Host == c.Self.Host && host.Port == c.Self.Port {
			log.Debug().Str("host", host.Addr()).Msg("skipping registry entry matching coordinator address")
			continue
		}
		if err := probe(ctx, host); err != nil {
			log.Warn().Err(err).Str("host", host.Addr()).Msg("skipping unreachable backend")
			continue
		}
		hosts = append(hosts, host)
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Addr() < hosts[j].Addr() })
	return hosts
}

// pushShardInits sends each shard's initialization message, carrying the
// full topology payload, to the shard's assigned backend. A failed push is
// logged and does not abort the remaining shards; the backend will also be
// (re)initialized by the next create attempt's pushes, which it answers
// with already_initialized.
func (c *Creator) pushShardInits(ctx context.Context, topo *topology.Topology) {
	payload := topo.Payload()
	for _, shard := range topo.Shards() {
		host, _ := topo.HostFor(shard)
		req := cluster.InitShardRequest{Shard: shard, Topology: payload}
		url := fmt.Sprintf("http://%s/shard/init", host.Addr())

		var resp cluster.InitShardResponse
		if err := cluster.PostJSON(ctx, url, req, &resp); err != nil {
			c.Metrics.pushOutcome("error")
			log.Error().Err(err).Str("shard", shard.ID()).Str("host", host.Addr()).Msg("shard init push failed")
			continue
		}
		c.Metrics.pushOutcome("ok")
		log.Debug().Str("shard", shard.ID()).Str("host", host.Addr()).Str("status", resp.Status).Msg("shard init pushed")
	}
}

var probeClient = &http.Client{Timeout: 2 * time.Second}

// defaultProbe performs a GET against the backend's administrative health
// endpoint.
func defaultProbe(ctx context.Context, host cluster.HostInfo) error {
	url := fmt.Sprintf("http://%s/health", host.HTTPAddr())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := probeClient.Do(req)
	if err != nil {
		return fmt.Errorf("health probe failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health probe returned status %d", resp.StatusCode)
	}
	return nil
}
