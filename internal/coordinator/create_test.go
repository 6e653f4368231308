package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/yanivbyd/distcolony/internal/cluster"
	"github.com/yanivbyd/distcolony/internal/colony"
	"github.com/yanivbyd/distcolony/internal/topology"
)

// stubRegistry is an in-memory Registry for tests.
type stubRegistry struct {
	mu       sync.Mutex
	backends map[string]cluster.HostInfo
	coord    *cluster.HostInfo
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{backends: make(map[string]cluster.HostInfo)}
}

func (s *stubRegistry) RegisterCoordinator(host cluster.HostInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coord = &host
	return nil
}

func (s *stubRegistry) RegisterBackend(id string, host cluster.HostInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backends[id] = host
	return nil
}

func (s *stubRegistry) DiscoverCoordinator() (cluster.HostInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coord == nil {
		return cluster.HostInfo{}, false
	}
	return *s.coord, true
}

func (s *stubRegistry) DiscoverBackends() []cluster.HostInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hosts []cluster.HostInfo
	for _, h := range s.backends {
		hosts = append(hosts, h)
	}
	return hosts
}

func (s *stubRegistry) UnregisterCoordinator() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coord = nil
	return nil
}

func (s *stubRegistry) UnregisterBackend(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.backends, id)
	return nil
}

func allAlive(context.Context, cluster.HostInfo) error { return nil }

func smallGrid() colony.GridConfig {
	return colony.GridConfig{GridWidth: 400, GridHeight: 200, ShardWidth: 100, ShardHeight: 100}
}

// fakeBackend runs an httptest server accepting shard init pushes and
// returns the matching HostInfo plus the set of initialized shard ids.
type fakeBackend struct {
	host   cluster.HostInfo
	server *httptest.Server

	mu     sync.Mutex
	shards []string
	// the topology payload attached to the first init message
	payload *cluster.TopologyPayload
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	fb.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shard/init" {
			http.NotFound(w, r)
			return
		}
		var req cluster.InitShardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		fb.mu.Lock()
		fb.shards = append(fb.shards, req.Shard.ID())
		if fb.payload == nil {
			fb.payload = req.Topology
		}
		fb.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cluster.InitShardResponse{Status: cluster.InitShardStatusInitialized})
	}))
	t.Cleanup(fb.server.Close)

	hostStr, portStr, err := net.SplitHostPort(fb.server.Listener.Addr().String())
	if err != nil {
		t.Fatalf("failed to split fake backend address: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	fb.host = cluster.HostInfo{Host: hostStr, Port: port, HTTPPort: port + 10000}
	return fb
}

func (fb *fakeBackend) initialized() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.shards...)
}

// TestCreateClusterPushesAllShards verifies the full create flow against
// fake backends: discovery, placement, and one init push per shard with
// the topology payload attached.
func TestCreateClusterPushesAllShards(t *testing.T) {
	b1 := newFakeBackend(t)
	b2 := newFakeBackend(t)
	reg := newStubRegistry()
	_ = reg.RegisterBackend("b1", b1.host)
	_ = reg.RegisterBackend("b2", b2.host)

	c := &Creator{
		Grid:     smallGrid(),
		Self:     cluster.HostInfo{Host: "127.0.0.1", Port: 8083, HTTPPort: 8084},
		Store:    topology.NewStore(),
		Registry: reg,
		Probe:    allAlive,
	}

	topo, err := c.CreateCluster(context.Background())
	if err != nil {
		t.Fatalf("CreateCluster failed: %v", err)
	}
	if topo.ShardCount() != 8 {
		t.Fatalf("Expected 8 shards, got %d", topo.ShardCount())
	}

	got1, got2 := b1.initialized(), b2.initialized()
	if len(got1)+len(got2) != 8 {
		t.Fatalf("Expected 8 init pushes total, got %d + %d", len(got1), len(got2))
	}
	// Balanced split across two backends.
	if len(got1) != 4 || len(got2) != 4 {
		t.Errorf("Expected a 4/4 split, got %d/%d", len(got1), len(got2))
	}
	// Every push carried the topology payload.
	if b1.payload == nil || b2.payload == nil {
		t.Error("init pushes must carry the topology payload")
	}
	if b1.payload != nil && len(b1.payload.Routes) != 8 {
		t.Errorf("payload has %d routes, want 8", len(b1.payload.Routes))
	}
}

// TestCreateClusterNoBackends verifies creation fails cleanly with an
// empty fleet and leaves the store empty for a retry.
func TestCreateClusterNoBackends(t *testing.T) {
	store := topology.NewStore()
	c := &Creator{
		Grid:     smallGrid(),
		Self:     cluster.HostInfo{Host: "127.0.0.1", Port: 8083, HTTPPort: 8084},
		Store:    store,
		Registry: newStubRegistry(),
		Probe:    allAlive,
	}

	if _, err := c.CreateCluster(context.Background()); !errors.Is(err, topology.ErrNoHostsAvailable) {
		t.Fatalf("Expected ErrNoHostsAvailable, got %v", err)
	}
	if _, ok := store.Get(); ok {
		t.Error("failed create must leave the store empty")
	}
}

// TestCreateClusterSecondAttempt verifies the second create returns the
// installed topology with ErrAlreadyInitialized and pushes nothing.
func TestCreateClusterSecondAttempt(t *testing.T) {
	b := newFakeBackend(t)
	reg := newStubRegistry()
	_ = reg.RegisterBackend("b", b.host)

	c := &Creator{
		Grid:     smallGrid(),
		Self:     cluster.HostInfo{Host: "127.0.0.1", Port: 8083, HTTPPort: 8084},
		Store:    topology.NewStore(),
		Registry: reg,
		Probe:    allAlive,
	}

	first, err := c.CreateCluster(context.Background())
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	pushesAfterFirst := len(b.initialized())

	second, err := c.CreateCluster(context.Background())
	if !errors.Is(err, topology.ErrAlreadyInitialized) {
		t.Fatalf("Expected ErrAlreadyInitialized, got %v", err)
	}
	if second != first {
		t.Error("second create should return the installed topology")
	}
	if got := len(b.initialized()); got != pushesAfterFirst {
		t.Errorf("second create pushed %d extra inits", got-pushesAfterFirst)
	}
}

// TestDiscoverySkipsSelfAndDead verifies the coordinator's own registry
// entry and unreachable backends are filtered out before placement.
func TestDiscoverySkipsSelfAndDead(t *testing.T) {
	self := cluster.HostInfo{Host: "127.0.0.1", Port: 8083, HTTPPort: 8084}
	alive := cluster.HostInfo{Host: "127.0.0.1", Port: 9001, HTTPPort: 9101}
	dead := cluster.HostInfo{Host: "127.0.0.1", Port: 9002, HTTPPort: 9102}

	reg := newStubRegistry()
	_ = reg.RegisterBackend("self-echo", self)
	_ = reg.RegisterBackend("alive", alive)
	_ = reg.RegisterBackend("dead", dead)

	c := &Creator{
		Self:     self,
		Registry: reg,
		Probe: func(_ context.Context, host cluster.HostInfo) error {
			if host == dead {
				return fmt.Errorf("connection refused")
			}
			return nil
		},
	}

	hosts := c.discoverActiveBackends(context.Background())
	if len(hosts) != 1 || hosts[0] != alive {
		t.Errorf("Expected only the live backend, got %+v", hosts)
	}
}

// TestDiscoveryOrderIndependent verifies the discovered host list is
// sorted, so placement does not depend on registry enumeration order.
func TestDiscoveryOrderIndependent(t *testing.T) {
	self := cluster.HostInfo{Host: "127.0.0.1", Port: 8083, HTTPPort: 8084}
	reg := newStubRegistry()
	for i := 0; i < 5; i++ {
		_ = reg.RegisterBackend(fmt.Sprintf("b%d", i), cluster.HostInfo{
			Host: "127.0.0.1", Port: 9000 + i, HTTPPort: 9100 + i,
		})
	}

	c := &Creator{Self: self, Registry: reg, Probe: allAlive}
	first := c.discoverActiveBackends(context.Background())
	for attempt := 0; attempt < 5; attempt++ {
		again := c.discoverActiveBackends(context.Background())
		if len(again) != len(first) {
			t.Fatalf("host count changed between discoveries: %d vs %d", len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("host order changed between discoveries at %d: %v vs %v", i, again[i], first[i])
			}
		}
	}
}
