package topology

import (
	"errors"
	"sync"
	"testing"

	"github.com/yanivbyd/distcolony/internal/cluster"
	"github.com/yanivbyd/distcolony/internal/colony"
)

func testGrid() colony.GridConfig {
	return colony.GridConfig{GridWidth: 400, GridHeight: 400, ShardWidth: 100, ShardHeight: 100}
}

// TestStoreEmpty verifies absence semantics before the first Create.
func TestStoreEmpty(t *testing.T) {
	s := NewStore()

	if topo, ok := s.Get(); ok || topo != nil {
		t.Errorf("Get on empty store = (%v, %v), want (nil, false)", topo, ok)
	}
	if _, err := s.GetRequired(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GetRequired on empty store: got %v, want ErrNotInitialized", err)
	}
}

// TestStoreCreateThenGet verifies the normal create-then-read flow.
func TestStoreCreateThenGet(t *testing.T) {
	s := NewStore()
	hosts := []cluster.HostInfo{host(0)}

	created, err := s.Create(testGrid(), hosts)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ShardCount() != 16 {
		t.Errorf("Expected 16 shards, got %d", created.ShardCount())
	}

	got, ok := s.Get()
	if !ok {
		t.Fatal("Get after Create returned absent")
	}
	if got != created {
		t.Error("Get returned a different topology than Create installed")
	}
	required, err := s.GetRequired()
	if err != nil || required != created {
		t.Errorf("GetRequired = (%v, %v), want installed topology", required, err)
	}
}

// TestStoreSecondCreate verifies that a second Create returns the first
// topology with ErrAlreadyInitialized and does not replace it.
func TestStoreSecondCreate(t *testing.T) {
	s := NewStore()

	first, err := s.Create(testGrid(), []cluster.HostInfo{host(0)})
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	second, err := s.Create(testGrid(), []cluster.HostInfo{host(1), host(2)})
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second Create: got %v, want ErrAlreadyInitialized", err)
	}
	if second != first {
		t.Error("losing Create should return the installed topology")
	}

	got, _ := s.Get()
	if got != first {
		t.Error("second Create must not replace the installed topology")
	}
}

// TestStoreCreateFailureLeavesEmpty verifies a failed pipeline does not
// install anything, so a later valid Create still wins.
func TestStoreCreateFailureLeavesEmpty(t *testing.T) {
	s := NewStore()

	if _, err := s.Create(testGrid(), nil); !errors.Is(err, ErrNoHostsAvailable) {
		t.Fatalf("Expected ErrNoHostsAvailable, got %v", err)
	}
	if _, ok := s.Get(); ok {
		t.Fatal("failed Create must leave the store empty")
	}

	badGrid := colony.GridConfig{GridWidth: 401, GridHeight: 400, ShardWidth: 100, ShardHeight: 100}
	if _, err := s.Create(badGrid, []cluster.HostInfo{host(0)}); !errors.Is(err, colony.ErrConfig) {
		t.Fatalf("Expected ErrConfig, got %v", err)
	}

	if _, err := s.Create(testGrid(), []cluster.HostInfo{host(0)}); err != nil {
		t.Fatalf("Create after failures should succeed: %v", err)
	}
}

// TestStoreConcurrentCreate races many creators and verifies exactly one
// wins while every loser observes the winner's topology.
func TestStoreConcurrentCreate(t *testing.T) {
	const creators = 32
	s := NewStore()

	var wg sync.WaitGroup
	results := make([]*Topology, creators)
	errs := make([]error, creators)

	start := make(chan struct{})
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			// Each creator proposes a different host set so a
			// lost update would be visible.
			results[i], errs[i] = s.Create(testGrid(), []cluster.HostInfo{host(i)})
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	installed, ok := s.Get()
	if !ok {
		t.Fatal("no topology installed after concurrent creates")
	}
	for i := 0; i < creators; i++ {
		switch {
		case errs[i] == nil:
			winners++
			if results[i] != installed {
				t.Errorf("creator %d won but returned a non-installed topology", i)
			}
		case errors.Is(errs[i], ErrAlreadyInitialized):
			if results[i] != installed {
				t.Errorf("creator %d lost but did not receive the winner's topology", i)
			}
		default:
			t.Errorf("creator %d: unexpected error %v", i, errs[i])
		}
	}
	if winners != 1 {
		t.Fatalf("Expected exactly 1 winning Create, got %d", winners)
	}
}

// TestStoreConcurrentReadersDuringCreate checks readers never observe a
// partially built topology.
func TestStoreConcurrentReadersDuringCreate(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if topo, ok := s.Get(); ok {
					// A visible topology is always complete.
					if topo.ShardCount() != 16 {
						t.Errorf("reader saw incomplete topology: %d shards", topo.ShardCount())
						return
					}
				}
			}
		}()
	}

	if _, err := s.Create(testGrid(), []cluster.HostInfo{host(0), host(1)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	close(stop)
	wg.Wait()
}
