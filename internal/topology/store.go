package topology

import (
	"sync/atomic"

	"github.com/yanivbyd/distcolony/internal/cluster"
	"github.com/yanivbyd/distcolony/internal/colony"
)

// Store owns the coordinator's one-and-only topology for the process
// lifetime. It is a single-assignment cell: written at most once, read
// arbitrarily often, never cleared.
//
// The install step is an atomic compare-and-swap, not a "check presence,
// then set" pair. Check-then-set is exactly what broke the previous
// revision of this system: a lazily-triggered background task and an
// explicit creation request raced to populate the same cell, and the second
// writer's set-or-fail call took the whole process down. With CAS there is
// one winner; every loser gets the winner's value and a well-defined
// ErrAlreadyInitialized, never a crash.
//
// Visibility: atomic.Pointer gives release/acquire ordering, so once any
// caller's Create returns, every subsequent Get on any goroutine observes
// the installed topology. There is no externally observable "initializing"
// state; the cell is either empty or permanently full.
type Store struct {
	cell atomic.Pointer[Topology]
}

// NewStore returns an empty store. Get returns absence until the first
// successful Create.
func NewStore() *Store {
	return &Store{}
}

// Create runs the placement pipeline (partition + assign) and installs the
// result as the process's topology, if and only if none is installed yet.
//
// Safe to call concurrently with itself and with Get. When a caller races
// and loses, it receives the previously installed topology together with
// ErrAlreadyInitialized. Partition/assignment errors (ErrConfig,
// ErrNoHostsAvailable) leave the store empty.
//
// The pipeline runs before the install step, so a losing caller does waste
// a partition+assign computation; both are pure and cheap, and holding a
// lock across creation instead would let a slow create block every reader.
func (s *Store) Create(cfg colony.GridConfig, hosts []cluster.HostInfo) (*Topology, error) {
	topo, err := Build(cfg, hosts)
	if err != nil {
		return nil, err
	}
	if s.cell.CompareAndSwap(nil, topo) {
		return topo, nil
	}
	return s.cell.Load(), ErrAlreadyInitialized
}

// Get returns the current topology, or ok=false before any successful
// Create. It never blocks on a concurrent Create. Absence is a normal
// state: periodic readers skip their topology-dependent work for the cycle
// and never attempt to self-initialize.
func (s *Store) Get() (*Topology, bool) {
	topo := s.cell.Load()
	return topo, topo != nil
}

// GetRequired returns the current topology or ErrNotInitialized. It exists
// for request handlers that must fail one request (a 404-equivalent) when
// topology is absent, rather than crash the process.
func (s *Store) GetRequired() (*Topology, error) {
	topo := s.cell.Load()
	if topo == nil {
		return nil, ErrNotInitialized
	}
	return topo, nil
}
