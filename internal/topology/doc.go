// Package topology implements the coordinator-owned shard-to-host
// assignment: the placement assigner, the immutable Topology snapshot, its
// wire (de)serialization, and the single-assignment Store that makes
// cluster creation a once-per-process, race-free operation.
//
// # Lifecycle
//
// A topology is created exactly once per cluster lifetime by the
// coordinator's explicit create operation, lives in memory for the
// coordinator process's lifetime, and is never persisted. Backends receive
// the serialized form inside shard-initialization messages and cache it
// locally (see the backend package); the GUI reads it through the
// coordinator's query endpoint.
//
// # Concurrency
//
// The Store cell is the only mutable shared state in this subsystem. It is
// written at most once via compare-and-swap and read lock-free; the
// Topology it publishes is deeply immutable, so a reader that has obtained
// the snapshot reference needs no further synchronization.
//
// Consumers must treat "no topology yet" as a first-class, expected state.
// The previous revision of this system crashed in production because a
// background task assumed the topology cell could not be empty while an
// explicit create was still in flight; every API in this package is shaped
// to make that assumption impossible to write accidentally.
package topology
