// Package colony defines the grid data model shared by the coordinator and
// the backends: the Shard rectangle, its canonical string id, and the pure
// partitioning of a configured grid into a row-major shard list.
//
// Shards have structural identity. A Shard value is comparable and is used
// directly as a map key; the "{x}_{y}_{width}_{height}" string form exists
// only for the HTTP and debugging boundary, and round-trips through
// ParseShardID without loss.
//
// Partition is deliberately free of dependencies and side effects so the
// placement pipeline (Partition -> topology.Assign) is deterministic and
// testable in isolation.
package colony
