// Package backend implements the worker side of the topology protocol: a
// process-lifetime topology cache populated lazily from the first inbound
// shard-initialization message, and the registry of shards this process
// hosts.
//
// A backend never constructs topology and never asks for it; it validates
// itself against the copy the coordinator pushes (its own host identity
// must appear in the routing table) and serves every later request from
// cache. Cache population follows the same single-assignment-cell
// discipline as the coordinator's store, because one backend typically
// hosts many shards and their init messages arrive concurrently.
package backend
