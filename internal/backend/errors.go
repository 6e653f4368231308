package backend

import "errors"

var (
	// ErrMissingTopology is returned when a first-contact shard
	// initialization message arrives without a routing table. The message
	// is malformed for a backend whose cache is still empty. Fatal to that
	// shard's initialization only; the process keeps running.
	ErrMissingTopology = errors.New("shard init carried no topology and none is cached")

	// ErrSelfNotInTopology is returned when the routing table in an inbound
	// message does not mention this backend's own host identity. That is a
	// configuration or discovery mismatch: the coordinator built a topology
	// from a host list this backend was not part of. Fatal to that shard's
	// initialization only.
	ErrSelfNotInTopology = errors.New("backend host not present in topology")

	// ErrShardNotInTopology is returned when the shard being initialized
	// does not exist in the cached routing table at all.
	ErrShardNotInTopology = errors.New("shard not present in topology")
)
