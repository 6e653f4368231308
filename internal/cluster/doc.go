// Package cluster holds the wire-level types and HTTP/JSON helpers shared
// by the coordinator, the backends and the bootstrap client.
//
// # Overview
//
// The cluster follows a hub-and-spoke model: a single coordinator owns the
// shard-to-host assignment and a fleet of backend processes host the
// shards. All inter-process communication is HTTP/JSON.
//
//	              ┌──────────────┐
//	              │ Coordinator  │
//	              │              │
//	              │ - Topology   │
//	              │ - Ticker     │
//	              └──────┬───────┘
//	                     │ POST /shard/init (+ routing table)
//	      ┌──────────────┼──────────────┐
//	┌─────▼─────┐  ┌─────▼─────┐  ┌─────▼─────┐
//	│ Backend 1 │  │ Backend 2 │  │ Backend 3 │
//	│ shards:   │  │ shards:   │  │ shards:   │
//	│ 0_0.. ... │  │ 250_0 ... │  │ 500_0 ... │
//	└───────────┘  └───────────┘  └───────────┘
//
// # Wire protocol
//
// Topology distribution is lazy: the coordinator attaches the full
// TopologyPayload to every InitShardRequest, and each backend caches the
// first copy it sees for its process lifetime. The GUI-side bootstrap
// client reads topology from the coordinator only (GET /topology) and asks
// the coordinator to create it (POST /cluster/start) when absent; it never
// talks to backends and never constructs topology itself.
//
// Shards travel on the wire either structurally (InitShardRequest.Shard)
// or, on URL paths, in the canonical "{x}_{y}_{width}_{height}" id form.
//
// PostJSON/GetJSON return a *StatusError for non-2xx responses so callers
// can distinguish "not created yet" (404) from transport failures.
package cluster
