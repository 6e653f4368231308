// Package coordinator implements the orchestration side of cluster
// creation and supervision.
//
// # Components
//
// Creator runs the explicit create operation: discover backends from the
// registry, probe them, build and install the topology through the
// single-assignment store, then push per-shard initialization messages
// (each carrying the full routing table) to the assigned backends.
//
// Ticker is the coordinator's periodic background task. It is started at
// process startup, before any topology exists, and therefore treats an
// empty store as the normal state, skipping topology-dependent work for
// the cycle. It must never create, default-initialize, or otherwise touch
// the topology cell; creation happens only through Creator.
//
// Metrics wraps the prometheus instrumentation for both paths.
//
// # Why two separate entry points
//
// In the previous revision the background task and the create request both
// initialized the shared topology state, lazily and eagerly respectively,
// and the race between them crashed the process. Here exactly one code
// path (Creator.CreateCluster) writes, every other component only reads,
// and reads are defined for the empty case.
package coordinator
