package registry

import (
	"github.com/yanivbyd/distcolony/internal/cluster"
)

// Registry is the host discovery provider: backends register themselves at
// startup and the coordinator discovers the reachable fleet when it creates
// the cluster. The topology subsystem treats it as a black box and does not
// retry or cache discovery results itself.
//
// Implementations must be safe for concurrent use. Discovery returns
// whatever is currently registered; liveness filtering is the caller's
// concern (see coordinator.ProbeFunc).
type Registry interface {
	// RegisterCoordinator records the coordinator's address.
	RegisterCoordinator(host cluster.HostInfo) error

	// RegisterBackend records one backend under a process-unique instance id.
	RegisterBackend(instanceID string, host cluster.HostInfo) error

	// DiscoverCoordinator returns the registered coordinator address,
	// or ok=false when none is registered yet.
	DiscoverCoordinator() (cluster.HostInfo, bool)

	// DiscoverBackends returns all currently registered backends.
	// Order is not guaranteed.
	DiscoverBackends() []cluster.HostInfo

	// UnregisterCoordinator removes the coordinator entry. Removing an
	// entry that does not exist is not an error.
	UnregisterCoordinator() error

	// UnregisterBackend removes one backend entry. Removing an entry that
	// does not exist is not an error.
	UnregisterBackend(instanceID string) error
}
