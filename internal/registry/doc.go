// Package registry provides cluster membership discovery: backends publish
// their addresses at startup, and the coordinator reads the fleet back when
// it creates the cluster topology.
//
// The file-based implementation targets local multi-process runs. Cloud
// deployments plug in their own Registry implementation backed by the
// platform's parameter store; the interface is deliberately small so that
// swap stays trivial.
package registry
