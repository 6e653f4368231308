// Package bootstrap contains the GUI-side client that makes sure a cluster
// topology exists before the UI starts rendering: query, create on absence,
// re-query once, then give up with an explicit error.
package bootstrap
