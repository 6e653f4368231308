package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yanivbyd/distcolony/internal/cluster"
)

// FileRegistry implements Registry on a shared directory: the coordinator
// entry lives in coordinator.json and each backend in backends/{id}.json.
// It is the registry used for local, multi-process development runs, where
// every process points at the same base directory.
type FileRegistry struct {
	base string
}

// NewFileRegistry creates the directory structure under base and returns a
// registry rooted there.
func NewFileRegistry(base string) (*FileRegistry, error) {
	if err := os.MkdirAll(filepath.Join(base, "backends"), 0o755); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}
	return &FileRegistry{base: base}, nil
}

func (r *FileRegistry) coordinatorPath() string {
	return filepath.Join(r.base, "coordinator.json")
}

func (r *FileRegistry) backendPath(instanceID string) string {
	return filepath.Join(r.base, "backends", instanceID+".json")
}

// RegisterCoordinator writes the coordinator's address file, overwriting
// any previous registration.
func (r *FileRegistry) RegisterCoordinator(host cluster.HostInfo) error {
	if err := writeHostFile(r.coordinatorPath(), host); err != nil {
		return fmt.Errorf("register coordinator: %w", err)
	}
	log.Info().Str("addr", host.Addr()).Str("http", host.HTTPAddr()).Msg("registered coordinator")
	return nil
}

// RegisterBackend writes one backend's address file, overwriting any
// previous registration for the same instance id.
func (r *FileRegistry) RegisterBackend(instanceID string, host cluster.HostInfo) error {
	if err := writeHostFile(r.backendPath(instanceID), host); err != nil {
		return fmt.Errorf("register backend %s: %w", instanceID, err)
	}
	log.Info().Str("instance", instanceID).Str("addr", host.Addr()).Msg("registered backend")
	return nil
}

// DiscoverCoordinator reads the coordinator entry. A missing file means no
// coordinator is registered; an unreadable or unparsable file is logged and
// treated the same way.
func (r *FileRegistry) DiscoverCoordinator() (cluster.HostInfo, bool) {
	host, err := readHostFile(r.coordinatorPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Error().Err(err).Msg("failed to read coordinator registry entry")
		}
		return cluster.HostInfo{}, false
	}
	return host, true
}

// DiscoverBackends reads every backend entry in the backends directory.
// Entries that fail to parse are logged and skipped rather than failing
// the whole discovery.
func (r *FileRegistry) DiscoverBackends() []cluster.HostInfo {
	entries, err := os.ReadDir(filepath.Join(r.base, "backends"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Error().Err(err).Msg("failed to read backends registry directory")
		}
		return nil
	}

	var backends []cluster.HostInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		host, err := readHostFile(filepath.Join(r.base, "backends", entry.Name()))
		if err != nil {
			log.Error().Err(err).Str("file", entry.Name()).Msg("skipping unreadable backend registry entry")
			continue
		}
		backends = append(backends, host)
	}
	log.Debug().Int("count", len(backends)).Msg("discovered backend registry entries")
	return backends
}

// UnregisterCoordinator removes the coordinator entry. Idempotent.
func (r *FileRegistry) UnregisterCoordinator() error {
	return removeIfExists(r.coordinatorPath())
}

// UnregisterBackend removes one backend entry. Idempotent.
func (r *FileRegistry) UnregisterBackend(instanceID string) error {
	return removeIfExists(r.backendPath(instanceID))
}

func writeHostFile(path string, host cluster.HostInfo) error {
	data, err := json.MarshalIndent(host, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readHostFile(path string) (cluster.HostInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cluster.HostInfo{}, err
	}
	var host cluster.HostInfo
	if err := json.Unmarshal(data, &host); err != nil {
		return cluster.HostInfo{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return host, nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
