package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yanivbyd/distcolony/internal/colony"
)

// HostInfo identifies a backend host in the cluster. It carries the network
// address plus the two named ports every backend exposes: the data-plane
// port serving shard traffic and the administrative HTTP port serving
// health, info and debug endpoints.
//
// HostInfo values are immutable once placed into a routing table, and are
// comparable so they can be matched against a backend's own identity.
type HostInfo struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`      // Data-plane port
	HTTPPort int    `json:"http_port"` // Administrative/HTTP port
}

// Addr returns the data-plane "host:port" address.
func (h HostInfo) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// HTTPAddr returns the administrative "host:port" address.
func (h HostInfo) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.HTTPPort)
}

// RouteEntry is one shard-to-host assignment on the wire. The shard is
// carried in its canonical string form.
type RouteEntry struct {
	ShardID string   `json:"shard_id"`
	Host    HostInfo `json:"host"`
}

// TopologyPayload is the serialized form of a topology: the full routing
// table plus the grid dimensions it was built from. The coordinator attaches
// it to every shard-initialization message and returns it from the
// read-topology query.
type TopologyPayload struct {
	GridWidth   int          `json:"grid_width"`
	GridHeight  int          `json:"grid_height"`
	ShardWidth  int          `json:"shard_width"`
	ShardHeight int          `json:"shard_height"`
	Routes      []RouteEntry `json:"routes"`
}

// InitShardRequest asks a backend to start hosting one shard. The first
// such message a backend receives must carry the topology payload; later
// messages may omit it (the backend caches the first one for its process
// lifetime and ignores redundant copies).
type InitShardRequest struct {
	Shard    colony.Shard     `json:"shard"`
	Topology *TopologyPayload `json:"topology,omitempty"`
}

// InitShardResponse reports the outcome of an InitShardRequest.
type InitShardResponse struct {
	Status string `json:"status"`
}

// InitShardResponse statuses.
const (
	InitShardStatusInitialized        = "initialized"
	InitShardStatusAlreadyInitialized = "already_initialized"
)

// BackendInfo is the body of a backend's GET /info response: its identity
// and the shards it currently hosts.
type BackendInfo struct {
	Host   HostInfo    `json:"host"`
	Shards []ShardInfo `json:"shards"`
}

// ShardInfo describes one hosted shard for the info and debug endpoints.
type ShardInfo struct {
	ShardID string       `json:"shard_id"`
	Shard   colony.Shard `json:"shard"`
	Tick    uint64       `json:"tick"`
}

// StatusError is returned by PostJSON/GetJSON when the server responds with
// a non-2xx status, so callers can branch on the code (the bootstrap client
// treats 404 from the topology query as "not created yet", not a failure).
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %s: %d", e.URL, e.Code)
}

// IsStatus reports whether err carries a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

// PostJSON sends body as JSON to url and decodes the response into out.
// A nil body sends an empty POST; a nil out discards the response body.
func PostJSON(ctx context.Context, url string, body any, out any) error {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &StatusError{URL: url, Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetJSON fetches url and decodes the JSON response into out.
func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &StatusError{URL: url, Code: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
