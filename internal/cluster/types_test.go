package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanivbyd/distcolony/internal/colony"
)

// TestHostInfoAddrs verifies the two named addresses of a host.
func TestHostInfoAddrs(t *testing.T) {
	h := HostInfo{Host: "10.0.0.5", Port: 8082, HTTPPort: 8085}
	if got := h.Addr(); got != "10.0.0.5:8082" {
		t.Errorf("Addr = %q, want '10.0.0.5:8082'", got)
	}
	if got := h.HTTPAddr(); got != "10.0.0.5:8085" {
		t.Errorf("HTTPAddr = %q, want '10.0.0.5:8085'", got)
	}
}

// TestInitShardRequestOmitsEmptyTopology verifies that redundant messages
// (no payload attached) marshal without a topology field.
func TestInitShardRequestOmitsEmptyTopology(t *testing.T) {
	req := InitShardRequest{Shard: colony.Shard{X: 0, Y: 0, Width: 100, Height: 100}}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal InitShardRequest: %v", err)
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(data, &jsonMap); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
	if _, ok := jsonMap["topology"]; ok {
		t.Error("nil topology should be omitted from the wire form")
	}
	if _, ok := jsonMap["shard"]; !ok {
		t.Error("Missing shard field")
	}
}

// TestTopologyPayloadRoundTrip verifies payloads survive JSON encoding.
func TestTopologyPayloadRoundTrip(t *testing.T) {
	payload := TopologyPayload{
		GridWidth: 200, GridHeight: 100, ShardWidth: 100, ShardHeight: 100,
		Routes: []RouteEntry{
			{ShardID: "0_0_100_100", Host: HostInfo{Host: "127.0.0.1", Port: 8082, HTTPPort: 8085}},
			{ShardID: "100_0_100_100", Host: HostInfo{Host: "127.0.0.1", Port: 8086, HTTPPort: 8087}},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	var decoded TopologyPayload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}
	if decoded.GridWidth != payload.GridWidth || len(decoded.Routes) != 2 {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
	if decoded.Routes[1] != payload.Routes[1] {
		t.Errorf("route mismatch: got %+v, want %+v", decoded.Routes[1], payload.Routes[1])
	}
}

// TestIsStatus verifies status-code matching through wrapped errors.
func TestIsStatus(t *testing.T) {
	base := &StatusError{URL: "http://x/topology", Code: 404}

	if !IsStatus(base, 404) {
		t.Error("IsStatus should match the direct error")
	}
	if IsStatus(base, 500) {
		t.Error("IsStatus should not match a different code")
	}
	wrapped := errors.Join(errors.New("context"), base)
	if !IsStatus(wrapped, 404) {
		t.Error("IsStatus should match through wrapping")
	}
	if IsStatus(errors.New("plain"), 404) {
		t.Error("IsStatus should not match a non-status error")
	}
}

// TestGetJSON verifies decoding and status-error behavior of GetJSON.
func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"initialized"}`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var out InitShardResponse
	if err := GetJSON(context.Background(), srv.URL+"/ok", &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Status != InitShardStatusInitialized {
		t.Errorf("Expected status %q, got %q", InitShardStatusInitialized, out.Status)
	}

	err := GetJSON(context.Background(), srv.URL+"/missing", &out)
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("Expected 404 StatusError, got %v", err)
	}
}

// TestPostJSON verifies body encoding, nil-body and nil-out handling.
func TestPostJSON(t *testing.T) {
	var gotBody InitShardRequest
	var gotEmpty bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		switch r.URL.Path {
		case "/init":
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Errorf("server failed to decode body: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"initialized"}`))
		case "/empty":
			buf := make([]byte, 1)
			n, _ := r.Body.Read(buf)
			gotEmpty = n == 0
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	shard := colony.Shard{X: 100, Y: 0, Width: 100, Height: 100}
	var out InitShardResponse
	if err := PostJSON(context.Background(), srv.URL+"/init", InitShardRequest{Shard: shard}, &out); err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}
	if gotBody.Shard != shard {
		t.Errorf("server received shard %+v, want %+v", gotBody.Shard, shard)
	}
	if out.Status != InitShardStatusInitialized {
		t.Errorf("Expected status %q, got %q", InitShardStatusInitialized, out.Status)
	}

	if err := PostJSON(context.Background(), srv.URL+"/empty", nil, nil); err != nil {
		t.Fatalf("PostJSON with nil body failed: %v", err)
	}
	if !gotEmpty {
		t.Error("nil body should produce an empty request body")
	}
}
