package scanner

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// scanBackend records every POST /api/scan body and answers with a fixed status and body.
type scanBackend struct {
	status int
	body   string

	mu       sync.Mutex
	requests []map[string]interface{}
}

func (b *scanBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" || r.URL.Path != "/api/scan" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	bs, _ := io.ReadAll(r.Body)
	var request map[string]interface{}
	_ = json.Unmarshal(bs, &request)

	b.mu.Lock()
	b.requests = append(b.requests, request)
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.status)
	_, _ = w.Write([]byte(b.body))
}

func (b *scanBackend) Requests() []map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]interface{}{}, b.requests...)
}

func TestSubmitSerializesRecord(t *testing.T) {
	backend := &scanBackend{status: 200, body: `{"ok": true, "scan_id": "s-1"}`}
	server := httptest.NewServer(backend)
	defer server.Close()

	record := NewScanRecord("abc123", &Coordinates{Latitude: 52.52, Longitude: 13.405}, "https://pickupscan.de/?p=abc123")
	result := NewSubmitter(server.URL, 0).Submit(context.Background(), record)

	if diff := cmp.Diff(&ScanResult{Ok: true, ScanID: "s-1"}, result); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
	expected := []map[string]interface{}{{
		"pharmacy_public_id": "abc123",
		"latitude":           52.52,
		"longitude":          13.405,
		"raw_qr":             "https://pickupscan.de/?p=abc123",
	}}
	if diff := cmp.Diff(expected, backend.Requests()); diff != "" {
		t.Errorf("unexpected request body (-want +got):\n%s", diff)
	}
}

func TestSubmitNullCoordinates(t *testing.T) {
	backend := &scanBackend{status: 200, body: `{"ok": true}`}
	server := httptest.NewServer(backend)
	defer server.Close()

	result := NewSubmitter(server.URL, 0).Submit(context.Background(), NewScanRecord("abc", nil, "p=abc"))
	if !result.Ok {
		t.Fatalf("expected success, got %+v", result)
	}

	requests := backend.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	for _, key := range []string{"latitude", "longitude"} {
		value, ok := requests[0][key]
		if !ok || value != nil {
			t.Errorf("expected %s to be present and null, got %v (present: %t)", key, value, ok)
		}
	}
}

func TestSubmitServerRejection(t *testing.T) {
	backend := &scanBackend{status: 400, body: `{"ok": false, "error": "Unknown pharmacy"}`}
	server := httptest.NewServer(backend)
	defer server.Close()

	result := NewSubmitter(server.URL, 0).Submit(context.Background(), NewScanRecord("nope", nil, "p=nope"))
	if diff := cmp.Diff(&ScanResult{Ok: false, Error: "Unknown pharmacy"}, result); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestSubmitRejectionWithoutMessage(t *testing.T) {
	backend := &scanBackend{status: 200, body: `{"ok": false}`}
	server := httptest.NewServer(backend)
	defer server.Close()

	result := NewSubmitter(server.URL, 0).Submit(context.Background(), NewScanRecord("x", nil, "p=x"))
	if diff := cmp.Diff(&ScanResult{Ok: false, Error: MessageScanRejected}, result); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestSubmitMalformedResponses(t *testing.T) {
	for name, backend := range map[string]*scanBackend{
		"html error page": {status: 502, body: "<html>bad gateway</html>"},
		"empty body":      {status: 200, body: ""},
		"missing ok":      {status: 200, body: `{"scan_id": "x"}`},
		"wrong shape":     {status: 200, body: `[1, 2, 3]`},
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(backend)
			defer server.Close()

			result := NewSubmitter(server.URL, 0).Submit(context.Background(), NewScanRecord("x", nil, "p=x"))
			if diff := cmp.Diff(&ScanResult{Ok: false, Error: MessageTransportError}, result); diff != "" {
				t.Errorf("unexpected result (-want +got):\n%s", diff)
			}
			if len(backend.Requests()) != 1 {
				t.Errorf("expected exactly one request, got %d", len(backend.Requests()))
			}
		})
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	server := httptest.NewServer(&scanBackend{status: 200, body: `{"ok": true}`})
	url := server.URL
	server.Close()

	result := NewSubmitter(url, 0).Submit(context.Background(), NewScanRecord("x", nil, "p=x"))
	if diff := cmp.Diff(&ScanResult{Ok: false, Error: MessageTransportError}, result); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestSubmitAcceptsAnyScanIDType(t *testing.T) {
	cases := map[string]*ScanResult{
		`{"ok": true, "scan_id": 42}`:                              {Ok: true, ScanID: "42"},
		`{"ok": true, "scan_id": "s-42"}`:                          {Ok: true, ScanID: "s-42"},
		`{"ok": true, "scan_id": null}`:                            {Ok: true},
		`{"ok": true}`:                                             {Ok: true},
		`{"ok": false, "scan_id": 7, "error": "Unknown pharmacy"}`: {Ok: false, Error: "Unknown pharmacy"},
	}
	for body, expected := range cases {
		t.Run(body, func(t *testing.T) {
			backend := &scanBackend{status: 200, body: body}
			server := httptest.NewServer(backend)
			defer server.Close()

			result := NewSubmitter(server.URL, 0).Submit(context.Background(), NewScanRecord("abc123", nil, "p=abc123"))
			if diff := cmp.Diff(expected, result); diff != "" {
				t.Errorf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}
