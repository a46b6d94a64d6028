package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scadkit/pkg/cache"
	"github.com/matzehuels/scadkit/pkg/errors"
	"github.com/matzehuels/scadkit/pkg/observability"
	"github.com/matzehuels/scadkit/pkg/pipeline"
	"github.com/matzehuels/scadkit/pkg/store"
)

const defaultScene = `{
  "name": "tile",
  "shape": {"kind": "rhombus", "params": {"w": 10, "l": 20}},
  "transform": [
    {"op": "rotate", "v": [0, 0, 45]},
    {"op": "translate", "v": [20, 40, 0]},
    {"op": "linear_extrude", "height": 2}
  ]
}`

type stlEngine struct{}

func (stlEngine) Export(_ context.Context, source []byte, format string) ([]byte, error) {
	if !bytes.Contains(source, []byte("linear_extrude(height = 2)")) {
		return nil, errors.New(errors.ErrCodeEngineFailed, "unexpected source")
	}
	return []byte("solid " + format), nil
}

func newTestServer(t *testing.T, withStore bool) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	cfg := Config{
		Runner: pipeline.NewRunner(cache.NewNullCache(), nil, logger),
		Logger: logger,
		Engine: stlEngine{},
	}
	if withStore {
		st, err := store.NewFileStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileStore: %v", err)
		}
		cfg.Store = st
	}
	ts := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body healthResponse
	decode(t, resp, &body)
	if body.Status != "ok" || body.Build.Version == "" {
		t.Errorf("unexpected health body: %+v", body)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestEvaluate(t *testing.T) {
	ts := newTestServer(t, false)
	resp := do(t, http.MethodPost, ts.URL+"/v1/evaluate", defaultScene)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		SceneHash string `json:"scene_hash"`
		Version   int    `json:"version"`
		Placement struct {
			Centroid [3]float64 `json:"centroid"`
		} `json:"placement"`
	}
	decode(t, resp, &body)

	want := [3]float64{-10 * math.Sqrt2, 30 * math.Sqrt2, 1}
	for i := range want {
		if math.Abs(body.Placement.Centroid[i]-want[i]) > 1e-9 {
			t.Errorf("centroid = %v, want %v", body.Placement.Centroid, want)
			break
		}
	}
	if body.SceneHash == "" || body.Version != 1 {
		t.Errorf("scene_hash = %q, version = %d", body.SceneHash, body.Version)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed json", http.MethodPost, "/v1/evaluate", `{"shape":`, http.StatusBadRequest, "INVALID_SCENE"},
		{"unknown shape", http.MethodPost, "/v1/evaluate", `{"shape":{"kind":"hexagon"}}`, http.StatusBadRequest, "INVALID_SHAPE"},
		{"extrude not innermost", http.MethodPost, "/v1/evaluate",
			`{"shape":{"kind":"rhombus"},"transform":[{"op":"linear_extrude","height":2},{"op":"translate","v":[1,0,0]}]}`,
			http.StatusBadRequest, "INVALID_TRANSFORM"},
		{"bad format", http.MethodPost, "/v1/render/gif", defaultScene, http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad width", http.MethodPost, "/v1/render/svg?width=wide", defaultScene, http.StatusBadRequest, "INVALID_INPUT"},
		{"no store", http.MethodGet, "/v1/models", "", http.StatusNotImplemented, "UNSUPPORTED"},
		{"unknown route", http.MethodGet, "/v2/nothing", "", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var body errorResponse
			decode(t, resp, &body)
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q (%s)", body.Error.Code, tt.wantCode, body.Error.Message)
			}
			if body.RequestID == "" || body.RequestID != resp.Header.Get(RequestIDHeader) {
				t.Errorf("request_id = %q, header = %q", body.RequestID, resp.Header.Get(RequestIDHeader))
			}
		})
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"svg", "image/svg+xml", "<svg"},
		{"scad", "text/plain; charset=utf-8", "// scene: tile"},
		{"stl", "model/stl", "solid stl"},
		{"png", "image/png", "\x89PNG"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/v1/render/"+tt.format+"?width=200&height=100&vertices=true", defaultScene)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			data, _ := io.ReadAll(resp.Body)
			if !bytes.HasPrefix(data, []byte(tt.prefix)) {
				t.Errorf("body starts with %q, want prefix %q", firstBytes(data, 20), tt.prefix)
			}
		})
	}
}

func TestModels(t *testing.T) {
	ts := newTestServer(t, true)

	resp := do(t, http.MethodPost, ts.URL+"/v1/models", `{"name":"saved","scene":`+defaultScene+`}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created store.Model
	decode(t, resp, &created)
	if created.Name != "saved" || created.ID == "" {
		t.Fatalf("unexpected model: %+v", created)
	}
	if loc := resp.Header.Get("Location"); loc != "/v1/models/"+created.ID {
		t.Errorf("Location = %q", loc)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/models/"+created.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var got store.Model
	decode(t, resp, &got)
	if got.SceneHash != created.SceneHash {
		t.Errorf("scene hash = %q, want %q", got.SceneHash, created.SceneHash)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/models?limit=10", "")
	var list listModelsResponse
	decode(t, resp, &list)
	if len(list.Models) != 1 {
		t.Errorf("list returned %d models, want 1", len(list.Models))
	}

	resp = do(t, http.MethodDelete, ts.URL+"/v1/models/"+created.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/models/"+created.ID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/models/not-a-uuid", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed id status = %d, want 400", resp.StatusCode)
	}
}

func TestBodyLimit(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	ts := httptest.NewServer(New(Config{Logger: logger, MaxBodyBytes: 16}).Handler())
	defer ts.Close()

	resp := do(t, http.MethodPost, ts.URL+"/v1/evaluate", defaultScene)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	ts := newTestServer(t, false)
	id := "6f1c2f8e-3a0b-4c55-9d7e-0123456789ab"

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
}

func TestHTTPHooksUseRoutePattern(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, true)
	do(t, http.MethodGet, ts.URL+"/v1/models/6f1c2f8e-3a0b-4c55-9d7e-0123456789ab", "")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.routes) != 1 || hooks.routes[0] != "GET /v1/models/{id}" {
		t.Errorf("routes = %v", hooks.routes)
	}
}

// inFlightHooks records OnRequest calls on a channel.
type inFlightHooks struct {
	observability.NoopHTTPHooks
	requests chan string
}

func (h *inFlightHooks) OnRequest(_ context.Context, method, route string) {
	h.requests <- method + " " + route
}

// blockingEngine holds Export until release is closed.
type blockingEngine struct{ release chan struct{} }

func (e blockingEngine) Export(ctx context.Context, _ []byte, format string) ([]byte, error) {
	select {
	case <-e.release:
		return []byte("solid " + format), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestHTTPHooksSeeInFlightRequest(t *testing.T) {
	hooks := &inFlightHooks{requests: make(chan string, 1)}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	engine := blockingEngine{release: make(chan struct{})}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	ts := httptest.NewServer(New(Config{
		Runner: pipeline.NewRunner(cache.NewNullCache(), nil, logger),
		Logger: logger,
		Engine: engine,
	}).Handler())
	defer ts.Close()

	done := make(chan int, 1)
	go func() {
		resp, err := http.Post(ts.URL+"/v1/render/stl", "application/json", strings.NewReader(defaultScene))
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()

	select {
	case got := <-hooks.requests:
		if got != "POST /v1/render/{format}" {
			t.Errorf("OnRequest route = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnRequest not called while the handler was running")
	}
	select {
	case <-done:
		t.Fatal("response finished before the engine was released")
	default:
	}

	close(engine.release)
	if status := <-done; status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidOutline, http.StatusBadRequest},
		{errors.ErrCodeFileNotFound, http.StatusNotFound},
		{errors.ErrCodeEngineUnavailable, http.StatusServiceUnavailable},
		{errors.ErrCodeEngineFailed, http.StatusBadGateway},
		{errors.ErrCodeUnsupported, http.StatusNotImplemented},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusCode(tt.code); got != tt.want {
			t.Errorf("StatusCode(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := New(Config{Logger: logger})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("ListenAndServe() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func firstBytes(b []byte, n int) string {
	if len(b) < n {
		return string(b)
	}
	return string(b[:n])
}
