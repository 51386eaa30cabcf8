package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/solver"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	rules, err := policy.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := rules.Compile(policy.DefaultRules()); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, nil, rules, logger)
}

func performJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, w.Body.String())
	}
}

// healthyNetwork is a 2-bus feeder well inside every limit: 200 kVA on
// 500 m of dog at 11 kV drops the bus barely below 1.0 pu.
func healthyNetwork() model.Network {
	return model.Network{
		Name:     "plant-feeder",
		SourceKV: 11,
		Nodes: []model.Node{
			{ID: "src", Kind: model.KindSource},
			{ID: "m1", Kind: model.KindLoad, LoadKVA: 200, PowerFactor: 0.9},
		},
		Edges: []model.Edge{
			{ID: "e1", From: "src", To: "m1", LengthM: 500, Conductor: "dog"},
		},
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Config{})

	w := performJSON(t, s, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", w.Code)
	}

	var body struct {
		Status string `json:"status"`
	}
	decodeJSON(t, w, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	s := newTestServer(t, Config{})

	w := performJSON(t, s, http.MethodGet, "/api/v1/catalog", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("catalog status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-API-Version"); got != "v1" {
		t.Errorf("X-API-Version = %q, want v1", got)
	}

	var body struct {
		Data []model.Conductor `json:"data"`
		Meta struct {
			Count   int    `json:"count"`
			Default string `json:"default"`
		} `json:"meta"`
	}
	decodeJSON(t, w, &body)

	if len(body.Data) == 0 {
		t.Fatal("catalog came back empty")
	}
	if body.Meta.Count != len(body.Data) {
		t.Errorf("meta.count = %d, want %d", body.Meta.Count, len(body.Data))
	}
	if body.Data[0].ID != "dog" {
		t.Errorf("first conductor = %q, want dog", body.Data[0].ID)
	}
	if body.Meta.Default != "dog" {
		t.Errorf("meta.default = %q, want dog", body.Meta.Default)
	}
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t, Config{})

	w := performJSON(t, s, http.MethodPost, "/api/v1/validate", healthyNetwork())
	if w.Code != http.StatusOK {
		t.Fatalf("validate status = %d, want 200", w.Code)
	}

	var body struct {
		Data []solver.Issue `json:"data"`
		Meta struct {
			Count  int  `json:"count"`
			Errors bool `json:"errors"`
		} `json:"meta"`
	}
	decodeJSON(t, w, &body)
	if body.Meta.Errors || body.Meta.Count != 0 {
		t.Errorf("healthy network flagged: count=%d errors=%v data=%v",
			body.Meta.Count, body.Meta.Errors, body.Data)
	}

	// Drop the source: validation must report an error-severity issue.
	broken := healthyNetwork()
	broken.Nodes = broken.Nodes[1:]

	w = performJSON(t, s, http.MethodPost, "/api/v1/validate", broken)
	if w.Code != http.StatusOK {
		t.Fatalf("validate status = %d, want 200", w.Code)
	}
	decodeJSON(t, w, &body)
	if !body.Meta.Errors {
		t.Error("missing source not reported as error")
	}
	found := false
	for _, is := range body.Data {
		if is.Severity == solver.SeverityError {
			found = true
		}
	}
	if !found {
		t.Errorf("no error-severity issue in %v", body.Data)
	}
}

func TestSolveEndpoint(t *testing.T) {
	s := newTestServer(t, Config{})

	w := performJSON(t, s, http.MethodPost, "/api/v1/solve", healthyNetwork())
	if w.Code != http.StatusOK {
		t.Fatalf("solve status = %d, want 200\nbody: %s", w.Code, w.Body.String())
	}

	var body struct {
		Network    string                      `json:"network"`
		Nodes      map[string]model.NodeResult `json:"nodes"`
		Edges      map[string]model.EdgeResult `json:"edges"`
		System     model.SystemResult          `json:"system"`
		Violations []policy.Violation          `json:"violations"`
	}
	decodeJSON(t, w, &body)

	if body.Network != "plant-feeder" {
		t.Errorf("network = %q, want plant-feeder", body.Network)
	}
	if len(body.Nodes) != 2 || len(body.Edges) != 1 {
		t.Fatalf("solved %d nodes / %d edges, want 2 / 1", len(body.Nodes), len(body.Edges))
	}
	if pu := body.Nodes["m1"].PerUnit; pu < 0.99 || pu > 1.0 {
		t.Errorf("m1 per-unit = %v, want just under 1.0", pu)
	}
	if body.System.TotalLoadKVA != 200 {
		t.Errorf("total load = %v, want 200", body.System.TotalLoadKVA)
	}
	if len(body.Violations) != 0 {
		t.Errorf("healthy feeder produced violations: %v", body.Violations)
	}
}

func TestSolveSourceOverride(t *testing.T) {
	s := newTestServer(t, Config{})

	w := performJSON(t, s, http.MethodPost, "/api/v1/solve?source_kv=33", healthyNetwork())
	if w.Code != http.StatusOK {
		t.Fatalf("solve status = %d, want 200", w.Code)
	}

	var body struct {
		Nodes map[string]model.NodeResult `json:"nodes"`
	}
	decodeJSON(t, w, &body)
	if got := body.Nodes["src"].VoltageKV; got != 33 {
		t.Errorf("source voltage = %v, want 33", got)
	}

	w = performJSON(t, s, http.MethodPost, "/api/v1/solve?source_kv=zero", healthyNetwork())
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad source_kv status = %d, want 400", w.Code)
	}
}

func TestSolveFatalReturnsEmptyShape(t *testing.T) {
	s := newTestServer(t, Config{})

	net := healthyNetwork()
	net.Nodes = append(net.Nodes, model.Node{ID: "src2", Kind: model.KindSource})

	w := performJSON(t, s, http.MethodPost, "/api/v1/solve", net)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("solve status = %d, want 422\nbody: %s", w.Code, w.Body.String())
	}

	var body struct {
		Error  string                      `json:"error"`
		Nodes  map[string]model.NodeResult `json:"nodes"`
		System model.SystemResult          `json:"system"`
	}
	decodeJSON(t, w, &body)

	if body.Error == "" {
		t.Error("expected error message in 422 body")
	}
	if len(body.Nodes) != 0 {
		t.Errorf("422 body carries %d node results, want none", len(body.Nodes))
	}
	if body.System.TotalLoadKVA != 0 || body.System.MinPerUnit != 0 {
		t.Errorf("422 summary not zeroed: %+v", body.System)
	}
}

func TestSolveMalformedBody(t *testing.T) {
	s := newTestServer(t, Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/solve", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	s := newTestServer(t, Config{BearerToken: "sesame"})

	w := performJSON(t, s, http.MethodGet, "/api/v1/catalog", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w2 := httptest.NewRecorder()
	s.Engine().ServeHTTP(w2, req)
	if w2.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w2.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	req.Header.Set("Authorization", "Bearer sesame")
	w3 := httptest.NewRecorder()
	s.Engine().ServeHTTP(w3, req)
	if w3.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w3.Code)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("FEEDERFLOW_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("FEEDERFLOW_API_TOKEN", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 8420 {
		t.Errorf("default port = %d, want 8420", cfg.Port)
	}
	if cfg.ListenAddr() != ":8420" {
		t.Errorf("ListenAddr = %q, want :8420", cfg.ListenAddr())
	}

	t.Setenv("FEEDERFLOW_PORT", "9999")
	t.Setenv("FEEDERFLOW_API_TOKEN", "sesame")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 9999 || cfg.BearerToken != "sesame" {
		t.Errorf("cfg = %+v, want port 9999 token sesame", cfg)
	}

	t.Setenv("FEEDERFLOW_PORT", "not-a-port")
	if _, err := LoadConfig(); err == nil {
		t.Error("invalid port accepted")
	}
}
