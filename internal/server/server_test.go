package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nickandperla.net/logi/internal/store"
)

const greetingSrc = `
inputs:
  name:
    type: string
    default: World
output:
  type: string
logic:
  concat: ['Hello, ', {get: name}]
tests:
  - name: default
    expected: Hello, World
  - name: override
    inputs: {name: logi}
    expected: Hello, logi
`

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st := store.NewMemory()
	if err := st.Put("greeting", greetingSrc); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return New(st, nil), st
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListModules(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, "GET", "/api/modules", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	mods, ok := body["modules"].([]any)
	if !ok || len(mods) != 1 {
		t.Fatalf("modules = %v", body["modules"])
	}
}

func TestGetModule(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, "GET", "/api/modules/greeting", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["name"] != "greeting" {
		t.Errorf("name = %v", body["name"])
	}
	fns, ok := body["functions"].([]any)
	if !ok || len(fns) != 1 {
		t.Fatalf("functions = %v", body["functions"])
	}
	fn := fns[0].(map[string]any)
	if fn["tests"] != float64(2) {
		t.Errorf("tests = %v, want 2", fn["tests"])
	}
}

func TestGetMissingModule(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, "GET", "/api/modules/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestPutModule(t *testing.T) {
	s, st := newTestServer(t)
	w := do(t, s, "PUT", "/api/modules/echo", "logic: {get: x}\ninputs:\n  x:\n    type: string\n")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	entry, err := st.Get("echo")
	if err != nil || entry == nil {
		t.Fatalf("stored entry missing: %v, %v", entry, err)
	}
}

func TestPutInvalidModule(t *testing.T) {
	s, st := newTestServer(t)
	w := do(t, s, "PUT", "/api/modules/bad", "logic: {frobnicate: 1}")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	if entry, _ := st.Get("bad"); entry != nil {
		t.Error("invalid source must not be stored")
	}
}

func TestDeleteModule(t *testing.T) {
	s, st := newTestServer(t)
	w := do(t, s, "DELETE", "/api/modules/greeting", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if entry, _ := st.Get("greeting"); entry != nil {
		t.Error("module should be gone")
	}
}

func TestEval(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, "POST", "/api/modules/greeting/eval", `{"inputs": {"name": "server"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["result"] != "Hello, server" {
		t.Errorf("result = %v", body["result"])
	}
}

func TestEvalDefaults(t *testing.T) {
	s, _ := newTestServer(t)
	// An empty body runs the first function with its defaults.
	w := do(t, s, "POST", "/api/modules/greeting/eval", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["result"] != "Hello, World" {
		t.Errorf("result = %v", body["result"])
	}
}

func TestEvalUnknownFunction(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, "POST", "/api/modules/greeting/eval", `{"function": "nope"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestEvalUndeclaredInput(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, "POST", "/api/modules/greeting/eval", `{"inputs": {"bogus": 1}}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestRunModuleTests(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, "POST", "/api/modules/greeting/test", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	results, ok := body["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("results = %v", body["results"])
	}
	for i, raw := range results {
		r := raw.(map[string]any)
		if r["passed"] != true {
			t.Errorf("test %d did not pass: %v", i, r)
		}
	}
}
