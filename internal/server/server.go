// Package server exposes the module store and the evaluator over HTTP.
// The surface is thin plumbing: load module, resolve function, evaluate,
// shape per output contract, translate errors to status codes.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"nickandperla.net/logi/internal/doc"
	"nickandperla.net/logi/internal/eval"
	"nickandperla.net/logi/internal/expr"
	"nickandperla.net/logi/internal/store"
)

// Server serves the logi HTTP API backed by a module store.
type Server struct {
	store store.Store
	log   *slog.Logger
	mux   *http.ServeMux
}

// New creates a Server. A nil logger disables request logging.
func New(st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{store: st, log: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/modules", s.handleList)
	s.mux.HandleFunc("GET /api/modules/{name}", s.handleGet)
	s.mux.HandleFunc("PUT /api/modules/{name}", s.handlePut)
	s.mux.HandleFunc("DELETE /api/modules/{name}", s.handleDelete)
	s.mux.HandleFunc("POST /api/modules/{name}/eval", s.handleEval)
	s.mux.HandleFunc("POST /api/modules/{name}/test", s.handleTest)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type moduleInfo struct {
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List()
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	out := make([]moduleInfo, 0, len(infos))
	for _, in := range infos {
		out = append(out, moduleInfo{Name: in.Name, UpdatedAt: in.UpdatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": out})
}

type inputSummary struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Default any    `json:"default,omitempty"`
}

type outputSummary struct {
	Type   string            `json:"type,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type functionSummary struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Inputs      []inputSummary `json:"inputs,omitempty"`
	Output      *outputSummary `json:"output,omitempty"`
	Tests       int            `json:"tests"`
}

type moduleSummary struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Functions   []functionSummary `json:"functions"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadModule(w, r)
	if !ok {
		return
	}
	out := moduleSummary{Name: m.Name, Description: m.Description}
	for _, fn := range m.Functions {
		fs := functionSummary{Name: fn.Name, Description: fn.Description, Tests: len(fn.Tests)}
		for _, in := range fn.Inputs {
			is := inputSummary{Name: in.Name, Type: in.Type}
			if in.HasDefault {
				is.Default = in.Default.Interface()
			}
			fs.Inputs = append(fs.Inputs, is)
		}
		if fn.Output != nil {
			if fn.Output.Single {
				fs.Output = &outputSummary{Type: fn.Output.Type}
			} else {
				fields := make(map[string]string, len(fn.Output.Fields))
				for _, f := range fn.Output.Fields {
					fields[f.Name] = f.Type
				}
				fs.Output = &outputSummary{Fields: fields}
			}
		}
		out.Functions = append(out.Functions, fs)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	// Validate by loading before the source is accepted.
	if _, err := doc.Parse(source, name); err != nil {
		s.fail(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.store.Put(name, string(source)); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("module stored", "module", name, "bytes", len(source))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.store.Delete(name); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type evalRequest struct {
	Function string         `json:"function"`
	Inputs   map[string]any `json:"inputs"`
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadModule(w, r)
	if !ok {
		return
	}
	var req evalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	fn, err := m.Resolve(req.Function)
	if err != nil {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}
	overrides := make(map[string]expr.Value, len(req.Inputs))
	for name, raw := range req.Inputs {
		v, err := expr.FromGo(raw)
		if err != nil {
			s.fail(w, r, http.StatusUnprocessableEntity, fmt.Errorf("input %q: %w", name, err))
			return
		}
		overrides[name] = v
	}
	result, err := eval.Run(fn, overrides)
	if err != nil {
		s.fail(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	s.log.Info("evaluated", "module", m.Name, "function", fn.Name)
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

type testRequest struct {
	Function string `json:"function"`
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadModule(w, r)
	if !ok {
		return
	}
	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	fn, err := m.Resolve(req.Function)
	if err != nil {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}
	results := eval.RunTests(fn)
	passed := 0
	for _, tr := range results {
		if tr.Passed {
			passed++
		}
	}
	s.log.Info("tests run", "module", m.Name, "function", fn.Name, "passed", passed, "total", len(results))
	writeJSON(w, http.StatusOK, map[string]any{"function": fn.Name, "results": results})
}

// loadModule fetches and parses the module named in the request path.
func (s *Server) loadModule(w http.ResponseWriter, r *http.Request) (*doc.Module, bool) {
	name := r.PathValue("name")
	entry, err := s.store.Get(name)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return nil, false
	}
	if entry == nil {
		s.fail(w, r, http.StatusNotFound, fmt.Errorf("module %q not found", name))
		return nil, false
	}
	m, err := doc.Parse([]byte(entry.Source), name)
	if err != nil {
		s.fail(w, r, http.StatusUnprocessableEntity, err)
		return nil, false
	}
	return m, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= 500 {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	var nf *doc.FunctionNotFoundError
	if errors.As(err, &nf) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
