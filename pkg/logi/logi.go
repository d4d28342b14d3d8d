// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package logi

import (
	"fmt"
	"strings"

	"nickandperla.net/logi/internal/doc"
	"nickandperla.net/logi/internal/eval"
	"nickandperla.net/logi/internal/examples"
	"nickandperla.net/logi/internal/expr"
	"nickandperla.net/logi/internal/store"
)

// Module is a loaded logi document.
type Module = doc.Module

// Function is a directly evaluable unit within a module.
type Function = doc.Function

// Result is the shaped outcome of one function invocation.
type Result = eval.Result

// TestResult is the pass/fail record for one embedded test case.
type TestResult = eval.TestResult

// Runtime is the logi interpreter runtime.
type Runtime struct {
	store store.Store
}

// New creates a new logi runtime with the given options.
func New(opts ...Option) *Runtime {
	r := &Runtime{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadFile loads a module from a YAML file. A path of the form "@name"
// loads the embedded example document of that name instead.
func (r *Runtime) LoadFile(path string) (*Module, error) {
	if name, ok := strings.CutPrefix(path, "@"); ok {
		src, ok := examples.Source(name)
		if !ok {
			return nil, fmt.Errorf("no embedded example %q (have %s)", name, strings.Join(examples.Names(), ", "))
		}
		return doc.Parse([]byte(src), name)
	}
	return doc.LoadFile(path)
}

// LoadString loads a module from YAML source.
func (r *Runtime) LoadString(src, name string) (*Module, error) {
	return doc.Parse([]byte(src), name)
}

// LoadStored loads a module from the configured store.
func (r *Runtime) LoadStored(name string) (*Module, error) {
	if r.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	entry, err := r.store.Get(name)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("module %q not found", name)
	}
	return doc.Parse([]byte(entry.Source), name)
}

// SaveModule validates YAML source and stores it under the given name.
func (r *Runtime) SaveModule(name, source string) error {
	if r.store == nil {
		return fmt.Errorf("no store configured")
	}
	if _, err := doc.Parse([]byte(source), name); err != nil {
		return err
	}
	return r.store.Put(name, source)
}

// ListModules lists the modules in the configured store.
func (r *Runtime) ListModules() ([]store.Info, error) {
	if r.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	return r.store.List()
}

// SeedExamples stores every embedded example document that is not already
// present in the store.
func (r *Runtime) SeedExamples() error {
	if r.store == nil {
		return fmt.Errorf("no store configured")
	}
	for _, name := range examples.Names() {
		entry, err := r.store.Get(name)
		if err != nil {
			return err
		}
		if entry != nil {
			continue
		}
		src, _ := examples.Source(name)
		if err := r.store.Put(name, src); err != nil {
			return err
		}
	}
	return nil
}

// Run resolves a function (the sole/first one when fnName is empty),
// overrides its input defaults with the supplied values, and evaluates it.
func (r *Runtime) Run(m *Module, fnName string, inputs map[string]any) (Result, error) {
	fn, err := m.Resolve(fnName)
	if err != nil {
		return Result{}, err
	}
	overrides, err := convertInputs(inputs)
	if err != nil {
		return Result{}, err
	}
	return eval.Run(fn, overrides)
}

// Test runs the embedded test cases of a function.
func (r *Runtime) Test(m *Module, fnName string) ([]TestResult, error) {
	fn, err := m.Resolve(fnName)
	if err != nil {
		return nil, err
	}
	return eval.RunTests(fn), nil
}

// EvalExpr evaluates an inline YAML expression with the supplied bindings
// in scope and returns the resulting value as a plain Go value.
func (r *Runtime) EvalExpr(src string, inputs map[string]any) (any, error) {
	e, err := expr.DecodeString(src)
	if err != nil {
		return nil, err
	}
	bindings, err := convertInputs(inputs)
	if err != nil {
		return nil, err
	}
	v, _, err := eval.EvalExpr(e, eval.NewScope(bindings))
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Store returns the runtime's module store, or nil.
func (r *Runtime) Store() store.Store {
	return r.store
}

// Close releases resources.
func (r *Runtime) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

func convertInputs(inputs map[string]any) (map[string]expr.Value, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	out := make(map[string]expr.Value, len(inputs))
	for name, raw := range inputs {
		v, err := expr.FromGo(raw)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}
