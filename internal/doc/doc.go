// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package doc models logi documents: modules of named functions, each with
// input declarations, an optional output contract, embedded test cases,
// and a logic expression decoded by the expr package.
package doc

import (
	"fmt"

	"nickandperla.net/logi/internal/expr"
)

// Module is a named collection of functions loaded from one document.
type Module struct {
	Name        string
	Description string
	Functions   []*Function // declaration order
}

// Resolve returns the named function, or the sole/first function when name
// is empty.
func (m *Module) Resolve(name string) (*Function, error) {
	if len(m.Functions) == 0 {
		return nil, &FunctionNotFoundError{Module: m.Name, Name: name}
	}
	if name == "" {
		return m.Functions[0], nil
	}
	for _, f := range m.Functions {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, &FunctionNotFoundError{Module: m.Name, Name: name}
}

// Function is a directly evaluable unit: declared inputs, an optional
// output contract, and a logic expression.
type Function struct {
	Name        string
	Description string
	Inputs      []Input // declaration order
	Output      *OutputDecl
	Logic       expr.Expr
	Tests       []TestCase
}

// Input looks up an input declaration by name.
func (f *Function) Input(name string) (*Input, bool) {
	for i := range f.Inputs {
		if f.Inputs[i].Name == name {
			return &f.Inputs[i], true
		}
	}
	return nil, false
}

// Input is one declared input. An input without a default is legal; any
// reference to it before a value is supplied fails as an undefined
// variable.
type Input struct {
	Name       string
	Type       string
	Default    expr.Value
	HasDefault bool
}

// OutputDecl is a declared output contract: either a single typed value or
// a record of named typed fields. Shape problems (missing type, stray
// default) are recorded here and surfaced when the contract is validated,
// before evaluation.
type OutputDecl struct {
	Single     bool
	Type       string // single form
	HasDefault bool   // single form carried a default key
	Extra      string // single form: first key besides type/default
	Fields     []OutputField
}

// OutputField is one declared field of a named output.
type OutputField struct {
	Name       string
	Type       string
	HasType    bool
	HasDefault bool
	Extra      string
}

// TestCase is one embedded test: input overrides plus the expected result.
type TestCase struct {
	Name     string
	Inputs   []TestInput
	Expected Expected
}

// TestInput is one input override supplied by a test case.
type TestInput struct {
	Name  string
	Value expr.Value
}

// Expected is a test's expected outcome: a scalar for single/undeclared
// outputs, a record for named outputs.
type Expected struct {
	IsRecord bool
	Value    expr.Value
	Record   expr.Record
}

// Interface returns the expected outcome as a plain Go value.
func (e Expected) Interface() any {
	if e.IsRecord {
		return e.Record.Interface()
	}
	return e.Value.Interface()
}

// FunctionNotFoundError reports a function name absent from a module.
type FunctionNotFoundError struct {
	Module string
	Name   string
}

func (e *FunctionNotFoundError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("module %q has no functions", e.Module)
	}
	return fmt.Sprintf("function %q not found in module %q", e.Name, e.Module)
}
