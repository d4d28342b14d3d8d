package doc

import (
	"errors"
	"testing"

	"nickandperla.net/logi/internal/expr"
)

const shippingSrc = `
name: shipping
description: Shipping quotes.
functions:
  quote:
    description: Pick a carrier.
    inputs:
      weight:
        type: number
        default: 1
      express:
        type: boolean
        default: false
    output:
      carrier:
        type: string
    logic:
      - {set: {carrier: ground}}
      - if: {get: express}
        then: {set: {carrier: air}}
    tests:
      - name: default
        expected: {carrier: ground}
  label:
    logic: {concat: [SHIP-, {get: weight}]}
`

func TestParseModule(t *testing.T) {
	m, err := Parse([]byte(shippingSrc), "fallback")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Name != "shipping" {
		t.Errorf("name = %q, want 'shipping'", m.Name)
	}
	if len(m.Functions) != 2 {
		t.Fatalf("%d functions, want 2", len(m.Functions))
	}
	// Declaration order is preserved.
	if m.Functions[0].Name != "quote" || m.Functions[1].Name != "label" {
		t.Errorf("function order = %q, %q", m.Functions[0].Name, m.Functions[1].Name)
	}

	fn := m.Functions[0]
	if len(fn.Inputs) != 2 {
		t.Fatalf("%d inputs, want 2", len(fn.Inputs))
	}
	w := fn.Inputs[0]
	if w.Name != "weight" || w.Type != "number" || !w.HasDefault || !w.Default.Equal(expr.Num(1)) {
		t.Errorf("weight input = %+v", w)
	}
	if fn.Output == nil || fn.Output.Single {
		t.Fatal("quote should have a named output")
	}
	if len(fn.Output.Fields) != 1 || fn.Output.Fields[0].Name != "carrier" {
		t.Errorf("output fields = %+v", fn.Output.Fields)
	}
	if len(fn.Tests) != 1 || fn.Tests[0].Name != "default" {
		t.Errorf("tests = %+v", fn.Tests)
	}
	if !fn.Tests[0].Expected.IsRecord {
		t.Error("expected record expectation")
	}
}

func TestParseStandaloneProgram(t *testing.T) {
	src := `
description: A standalone greeting.
inputs:
  name:
    type: string
    default: World
output:
  type: string
logic:
  concat: ['Hello, ', {get: name}]
`
	m, err := Parse([]byte(src), "greeting")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Name != "greeting" {
		t.Errorf("name = %q, want 'greeting'", m.Name)
	}
	if len(m.Functions) != 1 {
		t.Fatalf("%d functions, want 1", len(m.Functions))
	}
	fn := m.Functions[0]
	if fn.Name != "greeting" {
		t.Errorf("function name = %q", fn.Name)
	}
	if fn.Output == nil || !fn.Output.Single || fn.Output.Type != "string" {
		t.Errorf("output = %+v", fn.Output)
	}
}

func TestParseStandaloneWithName(t *testing.T) {
	src := `
name: greet
logic: hi
`
	m, err := Parse([]byte(src), "file")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Name != "greet" || m.Functions[0].Name != "greet" {
		t.Errorf("name = %q / %q, want 'greet'", m.Name, m.Functions[0].Name)
	}
}

func TestParseSingleOutputVsNamedTypeField(t *testing.T) {
	// A single declaration has a scalar type; a named output may still
	// declare a field called type, whose value is a mapping.
	m, err := Parse([]byte("output:\n  type:\n    type: string\nlogic: x"), "t")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out := m.Functions[0].Output
	if out.Single {
		t.Fatal("field named 'type' should parse as a named output")
	}
	if len(out.Fields) != 1 || out.Fields[0].Name != "type" || out.Fields[0].Type != "string" {
		t.Errorf("fields = %+v", out.Fields)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"missing logic", "functions:\n  f:\n    description: no logic\n"},
		{"no functions", "name: empty\n"},
		{"stray top-level key", "bogus: 1\nfunctions:\n  f:\n    logic: x\n"},
		{"root not mapping", "- a\n- b\n"},
		{"test missing expected", "logic: x\ntests:\n  - inputs: {a: 1}\n"},
		{"input not mapping", "inputs:\n  a: string\nlogic: x\n"},
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c.src), "t"); err == nil {
			t.Errorf("%s: expected a parse error", c.name)
		}
	}
}

func TestParseBadLogicSurfacesDecodeError(t *testing.T) {
	_, err := Parse([]byte("logic: {frobnicate: 1}"), "t")
	var uo *expr.UnknownOperationError
	if !errors.As(err, &uo) {
		t.Fatalf("expected UnknownOperationError, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	m, err := Parse([]byte(shippingSrc), "t")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	fn, err := m.Resolve("")
	if err != nil || fn.Name != "quote" {
		t.Errorf("empty name should resolve the first function, got %v, %v", fn, err)
	}

	fn, err = m.Resolve("label")
	if err != nil || fn.Name != "label" {
		t.Errorf("Resolve(label) = %v, %v", fn, err)
	}

	_, err = m.Resolve("nope")
	var nf *FunctionNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected FunctionNotFoundError, got %v", err)
	}
	if nf.Name != "nope" || nf.Module != "shipping" {
		t.Errorf("error = %+v", nf)
	}
}

func TestTestCaseDefaultNames(t *testing.T) {
	src := `
logic: x
tests:
  - expected: x
  - name: named
    expected: x
`
	m, err := Parse([]byte(src), "t")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tests := m.Functions[0].Tests
	if tests[0].Name != "test 1" {
		t.Errorf("default name = %q, want 'test 1'", tests[0].Name)
	}
	if tests[1].Name != "named" {
		t.Errorf("name = %q, want 'named'", tests[1].Name)
	}
}
