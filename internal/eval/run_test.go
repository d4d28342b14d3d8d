package eval

import (
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"

	"nickandperla.net/logi/internal/doc"
	"nickandperla.net/logi/internal/expr"
)

func parseFunction(t *testing.T, src string) *doc.Function {
	t.Helper()
	m, err := doc.Parse([]byte(src), "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fn, err := m.Resolve("")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return fn
}

func TestRunSingleOutput(t *testing.T) {
	fn := parseFunction(t, `
inputs:
  name:
    type: string
    default: World
output:
  type: string
logic:
  concat: ['Hello, ', {get: name}]
`)
	res, err := Run(fn, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Named {
		t.Fatal("expected a single result")
	}
	if !res.Value.Equal(expr.Str("Hello, World")) {
		t.Errorf("got %v, want 'Hello, World'", res.Value)
	}

	res, err = Run(fn, map[string]expr.Value{"name": expr.Str("logi")})
	if err != nil {
		t.Fatalf("Run with override failed: %v", err)
	}
	if !res.Value.Equal(expr.Str("Hello, logi")) {
		t.Errorf("got %v, want 'Hello, logi'", res.Value)
	}
}

func TestRunNamedOutput(t *testing.T) {
	fn := parseFunction(t, `
inputs:
  express:
    type: boolean
    default: false
output:
  carrier:
    type: string
  days:
    type: number
logic:
  - {set: {carrier: ground, days: 5}}
  - if: {get: express}
    then: {set: {carrier: air, days: 1}}
`)
	res, err := Run(fn, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Named {
		t.Fatal("expected a named result")
	}
	want := expr.Record{"carrier": expr.Str("ground"), "days": expr.Num(5)}
	if !res.Record.Equal(want) {
		t.Errorf("got %v, want %v", res.Record, want)
	}

	res, err = Run(fn, map[string]expr.Value{"express": expr.Bool(true)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := res.Record["carrier"]; !got.Equal(expr.Str("air")) {
		t.Errorf("carrier = %v, want 'air'", got)
	}
}

func TestRunNamedOutputDiscardsBodyValue(t *testing.T) {
	// For a named output the accumulator is the result; the final
	// expression value is irrelevant.
	fn := parseFunction(t, `
output:
  x:
    type: number
logic:
  - {set: {x: 1}}
  - some trailing value
`)
	res, err := Run(fn, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Record.Equal(expr.Record{"x": expr.Num(1)}) {
		t.Errorf("got %v", res.Record)
	}
}

func TestRunNoOutputDeclaration(t *testing.T) {
	// Without a contract the raw value passes through and set writes
	// are discarded.
	fn := parseFunction(t, `
logic:
  - {set: {ignored: 1}}
  - done
`)
	res, err := Run(fn, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Named || !res.Value.Equal(expr.Str("done")) {
		t.Errorf("got %+v, want value 'done'", res)
	}
}

func TestRunUndeclaredInput(t *testing.T) {
	fn := parseFunction(t, `
inputs:
  name:
    type: string
logic: {get: name}
`)
	_, err := Run(fn, map[string]expr.Value{"nmae": expr.Str("typo")})
	var ui *UndeclaredInputError
	if !errors.As(err, &ui) {
		t.Fatalf("expected UndeclaredInputError, got %v", err)
	}
	if ui.Name != "nmae" {
		t.Errorf("name = %q", ui.Name)
	}
}

func TestRunInputWithoutDefaultUnbound(t *testing.T) {
	fn := parseFunction(t, `
inputs:
  name:
    type: string
logic: {get: name}
`)
	_, err := Run(fn, nil)
	var uv *UndefinedVariableError
	if !errors.As(err, &uv) {
		t.Fatalf("expected UndefinedVariableError, got %v", err)
	}

	res, err := Run(fn, map[string]expr.Value{"name": expr.Str("ok")})
	if err != nil {
		t.Fatalf("Run with value failed: %v", err)
	}
	if !res.Value.Equal(expr.Str("ok")) {
		t.Errorf("got %v", res.Value)
	}
}

func TestRunOutputFieldNeverSet(t *testing.T) {
	fn := parseFunction(t, `
inputs:
  both:
    type: boolean
    default: false
output:
  a:
    type: number
  b:
    type: number
logic:
  - {set: {a: 1}}
  - if: {get: both}
    then: {set: {b: 2}}
`)
	_, err := Run(fn, nil)
	var mf *MissingOutputFieldError
	if !errors.As(err, &mf) {
		t.Fatalf("expected MissingOutputFieldError, got %v", err)
	}
	if mf.Field != "b" {
		t.Errorf("field = %q, want 'b'", mf.Field)
	}

	if _, err := Run(fn, map[string]expr.Value{"both": expr.Bool(true)}); err != nil {
		t.Fatalf("Run with both branches failed: %v", err)
	}
}

func TestRunUndeclaredOutputField(t *testing.T) {
	fn := parseFunction(t, `
output:
  a:
    type: number
logic:
  set: {a: 1, stray: 2}
`)
	_, err := Run(fn, nil)
	var uf *UndeclaredOutputFieldError
	if !errors.As(err, &uf) {
		t.Fatalf("expected UndeclaredOutputFieldError, got %v", err)
	}
	if uf.Field != "stray" {
		t.Errorf("field = %q, want 'stray'", uf.Field)
	}
}

func TestRunOutputTypeMismatch(t *testing.T) {
	fn := parseFunction(t, `
output:
  type: number
logic: not a number
`)
	_, err := Run(fn, nil)
	var tm *OutputTypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("expected OutputTypeMismatchError, got %v", err)
	}
	if tm.Want != "number" || tm.Got != expr.KindString {
		t.Errorf("got %+v", tm)
	}
}

func TestRunNamedOutputTypeMismatch(t *testing.T) {
	fn := parseFunction(t, `
output:
  a:
    type: boolean
logic:
  set: {a: 1}
`)
	_, err := Run(fn, nil)
	var tm *OutputTypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("expected OutputTypeMismatchError, got %v", err)
	}
	if tm.Field != "a" {
		t.Errorf("field = %q, want 'a'", tm.Field)
	}
}

func TestValidateOutputErrors(t *testing.T) {
	cases := []struct {
		name  string
		src   string
		check func(error) bool
	}{
		{
			"bad single type",
			"output: {type: integer}\nlogic: x",
			func(err error) bool { var e *InvalidOutputTypeError; return errors.As(err, &e) },
		},
		{
			"single with default",
			"output: {type: string, default: x}\nlogic: x",
			func(err error) bool { var e *OutputDefaultError; return errors.As(err, &e) },
		},
		{
			"field missing type",
			"output: {a: {description: no type}}\nlogic: x",
			func(err error) bool { var e *MissingOutputTypeError; return errors.As(err, &e) },
		},
		{
			"field with default",
			"output: {a: {type: string, default: x}}\nlogic: x",
			func(err error) bool { var e *OutputDefaultError; return errors.As(err, &e) },
		},
		{
			"field bad type",
			"output: {a: {type: list}}\nlogic: x",
			func(err error) bool { var e *InvalidOutputTypeError; return errors.As(err, &e) },
		},
	}
	for _, c := range cases {
		fn := parseFunction(t, c.src)
		_, err := Run(fn, nil)
		if err == nil {
			t.Errorf("%s: expected an error", c.name)
			continue
		}
		if !c.check(err) {
			t.Errorf("%s: wrong error type: %v", c.name, err)
		}
	}
}

func TestResultMarshalOrder(t *testing.T) {
	fn := parseFunction(t, `
output:
  zebra:
    type: number
  apple:
    type: number
logic:
  set: {apple: 2, zebra: 1}
`)
	res, err := Run(fn, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Declared order, not alphabetical and not write order.
	j, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if string(j) != `{"zebra":1,"apple":2}` {
		t.Errorf("json = %s", j)
	}

	y, err := yaml.Marshal(res)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if string(y) != "zebra: 1\napple: 2\n" {
		t.Errorf("yaml = %q", y)
	}
}

func TestRunTests(t *testing.T) {
	fn := parseFunction(t, `
inputs:
  n:
    type: number
    default: 1
output:
  type: string
logic:
  if: {equals: {left: {get: n}, right: 1}}
  then: one
  else: many
tests:
  - name: default is one
    expected: one
  - name: two is many
    inputs: {n: 2}
    expected: many
  - name: deliberately wrong
    inputs: {n: 2}
    expected: one
`)
	results := RunTests(fn)
	if len(results) != 3 {
		t.Fatalf("%d results, want 3", len(results))
	}
	if !results[0].Passed || !results[1].Passed {
		t.Errorf("first two tests should pass: %+v", results[:2])
	}
	if results[2].Passed {
		t.Error("third test should fail")
	}
	if results[2].Expected != "one" || results[2].Actual != "many" {
		t.Errorf("mismatch report = %+v", results[2])
	}
}

func TestRunTestsUndeclaredInput(t *testing.T) {
	fn := parseFunction(t, `
inputs:
  n:
    type: number
    default: 1
logic: {get: n}
tests:
  - inputs: {m: 2}
    expected: 2
`)
	results := RunTests(fn)
	if len(results) != 1 {
		t.Fatalf("%d results, want 1", len(results))
	}
	if results[0].Passed {
		t.Error("test with undeclared input should not pass")
	}
	if results[0].Error == "" {
		t.Error("expected an error report")
	}
}

func TestRunTestsRecordExpectation(t *testing.T) {
	fn := parseFunction(t, `
output:
  a:
    type: number
logic:
  set: {a: 1}
tests:
  - expected: {a: 1}
  - expected: 1
`)
	results := RunTests(fn)
	if !results[0].Passed {
		t.Errorf("record expectation should match: %+v", results[0])
	}
	if results[1].Passed {
		t.Error("scalar expectation should not match a named result")
	}
}
