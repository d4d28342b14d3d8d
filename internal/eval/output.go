package eval

import (
	"bytes"
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"

	"nickandperla.net/logi/internal/doc"
	"nickandperla.net/logi/internal/expr"
)

// ValidateOutput checks a declared output contract. It runs once per
// invocation, before evaluation proceeds. A nil declaration is valid: the
// raw evaluation result is returned unshaped.
func ValidateOutput(d *doc.OutputDecl) error {
	if d == nil {
		return nil
	}
	if d.Single {
		if d.HasDefault {
			return &OutputDefaultError{}
		}
		if d.Extra != "" {
			return &InvalidOutputTypeError{Detail: "unexpected key " + quoted(d.Extra)}
		}
		if !validOutputType(d.Type) {
			return &InvalidOutputTypeError{Type: d.Type}
		}
		return nil
	}
	for _, f := range d.Fields {
		if f.HasDefault {
			return &OutputDefaultError{Field: f.Name}
		}
		if !f.HasType {
			return &MissingOutputTypeError{Field: f.Name}
		}
		if f.Extra != "" {
			return &InvalidOutputTypeError{Field: f.Name, Detail: "unexpected key " + quoted(f.Extra)}
		}
		if !validOutputType(f.Type) {
			return &InvalidOutputTypeError{Field: f.Name, Type: f.Type}
		}
	}
	return nil
}

func validOutputType(t string) bool {
	switch t {
	case "string", "number", "boolean":
		return true
	}
	return false
}

func conformsTo(t string, v expr.Value) bool {
	switch t {
	case "string":
		return v.Kind() == expr.KindString
	case "number":
		return v.Kind() == expr.KindNumber
	case "boolean":
		return v.Kind() == expr.KindBool
	}
	return false
}

func quoted(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Result is the shaped outcome of one function invocation: a single value,
// or a named-output record with its declared field order.
type Result struct {
	Named  bool
	Value  expr.Value
	Record expr.Record
	Order  []string
}

// Interface returns the result as a plain Go value for serialization.
func (r Result) Interface() any {
	if r.Named {
		return r.Record.Interface()
	}
	return r.Value.Interface()
}

// MarshalYAML renders named outputs in declared field order.
func (r Result) MarshalYAML() (any, error) {
	if !r.Named {
		return r.Value.Interface(), nil
	}
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, field := range r.Order {
		var k, v yaml.Node
		if err := k.Encode(field); err != nil {
			return nil, err
		}
		if err := v.Encode(r.Record[field].Interface()); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &k, &v)
	}
	return n, nil
}

// MarshalJSON renders named outputs in declared field order.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.Named {
		return json.Marshal(r.Value.Interface())
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range r.Order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(field)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Record[field].Interface())
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// shapeResult checks the evaluation outcome against the declared contract
// and assembles the final Result. For a named output the accumulator, not
// the returned value, becomes the result record.
func shapeResult(d *doc.OutputDecl, v expr.Value, delta Delta) (Result, error) {
	if d == nil {
		return Result{Value: v}, nil
	}
	if d.Single {
		if !conformsTo(d.Type, v) {
			return Result{}, &OutputTypeMismatchError{Want: d.Type, Got: v.Kind()}
		}
		return Result{Value: v}, nil
	}

	rec := delta.Record()
	out := Result{Named: true, Record: make(expr.Record, len(d.Fields))}
	declared := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		declared[f.Name] = true
		fv, ok := rec[f.Name]
		if !ok {
			return Result{}, &MissingOutputFieldError{Field: f.Name}
		}
		if !conformsTo(f.Type, fv) {
			return Result{}, &OutputTypeMismatchError{Field: f.Name, Want: f.Type, Got: fv.Kind()}
		}
		out.Record[f.Name] = fv
		out.Order = append(out.Order, f.Name)
	}

	extras := make([]string, 0)
	for name := range rec {
		if !declared[name] {
			extras = append(extras, name)
		}
	}
	if len(extras) > 0 {
		sort.Strings(extras)
		return Result{}, &UndeclaredOutputFieldError{Field: extras[0]}
	}
	return out, nil
}
