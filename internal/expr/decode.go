package expr

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Operation names recognized by the decoder. "if", "then", "else", and
// "let" are handled structurally and are not in this table.
var operations = map[string]bool{
	"concat":    true,
	"uppercase": true,
	"lowercase": true,
	"length":    true,
	"substring": true,
	"and":       true,
	"or":        true,
	"not":       true,
	"equals":    true,
	"set":       true,
	"get":       true,
}

// Decode decodes a YAML node into an expression tree. The node is treated
// as body position: bare arrays that are not chains decode as sequences.
func Decode(n *yaml.Node) (Expr, error) {
	return decode(n, true)
}

// DecodeString decodes an inline YAML expression from source text.
func DecodeString(src string) (Expr, error) {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(src), &n); err != nil {
		return nil, fmt.Errorf("parsing expression: %w", err)
	}
	return Decode(&n)
}

// ParseScalar parses a single YAML scalar (as supplied on the command line
// or in test input declarations) into a Value.
func ParseScalar(src string) (Value, error) {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(src), &n); err != nil {
		return Null, err
	}
	return DecodeValue(&n)
}

// DecodeValue decodes a YAML scalar node into a runtime Value.
func DecodeValue(n *yaml.Node) (Value, error) {
	n = deref(n)
	if n == nil {
		return Null, nil
	}
	if n.Kind != yaml.ScalarNode {
		return Null, fmt.Errorf("line %d: expected a scalar value", n.Line)
	}
	switch n.ShortTag() {
	case "!!null":
		return Null, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Null, err
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Null, err
		}
		return Num(f), nil
	default:
		return Str(n.Value), nil
	}
}

// deref follows alias nodes and unwraps document nodes.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		case n.Kind == yaml.DocumentNode && len(n.Content) > 0:
			n = n.Content[0]
		default:
			return n
		}
	}
	return nil
}

type pair struct {
	key string
	val *yaml.Node
}

// mapPairs returns the entries of a mapping node in document order.
func mapPairs(n *yaml.Node) ([]pair, error) {
	pairs := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping key must be a string", k.Line)
		}
		pairs = append(pairs, pair{key: k.Value, val: n.Content[i+1]})
	}
	return pairs, nil
}

func decode(n *yaml.Node, body bool) (Expr, error) {
	n = deref(n)
	if n == nil {
		return Literal{Val: Null}, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		v, err := DecodeValue(n)
		if err != nil {
			return nil, err
		}
		return Literal{Val: v}, nil
	case yaml.SequenceNode:
		return decodeArray(n, body)
	case yaml.MappingNode:
		return decodeMapping(n, body)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node in expression", n.Line)
	}
}

func decodeMapping(n *yaml.Node, body bool) (Expr, error) {
	pairs, err := mapPairs(n)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("line %d: empty mapping is not an expression", n.Line)
	}

	if hasKey(pairs, "if") {
		return decodeConditional(n, pairs)
	}

	if len(pairs) > 1 {
		// Multi-key mappings are only legal as flat conditionals.
		if operations[pairs[0].key] {
			return nil, &InvalidArgumentsError{Op: pairs[0].key, Detail: fmt.Sprintf("unexpected key %q", pairs[1].key)}
		}
		return nil, &UnknownOperationError{Name: pairs[0].key}
	}

	key, val := pairs[0].key, pairs[0].val
	switch key {
	case "get":
		v := deref(val)
		if v.Kind != yaml.ScalarNode || v.Value == "" {
			return nil, &InvalidArgumentsError{Op: "get", Detail: "variable name must be a non-empty string"}
		}
		return Get{Name: v.Value}, nil
	case "concat":
		elems, err := decodeArgList(val, "concat")
		if err != nil {
			return nil, err
		}
		return Concat{Elems: elems}, nil
	case "and":
		elems, err := decodeArgList(val, "and")
		if err != nil {
			return nil, err
		}
		return And{Elems: elems}, nil
	case "or":
		elems, err := decodeArgList(val, "or")
		if err != nil {
			return nil, err
		}
		return Or{Elems: elems}, nil
	case "uppercase":
		arg, err := decodeUnary(val)
		if err != nil {
			return nil, err
		}
		return Uppercase{Arg: arg}, nil
	case "lowercase":
		arg, err := decodeUnary(val)
		if err != nil {
			return nil, err
		}
		return Lowercase{Arg: arg}, nil
	case "length":
		arg, err := decodeUnary(val)
		if err != nil {
			return nil, err
		}
		return Length{Arg: arg}, nil
	case "not":
		arg, err := decodeUnary(val)
		if err != nil {
			return nil, err
		}
		return Not{Arg: arg}, nil
	case "substring":
		return decodeSubstring(val)
	case "equals":
		return decodeEquals(val)
	case "set":
		return decodeSet(val)
	case "let":
		return decodeLet(val)
	default:
		return nil, &UnknownOperationError{Name: key}
	}
}

func hasKey(pairs []pair, key string) bool {
	for _, p := range pairs {
		if p.key == key {
			return true
		}
	}
	return false
}

// decodeConditional handles both conditional spellings: the nested form
// {if: {condition, then?, else?}} and the flat form {if, then?, else?}.
func decodeConditional(n *yaml.Node, pairs []pair) (Expr, error) {
	if len(pairs) == 1 {
		inner := deref(pairs[0].val)
		if inner != nil && inner.Kind == yaml.MappingNode {
			innerPairs, err := mapPairs(inner)
			if err != nil {
				return nil, err
			}
			if hasKey(innerPairs, "condition") {
				return decodeIfParts(innerPairs, "condition")
			}
		}
		// A lone if with no branches: evaluate the condition, yield null.
		cond, err := decode(pairs[0].val, false)
		if err != nil {
			return nil, err
		}
		return If{Cond: cond}, nil
	}
	return decodeIfParts(pairs, "if")
}

// decodeIfParts assembles an If from key/value pairs where condKey names
// the condition entry and then/else are the only other keys admitted.
func decodeIfParts(pairs []pair, condKey string) (Expr, error) {
	out := If{}
	seenCond := false
	for _, p := range pairs {
		switch p.key {
		case condKey:
			cond, err := decode(p.val, false)
			if err != nil {
				return nil, err
			}
			out.Cond = cond
			seenCond = true
		case "then":
			then, err := decode(p.val, true)
			if err != nil {
				return nil, err
			}
			out.Then = then
		case "else":
			els, err := decode(p.val, true)
			if err != nil {
				return nil, err
			}
			out.Else = els
		default:
			return nil, &InvalidArgumentsError{Op: "if", Detail: fmt.Sprintf("unexpected key %q", p.key)}
		}
	}
	if !seenCond {
		return nil, &InvalidArgumentsError{Op: "if", Detail: "missing " + condKey}
	}
	return out, nil
}

// decodeArgList decodes the argument of a list-accepting operation, which
// may be spelled as a bare array or as {values: [...]}.
func decodeArgList(n *yaml.Node, op string) ([]Expr, error) {
	n = deref(n)
	if n.Kind == yaml.MappingNode {
		pairs, err := mapPairs(n)
		if err != nil {
			return nil, err
		}
		if len(pairs) == 1 && pairs[0].key == "values" {
			n = deref(pairs[0].val)
		}
	}
	if n.Kind != yaml.SequenceNode {
		return nil, &InvalidArgumentsError{Op: op, Detail: "expected a list or {values: [...]}"}
	}
	elems := make([]Expr, 0, len(n.Content))
	for _, c := range n.Content {
		e, err := decode(c, false)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return elems, nil
}

// decodeUnary decodes a single-argument operation, which may be spelled as
// the bare expression or wrapped as {value: ...}.
func decodeUnary(n *yaml.Node) (Expr, error) {
	d := deref(n)
	if d.Kind == yaml.MappingNode {
		pairs, err := mapPairs(d)
		if err != nil {
			return nil, err
		}
		if len(pairs) == 1 && pairs[0].key == "value" {
			return decode(pairs[0].val, false)
		}
	}
	return decode(n, false)
}

func decodeSubstring(n *yaml.Node) (Expr, error) {
	d := deref(n)
	if d.Kind != yaml.MappingNode {
		return nil, &InvalidArgumentsError{Op: "substring", Detail: "expected {value, start, end?}"}
	}
	pairs, err := mapPairs(d)
	if err != nil {
		return nil, err
	}
	out := Substring{}
	for _, p := range pairs {
		switch p.key {
		case "value":
			if out.Val, err = decode(p.val, false); err != nil {
				return nil, err
			}
		case "start":
			if out.Start, err = decode(p.val, false); err != nil {
				return nil, err
			}
		case "end":
			if out.End, err = decode(p.val, false); err != nil {
				return nil, err
			}
		default:
			return nil, &InvalidArgumentsError{Op: "substring", Detail: fmt.Sprintf("unexpected key %q", p.key)}
		}
	}
	if out.Val == nil {
		return nil, &InvalidArgumentsError{Op: "substring", Detail: "missing value"}
	}
	if out.Start == nil {
		return nil, &InvalidArgumentsError{Op: "substring", Detail: "missing start"}
	}
	return out, nil
}

func decodeEquals(n *yaml.Node) (Expr, error) {
	d := deref(n)
	if d.Kind != yaml.MappingNode {
		return nil, &InvalidArgumentsError{Op: "equals", Detail: "expected {left, right}"}
	}
	pairs, err := mapPairs(d)
	if err != nil {
		return nil, err
	}
	out := Equals{}
	for _, p := range pairs {
		switch p.key {
		case "left":
			if out.Left, err = decode(p.val, false); err != nil {
				return nil, err
			}
		case "right":
			if out.Right, err = decode(p.val, false); err != nil {
				return nil, err
			}
		default:
			return nil, &InvalidArgumentsError{Op: "equals", Detail: fmt.Sprintf("unexpected key %q", p.key)}
		}
	}
	if out.Left == nil {
		return nil, &InvalidArgumentsError{Op: "equals", Detail: "missing left"}
	}
	if out.Right == nil {
		return nil, &InvalidArgumentsError{Op: "equals", Detail: "missing right"}
	}
	return out, nil
}

func decodeSet(n *yaml.Node) (Expr, error) {
	d := deref(n)
	if d.Kind != yaml.MappingNode {
		return nil, &InvalidArgumentsError{Op: "set", Detail: "expected {field: expression, ...}"}
	}
	pairs, err := mapPairs(d)
	if err != nil {
		return nil, err
	}
	out := Set{Fields: make([]SetField, 0, len(pairs))}
	for _, p := range pairs {
		e, err := decode(p.val, false)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, SetField{Name: p.key, Expr: e})
	}
	return out, nil
}

func decodeLet(n *yaml.Node) (Expr, error) {
	d := deref(n)
	if d.Kind != yaml.MappingNode {
		return nil, &InvalidArgumentsError{Op: "let", Detail: "expected {name: expression, ..., in: body}"}
	}
	pairs, err := mapPairs(d)
	if err != nil {
		return nil, err
	}
	out := Let{}
	for _, p := range pairs {
		if p.key == "in" {
			if out.In, err = decode(p.val, true); err != nil {
				return nil, err
			}
			continue
		}
		e, err := decode(p.val, false)
		if err != nil {
			return nil, err
		}
		out.Bindings = append(out.Bindings, Binding{Name: p.key, Expr: e})
	}
	if out.In == nil {
		return nil, &MissingInError{}
	}
	return out, nil
}

// decodeArray decodes a bare array, which is an if/then chain when every
// element fits the chain shape, a sequence when it appears in body
// position, and a use error anywhere else.
func decodeArray(n *yaml.Node, body bool) (Expr, error) {
	if chain, ok, err := tryDecodeChain(n); err != nil {
		return nil, err
	} else if ok {
		return chain, nil
	}
	if !body {
		return nil, &InvalidArrayExpressionError{}
	}
	elems := make([]Expr, 0, len(n.Content))
	for _, c := range n.Content {
		e, err := decode(c, true)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return Seq{Elems: elems}, nil
}

// tryDecodeChain decodes n as a chain if it has the chain shape: every
// element but the last is exactly {if, then}, and the last is either
// another {if, then} or a standalone {else}.
func tryDecodeChain(n *yaml.Node) (Expr, bool, error) {
	if len(n.Content) == 0 {
		return nil, false, nil
	}
	type armPairs struct {
		pairs []pair
	}
	elems := make([]armPairs, 0, len(n.Content))
	for _, c := range n.Content {
		d := deref(c)
		if d == nil || d.Kind != yaml.MappingNode {
			return nil, false, nil
		}
		pairs, err := mapPairs(d)
		if err != nil {
			return nil, false, err
		}
		elems = append(elems, armPairs{pairs: pairs})
	}

	isArm := func(ps []pair) bool {
		return len(ps) == 2 && hasKey(ps, "if") && hasKey(ps, "then")
	}
	isElse := func(ps []pair) bool {
		return len(ps) == 1 && ps[0].key == "else"
	}

	last := len(elems) - 1
	for i, e := range elems {
		if i < last && !isArm(e.pairs) {
			return nil, false, nil
		}
		if i == last && !isArm(e.pairs) && !isElse(e.pairs) {
			return nil, false, nil
		}
	}

	out := Chain{}
	for _, e := range elems {
		if isElse(e.pairs) {
			els, err := decode(e.pairs[0].val, true)
			if err != nil {
				return nil, false, err
			}
			out.Else = els
			continue
		}
		var arm Arm
		for _, p := range e.pairs {
			var err error
			if p.key == "if" {
				arm.Cond, err = decode(p.val, false)
			} else {
				arm.Then, err = decode(p.val, true)
			}
			if err != nil {
				return nil, false, err
			}
		}
		out.Arms = append(out.Arms, arm)
	}
	return out, true, nil
}
