package doc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"nickandperla.net/logi/internal/expr"
)

// LoadFile loads a module or standalone program from a YAML file. A
// standalone program (a document with logic at the top level) becomes a
// single-function module named after the file.
func LoadFile(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := Parse(data, base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Load loads a module from a reader.
func Load(r io.Reader, fallbackName string) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data, fallbackName)
}

// Parse parses YAML document source. fallbackName names the module (and,
// for standalone programs, the sole function) when the document does not
// name itself.
func Parse(data []byte, fallbackName string) (*Module, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	n := unwrap(&root)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document root must be a mapping")
	}
	pairs, err := pairsOf(n)
	if err != nil {
		return nil, err
	}

	// A top-level logic key marks a standalone program.
	if _, ok := lookup(pairs, "logic"); ok {
		fn, err := parseFunction(fallbackName, pairs)
		if err != nil {
			return nil, err
		}
		if name, ok := lookup(pairs, "name"); ok {
			fn.Name = name.Value
		}
		return &Module{
			Name:        fn.Name,
			Description: fn.Description,
			Functions:   []*Function{fn},
		}, nil
	}

	m := &Module{Name: fallbackName}
	for _, p := range pairs {
		switch p.key {
		case "name":
			m.Name = p.val.Value
		case "description":
			m.Description = p.val.Value
		case "functions":
			fns := unwrap(p.val)
			if fns.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("functions must be a mapping")
			}
			fnPairs, err := pairsOf(fns)
			if err != nil {
				return nil, err
			}
			for _, fp := range fnPairs {
				body := unwrap(fp.val)
				if body.Kind != yaml.MappingNode {
					return nil, fmt.Errorf("function %q: definition must be a mapping", fp.key)
				}
				bodyPairs, err := pairsOf(body)
				if err != nil {
					return nil, err
				}
				fn, err := parseFunction(fp.key, bodyPairs)
				if err != nil {
					return nil, fmt.Errorf("function %q: %w", fp.key, err)
				}
				m.Functions = append(m.Functions, fn)
			}
		default:
			return nil, fmt.Errorf("unexpected top-level key %q", p.key)
		}
	}
	if len(m.Functions) == 0 {
		return nil, fmt.Errorf("document defines no functions")
	}
	return m, nil
}

func parseFunction(name string, pairs []docPair) (*Function, error) {
	fn := &Function{Name: name}
	for _, p := range pairs {
		switch p.key {
		case "name":
			// Handled by the caller for standalone programs.
		case "description":
			fn.Description = p.val.Value
		case "inputs":
			inputs, err := parseInputs(p.val)
			if err != nil {
				return nil, err
			}
			fn.Inputs = inputs
		case "output":
			out, err := parseOutput(p.val)
			if err != nil {
				return nil, err
			}
			fn.Output = out
		case "logic":
			logic, err := expr.Decode(p.val)
			if err != nil {
				return nil, err
			}
			fn.Logic = logic
		case "tests":
			tests, err := parseTests(p.val)
			if err != nil {
				return nil, err
			}
			fn.Tests = tests
		default:
			return nil, fmt.Errorf("unexpected key %q", p.key)
		}
	}
	if fn.Logic == nil {
		return nil, fmt.Errorf("missing logic")
	}
	return fn, nil
}

func parseInputs(n *yaml.Node) ([]Input, error) {
	n = unwrap(n)
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("inputs must be a mapping")
	}
	pairs, err := pairsOf(n)
	if err != nil {
		return nil, err
	}
	inputs := make([]Input, 0, len(pairs))
	for _, p := range pairs {
		in := Input{Name: p.key}
		def := unwrap(p.val)
		if def.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("input %q: declaration must be a mapping", p.key)
		}
		defPairs, err := pairsOf(def)
		if err != nil {
			return nil, err
		}
		for _, dp := range defPairs {
			switch dp.key {
			case "type":
				in.Type = dp.val.Value
			case "description":
				// Informational only.
			case "default":
				v, err := expr.DecodeValue(dp.val)
				if err != nil {
					return nil, fmt.Errorf("input %q: default: %w", p.key, err)
				}
				in.Default = v
				in.HasDefault = true
			default:
				return nil, fmt.Errorf("input %q: unexpected key %q", p.key, dp.key)
			}
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// parseOutput records the declared output shape without judging it; the
// evaluator validates the contract per invocation, before evaluation.
func parseOutput(n *yaml.Node) (*OutputDecl, error) {
	n = unwrap(n)
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("output must be a mapping")
	}
	pairs, err := pairsOf(n)
	if err != nil {
		return nil, err
	}

	// Single form: a type key with a scalar value. A named output may still
	// declare a field called "type", but its value is a mapping.
	if t, ok := lookup(pairs, "type"); ok && unwrap(t).Kind == yaml.ScalarNode {
		out := &OutputDecl{Single: true, Type: t.Value}
		for _, p := range pairs {
			switch p.key {
			case "type":
			case "default":
				out.HasDefault = true
			default:
				if out.Extra == "" {
					out.Extra = p.key
				}
			}
		}
		return out, nil
	}

	out := &OutputDecl{}
	for _, p := range pairs {
		f := OutputField{Name: p.key}
		def := unwrap(p.val)
		if def.Kind == yaml.MappingNode {
			defPairs, err := pairsOf(def)
			if err != nil {
				return nil, err
			}
			for _, dp := range defPairs {
				switch dp.key {
				case "type":
					f.Type = dp.val.Value
					f.HasType = true
				case "default":
					f.HasDefault = true
				default:
					if f.Extra == "" {
						f.Extra = dp.key
					}
				}
			}
		}
		out.Fields = append(out.Fields, f)
	}
	return out, nil
}

func parseTests(n *yaml.Node) ([]TestCase, error) {
	n = unwrap(n)
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("tests must be a list")
	}
	tests := make([]TestCase, 0, len(n.Content))
	for i, c := range n.Content {
		tc := TestCase{Name: fmt.Sprintf("test %d", i+1)}
		elem := unwrap(c)
		if elem.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("test %d: must be a mapping", i+1)
		}
		pairs, err := pairsOf(elem)
		if err != nil {
			return nil, err
		}
		seenExpected := false
		for _, p := range pairs {
			switch p.key {
			case "name", "description":
				if p.key == "name" {
					tc.Name = p.val.Value
				}
			case "inputs":
				ins := unwrap(p.val)
				if ins.Kind != yaml.MappingNode {
					return nil, fmt.Errorf("test %q: inputs must be a mapping", tc.Name)
				}
				inPairs, err := pairsOf(ins)
				if err != nil {
					return nil, err
				}
				for _, ip := range inPairs {
					v, err := expr.DecodeValue(ip.val)
					if err != nil {
						return nil, fmt.Errorf("test %q: input %q: %w", tc.Name, ip.key, err)
					}
					tc.Inputs = append(tc.Inputs, TestInput{Name: ip.key, Value: v})
				}
			case "expected":
				exp, err := parseExpected(p.val)
				if err != nil {
					return nil, fmt.Errorf("test %q: %w", tc.Name, err)
				}
				tc.Expected = exp
				seenExpected = true
			default:
				return nil, fmt.Errorf("test %q: unexpected key %q", tc.Name, p.key)
			}
		}
		if !seenExpected {
			return nil, fmt.Errorf("test %q: missing expected", tc.Name)
		}
		tests = append(tests, tc)
	}
	return tests, nil
}

func parseExpected(n *yaml.Node) (Expected, error) {
	n = unwrap(n)
	if n.Kind == yaml.MappingNode {
		pairs, err := pairsOf(n)
		if err != nil {
			return Expected{}, err
		}
		rec := make(expr.Record, len(pairs))
		for _, p := range pairs {
			v, err := expr.DecodeValue(p.val)
			if err != nil {
				return Expected{}, fmt.Errorf("field %q: %w", p.key, err)
			}
			rec[p.key] = v
		}
		return Expected{IsRecord: true, Record: rec}, nil
	}
	v, err := expr.DecodeValue(n)
	if err != nil {
		return Expected{}, err
	}
	return Expected{Value: v}, nil
}

type docPair struct {
	key string
	val *yaml.Node
}

func pairsOf(n *yaml.Node) ([]docPair, error) {
	pairs := make([]docPair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping key must be a string", k.Line)
		}
		pairs = append(pairs, docPair{key: k.Value, val: n.Content[i+1]})
	}
	return pairs, nil
}

func lookup(pairs []docPair, key string) (*yaml.Node, bool) {
	for _, p := range pairs {
		if p.key == key {
			return unwrap(p.val), true
		}
	}
	return nil, false
}

func unwrap(n *yaml.Node) *yaml.Node {
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
