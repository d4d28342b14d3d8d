package eval

import (
	"sort"

	"nickandperla.net/logi/internal/doc"
	"nickandperla.net/logi/internal/expr"
)

// Run evaluates one function invocation: it validates the output contract,
// seeds the scope from input defaults and overrides, evaluates the logic
// expression, and shapes the outcome per the contract. Each call owns its
// scope and accumulator, so concurrent Runs over the same Function are
// safe.
func Run(fn *doc.Function, overrides map[string]expr.Value) (Result, error) {
	if err := ValidateOutput(fn.Output); err != nil {
		return Result{}, err
	}

	if len(overrides) > 0 {
		names := make([]string, 0, len(overrides))
		for name := range overrides {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, ok := fn.Input(name); !ok {
				return Result{}, &UndeclaredInputError{Name: name}
			}
		}
	}

	// Inputs declared without a default and not supplied stay unbound;
	// referencing one is an ordinary undefined-variable failure.
	var sc *Scope
	for _, in := range fn.Inputs {
		if v, ok := overrides[in.Name]; ok {
			sc = sc.Bind(in.Name, v)
		} else if in.HasDefault {
			sc = sc.Bind(in.Name, in.Default)
		}
	}

	v, delta, err := eval(fn.Logic, sc)
	if err != nil {
		return Result{}, err
	}
	return shapeResult(fn.Output, v, delta)
}
