package eval

import (
	"fmt"
	"math"
	"strings"

	"nickandperla.net/logi/internal/expr"
)

// EvalExpr evaluates a decoded expression against a scope. It returns the
// expression's value together with the delta of named-output writes the
// evaluation produced, in traversal order. Evaluation is pure: the
// expression tree is never mutated and the scope is extended immutably,
// so concurrent evaluations may share both.
func EvalExpr(e expr.Expr, sc *Scope) (expr.Value, Delta, error) {
	return eval(e, sc)
}

func eval(e expr.Expr, sc *Scope) (expr.Value, Delta, error) {
	var delta Delta

	switch n := e.(type) {
	case expr.Literal:
		return n.Val, delta, nil

	case expr.Get:
		v, ok := sc.Resolve(n.Name)
		if !ok {
			return expr.Null, delta, &UndefinedVariableError{Name: n.Name}
		}
		return v, delta, nil

	case expr.Concat:
		var sb strings.Builder
		for _, el := range n.Elems {
			v, d, err := eval(el, sc)
			if err != nil {
				return expr.Null, delta, err
			}
			delta.merge(d)
			sb.WriteString(v.Text())
		}
		return expr.Str(sb.String()), delta, nil

	case expr.Uppercase:
		v, d, err := eval(n.Arg, sc)
		if err != nil {
			return expr.Null, delta, err
		}
		return expr.Str(strings.ToUpper(v.Text())), d, nil

	case expr.Lowercase:
		v, d, err := eval(n.Arg, sc)
		if err != nil {
			return expr.Null, delta, err
		}
		return expr.Str(strings.ToLower(v.Text())), d, nil

	case expr.Length:
		v, d, err := eval(n.Arg, sc)
		if err != nil {
			return expr.Null, delta, err
		}
		return expr.Num(float64(len([]rune(v.Text())))), d, nil

	case expr.Substring:
		return evalSubstring(n, sc)

	case expr.And:
		// Every element is evaluated even once the outcome is settled;
		// elements may carry set effects that must land in the delta.
		result := true
		for _, el := range n.Elems {
			v, d, err := eval(el, sc)
			if err != nil {
				return expr.Null, delta, err
			}
			delta.merge(d)
			if !v.Truthy() {
				result = false
			}
		}
		return expr.Bool(result), delta, nil

	case expr.Or:
		result := false
		for _, el := range n.Elems {
			v, d, err := eval(el, sc)
			if err != nil {
				return expr.Null, delta, err
			}
			delta.merge(d)
			if v.Truthy() {
				result = true
			}
		}
		return expr.Bool(result), delta, nil

	case expr.Not:
		v, d, err := eval(n.Arg, sc)
		if err != nil {
			return expr.Null, delta, err
		}
		return expr.Bool(!v.Truthy()), d, nil

	case expr.Equals:
		left, d, err := eval(n.Left, sc)
		if err != nil {
			return expr.Null, delta, err
		}
		delta.merge(d)
		right, d, err := eval(n.Right, sc)
		if err != nil {
			return expr.Null, delta, err
		}
		delta.merge(d)
		return expr.Bool(left.Equal(right)), delta, nil

	case expr.Set:
		for _, f := range n.Fields {
			v, d, err := eval(f.Expr, sc)
			if err != nil {
				return expr.Null, delta, err
			}
			delta.merge(d)
			delta.add(f.Name, v)
		}
		// set is used for its accumulator effect; its value is null.
		return expr.Null, delta, nil

	case expr.Let:
		// Sequential binding: each name is visible to the bindings after
		// it and to the body. The enclosing scope is untouched.
		inner := sc
		for _, b := range n.Bindings {
			v, d, err := eval(b.Expr, inner)
			if err != nil {
				return expr.Null, delta, err
			}
			delta.merge(d)
			inner = inner.Bind(b.Name, v)
		}
		v, d, err := eval(n.In, inner)
		if err != nil {
			return expr.Null, delta, err
		}
		delta.merge(d)
		return v, delta, nil

	case expr.If:
		cond, d, err := eval(n.Cond, sc)
		if err != nil {
			return expr.Null, delta, err
		}
		delta.merge(d)
		branch := n.Then
		if !cond.Truthy() {
			branch = n.Else
		}
		if branch == nil {
			return expr.Null, delta, nil
		}
		v, d, err := eval(branch, sc)
		if err != nil {
			return expr.Null, delta, err
		}
		delta.merge(d)
		return v, delta, nil

	case expr.Chain:
		for _, arm := range n.Arms {
			cond, d, err := eval(arm.Cond, sc)
			if err != nil {
				return expr.Null, delta, err
			}
			delta.merge(d)
			if cond.Truthy() {
				v, d, err := eval(arm.Then, sc)
				if err != nil {
					return expr.Null, delta, err
				}
				delta.merge(d)
				return v, delta, nil
			}
		}
		if n.Else != nil {
			v, d, err := eval(n.Else, sc)
			if err != nil {
				return expr.Null, delta, err
			}
			delta.merge(d)
			return v, delta, nil
		}
		return expr.Null, delta, nil

	case expr.Seq:
		last := expr.Null
		for _, el := range n.Elems {
			v, d, err := eval(el, sc)
			if err != nil {
				return expr.Null, delta, err
			}
			delta.merge(d)
			last = v
		}
		return last, delta, nil

	default:
		return expr.Null, delta, fmt.Errorf("unhandled expression node %T", e)
	}
}

func evalSubstring(n expr.Substring, sc *Scope) (expr.Value, Delta, error) {
	var delta Delta

	v, d, err := eval(n.Val, sc)
	if err != nil {
		return expr.Null, delta, err
	}
	delta.merge(d)
	runes := []rune(v.Text())

	start, err := evalIndex(n.Start, sc, &delta, "start")
	if err != nil {
		return expr.Null, delta, err
	}
	end := len(runes)
	if n.End != nil {
		if end, err = evalIndex(n.End, sc, &delta, "end"); err != nil {
			return expr.Null, delta, err
		}
	}

	// Out-of-range indexes clamp; an inverted range yields the empty
	// string.
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return expr.Str(""), delta, nil
	}
	return expr.Str(string(runes[start:end])), delta, nil
}

func evalIndex(e expr.Expr, sc *Scope, delta *Delta, which string) (int, error) {
	v, d, err := eval(e, sc)
	if err != nil {
		return 0, err
	}
	delta.merge(d)
	if v.Kind() != expr.KindNumber {
		return 0, &expr.InvalidArgumentsError{Op: "substring", Detail: which + " must be a number"}
	}
	f, _ := v.Interface().(float64)
	return int(math.Trunc(f)), nil
}
