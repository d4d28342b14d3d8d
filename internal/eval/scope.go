// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eval implements the logi evaluator.
package eval

import "nickandperla.net/logi/internal/expr"

// Scope is an immutable chain of name/value bindings. Bind returns a new
// scope linked to its parent, so let blocks need no explicit restore step
// and a binding can never leak into a sibling branch. The nil *Scope is
// the empty scope.
type Scope struct {
	name   string
	val    expr.Value
	parent *Scope
}

// Bind returns a scope extending s with one binding. Later bindings for
// the same name shadow earlier ones.
func (s *Scope) Bind(name string, v expr.Value) *Scope {
	return &Scope{name: name, val: v, parent: s}
}

// Resolve looks up a name, innermost binding first.
func (s *Scope) Resolve(name string) (expr.Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.val, true
		}
	}
	return expr.Null, false
}

// NewScope builds a scope from a set of initial bindings. Iteration order
// does not matter because the names are unique.
func NewScope(bindings map[string]expr.Value) *Scope {
	var sc *Scope
	for name, v := range bindings {
		sc = sc.Bind(name, v)
	}
	return sc
}
