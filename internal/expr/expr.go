// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package expr defines logi expression trees and their YAML decoding.
//
// Expressions form a closed union: the decoder turns a YAML subtree into
// exactly one of the node types below, so the evaluator can match
// exhaustively and malformed documents fail at decode time rather than
// mid-evaluation.
package expr

// Expr is a node in a decoded logic expression tree. Evaluation never
// mutates an Expr; trees may be shared between concurrent evaluations.
type Expr interface {
	isExpr()
}

// Literal is a constant scalar value.
type Literal struct {
	Val Value
}

// Get is a variable reference resolved against the scope.
type Get struct {
	Name string
}

// Concat joins the string representations of its elements in order.
type Concat struct {
	Elems []Expr
}

// Uppercase converts the string representation of its argument to upper case.
type Uppercase struct {
	Arg Expr
}

// Lowercase converts the string representation of its argument to lower case.
type Lowercase struct {
	Arg Expr
}

// Length yields the character length of the string representation of its
// argument.
type Length struct {
	Arg Expr
}

// Substring slices the string representation of Val by character index.
// End is nil when the slice runs to the end of the string.
type Substring struct {
	Val   Expr
	Start Expr
	End   Expr
}

// And is true when every element is truthy. All elements are evaluated
// even once the outcome is settled, because elements may carry set effects.
type And struct {
	Elems []Expr
}

// Or is true when any element is truthy. Like And it never short-circuits.
type Or struct {
	Elems []Expr
}

// Not negates the truthiness of its argument.
type Not struct {
	Arg Expr
}

// Equals compares two values structurally, with no coercion.
type Equals struct {
	Left  Expr
	Right Expr
}

// SetField is one field written by a Set, in declaration order.
type SetField struct {
	Name string
	Expr Expr
}

// Set writes fields into the named-output accumulator and evaluates to null.
type Set struct {
	Fields []SetField
}

// Binding is one let binding, in declaration order.
type Binding struct {
	Name string
	Expr Expr
}

// Let introduces bindings sequentially (each visible to the ones after it)
// and evaluates In with all of them in scope. The bindings never escape.
type Let struct {
	Bindings []Binding
	In       Expr
}

// If is a two-way conditional. Then and Else may each be nil; a missing
// active branch evaluates to null. Both the nested ({if: {condition,...}})
// and the flat ({if, then, else}) spellings decode to this node.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Arm is one {if, then} element of a Chain.
type Arm struct {
	Cond Expr
	Then Expr
}

// Chain is an ordered if/then sequence with an optional trailing else.
// The first truthy condition wins and the rest of the chain is skipped.
type Chain struct {
	Arms []Arm
	Else Expr
}

// Seq is an ordered sequence of expressions evaluated for their
// accumulator effects. It evaluates to the value of its last element,
// or null when empty.
type Seq struct {
	Elems []Expr
}

func (Literal) isExpr()   {}
func (Get) isExpr()       {}
func (Concat) isExpr()    {}
func (Uppercase) isExpr() {}
func (Lowercase) isExpr() {}
func (Length) isExpr()    {}
func (Substring) isExpr() {}
func (And) isExpr()       {}
func (Or) isExpr()        {}
func (Not) isExpr()       {}
func (Equals) isExpr()    {}
func (Set) isExpr()       {}
func (Let) isExpr()       {}
func (If) isExpr()        {}
func (Chain) isExpr()     {}
func (Seq) isExpr()       {}
