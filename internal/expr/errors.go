package expr

import "fmt"

// UnknownOperationError reports an operation object whose key is not a
// recognized operation and not a valid conditional/let/chain shape.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Name)
}

// InvalidArgumentsError reports structurally malformed operation arguments.
type InvalidArgumentsError struct {
	Op     string
	Detail string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for %q: %s", e.Op, e.Detail)
}

// InvalidArrayExpressionError reports a bare array that is neither a valid
// if/then chain nor a sequence in a position where sequences are allowed.
// Arrays are never general-purpose list values in this language.
type InvalidArrayExpressionError struct {
	Detail string
}

func (e *InvalidArrayExpressionError) Error() string {
	if e.Detail == "" {
		return "invalid array expression: not an if/then chain"
	}
	return "invalid array expression: " + e.Detail
}

// MissingInError reports a let block that lacks an "in" body.
type MissingInError struct{}

func (e *MissingInError) Error() string {
	return `let block is missing its "in" expression`
}
