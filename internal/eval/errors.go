package eval

import (
	"fmt"

	"nickandperla.net/logi/internal/expr"
)

// UndefinedVariableError reports a reference to a name absent from scope.
// The name is reported bare, without the get wrapping.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// UndeclaredInputError reports a supplied input (from a test case or a
// caller) whose name is not among the function's input declarations.
type UndeclaredInputError struct {
	Name string
}

func (e *UndeclaredInputError) Error() string {
	return fmt.Sprintf("undeclared test input %q", e.Name)
}

// InvalidOutputTypeError reports an output declaration with an invalid
// type, or with keys that do not belong in a declaration.
type InvalidOutputTypeError struct {
	Field  string // empty for a single output
	Type   string
	Detail string
}

func (e *InvalidOutputTypeError) Error() string {
	where := "output"
	if e.Field != "" {
		where = fmt.Sprintf("output field %q", e.Field)
	}
	if e.Detail != "" {
		return fmt.Sprintf("invalid %s declaration: %s", where, e.Detail)
	}
	return fmt.Sprintf("invalid %s type %q", where, e.Type)
}

// MissingOutputTypeError reports a named output field declared without a
// type.
type MissingOutputTypeError struct {
	Field string
}

func (e *MissingOutputTypeError) Error() string {
	return fmt.Sprintf("output field %q is missing its type", e.Field)
}

// OutputDefaultError reports a default value on an output declaration.
// Output fields never have defaults.
type OutputDefaultError struct {
	Field string // empty for a single output
}

func (e *OutputDefaultError) Error() string {
	if e.Field == "" {
		return "output cannot have a default value"
	}
	return fmt.Sprintf("output field %q cannot have a default value", e.Field)
}

// MissingOutputFieldError reports a declared output field never written by
// any set on the executed path.
type MissingOutputFieldError struct {
	Field string
}

func (e *MissingOutputFieldError) Error() string {
	return fmt.Sprintf("output field %q was never set", e.Field)
}

// UndeclaredOutputFieldError reports an accumulator field outside the
// declared output contract.
type UndeclaredOutputFieldError struct {
	Field string
}

func (e *UndeclaredOutputFieldError) Error() string {
	return fmt.Sprintf("set wrote undeclared output field %q", e.Field)
}

// OutputTypeMismatchError reports a produced value that does not conform
// to the declared output type. Values are never silently coerced.
type OutputTypeMismatchError struct {
	Field string // empty for a single output
	Want  string
	Got   expr.Kind
}

func (e *OutputTypeMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("result is %s, output declares %s", e.Got, e.Want)
	}
	return fmt.Sprintf("output field %q is %s, declared %s", e.Field, e.Got, e.Want)
}
