package eval

import (
	"nickandperla.net/logi/internal/doc"
	"nickandperla.net/logi/internal/expr"
)

// TestResult is the structured pass/fail record for one embedded test
// case. Mismatches and errors are reported here, never thrown.
type TestResult struct {
	Name     string `json:"name" yaml:"name"`
	Passed   bool   `json:"passed" yaml:"passed"`
	Expected any    `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty" yaml:"actual,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunTests runs every test case embedded in the function: each test's
// inputs override the declared defaults, the function is evaluated, and
// the actual result is compared to the expected one by deep structural
// equality.
func RunTests(fn *doc.Function) []TestResult {
	results := make([]TestResult, 0, len(fn.Tests))
	for _, tc := range fn.Tests {
		results = append(results, runTest(fn, tc))
	}
	return results
}

func runTest(fn *doc.Function, tc doc.TestCase) TestResult {
	res := TestResult{Name: tc.Name}

	overrides := make(map[string]expr.Value, len(tc.Inputs))
	for _, in := range tc.Inputs {
		if _, ok := fn.Input(in.Name); !ok {
			res.Error = (&UndeclaredInputError{Name: in.Name}).Error()
			return res
		}
		overrides[in.Name] = in.Value
	}

	actual, err := Run(fn, overrides)
	if err != nil {
		res.Error = err.Error()
		res.Expected = tc.Expected.Interface()
		return res
	}

	if expectedMatches(tc.Expected, actual) {
		res.Passed = true
		return res
	}
	res.Expected = tc.Expected.Interface()
	res.Actual = actual.Interface()
	return res
}

func expectedMatches(exp doc.Expected, actual Result) bool {
	if actual.Named != exp.IsRecord {
		return false
	}
	if actual.Named {
		return actual.Record.Equal(exp.Record)
	}
	return actual.Value.Equal(exp.Value)
}
