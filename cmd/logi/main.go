// Command logi is the logi interpreter CLI.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"nickandperla.net/logi/internal/server"
	"nickandperla.net/logi/pkg/logi"
)

// inputFlags collects repeatable -i key=value flags.
type inputFlags map[string]any

func (f inputFlags) String() string { return "" }

func (f inputFlags) Set(s string) error {
	key, raw, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	f[key] = parseInputValue(raw)
	return nil
}

// parseInputValue interprets a command-line value the way a YAML scalar
// would be: numbers, booleans, and null keep their types, everything else
// is a string.
func parseInputValue(raw string) any {
	switch raw {
	case "null", "~":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

func main() {
	inputs := inputFlags{}
	var (
		file     = flag.String("f", "", "Run a logi document (use @name for an embedded example)")
		fnName   = flag.String("fn", "", "Function to run (default: first declared)")
		evalStr  = flag.String("e", "", "Evaluate an inline YAML expression")
		runTests = flag.Bool("test", false, "Run the document's embedded tests")
		serve    = flag.String("serve", "", "Serve the HTTP API on this address (e.g. :8080)")
		dbPath   = flag.String("db", "", "SQLite module store path")
		list     = flag.Bool("list", false, "List stored modules and embedded examples")
		repl     = flag.Bool("repl", false, "Start the REPL")
	)
	flag.Var(inputs, "i", "Input override key=value (repeatable)")
	flag.Parse()

	opts := []logi.Option{}
	if *dbPath != "" {
		opts = append(opts, logi.WithSQLiteStore(*dbPath))
	} else if *serve != "" || *list {
		opts = append(opts, logi.WithMemoryStore())
	}
	runtime := logi.New(opts...)
	defer runtime.Close()

	switch {
	case *repl:
		if err := runREPL(runtime); err != nil {
			fail(err)
		}

	case *serve != "":
		if err := serveHTTP(runtime, *serve); err != nil {
			fail(err)
		}

	case *list:
		if err := listModules(runtime); err != nil {
			fail(err)
		}

	case *evalStr != "":
		result, err := runtime.EvalExpr(*evalStr, inputs)
		if err != nil {
			fail(err)
		}
		printYAML(result)

	case *file != "" && *runTests:
		m, err := runtime.LoadFile(*file)
		if err != nil {
			fail(err)
		}
		ok, err := reportTests(runtime, m, *fnName)
		if err != nil {
			fail(err)
		}
		if !ok {
			os.Exit(1)
		}

	case *file != "":
		m, err := runtime.LoadFile(*file)
		if err != nil {
			fail(err)
		}
		result, err := runtime.Run(m, *fnName, inputs)
		if err != nil {
			fail(err)
		}
		printYAML(result)

	default:
		if err := runREPL(runtime); err != nil {
			fail(err)
		}
	}
}

func serveHTTP(runtime *logi.Runtime, addr string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := runtime.SeedExamples(); err != nil {
		return err
	}
	srv := server.New(runtime.Store(), logger)
	logger.Info("serving", "addr", addr)
	return http.ListenAndServe(addr, srv.Handler())
}

func listModules(runtime *logi.Runtime) error {
	infos, err := runtime.ListModules()
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Println(info.Name)
	}
	return nil
}

// reportTests prints every test result and returns whether all passed.
func reportTests(runtime *logi.Runtime, m *logi.Module, fnName string) (bool, error) {
	results, err := runtime.Test(m, fnName)
	if err != nil {
		return false, err
	}
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
			fmt.Printf("ok   %s\n", r.Name)
			continue
		}
		if r.Error != "" {
			fmt.Printf("FAIL %s: %s\n", r.Name, r.Error)
			continue
		}
		fmt.Printf("FAIL %s\n", r.Name)
		printYAML(map[string]any{"expected": r.Expected, "actual": r.Actual})
	}
	fmt.Printf("%d/%d passed\n", passed, len(results))
	return passed == len(results), nil
}

func printYAML(v any) {
	out, err := yaml.Marshal(v)
	if err != nil {
		fail(err)
	}
	fmt.Print(string(out))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
