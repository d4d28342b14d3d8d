package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"nickandperla.net/logi/pkg/logi"
)

func printBanner() {
	fmt.Println("logi REPL (:help for commands, Ctrl+D to exit)")
	fmt.Println()
	fmt.Println("Enter a flow-style YAML expression to evaluate it, e.g.")
	fmt.Println("  {concat: ['Hello, ', {get: name}]}")
	fmt.Println()
}

// session holds REPL state: the loaded module, the selected function, and
// the bindings visible to inline expressions and runs.
type session struct {
	runtime *logi.Runtime
	module  *logi.Module
	fnName  string
	inputs  map[string]any
}

func runREPL(runtime *logi.Runtime) error {
	home, _ := os.UserHomeDir()
	histPath := ""
	if home != "" {
		histPath = filepath.Join(home, ".logi_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "logi> ",
		HistoryFile:       histPath,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	printBanner()
	s := &session{runtime: runtime, inputs: make(map[string]any)}

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := s.command(line); quit {
				return nil
			}
			continue
		}
		result, err := runtime.EvalExpr(line, s.inputs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		printYAML(result)
	}
}

// command handles a :-prefixed REPL command, returning true on :quit.
func (s *session) command(line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case ":quit", ":q", ":exit":
		return true

	case ":help":
		fmt.Println(":load <path|@name>  load a document (@name = embedded example)")
		fmt.Println(":fn <name>          select a function of the loaded module")
		fmt.Println(":let <name> <value> bind an input for :run and expressions")
		fmt.Println(":inputs             show current bindings")
		fmt.Println(":run                run the selected function")
		fmt.Println(":test               run the module's embedded tests")
		fmt.Println(":list               list module functions and embedded examples")
		fmt.Println(":quit               exit")

	case ":load":
		if arg == "" {
			fmt.Fprintln(os.Stderr, "usage: :load <path|@name>")
			break
		}
		m, err := s.runtime.LoadFile(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
		s.module = m
		s.fnName = ""
		fmt.Printf("loaded %q (%d function(s))\n", m.Name, len(m.Functions))

	case ":fn":
		if s.module == nil {
			fmt.Fprintln(os.Stderr, "no module loaded")
			break
		}
		if _, err := s.module.Resolve(arg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
		s.fnName = arg

	case ":let":
		name, raw, ok := strings.Cut(arg, " ")
		if !ok || name == "" {
			fmt.Fprintln(os.Stderr, "usage: :let <name> <value>")
			break
		}
		s.inputs[name] = parseInputValue(strings.TrimSpace(raw))

	case ":inputs":
		for name, v := range s.inputs {
			fmt.Printf("%s = %v\n", name, v)
		}

	case ":run":
		if s.module == nil {
			fmt.Fprintln(os.Stderr, "no module loaded")
			break
		}
		result, err := s.runtime.Run(s.module, s.fnName, s.inputs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
		printYAML(result)

	case ":test":
		if s.module == nil {
			fmt.Fprintln(os.Stderr, "no module loaded")
			break
		}
		if _, err := reportTests(s.runtime, s.module, s.fnName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

	case ":list":
		if s.module != nil {
			fmt.Printf("module %q:\n", s.module.Name)
			for _, fn := range s.module.Functions {
				fmt.Printf("  %s\n", fn.Name)
			}
		}
		fmt.Println("embedded examples: @greeting @names @shipping")

	default:
		fmt.Fprintf(os.Stderr, "unknown command %s (:help for commands)\n", cmd)
	}
	return false
}
