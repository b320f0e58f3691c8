package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jonwraymond/codechain/chain"
	"github.com/jonwraymond/codechain/scratch"
	"github.com/jonwraymond/codechain/unit"
)

const replHelp = `:names   list bound names
:help    show this help
:quit    exit
`

func cmdRepl(env environment, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fileFlag := fs.String("f", "", "unit source file")
	nameFlag := fs.String("name", "", "unit name (default from file name)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *fileFlag == "" {
		fmt.Fprintln(stderr, "repl: -f FILE is required")
		return 2
	}
	src, err := os.ReadFile(*fileFlag)
	if err != nil {
		fmt.Fprintln(stderr, "repl:", err)
		return 1
	}
	name := *nameFlag
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(*fileFlag), filepath.Ext(*fileFlag))
	}

	space, err := scratch.Acquire(env.scratchRoot, scratch.DefaultPrefix)
	if err != nil {
		fmt.Fprintln(stderr, "repl:", err)
		return 1
	}
	defer func() {
		if err := space.Release(); err != nil {
			env.logger.Warn("scratch release failed", "dir", space.Dir(), "error", err)
		}
	}()

	path, err := unit.Materialize(space, name, string(src))
	if err != nil {
		fmt.Fprintln(stderr, "repl:", err)
		return 1
	}
	h, err := unit.Load(path, name, unit.WithLoader(env.registry().Load))
	if err != nil {
		fmt.Fprintln(stderr, "repl:", err)
		var le *unit.LoadError
		if errors.As(err, &le) && le.Backtrace != "" {
			fmt.Fprintln(stderr, le.Backtrace)
		}
		return 1
	}
	fmt.Fprint(stdout, h.Output())

	exec := chain.New(chain.Config{LegacyClassifier: env.legacy, Logger: env.logger})
	return replLoop(h, exec, stdout)
}

func replLoop(h *unit.Handle, exec *chain.Executor, stdout io.Writer) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(stdout, "codechain repl: unit %s (%d names). :help for commands\n", h.Name(), len(h.Names()))
	n := 0
	for {
		line, err := ln.Prompt(fmt.Sprintf("[%d]> ", n))
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(stdout)
				return 0
			}
			fmt.Fprintln(stdout, "repl:", err)
			return 1
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(line)

		switch trimmed {
		case ":quit", ":q":
			return 0
		case ":help":
			fmt.Fprint(stdout, replHelp)
			continue
		case ":names":
			fmt.Fprintln(stdout, strings.Join(h.Names(), " "))
			continue
		}

		// Block openers keep reading until an empty line.
		if strings.HasSuffix(trimmed, ":") {
			var block strings.Builder
			block.WriteString(line)
			for {
				more, err := ln.Prompt("...  ")
				if err != nil || strings.TrimSpace(more) == "" {
					break
				}
				block.WriteString("\n" + more)
			}
			line = block.String()
		}

		res := exec.Run(h, []string{line}, nil)
		printOutcome(stdout, res, n)
		n++
	}
}

// printOutcome writes the chain output and the single outcome of res,
// renumbered to the session-wide counter n.
func printOutcome(w io.Writer, res *chain.Result, n int) {
	fmt.Fprint(w, res.Output)
	for _, o := range res.Outcomes {
		switch {
		case !o.OK():
			fmt.Fprintf(w, "%s: %s\n", chain.ErrorKey(n), o.Error)
		case o.Captured:
			fmt.Fprintf(w, "%s = %s\n", chain.ValueKey(n), o.Repr)
		}
	}
}

func historyPath() string {
	if p := os.Getenv("CODECHAIN_HISTORY"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".codechain_history")
}
