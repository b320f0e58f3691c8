// Command codechain runs Starlark code fragments and their call chains.
//
// Usage:
//
//	codechain run [-format json|yaml] [-o text|json] FILE
//	codechain sample [-format json|yaml] [-o FILE]
//	codechain repl -f FILE [-name NAME]
//	codechain serve
//
// Environment:
//
//	CODECHAIN_SCRATCH_ROOT       parent directory for scratch spaces
//	CODECHAIN_MODULE_PATH        search path for .star modules (list separated)
//	CODECHAIN_LEGACY_CLASSIFIER  "true" selects the textual line classifier
//	CODECHAIN_LOG_LEVEL          debug, info, warn or error (default warn)
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/jonwraymond/codechain/catalog"
	"github.com/jonwraymond/codechain/deps"
	"github.com/jonwraymond/codechain/fragment"
	"github.com/jonwraymond/codechain/mcpserver"
	"github.com/jonwraymond/codechain/report"
	"github.com/jonwraymond/codechain/session"
)

const usage = `usage: codechain <command> [flags]

commands:
  run     execute a fragments file
  sample  write the sample fragments document
  repl    load a unit and evaluate call-chain lines interactively
  serve   run the MCP server on stdio
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(dispatch(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func dispatch(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	env := loadEnv(stderr)
	switch args[0] {
	case "run":
		return cmdRun(ctx, env, args[1:], stdout, stderr)
	case "sample":
		return cmdSample(args[1:], stdout, stderr)
	case "repl":
		return cmdRepl(env, args[1:], stdout, stderr)
	case "serve":
		return cmdServe(ctx, env, stdin, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}

// environment is the configuration read from CODECHAIN_* variables.
type environment struct {
	scratchRoot string
	modulePath  []string
	legacy      bool
	logger      *slog.Logger
}

func loadEnv(stderr io.Writer) environment {
	legacy, _ := strconv.ParseBool(envOrDefault("CODECHAIN_LEGACY_CLASSIFIER", "false"))
	return environment{
		scratchRoot: envOrDefault("CODECHAIN_SCRATCH_ROOT", ""),
		modulePath:  filepath.SplitList(os.Getenv("CODECHAIN_MODULE_PATH")),
		legacy:      legacy,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
			Level: parseLevel(envOrDefault("CODECHAIN_LOG_LEVEL", "warn")),
		})),
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelWarn
	}
	return level
}

func (e environment) registry() *deps.Registry {
	return deps.NewRegistry(
		deps.WithSearchPaths(e.modulePath...),
		deps.WithLogger(e.logger),
	)
}

func (e environment) runner() (*session.Runner, error) {
	return session.NewRunner(session.Config{},
		session.WithScratchRoot(e.scratchRoot),
		session.WithRegistry(e.registry()),
		session.WithLegacyClassifier(e.legacy),
		session.WithLogger(e.logger),
	)
}

func cmdRun(ctx context.Context, env environment, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	formatFlag := fs.String("format", "", "input format: json or yaml (default from extension)")
	outFlag := fs.String("o", "text", "output: text or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "run: exactly one FILE is required")
		return 2
	}
	path := fs.Arg(0)

	format := fragment.FormatFor(path)
	if *formatFlag != "" {
		f, err := fragment.ParseFormat(*formatFlag)
		if err != nil {
			fmt.Fprintln(stderr, "run:", err)
			return 2
		}
		format = f
	}
	if *outFlag != "text" && *outFlag != "json" {
		fmt.Fprintf(stderr, "run: unknown output %q\n", *outFlag)
		return 2
	}

	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(stderr, "run:", err)
		return 1
	}
	frags, err := fragment.Decode(file, format)
	_ = file.Close()
	if err != nil {
		fmt.Fprintln(stderr, "run:", err)
		return 1
	}

	runner, err := env.runner()
	if err != nil {
		fmt.Fprintln(stderr, "run:", err)
		return 1
	}
	res, err := runner.Run(ctx, frags)
	if err != nil {
		fmt.Fprintln(stderr, "run:", err)
		return 1
	}

	if *outFlag == "json" {
		err = report.JSON(stdout, res)
	} else {
		err = report.Text(stdout, res)
	}
	if err != nil {
		fmt.Fprintln(stderr, "run:", err)
		return 1
	}
	return 0
}

func cmdSample(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	fs.SetOutput(stderr)
	formatFlag := fs.String("format", "", "output format: json or yaml (default from -o extension)")
	outFlag := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	format := fragment.FormatFor(*outFlag)
	if *formatFlag != "" {
		f, err := fragment.ParseFormat(*formatFlag)
		if err != nil {
			fmt.Fprintln(stderr, "sample:", err)
			return 2
		}
		format = f
	}

	w := stdout
	if *outFlag != "" {
		file, err := os.Create(*outFlag)
		if err != nil {
			fmt.Fprintln(stderr, "sample:", err)
			return 1
		}
		defer file.Close()
		w = file
	}
	if err := fragment.WriteSamples(w, format); err != nil {
		fmt.Fprintln(stderr, "sample:", err)
		return 1
	}
	if *outFlag != "" {
		fmt.Fprintf(stdout, "wrote %s\n", *outFlag)
	}
	return 0
}

func cmdServe(ctx context.Context, env environment, _ io.Reader, _ io.Writer, stderr io.Writer) int {
	runner, err := env.runner()
	if err != nil {
		fmt.Fprintln(stderr, "serve:", err)
		return 1
	}
	c, err := catalog.NewCodechain(runner)
	if err != nil {
		fmt.Fprintln(stderr, "serve:", err)
		return 1
	}
	env.logger.Info("mcp server starting", "tools", len(c.Tools()))
	if err := mcpserver.Serve(ctx, c); err != nil && ctx.Err() == nil {
		fmt.Fprintln(stderr, "serve:", err)
		return 1
	}
	return 0
}
