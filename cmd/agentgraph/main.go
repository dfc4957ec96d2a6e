// Command agentgraph assembles agent turn pipelines from YAML files. It can
// print the assembled topology or run a single turn against a model.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/tracing"
	"github.com/hupe1980/agentgraph/runner"
)

const usage = `agentgraph - assemble and run agent turn pipelines

USAGE:
    agentgraph <command> [flags]

COMMANDS:
    describe    Print the assembled pipeline (text or mermaid)
    run         Run one turn with the configured model

Run 'agentgraph <command> -h' for command flags.
`

// ExitError carries a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string { return e.Message }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return &ExitError{Code: 2, Message: "missing command"}
	}

	switch args[0] {
	case "-h", "--help", "help":
		fmt.Fprint(out, usage)
		return nil
	case "describe":
		return runDescribe(out, args[1:])
	case "run":
		return runTurn(ctx, out, args[1:])
	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command: %s\n\nRun 'agentgraph --help' for usage information.", args[0])}
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, &ExitError{Code: 2, Message: err.Error()}
	}
	return false, nil
}

func runDescribe(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("describe", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "agentgraph.yaml", "Path to the pipeline file.")
	format := fs.String("format", "text", "Output format: 'text' or 'mermaid'.")

	if exit, err := parseFlags(fs, args); exit || err != nil {
		return err
	}

	cfg, err := Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Logger)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	switch *format {
	case "text":
		fmt.Fprint(out, p.Graph.Describe())
	case "mermaid":
		fmt.Fprint(out, p.Graph.Mermaid())
	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown format %q", *format)}
	}

	return nil
}

func runTurn(ctx context.Context, out io.Writer, args []string) (err error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "agentgraph.yaml", "Path to the pipeline file.")
	verbose := fs.Bool("v", false, "Print every executed node.")

	if exit, err := parseFlags(fs, args); exit || err != nil {
		return err
	}

	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		return &ExitError{Code: 2, Message: "run: a prompt is required"}
	}

	cfg, err := Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Logger)
	if err != nil {
		return err
	}

	shutdown, err := tracing.Setup(ctx, cfg.Tracer)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := shutdown(context.WithoutCancel(ctx)); shutdownErr != nil && err == nil {
			err = fmt.Errorf("shutdown tracer: %w", shutdownErr)
		}
	}()

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	r := runner.New(p.Graph, func(o *runner.Options) {
		o.MaxSteps = cfg.Runner.MaxSteps
		o.Logger = logger
	})

	_, steps, errs := r.Start(ctx, agent.NewState(core.NewUserMessage(prompt)))

	var final agent.State
	for step := range steps {
		if *verbose {
			fmt.Fprintf(out, "[%d] %s\n", step.Index, step.Node)
		}
		final = step.State
	}
	if err := <-errs; err != nil {
		return err
	}

	return printResult(out, final)
}

func printResult(out io.Writer, state agent.State) error {
	if state.Response != nil {
		raw, err := json.MarshalIndent(state.Response, "", "  ")
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		fmt.Fprintln(out, string(raw))
		return nil
	}

	last, ok := state.LastMessage()
	if !ok {
		return nil
	}

	if last.Role == core.RoleTool {
		for _, fr := range last.FunctionResponses() {
			if fr.Error != "" {
				fmt.Fprintf(out, "%s: error: %s\n", fr.Name, fr.Error)
				continue
			}
			fmt.Fprintf(out, "%s: %v\n", fr.Name, fr.Response)
		}
		return nil
	}

	fmt.Fprintln(out, last.Text())
	return nil
}
