package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/star/emmproc/internal/batch"
	"github.com/star/emmproc/internal/config"
	"github.com/star/emmproc/internal/geomag"
	"github.com/star/emmproc/internal/metrics"
	"github.com/star/emmproc/internal/model"
	"github.com/star/emmproc/internal/query"
	"github.com/star/emmproc/internal/temporal"
)

// Exit codes.
const (
	exitOK    = 0
	exitUsage = 2
)

// usageError is a command line error; its message is shown verbatim.
type usageError string

func (e usageError) Error() string { return string(e) }

type invocation struct {
	help     bool
	file     bool
	in, out  string
	gradient bool
	tokens   []string
}

// parseArgs decodes the command line. The first argument selects the mode:
// h for help, f for a coordinate file, anything else starts a single query.
// Switches are case-sensitive.
func parseArgs(args []string) (invocation, error) {
	if len(args) == 0 {
		return invocation{}, usageError("ERROR in switch option: wrong number of arguments")
	}

	switch args[0] {
	case "h":
		if len(args) == 1 {
			return invocation{help: true}, nil
		}
	case "f":
		switch {
		case len(args) == 3:
			return invocation{file: true, in: args[1], out: args[2]}, nil
		case len(args) == 4 && args[3] == "g":
			return invocation{file: true, in: args[1], out: args[2], gradient: true}, nil
		}
		return invocation{}, usageError("ERROR in 'f' switch option: wrong number of arguments")
	}

	if len(args) > query.NumTokens {
		return invocation{}, usageError("ERROR in switch option: wrong number of arguments")
	}
	return invocation{tokens: args}, nil
}

// exitCode maps a run error to the process exit status. A rejected record
// ends the run normally once it has been reported.
func exitCode(err error) int {
	var recErr *batch.RecordError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, query.ErrRangeNotAllowedInBatch):
		return exitUsage
	case errors.As(err, &recErr):
		return exitOK
	default:
		return exitUsage
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return exitUsage
	}
	logger = slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	inv, err := parseArgs(args)
	if err != nil {
		if len(args) == 0 {
			printHelp(stdout, cfg)
		}
		fmt.Fprintf(stdout, "\n\n%v\n", err)
		return exitUsage
	}
	if inv.help {
		printHelp(stdout, cfg)
		return exitOK
	}

	driver, err := newDriver(cfg, inv.gradient, logger)
	if err != nil {
		logger.Error("failed to load models", "model_dir", cfg.ModelDir, "error", err)
		fmt.Fprintf(stdout, "\n %v\n", err)
		return exitUsage
	}
	defer writeMetrics(cfg, logger)

	if inv.file {
		return runFile(inv, cfg, driver, stdout, stderr, logger)
	}

	sum, err := driver.RunQuery(inv.tokens, stdout)
	if err != nil {
		logger.Error("query rejected", "tokens", strings.Join(inv.tokens, " "), "error", err)
		fmt.Fprintf(stdout, "\nError: %v\n\n", err)
		return exitCode(err)
	}
	logger.Debug("query complete", "rows", sum.Processed, "warnings", sum.Warnings)
	return exitOK
}

// newDriver loads the model repository and the optional geoid grid.
func newDriver(cfg config.Config, gradient bool, logger *slog.Logger) (*batch.Driver, error) {
	repo, err := model.Load(os.DirFS(cfg.ModelDir), cfg.ModelConfig(), logger)
	if err != nil {
		return nil, err
	}
	metrics.SetModelEpochs(repo.Len())
	logger.Info("models loaded",
		"epochs", repo.Len(),
		"min_year", repo.MinYear(),
		"max_year", repo.MaxYear(),
		"n_max", repo.NMax(),
	)

	var geoid *geomag.Geoid
	if cfg.GeoidFile != "" {
		f, err := os.Open(cfg.GeoidFile)
		if err != nil {
			return nil, fmt.Errorf("opening geoid grid: %w", err)
		}
		defer f.Close()

		geoid, err = geomag.LoadGeoid(f, geomag.EGM96Scale)
		if err != nil {
			return nil, fmt.Errorf("loading geoid grid %s: %w", cfg.GeoidFile, err)
		}
		logger.Info("geoid grid loaded", "path", cfg.GeoidFile)
	}

	selector := temporal.NewSelector(repo)
	evaluator := geomag.NewEvaluator(geoid, logger)
	return batch.NewDriver(selector, evaluator, gradient, logger), nil
}

func runFile(inv invocation, cfg config.Config, driver *batch.Driver, stdout, stderr io.Writer, logger *slog.Logger) int {
	printFileBanner(stdout, inv.gradient)

	in, err := os.Open(inv.in)
	if err != nil {
		logger.Error("failed to open coordinate file", "path", inv.in, "error", err)
		fmt.Fprintf(stdout, "\nError opening coordinate file %s: %v\n", inv.in, err)
		return exitUsage
	}
	defer in.Close()

	out, err := os.Create(inv.out)
	if err != nil {
		logger.Error("failed to create output file", "path", inv.out, "error", err)
		fmt.Fprintf(stdout, "\nError opening output file %s: %v\n", inv.out, err)
		return exitUsage
	}
	defer out.Close()

	var r io.Reader = in
	var progress *batch.Progress
	if cfg.Progress {
		if st, err := in.Stat(); err == nil {
			progress = batch.NewProgress(st.Size(), stderr)
			defer progress.Stop()
			r = progress.Reader(in)
		}
	}

	sum, runErr := driver.RunFile(r, out)
	if err := out.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("closing output file: %w", err)
	}
	if progress != nil {
		logger.Debug("coordinate file consumed", "path", inv.in, "bytes", progress.BytesRead())
	}

	var recErr *batch.RecordError
	switch {
	case errors.Is(runErr, query.ErrRangeNotAllowedInBatch) && errors.As(runErr, &recErr):
		fmt.Fprintf(stdout, "Error in line %d, date = %s: date ranges not allowed for file option\n\n", recErr.Line, recErr.Tokens[0])
		return exitUsage
	case errors.As(runErr, &recErr):
		fmt.Fprintf(stdout, "\nError: %v in coordinate file line %d\n\n", recErr.Err, recErr.Line)
	case runErr != nil:
		logger.Error("batch failed", "input", inv.in, "output", inv.out, "error", runErr)
	}

	sum.Report(stdout)
	logger.Info("batch complete",
		"input", inv.in,
		"output", inv.out,
		"processed", sum.Processed,
		"warnings", sum.Warnings,
		"aborted", sum.Aborted,
	)
	return exitCode(runErr)
}

func writeMetrics(cfg config.Config, logger *slog.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Warn("failed to write metrics textfile", "path", cfg.MetricsFile, "error", err)
	}
}
