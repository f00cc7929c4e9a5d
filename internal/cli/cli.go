package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/contractvm/internal/app"
	"github.com/specialistvlad/contractvm/internal/contract"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("contractvm", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
contractvm - Loads packaged contract modules and dispatches calls into them.

Usage:
  contractvm [options] MODULE [ARGS...]

Arguments:
  MODULE
    Name of the module to invoke. Its archive is looked up as
    <archive-dir>/MODULE.car unless -archive is given.
  ARGS
    Arguments passed to the operation.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to a .hcl, .yaml or .yml configuration file.")
	opFlag := flagSet.String("op", "main", "Operation to invoke. Options: 'main', 'tx' or 'query'.")
	archiveFlag := flagSet.String("archive", "", "Explicit path of the module archive.")
	archiveDirFlag := flagSet.String("archive-dir", "", "Directory holding module archives (overrides config).")
	libFlag := flagSet.String("lib", "", "Directory holding the common library archives (overrides config).")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No module provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	op, err := contract.ParseOp(strings.ToLower(*opFlag))
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	switch logFormat {
	case "", "text", "json":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath:  *configFlag,
		Module:      flagSet.Arg(0),
		Op:          op,
		Args:        flagSet.Args()[1:],
		ArchivePath: *archiveFlag,
		ArchiveDir:  *archiveDirFlag,
		LibDir:      *libFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
