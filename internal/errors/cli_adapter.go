package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if be, ok := AsBookError(err); ok {
		return a.exitCodeFromBookError(be)
	}

	return 1
}

// exitCodeFromBookError maps BookError categories to exit codes.
func (a *CLIErrorAdapter) exitCodeFromBookError(err *BookError) int {
	switch err.Category {
	case CategoryValidation, CategoryContent, CategoryConflict:
		return 2 // Invalid content or usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryRender, CategoryTheme, CategoryFileSystem:
		return 11 // Build error
	case CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if be, ok := AsBookError(err); ok {
		return a.formatBookError(be)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatBookError formats a BookError for display.
func (a *CLIErrorAdapter) formatBookError(err *BookError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return err.Message
	case CategoryContent, CategoryConflict:
		// Surface the offending file path prominently.
		if p := err.Path(); p != "" {
			return fmt.Sprintf("%s: %s", err.Message, p)
		}
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logger.Error("command failed", slog.String("error", err.Error()))
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged in addition to the stderr line.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if be, ok := AsBookError(err); ok {
		return be.Category == CategoryInternal || be.Category == CategoryRuntime
	}

	return true
}
