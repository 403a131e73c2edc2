package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"

	"golang-alert-ingestion-service/pkg/errors"
	"golang-alert-ingestion-service/pkg/logger"

	"github.com/spf13/viper"
)

// exitInterrupted is the conventional exit status after SIGINT
const exitInterrupted = 130

// CLIErrorHandler turns command errors into messages and exit codes
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
	out     io.Writer
}

// NewCLIErrorHandler creates a new CLI error handler writing to stderr
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
		out:     os.Stderr,
	}
}

// HandleError prints err and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	if stderrors.Is(err, context.Canceled) {
		fmt.Fprintf(h.out, "Interrupted: partial results were reported\n")
		return exitInterrupted
	}

	if ingestErr, ok := errors.AsIngestError(err); ok {
		return h.handleIngestError(ingestErr)
	}

	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleIngestError(err *errors.IngestError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(h.out, "\nContext:\n")
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	switch {
	case h.isFileNotFoundError(err):
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	case h.isPermissionError(err):
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	case h.isDiskFullError(err):
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	fmt.Fprintf(h.out, "Error: %v\n", err)
	if !h.verbose {
		fmt.Fprintf(h.out, "\nRun with --verbose for more detail\n")
	}
	return 1
}

func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategorySource:
		return `Input file help:
• Messages are JSON Lines (one object per line) or a JSON array in a .json file
• Every message needs a source_id
• The roster needs id and name columns; number, keywords and aliases are optional
• Files must be UTF-8`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Use 'ingester rules' to see the available sender rules
• Verify the rules file has a top-level sender_rules list
• Use 'ingester ingest --help' to see all available options`

	case errors.CategoryExtraction:
		return `Extraction rule help:
• Patterns use Go regular expression syntax
• A (?P<value>...) group, or the first group, selects the captured value
• Confidence must be between 1 and 100`

	case errors.CategoryEnrichment:
		return `Enrichment help:
• Set GEMINI_API_KEY, or run without --enrich
• Deterministic fields are kept when enrichment fails`

	case errors.CategoryValidation, errors.CategoryMessage:
		return `Message help:
• Use 'ingester extract' to see which rules match one alert
• Add a sender rule with extraction overrides for unusual layouts`

	default:
		return `For more help:
• Use 'ingester --help' for general help
• Use 'ingester ingest --help' for command-specific help
• Run with --verbose to see the underlying error`
	}
}

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || stderrors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) || stderrors.Is(err, os.ErrPermission) ||
		strings.Contains(err.Error(), "permission denied")
}

func (h *CLIErrorHandler) isDiskFullError(err error) bool {
	if stderrors.Is(err, syscall.ENOSPC) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") || strings.Contains(errStr, "disk full")
}
