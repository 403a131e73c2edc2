package reporter

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang-alert-ingestion-service/internal/ingest"
	"golang-alert-ingestion-service/pkg/errors"
	"golang-alert-ingestion-service/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with format and output fallbacks
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report_config", config, err).
			WithSuggestion("Check the report configuration values")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely generates a report. A failing JSON or CSV report is
// retried as console output; a file that cannot be written gets a backup
// file next to it.
func (srg *SafeReportGenerator) GenerateReportSafely(result *ingest.RunResult, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": getWriterDescription(writer),
	}).Debug("Starting report generation")

	if result == nil {
		return errors.ValidationError(errors.CodeMissingField, "result", nil, nil).
			WithSuggestion("Run the pipeline before generating a report")
	}
	if writer == nil {
		return errors.ValidationError(errors.CodeMissingField, "writer", nil, nil)
	}

	if err := srg.generateWithFallback(result, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed")
		return err
	}

	srg.logger.Debug("Report generation completed")
	return nil
}

func (srg *SafeReportGenerator) generateWithFallback(result *ingest.RunResult, writer io.Writer) error {
	err := srg.GenerateReport(result, writer)
	if err == nil {
		return nil
	}

	srg.logger.WithError(err).Warn("Primary report generation failed, attempting fallback")

	if file, ok := writer.(*os.File); ok && file.Name() != "" && isFileError(err) {
		return srg.generateWithOutputFallback(result, file, err)
	}

	if srg.config.Format != FormatConsole {
		return srg.generateWithFormatFallback(result, writer, err)
	}

	return srg.wrapGenerationError(err)
}

func (srg *SafeReportGenerator) generateWithFormatFallback(result *ingest.RunResult, writer io.Writer, originalErr error) error {
	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole
	fallbackConfig.UseColors = false

	srg.logger.WithField("fallback_format", FormatConsole).Info("Attempting format fallback")

	fallbackGenerator, err := NewReportGenerator(&fallbackConfig)
	if err != nil {
		return srg.wrapGenerationError(originalErr)
	}

	fmt.Fprintf(writer, "NOTE: Report generated in fallback format due to error with requested format\n")
	fmt.Fprintf(writer, "Original error: %v\n\n", originalErr)

	if err := fallbackGenerator.GenerateReport(result, writer); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report_fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", originalErr, err))
	}
	return nil
}

func (srg *SafeReportGenerator) generateWithOutputFallback(result *ingest.RunResult, file *os.File, originalErr error) error {
	originalPath := file.Name()
	backupPath := generateBackupPath(originalPath)

	srg.logger.WithFields(logger.Fields{
		"original_file": originalPath,
		"backup_file":   backupPath,
	}).Info("Attempting output fallback")

	backupFile, err := os.Create(backupPath)
	if err != nil {
		return srg.wrapGenerationError(originalErr)
	}
	defer backupFile.Close()

	if err := srg.GenerateReport(result, backupFile); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report_output_fallback",
			fmt.Errorf("both primary and backup output failed: primary=%v, backup=%v", originalErr, err))
	}

	fmt.Fprintf(os.Stderr, "Warning: Could not write to %s, report saved to %s\n", originalPath, backupPath)
	return nil
}

func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	return errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError,
		fmt.Sprintf("failed to generate %s report", srg.config.Format))
}

func isFileError(err error) bool {
	return os.IsPermission(err) ||
		os.IsNotExist(err) ||
		stderrors.Is(err, syscall.ENOSPC) ||
		stderrors.Is(err, os.ErrClosed)
}

func generateBackupPath(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	return filepath.Join(dir, fmt.Sprintf("%s_backup%s", name, ext))
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		switch w {
		case os.Stdout:
			return "stdout"
		case os.Stderr:
			return "stderr"
		}
		return w.Name()
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", writer)
	}
}
