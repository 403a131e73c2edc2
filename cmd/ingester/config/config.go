package config

import (
	"fmt"
	"strings"

	"golang-alert-ingestion-service/internal/enrichment"
	"golang-alert-ingestion-service/internal/extraction"
	"golang-alert-ingestion-service/internal/ingest"
	"golang-alert-ingestion-service/internal/matcher"
	"golang-alert-ingestion-service/internal/reporter"
	"golang-alert-ingestion-service/internal/rules"
	"golang-alert-ingestion-service/pkg/logger"
)

// CreateExtractionConfig creates the extraction configuration for Indian bank alerts
func CreateExtractionConfig() *extraction.Config {
	return extraction.DefaultConfig()
}

// CreateResolverConfig creates a resolver configuration with the given
// acceptance threshold. A threshold of zero keeps the default.
func CreateResolverConfig(threshold float64) *matcher.ResolverConfig {
	config := matcher.DefaultResolverConfig()
	if threshold != 0 {
		config.AcceptanceThreshold = threshold
	}
	return config
}

// CreatePipelineConfig creates a pipeline configuration
func CreatePipelineConfig(enrich bool) *ingest.Config {
	config := ingest.DefaultConfig()
	config.EnableEnrichment = enrich
	return config
}

// CreateEnrichmentConfig creates the enricher and Gemini oracle configurations
func CreateEnrichmentConfig(enrich bool, model, apiKey string) (*enrichment.Config, *enrichment.GeminiConfig) {
	enricherConfig := enrichment.DefaultConfig()
	enricherConfig.Enabled = enrich

	geminiConfig := enrichment.DefaultGeminiConfig()
	if strings.TrimSpace(model) != "" {
		geminiConfig.Model = model
	}
	geminiConfig.APIKey = apiKey

	// The pipeline bounds each call with its own timeout; keep the client's shorter
	if geminiConfig.Timeout > enricherConfig.Timeout {
		geminiConfig.Timeout = enricherConfig.Timeout
	}
	return enricherConfig, geminiConfig
}

// CreateLoggerConfig creates a logger configuration for CLI use
func CreateLoggerConfig(verbose bool) *logger.Config {
	if verbose {
		return logger.DebugConfig()
	}
	config := logger.DefaultConfig()
	config.Level = logger.WarnLevel
	return config
}

// CreateSenderRegistry returns the built-in sender rules, extended with the
// rules in rulesFile when one is given
func CreateSenderRegistry(rulesFile string) (*rules.Registry, error) {
	return rules.LoadRegistry(rulesFile)
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
		config.UseColors = true
	case "json":
		config.Format = reporter.FormatJSON
		config.IncludeMerged = true
		config.IncludeSkipped = true
		config.IncludeFieldDiagnostics = true
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
		config.IncludeMerged = true
		config.IncludeSkipped = true
		config.IncludeErrorSummary = false
	default:
		config.Format = reporter.OutputFormat(format)
	}

	return config
}

// ValidateConfig validates that all required configurations are valid
func ValidateConfig(extractionConfig *extraction.Config, resolverConfig *matcher.ResolverConfig, pipelineConfig *ingest.Config) error {
	if err := extractionConfig.Validate(); err != nil {
		return fmt.Errorf("invalid extraction config: %w", err)
	}

	if err := resolverConfig.Validate(); err != nil {
		return fmt.Errorf("invalid resolver config: %w", err)
	}

	if err := pipelineConfig.Validate(); err != nil {
		return fmt.Errorf("invalid pipeline config: %w", err)
	}

	return nil
}
