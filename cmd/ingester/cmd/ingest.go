package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang-alert-ingestion-service/cmd/ingester/config"
	"golang-alert-ingestion-service/internal/enrichment"
	"golang-alert-ingestion-service/internal/extraction"
	"golang-alert-ingestion-service/internal/ingest"
	"golang-alert-ingestion-service/internal/matcher"
	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/internal/reporter"
	"golang-alert-ingestion-service/internal/rules"
	"golang-alert-ingestion-service/internal/source"
	"golang-alert-ingestion-service/internal/store"
	"golang-alert-ingestion-service/pkg/errors"
	"golang-alert-ingestion-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the ingest command
var (
	messagesFile string
	rosterFile   string
	senderName   string
	rulesFile    string
	enrich       bool
	geminiModel  string
	threshold    float64
	outputFormat string
	outputFile   string
	showProgress bool
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Turn a batch of bank alerts into stored transactions",
	Long: `Ingest reads notification messages and an account roster, extracts a
candidate transaction from every alert and stores the candidates that resolve
to a roster account. A second alert in an already stored thread is merged.

This command requires:
- A message file (JSON Lines, or a JSON array when the name ends in .json)
- An account roster (CSV, or JSON when the name ends in .json)

Examples:
  # Match every message against the sender rules
  ingester ingest --messages inbox.jsonl --roster accounts.csv

  # Apply one sender rule to the whole batch
  ingester ingest --messages hdfc.jsonl --roster accounts.csv --sender hdfc-upi-debit

  # Add custom sender rules and enrich with Gemini
  GEMINI_API_KEY=... ingester ingest --messages inbox.jsonl --roster accounts.csv \
    --rules-file senders.yaml --enrich --output-format json --output-file run.json`,

	PreRunE: validateIngestFlags,
	RunE:    runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	// Required flags
	ingestCmd.Flags().StringVarP(&messagesFile, "messages", "m", "", "path to the message file (required)")
	ingestCmd.Flags().StringVarP(&rosterFile, "roster", "r", "", "path to the account roster (required)")

	// Extraction flags
	ingestCmd.Flags().StringVar(&senderName, "sender", "", "sender rule applied to every message (default: match per message)")
	ingestCmd.Flags().StringVar(&rulesFile, "rules-file", "", "YAML, JSON or TOML file with additional sender rules")
	ingestCmd.Flags().Float64VarP(&threshold, "threshold", "t", 0, "account acceptance threshold (0-100, default 40)")

	// Enrichment flags
	ingestCmd.Flags().BoolVar(&enrich, "enrich", false, "enrich candidates with the Gemini oracle")
	ingestCmd.Flags().StringVar(&geminiModel, "gemini-model", enrichment.DefaultModelName, "Gemini model used for enrichment")

	// Output flags
	ingestCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	ingestCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	ingestCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")

	ingestCmd.MarkFlagRequired("messages")
	ingestCmd.MarkFlagRequired("roster")

	for _, name := range []string{
		"messages", "roster", "sender", "rules-file", "threshold",
		"enrich", "gemini-model", "output-format", "output-file", "progress",
	} {
		viper.BindPFlag(name, ingestCmd.Flags().Lookup(name))
	}
}

func validateIngestFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	messagesFile = viper.GetString("messages")
	rosterFile = viper.GetString("roster")
	senderName = viper.GetString("sender")
	rulesFile = viper.GetString("rules-file")
	threshold = viper.GetFloat64("threshold")
	enrich = viper.GetBool("enrich")
	geminiModel = viper.GetString("gemini-model")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	showProgress = viper.GetBool("progress")

	if messagesFile == "" {
		return fmt.Errorf("messages is required")
	}
	if rosterFile == "" {
		return fmt.Errorf("roster is required")
	}

	if err := validateFileExists(messagesFile, "message file"); err != nil {
		return err
	}
	if err := validateFileExists(rosterFile, "roster file"); err != nil {
		return err
	}
	if rulesFile != "" {
		if err := validateFileExists(rulesFile, "rules file"); err != nil {
			return err
		}
	}

	if err := validateOutputFormat(outputFormat); err != nil {
		return err
	}

	if threshold < 0 || threshold > 100 {
		return fmt.Errorf("threshold must be between 0 and 100")
	}

	if enrich && strings.TrimSpace(geminiModel) == "" {
		return fmt.Errorf("gemini-model cannot be empty when enrich is set")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateOutputFormat(format string) error {
	if !reporter.OutputFormat(format).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", format)
	}
	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return errors.SourceError(errors.CodeFileNotFound, filePath, 0, err).
			WithContext("input", description)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

// lookupSender returns the named rule, or nil when name is empty
func lookupSender(registry *rules.Registry, name string) (*models.SenderRule, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	rule, ok := registry.Get(name)
	if !ok {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "sender", name, nil).
			WithSuggestion(fmt.Sprintf("Known sender rules: %s", strings.Join(registry.Names(), ", ")))
	}
	return rule, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.GetGlobalLogger().WithComponent("cli")
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting ingestion...\n")
		fmt.Fprintf(os.Stderr, "Messages: %s\n", messagesFile)
		fmt.Fprintf(os.Stderr, "Roster: %s\n", rosterFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	// Create configurations
	extractionConfig := config.CreateExtractionConfig()
	resolverConfig := config.CreateResolverConfig(threshold)
	pipelineConfig := config.CreatePipelineConfig(enrich)
	if err := config.ValidateConfig(extractionConfig, resolverConfig, pipelineConfig); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "ingest", nil, err)
	}

	registry, err := config.CreateSenderRegistry(rulesFile)
	if err != nil {
		return err
	}
	sender, err := lookupSender(registry, senderName)
	if err != nil {
		return err
	}

	// Load inputs
	rosterLoader, err := source.NewRosterLoader(nil)
	if err != nil {
		return err
	}
	roster, rosterStats, err := rosterLoader.Load(ctx, rosterFile)
	if err != nil {
		return err
	}
	messages, messageStats, err := source.NewMessageLoader(nil).Load(ctx, messagesFile)
	if err != nil {
		return err
	}
	if rosterStats.HasErrors() {
		fmt.Fprintf(os.Stderr, "Warning: roster: %s\n", rosterStats)
	}
	if messageStats.HasErrors() {
		fmt.Fprintf(os.Stderr, "Warning: messages: %s\n", messageStats)
	}

	// Create components
	extractor, err := extraction.NewExtractor(extractionConfig)
	if err != nil {
		return err
	}
	resolver := matcher.NewResolver(resolverConfig)

	enricherConfig, geminiConfig := config.CreateEnrichmentConfig(enrich, geminiModel, viper.GetString("gemini-api-key"))
	var oracle enrichment.Oracle
	if enrich {
		gemini, err := enrichment.NewGeminiOracle(ctx, geminiConfig)
		if err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "gemini", geminiConfig.Model, err).
				WithSuggestion("Set GEMINI_API_KEY or run without --enrich")
		}
		oracle = gemini
	}
	enricher := enrichment.NewEnricher(oracle, resolver, enricherConfig, nil)

	pipeline, err := ingest.NewPipeline(ingest.Dependencies{
		Extractor: extractor,
		Rules:     registry,
		Resolver:  resolver,
		Store:     store.NewMemoryStore(),
		Enricher:  enricher,
	}, pipelineConfig)
	if err != nil {
		return err
	}

	if showProgress {
		pipeline.AddProgressCallback(func(progress *ingest.Progress) {
			fmt.Fprintf(os.Stderr, "\r[%d/%d] %s (%.1f%% complete)",
				progress.Processed, progress.Total, progress.CurrentID, progress.PercentComplete)
		})
	}

	result, runErr := pipeline.Run(ctx, ingest.RunInput{
		Messages: messages,
		Roster:   roster,
		Sender:   sender,
	})
	if showProgress {
		fmt.Fprintf(os.Stderr, "\n")
	}
	if result == nil {
		return runErr
	}
	if runErr != nil {
		log.WithError(runErr).Warn("Run stopped early; reporting partial results")
	}

	// Determine output destination
	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return errors.SourceError(errors.CodeFileNotFound, outputFile, 0, err).
				WithSuggestion("Check that the output location is writable")
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	generator, err := reporter.NewSafeReportGenerator(config.CreateReportConfig(outputFormat), nil)
	if err != nil {
		return err
	}
	if err := generator.GenerateReportSafely(result, output); err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		summary := result.Summary
		fmt.Fprintf(os.Stderr, "\nIngestion completed.\n")
		fmt.Fprintf(os.Stderr, "Processed %d messages against %d roster accounts.\n", summary.Total, len(roster))
		fmt.Fprintf(os.Stderr, "Persisted %d, merged %d, rejected %d, skipped %d, failed %d.\n",
			summary.Persisted, summary.Merged, summary.Rejected, summary.Skipped, summary.Failed)
		if summary.Enriched > 0 || summary.EnrichmentFailures > 0 {
			fmt.Fprintf(os.Stderr, "Enriched %d candidates, %d enrichment failures.\n", summary.Enriched, summary.EnrichmentFailures)
		}
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", summary.Duration)
	}

	return runErr
}
