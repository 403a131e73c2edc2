package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang-alert-ingestion-service/cmd/ingester/config"
	"golang-alert-ingestion-service/internal/extraction"
	"golang-alert-ingestion-service/internal/matcher"
	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/internal/normalizer"
	"golang-alert-ingestion-service/internal/reporter"
	"golang-alert-ingestion-service/internal/source"
	"golang-alert-ingestion-service/pkg/errors"

	"github.com/spf13/cobra"
)

// Flags for the extract command
var (
	extractFile    string
	extractSender  string
	extractFrom    string
	extractSubject string
	extractRoster  string
	extractFormat  string
	extractRules   string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Show which rules extract each field of one alert",
	Long: `Extract runs a single alert through normalization and the extraction
rules and prints every field with the rule that produced it. Nothing is stored.

Examples:
  ingester extract "Rs.500 debited from a/c XX3456 at Amazon on 12-03-24"
  ingester extract --file alert.html --sender hdfc-card
  ingester extract --file alert.txt --from alerts@hdfcbank.net --roster accounts.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractFile, "file", "", "read the alert body from a file instead of the argument")
	extractCmd.Flags().StringVar(&extractSender, "sender", "", "sender rule to apply")
	extractCmd.Flags().StringVar(&extractFrom, "from", "", "sender address used to match a rule")
	extractCmd.Flags().StringVar(&extractSubject, "subject", "", "subject used to match a rule")
	extractCmd.Flags().StringVar(&extractRoster, "roster", "", "account roster used to resolve the account")
	extractCmd.Flags().StringVar(&extractRules, "rules-file", "", "file with additional sender rules")
	extractCmd.Flags().StringVarP(&extractFormat, "output-format", "f", "console", "output format: console, json")
}

func runExtract(cmd *cobra.Command, args []string) error {
	body, err := readAlertBody(args, extractFile)
	if err != nil {
		return err
	}
	if extractFormat != string(reporter.FormatConsole) && extractFormat != string(reporter.FormatJSON) {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json", extractFormat)
	}

	msg := &models.RawMessage{
		SourceID:   "cli",
		ReceivedAt: time.Now(),
		BodyText:   body,
		From:       extractFrom,
		Subject:    extractSubject,
	}

	text := normalizer.New(nil).Normalize(msg)
	if normalizer.IsNoContent(text) {
		return errors.MessageError(errors.CodeEmptyMessage, msg.SourceID, nil)
	}

	registry, err := config.CreateSenderRegistry(extractRules)
	if err != nil {
		return err
	}
	rule, err := lookupSender(registry, extractSender)
	if err != nil {
		return err
	}
	if rule == nil {
		if matched, ok := registry.Match(msg.From, msg.Subject); ok {
			rule = matched
		}
	}

	extractor, err := extraction.NewExtractor(config.CreateExtractionConfig())
	if err != nil {
		return err
	}
	if extractor, err = extractor.ForSender(rule); err != nil {
		return err
	}

	basics := extractor.Extract(text, msg.ReceivedAt)

	out := cmd.OutOrStdout()
	reportConfig := config.CreateReportConfig(extractFormat)
	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	if reportConfig.Format == reporter.FormatConsole {
		name := "<none>"
		if rule != nil {
			name = rule.Name
		}
		fmt.Fprintf(out, "Sender rule: %s\n\n", name)
	}
	if err := generator.WriteFieldDiagnostics(basics.Diagnostics(), out); err != nil {
		return err
	}

	if extractRoster == "" {
		return nil
	}
	return printResolution(cmd.Context(), out, text, basics)
}

func printResolution(ctx context.Context, out io.Writer, text string, basics extraction.Basics) error {
	if ctx == nil {
		ctx = context.Background()
	}
	loader, err := source.NewRosterLoader(nil)
	if err != nil {
		return err
	}
	roster, _, err := loader.Load(ctx, extractRoster)
	if err != nil {
		return err
	}

	var supplementary []string
	if basics.Account.Present {
		supplementary = append(supplementary, basics.Account.Value)
	}
	match := matcher.NewResolver(config.CreateResolverConfig(0)).Resolve(roster, text, supplementary...)

	fmt.Fprintf(out, "\nAccount: ")
	if !match.Valid {
		fmt.Fprintf(out, "unresolved (best score %.1f, runner-up %.1f)\n", match.Score, match.RunnerUp)
		return nil
	}
	fmt.Fprintf(out, "%s %q score=%.1f [%s]\n", match.Account.ID, match.Account.Name, match.Score, strings.Join(match.Reasons, ", "))
	return nil
}

func readAlertBody(args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("give the alert text or --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", errors.SourceError(errors.CodeFileNotFound, file, 0, err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("alert text or --file is required")
	}
}
