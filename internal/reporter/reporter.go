// Package reporter renders ingestion run results.
//
// Supported output formats:
//   - Console: sectioned, optionally colored output for terminal display
//   - JSON: the summary and per-message outcomes for programmatic consumption
//   - CSV: one row per outcome for spreadsheet applications
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	err = generator.GenerateReport(result, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"golang-alert-ingestion-service/internal/extraction"
	"golang-alert-ingestion-service/internal/ingest"

	"github.com/fatih/color"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Which outcomes are listed; the summary always covers all of them
	IncludePersisted bool `json:"include_persisted"`
	IncludeMerged    bool `json:"include_merged"`
	IncludeSkipped   bool `json:"include_skipped"`
	IncludeRejected  bool `json:"include_rejected"`
	IncludeFailed    bool `json:"include_failed"`

	IncludeFieldDiagnostics bool `json:"include_field_diagnostics"`
	IncludeErrorSummary     bool `json:"include_error_summary"`

	// Console formatting options
	UseColors     bool `json:"use_colors"`
	TableMaxWidth int  `json:"table_max_width"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:                  FormatConsole,
		IncludePersisted:        true,
		IncludeMerged:           false,
		IncludeSkipped:          false,
		IncludeRejected:         true,
		IncludeFailed:           true,
		IncludeFieldDiagnostics: false,
		IncludeErrorSummary:     true,
		UseColors:               true,
		TableMaxWidth:           120,
		CSVDelimiter:            ',',
		CSVHeaders:              true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.TableMaxWidth < 50 {
		return fmt.Errorf("table max width must be at least 50 characters, got %d", c.TableMaxWidth)
	}

	if c.Format == FormatCSV && (c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\n') {
		return fmt.Errorf("invalid CSV delimiter %q", c.CSVDelimiter)
	}

	return nil
}

// includes reports whether outcomes with the given status are listed
func (c *ReportConfig) includes(status ingest.Status) bool {
	switch status {
	case ingest.StatusPersisted:
		return c.IncludePersisted
	case ingest.StatusMerged:
		return c.IncludeMerged
	case ingest.StatusSkipped:
		return c.IncludeSkipped
	case ingest.StatusRejected:
		return c.IncludeRejected
	case ingest.StatusFailed:
		return c.IncludeFailed
	}
	return false
}

// ReportGenerator generates run reports in various formats
type ReportGenerator struct {
	config *ReportConfig

	heading *color.Color
	good    *color.Color
	warn    *color.Color
	bad     *color.Color
	faint   *color.Color
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	rg := &ReportGenerator{config: config}
	rg.setupColors()
	return rg, nil
}

func (rg *ReportGenerator) setupColors() {
	rg.heading = color.New(color.Bold, color.FgCyan)
	rg.good = color.New(color.FgGreen)
	rg.warn = color.New(color.FgYellow)
	rg.bad = color.New(color.FgRed)
	rg.faint = color.New(color.Faint)

	if !rg.config.UseColors {
		for _, c := range []*color.Color{rg.heading, rg.good, rg.warn, rg.bad, rg.faint} {
			c.DisableColor()
		}
	}
}

// GenerateReport writes a report of the run result
func (rg *ReportGenerator) GenerateReport(result *ingest.RunResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("run result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateConsoleReport generates a human-readable console report
func (rg *ReportGenerator) generateConsoleReport(result *ingest.RunResult, writer io.Writer) error {
	ew := &errWriter{w: writer}

	rg.heading.Fprintf(ew, "INGESTION REPORT\n")
	fmt.Fprintf(ew, "Run:      %s\n", result.RunID)
	fmt.Fprintf(ew, "Started:  %s\n", result.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(ew, "Duration: %v\n\n", result.Summary.Duration)

	rg.heading.Fprintf(ew, "=== SUMMARY ===\n")
	rg.printSummary(result.Summary, ew)
	fmt.Fprintf(ew, "\n")

	for _, section := range []struct {
		status ingest.Status
		title  string
	}{
		{ingest.StatusPersisted, "PERSISTED"},
		{ingest.StatusMerged, "MERGED"},
		{ingest.StatusRejected, "REJECTED"},
		{ingest.StatusFailed, "FAILED"},
		{ingest.StatusSkipped, "SKIPPED"},
	} {
		outcomes := result.ByStatus(section.status)
		if !rg.config.includes(section.status) || len(outcomes) == 0 {
			continue
		}
		rg.heading.Fprintf(ew, "=== %s (%d) ===\n", section.title, len(outcomes))
		for _, outcome := range outcomes {
			rg.printOutcome(outcome, ew)
		}
		fmt.Fprintf(ew, "\n")
	}

	if rg.config.IncludeErrorSummary {
		summary := result.ErrorSummary()
		if summary.Total > 0 {
			rg.heading.Fprintf(ew, "=== ERRORS ===\n")
			fmt.Fprintf(ew, "Total: %d\n", summary.Total)
			for _, code := range sortedKeys(summary.ByCode) {
				fmt.Fprintf(ew, "  %-22s %d\n", code, summary.ByCode[code])
			}
			fmt.Fprintf(ew, "\n")
		}
	}

	return ew.err
}

func (rg *ReportGenerator) printSummary(summary ingest.Summary, writer io.Writer) {
	fmt.Fprintf(writer, "Messages:  %d\n", summary.Total)
	rg.good.Fprintf(writer, "  Persisted: %d (%.1f%%)\n", summary.Persisted, percentage(summary.Persisted, summary.Total))
	fmt.Fprintf(writer, "  Merged:    %d (%.1f%%)\n", summary.Merged, percentage(summary.Merged, summary.Total))
	rg.faint.Fprintf(writer, "  Skipped:   %d (%.1f%%)\n", summary.Skipped, percentage(summary.Skipped, summary.Total))
	rg.warn.Fprintf(writer, "  Rejected:  %d (%.1f%%)\n", summary.Rejected, percentage(summary.Rejected, summary.Total))
	rg.bad.Fprintf(writer, "  Failed:    %d (%.1f%%)\n", summary.Failed, percentage(summary.Failed, summary.Total))

	if summary.Enriched > 0 || summary.EnrichmentFailures > 0 {
		fmt.Fprintf(writer, "\nEnrichment:\n")
		fmt.Fprintf(writer, "  Enriched:  %d\n", summary.Enriched)
		fmt.Fprintf(writer, "  Failures:  %d\n", summary.EnrichmentFailures)
	}
}

func (rg *ReportGenerator) printOutcome(outcome *ingest.Outcome, writer io.Writer) {
	line := fmt.Sprintf("  %-24s", outcome.SourceID)

	switch outcome.Status {
	case ingest.StatusPersisted:
		if outcome.Candidate != nil {
			line += " " + candidateLine(outcome)
		}
		rg.good.Fprintln(writer, rg.truncate(line))
	case ingest.StatusMerged:
		line += fmt.Sprintf(" into %s", outcome.StoredID)
		if outcome.Backfilled {
			line += " (raw text back-filled)"
		}
		fmt.Fprintln(writer, rg.truncate(line))
	case ingest.StatusRejected, ingest.StatusFailed:
		line += " " + outcome.Reason
		if outcome.Match != nil {
			line += fmt.Sprintf(" score=%.1f", outcome.Match.Score)
		}
		c := rg.warn
		if outcome.Status == ingest.StatusFailed {
			c = rg.bad
		}
		c.Fprintln(writer, rg.truncate(line))
		if outcome.Err != nil {
			rg.faint.Fprintln(writer, rg.truncate("      "+outcome.Err.Error()))
		}
	default:
		rg.faint.Fprintln(writer, rg.truncate(line+" "+outcome.Reason))
	}

	if outcome.EnrichmentError != nil {
		rg.warn.Fprintln(writer, rg.truncate("      enrichment: "+outcome.EnrichmentError.Error()))
	}

	if rg.config.IncludeFieldDiagnostics && len(outcome.Fields) > 0 {
		rg.printFieldDiagnostics(outcome.Fields, writer, "      ")
	}
}

func candidateLine(outcome *ingest.Outcome) string {
	det := outcome.Candidate.Deterministic()
	amount := "-"
	if det.Amount.Valid {
		amount = det.Amount.Decimal.StringFixed(2)
	}
	return strings.TrimSpace(fmt.Sprintf("%-6s %s %12s  %-10s %q", det.Direction, det.Currency, amount, det.AccountRef, det.Description))
}

func (rg *ReportGenerator) printFieldDiagnostics(fields []extraction.FieldDiagnostic, writer io.Writer, indent string) {
	for _, field := range fields {
		if !field.Present {
			rg.faint.Fprintf(writer, "%s%-12s <absent>\n", indent, field.Field)
			continue
		}
		fmt.Fprintf(writer, "%s%-12s %-30s %s (%d)\n", indent, field.Field, rg.truncateTo(field.Value, 30), field.RuleID, field.Confidence)
	}
}

// WriteFieldDiagnostics writes one extraction result table, or its JSON form
func (rg *ReportGenerator) WriteFieldDiagnostics(fields []extraction.FieldDiagnostic, writer io.Writer) error {
	if rg.config.Format == FormatJSON {
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(fields)
	}

	ew := &errWriter{w: writer}
	rg.heading.Fprintf(ew, "%-12s %-30s %s\n", "FIELD", "VALUE", "RULE (CONFIDENCE)")
	rg.printFieldDiagnostics(fields, ew, "")
	return ew.err
}

// outcomeView is the serialized form of one outcome
type outcomeView struct {
	SourceID        string                       `json:"source_id"`
	ThreadID        string                       `json:"thread_id,omitempty"`
	SenderRule      string                       `json:"sender_rule,omitempty"`
	State           ingest.State                 `json:"state"`
	Status          ingest.Status                `json:"status"`
	Reason          string                       `json:"reason,omitempty"`
	StoredID        string                       `json:"stored_id,omitempty"`
	Backfilled      bool                         `json:"backfilled,omitempty"`
	AccountScore    *float64                     `json:"account_score,omitempty"`
	Enriched        bool                         `json:"enriched,omitempty"`
	Error           string                       `json:"error,omitempty"`
	EnrichmentError string                       `json:"enrichment_error,omitempty"`
	Candidate       interface{}                  `json:"candidate,omitempty"`
	Fields          []extraction.FieldDiagnostic `json:"fields,omitempty"`
	DurationMS      int64                        `json:"duration_ms"`
}

func (rg *ReportGenerator) viewOf(outcome *ingest.Outcome) outcomeView {
	view := outcomeView{
		SourceID:   outcome.SourceID,
		ThreadID:   outcome.ThreadID,
		SenderRule: outcome.SenderRule,
		State:      outcome.State,
		Status:     outcome.Status,
		Reason:     outcome.Reason,
		StoredID:   outcome.StoredID,
		Backfilled: outcome.Backfilled,
		Enriched:   outcome.Enriched,
		DurationMS: outcome.Duration.Milliseconds(),
	}
	if outcome.Match != nil {
		score := outcome.Match.Score
		view.AccountScore = &score
	}
	if outcome.Err != nil {
		view.Error = outcome.Err.Error()
	}
	if outcome.EnrichmentError != nil {
		view.EnrichmentError = outcome.EnrichmentError.Error()
	}
	if outcome.Candidate != nil {
		view.Candidate = *outcome.Candidate
	}
	if rg.config.IncludeFieldDiagnostics {
		view.Fields = outcome.Fields
	}
	return view
}

// generateJSONReport generates a structured JSON report
func (rg *ReportGenerator) generateJSONReport(result *ingest.RunResult, writer io.Writer) error {
	output := map[string]interface{}{
		"run_id":     result.RunID,
		"started_at": result.StartedAt,
		"summary":    result.Summary,
	}

	outcomes := make([]outcomeView, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		if rg.config.includes(outcome.Status) {
			outcomes = append(outcomes, rg.viewOf(outcome))
		}
	}
	output["outcomes"] = outcomes

	if rg.config.IncludeErrorSummary {
		summary := result.ErrorSummary()
		output["errors"] = map[string]interface{}{
			"total":       summary.Total,
			"by_category": summary.ByCategory,
			"by_code":     summary.ByCode,
		}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// generateCSVReport generates one CSV row per listed outcome
func (rg *ReportGenerator) generateCSVReport(result *ingest.RunResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		headers := []string{
			"Source_ID",
			"Thread_ID",
			"Status",
			"State",
			"Reason",
			"Stored_ID",
			"Amount",
			"Currency",
			"Direction",
			"Account",
			"Description",
			"Occurred_At",
			"Enriched",
			"Error",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, outcome := range result.Outcomes {
		if !rg.config.includes(outcome.Status) {
			continue
		}

		record := make([]string, 14)
		record[0] = outcome.SourceID
		record[1] = outcome.ThreadID
		record[2] = string(outcome.Status)
		record[3] = string(outcome.State)
		record[4] = outcome.Reason
		record[5] = outcome.StoredID
		if outcome.Candidate != nil {
			det := outcome.Candidate.Deterministic()
			if det.Amount.Valid {
				record[6] = det.Amount.Decimal.String()
			}
			record[7] = det.Currency
			record[8] = string(det.Direction)
			record[9] = det.AccountRef
			record[10] = det.Description
			if !det.OccurredAt.IsZero() {
				record[11] = det.OccurredAt.Format("2006-01-02 15:04:05")
			}
		}
		record[12] = fmt.Sprintf("%t", outcome.Enriched)
		if outcome.Err != nil {
			record[13] = outcome.Err.Error()
		}

		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write outcome record for %s: %w", outcome.SourceID, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// UpdateConfiguration updates the report generator configuration
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}

	rg.config = config
	rg.setupColors()
	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}

func (rg *ReportGenerator) truncate(line string) string {
	return rg.truncateTo(line, rg.config.TableMaxWidth)
}

func (rg *ReportGenerator) truncateTo(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}

// errWriter keeps the first write error so sections need no checks
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	ew.err = err
	return n, err
}
