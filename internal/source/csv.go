// Package source loads run inputs from disk: notification messages from
// JSON Lines or JSON files, and the account roster from CSV or JSON.
//
// Loaders are lenient by default. A bad record is counted in ParseStats and
// skipped, so one malformed line does not cost the whole batch. Strict mode
// fails on the first bad record instead. Missing files, unreadable encodings
// and a roster without id/name columns always fail.
//
// Example usage:
//
//	messages, stats, err := source.NewMessageLoader(nil).Load(ctx, "inbox.jsonl")
//
//	loader, err := source.NewRosterLoader(nil)
//	roster, _, err := loader.Load(ctx, "accounts.csv")
package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang-alert-ingestion-service/pkg/errors"
	"golang-alert-ingestion-service/pkg/logger"
)

// ParseError is one rejected record
type ParseError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d (%s='%s'): %s: %v", e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d (%s='%s'): %s", e.Line, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseStats holds statistics about one load
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	ErrorCount    int
	Errors        []*ParseError
}

// NewParseStats creates a new ParseStats instance
func NewParseStats() *ParseStats {
	return &ParseStats{
		Errors: make([]*ParseError, 0),
	}
}

// AddError adds an error to the statistics
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Errors = append(ps.Errors, err)
	ps.ErrorCount++
}

// HasErrors returns true if any record was rejected
func (ps *ParseStats) HasErrors() bool {
	return ps.ErrorCount > 0
}

// String returns a human-readable summary of the statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d valid), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, ps.ErrorCount)
}

// GetSampleErrors returns up to maxSamples error messages
func (ps *ParseStats) GetSampleErrors(maxSamples int) []string {
	n := len(ps.Errors)
	if n > maxSamples {
		n = maxSamples
	}
	samples := make([]string, 0, n)
	for _, err := range ps.Errors[:n] {
		samples = append(samples, err.Error())
	}
	return samples
}

// ParseConfig holds the CSV reader options
type ParseConfig struct {
	Delimiter        rune
	Comment          rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	ValidateEncoding bool

	// Strict fails the load on the first rejected record
	Strict bool
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		Delimiter:        ',',
		Comment:          '#',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	}
}

// csvTable is an opened CSV file with its header resolved
type csvTable struct {
	path    string
	reader  *csv.Reader
	headers []string
	columns map[string]int
	line    int
	config  *ParseConfig
	logger  logger.Logger
}

// openFile opens a file after an optional UTF-8 check of its first lines
func openFile(path string, validateEncoding bool, log logger.Logger) (*os.File, error) {
	log.WithField("file_path", path).Debug("Opening input file")

	file, err := os.Open(path)
	if err != nil {
		log.WithError(err).WithField("file_path", path).Error("Failed to open input file")
		if os.IsNotExist(err) {
			return nil, errors.SourceError(errors.CodeFileNotFound, path, 0, err)
		}
		return nil, errors.SourceError(errors.CodeInvalidFormat, path, 0, err)
	}

	if validateEncoding {
		if err := validateEncodingOf(file, path); err != nil {
			file.Close()
			return nil, err
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close()
			return nil, errors.SourceError(errors.CodeInvalidFormat, path, 0, err)
		}
	}

	return file, nil
}

// validateEncodingOf checks the first 100 lines for valid UTF-8
func validateEncodingOf(file *os.File, path string) error {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNum := 0

	for scanner.Scan() && lineNum < 100 {
		lineNum++
		if !utf8.Valid(scanner.Bytes()) {
			return errors.SourceError(errors.CodeInvalidFormat, path, lineNum, fmt.Errorf("invalid UTF-8 encoding detected")).
				WithSuggestion("Save the file in UTF-8 encoding and try again")
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.SourceError(errors.CodeInvalidFormat, path, lineNum, err)
	}
	return nil
}

// newCSVTable reads the header row and checks the required columns.
// aliases maps a standard column name to the header spellings accepted for it.
func newCSVTable(r io.Reader, path string, config *ParseConfig, aliases map[string][]string, required []string, log logger.Logger) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.Comma = config.Delimiter
	reader.Comment = config.Comment
	reader.TrimLeadingSpace = config.TrimLeadingSpace
	reader.FieldsPerRecord = -1

	table := &csvTable{
		path:    path,
		reader:  reader,
		columns: make(map[string]int),
		config:  config,
		logger:  log,
	}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.SourceError(errors.CodeInvalidFormat, path, 0, fmt.Errorf("file is empty")).
				WithSuggestion("Ensure the file contains a header row and data rows")
		}
		return nil, errors.SourceError(errors.CodeInvalidFormat, path, 1, err)
	}
	table.line++

	table.headers = make([]string, len(headers))
	for i, header := range headers {
		table.headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	for standard, spellings := range aliases {
		for _, spelling := range append([]string{standard}, spellings...) {
			if idx := indexOfHeader(table.headers, spelling); idx >= 0 {
				table.columns[standard] = idx
				break
			}
		}
	}

	var missing []string
	for _, name := range required {
		if _, ok := table.columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		log.WithFields(logger.Fields{
			"missing_headers":   missing,
			"available_headers": table.headers,
		}).Error("Required headers are missing")
		return nil, errors.SourceError(errors.CodeMissingColumn, path, 1, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))).
			WithSuggestion(fmt.Sprintf("Ensure the CSV file contains these headers: %s", strings.Join(missing, ", ")))
	}

	log.WithField("headers", table.headers).Debug("Successfully read headers")
	return table, nil
}

func indexOfHeader(headers []string, name string) int {
	for i, header := range headers {
		if strings.EqualFold(header, name) {
			return i
		}
	}
	return -1
}

// next returns the next non-empty record, or io.EOF
func (t *csvTable) next(ctx context.Context) ([]string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := t.reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			t.line++
			return nil, &ParseError{Line: t.line, Field: "record", Message: "malformed CSV record", Err: err}
		}
		t.line++

		if t.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}
		return record, nil
	}
}

// value returns the trimmed cell of a standard column, or "" when the column
// is absent or the record is short
func (t *csvTable) value(record []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
