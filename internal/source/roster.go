package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/pkg/errors"
	"golang-alert-ingestion-service/pkg/logger"
)

// Standard roster columns
const (
	ColumnID       = "id"
	ColumnName     = "name"
	ColumnNumber   = "number"
	ColumnKeywords = "keywords"
	ColumnAliases  = "aliases"
)

// RosterConfig holds the roster loader options
type RosterConfig struct {
	Parse *ParseConfig

	// ColumnAliases lists extra header spellings per standard column
	ColumnAliases map[string][]string

	// ListSeparator splits the keywords and aliases cells
	ListSeparator string
}

// DefaultRosterConfig returns the default roster configuration
func DefaultRosterConfig() *RosterConfig {
	return &RosterConfig{
		Parse: DefaultParseConfig(),
		ColumnAliases: map[string][]string{
			ColumnID:       {"account_id"},
			ColumnName:     {"account_name"},
			ColumnNumber:   {"account_number", "account_no"},
			ColumnKeywords: {"keyword"},
			ColumnAliases:  {"alias"},
		},
		ListSeparator: ";",
	}
}

// Validate checks the roster configuration
func (c *RosterConfig) Validate() error {
	if c.Parse == nil {
		return fmt.Errorf("parse configuration cannot be nil")
	}
	if c.ListSeparator == "" {
		return fmt.Errorf("list separator cannot be empty")
	}
	if strings.ContainsRune(c.ListSeparator, c.Parse.Delimiter) {
		return fmt.Errorf("list separator %q cannot contain the CSV delimiter", c.ListSeparator)
	}
	return nil
}

// RosterLoader reads the account roster
type RosterLoader struct {
	config *RosterConfig
	logger logger.Logger
}

// NewRosterLoader creates a roster loader. A nil config uses
// DefaultRosterConfig.
func NewRosterLoader(config *RosterConfig) (*RosterLoader, error) {
	if config == nil {
		config = DefaultRosterConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "roster", config.ListSeparator, err)
	}

	return &RosterLoader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("roster_loader"),
	}, nil
}

// Load reads a roster file. Files ending in .json hold an array of entries;
// anything else is read as CSV. Entries with duplicate ids are rejected.
func (l *RosterLoader) Load(ctx context.Context, path string) ([]models.AccountRosterEntry, *ParseStats, error) {
	file, err := openFile(path, l.config.Parse.ValidateEncoding, l.logger)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return l.ReadJSON(ctx, file, path)
	}
	return l.ReadCSV(ctx, file, path)
}

// ReadCSV reads roster entries from CSV with a header row
func (l *RosterLoader) ReadCSV(ctx context.Context, r io.Reader, path string) ([]models.AccountRosterEntry, *ParseStats, error) {
	stats := NewParseStats()

	aliases := make(map[string][]string, 5)
	for _, column := range []string{ColumnID, ColumnName, ColumnNumber, ColumnKeywords, ColumnAliases} {
		aliases[column] = l.config.ColumnAliases[column]
	}

	table, err := newCSVTable(r, path, l.config.Parse, aliases, []string{ColumnID, ColumnName}, l.logger)
	if err != nil {
		return nil, stats, err
	}

	collector := newRosterCollector(l, path, stats)
	for {
		record, err := table.next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if parseErr, ok := err.(*ParseError); ok {
				if err := collector.reject(parseErr); err != nil {
					return nil, stats, err
				}
				continue
			}
			return nil, stats, err
		}

		entry := models.AccountRosterEntry{
			ID:       table.value(record, ColumnID),
			Name:     table.value(record, ColumnName),
			Number:   table.value(record, ColumnNumber),
			Keywords: splitList(table.value(record, ColumnKeywords), l.config.ListSeparator),
			Aliases:  splitList(table.value(record, ColumnAliases), l.config.ListSeparator),
		}
		if err := collector.add(table.line, entry); err != nil {
			return nil, stats, err
		}
	}

	stats.TotalLines = table.line
	return collector.finish()
}

// ReadJSON reads roster entries from a JSON array
func (l *RosterLoader) ReadJSON(ctx context.Context, r io.Reader, path string) ([]models.AccountRosterEntry, *ParseStats, error) {
	stats := NewParseStats()

	var entries []models.AccountRosterEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, stats, errors.SourceError(errors.CodeInvalidFormat, path, 0, err).
			WithSuggestion("The roster JSON must be an array of {id, name, number, keywords, aliases} objects")
	}

	collector := newRosterCollector(l, path, stats)
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		entry.Keywords = trimList(entry.Keywords)
		entry.Aliases = trimList(entry.Aliases)
		if err := collector.add(i+1, entry); err != nil {
			return nil, stats, err
		}
	}

	stats.TotalLines = len(entries)
	return collector.finish()
}

// rosterCollector validates entries and tracks ids across one load
type rosterCollector struct {
	loader  *RosterLoader
	path    string
	stats   *ParseStats
	seen    map[string]int
	entries []models.AccountRosterEntry
}

func newRosterCollector(l *RosterLoader, path string, stats *ParseStats) *rosterCollector {
	return &rosterCollector{
		loader: l,
		path:   path,
		stats:  stats,
		seen:   make(map[string]int),
	}
}

func (c *rosterCollector) add(line int, entry models.AccountRosterEntry) error {
	c.stats.RecordsParsed++

	entry.ID = strings.TrimSpace(entry.ID)
	entry.Name = strings.TrimSpace(entry.Name)
	entry.Number = strings.TrimSpace(entry.Number)

	if err := entry.Validate(); err != nil {
		return c.reject(&ParseError{Line: line, Field: "entry", Value: entry.ID, Message: "invalid roster entry", Err: err})
	}
	if first, ok := c.seen[entry.ID]; ok {
		return c.reject(&ParseError{Line: line, Field: ColumnID, Value: entry.ID,
			Message: fmt.Sprintf("duplicate account id (first seen at line %d)", first)})
	}

	c.seen[entry.ID] = line
	c.entries = append(c.entries, entry)
	c.stats.RecordsValid++
	return nil
}

func (c *rosterCollector) reject(parseErr *ParseError) error {
	c.stats.AddError(parseErr)
	c.loader.logger.WithFields(logger.Fields{
		"line":  parseErr.Line,
		"field": parseErr.Field,
	}).Warn("Skipping roster record")

	if c.loader.config.Parse.Strict {
		return errors.SourceError(errors.CodeInvalidFormat, c.path, parseErr.Line, parseErr)
	}
	return nil
}

func (c *rosterCollector) finish() ([]models.AccountRosterEntry, *ParseStats, error) {
	c.loader.logger.WithFields(logger.Fields{
		"file":     c.path,
		"accounts": len(c.entries),
		"errors":   c.stats.ErrorCount,
	}).Info("Loaded account roster")
	return c.entries, c.stats, nil
}

func splitList(cell, separator string) []string {
	if cell == "" {
		return nil
	}
	return trimList(strings.Split(cell, separator))
}

func trimList(values []string) []string {
	var result []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
