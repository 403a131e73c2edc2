package source

import (
	"bufio"
	"bytes"
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

// maxLineSize bounds one JSON Lines record; HTML alert bodies run large
const maxLineSize = 4 * 1024 * 1024

// MessageConfig holds the message loader options
type MessageConfig struct {
	ValidateEncoding bool
	Strict           bool
}

// DefaultMessageConfig returns the default message loader configuration
func DefaultMessageConfig() *MessageConfig {
	return &MessageConfig{
		ValidateEncoding: true,
	}
}

// MessageLoader reads raw notification messages
type MessageLoader struct {
	config *MessageConfig
	logger logger.Logger
}

// NewMessageLoader creates a message loader. A nil config uses
// DefaultMessageConfig.
func NewMessageLoader(config *MessageConfig) *MessageLoader {
	if config == nil {
		config = DefaultMessageConfig()
	}
	return &MessageLoader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("message_loader"),
	}
}

// Load reads a message file. Files ending in .json hold one array of
// messages; anything else is read as JSON Lines, one message per line.
func (l *MessageLoader) Load(ctx context.Context, path string) ([]models.RawMessage, *ParseStats, error) {
	file, err := openFile(path, l.config.ValidateEncoding, l.logger)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	var (
		messages []models.RawMessage
		stats    *ParseStats
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		messages, stats, err = l.ReadJSON(ctx, file, path)
	} else {
		messages, stats, err = l.ReadJSONLines(ctx, file, path)
	}
	if err != nil {
		return nil, stats, err
	}

	l.logger.WithFields(logger.Fields{
		"file":     path,
		"messages": len(messages),
		"errors":   stats.ErrorCount,
	}).Info("Loaded messages")
	return messages, stats, nil
}

// ReadJSONLines reads one message per line. Blank lines are ignored.
func (l *MessageLoader) ReadJSONLines(ctx context.Context, r io.Reader, path string) ([]models.RawMessage, *ParseStats, error) {
	stats := NewParseStats()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var messages []models.RawMessage
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		line++

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		stats.RecordsParsed++

		var msg models.RawMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := l.reject(stats, path, &ParseError{Line: line, Field: "record", Message: "invalid JSON", Err: err}); err != nil {
				return nil, stats, err
			}
			continue
		}
		if err := msg.Validate(); err != nil {
			if err := l.reject(stats, path, &ParseError{Line: line, Field: "source_id", Message: "invalid message", Err: err}); err != nil {
				return nil, stats, err
			}
			continue
		}

		messages = append(messages, msg)
		stats.RecordsValid++
	}

	if err := scanner.Err(); err != nil {
		return nil, stats, errors.SourceError(errors.CodeInvalidFormat, path, line+1, err).
			WithSuggestion(fmt.Sprintf("Records must be under %d bytes per line", maxLineSize))
	}

	stats.TotalLines = line
	return messages, stats, nil
}

// ReadJSON reads a JSON array of messages
func (l *MessageLoader) ReadJSON(ctx context.Context, r io.Reader, path string) ([]models.RawMessage, *ParseStats, error) {
	stats := NewParseStats()

	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, stats, errors.SourceError(errors.CodeInvalidFormat, path, 0, err).
			WithSuggestion("A .json message file must hold an array; use .jsonl for one message per line")
	}

	messages := make([]models.RawMessage, 0, len(records))
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.RecordsParsed++

		var msg models.RawMessage
		err := json.Unmarshal(record, &msg)
		if err == nil {
			err = msg.Validate()
		}
		if err != nil {
			if err := l.reject(stats, path, &ParseError{Line: i + 1, Field: "record", Message: "invalid message", Err: err}); err != nil {
				return nil, stats, err
			}
			continue
		}

		messages = append(messages, msg)
		stats.RecordsValid++
	}

	stats.TotalLines = len(records)
	return messages, stats, nil
}

func (l *MessageLoader) reject(stats *ParseStats, path string, parseErr *ParseError) error {
	stats.AddError(parseErr)
	l.logger.WithFields(logger.Fields{
		"line":  parseErr.Line,
		"field": parseErr.Field,
	}).Warn("Skipping message record")

	if l.config.Strict {
		return errors.SourceError(errors.CodeInvalidFormat, path, parseErr.Line, parseErr)
	}
	return nil
}
