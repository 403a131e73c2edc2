package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{"default", *DefaultConfig(), false},
		{"debug", *DebugConfig(), false},
		{"bad level", Config{Level: "trace", Format: TextFormat, Output: StderrOutput}, true},
		{"bad format", Config{Level: InfoLevel, Format: "xml", Output: StderrOutput}, true},
		{"bad output", Config{Level: InfoLevel, Format: TextFormat, Output: "syslog"}, true},
		{"file without path", Config{Level: InfoLevel, Format: TextFormat, Output: FileOutput}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestLogger_FieldsSurviveChaining(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, DebugLevel)

	log.WithComponent("pipeline").WithField("source_id", "m-1").Info("processed")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "pipeline" {
		t.Errorf("expected component 'pipeline', got %v", line["component"])
	}
	if line["source_id"] != "m-1" {
		t.Errorf("expected source_id 'm-1', got %v", line["source_id"])
	}
	if line["msg"] != "processed" {
		t.Errorf("expected msg 'processed', got %v", line["msg"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, WarnLevel)

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn line should be written at warn level")
	}
}

func TestProgressTracker_Stats(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := start
	tracker := NewProgressTracker(ProgressConfig{
		Operation:   "ingest",
		Total:       4,
		LogInterval: time.Hour,
		Logger:      Discard(),
		Now:         func() time.Time { return clock },
	})

	tracker.Increment()
	tracker.Increment()
	clock = start.Add(2 * time.Second)

	stats := tracker.GetStats()
	if stats.Current != 2 {
		t.Errorf("expected current 2, got %d", stats.Current)
	}
	if stats.Percentage != 50 {
		t.Errorf("expected 50%%, got %.1f", stats.Percentage)
	}
	if stats.Rate != 1 {
		t.Errorf("expected rate 1/sec, got %.2f", stats.Rate)
	}
	if !strings.Contains(stats.String(), "ingest: 2/4") {
		t.Errorf("unexpected stats string %q", stats.String())
	}
}
