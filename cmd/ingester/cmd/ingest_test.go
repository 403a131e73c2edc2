package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang-alert-ingestion-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	return path
}

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := writeFile(t, tmpDir, "valid.jsonl", "{}")

	tests := []struct {
		name        string
		filePath    string
		expectError bool
	}{
		{"valid file", validFile, false},
		{"empty path", "", true},
		{"non-existent file", "/non/existent/file.jsonl", true},
		{"directory instead of file", tmpDir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, "test file")

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	if err := validateFileExists("/non/existent/file.jsonl", "test file"); !errors.IsCode(err, errors.CodeFileNotFound) {
		t.Errorf("missing file should be a file_not_found error, got %v", err)
	}
}

func TestValidateIngestFlags(t *testing.T) {
	tmpDir := t.TempDir()
	messages := writeFile(t, tmpDir, "inbox.jsonl", `{"source_id": "m-1", "body_text": "Rs.500 debited"}`)
	roster := writeFile(t, tmpDir, "accounts.csv", "id,name\na1,HDFC Savings\n")

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name: "valid flags",
			setupFlags: func() {
				viper.Set("messages", messages)
				viper.Set("roster", roster)
				viper.Set("output-format", "console")
			},
		},
		{
			name: "missing messages",
			setupFlags: func() {
				viper.Set("roster", roster)
			},
			expectError:   true,
			errorContains: "messages is required",
		},
		{
			name: "missing roster",
			setupFlags: func() {
				viper.Set("messages", messages)
			},
			expectError:   true,
			errorContains: "roster is required",
		},
		{
			name: "missing rules file",
			setupFlags: func() {
				viper.Set("messages", messages)
				viper.Set("roster", roster)
				viper.Set("output-format", "console")
				viper.Set("rules-file", filepath.Join(tmpDir, "senders.yaml"))
			},
			expectError:   true,
			errorContains: "senders.yaml",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				viper.Set("messages", messages)
				viper.Set("roster", roster)
				viper.Set("output-format", "xml")
			},
			expectError:   true,
			errorContains: "invalid output format",
		},
		{
			name: "threshold out of range",
			setupFlags: func() {
				viper.Set("messages", messages)
				viper.Set("roster", roster)
				viper.Set("output-format", "json")
				viper.Set("threshold", 150.0)
			},
			expectError:   true,
			errorContains: "threshold must be between 0 and 100",
		},
		{
			name: "enrich without model",
			setupFlags: func() {
				viper.Set("messages", messages)
				viper.Set("roster", roster)
				viper.Set("output-format", "json")
				viper.Set("enrich", true)
				viper.Set("gemini-model", " ")
			},
			expectError:   true,
			errorContains: "gemini-model cannot be empty",
		},
		{
			name: "missing output directory",
			setupFlags: func() {
				viper.Set("messages", messages)
				viper.Set("roster", roster)
				viper.Set("output-format", "csv")
				viper.Set("output-file", filepath.Join(tmpDir, "missing", "report.csv"))
			},
			expectError:   true,
			errorContains: "output directory does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()
			tt.setupFlags()

			err := validateIngestFlags(&cobra.Command{}, []string{})

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain '%s', got: %v", tt.errorContains, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRunIngest(t *testing.T) {
	tmpDir := t.TempDir()
	messages := writeFile(t, tmpDir, "inbox.jsonl", strings.Join([]string{
		`{"source_id": "m-1", "thread_id": "t-1", "received_at": "2024-03-12T10:00:00Z", "body_text": "Rs.500 debited from a/c 501000123456 on 12-03-24 at Amazon"}`,
		`{"source_id": "m-2", "thread_id": "t-1", "received_at": "2024-03-12T10:05:00Z", "body_text": "Rs.500 debited from a/c 501000123456 on 12-03-24 at Amazon"}`,
		`{"source_id": "m-3", "thread_id": "t-3", "received_at": "2024-03-12T11:00:00Z", "body_text": "Your statement is ready"}`,
	}, "\n"))
	roster := writeFile(t, tmpDir, "accounts.csv", "id,name,number\na1,HDFC Savings,5010-0012-3456\na2,ICICI Credit Card,4111111111119876\n")
	output := filepath.Join(tmpDir, "run.json")

	viper.Reset()
	defer viper.Reset()
	viper.Set("messages", messages)
	viper.Set("roster", roster)
	viper.Set("sender", "generic-inr")
	viper.Set("output-format", "json")
	viper.Set("output-file", output)

	if err := validateIngestFlags(&cobra.Command{}, nil); err != nil {
		t.Fatalf("validateIngestFlags() error = %v", err)
	}
	if err := runIngest(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runIngest() error = %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("expected report file: %v", err)
	}

	var report struct {
		Summary struct {
			Total     int `json:"total"`
			Persisted int `json:"persisted"`
			Merged    int `json:"merged"`
			Rejected  int `json:"rejected"`
		} `json:"summary"`
		Outcomes []struct {
			SourceID string `json:"source_id"`
			Status   string `json:"status"`
			Reason   string `json:"reason"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report should be valid JSON: %v", err)
	}

	if report.Summary.Total != 3 {
		t.Errorf("total = %d, want 3", report.Summary.Total)
	}
	if report.Summary.Persisted != 1 || report.Summary.Merged != 1 || report.Summary.Rejected != 1 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
	if len(report.Outcomes) != 3 || report.Outcomes[2].Reason != "no_amount" {
		t.Errorf("unexpected outcomes: %+v", report.Outcomes)
	}
}

func TestRunIngest_UnknownSender(t *testing.T) {
	tmpDir := t.TempDir()

	viper.Reset()
	defer viper.Reset()
	viper.Set("messages", writeFile(t, tmpDir, "inbox.jsonl", `{"source_id": "m-1", "body_text": "Rs.1 debited"}`))
	viper.Set("roster", writeFile(t, tmpDir, "accounts.csv", "id,name\na1,HDFC Savings\n"))
	viper.Set("output-format", "console")
	viper.Set("sender", "no-such-bank")

	if err := validateIngestFlags(&cobra.Command{}, nil); err != nil {
		t.Fatalf("validateIngestFlags() error = %v", err)
	}

	err := runIngest(&cobra.Command{}, nil)
	if !errors.IsCode(err, errors.CodeInvalidConfig) {
		t.Fatalf("expected invalid config error, got %v", err)
	}
	if ingestErr, _ := errors.AsIngestError(err); !strings.Contains(ingestErr.Suggestion, "hdfc-upi-debit") {
		t.Errorf("suggestion should list known rules, got %q", ingestErr.Suggestion)
	}
}

func TestIngestCommandHelp(t *testing.T) {
	cmd := ingestCmd

	for _, name := range []string{"messages", "roster", "sender", "rules-file", "enrich", "gemini-model", "threshold", "output-format", "output-file", "progress"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("%s flag not found", name)
		}
	}

	var helpOutput bytes.Buffer
	cmd.SetOut(&helpOutput)
	defer cmd.SetOut(nil)
	cmd.Help()

	helpText := helpOutput.String()
	for _, section := range []string{"Usage:", "Examples:", "Flags:", "--messages", "--roster", "--enrich"} {
		if !strings.Contains(helpText, section) {
			t.Errorf("help text should contain '%s'", section)
		}
	}
}

func TestExtractCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"extract", "--from", "alerts@hdfcbank.net", "--subject", "You have done a UPI txn",
		"Rs.500 debited from a/c **3456 to VPA shop@okaxis on 12-03-24"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		extractFrom, extractSubject = "", ""
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("extract error = %v", err)
	}

	output := out.String()
	for _, want := range []string{"Sender rule: hdfc-upi-debit", "FIELD", "amount", "500"} {
		if !strings.Contains(output, want) {
			t.Errorf("extract output missing %q:\n%s", want, output)
		}
	}
}

func TestReadAlertBody(t *testing.T) {
	file := writeFile(t, t.TempDir(), "alert.txt", "INR 20 credited")

	tests := []struct {
		name        string
		args        []string
		file        string
		want        string
		expectError bool
	}{
		{"argument", []string{"Rs.5 debited"}, "", "Rs.5 debited", false},
		{"file", nil, file, "INR 20 credited", false},
		{"both", []string{"x"}, file, "", true},
		{"neither", nil, "", "", true},
		{"missing file", nil, file + ".missing", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readAlertBody(tt.args, tt.file)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("readAlertBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRulesCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"rules"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("rules error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if !strings.HasPrefix(lines[0], "NAME") {
		t.Errorf("expected header line, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "hdfc-upi-debit") || !strings.HasPrefix(lines[len(lines)-1], "generic-inr") {
		t.Errorf("rules should be listed in match order:\n%s", out.String())
	}
}

func TestCLIErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		contains string
	}{
		{"nil error", nil, 0, ""},
		{"cancelled", fmt.Errorf("run: %w", context.Canceled), exitInterrupted, "Interrupted"},
		{"source error", errors.SourceError(errors.CodeFileNotFound, "inbox.jsonl", 0, os.ErrNotExist), 2, "Input file help"},
		{"configuration error", errors.ConfigurationError(errors.CodeInvalidConfig, "sender", "x", nil).WithSuggestion("Pick a rule"), 4, "Suggestion: Pick a rule"},
		{"file not found", os.ErrNotExist, 2, "File not found"},
		{"generic error", fmt.Errorf("boom"), 1, "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			handler := NewCLIErrorHandler()
			handler.out = &out

			if code := handler.HandleError(tt.err); code != tt.wantCode {
				t.Errorf("HandleError() = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(out.String(), tt.contains) {
				t.Errorf("output should contain %q, got:\n%s", tt.contains, out.String())
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	SetVersionInfo("1.2.0", "abc123", "2024-03-12")
	defer SetVersionInfo("dev", "unknown", "unknown")

	if rootCmd.Version != "1.2.0" {
		t.Errorf("version = %q, want 1.2.0", rootCmd.Version)
	}

	SetVersionInfo("dev", "abc123", "today")
	if !strings.Contains(rootCmd.Version, "commit abc123") {
		t.Errorf("dev version should include the commit, got %q", rootCmd.Version)
	}
}

func TestRunIngest_Fixtures(t *testing.T) {
	output := filepath.Join(t.TempDir(), "run.json")

	viper.Reset()
	defer viper.Reset()
	viper.Set("messages", filepath.Join("testdata", "inbox.jsonl"))
	viper.Set("roster", filepath.Join("testdata", "accounts.csv"))
	viper.Set("rules-file", filepath.Join("testdata", "senders.yaml"))
	viper.Set("output-format", "json")
	viper.Set("output-file", output)

	if err := validateIngestFlags(&cobra.Command{}, nil); err != nil {
		t.Fatalf("validateIngestFlags() error = %v", err)
	}
	if err := runIngest(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runIngest() error = %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("expected report file: %v", err)
	}

	var report struct {
		Summary struct {
			Total     int `json:"total"`
			Persisted int `json:"persisted"`
			Merged    int `json:"merged"`
			Rejected  int `json:"rejected"`
			Skipped   int `json:"skipped"`
		} `json:"summary"`
		Outcomes []struct {
			SourceID   string `json:"source_id"`
			SenderRule string `json:"sender_rule"`
			Status     string `json:"status"`
			Reason     string `json:"reason"`
			Candidate  struct {
				AccountRef string `json:"account_ref"`
			} `json:"candidate"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report should be valid JSON: %v", err)
	}

	if report.Summary.Total != 5 || report.Summary.Persisted != 2 || report.Summary.Merged != 1 ||
		report.Summary.Rejected != 1 || report.Summary.Skipped != 1 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}

	byID := make(map[string]int, len(report.Outcomes))
	for i, outcome := range report.Outcomes {
		byID[outcome.SourceID] = i
	}

	upi := report.Outcomes[byID["18e1a0c2f4b7d001"]]
	if upi.SenderRule != "hdfc-upi-debit" || upi.Candidate.AccountRef != "hdfc-sav" {
		t.Errorf("UPI alert: rule %q, account %q", upi.SenderRule, upi.Candidate.AccountRef)
	}
	card := report.Outcomes[byID["18e1a0c2f4b7d003"]]
	if card.Status != "persisted" || card.Candidate.AccountRef != "icici-cc" {
		t.Errorf("card alert: status %q, account %q", card.Status, card.Candidate.AccountRef)
	}
	statement := report.Outcomes[byID["18e1a0c2f4b7d004"]]
	if statement.Status != "skipped" || statement.Reason != "no_sender_rule" {
		t.Errorf("statement notice: status %q, reason %q", statement.Status, statement.Reason)
	}
	wallet := report.Outcomes[byID["18e1a0c2f4b7d005"]]
	if wallet.SenderRule != "paytm-wallet" || wallet.Reason != "account_unresolved" {
		t.Errorf("wallet alert: rule %q, reason %q", wallet.SenderRule, wallet.Reason)
	}
}
