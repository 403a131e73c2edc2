// Package enrichment runs the optional second pass that asks an external
// model to re-derive transaction fields from the normalized alert text.
// Its output only ever fills the enrichment track of a candidate.
package enrichment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

//go:generate mockgen -source=oracle.go -destination=mocks/oracle_mock.go -package=mocks

// DefaultModelName is the default Gemini model used for enrichment.
const DefaultModelName = "gemini-2.5-flash"

// Oracle returns the raw model response for one normalized alert
type Oracle interface {
	Complete(ctx context.Context, normalizedText string) (string, error)
}

// GeminiConfig configures the Gemini oracle
type GeminiConfig struct {
	Model   string        `json:"model" mapstructure:"model"`
	APIKey  string        `json:"-" mapstructure:"api_key"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// DefaultGeminiConfig returns the default oracle settings. An empty API key
// lets the client read GEMINI_API_KEY or GOOGLE_API_KEY from the environment.
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		Model:   DefaultModelName,
		Timeout: 20 * time.Second,
	}
}

// Validate checks if the oracle configuration is valid
func (c *GeminiConfig) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("gemini model cannot be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("gemini timeout cannot be negative: %s", c.Timeout)
	}
	return nil
}

// GeminiOracle implements Oracle with the Gemini API
type GeminiOracle struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiOracle creates a Gemini client
func NewGeminiOracle(ctx context.Context, config *GeminiConfig) (*GeminiOracle, error) {
	if config == nil {
		config = DefaultGeminiConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiOracle{
		client:  client,
		model:   config.Model,
		timeout: config.Timeout,
	}, nil
}

// Complete implements Oracle
func (o *GeminiOracle) Complete(ctx context.Context, normalizedText string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: BuildPrompt(normalizedText)},
			},
		},
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from model %s", o.model)
	}
	return text, nil
}

const promptHeader = "You extract one financial transaction from a bank or merchant alert.\n\n" +
	"Output STRICT JSON only: a single object with these fields:\n" +
	"- \"amount\": number, the transaction amount without currency symbols\n" +
	"- \"description\": string, the merchant or counterparty\n" +
	"- \"type\": \"DEBIT\" or \"CREDIT\"\n" +
	"- \"account\": string, the account or card named in the alert, or null\n" +
	"- \"currency\": string, ISO 4217 code (e.g. \"INR\")\n" +
	"- \"category\": string, a short spending category, or null\n\n" +
	"Rules:\n" +
	"- Do not guess values that are not in the alert; use null instead.\n" +
	"- Do NOT wrap the response in code fences.\n\n" +
	"Alert:\n"

// BuildPrompt returns the instruction sent with an alert
func BuildPrompt(normalizedText string) string {
	return promptHeader + normalizedText
}
