package ingest

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the pipeline options
type Config struct {
	// RequireAmount rejects candidates with no extracted amount
	RequireAmount bool `json:"require_amount" mapstructure:"require_amount"`

	// EnableEnrichment runs the enrichment pass when an enricher is available
	EnableEnrichment bool `json:"enable_enrichment" mapstructure:"enable_enrichment"`

	// DescriptionPlaceholder fills an empty deterministic description
	DescriptionPlaceholder string `json:"description_placeholder" mapstructure:"description_placeholder"`

	// EnrichmentTimeout bounds one oracle call; zero means no extra bound
	EnrichmentTimeout time.Duration `json:"enrichment_timeout" mapstructure:"enrichment_timeout"`

	// ProgressInterval is how often progress is logged during a run
	ProgressInterval time.Duration `json:"progress_interval" mapstructure:"progress_interval"`
}

// DefaultConfig returns a default configuration for the pipeline
func DefaultConfig() *Config {
	return &Config{
		RequireAmount:          true,
		EnableEnrichment:       false,
		DescriptionPlaceholder: "Unknown",
		EnrichmentTimeout:      30 * time.Second,
		ProgressInterval:       5 * time.Second,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DescriptionPlaceholder) == "" {
		return fmt.Errorf("description placeholder cannot be empty")
	}

	if c.EnrichmentTimeout < 0 {
		return fmt.Errorf("enrichment timeout cannot be negative, got %s", c.EnrichmentTimeout)
	}

	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress interval cannot be negative, got %s", c.ProgressInterval)
	}

	return nil
}
