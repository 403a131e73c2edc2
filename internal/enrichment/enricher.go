package enrichment

import (
	"context"
	stderrors "errors"
	"time"

	"golang-alert-ingestion-service/internal/matcher"
	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/pkg/errors"
	"golang-alert-ingestion-service/pkg/logger"

	pkgerrors "github.com/pkg/errors"
)

// ErrDisabled is returned by Enrich when no oracle is configured
var ErrDisabled = pkgerrors.New("enrichment disabled")

// Config controls the enricher
type Config struct {
	Enabled bool          `json:"enabled" mapstructure:"enabled"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// DefaultConfig returns a disabled enricher configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled: false,
		Timeout: 30 * time.Second,
	}
}

// Enricher fills the enrichment track of a candidate from oracle output
type Enricher struct {
	oracle   Oracle
	resolver *matcher.Resolver
	config   *Config
	logger   logger.Logger
}

// NewEnricher creates an enricher. A nil oracle or a disabled config gives an
// enricher whose Enrich always returns ErrDisabled.
func NewEnricher(oracle Oracle, resolver *matcher.Resolver, config *Config, log logger.Logger) *Enricher {
	if config == nil {
		config = DefaultConfig()
	}
	if resolver == nil {
		resolver = matcher.NewResolver(nil)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Enricher{
		oracle:   oracle,
		resolver: resolver,
		config:   config,
		logger:   log.WithComponent("enrichment"),
	}
}

// Enabled reports whether Enrich will call the oracle
func (e *Enricher) Enabled() bool {
	return e != nil && e.config.Enabled && e.oracle != nil
}

// Enrich asks the oracle for the alert's fields. The oracle's account text,
// when present, is resolved against the roster and kept only if valid.
func (e *Enricher) Enrich(ctx context.Context, text string, roster []models.AccountRosterEntry) (models.EnrichmentFields, error) {
	if !e.Enabled() {
		return models.EnrichmentFields{}, ErrDisabled
	}

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	raw, err := e.oracle.Complete(ctx, text)
	if err != nil {
		return models.EnrichmentFields{}, pkgerrors.Wrap(err, "oracle call failed")
	}

	response, err := ParseResponse(raw)
	if err != nil {
		return models.EnrichmentFields{}, err
	}

	fields := response.ToFields()
	if response.Account != "" && len(roster) > 0 {
		// The whole field names an account, so its digits count as an identifier
		match := e.resolver.Resolve(roster, "", response.Account)
		if match.Valid {
			fields.AccountRef = match.Account.ID
		} else {
			e.logger.WithField("score", match.Score).Debug("Oracle account did not resolve")
		}
	}

	return fields, nil
}

// ErrorCode classifies an error returned by Enrich
func ErrorCode(err error) errors.ErrorCode {
	switch {
	case stderrors.Is(err, ErrDisabled):
		return errors.CodeOracleDisabled
	case stderrors.Is(err, ErrMalformedResponse):
		return errors.CodeMalformedResponse
	default:
		return errors.CodeOracleUnavailable
	}
}
