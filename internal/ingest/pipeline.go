// Package ingest sequences the per-message stages of an ingestion run.
//
// Each message moves through
//
//	Normalized -> BasicsExtracted -> DedupChecked -> {Merged | AccountResolved} -> Enriched -> HandedOff
//
// and ends with exactly one Outcome. Failures are local to the message: a
// bad message is recorded and the run moves on. Only a cancelled context or
// an unusable run input stops a run early.
//
// Example usage:
//
//	pipeline, err := ingest.NewPipeline(ingest.Dependencies{Store: store.NewMemoryStore()}, nil)
//	pipeline.AddProgressCallback(func(p *ingest.Progress) {
//		fmt.Printf("%.1f%% %s\n", p.PercentComplete, p.CurrentID)
//	})
//
//	result, err := pipeline.Run(ctx, ingest.RunInput{Messages: messages, Roster: roster})
package ingest

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang-alert-ingestion-service/internal/dedup"
	"golang-alert-ingestion-service/internal/enrichment"
	"golang-alert-ingestion-service/internal/extraction"
	"golang-alert-ingestion-service/internal/matcher"
	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/internal/normalizer"
	"golang-alert-ingestion-service/internal/rules"
	"golang-alert-ingestion-service/internal/store"
	"golang-alert-ingestion-service/pkg/errors"
	"golang-alert-ingestion-service/pkg/logger"

	"github.com/google/uuid"
)

// Dependencies are the components a pipeline sequences. Only Store is
// required; the rest default to their standard configuration.
type Dependencies struct {
	Normalizer *normalizer.Normalizer
	Extractor  *extraction.Extractor
	Rules      *rules.Registry
	Resolver   *matcher.Resolver
	Gate       *dedup.Gate
	Store      store.TransactionStore
	Enricher   *enrichment.Enricher
	Logger     logger.Logger
}

// RunInput is one batch of messages with the roster to resolve against.
// When Sender is set it applies to every message; otherwise each message is
// matched against the registry by From and Subject.
type RunInput struct {
	Messages []models.RawMessage
	Roster   []models.AccountRosterEntry
	Sender   *models.SenderRule
}

// Pipeline is the only component of the ingestion service with side effects
type Pipeline struct {
	normalizer *normalizer.Normalizer
	extractor  *extraction.Extractor
	rules      *rules.Registry
	resolver   *matcher.Resolver
	gate       *dedup.Gate
	store      store.TransactionStore
	enricher   *enrichment.Enricher
	config     *Config
	logger     logger.Logger

	progressCallbacks []ProgressCallback
	progressMutex     sync.RWMutex

	now func() time.Time
}

// runState is shared by every message of one run
type runState struct {
	id     string
	input  RunInput
	sender *extraction.Extractor
	index  *matcher.RosterIndex
	logger logger.Logger
}

// NewPipeline creates a pipeline
func NewPipeline(deps Dependencies, config *Config) (*Pipeline, error) {
	if deps.Store == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "store", nil, nil).
			WithSuggestion("Provide a TransactionStore implementation")
	}

	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "pipeline", config.DescriptionPlaceholder, err)
	}

	log := deps.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	p := &Pipeline{
		normalizer: deps.Normalizer,
		extractor:  deps.Extractor,
		rules:      deps.Rules,
		resolver:   deps.Resolver,
		gate:       deps.Gate,
		store:      deps.Store,
		enricher:   deps.Enricher,
		config:     config,
		logger:     log.WithComponent("pipeline"),
		now:        time.Now,
	}

	if p.normalizer == nil {
		p.normalizer = normalizer.New(nil)
	}
	if p.extractor == nil {
		extractor, err := extraction.NewExtractor(nil)
		if err != nil {
			return nil, err
		}
		p.extractor = extractor
	}
	if p.rules == nil {
		p.rules = rules.DefaultRegistry()
	}
	if p.resolver == nil {
		p.resolver = matcher.NewResolver(nil)
	}
	if p.gate == nil {
		p.gate = dedup.NewGate(p.store, log)
	}

	if config.EnableEnrichment && !p.enricher.Enabled() {
		p.logger.Warn("Enrichment requested but no enabled enricher is configured; continuing without it")
	}

	p.logger.WithFields(logger.Fields{
		"sender_rules":       p.rules.Len(),
		"require_amount":     config.RequireAmount,
		"enrichment_enabled": p.enrichmentEnabled(),
	}).Debug("Pipeline created")

	return p, nil
}

// GetConfiguration returns the current configuration
func (p *Pipeline) GetConfiguration() *Config {
	return p.config
}

func (p *Pipeline) enrichmentEnabled() bool {
	return p.config.EnableEnrichment && p.enricher.Enabled()
}

// Run processes every message in order. On cancellation it returns the
// outcomes gathered so far together with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, input RunInput) (*RunResult, error) {
	run := &runState{
		id:    uuid.New().String(),
		input: input,
		index: matcher.NewRosterIndex(input.Roster, p.resolver.Config.SuffixLength),
	}
	run.logger = p.logger.WithField("run_id", run.id)

	if input.Sender != nil {
		sender, err := p.extractor.ForSender(input.Sender)
		if err != nil {
			return nil, err
		}
		run.sender = sender
	}

	startTime := p.now()
	result := &RunResult{
		RunID:     run.id,
		StartedAt: startTime,
		Outcomes:  make([]*Outcome, 0, len(input.Messages)),
	}

	run.logger.WithFields(logger.Fields{
		"messages": len(input.Messages),
		"accounts": len(input.Roster),
	}).Info("Starting ingestion run")
	if len(input.Roster) == 0 {
		run.logger.Warn("Account roster is empty; every candidate will be rejected")
	}

	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation:   "ingest",
		Total:       int64(len(input.Messages)),
		LogInterval: p.config.ProgressInterval,
		Logger:      run.logger,
		Now:         p.now,
	})
	progress := &Progress{
		RunID:     run.id,
		Total:     len(input.Messages),
		StartTime: startTime,
	}

	for i := range input.Messages {
		if err := ctx.Err(); err != nil {
			result.Summary.Duration = p.now().Sub(startTime)
			run.logger.WithFields(logger.Fields{
				"processed": len(result.Outcomes),
				"remaining": len(input.Messages) - i,
			}).Warn("Ingestion run cancelled")
			return result, err
		}

		msg := &input.Messages[i]
		outcome := p.processMessage(ctx, run, msg)
		result.Outcomes = append(result.Outcomes, outcome)
		result.Summary.add(outcome)

		tracker.Increment()
		p.updateProgress(progress, msg.SourceID, result.Summary)
	}

	tracker.Complete()
	result.Summary.Duration = p.now().Sub(startTime)

	run.logger.WithFields(logger.Fields{
		"persisted": result.Summary.Persisted,
		"merged":    result.Summary.Merged,
		"skipped":   result.Summary.Skipped,
		"rejected":  result.Summary.Rejected,
		"failed":    result.Summary.Failed,
	}).Info("Ingestion run completed")

	return result, nil
}

// processMessage runs one message through every stage. Panics are recovered
// into a failed outcome.
func (p *Pipeline) processMessage(ctx context.Context, run *runState, msg *models.RawMessage) (outcome *Outcome) {
	started := p.now()
	outcome = &Outcome{
		SourceID: msg.SourceID,
		ThreadID: msg.ThreadID,
		State:    StateReceived,
	}
	log := run.logger.WithField("source_id", msg.SourceID)

	defer func() {
		if r := recover(); r != nil {
			err := errors.InternalError(errors.CodePanic, fmt.Sprintf("message %s", msg.SourceID), fmt.Errorf("%v", r))
			outcome.finish(StatusFailed, ReasonPanic, err)
			log.WithError(err).Error("Recovered panic while processing message")
		}
		outcome.Duration = p.now().Sub(started)
		log.WithFields(logger.Fields{
			"status": outcome.Status,
			"state":  outcome.State,
			"reason": outcome.Reason,
		}).Debug("Message processed")
	}()

	if err := msg.Validate(); err != nil {
		outcome.finish(StatusFailed, ReasonInvalidMessage, errors.MessageError(errors.CodeInvalidPayload, msg.SourceID, err))
		return outcome
	}

	// Normalize
	text := p.normalizer.Normalize(msg)
	if normalizer.IsNoContent(text) {
		outcome.finish(StatusSkipped, ReasonNoContent, errors.MessageError(errors.CodeEmptyMessage, msg.SourceID, nil))
		return outcome
	}
	outcome.State = StateNormalized

	// Extract basics with the sender's tables
	extractor := run.sender
	if extractor == nil {
		rule, ok := p.rules.Match(msg.From, msg.Subject)
		if !ok {
			outcome.finish(StatusSkipped, ReasonNoSenderRule, errors.MessageError(errors.CodeNoSenderRule, msg.SourceID, nil))
			return outcome
		}
		var err error
		if extractor, err = p.extractor.ForSender(rule); err != nil {
			outcome.SenderRule = rule.Name
			outcome.finish(StatusFailed, ReasonInvalidSenderRule, err)
			return outcome
		}
	}
	if rule := extractor.Sender(); rule != nil {
		outcome.SenderRule = rule.Name
	}

	basics := extractor.Extract(text, msg.ReceivedAt)
	outcome.Fields = basics.Diagnostics()
	outcome.State = StateBasicsExtracted

	if p.config.RequireAmount && !basics.Amount.Present {
		outcome.finish(StatusRejected, ReasonNoAmount, errors.MessageError(errors.CodeMissingAmount, msg.SourceID, nil))
		return outcome
	}

	candidate := models.NewCandidate(msg, text, basics.Deterministic())

	// Dedup before any resolution or enrichment work
	decision, err := p.gate.Check(ctx, candidate)
	if err != nil {
		outcome.finish(StatusFailed, ReasonDedupFailed, err)
		return outcome
	}
	outcome.State = StateDedupChecked

	if decision.Duplicate {
		outcome.State = StateMerged
		outcome.StoredID = decision.ExistingID
		outcome.Backfilled = decision.Backfilled
		outcome.finish(StatusMerged, ReasonDuplicate, nil)
		return outcome
	}

	// Resolve the account
	var supplementary []string
	if basics.Account.Present {
		supplementary = append(supplementary, basics.Account.Value)
	}
	match := p.resolver.ResolveIndexed(run.index, text, supplementary...)
	outcome.Match = &match

	if !match.Valid {
		code := errors.CodeAccountUnresolved
		if run.index.Len() == 0 {
			code = errors.CodeEmptyRoster
		}
		outcome.finish(StatusRejected, ReasonAccountUnresolved, errors.ResolutionError(code, msg.SourceID, match.Score, nil))
		log.WithFields(logger.Fields{
			"score":     match.Score,
			"runner_up": match.RunnerUp,
			"reasons":   strings.Join(match.Reasons, "; "),
		}).Warn("Candidate rejected: account unresolved")
		return outcome
	}
	candidate = candidate.WithAccount(match.Account.ID)
	outcome.State = StateAccountResolved

	// Enrichment only ever writes the enrichment track
	if p.enrichmentEnabled() {
		if fields, err := p.enrich(ctx, run, text); err != nil {
			outcome.EnrichmentError = errors.EnrichmentError(enrichment.ErrorCode(err), msg.SourceID, err)
			log.WithError(err).Warn("Enrichment failed; keeping deterministic fields")
		} else {
			candidate = candidate.WithEnrichment(fields)
			outcome.Enriched = true
			outcome.State = StateEnriched
		}
	}

	candidate = candidate.WithDescriptionPlaceholder(p.config.DescriptionPlaceholder)
	outcome.Candidate = &candidate

	// Hand off
	stored, err := p.store.Save(ctx, candidate)
	if err != nil {
		if stderrors.Is(err, store.ErrDuplicateThread) {
			outcome.State = StateMerged
			outcome.finish(StatusMerged, ReasonDuplicate, nil)
			return outcome
		}
		outcome.finish(StatusFailed, ReasonSaveFailed, errors.WrapIfNeeded(err, errors.CategoryStorage, errors.CodeSaveFailed,
			fmt.Sprintf("failed to save message %s", msg.SourceID)))
		return outcome
	}

	outcome.State = StateHandedOff
	outcome.StoredID = stored.ID
	outcome.finish(StatusPersisted, "", nil)
	log.WithField("transaction_id", stored.ID).Info("Transaction persisted")

	return outcome
}

func (p *Pipeline) enrich(ctx context.Context, run *runState, text string) (models.EnrichmentFields, error) {
	if p.config.EnrichmentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.EnrichmentTimeout)
		defer cancel()
	}
	return p.enricher.Enrich(ctx, text, run.input.Roster)
}
