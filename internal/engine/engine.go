// Package engine wires the import pipeline together: the asynchronous
// processing job that classifies a batch of parsed transactions, and the
// execution job that writes confirmed transactions to the external ledger.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgerflow/ledgerflow/internal/dedup"
	"github.com/ledgerflow/ledgerflow/internal/match"
	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/service"
	"github.com/ledgerflow/ledgerflow/internal/session"
)

// Config holds configuration options for the import service.
type Config struct {
	// WriteDelay is the pause between consecutive ledger writes, respecting
	// the external API's rate limit.
	WriteDelay time.Duration
	// MinCorrectionConfidence is the eligibility threshold for learned
	// corrections in the matching waterfall.
	MinCorrectionConfidence float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		WriteDelay:              400 * time.Millisecond,
		MinCorrectionConfidence: match.DefaultMinCorrectionConfidence,
	}
}

// Service owns both import job kinds and exposes progress by session id.
type Service struct {
	store      service.Storage
	ledger     service.LedgerStore
	matcher    *match.Matcher
	checker    *dedup.Checker
	sessions   *session.Manager
	writeDelay time.Duration
}

// New creates an import service with the given collaborators.
func New(store service.Storage, ledger service.LedgerStore, categorizer service.Categorizer, cfg Config) *Service {
	if cfg.WriteDelay <= 0 {
		cfg.WriteDelay = DefaultConfig().WriteDelay
	}
	if cfg.MinCorrectionConfidence <= 0 {
		cfg.MinCorrectionConfidence = match.DefaultMinCorrectionConfidence
	}

	return &Service{
		store:      store,
		ledger:     ledger,
		matcher:    match.NewWithThreshold(store, categorizer, cfg.MinCorrectionConfidence),
		checker:    dedup.New(ledger),
		sessions:   session.NewManager(),
		writeDelay: cfg.WriteDelay,
	}
}

// ProcessImport starts the matching job for a batch of parsed transactions
// and returns immediately with the session id to poll. The job is decoupled
// from the submitting call's cancellation and runs to completion.
func (s *Service) ProcessImport(ctx context.Context, transactions []model.ParsedTransaction, account string) string {
	jobCtx := context.WithoutCancel(ctx)
	return s.sessions.Start(jobCtx, func(ctx context.Context) (any, error) {
		return s.runProcess(ctx, transactions, account)
	})
}

// ImportProgress returns a snapshot of either job kind's session.
func (s *Service) ImportProgress(sessionID string) (session.Snapshot, error) {
	return s.sessions.Progress(sessionID)
}

// runProcess classifies each transaction in submission order into exactly
// one of the matched, uncertain, skipped or failed buckets. Per-transaction
// failures are isolated into the failed bucket; only an error before any
// item can be processed fails the whole session.
func (s *Service) runProcess(ctx context.Context, transactions []model.ParsedTransaction, account string) (*model.ProcessResult, error) {
	entities, err := s.store.ListEntities(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("Processing import batch",
		"transactions", len(transactions),
		"account", account,
		"entities", len(entities))

	result := &model.ProcessResult{
		Matched:   []model.ProcessedTransaction{},
		Uncertain: []model.ProcessedTransaction{},
		Skipped:   []model.ProcessedTransaction{},
		Failed:    []model.ProcessedTransaction{},
	}
	var totalCost float64

	for _, txn := range transactions {
		if account != "" {
			txn.Account = account
		}
		txn.EnsureChecksum()

		duplicate, err := s.checker.IsDuplicate(ctx, txn)
		if err != nil {
			result.Failed = append(result.Failed, model.ProcessedTransaction{
				Transaction: txn,
				Error:       err.Error(),
			})
			continue
		}
		if duplicate {
			result.Skipped = append(result.Skipped, model.ProcessedTransaction{
				Transaction: txn,
				SkipReason:  dedup.SkipReasonDuplicate,
			})
			continue
		}

		outcome := s.matcher.Match(ctx, txn, entities)
		if outcome.Usage != nil {
			totalCost += outcome.Usage.CostUSD
		}

		switch outcome.State {
		case match.StateMatched:
			matched := outcome.Match
			result.Matched = append(result.Matched, model.ProcessedTransaction{
				Transaction: txn,
				Match:       &matched,
			})
		case match.StateUncertain:
			result.Uncertain = append(result.Uncertain, model.ProcessedTransaction{
				Transaction: txn,
				Suggestion:  outcome.Suggestion,
			})
		case match.StateFailed:
			result.Failed = append(result.Failed, model.ProcessedTransaction{
				Transaction: txn,
				Error:       outcome.Err.Error(),
			})
		}
	}

	slog.Info("Import batch processed",
		"matched", len(result.Matched),
		"uncertain", len(result.Uncertain),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
		"ai_cost_usd", totalCost)

	return result, nil
}
