// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ledgerflow/ledgerflow/internal/model"
)

// CorrectionFilter defines filtering options for correction queries.
type CorrectionFilter struct {
	MinConfidence float64
	Limit         int
	Offset        int
}

// Storage defines the contract for the persistence layer backing the entity
// directory and the correction store.
type Storage interface {
	// Entity directory (read-only from the pipeline's perspective)
	ListEntities(ctx context.Context) ([]model.Entity, error)
	GetEntityByName(ctx context.Context, name string) (*model.Entity, error)
	SaveEntity(ctx context.Context, entity *model.Entity) error
	DeleteEntity(ctx context.Context, id string) error

	// Correction store
	UpsertCorrection(ctx context.Context, correction *model.Correction) (*model.Correction, error)
	GetCorrection(ctx context.Context, id int64) (*model.Correction, error)
	ListCorrections(ctx context.Context, filter CorrectionFilter) ([]model.Correction, error)
	FindExactCorrection(ctx context.Context, normalized string, minConfidence float64) (*model.Correction, error)
	FindContainsCorrection(ctx context.Context, normalized string, minConfidence float64) (*model.Correction, error)
	AdjustCorrectionConfidence(ctx context.Context, id int64, delta float64) (*model.Correction, error)
	DeleteCorrection(ctx context.Context, id int64) error
	MarkCorrectionApplied(ctx context.Context, id int64) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// LedgerStore defines the contract for the external ledger the pipeline
// deduplicates against and writes confirmed transactions to.
type LedgerStore interface {
	ChecksumExists(ctx context.Context, checksum string) (bool, error)
	CreateRecord(ctx context.Context, txn model.ConfirmedTransaction) error
}

// CategorizeResult is the AI categorizer's parsed answer. A nil result from
// Categorize means the model declined to answer, which is not an error.
type CategorizeResult struct {
	EntityName string
	Category   string
}

// Usage records the token cost of a single external AI call. It is nil for
// cache hits so callers never double-count spend.
type Usage struct {
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Categorizer defines the contract for the AI categorization fallback.
type Categorizer interface {
	Categorize(ctx context.Context, description string) (*CategorizeResult, *Usage, error)
	ClearCache()
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
