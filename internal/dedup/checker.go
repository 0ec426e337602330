// Package dedup detects re-imports of previously written transactions by
// consulting the external ledger's checksum index.
package dedup

import (
	"context"

	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/service"
)

// SkipReasonDuplicate is attached to transactions skipped as duplicates.
const SkipReasonDuplicate = "Duplicate of existing record"

// Checker marks transactions whose checksum already exists in the external
// ledger. Transactions within a single batch are never compared against each
// other; dedup is only against the external store.
type Checker struct {
	ledger service.LedgerStore
}

// New creates a checker backed by the given ledger store.
func New(ledger service.LedgerStore) *Checker {
	return &Checker{ledger: ledger}
}

// IsDuplicate reports whether the transaction's checksum already exists in
// the ledger. The checksum is computed upstream and never recomputed here.
func (c *Checker) IsDuplicate(ctx context.Context, txn model.ParsedTransaction) (bool, error) {
	return c.ledger.ChecksumExists(ctx, txn.Checksum)
}
