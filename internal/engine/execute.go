package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgerflow/ledgerflow/internal/model"
)

// ExecuteImport starts the write job for a list of confirmed transactions
// and returns the session id to poll.
func (s *Service) ExecuteImport(ctx context.Context, transactions []model.ConfirmedTransaction) string {
	jobCtx := context.WithoutCancel(ctx)
	return s.sessions.Start(jobCtx, func(ctx context.Context) (any, error) {
		return s.runExecute(ctx, transactions)
	})
}

// runExecute writes confirmed transactions to the ledger sequentially, in
// submission order, pausing between writes to respect the external API's
// rate limit. Each write is isolated: a failure is recorded against that
// transaction and the remaining writes proceed. Failed writes are never
// retried here; the caller re-submits the failed subset.
func (s *Service) runExecute(ctx context.Context, transactions []model.ConfirmedTransaction) (*model.ExecuteResult, error) {
	result := &model.ExecuteResult{
		Failed: []model.ExecutionFailure{},
	}

	slog.Info("Executing import", "transactions", len(transactions))

	for i, txn := range transactions {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.writeDelay):
			}
		}

		// Guard against re-submission races: a row written since
		// confirmation is skipped, not duplicated.
		exists, err := s.ledger.ChecksumExists(ctx, txn.Transaction.Checksum)
		if err == nil && exists {
			result.Skipped++
			continue
		}

		if err := s.ledger.CreateRecord(ctx, txn); err != nil {
			slog.Warn("Ledger write failed",
				"description", txn.Transaction.Description,
				"error", err)
			result.Failed = append(result.Failed, model.ExecutionFailure{
				Transaction: txn,
				Error:       err.Error(),
			})
			continue
		}

		result.Imported++
	}

	slog.Info("Import executed",
		"imported", result.Imported,
		"failed", len(result.Failed),
		"skipped", result.Skipped)

	return result, nil
}
