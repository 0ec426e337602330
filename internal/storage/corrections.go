package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/service"
)

const correctionColumns = `id, pattern, match_type, entity_id, entity_name,
	location, online, transaction_type, confidence, times_applied, last_used_at`

func scanCorrection(row interface{ Scan(...any) error }) (*model.Correction, error) {
	var c model.Correction
	var matchType string
	var lastUsed sql.NullTime

	err := row.Scan(&c.ID, &c.Pattern, &matchType, &c.EntityID, &c.EntityName,
		&c.Location, &c.Online, &c.TransactionType, &c.Confidence, &c.TimesApplied, &lastUsed)
	if err != nil {
		return nil, err
	}

	c.MatchType = model.CorrectionMatchType(matchType)
	if lastUsed.Valid {
		c.LastUsedAt = lastUsed.Time
	}

	return &c, nil
}

// UpsertCorrection inserts a correction or, when (pattern, matchType)
// already exists, updates that row in place.
func (s *SQLiteStorage) UpsertCorrection(ctx context.Context, correction *model.Correction) (*model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCorrection(correction); err != nil {
		return nil, err
	}

	if correction.Confidence == 0 {
		correction.Confidence = 1.0
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO corrections (pattern, match_type, entity_id, entity_name,
			location, online, transaction_type, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pattern, match_type) DO UPDATE SET
			entity_id = excluded.entity_id,
			entity_name = excluded.entity_name,
			location = excluded.location,
			online = excluded.online,
			transaction_type = excluded.transaction_type,
			confidence = excluded.confidence
	`, correction.Pattern, string(correction.MatchType), correction.EntityID,
		correction.EntityName, correction.Location, correction.Online,
		correction.TransactionType, correction.Confidence)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert correction: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+correctionColumns+`
		FROM corrections
		WHERE pattern = ? AND match_type = ?
	`, correction.Pattern, string(correction.MatchType))

	saved, err := scanCorrection(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read back correction: %w", err)
	}

	return saved, nil
}

// GetCorrection retrieves a correction by id.
func (s *SQLiteStorage) GetCorrection(ctx context.Context, id int64) (*model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+correctionColumns+`
		FROM corrections
		WHERE id = ?
	`, id)

	correction, err := scanCorrection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get correction: %w", err)
	}

	return correction, nil
}

// ListCorrections returns corrections above the filter's minimum confidence,
// most-confident and most-applied first.
func (s *SQLiteStorage) ListCorrections(ctx context.Context, filter service.CorrectionFilter) ([]model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+correctionColumns+`
		FROM corrections
		WHERE confidence >= ?
		ORDER BY confidence DESC, times_applied DESC, pattern
		LIMIT ? OFFSET ?
	`, filter.MinConfidence, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var corrections []model.Correction
	for rows.Next() {
		correction, err := scanCorrection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		corrections = append(corrections, *correction)
	}

	return corrections, rows.Err()
}

// FindExactCorrection returns the best eligible exact-pattern correction for
// a normalized description. Ties break on higher confidence, then higher
// times_applied.
func (s *SQLiteStorage) FindExactCorrection(ctx context.Context, normalized string, minConfidence float64) (*model.Correction, error) {
	return s.findCorrection(ctx, `
		SELECT `+correctionColumns+`
		FROM corrections
		WHERE match_type = 'exact' AND pattern = ? AND confidence >= ?
		ORDER BY confidence DESC, times_applied DESC
		LIMIT 1
	`, normalized, minConfidence)
}

// FindContainsCorrection returns the best eligible substring-pattern
// correction whose pattern occurs in the normalized description.
func (s *SQLiteStorage) FindContainsCorrection(ctx context.Context, normalized string, minConfidence float64) (*model.Correction, error) {
	return s.findCorrection(ctx, `
		SELECT `+correctionColumns+`
		FROM corrections
		WHERE match_type = 'contains' AND instr(?, pattern) > 0 AND confidence >= ?
		ORDER BY confidence DESC, times_applied DESC
		LIMIT 1
	`, normalized, minConfidence)
}

func (s *SQLiteStorage) findCorrection(ctx context.Context, query string, args ...any) (*model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, query, args...)

	correction, err := scanCorrection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find correction: %w", err)
	}

	return correction, nil
}

// AdjustCorrectionConfidence nudges a correction's confidence by delta,
// clamped to 1.0 above. A correction driven below the minimum confidence is
// deleted and (nil, nil) is returned.
func (s *SQLiteStorage) AdjustCorrectionConfidence(ctx context.Context, id int64, delta float64) (*model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	correction, err := s.GetCorrection(ctx, id)
	if err != nil {
		return nil, err
	}

	confidence := correction.Confidence + delta
	if confidence > 1.0 {
		confidence = 1.0
	}

	if confidence < model.MinCorrectionConfidence {
		if err := s.DeleteCorrection(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE corrections SET confidence = ? WHERE id = ?
	`, confidence, id)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust confidence: %w", err)
	}

	correction.Confidence = confidence
	return correction, nil
}

// DeleteCorrection removes a correction by id.
func (s *SQLiteStorage) DeleteCorrection(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM corrections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete correction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

// MarkCorrectionApplied bumps usage counters after the waterfall applies a
// correction.
func (s *SQLiteStorage) MarkCorrectionApplied(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE corrections
		SET times_applied = times_applied + 1, last_used_at = ?
		WHERE id = ?
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark correction applied: %w", err)
	}

	return nil
}
