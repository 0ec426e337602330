package engine

import (
	"context"

	"github.com/ledgerflow/ledgerflow/internal/match"
	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/service"
)

// CreateOrUpdateCorrection records user feedback as a learned pattern. The
// pattern is normalized the same way the waterfall normalizes descriptions,
// so a correction learned from one statement line matches future ones.
func (s *Service) CreateOrUpdateCorrection(ctx context.Context, correction *model.Correction) (*model.Correction, error) {
	correction.Pattern = match.Normalize(correction.Pattern)
	return s.store.UpsertCorrection(ctx, correction)
}

// GetCorrection retrieves a correction by id.
func (s *Service) GetCorrection(ctx context.Context, id int64) (*model.Correction, error) {
	return s.store.GetCorrection(ctx, id)
}

// ListCorrections lists learned corrections.
func (s *Service) ListCorrections(ctx context.Context, filter service.CorrectionFilter) ([]model.Correction, error) {
	return s.store.ListCorrections(ctx, filter)
}

// AdjustConfidence nudges a correction's confidence. Driving it below the
// minimum deletes the correction; a nil correction is returned in that case.
func (s *Service) AdjustConfidence(ctx context.Context, id int64, delta float64) (*model.Correction, error) {
	return s.store.AdjustCorrectionConfidence(ctx, id, delta)
}

// DeleteCorrection removes a correction.
func (s *Service) DeleteCorrection(ctx context.Context, id int64) error {
	return s.store.DeleteCorrection(ctx, id)
}
