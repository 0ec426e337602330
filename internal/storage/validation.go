package storage

import (
	"context"
	"fmt"

	"github.com/ledgerflow/ledgerflow/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return ctx.Err()
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateEntity(entity *model.Entity) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	return validateString(entity.Name, "entity name")
}

func validateCorrection(correction *model.Correction) error {
	if correction == nil {
		return fmt.Errorf("correction cannot be nil")
	}
	if err := validateString(correction.Pattern, "correction pattern"); err != nil {
		return err
	}
	switch correction.MatchType {
	case model.CorrectionExact, model.CorrectionContains:
	default:
		return fmt.Errorf("invalid correction match type: %q", correction.MatchType)
	}
	if correction.Confidence < 0 || correction.Confidence > 1 {
		return fmt.Errorf("correction confidence must be in [0,1], got %v", correction.Confidence)
	}
	return nil
}
