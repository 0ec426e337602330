// Package match implements the entity-matching waterfall: learned
// corrections first, then static name/alias matching of increasing
// looseness, with the AI categorizer as a last resort.
package match

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/service"
)

// DefaultMinCorrectionConfidence is the eligibility threshold for learned
// corrections when the caller doesn't supply one.
const DefaultMinCorrectionConfidence = 0.7

// Static-stage confidence scores. Manual corrections carry their own
// confidence; AI matches are capped below every deterministic stage.
const (
	exactConfidence    = 1.0
	prefixConfidence   = 0.9
	containsConfidence = 0.8
	aiConfidence       = 0.7
)

// State classifies the outcome of matching one transaction.
type State int

// Matching outcome states.
const (
	StateMatched State = iota
	StateUncertain
	StateFailed
)

// Outcome is the result of running one transaction through the waterfall.
// Usage is non-nil only when the AI fallback made a paid external call.
type Outcome struct {
	Err        error
	Suggestion string
	Usage      *service.Usage
	Match      model.EntityMatch
	State      State
}

// Matcher runs the classification waterfall per transaction. The entity
// directory is read-only during matching; the correction store is consulted
// through Storage and its usage counters are bumped on application.
type Matcher struct {
	store         service.Storage
	categorizer   service.Categorizer
	minConfidence float64
}

// New creates a matcher with the default correction confidence threshold.
func New(store service.Storage, categorizer service.Categorizer) *Matcher {
	return NewWithThreshold(store, categorizer, DefaultMinCorrectionConfidence)
}

// NewWithThreshold creates a matcher with a caller-supplied correction
// confidence threshold.
func NewWithThreshold(store service.Storage, categorizer service.Categorizer, minConfidence float64) *Matcher {
	return &Matcher{
		store:         store,
		categorizer:   categorizer,
		minConfidence: minConfidence,
	}
}

// Normalize prepares a description for matching: trim, collapse internal
// whitespace, uppercase. The raw description is retained on the transaction;
// trailing transaction IDs are deliberately not stripped.
func Normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Match runs the waterfall for one transaction against the given entity
// directory snapshot, stopping at the first hit.
func (m *Matcher) Match(ctx context.Context, txn model.ParsedTransaction, entities []model.Entity) Outcome {
	normalized := Normalize(txn.Description)

	// Stage 1: manual corrections, exact pattern before substring pattern.
	if outcome, ok := m.matchCorrection(ctx, normalized, entities); ok {
		return outcome
	}

	// Stages 2-4: static name/alias matching of increasing looseness. Each
	// stage scans the whole directory before falling through to the next.
	for _, stage := range []struct {
		apply      func(normalized, name string) bool
		matchType  model.MatchType
		confidence float64
	}{
		{func(n, name string) bool { return n == name }, model.MatchExact, exactConfidence},
		{strings.HasPrefix, model.MatchPrefix, prefixConfidence},
		{strings.Contains, model.MatchContains, containsConfidence},
	} {
		for i := range entities {
			entity := &entities[i]
			for _, name := range entity.Names() {
				if normName := Normalize(name); normName != "" && stage.apply(normalized, normName) {
					return Outcome{
						State: StateMatched,
						Match: model.EntityMatch{
							EntityID:   entity.ID,
							EntityName: entity.Name,
							EntityURL:  entity.URL,
							MatchType:  stage.matchType,
							Confidence: stage.confidence,
						},
					}
				}
			}
		}
	}

	// Stage 5: AI fallback.
	return m.matchAI(ctx, txn, entities)
}

func (m *Matcher) matchCorrection(ctx context.Context, normalized string, entities []model.Entity) (Outcome, bool) {
	for _, find := range []func(context.Context, string, float64) (*model.Correction, error){
		m.store.FindExactCorrection,
		m.store.FindContainsCorrection,
	} {
		correction, err := find(ctx, normalized, m.minConfidence)
		if errors.Is(err, common.ErrNotFound) {
			continue
		}
		if err != nil {
			return Outcome{State: StateFailed, Err: err}, true
		}

		if err := m.store.MarkCorrectionApplied(ctx, correction.ID); err != nil {
			slog.Warn("Failed to bump correction usage", "correction_id", correction.ID, "error", err)
		}

		match := model.EntityMatch{
			EntityID:   correction.EntityID,
			EntityName: correction.EntityName,
			MatchType:  model.MatchManual,
			Confidence: correction.Confidence,
		}
		if entity := findEntityByID(entities, correction.EntityID); entity != nil {
			match.EntityURL = entity.URL
			if match.EntityName == "" {
				match.EntityName = entity.Name
			}
		}

		return Outcome{State: StateMatched, Match: match}, true
	}

	return Outcome{}, false
}

func (m *Matcher) matchAI(ctx context.Context, txn model.ParsedTransaction, entities []model.Entity) Outcome {
	result, usage, err := m.categorizer.Categorize(ctx, txn.Description)
	if err != nil {
		return Outcome{State: StateFailed, Err: err, Usage: usage}
	}

	if result == nil || result.EntityName == "" {
		return Outcome{State: StateUncertain, Usage: usage}
	}

	if entity := resolveSuggestion(entities, result.EntityName); entity != nil {
		return Outcome{
			State: StateMatched,
			Usage: usage,
			Match: model.EntityMatch{
				EntityID:   entity.ID,
				EntityName: entity.Name,
				EntityURL:  entity.URL,
				MatchType:  model.MatchAI,
				Confidence: aiConfidence,
			},
		}
	}

	// The AI named an entity we don't know; surface the suggestion for
	// manual resolution rather than failing.
	return Outcome{State: StateUncertain, Suggestion: result.EntityName, Usage: usage}
}

// resolveSuggestion matches an AI-suggested entity name against the
// directory, exact first, then substring in either direction.
func resolveSuggestion(entities []model.Entity, suggestion string) *model.Entity {
	normSuggestion := Normalize(suggestion)
	if normSuggestion == "" {
		return nil
	}

	for i := range entities {
		for _, name := range entities[i].Names() {
			if Normalize(name) == normSuggestion {
				return &entities[i]
			}
		}
	}

	for i := range entities {
		for _, name := range entities[i].Names() {
			normName := Normalize(name)
			if normName == "" {
				continue
			}
			if strings.Contains(normSuggestion, normName) || strings.Contains(normName, normSuggestion) {
				return &entities[i]
			}
		}
	}

	return nil
}

func findEntityByID(entities []model.Entity, id string) *model.Entity {
	if id == "" {
		return nil
	}
	for i := range entities {
		if entities[i].ID == id {
			return &entities[i]
		}
	}
	return nil
}
