package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/ledgerflow/internal/ai"
	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/service"
	"github.com/ledgerflow/ledgerflow/internal/testutil"
)

// stubCategorizer is a deterministic service.Categorizer for waterfall tests.
type stubCategorizer struct {
	err    error
	result *service.CategorizeResult
	usage  *service.Usage
	calls  int
}

func (s *stubCategorizer) Categorize(_ context.Context, _ string) (*service.CategorizeResult, *service.Usage, error) {
	s.calls++
	return s.result, s.usage, s.err
}

func (s *stubCategorizer) ClearCache() {}

func txn(description string) model.ParsedTransaction {
	return model.ParsedTransaction{Description: description, Amount: -10}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "WOOLWORTHS METRO 1234", Normalize("  woolworths   Metro 1234 "))
	assert.Equal(t, "", Normalize("   "))
}

func TestMatch_StaticWaterfall(t *testing.T) {
	store := testutil.SetupTestDB(t,
		model.Entity{Name: "Woolworths", Aliases: "Woolies", URL: "https://ledger.example/woolworths"},
		model.Entity{Name: "Telstra"},
	)
	categorizer := &stubCategorizer{}
	matcher := New(store, categorizer)
	ctx := context.Background()

	entities, err := store.ListEntities(ctx)
	require.NoError(t, err)

	tests := []struct {
		description string
		wantEntity  string
		wantType    model.MatchType
	}{
		{"Woolworths", "Woolworths", model.MatchExact},
		{"  woolies ", "Woolworths", model.MatchExact},
		{"WOOLWORTHS METRO 1234", "Woolworths", model.MatchPrefix},
		{"PAYMENT TO TELSTRA THANK YOU", "Telstra", model.MatchContains},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			outcome := matcher.Match(ctx, txn(tt.description), entities)
			require.Equal(t, StateMatched, outcome.State)
			assert.Equal(t, tt.wantEntity, outcome.Match.EntityName)
			assert.Equal(t, tt.wantType, outcome.Match.MatchType)
		})
	}

	assert.Zero(t, categorizer.calls, "AI must not be consulted when a cheaper stage hits")
}

func TestMatch_CorrectionOutranksStaticStages(t *testing.T) {
	store := testutil.SetupTestDB(t,
		// This alias would prefix-match the same description to Entity Y.
		model.Entity{Name: "Entity Y", Aliases: "UNKNOWN"},
	)
	ctx := context.Background()

	correction, err := store.UpsertCorrection(ctx, &model.Correction{
		Pattern:    "UNKNOWN MERCHANT",
		MatchType:  model.CorrectionExact,
		EntityName: "Entity X",
		Confidence: 0.9,
	})
	require.NoError(t, err)

	entities, err := store.ListEntities(ctx)
	require.NoError(t, err)

	matcher := New(store, &stubCategorizer{})
	outcome := matcher.Match(ctx, txn("UNKNOWN MERCHANT"), entities)

	require.Equal(t, StateMatched, outcome.State)
	assert.Equal(t, "Entity X", outcome.Match.EntityName)
	assert.Equal(t, model.MatchManual, outcome.Match.MatchType)
	assert.InDelta(t, 0.9, outcome.Match.Confidence, 1e-9)

	// Applying the correction bumps its usage counters.
	reloaded, err := store.GetCorrection(ctx, correction.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.TimesApplied)
}

func TestMatch_LowConfidenceCorrectionIgnored(t *testing.T) {
	store := testutil.SetupTestDB(t, model.Entity{Name: "Entity Y", Aliases: "MERCHANT"})
	ctx := context.Background()

	_, err := store.UpsertCorrection(ctx, &model.Correction{
		Pattern:    "UNKNOWN MERCHANT",
		MatchType:  model.CorrectionExact,
		EntityName: "Entity X",
		Confidence: 0.5,
	})
	require.NoError(t, err)

	entities, err := store.ListEntities(ctx)
	require.NoError(t, err)

	matcher := New(store, &stubCategorizer{})
	outcome := matcher.Match(ctx, txn("UNKNOWN MERCHANT"), entities)

	require.Equal(t, StateMatched, outcome.State)
	assert.Equal(t, "Entity Y", outcome.Match.EntityName, "ineligible correction falls through to static matching")
	assert.Equal(t, model.MatchContains, outcome.Match.MatchType)
}

func TestMatch_AIFallback(t *testing.T) {
	store := testutil.SetupTestDB(t, model.Entity{Name: "Bunnings", URL: "https://ledger.example/bunnings"})
	ctx := context.Background()

	entities, err := store.ListEntities(ctx)
	require.NoError(t, err)

	t.Run("resolves suggestion to known entity", func(t *testing.T) {
		categorizer := &stubCategorizer{
			result: &service.CategorizeResult{EntityName: "Bunnings Warehouse", Category: "Hardware"},
			usage:  &service.Usage{InputTokens: 100, OutputTokens: 20, CostUSD: 0.0002},
		}
		matcher := New(store, categorizer)

		outcome := matcher.Match(ctx, txn("BWH 0231 OSBORNE PARK"), entities)
		require.Equal(t, StateMatched, outcome.State)
		assert.Equal(t, "Bunnings", outcome.Match.EntityName)
		assert.Equal(t, model.MatchAI, outcome.Match.MatchType)
		require.NotNil(t, outcome.Usage)
		assert.Equal(t, 100, outcome.Usage.InputTokens)
	})

	t.Run("unknown suggestion is uncertain, not failed", func(t *testing.T) {
		categorizer := &stubCategorizer{
			result: &service.CategorizeResult{EntityName: "Totally New Shop"},
		}
		matcher := New(store, categorizer)

		outcome := matcher.Match(ctx, txn("TOTALLY UNKNOWN MERCHANT"), entities)
		require.Equal(t, StateUncertain, outcome.State)
		assert.Equal(t, "Totally New Shop", outcome.Suggestion)
	})

	t.Run("declined answer is uncertain", func(t *testing.T) {
		matcher := New(store, &stubCategorizer{result: nil})

		outcome := matcher.Match(ctx, txn("TOTALLY UNKNOWN MERCHANT"), entities)
		require.Equal(t, StateUncertain, outcome.State)
		assert.Empty(t, outcome.Suggestion)
	})

	t.Run("categorizer error fails the transaction", func(t *testing.T) {
		matcher := New(store, &stubCategorizer{
			err: &ai.Error{Code: ai.CodeAPIError, Message: "boom"},
		})

		outcome := matcher.Match(ctx, txn("TOTALLY UNKNOWN MERCHANT"), entities)
		require.Equal(t, StateFailed, outcome.State)
		assert.ErrorContains(t, outcome.Err, "boom")
	})
}
