package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/ledgerflow/internal/ledger"
	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/session"
	"github.com/ledgerflow/ledgerflow/internal/testutil"
)

func confirmed(description string) model.ConfirmedTransaction {
	return model.ConfirmedTransaction{
		Transaction: parsed(description, -10),
		EntityName:  "Some Entity",
	}
}

func TestExecuteImport_PartialFailureIsolation(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mockLedger := ledger.NewMockStore()
	mockLedger.CreateErr["SECOND"] = errors.New("write rejected")
	svc := New(store, mockLedger, &stubCategorizer{}, testConfig())

	snapshot := waitForSession(t, svc, svc.ExecuteImport(context.Background(), []model.ConfirmedTransaction{
		confirmed("FIRST"),
		confirmed("SECOND"),
		confirmed("THIRD"),
	}))
	require.Equal(t, session.StatusCompleted, snapshot.Status)

	result, ok := snapshot.Result.(*model.ExecuteResult)
	require.True(t, ok)

	// The failing write neither aborts the batch nor hides later writes.
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "SECOND", result.Failed[0].Transaction.Transaction.Description)
	assert.Contains(t, result.Failed[0].Error, "write rejected")

	records := mockLedger.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "FIRST", records[0].Transaction.Description)
	assert.Equal(t, "THIRD", records[1].Transaction.Description)
}

func TestExecuteImport_SkipsAlreadyWrittenChecksums(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mockLedger := ledger.NewMockStore()
	already := confirmed("ALREADY THERE")
	mockLedger.SeedChecksum(already.Transaction.Checksum)
	svc := New(store, mockLedger, &stubCategorizer{}, testConfig())

	snapshot := waitForSession(t, svc, svc.ExecuteImport(context.Background(), []model.ConfirmedTransaction{
		already,
		confirmed("NEW ROW"),
	}))

	result := snapshot.Result.(*model.ExecuteResult)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Failed)
}

func TestExecuteImport_NoEntityIsAllowed(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mockLedger := ledger.NewMockStore()
	svc := New(store, mockLedger, &stubCategorizer{}, testConfig())

	// The user explicitly chose "no entity"; the row is still written.
	noEntity := model.ConfirmedTransaction{Transaction: parsed("CASH WITHDRAWAL", -100)}

	snapshot := waitForSession(t, svc, svc.ExecuteImport(context.Background(), []model.ConfirmedTransaction{noEntity}))

	result := snapshot.Result.(*model.ExecuteResult)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, mockLedger.Records(), 1)
	assert.Empty(t, mockLedger.Records()[0].EntityName)
}
