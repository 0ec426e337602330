// Package testutil provides test fixtures for packages that need a real
// storage layer.
package testutil

import (
	"context"
	"testing"

	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite store seeded with the
// given entities, and registers cleanup with the test.
func SetupTestDB(t *testing.T, entities ...model.Entity) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for i := range entities {
		if err := store.SaveEntity(ctx, &entities[i]); err != nil {
			t.Fatalf("failed to seed entity %q: %v", entities[i].Name, err)
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
