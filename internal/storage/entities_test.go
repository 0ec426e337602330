package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/model"
)

func TestSaveEntity_GeneratesIDAndUpserts(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	entity := &model.Entity{Name: "Woolworths", Aliases: "Woolies"}
	require.NoError(t, store.SaveEntity(ctx, entity))
	require.NotEmpty(t, entity.ID)

	entity.Aliases = "Woolies,WW"
	require.NoError(t, store.SaveEntity(ctx, entity))

	entities, err := store.ListEntities(ctx)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Woolies,WW", entities[0].Aliases)
}

func TestGetEntityByName_CaseInsensitive(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEntity(ctx, &model.Entity{Name: "Telstra", URL: "https://ledger.example/telstra"}))

	entity, err := store.GetEntityByName(ctx, "TELSTRA")
	require.NoError(t, err)
	assert.Equal(t, "Telstra", entity.Name)
	assert.Equal(t, "https://ledger.example/telstra", entity.URL)

	_, err = store.GetEntityByName(ctx, "Optus")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteEntity(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	entity := &model.Entity{Name: "Short Lived"}
	require.NoError(t, store.SaveEntity(ctx, entity))
	require.NoError(t, store.DeleteEntity(ctx, entity.ID))

	assert.ErrorIs(t, store.DeleteEntity(ctx, entity.ID), common.ErrNotFound)

	entities, err := store.ListEntities(ctx)
	require.NoError(t, err)
	assert.Empty(t, entities)
}
