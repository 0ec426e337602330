package main

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ledgerflow/ledgerflow/internal/ai"
	"github.com/ledgerflow/ledgerflow/internal/config"
	"github.com/ledgerflow/ledgerflow/internal/engine"
	"github.com/ledgerflow/ledgerflow/internal/ledger"
	"github.com/ledgerflow/ledgerflow/internal/session"
	"github.com/ledgerflow/ledgerflow/internal/storage"
)

// openStorage opens and migrates the local database.
func openStorage(ctx context.Context, cfg config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// newImportService wires the full pipeline: storage, ledger client and AI
// categorizer behind the engine facade.
func newImportService(ctx context.Context) (*engine.Service, *storage.SQLiteStorage, error) {
	cfg := config.Load()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	ledgerClient, err := ledger.NewClient(ledger.Config{
		Token:      cfg.Ledger.Token,
		DatabaseID: cfg.Ledger.DatabaseID,
		BaseURL:    cfg.Ledger.BaseURL,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	categorizer := ai.NewCategorizer(ai.NewAnthropicClient(ai.ClientConfig{
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	}))

	svc := engine.New(store, ledgerClient, categorizer, engine.Config{
		WriteDelay:              cfg.Import.WriteDelay,
		MinCorrectionConfidence: cfg.Import.MinCorrectionConfidence,
	})

	return svc, store, nil
}

// pollSession polls a session until it reaches a terminal state, rendering a
// spinner while the background job runs.
func pollSession(ctx context.Context, svc *engine.Service, sessionID string, interval, timeout time.Duration) (session.Snapshot, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("processing"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	defer func() { _ = bar.Finish() }()

	deadline := time.Now().Add(timeout)

	for {
		snapshot, err := svc.ImportProgress(sessionID)
		if err != nil {
			return session.Snapshot{}, err
		}
		if snapshot.Status != session.StatusProcessing {
			return snapshot, nil
		}
		if time.Now().After(deadline) {
			return snapshot, fmt.Errorf("timed out waiting for session %s after %s", sessionID, timeout)
		}

		_ = bar.Add(1)

		select {
		case <-ctx.Done():
			return snapshot, ctx.Err()
		case <-time.After(interval):
		}
	}
}
