package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/model"
)

// ListEntities returns every entity in the directory, ordered by name.
func (s *SQLiteStorage) ListEntities(ctx context.Context) ([]model.Entity, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, aliases, url, default_category
		FROM entities
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entities []model.Entity
	for rows.Next() {
		var entity model.Entity
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.Aliases, &entity.URL, &entity.DefaultCategory); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, entity)
	}

	return entities, rows.Err()
}

// GetEntityByName retrieves an entity by canonical name (case-insensitive).
func (s *SQLiteStorage) GetEntityByName(ctx context.Context, name string) (*model.Entity, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var entity model.Entity
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, aliases, url, default_category
		FROM entities
		WHERE name = ? COLLATE NOCASE
	`, name).Scan(&entity.ID, &entity.Name, &entity.Aliases, &entity.URL, &entity.DefaultCategory)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	return &entity, nil
}

// SaveEntity inserts or updates an entity. A missing ID is generated.
func (s *SQLiteStorage) SaveEntity(ctx context.Context, entity *model.Entity) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntity(entity); err != nil {
		return err
	}

	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (id, name, aliases, url, default_category)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			aliases = excluded.aliases,
			url = excluded.url,
			default_category = excluded.default_category
	`, entity.ID, entity.Name, entity.Aliases, entity.URL, entity.DefaultCategory)
	if err != nil {
		return fmt.Errorf("failed to save entity: %w", err)
	}

	return nil
}

// DeleteEntity removes an entity from the directory.
func (s *SQLiteStorage) DeleteEntity(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
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
