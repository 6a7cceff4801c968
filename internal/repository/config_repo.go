package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"catalog_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type postgresConfigRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresConfigRepository(db *sql.DB, logger *logrus.Logger) domain.CategoryConfigRepository {
	return &postgresConfigRepository{
		db:  db,
		log: logger,
	}
}

const selectConfig = `
        SELECT cc.id, cc.category_id, c.name, cc.variant_dimensions, cc.fields,
               cc.suggested_types, cc.is_active, cc.updated_at
        FROM category_configs cc
        JOIN categories c ON c.id = cc.category_id`

func (r *postgresConfigRepository) GetConfigByCategoryID(ctx context.Context, categoryID int) (*domain.CategoryConfig, error) {
	cfg, err := scanConfig(r.db.QueryRowContext(ctx, selectConfig+` WHERE cc.category_id = $1`, categoryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugf("No configuration stored for category ID %d", categoryID)
			return nil, fmt.Errorf("config for category with id %d %w", categoryID, domain.ErrNotFound)
		}
		r.log.Errorf("Failed to get configuration for category ID %d: %v", categoryID, err)
		return nil, fmt.Errorf("could not get category config: %w", err)
	}
	return cfg, nil
}

func (r *postgresConfigRepository) FindConfigByCategoryName(ctx context.Context, name string) (*domain.CategoryConfig, error) {
	cfg, err := scanConfig(r.db.QueryRowContext(ctx, selectConfig+` WHERE LOWER(c.name) = LOWER($1)`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugf("No configuration stored for category '%s'", name)
			return nil, fmt.Errorf("config for category '%s' %w", name, domain.ErrNotFound)
		}
		r.log.Errorf("Failed to find configuration for category '%s': %v", name, err)
		return nil, fmt.Errorf("could not find category config: %w", err)
	}
	return cfg, nil
}

func (r *postgresConfigRepository) UpsertConfig(ctx context.Context, cfg *domain.CategoryConfig) (*domain.CategoryConfig, error) {
	dimensions, err := marshalNullable(cfg.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("could not encode variant dimensions: %w", err)
	}
	fields, err := marshalNullable(cfg.Fields)
	if err != nil {
		return nil, fmt.Errorf("could not encode fields: %w", err)
	}
	suggested, err := marshalNullable(cfg.SuggestedTypes)
	if err != nil {
		return nil, fmt.Errorf("could not encode suggested types: %w", err)
	}

	query := `
        INSERT INTO category_configs (category_id, variant_dimensions, fields, suggested_types, is_active, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (category_id)
        DO UPDATE SET variant_dimensions = $2, fields = $3, suggested_types = $4, is_active = $5, updated_at = NOW()
        RETURNING id, updated_at`
	err = r.db.QueryRowContext(ctx, query, cfg.CategoryID, dimensions, fields, suggested, cfg.IsActive).
		Scan(&cfg.ID, &cfg.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			r.log.Warnf("Attempted to configure non-existent category ID: %d", cfg.CategoryID)
			return nil, fmt.Errorf("category with id %d does not exist", cfg.CategoryID)
		}
		r.log.Errorf("Failed to upsert configuration for category ID %d: %v", cfg.CategoryID, err)
		return nil, fmt.Errorf("could not save category config: %w", err)
	}

	r.log.Infof("Configuration saved for category ID %d", cfg.CategoryID)
	return cfg, nil
}

func (r *postgresConfigRepository) DeleteConfig(ctx context.Context, categoryID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM category_configs WHERE category_id = $1`, categoryID)
	if err != nil {
		r.log.Errorf("Failed to delete configuration for category ID %d: %v", categoryID, err)
		return fmt.Errorf("could not delete category config: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Failed to get rows affected after deleting configuration for category ID %d: %v", categoryID, err)
		return fmt.Errorf("could not confirm category config deletion: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Attempted to delete non-existent configuration for category ID %d", categoryID)
		return fmt.Errorf("config for category with id %d %w", categoryID, domain.ErrNotFound)
	}
	r.log.Infof("Configuration deleted for category ID %d", categoryID)
	return nil
}

// scanConfig reads one configuration row. NULL JSON columns stay nil so the
// resolver can tell a missing list from an empty one.
func scanConfig(row *sql.Row) (*domain.CategoryConfig, error) {
	var (
		cfg                          domain.CategoryConfig
		dimensions, fields, suggests []byte
	)
	err := row.Scan(&cfg.ID, &cfg.CategoryID, &cfg.CategoryName, &dimensions, &fields, &suggests, &cfg.IsActive, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(dimensions) > 0 {
		if err := json.Unmarshal(dimensions, &cfg.Dimensions); err != nil {
			cfg.Dimensions = nil
		}
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &cfg.Fields); err != nil {
			cfg.Fields = nil
		}
	}
	if len(suggests) > 0 {
		if err := json.Unmarshal(suggests, &cfg.SuggestedTypes); err != nil {
			cfg.SuggestedTypes = nil
		}
	}
	return &cfg, nil
}

func marshalNullable(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case []domain.VariantDimension:
		if t == nil {
			return nil, nil
		}
	case []domain.TechnicalField:
		if t == nil {
			return nil, nil
		}
	case []string:
		if t == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
