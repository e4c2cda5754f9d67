package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/ledger"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

type FilterService struct {
	db *database.DB
}

func NewFilterService(db *database.DB) *FilterService {
	return &FilterService{db: db}
}

const savedFilterColumns = `id, name, user_id, filter_config, is_default, created_at, updated_at`

func scanSavedFilter(s rowScanner) (models.SavedFilter, error) {
	var (
		f      models.SavedFilter
		config string
	)
	err := s.Scan(&f.ID, &f.Name, &f.UserID, &config, &f.IsDefault, &f.CreatedAt, &f.UpdatedAt)
	f.FilterConfig = json.RawMessage(config)
	return f, err
}

// DecodeFilterConfig parses a saved filter configuration and validates it.
func DecodeFilterConfig(raw json.RawMessage) (ledger.FilterSpec, error) {
	var spec ledger.FilterSpec
	if len(raw) == 0 {
		return spec, nil
	}
	if err := json.Unmarshal(raw, &spec); err != nil {
		return spec, &models.ValidationError{Field: "filterConfig", Message: "invalid filter configuration JSON: " + err.Error()}
	}
	if err := spec.Validate(); err != nil {
		return spec, err
	}
	return spec, nil
}

// normalizeFilter validates input and returns the canonical JSON of its configuration.
func normalizeFilter(input models.SavedFilter) (string, string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", "", &models.ValidationError{Field: "name", Message: "name is required"}
	}
	spec, err := DecodeFilterConfig(input.FilterConfig)
	if err != nil {
		return "", "", err
	}
	config, err := json.Marshal(spec)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode filter configuration: %w", err)
	}
	return name, string(config), nil
}

// clearDefault unsets the user's default filter, except for keepID.
func clearDefault(ctx context.Context, tx *database.Tx, userID, keepID string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE saved_filters SET is_default = ? WHERE user_id = ? AND id <> ?`,
		false, userID, keepID); err != nil {
		return fmt.Errorf("failed to update existing default filters: %w", err)
	}
	return nil
}

func (s *FilterService) Create(ctx context.Context, userID string, input models.SavedFilter) (*models.SavedFilter, error) {
	name, config, err := normalizeFilter(input)
	if err != nil {
		return nil, err
	}

	now := database.Now()
	filter := models.SavedFilter{
		ID:           uuid.NewString(),
		Name:         name,
		UserID:       userID,
		FilterConfig: json.RawMessage(config),
		IsDefault:    input.IsDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		if filter.IsDefault {
			if err := clearDefault(ctx, tx, userID, filter.ID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO saved_filters (`+savedFilterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, filter.ID, filter.Name, filter.UserID, config, filter.IsDefault, now, now); err != nil {
			return fmt.Errorf("failed to insert saved filter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &filter, nil
}

func (s *FilterService) List(ctx context.Context, userID string) ([]models.SavedFilter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+savedFilterColumns+` FROM saved_filters WHERE user_id = ? ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved filters: %w", err)
	}
	defer rows.Close()

	filters := make([]models.SavedFilter, 0)
	for rows.Next() {
		f, err := scanSavedFilter(rows)
		if err != nil {
			log.Printf("Warning: skipping unreadable saved filter: %v", err)
			continue
		}
		filters = append(filters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read saved filters: %w", err)
	}
	return filters, nil
}

func (s *FilterService) Get(ctx context.Context, userID, id string) (*models.SavedFilter, error) {
	f, err := scanSavedFilter(s.db.QueryRowContext(ctx,
		`SELECT `+savedFilterColumns+` FROM saved_filters WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, notFound(err, "saved filter")
	}
	return &f, nil
}

// Default returns the user's default filter, or nil when none is marked.
func (s *FilterService) Default(ctx context.Context, userID string) (*models.SavedFilter, error) {
	f, err := scanSavedFilter(s.db.QueryRowContext(ctx,
		`SELECT `+savedFilterColumns+` FROM saved_filters WHERE user_id = ? AND is_default = ?`, userID, true))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load default filter: %w", err)
	}
	return &f, nil
}

func (s *FilterService) Update(ctx context.Context, userID, id string, input models.SavedFilter) (*models.SavedFilter, error) {
	name, config, err := normalizeFilter(input)
	if err != nil {
		return nil, err
	}

	var filter *models.SavedFilter
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		f, err := scanSavedFilter(tx.QueryRowContext(ctx,
			`SELECT `+savedFilterColumns+` FROM saved_filters WHERE id = ? AND user_id = ?`, id, userID))
		if err != nil {
			return notFound(err, "saved filter")
		}
		if input.IsDefault {
			if err := clearDefault(ctx, tx, userID, id); err != nil {
				return err
			}
		}

		f.Name = name
		f.FilterConfig = json.RawMessage(config)
		f.IsDefault = input.IsDefault
		f.UpdatedAt = database.Now()
		if _, err := tx.ExecContext(ctx, `
			UPDATE saved_filters SET name = ?, filter_config = ?, is_default = ?, updated_at = ? WHERE id = ?
		`, f.Name, config, f.IsDefault, f.UpdatedAt, id); err != nil {
			return fmt.Errorf("failed to update saved filter: %w", err)
		}
		filter = &f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filter, nil
}

func (s *FilterService) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_filters WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete saved filter: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
