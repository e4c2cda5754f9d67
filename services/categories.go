package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

type CategoryService struct {
	db *database.DB
}

func NewCategoryService(db *database.DB) *CategoryService {
	return &CategoryService{db: db}
}

// CategorySuggestion is a category ranked against a typed query.
type CategorySuggestion struct {
	models.Category
	Score float64 `json:"score"`
}

const categoryColumns = `id, user_id, name, type, color`

func scanCategory(s rowScanner) (models.Category, error) {
	var (
		c   models.Category
		typ string
	)
	err := s.Scan(&c.ID, &c.UserID, &c.Name, &typ, &c.Color)
	c.Type = models.TransactionType(typ)
	return c, err
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			log.Printf("Warning: skipping unreadable category: %v", err)
			continue
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, userID, id string) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, notFound(err, "category")
	}
	return &c, nil
}

// nameTaken reports whether another category of the user already uses name, ignoring case.
func nameTaken(ctx context.Context, q querier, userID, name, exceptID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories WHERE user_id = ? AND LOWER(name) = LOWER(?) AND id <> ?
	`, userID, name, exceptID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return n > 0, nil
}

func (s *CategoryService) Create(ctx context.Context, userID string, input models.Category) (*models.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	c := input
	c.ID = uuid.NewString()
	c.UserID = userID

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		taken, err := nameTaken(ctx, tx, userID, c.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return &models.ValidationError{Field: "name", Message: "a category named " + c.Name + " already exists"}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, user_id, name, type, color, created_at) VALUES (?, ?, ?, ?, ?, ?)
		`, c.ID, c.UserID, c.Name, string(c.Type), c.Color, database.Now()); err != nil {
			return fmt.Errorf("failed to insert category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id string, input models.Category) (*models.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Category
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		c, err := scanCategory(tx.QueryRowContext(ctx,
			`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID))
		if err != nil {
			return notFound(err, "category")
		}
		taken, err := nameTaken(ctx, tx, userID, input.Name, id)
		if err != nil {
			return err
		}
		if taken {
			return &models.ValidationError{Field: "name", Message: "a category named " + input.Name + " already exists"}
		}

		c.Name, c.Type, c.Color = input.Name, input.Type, input.Color
		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET name = ?, type = ?, color = ? WHERE id = ?`,
			c.Name, string(c.Type), c.Color, c.ID); err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		updated = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the category. Transactions keep their category text.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Suggest ranks the user's categories against q, tolerating typos. Categories scoring below
// minSuggestionScore are dropped; an empty query returns the first categories by name.
func (s *CategoryService) Suggest(ctx context.Context, userID, q string, limit int) ([]CategorySuggestion, error) {
	categories, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return rankCategories(categories, q, limit), nil
}

const minSuggestionScore = 0.4

func rankCategories(categories []models.Category, q string, limit int) []CategorySuggestion {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]CategorySuggestion, 0, len(categories))
	for _, c := range categories {
		score := 1.0
		if q != "" {
			score = similarity(q, strings.ToLower(c.Name))
			if score < minSuggestionScore {
				continue
			}
		}
		out = append(out, CategorySuggestion{Category: c, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// similarity is 1 - distance/longest, boosted when one string contains the other so that
// prefixes typed into a picker rank their category first.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	score := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
	if strings.Contains(b, a) || strings.Contains(a, b) {
		score = max(score, 0.9)
	}
	return score
}
