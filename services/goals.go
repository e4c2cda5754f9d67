package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/notify"
	"github.com/shopspring/decimal"
)

type GoalService struct {
	db     *database.DB
	events EventSink
}

func NewGoalService(db *database.DB, events EventSink) *GoalService {
	return &GoalService{db: db, events: sinkOrDiscard(events)}
}

const goalColumns = `id, user_id, name, description, target_amount, current_amount, start_date, deadline, created_at, updated_at`

func scanGoal(s rowScanner) (models.Goal, error) {
	var (
		g                      models.Goal
		target, current, start string
		deadline               sql.NullString
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &target, &current, &start, &deadline,
		&g.CreatedAt, &g.UpdatedAt); err != nil {
		return g, err
	}

	var err error
	if g.TargetAmount, err = parseAmount("target_amount", target); err != nil {
		return g, err
	}
	if g.CurrentAmount, err = parseAmount("current_amount", current); err != nil {
		return g, err
	}
	if g.StartDate, err = models.ParseDate(start); err != nil {
		return g, fmt.Errorf("start_date: %w", err)
	}
	if g.Deadline, err = parseOptionalDate("deadline", deadline); err != nil {
		return g, err
	}
	return g, nil
}

// List returns the user's goals, closest deadline first. Malformed rows are logged and skipped.
func (s *GoalService) List(ctx context.Context, userID string) ([]models.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+goalColumns+` FROM goals WHERE user_id = ?
		ORDER BY CASE WHEN deadline IS NULL THEN 1 ELSE 0 END, deadline, created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	goals := make([]models.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			log.Printf("Warning: skipping malformed goal %s: %v", g.ID, err)
			continue
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read goals: %w", err)
	}
	return goals, nil
}

func (s *GoalService) Get(ctx context.Context, userID, id string) (*models.Goal, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, notFound(err, "goal")
	}
	return &g, nil
}

func (s *GoalService) Create(ctx context.Context, userID string, input models.Goal) (*models.Goal, error) {
	g := input
	if g.StartDate.IsZero() {
		g.StartDate = models.Today()
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	now := database.Now()
	g.ID = uuid.NewString()
	g.UserID = userID
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.UserID, g.Name, g.Description, g.TargetAmount.String(), g.CurrentAmount.String(),
		g.StartDate.String(), dateValue(g.Deadline), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert goal: %w", err)
	}
	return &g, nil
}

// Update changes a goal's definition. The saved amount only moves through Deposit and Withdraw.
func (s *GoalService) Update(ctx context.Context, userID, id string, input models.Goal) (*models.Goal, error) {
	g, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	g.Name = input.Name
	g.Description = input.Description
	g.TargetAmount = input.TargetAmount
	g.Deadline = input.Deadline
	if !input.StartDate.IsZero() {
		g.StartDate = input.StartDate
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.UpdatedAt = database.Now()

	_, err = s.db.ExecContext(ctx, `
		UPDATE goals SET name = ?, description = ?, target_amount = ?, start_date = ?, deadline = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, g.Name, g.Description, g.TargetAmount.String(), g.StartDate.String(), dateValue(g.Deadline), g.UpdatedAt,
		id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return g, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *GoalService) Deposit(ctx context.Context, userID, id string, amount decimal.Decimal) (*models.Goal, error) {
	return s.move(ctx, userID, id, func(g *models.Goal) error { return g.Deposit(amount) })
}

func (s *GoalService) Withdraw(ctx context.Context, userID, id string, amount decimal.Decimal) (*models.Goal, error) {
	return s.move(ctx, userID, id, func(g *models.Goal) error { return g.Withdraw(amount) })
}

// move applies change to the stored goal inside a transaction and announces a newly
// completed goal.
func (s *GoalService) move(ctx context.Context, userID, id string, change func(*models.Goal) error) (*models.Goal, error) {
	var (
		goal         models.Goal
		wasCompleted bool
	)
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		g, err := scanGoal(tx.QueryRowContext(ctx,
			tx.ForUpdate(`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`), id, userID))
		if err != nil {
			return notFound(err, "goal")
		}
		wasCompleted = g.Completed()
		if err := change(&g); err != nil {
			return err
		}
		g.UpdatedAt = database.Now()

		if _, err := tx.ExecContext(ctx,
			`UPDATE goals SET current_amount = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
			g.CurrentAmount.String(), g.UpdatedAt, id, userID); err != nil {
			return fmt.Errorf("failed to update goal balance: %w", err)
		}
		goal = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !wasCompleted && goal.Completed() {
		s.events.Notify(ctx, userID, notify.GoalCompleted{Goal: goal})
	}
	return &goal, nil
}
