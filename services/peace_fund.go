package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/notify"
	"github.com/shopspring/decimal"
)

// querier is implemented by *database.DB and *database.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PeaceFundService struct {
	db     *database.DB
	events EventSink
}

func NewPeaceFundService(db *database.DB, events EventSink) *PeaceFundService {
	return &PeaceFundService{db: db, events: sinkOrDiscard(events)}
}

const peaceFundColumns = `id, user_id, target_amount, current_amount, monthly_contribution, created_at, updated_at`

func scanPeaceFund(s rowScanner) (models.PeaceFund, error) {
	var (
		f                             models.PeaceFund
		target, current, contribution string
	)
	if err := s.Scan(&f.ID, &f.UserID, &target, &current, &contribution, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return f, err
	}
	var err error
	if f.TargetAmount, err = parseAmount("target_amount", target); err != nil {
		return f, err
	}
	if f.CurrentAmount, err = parseAmount("current_amount", current); err != nil {
		return f, err
	}
	if f.MonthlyContribution, err = parseAmount("monthly_contribution", contribution); err != nil {
		return f, err
	}
	return f, nil
}

// getOrCreate loads the user's fund, creating an empty one on first use.
func getOrCreate(ctx context.Context, q querier, userID string) (*models.PeaceFund, error) {
	query := `SELECT ` + peaceFundColumns + ` FROM peace_funds WHERE user_id = ?`
	if tx, ok := q.(*database.Tx); ok {
		query = tx.ForUpdate(query)
	}
	f, err := scanPeaceFund(q.QueryRowContext(ctx, query, userID))
	if err == nil {
		return &f, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load peace fund: %w", err)
	}

	now := database.Now()
	f = models.PeaceFund{
		ID:                  uuid.NewString(),
		UserID:              userID,
		TargetAmount:        decimal.Zero,
		CurrentAmount:       decimal.Zero,
		MonthlyContribution: decimal.Zero,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if _, err := q.ExecContext(ctx, `
		INSERT INTO peace_funds (`+peaceFundColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.UserID, "0", "0", "0", f.CreatedAt, f.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create peace fund: %w", err)
	}
	log.Printf("Created peace fund for user %s", userID)
	return &f, nil
}

// Get returns the user's peace fund.
func (s *PeaceFundService) Get(ctx context.Context, userID string) (*models.PeaceFund, error) {
	return getOrCreate(ctx, s.db, userID)
}

// Update sets the fund's target and planned monthly contribution.
func (s *PeaceFundService) Update(ctx context.Context, userID string, input models.PeaceFund) (*models.PeaceFund, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var fund *models.PeaceFund
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		f, err := getOrCreate(ctx, tx, userID)
		if err != nil {
			return err
		}
		f.TargetAmount = input.TargetAmount
		f.MonthlyContribution = input.MonthlyContribution
		f.UpdatedAt = database.Now()

		if _, err := tx.ExecContext(ctx, `
			UPDATE peace_funds SET target_amount = ?, monthly_contribution = ?, updated_at = ? WHERE id = ?
		`, f.TargetAmount.String(), f.MonthlyContribution.String(), f.UpdatedAt, f.ID); err != nil {
			return fmt.Errorf("failed to update peace fund: %w", err)
		}
		fund = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fund, nil
}

func (s *PeaceFundService) Deposit(ctx context.Context, userID string, amount decimal.Decimal, note string) (*models.PeaceFund, *models.PeaceFundMovement, error) {
	return s.move(ctx, userID, models.MovementDeposit, amount, note)
}

// Withdraw takes money out of the fund; it fails with models.ErrInsufficientFunds when the
// fund holds less than amount.
func (s *PeaceFundService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, note string) (*models.PeaceFund, *models.PeaceFundMovement, error) {
	return s.move(ctx, userID, models.MovementWithdrawal, amount, note)
}

func (s *PeaceFundService) move(ctx context.Context, userID string, kind models.MovementKind, amount decimal.Decimal, note string) (*models.PeaceFund, *models.PeaceFundMovement, error) {
	var (
		fund     *models.PeaceFund
		movement models.PeaceFundMovement
	)
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		f, err := getOrCreate(ctx, tx, userID)
		if err != nil {
			return err
		}

		if kind == models.MovementWithdrawal {
			err = f.Withdraw(amount)
		} else {
			err = f.Deposit(amount)
		}
		if err != nil {
			return err
		}

		now := database.Now()
		f.UpdatedAt = now
		if _, err := tx.ExecContext(ctx,
			`UPDATE peace_funds SET current_amount = ?, updated_at = ? WHERE id = ?`,
			f.CurrentAmount.String(), now, f.ID); err != nil {
			return fmt.Errorf("failed to update peace fund balance: %w", err)
		}

		movement = models.PeaceFundMovement{
			ID:           uuid.NewString(),
			FundID:       f.ID,
			UserID:       userID,
			Kind:         kind,
			Amount:       amount,
			BalanceAfter: f.CurrentAmount,
			Note:         note,
			Date:         models.DateOf(now),
			CreatedAt:    now,
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO peace_fund_movements (id, fund_id, user_id, kind, amount, balance_after, note, date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, movement.ID, movement.FundID, movement.UserID, string(movement.Kind), movement.Amount.String(),
			movement.BalanceAfter.String(), movement.Note, movement.Date.String(), movement.CreatedAt); err != nil {
			return fmt.Errorf("failed to record peace fund movement: %w", err)
		}

		fund = f
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.events.Notify(ctx, userID, notify.PeaceFundMovement{Fund: *fund, Movement: movement})
	return fund, &movement, nil
}

// Movements returns the fund's history, newest first. limit <= 0 returns everything.
func (s *PeaceFundService) Movements(ctx context.Context, userID string, limit int) ([]models.PeaceFundMovement, error) {
	query := `
		SELECT id, fund_id, user_id, kind, amount, balance_after, note, date, created_at
		FROM peace_fund_movements WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query peace fund movements: %w", err)
	}
	defer rows.Close()

	movements := make([]models.PeaceFundMovement, 0)
	for rows.Next() {
		var (
			m                     models.PeaceFundMovement
			kind, amount, balance string
			date                  string
		)
		if err := rows.Scan(&m.ID, &m.FundID, &m.UserID, &kind, &amount, &balance, &m.Note, &date, &m.CreatedAt); err != nil {
			log.Printf("Warning: skipping unreadable peace fund movement: %v", err)
			continue
		}
		m.Kind = models.MovementKind(kind)
		m.Amount, err = parseAmount("amount", amount)
		if err == nil {
			m.BalanceAfter, err = parseAmount("balance_after", balance)
		}
		if err == nil {
			m.Date, err = models.ParseDate(date)
		}
		if err != nil {
			log.Printf("Warning: skipping malformed peace fund movement %s: %v", m.ID, err)
			continue
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read peace fund movements: %w", err)
	}
	return movements, nil
}
