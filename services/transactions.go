package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/ledger"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/notify"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/recurrence"
)

// Scope selects which members of a recurring series an update or delete touches.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeFuture Scope = "future"
)

// ParseScope accepts "single" (the default) and "future"; "all" is kept as an alias of future.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single", "this":
		return ScopeSingle, nil
	case "future", "all":
		return ScopeFuture, nil
	}
	return "", &models.ValidationError{Field: "scope", Message: "scope must be single or future"}
}

// UniqueFields are the distinct values a user has typed, for autocompletion.
type UniqueFields struct {
	Categories     []string `json:"categories"`
	PaymentMethods []string `json:"paymentMethods"`
	Contacts       []string `json:"contacts"`
}

type TransactionService struct {
	db              *database.DB
	events          EventSink
	occurrenceCount int
}

// NewTransactionService creates a service that materializes occurrenceCount future occurrences
// for each new recurring transaction.
func NewTransactionService(db *database.DB, events EventSink, occurrenceCount int) *TransactionService {
	if occurrenceCount < 1 {
		occurrenceCount = recurrence.DefaultOccurrenceCount
	}
	return &TransactionService{db: db, events: sinkOrDiscard(events), occurrenceCount: occurrenceCount}
}

const transactionColumns = `id, user_id, date, description, category, payment_method, contact, amount, type,
	is_recurrent, recurrence_frequency, recurrence_interval, recurrence_start_date, recurrence_end_date,
	parent_transaction_id, is_original, created_at, updated_at`

// transactionRow is a transactions row before validation.
type transactionRow struct {
	id, userID, date, description, category string
	paymentMethod, contact, amount, typ     string
	isRecurrent, isOriginal                 bool
	frequency                               string
	interval                                int
	startDate, endDate, parentID            sql.NullString
	createdAt, updatedAt                    time.Time
}

func scanTransactionRow(s rowScanner) (transactionRow, error) {
	var r transactionRow
	err := s.Scan(&r.id, &r.userID, &r.date, &r.description, &r.category, &r.paymentMethod, &r.contact,
		&r.amount, &r.typ, &r.isRecurrent, &r.frequency, &r.interval, &r.startDate, &r.endDate,
		&r.parentID, &r.isOriginal, &r.createdAt, &r.updatedAt)
	return r, err
}

// tryMapTransaction converts a stored row into a Transaction, rejecting rows that would
// corrupt totals or dates downstream.
func tryMapTransaction(r transactionRow) (models.Transaction, error) {
	date, err := models.ParseDate(r.date)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("date: %w", err)
	}
	amount, err := parseAmount("amount", r.amount)
	if err != nil {
		return models.Transaction{}, err
	}
	if amount.IsNegative() {
		return models.Transaction{}, fmt.Errorf("amount: negative amount %s", amount)
	}
	typ := models.TransactionType(r.typ)
	if !typ.Valid() {
		return models.Transaction{}, fmt.Errorf("type: unknown type %q", r.typ)
	}
	start, err := parseOptionalDate("recurrence_start_date", r.startDate)
	if err != nil {
		return models.Transaction{}, err
	}
	end, err := parseOptionalDate("recurrence_end_date", r.endDate)
	if err != nil {
		return models.Transaction{}, err
	}

	return models.Transaction{
		ID:                  r.id,
		UserID:              r.userID,
		Date:                date,
		Description:         r.description,
		Category:            r.category,
		PaymentMethod:       r.paymentMethod,
		Contact:             r.contact,
		Amount:              amount,
		Type:                typ,
		IsRecurrent:         r.isRecurrent,
		RecurrenceFrequency: models.RecurrenceFrequency(r.frequency),
		RecurrenceInterval:  r.interval,
		RecurrenceStartDate: start,
		RecurrenceEndDate:   end,
		ParentTransactionID: r.parentID.String,
		IsOriginal:          r.isOriginal,
		CreatedAt:           r.createdAt,
		UpdatedAt:           r.updatedAt,
	}, nil
}

// collectTransactions maps every row, logging and skipping the ones that cannot be mapped.
func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		row, err := scanTransactionRow(rows)
		if err != nil {
			log.Printf("Warning: skipping unreadable transaction row: %v", err)
			continue
		}
		t, err := tryMapTransaction(row)
		if err != nil {
			log.Printf("Warning: skipping malformed transaction %s: %v", row.id, err)
			continue
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return transactions, nil
}

// List returns all of a user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	return collectTransactions(rows)
}

// ListFiltered returns the user's transactions that match f.
func (s *TransactionService) ListFiltered(ctx context.Context, userID string, f ledger.FilterSpec) ([]models.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ledger.FilterTransactions(all, f), nil
}

// Get returns one transaction. Transactions owned by someone else are reported as not found.
func (s *TransactionService) Get(ctx context.Context, userID, id string) (*models.Transaction, error) {
	row, err := scanTransactionRow(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, notFound(err, "transaction")
	}
	t, err := tryMapTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("transaction %s is malformed: %w", id, err)
	}
	return &t, nil
}

// Create validates and saves a transaction. A recurring transaction is saved as the original
// of a new series together with its next occurrences, all in one database transaction.
func (s *TransactionService) Create(ctx context.Context, userID string, input models.Transaction) (*models.Transaction, []models.Transaction, error) {
	t := input
	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}

	now := database.Now()
	t.ID = uuid.NewString()
	t.UserID = userID
	t.ParentTransactionID = ""
	t.IsOriginal = t.IsRecurrent
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.IsRecurrent && t.RecurrenceStartDate == nil {
		start := t.Date
		t.RecurrenceStartDate = &start
	}

	occurrences := recurrence.GenerateOccurrences(t, s.occurrenceCount)
	for i := range occurrences {
		occurrences[i].ID = uuid.NewString()
		occurrences[i].CreatedAt = now
		occurrences[i].UpdatedAt = now
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}
		for _, occ := range occurrences {
			if err := insertTransaction(ctx, tx, occ); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.events.Notify(ctx, userID, notify.TransactionCreated{Transaction: t})
	if len(occurrences) > 0 {
		s.events.Notify(ctx, userID, notify.RecurringSeriesCreated{Original: t, Count: len(occurrences)})
	}
	return &t, occurrences, nil
}

func insertTransaction(ctx context.Context, tx *database.Tx, t models.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Date.String(), t.Description, t.Category, t.PaymentMethod, t.Contact,
		t.Amount.String(), string(t.Type), t.IsRecurrent, string(t.RecurrenceFrequency), t.RecurrenceInterval,
		dateValue(t.RecurrenceStartDate), dateValue(t.RecurrenceEndDate), nullString(t.ParentTransactionID),
		t.IsOriginal, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Update edits a transaction. With ScopeFuture the descriptive fields (description, amount,
// type, category, payment method, contact) are also applied to every member of the same series
// dated on or after it. It returns the updated transaction and how many rows changed.
func (s *TransactionService) Update(ctx context.Context, userID, id string, input models.Transaction, scope Scope) (*models.Transaction, int, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, 0, err
	}

	// Series settings are fixed once generated; only the editable fields come from input.
	t := *existing
	t.Date = input.Date
	t.Description = input.Description
	t.Category = input.Category
	t.PaymentMethod = input.PaymentMethod
	t.Contact = input.Contact
	t.Amount = input.Amount
	t.Type = input.Type
	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, 0, err
	}
	t.UpdatedAt = database.Now()

	var affected int64
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET date = ?, description = ?, category = ?, payment_method = ?, contact = ?, amount = ?, type = ?, updated_at = ?
			WHERE id = ? AND user_id = ?
		`, t.Date.String(), t.Description, t.Category, t.PaymentMethod, t.Contact, t.Amount.String(), string(t.Type),
			t.UpdatedAt, t.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		affected, _ = res.RowsAffected()

		if scope != ScopeFuture || !existing.InSeries() {
			return nil
		}

		root := existing.SeriesID()
		res, err = tx.ExecContext(ctx, `
			UPDATE transactions
			SET description = ?, category = ?, payment_method = ?, contact = ?, amount = ?, type = ?, updated_at = ?
			WHERE user_id = ? AND (id = ? OR parent_transaction_id = ?) AND date >= ? AND id <> ?
		`, t.Description, t.Category, t.PaymentMethod, t.Contact, t.Amount.String(), string(t.Type), t.UpdatedAt,
			userID, root, root, existing.Date.String(), t.ID)
		if err != nil {
			return fmt.Errorf("failed to update series: %w", err)
		}
		n, _ := res.RowsAffected()
		affected += n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return &t, int(affected), nil
}

// Delete removes a transaction, or with ScopeFuture every member of its series dated on or
// after it. When a series original is removed the earliest remaining occurrence takes its place.
// It returns how many rows were deleted.
func (s *TransactionService) Delete(ctx context.Context, userID, id string, scope Scope) (int, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return 0, err
	}

	var deleted int64
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		var res sql.Result
		var err error
		if scope == ScopeFuture && existing.InSeries() {
			root := existing.SeriesID()
			res, err = tx.ExecContext(ctx, `
				DELETE FROM transactions
				WHERE user_id = ? AND (id = ? OR parent_transaction_id = ?) AND date >= ?
			`, userID, root, root, existing.Date.String())
		} else {
			res, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
		}
		if err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
		deleted, _ = res.RowsAffected()

		if existing.InSeries() {
			return promoteSuccessor(ctx, tx, userID, existing.SeriesID())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("Deleted %d transaction(s) for user %s starting at %s (scope %s)", deleted, userID, id, scope)
	return int(deleted), nil
}

// promoteSuccessor keeps a series with exactly one original. If the row with id rootID is gone,
// the earliest remaining occurrence becomes the original and its siblings are re-linked to it.
func promoteSuccessor(ctx context.Context, tx *database.Tx, userID, rootID string) error {
	var rootExists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE id = ? AND user_id = ?`, rootID, userID).Scan(&rootExists); err != nil {
		return fmt.Errorf("failed to check series original: %w", err)
	}
	if rootExists > 0 {
		return nil
	}

	var successorID, successorDate string
	err := tx.QueryRowContext(ctx, `
		SELECT id, date FROM transactions
		WHERE user_id = ? AND parent_transaction_id = ?
		ORDER BY date ASC, created_at ASC, id ASC
		LIMIT 1
	`, userID, rootID).Scan(&successorID, &successorDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find series successor: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET is_original = ?, parent_transaction_id = NULL, recurrence_start_date = ?, updated_at = ?
		WHERE id = ?
	`, true, successorDate, database.Now(), successorID); err != nil {
		return fmt.Errorf("failed to promote series successor: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE transactions SET parent_transaction_id = ? WHERE user_id = ? AND parent_transaction_id = ?
	`, successorID, userID, rootID); err != nil {
		return fmt.Errorf("failed to re-link series: %w", err)
	}
	return nil
}

// UniqueFields returns the distinct non-empty categories, payment methods and contacts the user
// has recorded.
func (s *TransactionService) UniqueFields(ctx context.Context, userID string) (*UniqueFields, error) {
	fields := &UniqueFields{}
	targets := []struct {
		column string
		dest   *[]string
	}{
		{"category", &fields.Categories},
		{"payment_method", &fields.PaymentMethods},
		{"contact", &fields.Contacts},
	}
	for _, target := range targets {
		values, err := s.distinct(ctx, userID, target.column)
		if err != nil {
			return nil, err
		}
		*target.dest = values
	}
	return fields, nil
}

// distinct only ever receives column names from UniqueFields.
func (s *TransactionService) distinct(ctx context.Context, userID, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT `+column+` FROM transactions WHERE user_id = ? AND `+column+` <> '' ORDER BY `+column, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s values: %w", column, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s value: %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DueOn returns every user's series transactions dated day, for reminders.
func (s *TransactionService) DueOn(ctx context.Context, day models.Date) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE date = ? AND (is_recurrent = ? OR parent_transaction_id IS NOT NULL)
		ORDER BY user_id, created_at
	`, day.String(), true)
	if err != nil {
		return nil, fmt.Errorf("failed to query due transactions: %w", err)
	}
	return collectTransactions(rows)
}
