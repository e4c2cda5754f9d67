package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/notify"
	"github.com/shopspring/decimal"
)

// EventSink receives domain events for a user. Delivery problems are the sink's concern;
// callers never fail because a notification could not be sent.
type EventSink interface {
	Notify(ctx context.Context, userID string, event notify.Event)
}

type discardEvents struct{}

func (discardEvents) Notify(context.Context, string, notify.Event) {}

func sinkOrDiscard(events EventSink) EventSink {
	if events == nil {
		return discardEvents{}
	}
	return events
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid amount %q", field, raw)
	}
	return d, nil
}

func parseOptionalDate(field string, raw sql.NullString) (*models.Date, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw.String)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &d, nil
}

// dateValue is the storage form of an optional date.
func dateValue(d *models.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// notFound maps sql.ErrNoRows to models.ErrNotFound and wraps anything else.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
