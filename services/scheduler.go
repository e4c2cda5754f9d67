package services

import (
	"context"
	"log"
	"time"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/notify"
)

// Scheduler sends the daily reminders for recurring transactions.
type Scheduler struct {
	transactions *TransactionService
	events       EventSink
}

func NewScheduler(transactions *TransactionService, events EventSink) *Scheduler {
	return &Scheduler{transactions: transactions, events: sinkOrDiscard(events)}
}

// Start runs the scheduler in the background until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Println("Starting task scheduler...")
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		// Calculate time until midnight
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		timeUntilMidnight := midnight.Sub(now)

		log.Printf("Next recurring reminder run scheduled in %v", timeUntilMidnight)

		timer := time.NewTimer(timeUntilMidnight)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("Task scheduler stopped")
			return
		case <-timer.C:
		}

		log.Println("Running scheduled recurring reminders...")
		if _, err := s.RunDue(ctx, models.Today()); err != nil {
			log.Printf("Error sending recurring reminders: %v", err)
		}

		// Small delay to ensure we don't run multiple times if execution is very quick
		time.Sleep(time.Second)
	}
}

// RunDue notifies the owner of every series transaction dated day and returns how many
// reminders were sent.
func (s *Scheduler) RunDue(ctx context.Context, day models.Date) (int, error) {
	due, err := s.transactions.DueOn(ctx, day)
	if err != nil {
		return 0, err
	}
	for _, t := range due {
		s.events.Notify(ctx, t.UserID, notify.RecurringDue{Transaction: t})
	}
	log.Printf("Sent %d recurring reminders for %s", len(due), day)
	return len(due), nil
}
