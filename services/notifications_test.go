package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/notify"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/security"
)

func newTestNotificationService(t *testing.T) (*NotificationService, *recordingNotifier) {
	t.Helper()
	db := setupTestDB(t)
	cipher, err := security.NewCipher("test-encryption-key")
	if err != nil {
		t.Fatal(err)
	}
	svc, err := NewNotificationService(db, cipher, "https://graph.facebook.com/v19.0")
	if err != nil {
		t.Fatalf("Failed to create notification service: %v", err)
	}
	n := &recordingNotifier{}
	svc.SetNotifier(n)
	return svc, n
}

func TestNotifyRespectsSettings(t *testing.T) {
	svc, sent := newTestNotificationService(t)
	ctx := context.Background()
	event := notify.TransactionCreated{Transaction: models.Transaction{
		Description: "Coffee",
		Category:    "Food",
		Amount:      amount("4.5"),
		Type:        models.TransactionExpense,
		Date:        date(2024, time.May, 2),
	}}

	// Nothing saved yet: notifications are off.
	svc.Notify(ctx, testUserID, event)
	svc.Wait()
	if len(sent.messages) != 0 {
		t.Fatalf("Expected no message while disabled, got %d", len(sent.messages))
	}

	_, err := svc.UpdateSettings(ctx, testUserID, models.NotificationSettings{
		Enabled: true,
		Events:  []string{string(notify.EventTransactionCreated)},
	})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	svc.Notify(ctx, testUserID, event)
	svc.Wait()
	if len(sent.messages) != 1 {
		t.Fatalf("Expected one message, got %d", len(sent.messages))
	}
	msg := sent.messages[0]
	if msg.To != "5511999990000" {
		t.Errorf("Expected the profile phone as recipient, got %s", msg.To)
	}
	if !strings.Contains(msg.Body, "Ana") || !strings.Contains(msg.Body, "4.50") || !strings.Contains(msg.Body, "Coffee") {
		t.Errorf("Unexpected body: %s", msg.Body)
	}

	// Events not toggled on are skipped.
	svc.Notify(ctx, testUserID, notify.GoalCompleted{Goal: models.Goal{Name: "Trip"}})
	svc.Wait()
	if len(sent.messages) != 1 {
		t.Errorf("Expected goal event to be filtered out")
	}
}

func TestNotifySwallowsDeliveryErrors(t *testing.T) {
	svc, sent := newTestNotificationService(t)
	ctx := context.Background()
	sent.err = errors.New("network down")

	if _, err := svc.UpdateSettings(ctx, testUserID, models.NotificationSettings{Enabled: true}); err != nil {
		t.Fatal(err)
	}
	// Must not panic or block.
	svc.Notify(ctx, testUserID, notify.RecurringDue{Transaction: models.Transaction{Description: "Rent"}})
	svc.Wait()

	if _, err := svc.SendTest(ctx, testUserID); err == nil {
		t.Error("Expected SendTest to surface the delivery error")
	}
}

// gatedNotifier holds every Send until release is closed.
type gatedNotifier struct {
	started chan struct{}
	release chan struct{}
	ctxErr  error
	sent    int
}

func (g *gatedNotifier) Send(ctx context.Context, msg notify.Message) error {
	g.started <- struct{}{}
	<-g.release
	g.ctxErr = ctx.Err()
	g.sent++
	return nil
}

func TestNotifyDoesNotWaitForDelivery(t *testing.T) {
	svc, _ := newTestNotificationService(t)
	gate := &gatedNotifier{started: make(chan struct{}, 1), release: make(chan struct{})}
	svc.SetNotifier(gate)

	if _, err := svc.UpdateSettings(context.Background(), testUserID, models.NotificationSettings{Enabled: true}); err != nil {
		t.Fatal(err)
	}

	// The triggering request finishes while the channel is still busy.
	ctx, cancel := context.WithCancel(context.Background())
	svc.Notify(ctx, testUserID, notify.RecurringDue{Transaction: models.Transaction{Description: "Rent"}})
	cancel()

	select {
	case <-gate.started:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected delivery to start in the background")
	}
	close(gate.release)
	svc.Wait()

	if gate.sent != 1 {
		t.Errorf("Expected 1 message sent, got %d", gate.sent)
	}
	if gate.ctxErr != nil {
		t.Errorf("Expected delivery context to survive the request, got %v", gate.ctxErr)
	}
}

func TestSettingsRoundTripAndValidation(t *testing.T) {
	svc, _ := newTestNotificationService(t)
	ctx := context.Background()

	settings, err := svc.Settings(ctx, otherUserID)
	if err != nil {
		t.Fatal(err)
	}
	if settings.Enabled || len(settings.Events) != 0 {
		t.Errorf("Expected disabled defaults, got %+v", settings)
	}

	if _, err := svc.UpdateSettings(ctx, otherUserID, models.NotificationSettings{Events: []string{"birthday"}}); err == nil {
		t.Error("Expected unknown event to be rejected")
	}

	_, err = svc.UpdateSettings(ctx, otherUserID, models.NotificationSettings{
		Enabled:        true,
		WhatsAppNumber: " 5511911112222 ",
		Events:         []string{"goal_completed", "recurring_due"},
	})
	if err != nil {
		t.Fatal(err)
	}
	settings, _ = svc.Settings(ctx, otherUserID)
	if settings.WhatsAppNumber != "5511911112222" || len(settings.Events) != 2 || !settings.Wants("recurring_due") {
		t.Errorf("Unexpected stored settings: %+v", settings)
	}
}

func TestTemplatesOverrideAndReset(t *testing.T) {
	svc, sent := newTestNotificationService(t)
	ctx := context.Background()

	templates, err := svc.Templates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(templates) != len(notify.EventTypes) {
		t.Errorf("Expected %d templates, got %d", len(notify.EventTypes), len(templates))
	}

	if _, err := svc.UpdateTemplate(ctx, notify.EventRecurringDue, "Pay {{description}}, {{name}}!"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateSettings(ctx, testUserID, models.NotificationSettings{Enabled: true}); err != nil {
		t.Fatal(err)
	}
	svc.Notify(ctx, testUserID, notify.RecurringDue{Transaction: models.Transaction{Description: "Rent"}})
	svc.Wait()
	if len(sent.messages) != 1 || sent.messages[0].Body != "Pay Rent, Ana!" {
		t.Errorf("Expected custom template to be used, got %+v", sent.messages)
	}

	reset, err := svc.UpdateTemplate(ctx, notify.EventRecurringDue, "  ")
	if err != nil {
		t.Fatal(err)
	}
	defaults, _ := notify.DefaultTemplates()
	if reset.Body != defaults[notify.EventRecurringDue] {
		t.Errorf("Expected default template after reset, got %q", reset.Body)
	}

	if _, err := svc.UpdateTemplate(ctx, "birthday", "hi"); err == nil {
		t.Error("Expected unknown event to be rejected")
	}
}

func TestWhatsAppConfigEncryptsToken(t *testing.T) {
	svc, _ := newTestNotificationService(t)
	ctx := context.Background()

	cfg, err := svc.WhatsAppConfig(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HasCredentials || cfg.APIURL != "https://graph.facebook.com/v19.0" {
		t.Errorf("Unexpected initial config: %+v", cfg)
	}

	cfg, err = svc.UpdateWhatsAppConfig(ctx, models.WhatsAppConfig{PhoneNumberID: "123", AccessToken: "secret-token"})
	if err != nil {
		t.Fatalf("UpdateWhatsAppConfig failed: %v", err)
	}
	if !cfg.HasCredentials {
		t.Error("Expected credentials to be stored")
	}
	if cfg.EncryptedAccessToken == "" || strings.Contains(cfg.EncryptedAccessToken, "secret-token") {
		t.Errorf("Expected token to be encrypted, got %q", cfg.EncryptedAccessToken)
	}

	// A masked token keeps the stored one.
	if _, err := svc.UpdateWhatsAppConfig(ctx, models.WhatsAppConfig{PhoneNumberID: "456", AccessToken: security.MaskedSecret}); err != nil {
		t.Fatal(err)
	}
	creds, err := svc.WhatsAppCredentials(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessToken != "secret-token" || creds.PhoneNumberID != "456" {
		t.Errorf("Unexpected credentials: %+v", creds)
	}
}

func TestWhatsAppChannelNeedsPhone(t *testing.T) {
	svc, _ := newTestNotificationService(t)
	ctx := context.Background()
	svc.SetNotifier(notify.NewWhatsAppNotifier(svc, nil))

	if _, err := svc.UpdateSettings(ctx, otherUserID, models.NotificationSettings{Enabled: true}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.SendTest(ctx, otherUserID)
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected missing number error, got %v", err)
	}
}

func TestSchedulerRunDue(t *testing.T) {
	db := setupTestDB(t)
	sink := &recordingSink{}
	transactions := NewTransactionService(db, nil, 2)
	ctx := context.Background()

	input := monthlyRent()
	input.Date = date(2024, time.March, 10)
	if _, _, err := transactions.Create(ctx, testUserID, input); err != nil {
		t.Fatal(err)
	}
	oneOff := input
	oneOff.IsRecurrent = false
	oneOff.Date = date(2024, time.April, 10)
	if _, _, err := transactions.Create(ctx, testUserID, oneOff); err != nil {
		t.Fatal(err)
	}

	sent, err := NewScheduler(transactions, sink).RunDue(ctx, date(2024, time.April, 10))
	if err != nil {
		t.Fatalf("RunDue failed: %v", err)
	}
	if sent != 1 {
		t.Errorf("Expected one reminder for the series occurrence, got %d", sent)
	}
	if types := sink.types(); len(types) != 1 || types[0] != notify.EventRecurringDue {
		t.Errorf("Unexpected events: %v", types)
	}
}
