package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/database"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/notify"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/security"
	"github.com/shopspring/decimal"
)

const deliveryTimeout = 15 * time.Second

// NotificationService renders events with the user's templates and hands them to a Notifier.
// It is the EventSink used by the other services.
type NotificationService struct {
	db            *database.DB
	cipher        *security.Cipher
	notifier      notify.Notifier
	needsPhone    bool
	defaultAPIURL string
	defaults      map[notify.EventType]string
	pending       sync.WaitGroup
}

// NewNotificationService logs messages until SetNotifier installs a real channel. cipher may be
// nil, in which case WhatsApp credentials cannot be stored.
func NewNotificationService(db *database.DB, cipher *security.Cipher, defaultAPIURL string) (*NotificationService, error) {
	defaults, err := notify.DefaultTemplates()
	if err != nil {
		return nil, err
	}
	return &NotificationService{
		db:            db,
		cipher:        cipher,
		notifier:      notify.LogNotifier{},
		defaultAPIURL: defaultAPIURL,
		defaults:      defaults,
	}, nil
}

// SetNotifier switches the delivery channel. Messages without a phone number are dropped
// when the channel is WhatsApp.
func (s *NotificationService) SetNotifier(n notify.Notifier) {
	s.notifier = n
	_, s.needsPhone = n.(*notify.WhatsAppNotifier)
}

// Notify delivers event to userID in the background when their settings ask for it. It
// returns at once and delivery is detached from ctx's cancellation. Failures are logged.
func (s *NotificationService) Notify(ctx context.Context, userID string, event notify.Event) {
	detached := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if _, err := s.deliver(detached, userID, event, false); err != nil {
			log.Printf("Warning: %s notification for user %s not delivered: %v", event.Type(), userID, err)
		}
	}()
}

// Wait blocks until every notification queued by Notify has been sent or has failed.
func (s *NotificationService) Wait() {
	s.pending.Wait()
}

// SendTest delivers a sample transaction notification regardless of the event toggles.
func (s *NotificationService) SendTest(ctx context.Context, userID string) (*notify.Message, error) {
	sample := notify.TransactionCreated{Transaction: models.Transaction{
		Description: "Test notification",
		Category:    "Test",
		Amount:      decimal.NewFromInt(1),
		Type:        models.TransactionIncome,
		Date:        models.Today(),
	}}
	return s.deliver(ctx, userID, sample, true)
}

func (s *NotificationService) deliver(ctx context.Context, userID string, event notify.Event, force bool) (*notify.Message, error) {
	settings, err := s.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !force && !settings.Wants(string(event.Type())) {
		return nil, nil
	}

	user, err := getUser(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	to := settings.WhatsAppNumber
	if to == "" {
		to = user.Phone
	}
	if to == "" && s.needsPhone {
		return nil, &models.ValidationError{Field: "whatsappNumber", Message: "no WhatsApp number configured"}
	}

	template, err := s.Template(ctx, event.Type())
	if err != nil {
		return nil, err
	}
	payload := event.Payload()
	payload["name"] = user.DisplayName()
	msg := notify.Message{To: to, Body: notify.Render(template.Body, payload), Event: event.Type()}

	sendCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()
	if err := s.notifier.Send(sendCtx, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Settings returns the user's notification settings; users who never saved any get
// notifications disabled.
func (s *NotificationService) Settings(ctx context.Context, userID string) (*models.NotificationSettings, error) {
	var (
		settings = models.NotificationSettings{UserID: userID, Events: []string{}}
		events   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT enabled, whatsapp_number, events, updated_at FROM notification_settings WHERE user_id = ?
	`, userID).Scan(&settings.Enabled, &settings.WhatsAppNumber, &events, &settings.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification settings: %w", err)
	}
	settings.Events = splitEvents(events)
	return &settings, nil
}

func (s *NotificationService) UpdateSettings(ctx context.Context, userID string, input models.NotificationSettings) (*models.NotificationSettings, error) {
	for _, e := range input.Events {
		if !notify.EventType(e).Valid() {
			return nil, &models.ValidationError{Field: "events", Message: "unknown event: " + e}
		}
	}

	settings := models.NotificationSettings{
		UserID:         userID,
		Enabled:        input.Enabled,
		WhatsAppNumber: strings.TrimSpace(input.WhatsAppNumber),
		Events:         input.Events,
		UpdatedAt:      database.Now(),
	}
	if settings.Events == nil {
		settings.Events = []string{}
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_settings (user_id, enabled, whatsapp_number, events, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			enabled = excluded.enabled,
			whatsapp_number = excluded.whatsapp_number,
			events = excluded.events,
			updated_at = excluded.updated_at
	`, userID, settings.Enabled, settings.WhatsAppNumber, strings.Join(settings.Events, ","), settings.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to save notification settings: %w", err)
	}
	return &settings, nil
}

func splitEvents(raw string) []string {
	events := []string{}
	for _, e := range strings.Split(raw, ",") {
		if e = strings.TrimSpace(e); e != "" {
			events = append(events, e)
		}
	}
	return events
}

// Template returns the stored body for eventType, or the built-in default.
func (s *NotificationService) Template(ctx context.Context, eventType notify.EventType) (*models.MessageTemplate, error) {
	t := models.MessageTemplate{EventType: string(eventType)}
	err := s.db.QueryRowContext(ctx,
		`SELECT body, updated_at FROM message_templates WHERE event_type = ?`, string(eventType),
	).Scan(&t.Body, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		t.Body = s.defaults[eventType]
		return &t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", eventType, err)
	}
	return &t, nil
}

// Templates lists the effective template of every event type.
func (s *NotificationService) Templates(ctx context.Context) ([]models.MessageTemplate, error) {
	templates := make([]models.MessageTemplate, 0, len(notify.EventTypes))
	for _, eventType := range notify.EventTypes {
		t, err := s.Template(ctx, eventType)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, nil
}

// UpdateTemplate stores a custom body. An empty body restores the default.
func (s *NotificationService) UpdateTemplate(ctx context.Context, eventType notify.EventType, body string) (*models.MessageTemplate, error) {
	if !eventType.Valid() {
		return nil, &models.ValidationError{Field: "eventType", Message: "unknown event: " + string(eventType)}
	}
	if strings.TrimSpace(body) == "" {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM message_templates WHERE event_type = ?`, string(eventType)); err != nil {
			return nil, fmt.Errorf("failed to reset template: %w", err)
		}
		return s.Template(ctx, eventType)
	}

	t := models.MessageTemplate{EventType: string(eventType), Body: body, UpdatedAt: database.Now()}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO message_templates (event_type, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (event_type) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, t.EventType, t.Body, t.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}
	return &t, nil
}

// WhatsAppConfig returns the stored connection settings without the token.
func (s *NotificationService) WhatsAppConfig(ctx context.Context) (*models.WhatsAppConfig, error) {
	cfg := models.WhatsAppConfig{APIURL: s.defaultAPIURL}
	var apiURL string
	err := s.db.QueryRowContext(ctx, `
		SELECT api_url, phone_number_id, access_token_encrypted, updated_at FROM whatsapp_config WHERE id = 1
	`).Scan(&apiURL, &cfg.PhoneNumberID, &cfg.EncryptedAccessToken, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load WhatsApp config: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	cfg.HasCredentials = cfg.PhoneNumberID != "" && cfg.EncryptedAccessToken != ""
	return &cfg, nil
}

// UpdateWhatsAppConfig saves the connection settings. An empty or masked token keeps the
// stored one.
func (s *NotificationService) UpdateWhatsAppConfig(ctx context.Context, input models.WhatsAppConfig) (*models.WhatsAppConfig, error) {
	current, err := s.WhatsAppConfig(ctx)
	if err != nil {
		return nil, err
	}

	encrypted := current.EncryptedAccessToken
	if token := strings.TrimSpace(input.AccessToken); token != "" && token != security.MaskedSecret {
		if s.cipher == nil {
			return nil, security.ErrNoKey
		}
		if encrypted, err = s.cipher.Encrypt(token); err != nil {
			return nil, fmt.Errorf("failed to encrypt access token: %w", err)
		}
	}

	apiURL := strings.TrimSpace(input.APIURL)
	if apiURL == "" {
		apiURL = s.defaultAPIURL
	}
	now := database.Now()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO whatsapp_config (id, api_url, phone_number_id, access_token_encrypted, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			api_url = excluded.api_url,
			phone_number_id = excluded.phone_number_id,
			access_token_encrypted = excluded.access_token_encrypted,
			updated_at = excluded.updated_at
	`, apiURL, strings.TrimSpace(input.PhoneNumberID), encrypted, now); err != nil {
		return nil, fmt.Errorf("failed to save WhatsApp config: %w", err)
	}
	log.Printf("WhatsApp configuration updated (phone number id %s)", input.PhoneNumberID)
	return s.WhatsAppConfig(ctx)
}

// WhatsAppCredentials decrypts the stored token for the WhatsApp notifier.
func (s *NotificationService) WhatsAppCredentials(ctx context.Context) (notify.WhatsAppCredentials, error) {
	cfg, err := s.WhatsAppConfig(ctx)
	if err != nil {
		return notify.WhatsAppCredentials{}, err
	}
	creds := notify.WhatsAppCredentials{APIURL: cfg.APIURL, PhoneNumberID: cfg.PhoneNumberID}
	if cfg.EncryptedAccessToken == "" {
		return creds, nil
	}
	if s.cipher == nil {
		return creds, security.ErrNoKey
	}
	if creds.AccessToken, err = s.cipher.Decrypt(cfg.EncryptedAccessToken); err != nil {
		return creds, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return creds, nil
}
