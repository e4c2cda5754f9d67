package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when the WhatsApp integration has no credentials.
var ErrNotConfigured = errors.New("whatsapp integration is not configured")

// WhatsAppCredentials address the WhatsApp Cloud API.
type WhatsAppCredentials struct {
	APIURL        string
	PhoneNumberID string
	AccessToken   string
}

// CredentialSource yields the current credentials; admins can change them at runtime.
type CredentialSource interface {
	WhatsAppCredentials(ctx context.Context) (WhatsAppCredentials, error)
}

// WhatsAppNotifier sends text messages through the WhatsApp Cloud API.
type WhatsAppNotifier struct {
	credentials CredentialSource
	client      *http.Client
}

func NewWhatsAppNotifier(credentials CredentialSource, client *http.Client) *WhatsAppNotifier {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WhatsAppNotifier{credentials: credentials, client: client}
}

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

func (n *WhatsAppNotifier) Send(ctx context.Context, msg Message) error {
	creds, err := n.credentials.WhatsAppCredentials(ctx)
	if err != nil {
		return fmt.Errorf("error loading WhatsApp credentials: %w", err)
	}
	if creds.APIURL == "" || creds.PhoneNumberID == "" || creds.AccessToken == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(whatsAppRequest{
		MessagingProduct: "whatsapp",
		To:               normalizePhone(msg.To),
		Type:             "text",
		Text:             whatsAppText{Body: msg.Body},
	})
	if err != nil {
		return fmt.Errorf("error encoding message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(creds.APIURL, "/"), creds.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", creds.AccessToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request to WhatsApp API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("WhatsApp API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// normalizePhone keeps only digits; the Cloud API expects the international number without "+".
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
