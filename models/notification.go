package models

import "time"

// NotificationSettings controls which events are delivered to a user and where.
type NotificationSettings struct {
	UserID         string    `json:"userId"`
	Enabled        bool      `json:"enabled"`
	WhatsAppNumber string    `json:"whatsappNumber,omitempty"`
	Events         []string  `json:"events"` // empty means every event
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Wants reports whether eventType should be delivered under these settings.
func (s NotificationSettings) Wants(eventType string) bool {
	if !s.Enabled {
		return false
	}
	if len(s.Events) == 0 {
		return true
	}
	for _, e := range s.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

// WhatsAppConfig is the admin-managed connection to the WhatsApp Cloud API.
type WhatsAppConfig struct {
	APIURL               string    `json:"apiUrl"`
	PhoneNumberID        string    `json:"phoneNumberId"`
	AccessToken          string    `json:"accessToken,omitempty"` // input only, never echoed back
	EncryptedAccessToken string    `json:"-"`
	HasCredentials       bool      `json:"hasCredentials"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// MessageTemplate is the text sent for one event type. Placeholders look like {{amount}}.
type MessageTemplate struct {
	EventType string    `json:"eventType"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}
