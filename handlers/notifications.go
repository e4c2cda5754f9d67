package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/notify"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/security"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	settings, err := h.notifications.Settings(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var input models.NotificationSettings
	if !decodeJSON(w, r, &input) {
		return
	}
	settings, err := h.notifications.UpdateSettings(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// SendTest delivers a sample message so users can check their number.
func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	msg, err := h.notifications.SendTest(r.Context(), userID)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			writeError(w, r, err)
			return
		}
		http.Error(w, "Failed to send test notification: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"to": msg.To, "body": msg.Body})
}

// GetWhatsAppConfig never returns the token, only a placeholder when one is stored.
func (h *NotificationHandler) GetWhatsAppConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.notifications.WhatsAppConfig(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, maskToken(cfg))
}

func (h *NotificationHandler) UpdateWhatsAppConfig(w http.ResponseWriter, r *http.Request) {
	var input models.WhatsAppConfig
	if !decodeJSON(w, r, &input) {
		return
	}
	cfg, err := h.notifications.UpdateWhatsAppConfig(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, maskToken(cfg))
}

func maskToken(cfg *models.WhatsAppConfig) *models.WhatsAppConfig {
	cfg.AccessToken = ""
	if cfg.HasCredentials {
		cfg.AccessToken = security.MaskedSecret
	}
	return cfg
}

func (h *NotificationHandler) GetTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.notifications.Templates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *NotificationHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Body string `json:"body"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	t, err := h.notifications.UpdateTemplate(r.Context(), notify.EventType(mux.Vars(r)["event"]), input.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
