package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/middleware"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/security"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError maps service errors to status codes. Unexpected errors are logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, models.ErrForbidden):
		http.Error(w, "Forbidden: "+err.Error(), http.StatusForbidden)
	case errors.Is(err, models.ErrInsufficientFunds):
		http.Error(w, "Insufficient funds", http.StatusConflict)
	case errors.Is(err, security.ErrNoKey):
		log.Printf("Error handling %s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "Encryption is not configured", http.StatusServiceUnavailable)
	default:
		log.Printf("Error handling %s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

const maxBodyBytes = 1 << 20

func jsonDecoder(r *http.Request) *json.Decoder {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := jsonDecoder(r).Decode(v); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// requireUser returns the authenticated user id, answering 401 when there is none.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// HealthCheck answers load balancer probes.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
