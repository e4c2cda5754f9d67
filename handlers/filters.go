package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
)

type FilterHandler struct {
	filters *services.FilterService
}

func NewFilterHandler(filters *services.FilterService) *FilterHandler {
	return &FilterHandler{filters: filters}
}

// GetSavedFilters returns all saved filters for the current user
func (h *FilterHandler) GetSavedFilters(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	filters, err := h.filters.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filters)
}

// GetSavedFilter returns a specific saved filter
func (h *FilterHandler) GetSavedFilter(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	filter, err := h.filters.Get(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filter)
}

// CreateSavedFilter creates a new saved filter
func (h *FilterHandler) CreateSavedFilter(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var input models.SavedFilter
	if !decodeJSON(w, r, &input) {
		return
	}
	filter, err := h.filters.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, filter)
}

// UpdateSavedFilter updates an existing saved filter
func (h *FilterHandler) UpdateSavedFilter(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var input models.SavedFilter
	if !decodeJSON(w, r, &input) {
		return
	}
	filter, err := h.filters.Update(r.Context(), userID, mux.Vars(r)["id"], input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filter)
}

// DeleteSavedFilter deletes a saved filter
func (h *FilterHandler) DeleteSavedFilter(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.filters.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
