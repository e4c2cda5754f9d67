package handlers

import (
	"bytes"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/export"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/ledger"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
)

type TransactionHandler struct {
	transactions *services.TransactionService
	filters      *services.FilterService
}

func NewTransactionHandler(transactions *services.TransactionService, filters *services.FilterService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, filters: filters}
}

type createTransactionResponse struct {
	Transaction models.Transaction   `json:"transaction"`
	Occurrences []models.Transaction `json:"occurrences"`
}

type changeResponse struct {
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Affected    int                 `json:"affected"`
}

// parseFilter reads startDate, endDate, type, category and search from the query string.
// filterId loads a saved filter instead.
func (h *TransactionHandler) parseFilter(r *http.Request, userID string) (ledger.FilterSpec, error) {
	q := r.URL.Query()
	if id := q.Get("filterId"); id != "" {
		saved, err := h.filters.Get(r.Context(), userID, id)
		if err != nil {
			return ledger.FilterSpec{}, err
		}
		return services.DecodeFilterConfig(saved.FilterConfig)
	}
	return filterFromQuery(q)
}

func filterFromQuery(q url.Values) (ledger.FilterSpec, error) {
	f := ledger.FilterSpec{
		Type:       models.TransactionType(strings.ToLower(q.Get("type"))),
		Category:   q.Get("category"),
		SearchTerm: q.Get("search"),
	}
	for _, bound := range []struct {
		param string
		dest  **models.Date
	}{
		{"startDate", &f.StartDate},
		{"endDate", &f.EndDate},
	} {
		raw := q.Get(bound.param)
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			return f, &models.ValidationError{Field: bound.param, Message: err.Error()}
		}
		*bound.dest = &d
	}
	return f, f.Validate()
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	f, err := h.parseFilter(r, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transactions, err := h.transactions.ListFiltered(r.Context(), userID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	t, err := h.transactions.Get(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var input models.Transaction
	if !decodeJSON(w, r, &input) {
		return
	}

	t, occurrences, err := h.transactions.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if occurrences == nil {
		occurrences = []models.Transaction{}
	}
	writeJSON(w, http.StatusCreated, createTransactionResponse{Transaction: *t, Occurrences: occurrences})
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	scope, err := services.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var input models.Transaction
	if !decodeJSON(w, r, &input) {
		return
	}

	t, affected, err := h.transactions.Update(r.Context(), userID, mux.Vars(r)["id"], input, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changeResponse{Transaction: t, Affected: affected})
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	scope, err := services.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := h.transactions.Delete(r.Context(), userID, mux.Vars(r)["id"], scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changeResponse{Affected: deleted})
}

func (h *TransactionHandler) UniqueFields(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	fields, err := h.transactions.UniqueFields(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// Export downloads the filtered transactions as csv, xlsx or pdf.
func (h *TransactionHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.parseFilter(r, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transactions, err := h.transactions.ListFiltered(r.Context(), userID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := time.Now()
	var buf bytes.Buffer
	if err := export.Write(&buf, format, transactions, export.Options{GeneratedAt: now}); err != nil {
		writeError(w, r, err)
		return
	}

	log.Printf("Exported %d transactions for user %s as %s", len(transactions), userID, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(now)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
