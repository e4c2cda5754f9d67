package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
	"github.com/shopspring/decimal"
)

type PeaceFundHandler struct {
	funds *services.PeaceFundService
}

func NewPeaceFundHandler(funds *services.PeaceFundService) *PeaceFundHandler {
	return &PeaceFundHandler{funds: funds}
}

type peaceFundResponse struct {
	models.PeaceFund
	Progress       float64 `json:"progress"`
	MonthsToTarget int     `json:"monthsToTarget"`
}

type movementResponse struct {
	Fund     peaceFundResponse        `json:"fund"`
	Movement models.PeaceFundMovement `json:"movement"`
}

func newPeaceFundResponse(f models.PeaceFund) peaceFundResponse {
	return peaceFundResponse{PeaceFund: f, Progress: f.Progress(), MonthsToTarget: f.MonthsToTarget()}
}

func (h *PeaceFundHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	f, err := h.funds.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPeaceFundResponse(*f))
}

func (h *PeaceFundHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var input models.PeaceFund
	if !decodeJSON(w, r, &input) {
		return
	}
	f, err := h.funds.Update(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPeaceFundResponse(*f))
}

func (h *PeaceFundHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.funds.Deposit)
}

func (h *PeaceFundHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.funds.Withdraw)
}

func (h *PeaceFundHandler) move(w http.ResponseWriter, r *http.Request,
	apply func(context.Context, string, decimal.Decimal, string) (*models.PeaceFund, *models.PeaceFundMovement, error)) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, m, err := apply(r.Context(), userID, req.Amount, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movementResponse{Fund: newPeaceFundResponse(*f), Movement: *m})
}

// Movements handles GET /peace-fund/movements?limit=n.
func (h *PeaceFundHandler) Movements(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative number", http.StatusBadRequest)
			return
		}
		limit = n
	}
	movements, err := h.funds.Movements(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movements)
}
