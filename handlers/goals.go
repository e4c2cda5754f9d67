package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
	"github.com/shopspring/decimal"
)

type GoalHandler struct {
	goals *services.GoalService
}

func NewGoalHandler(goals *services.GoalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

// amountRequest is the body of deposit and withdraw calls.
type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

type goalResponse struct {
	models.Goal
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
}

func newGoalResponse(g models.Goal) goalResponse {
	return goalResponse{Goal: g, Progress: g.Progress(), Completed: g.Completed()}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	goals, err := h.goals.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	g, err := h.goals.Get(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalResponse(*g))
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var input models.Goal
	if !decodeJSON(w, r, &input) {
		return
	}
	g, err := h.goals.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGoalResponse(*g))
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var input models.Goal
	if !decodeJSON(w, r, &input) {
		return
	}
	g, err := h.goals.Update(r.Context(), userID, mux.Vars(r)["id"], input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalResponse(*g))
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.goals.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.goals.Deposit)
}

func (h *GoalHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.goals.Withdraw)
}

func (h *GoalHandler) move(w http.ResponseWriter, r *http.Request,
	apply func(context.Context, string, string, decimal.Decimal) (*models.Goal, error)) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := apply(r.Context(), userID, mux.Vars(r)["id"], req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalResponse(*g))
}
