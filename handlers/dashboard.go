package handlers

import (
	"net/http"
	"time"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/ledger"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
)

type DashboardHandler struct {
	transactions *services.TransactionService
	now          func() time.Time
}

func NewDashboardHandler(transactions *services.TransactionService) *DashboardHandler {
	return &DashboardHandler{transactions: transactions, now: time.Now}
}

type dashboardSummary struct {
	ledger.Summary
	Overall           ledger.Summary         `json:"overall"`
	ExpenseCategories []ledger.CategoryTotal `json:"expenseCategories"`
	IncomeCategories  []ledger.CategoryTotal `json:"incomeCategories"`
}

// Summary handles GET /dashboard/summary?period=today|week|month|year|all. The category
// breakdown covers the same period.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	period, valid := ledger.ParsePeriod(r.URL.Query().Get("period"))
	if !valid {
		writeError(w, r, &models.ValidationError{Field: "period", Message: "period must be today, week, month, year or all"})
		return
	}

	all, err := h.transactions.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := h.now()
	inPeriod := make([]models.Transaction, 0, len(all))
	for _, t := range all {
		if period.Contains(t.Date, now) {
			inPeriod = append(inPeriod, t)
		}
	}

	writeJSON(w, http.StatusOK, dashboardSummary{
		Summary:           ledger.Summarize(all, period, now),
		Overall:           ledger.Summarize(all, ledger.PeriodNone, now),
		ExpenseCategories: ledger.TotalsByCategory(inPeriod, models.TransactionExpense),
		IncomeCategories:  ledger.TotalsByCategory(inPeriod, models.TransactionIncome),
	})
}
