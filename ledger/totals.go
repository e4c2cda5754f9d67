package ledger

import (
	"sort"
	"time"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
	"github.com/shopspring/decimal"
)

// UncategorizedLabel groups transactions saved without a category.
const UncategorizedLabel = "Uncategorized"

// TotalByType sums the amounts of transactions of type typ whose date falls in period.
func TotalByType(all []models.Transaction, typ models.TransactionType, period Period, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, t := range all {
		if t.Type == typ && period.Contains(t.Date, now) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// CurrentBalance is income minus expenses over every transaction, regardless of date.
func CurrentBalance(all []models.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, t := range all {
		balance = balance.Add(t.SignedAmount())
	}
	return balance
}

// Summary is the dashboard header: totals for a period next to the all-time balance.
type Summary struct {
	Period           Period          `json:"period"`
	Income           decimal.Decimal `json:"income"`
	Expense          decimal.Decimal `json:"expense"`
	Net              decimal.Decimal `json:"net"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transactionCount"`
}

func Summarize(all []models.Transaction, period Period, now time.Time) Summary {
	s := Summary{
		Period:  period,
		Income:  TotalByType(all, models.TransactionIncome, period, now),
		Expense: TotalByType(all, models.TransactionExpense, period, now),
		Balance: CurrentBalance(all),
	}
	s.Net = s.Income.Sub(s.Expense)
	for _, t := range all {
		if period.Contains(t.Date, now) {
			s.TransactionCount++
		}
	}
	return s
}

// CategoryTotal is the sum of one category's transactions of a single type.
type CategoryTotal struct {
	Category string                 `json:"category"`
	Type     models.TransactionType `json:"type"`
	Total    decimal.Decimal        `json:"total"`
	Count    int                    `json:"count"`
}

// TotalsByCategory groups transactions of type typ by category, largest total first.
func TotalsByCategory(all []models.Transaction, typ models.TransactionType) []CategoryTotal {
	byName := make(map[string]*CategoryTotal)
	for _, t := range all {
		if t.Type != typ {
			continue
		}
		name := t.Category
		if name == "" {
			name = UncategorizedLabel
		}
		ct, ok := byName[name]
		if !ok {
			ct = &CategoryTotal{Category: name, Type: typ, Total: decimal.Zero}
			byName[name] = ct
		}
		ct.Total = ct.Total.Add(t.Amount)
		ct.Count++
	}

	totals := make([]CategoryTotal, 0, len(byName))
	for _, ct := range byName {
		totals = append(totals, *ct)
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Total.Cmp(totals[j].Total); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}
