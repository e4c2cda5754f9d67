// Package recurrence expands a recurring transaction into its upcoming occurrences.
package recurrence

import (
	"time"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

// DefaultOccurrenceCount caps how many occurrences one invocation materializes.
const DefaultOccurrenceCount = 5

// FallbackFrequency is used for frequencies the engine does not recognize.
const FallbackFrequency = models.FrequencyMonthly

// GenerateOccurrences returns up to count copies of original, each dated one step after the
// previous one. Generation stops early once a date passes the series end date. The original
// itself is never included. Occurrences have no id, point back at original.ID and are not
// originals. Non-recurring transactions produce nothing.
func GenerateOccurrences(original models.Transaction, count int) []models.Transaction {
	if !original.IsRecurrent || original.RecurrenceFrequency == "" || count <= 0 {
		return nil
	}

	anchorDay := original.Date.Day()
	occurrences := make([]models.Transaction, 0, count)
	current := original.Date

	for i := 0; i < count; i++ {
		current = NextOccurrenceDate(current, original.RecurrenceFrequency, original.RecurrenceInterval, anchorDay)
		if original.RecurrenceEndDate != nil && current.After(*original.RecurrenceEndDate) {
			break
		}

		occurrence := original
		occurrence.ID = ""
		occurrence.Date = current
		occurrence.ParentTransactionID = original.ID
		occurrence.IsOriginal = false
		occurrence.RecurrenceStartDate = copyDate(original.RecurrenceStartDate)
		occurrence.RecurrenceEndDate = copyDate(original.RecurrenceEndDate)

		occurrences = append(occurrences, occurrence)
	}

	return occurrences
}

// NextOccurrenceDate advances from by one step of freq. interval is only read for custom
// frequencies and is raised to one day when smaller. Month and year steps land on anchorDay,
// clamped to the last day of shorter months, so a series started on the 31st visits every
// month-end instead of drifting. An anchorDay below 1 means "use from's day".
func NextOccurrenceDate(from models.Date, freq models.RecurrenceFrequency, interval int, anchorDay int) models.Date {
	switch EffectiveFrequency(freq) {
	case models.FrequencyDaily:
		return from.AddDays(1)
	case models.FrequencyWeekly:
		return from.AddDays(7)
	case models.FrequencyBiweekly:
		return from.AddDays(14)
	case models.FrequencyCustom:
		if interval < 1 {
			interval = 1
		}
		return from.AddDays(interval)
	case models.FrequencyYearly:
		return addMonthsClamped(from, 12, anchorDay)
	default:
		return addMonthsClamped(from, 1, anchorDay)
	}
}

// EffectiveFrequency maps unknown frequencies to FallbackFrequency.
func EffectiveFrequency(freq models.RecurrenceFrequency) models.RecurrenceFrequency {
	if freq.Valid() {
		return freq
	}
	return FallbackFrequency
}

func addMonthsClamped(from models.Date, months int, anchorDay int) models.Date {
	if anchorDay < 1 {
		anchorDay = from.Day()
	}

	year, month, _ := from.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	targetYear, targetMonth, _ := first.Date()

	day := anchorDay
	if last := daysInMonth(targetYear, targetMonth); day > last {
		day = last
	}
	return models.NewDate(targetYear, targetMonth, day)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func copyDate(d *models.Date) *models.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
