// Package summary aggregates transactions into monthly credit/debit totals.
package summary

import (
	"sort"

	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

// MonthTotals holds one calendar month's totals. Credit sums the positive
// amounts; Debit sums the absolute values of the negative ones, so both
// columns read as positive figures.
type MonthTotals struct {
	Month  string  `json:"month"` // YYYY-MM
	Credit float64 `json:"credit"`
	Debit  float64 `json:"debit"`
	Net    float64 `json:"net"`
}

// Monthly groups transactions by calendar month, oldest month first.
func Monthly(txs []*domain.Transaction) []MonthTotals {
	byMonth := make(map[string]*MonthTotals)
	for _, tx := range txs {
		if len(tx.Date) < 7 {
			continue
		}
		month := tx.Date[:7]
		totals, ok := byMonth[month]
		if !ok {
			totals = &MonthTotals{Month: month}
			byMonth[month] = totals
		}
		if tx.Amount > 0 {
			totals.Credit += tx.Amount
		} else {
			totals.Debit += -tx.Amount
		}
		totals.Net += tx.Amount
	}

	months := make([]MonthTotals, 0, len(byMonth))
	for _, totals := range byMonth {
		months = append(months, *totals)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months
}

// CategoryTotals holds one category's spend within a period.
type CategoryTotals struct {
	Category string  `json:"category"`
	Spent    float64 `json:"spent"` // absolute value of negative amounts
	Count    int     `json:"count"`
}

// ByCategory totals spending per category, largest spend first. Credits are
// ignored; this is a where-did-the-money-go view.
func ByCategory(txs []*domain.Transaction) []CategoryTotals {
	byCategory := make(map[string]*CategoryTotals)
	for _, tx := range txs {
		if tx.Amount >= 0 {
			continue
		}
		category := tx.Category
		if category == "" {
			category = domain.Uncategorized
		}
		totals, ok := byCategory[category]
		if !ok {
			totals = &CategoryTotals{Category: category}
			byCategory[category] = totals
		}
		totals.Spent += -tx.Amount
		totals.Count++
	}

	categories := make([]CategoryTotals, 0, len(byCategory))
	for _, totals := range byCategory {
		categories = append(categories, *totals)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Spent != categories[j].Spent {
			return categories[i].Spent > categories[j].Spent
		}
		return categories[i].Category < categories[j].Category
	})
	return categories
}
