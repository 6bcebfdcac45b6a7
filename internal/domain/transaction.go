package domain

import "strconv"

// Uncategorized is the category assigned when no keyword rule matches a
// transaction description. It is also a permanent member of the category
// choice list and never stored in the categories collection.
const Uncategorized = "Uncategorized"

// Transaction is one normalized bank-statement line owned by a single user.
// Date is the canonical YYYY-MM-DD form; Amount is signed, negative for
// debits/expenses and positive for credits/income.
type Transaction struct {
	TransactionID string
	Owner         string
	Date          string
	Description   string
	Amount        float64
	Category      string

	StatementID string
	ImportRunID string
}

// FormatAmount renders an amount in its shortest round-trip decimal form.
// Identity strings and CSV exports share this formatting so that a value
// written during one import compares equal when read back during the next.
func FormatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}

// Identity returns the duplicate-detection key for a transaction: the
// concatenation of date, description and amount. It is a heuristic, not a
// primary key; a date-shifted re-export of the same transaction produces a
// different identity.
func (t *Transaction) Identity() string {
	return t.Date + t.Description + FormatAmount(t.Amount)
}
