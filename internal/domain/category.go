package domain

// Category is a user-defined spending category. Names are unique
// case-insensitively within one owner's set. Deleting a category does not
// touch transactions that reference its name.
type Category struct {
	CategoryID string
	Owner      string
	Name       string
}

// Rule maps a lowercased keyword to a category name for one owner. Rules are
// created and updated only by the learner; there is at most one rule per
// (owner, keyword).
type Rule struct {
	RuleID   string
	Owner    string
	Keyword  string
	Category string
}
