package importer

import (
	"testing"
)

func TestNormalizeRow(t *testing.T) {
	tests := []struct {
		name     string
		record   map[string]string
		wantDate string
		wantDesc string
		wantAmt  float64
		wantErr  bool
	}{
		{
			name: "debit column negates",
			record: map[string]string{
				"Date":        "2024-01-05",
				"Description": " Whole Foods Market ",
				"Debit":       "42.17",
			},
			wantDate: "2024-01-05",
			wantDesc: "Whole Foods Market",
			wantAmt:  -42.17,
		},
		{
			name: "debit wins over amount column",
			record: map[string]string{
				"Date":        "2024-01-05",
				"Description": "Whole Foods Market",
				"Debit":       "42.17",
				"Amount":      "999.99",
			},
			wantDate: "2024-01-05",
			wantDesc: "Whole Foods Market",
			wantAmt:  -42.17,
		},
		{
			name: "credit column kept positive",
			record: map[string]string{
				"Date":        "2024-02-01",
				"Description": "Salary",
				"Credit":      "2500",
			},
			wantDate: "2024-02-01",
			wantDesc: "Salary",
			wantAmt:  2500,
		},
		{
			name: "amount fallback strips currency decoration",
			record: map[string]string{
				"Date":        "2024-03-10",
				"Description": "Rent",
				"Amount":      "-$1,250.00",
			},
			wantDate: "2024-03-10",
			wantDesc: "Rent",
			wantAmt:  -1250,
		},
		{
			name: "decorated debit falls through to stripping",
			record: map[string]string{
				"Date":        "2024-03-11",
				"Description": "Groceries",
				"Debit":       "$18.40",
			},
			wantDate: "2024-03-11",
			wantDesc: "Groceries",
			wantAmt:  18.40,
		},
		{
			name: "payee and transaction date aliases",
			record: map[string]string{
				"Transaction Date": "2024-04-01",
				"Payee":            "Shell Gas Station",
				"Amount":           "-30.12",
			},
			wantDate: "2024-04-01",
			wantDesc: "Shell Gas Station",
			wantAmt:  -30.12,
		},
		{
			name: "posting date alias",
			record: map[string]string{
				"Posting Date":        "2024-04-02",
				"Transaction Details": "Transfer",
				"Amount":              "10",
			},
			wantDate: "2024-04-02",
			wantDesc: "Transfer",
			wantAmt:  10,
		},
		{
			name: "missing date yields empty date",
			record: map[string]string{
				"Description": "No date row",
				"Amount":      "5",
			},
			wantDate: "",
			wantDesc: "No date row",
			wantAmt:  5,
		},
		{
			name: "no amount columns at all is zero",
			record: map[string]string{
				"Date":        "2024-05-01",
				"Description": "Memo only",
			},
			wantDate: "2024-05-01",
			wantDesc: "Memo only",
			wantAmt:  0,
		},
		{
			name: "timestamp date reformatted",
			record: map[string]string{
				"Date":        "2024-06-15T09:30:00",
				"Description": "Coffee",
				"Amount":      "-4.50",
			},
			wantDate: "2024-06-15",
			wantDesc: "Coffee",
			wantAmt:  -4.50,
		},
		{
			name: "empty description rejected",
			record: map[string]string{
				"Date":        "2024-01-05",
				"Description": "   ",
				"Debit":       "42.17",
			},
			wantErr: true,
		},
		{
			name: "unparseable amount rejected",
			record: map[string]string{
				"Date":        "2024-01-05",
				"Description": "Garbage amount",
				"Amount":      "N/A",
			},
			wantErr: true,
		},
		{
			name: "malformed date rejected",
			record: map[string]string{
				"Date":        "not-a-date",
				"Description": "Bad date",
				"Amount":      "1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRow(tt.record)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeRow() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Date != tt.wantDate {
				t.Errorf("Date = %q, want %q", got.Date, tt.wantDate)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
			if got.Amount != tt.wantAmt {
				t.Errorf("Amount = %v, want %v", got.Amount, tt.wantAmt)
			}
			if got.Category != "" {
				t.Errorf("Category should be unset, got %q", got.Category)
			}
			if got.Owner != "" {
				t.Errorf("Owner should be unset, got %q", got.Owner)
			}
		})
	}
}

func TestStripNonNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"$1,234.56", "1234.56"},
		{"-£42.17", "-42.17"},
		{"(12.00)", "12.00"},
		{"", ""},
		{"abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := stripNonNumeric(tt.input); got != tt.want {
				t.Errorf("stripNonNumeric(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
