package main

import "testing"

func TestMigrationFilePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  string
		name     string
	}{
		{"0001_create_transactions.sql", true, "0001", "create_transactions"},
		{"0005_create_import_runs.sql", true, "0005", "create_import_runs"},
		{"001_invalid.sql", false, "", ""},        // wrong number width
		{"0001_test", false, "", ""},              // missing .sql
		{"0001.sql", false, "", ""},               // missing name
		{"invalid_0001_test.sql", false, "", ""},  // wrong order
		{"0001_name.sql.bak", false, "", ""},      // trailing suffix
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			matches := migrationFilePattern.FindStringSubmatch(tt.filename)
			if tt.valid {
				if matches == nil {
					t.Fatalf("expected %q to match", tt.filename)
				}
				if matches[1] != tt.version || matches[2] != tt.name {
					t.Errorf("got version %q name %q, want %q %q", matches[1], matches[2], tt.version, tt.name)
				}
			} else if matches != nil {
				t.Errorf("expected %q not to match, got %v", tt.filename, matches)
			}
		})
	}
}
