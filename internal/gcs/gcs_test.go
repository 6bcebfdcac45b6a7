package gcs

import "testing"

func TestExtractFilenameFromURI(t *testing.T) {
	s := NewGCSStorageService("statements")

	tests := []struct {
		uri  string
		want string
	}{
		{"gs://statements/alice/export.csv", "export.csv"},
		{"gs://statements/deep/nested/path/jan.csv", "jan.csv"},
		{"gs://statements", "statements"},
		{"plain-string", "plain-string"},
	}

	for _, tt := range tests {
		if got := s.ExtractFilenameFromURI(tt.uri); got != tt.want {
			t.Errorf("ExtractFilenameFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestSplitURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://statements/alice/export.csv", "statements", "alice/export.csv", false},
		{"gs://statements/", "", "", true},
		{"gs://statements", "", "", true},
		{"http://statements/export.csv", "", "", true},
	}

	for _, tt := range tests {
		bucket, object, err := splitURI(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("splitURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			continue
		}
		if bucket != tt.wantBucket || object != tt.wantObject {
			t.Errorf("splitURI(%q) = (%q, %q), want (%q, %q)", tt.uri, bucket, object, tt.wantBucket, tt.wantObject)
		}
	}
}
