package session

import (
	"context"
	"testing"
)

func TestAuthenticated(t *testing.T) {
	tests := []struct {
		name string
		s    *Session
		want bool
	}{
		{"nil session", nil, false},
		{"unauthenticated", &Session{Owner: "alice"}, false},
		{"authenticating", &Session{Owner: "alice", State: Authenticating}, false},
		{"failed", &Session{Owner: "alice", State: Failed}, false},
		{"authenticated", &Session{Owner: "alice", State: Authenticated}, true},
		{"authenticated without owner", &Session{State: Authenticated}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Authenticated(); got != tt.want {
				t.Errorf("Authenticated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromContext_Missing(t *testing.T) {
	s := FromContext(context.Background())
	if s == nil {
		t.Fatal("FromContext returned nil")
	}
	if s.Authenticated() {
		t.Error("missing session should not be authenticated")
	}
}

func TestFromContext_RoundTrip(t *testing.T) {
	want := &Session{Owner: "alice", State: Authenticated}
	ctx := WithContext(context.Background(), want)

	got := FromContext(ctx)
	if got != want {
		t.Errorf("FromContext() = %+v, want %+v", got, want)
	}
}
