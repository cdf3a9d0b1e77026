package middleware

import (
	"testing"
	"time"

	"shoplane/api/internal/security"
)

func TestResolveAccessState(t *testing.T) {
	t.Parallel()

	const secret = "access-secret"

	valid, err := security.IssueAccessToken(secret, "u-1", "a@b.dev", "alice", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}
	expired, err := security.IssueAccessToken(secret, "u-1", "a@b.dev", "alice", -time.Minute)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}
	foreign, err := security.IssueAccessToken("other-secret", "u-1", "a@b.dev", "alice", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  credState
	}{
		{"no cookie", "", credNone},
		{"valid token", valid, credAccessValid},
		{"expired token", expired, credAccessExpired},
		{"wrong signature", foreign, credInvalid},
		{"garbage", "not.a.jwt", credInvalid},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			state, claims := resolveAccessState(tt.token, secret)
			if state != tt.want {
				t.Fatalf("state = %d, want %d", state, tt.want)
			}
			if tt.want == credAccessValid {
				if claims == nil || claims.Subject != "u-1" {
					t.Fatalf("expected claims for valid token, got %+v", claims)
				}
			} else if claims != nil {
				t.Fatalf("expected nil claims, got %+v", claims)
			}
		})
	}
}
