package models

import (
	"testing"
	"time"
)

func TestUserRestricted(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		status    AccountStatus
		expiresAt *time.Time
		want      bool
	}{
		{"active", AccountStatusActive, nil, false},
		{"banned indefinitely", AccountStatusBanned, nil, true},
		{"suspended until tomorrow", AccountStatusSuspended, &future, true},
		{"lock already lapsed", AccountStatusLocked, &past, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u := User{Status: tt.status, StatusExpiresAt: tt.expiresAt}
			if got := u.Restricted(now); got != tt.want {
				t.Fatalf("Restricted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionUsable(t *testing.T) {
	t.Parallel()

	now := time.Now()

	live := Session{IsActive: true, ExpiresAt: now.Add(time.Hour)}
	if !live.Usable(now) {
		t.Fatal("live session reported unusable")
	}

	revoked := Session{IsActive: false, ExpiresAt: now.Add(time.Hour)}
	if revoked.Usable(now) {
		t.Fatal("revoked session reported usable")
	}

	expired := Session{IsActive: true, ExpiresAt: now.Add(-time.Minute)}
	if expired.Usable(now) {
		t.Fatal("expired session reported usable")
	}
}
