package security

import (
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := IssueAccessToken("secret", "u-1", "a@b.dev", "alice", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	claims, err := ParseAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("ParseAccessToken error: %v", err)
	}
	if claims.Subject != "u-1" {
		t.Fatalf("subject mismatch: got %q want %q", claims.Subject, "u-1")
	}
	if claims.Email != "a@b.dev" || claims.Username != "alice" {
		t.Fatalf("identity claims mismatch: %+v", claims)
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	t.Parallel()

	token, err := IssueAccessToken("secret", "u-1", "a@b.dev", "alice", -time.Minute)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	_, err = ParseAccessToken(token, "secret")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := IssueAccessToken("right", "u-1", "a@b.dev", "alice", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	_, err = ParseAccessToken(token, "wrong")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseAccessToken_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := ParseAccessToken("not.a.jwt", "secret"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := IssueRefreshToken("refresh-secret", "u-2", time.Hour)
	if err != nil {
		t.Fatalf("IssueRefreshToken error: %v", err)
	}

	claims, err := ParseRefreshToken(token, "refresh-secret")
	if err != nil {
		t.Fatalf("ParseRefreshToken error: %v", err)
	}
	if claims.Subject != "u-2" {
		t.Fatalf("subject mismatch: got %q", claims.Subject)
	}
}

func TestIssueRefreshToken_UniquePerIssue(t *testing.T) {
	t.Parallel()

	// Two logins by the same user inside one second must not mint the
	// same token: session rows are keyed by the token hash.
	a, err := IssueRefreshToken("secret", "u-1", time.Hour)
	if err != nil {
		t.Fatalf("IssueRefreshToken error: %v", err)
	}
	b, err := IssueRefreshToken("secret", "u-1", time.Hour)
	if err != nil {
		t.Fatalf("IssueRefreshToken error: %v", err)
	}

	if a == b {
		t.Fatal("two issues for the same subject minted identical tokens")
	}
	if string(HashToken(a)) == string(HashToken(b)) {
		t.Fatal("two issues share one token hash")
	}

	claims, err := ParseRefreshToken(a, "secret")
	if err != nil {
		t.Fatalf("ParseRefreshToken error: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("refresh token carries no jti claim")
	}
}

func TestRefreshTokenNotValidAsAccess(t *testing.T) {
	t.Parallel()

	// The two credentials use different secrets, so one can never stand
	// in for the other.
	token, err := IssueRefreshToken("refresh-secret", "u-3", time.Hour)
	if err != nil {
		t.Fatalf("IssueRefreshToken error: %v", err)
	}

	if _, err := ParseAccessToken(token, "access-secret"); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	t.Parallel()

	a := HashToken("same-token")
	b := HashToken("same-token")
	c := HashToken("other-token")

	if string(a) != string(b) {
		t.Fatal("same input hashed to different values")
	}
	if string(a) == string(c) {
		t.Fatal("different inputs hashed to the same value")
	}
	if len(a) != 32 {
		t.Fatalf("unexpected hash length %d", len(a))
	}
}
