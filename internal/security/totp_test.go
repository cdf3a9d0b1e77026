package security

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateTOTPSecret(t *testing.T) {
	t.Parallel()

	secret, url, err := GenerateTOTPSecret("Shoplane", "a@b.dev")
	if err != nil {
		t.Fatalf("GenerateTOTPSecret error: %v", err)
	}
	if secret == "" {
		t.Fatal("empty secret")
	}
	if !strings.HasPrefix(url, "otpauth://totp/") {
		t.Fatalf("unexpected provisioning url %q", url)
	}
	if !strings.Contains(url, "Shoplane") {
		t.Fatalf("issuer missing from url %q", url)
	}
}

func TestValidateTOTP_SkewWindow(t *testing.T) {
	t.Parallel()

	secret, _, err := GenerateTOTPSecret("Shoplane", "a@b.dev")
	if err != nil {
		t.Fatalf("GenerateTOTPSecret error: %v", err)
	}

	now := time.Now().UTC()

	// The current code, and the next step's code, always fall inside the
	// one-step skew even if the wall clock ticks over between generation
	// and validation. The previous step is skipped here for the same
	// reason: a boundary tick would push it two steps out.
	for _, offset := range []time.Duration{0, 30 * time.Second} {
		code, err := TOTPCodeAt(secret, now.Add(offset))
		if err != nil {
			t.Fatalf("TOTPCodeAt error: %v", err)
		}
		if !ValidateTOTP(code, secret) {
			t.Fatalf("code at offset %v rejected", offset)
		}
	}

	// Three steps out is firmly beyond the skew.
	stale, err := TOTPCodeAt(secret, now.Add(-90*time.Second))
	if err != nil {
		t.Fatalf("TOTPCodeAt error: %v", err)
	}
	if ValidateTOTP(stale, secret) {
		// The stale code can collide with a current one only by 1-in-10^6
		// chance; treat acceptance as failure.
		current, _ := TOTPCodeAt(secret, now)
		if stale != current {
			t.Fatal("code three steps old accepted")
		}
	}
}

func TestValidateTOTP_Garbage(t *testing.T) {
	t.Parallel()

	secret, _, err := GenerateTOTPSecret("Shoplane", "a@b.dev")
	if err != nil {
		t.Fatalf("GenerateTOTPSecret error: %v", err)
	}

	if ValidateTOTP("000000", secret) {
		code, _ := TOTPCodeAt(secret, time.Now().UTC())
		if code != "000000" {
			t.Fatal("arbitrary code accepted")
		}
	}
	if ValidateTOTP("abcdef", secret) {
		t.Fatal("non-numeric code accepted")
	}
}
