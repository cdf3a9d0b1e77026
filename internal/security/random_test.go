package security

import "testing"

func TestGenerateOpaqueToken(t *testing.T) {
	t.Parallel()

	a, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("GenerateOpaqueToken error: %v", err)
	}
	b, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("GenerateOpaqueToken error: %v", err)
	}

	if a == b {
		t.Fatal("two tokens are identical")
	}
	// 32 bytes base64url without padding is 43 characters.
	if len(a) != 43 {
		t.Fatalf("unexpected token length %d", len(a))
	}
}

func TestGenerateNumericCode(t *testing.T) {
	t.Parallel()

	code, err := GenerateNumericCode(6)
	if err != nil {
		t.Fatalf("GenerateNumericCode error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("unexpected code length %d (%q)", len(code), code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit %q in code %q", r, code)
		}
	}
}
