package middleware

import "testing"

func TestExtractCSRFToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"bare token", "abc123", "abc123"},
		{"bearer prefix", "bearer abc123", "abc123"},
		{"capitalized prefix", "Bearer abc123", "abc123"},
		{"padded", "bearer   abc123  ", "abc123"},
		{"prefix only", "bearer ", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := extractCSRFToken(tt.header); got != tt.want {
				t.Fatalf("extractCSRFToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
