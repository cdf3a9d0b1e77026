package security

import "testing"

func TestPasswordRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPassword_UniquePerCall(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	b, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if string(a) == string(b) {
		t.Fatal("two hashes of the same password are identical; salt not applied")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	if _, err := VerifyPassword("pw", []byte("not-a-hash")); err == nil {
		t.Fatal("expected error for malformed hash")
	}
	if _, err := VerifyPassword("pw", []byte("$bcrypt$v=19$t=1,m=1,p=1$a$b")); err == nil {
		t.Fatal("expected error for foreign hash scheme")
	}
}
