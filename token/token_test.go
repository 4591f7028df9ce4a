package token

import (
	"testing"
	"time"
)

func TestExpired(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry never expires", nil, false},
		{"future expiry", &future, false},
		{"past expiry", &past, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := &Token{ExpiresAt: tt.expiresAt}
			if got := tok.Expired(now); got != tt.want {
				t.Errorf("Expired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasScope(t *testing.T) {
	tok := &Token{Scopes: []string{"reward:read", "customer:read"}}

	if !tok.HasScope("reward", "read") {
		t.Error("expected reward:read to match")
	}
	if tok.HasScope("reward", "write") {
		t.Error("reward:write must not match a reward:read scope")
	}
	if tok.HasScope("Reward", "read") {
		t.Error("scope matching must be case-sensitive")
	}

	wild := &Token{Scopes: []string{"*"}}
	if !wild.HasScope("campaign", "delete") {
		t.Error("wildcard scope must match any pair")
	}

	empty := &Token{}
	if empty.HasScope("reward", "read") {
		t.Error("empty scope list must match nothing")
	}
}

func TestNewSecretUnique(t *testing.T) {
	a, err := NewSecret()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSecret()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two generated secrets are identical")
	}
	if a == "" {
		t.Error("empty secret")
	}
}

func TestHashSecret(t *testing.T) {
	h1, err := HashSecret(AlgSHA256, "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashSecret("", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("empty algorithm must default to sha256")
	}

	h3, err := HashSecret(AlgSHA512, "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if h3 == h1 {
		t.Error("sha512 hash should differ from sha256")
	}
	if len(h3) != 128 {
		t.Errorf("sha512 hex length = %d, want 128", len(h3))
	}

	if _, err := HashSecret("md5", "s3cret"); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}
