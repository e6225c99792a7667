package server

import (
	"errors"
	"testing"
	"time"
)

func TestTokenSigner(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewTokenSigner("secret", time.Hour)
	s.now = func() time.Time { return now }

	token, expires, err := s.Sign("abc", "bar")
	if err != nil {
		t.Fatal(err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Errorf("expires = %v", expires)
	}

	claims, err := s.Verify(token, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if claims.Chart != "bar" || claims.Subject != "abc" {
		t.Errorf("claims = %+v", claims)
	}

	other := NewTokenSigner("other", time.Hour)
	other.now = s.now

	tests := []struct {
		name   string
		signer *TokenSigner
		token  string
		id     string
		at     time.Time
	}{
		{"wrong id", s, token, "abd", now},
		{"wrong secret", other, token, "abc", now},
		{"expired", s, token, "abc", now.Add(2 * time.Hour)},
		{"garbage", s, "not-a-token", "abc", now},
		{"empty", s, "", "abc", now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			tt.signer.now = func() time.Time { return at }
			if _, err := tt.signer.Verify(tt.token, tt.id); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
