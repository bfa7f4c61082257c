package service

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid simple", "user@example.com", false},
		{"valid subdomain", "user@mail.example.com", false},
		{"valid plus tag", "user+tag@example.com", false},
		{"empty", "", true},
		{"missing at", "userexample.com", true},
		{"two ats", "user@@example.com", true},
		{"missing local part", "@example.com", true},
		{"missing domain", "user@", true},
		{"domain without dot", "user@localhost", true},
		{"consecutive dots", "user..name@example.com", true},
		{"too long", strings.Repeat("a", 250) + "@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid minimum length", "12345678", false},
		{"valid typical", "correct horse battery", false},
		{"valid maximum length", strings.Repeat("a", 72), false},
		{"empty", "", true},
		{"too short", "1234567", true},
		{"too long", strings.Repeat("a", 73), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestGenerateSessionToken(t *testing.T) {
	token, err := generateSessionToken()
	if err != nil {
		t.Fatalf("generateSessionToken() error = %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}
	for _, c := range token {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("token contains non-hex character %q", c)
		}
	}

	other, err := generateSessionToken()
	if err != nil {
		t.Fatalf("generateSessionToken() error = %v", err)
	}
	if token == other {
		t.Error("two generated tokens are identical")
	}
}

func TestHashSessionToken(t *testing.T) {
	token := "abc123"

	h1 := hashSessionToken(token)
	h2 := hashSessionToken(token)
	if h1 != h2 {
		t.Error("hashing the same token twice gave different results")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
	if h1 == token {
		t.Error("hash equals the raw token")
	}

	if hashSessionToken("abc124") == h1 {
		t.Error("different tokens produced the same hash")
	}
}
