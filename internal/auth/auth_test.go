package auth

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "hunter22" {
		t.Error("hash equals plaintext")
	}

	if !VerifyPassword("hunter22", hash) {
		t.Error("VerifyPassword() = false for correct password")
	}
	if VerifyPassword("wrong", hash) {
		t.Error("VerifyPassword() = true for wrong password")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.NewAccessToken("user-1")
	if err != nil {
		t.Fatalf("NewAccessToken() error: %v", err)
	}

	userID, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("subject = %q, want user-1", userID)
	}
}

func TestTokenTypeIsEnforced(t *testing.T) {
	m := NewManager("test-secret")

	refresh, err := m.NewRefreshToken("user-1")
	if err != nil {
		t.Fatalf("NewRefreshToken() error: %v", err)
	}

	if _, err := m.ValidateAccessToken(refresh); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := m.ValidateRefreshToken(refresh); err != nil {
		t.Errorf("ValidateRefreshToken() error: %v", err)
	}
}

func TestWrongSecretIsRejected(t *testing.T) {
	token, err := NewManager("secret-a").NewAccessToken("user-1")
	if err != nil {
		t.Fatalf("NewAccessToken() error: %v", err)
	}

	if _, err := NewManager("secret-b").ValidateAccessToken(token); err == nil {
		t.Error("token signed with another secret was accepted")
	}
}

func TestGarbageTokenIsRejected(t *testing.T) {
	m := NewManager("test-secret")
	if _, err := m.ValidateAccessToken("not.a.token"); err == nil {
		t.Error("garbage token accepted")
	}
}

func TestHashTokenIsStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("HashToken not deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("HashToken collision on different inputs")
	}
}
