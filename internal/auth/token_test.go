package auth

import (
	"testing"
	"time"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	secret := []byte("test-secret")

	tok, err := GenerateToken("user-123", secret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	userID, err := VerifyToken(tok, secret)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("user id = %q, want %q", userID, "user-123")
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	secret := []byte("test-secret")

	tok, err := GenerateToken("user-123", secret, -time.Second)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = VerifyToken(tok, secret)
	if err != ErrTokenExpired {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	tok, err := GenerateToken("user-123", []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = VerifyToken(tok, []byte("wrong-secret"))
	if err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenMalformed(t *testing.T) {
	_, err := VerifyToken("not.a.token", []byte("secret"))
	if err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
