package utils

import (
	"strings"
	"testing"
)

func TestGenerateAPIKeyShape(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(key, "hqa_") {
		t.Errorf("key %q missing hqa_ prefix", key)
	}
	if len(key) != len("hqa_")+40 {
		t.Errorf("key length = %d", len(key))
	}
}

func TestAPIKeyPrefixStable(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prefix := APIKeyPrefix(key)
	if len(prefix) != APIKeyPrefixLen {
		t.Errorf("prefix length = %d, want %d", len(prefix), APIKeyPrefixLen)
	}
	if !strings.HasPrefix(key, prefix) {
		t.Error("prefix is not a prefix of the key")
	}
}

func TestHashAndCheckAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hash, err := HashAPIKey(key, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !CheckAPIKey(key, hash) {
		t.Error("expected hash to verify against its own key")
	}
	if CheckAPIKey("hqa_wrong", hash) {
		t.Error("expected mismatched key to fail verification")
	}
}

func TestGenerateSecureRandomStringUnique(t *testing.T) {
	a, _ := GenerateSecureRandomString(32)
	b, _ := GenerateSecureRandomString(32)
	if a == b {
		t.Error("two random strings should not collide")
	}
	if len(a) != 32 {
		t.Errorf("length = %d, want 32", len(a))
	}
}
