package utils

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const apiKeyCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// APIKeyPrefixLen is how many leading characters of a key are stored in
// clear for lookup; the rest is only ever persisted as a bcrypt hash.
const APIKeyPrefixLen = 12

// GenerateAPIKey mints a new plaintext API key. Only the bcrypt hash and
// the lookup prefix are persisted; the plaintext is returned to the admin
// exactly once at creation time.
func GenerateAPIKey() (string, error) {
	random, err := GenerateSecureRandomString(40)
	if err != nil {
		return "", err
	}
	return "hqa_" + random, nil
}

// APIKeyPrefix extracts the stored lookup prefix from a presented key so
// candidate rows can be fetched before the bcrypt comparison.
func APIKeyPrefix(plaintext string) string {
	if len(plaintext) < APIKeyPrefixLen {
		return plaintext
	}
	return plaintext[:APIKeyPrefixLen]
}

// HashAPIKey produces the bcrypt hash persisted in the catalog.
func HashAPIKey(plaintext string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %v", err)
	}

	return string(hashed), nil
}

// CheckAPIKey compares a presented plaintext key against a stored hash.
func CheckAPIKey(plaintext, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	return err == nil
}

func GenerateSecureRandomString(length int) (string, error) {
	bytes := make([]byte, length)

	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %v", err)
	}

	for i, b := range bytes {
		bytes[i] = apiKeyCharset[b%byte(len(apiKeyCharset))]
	}

	return string(bytes), nil
}
