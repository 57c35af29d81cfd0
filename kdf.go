package browsertoken

import (
	"crypto/sha1" //nolint:gosec // Chromium's macOS cookie KDF is PBKDF2-SHA1 ("saltysalt", 1003).

	"golang.org/x/crypto/pbkdf2"
)

const (
	safeStorageSalt       = "saltysalt"
	safeStorageIterations = 1003
	derivedKeyLen         = 16
)

// deriveKey turns a Safe Storage password into the AES-128 cookie key.
// Deterministic: equal passwords yield identical keys.
func deriveKey(password string) []byte {
	return pbkdf2.Key([]byte(password), []byte(safeStorageSalt), safeStorageIterations, derivedKeyLen, sha1.New)
}
