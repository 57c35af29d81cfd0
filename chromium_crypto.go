package browsertoken

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"unicode/utf8"
)

// The macOS scheme uses a fixed IV of 16 spaces, not a random one.
const safeStorageIV = "                "

// decryptCookieValue resolves one encrypted_value column into cookie text.
// Values carrying a v## version tag are AES-128-CBC ciphertext under key;
// values without a recognized tag are treated as already-plaintext bytes.
// Returns ok=false for values that cannot be resolved (too short, bad
// padding, invalid UTF-8, or tagged ciphertext with no usable key).
func decryptCookieValue(encrypted []byte, key []byte) (string, bool) {
	if len(encrypted) <= 3 {
		return "", false
	}
	if !hasVersionTag(encrypted) {
		return decodeCookieText(encrypted)
	}
	plain, err := decryptAESCBC(encrypted[3:], key)
	if err != nil {
		return "", false
	}
	return decodeCookieText(plain)
}

func decryptAESCBC(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("cipher input not full blocks")
	}

	out := make([]byte, len(ciphertext))
	cbc := cipher.NewCBCDecrypter(block, []byte(safeStorageIV))
	cbc.CryptBlocks(out, ciphertext)

	return removePKCS7Padding(out)
}

func hasVersionTag(b []byte) bool {
	if len(b) < 3 {
		return false
	}
	return b[0] == 'v' && isDigit(b[1]) && isDigit(b[2])
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func removePKCS7Padding(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return b, nil
	}
	paddingLen := int(b[len(b)-1])
	if paddingLen <= 0 || paddingLen > aes.BlockSize || paddingLen > len(b) {
		return nil, fmt.Errorf("invalid padding length: %d", paddingLen)
	}
	for _, p := range b[len(b)-paddingLen:] {
		if int(p) != paddingLen {
			return nil, errors.New("invalid padding bytes")
		}
	}
	return b[:len(b)-paddingLen], nil
}

func decodeCookieText(b []byte) (string, bool) {
	b = stripLeadingControlBytes(b)
	if len(b) == 0 || !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

func stripLeadingControlBytes(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] < 0x20 {
		i++
	}
	return bytes.Clone(b[i:])
}
