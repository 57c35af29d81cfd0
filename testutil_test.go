package browsertoken

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"database/sql"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

type fakeSecrets struct {
	password string
	calls    int
}

func (f *fakeSecrets) Password(_ context.Context, _, _ string) (string, bool) {
	f.calls++
	if f.password == "" {
		return "", false
	}
	return f.password, true
}

func openTestSQLite(t *testing.T, path string) *sql.DB {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path)+"?mode=rwc")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createCookiesTable(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`CREATE TABLE cookies (
		host_key TEXT NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		encrypted_value BLOB,
		expires_utc INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		t.Fatal(err)
	}
}

func insertCookie(t *testing.T, db *sql.DB, host, name, value string, encrypted []byte, expiresUTC int64) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO cookies (host_key, name, value, encrypted_value, expires_utc) VALUES (?, ?, ?, ?, ?)`,
		host, name, value, encrypted, expiresUTC,
	)
	if err != nil {
		t.Fatal(err)
	}
}

// chromiumExpiry converts a time to the cookie store's microseconds since
// 1601-01-01 UTC.
func chromiumExpiry(ts time.Time) int64 {
	const unixEpochDiffMicros = int64(11644473600000000)
	return ts.UnixMicro() + unixEpochDiffMicros
}

func pkcs7Pad(t *testing.T, b []byte) []byte {
	t.Helper()
	paddingLen := aes.BlockSize - (len(b) % aes.BlockSize)
	if paddingLen == 0 {
		paddingLen = aes.BlockSize
	}
	out := make([]byte, 0, len(b)+paddingLen)
	out = append(out, b...)
	for i := 0; i < paddingLen; i++ {
		out = append(out, byte(paddingLen))
	}
	return out
}

func encryptAESCBCForTest(t *testing.T, prefix string, key []byte, plaintext []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	padded := pkcs7Pad(t, plaintext)
	ciphertext := make([]byte, len(padded))
	cbc := cipher.NewCBCEncrypter(block, []byte(safeStorageIV))
	cbc.CryptBlocks(ciphertext, padded)
	return append([]byte(prefix), ciphertext...)
}

// makeSignedToken builds a JWT-shaped token. exp <= 0 omits the claim.
func makeSignedToken(t *testing.T, exp int64) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	claims := `{"sub":"user"}`
	if exp > 0 {
		claims = fmt.Sprintf(`{"sub":"user","exp":%d}`, exp)
	}
	payload := base64.RawURLEncoding.EncodeToString([]byte(claims))
	sig := base64.RawURLEncoding.EncodeToString([]byte("signature"))
	return header + "." + payload + "." + sig
}

func buildBinaryCookiesFile(t *testing.T, records ...[]byte) []byte {
	t.Helper()

	const pageHeaderLen = 8
	offsetsLen := 4 * len(records)
	cookieStart := pageHeaderLen + offsetsLen

	page := make([]byte, 0, cookieStart)
	page = append(page, 0x00, 0x00, 0x01, 0x00)
	page = binary.LittleEndian.AppendUint32(page, uint32(len(records)))
	off := cookieStart
	for _, r := range records {
		page = binary.LittleEndian.AppendUint32(page, uint32(off))
		off += len(r)
	}
	for _, r := range records {
		page = append(page, r...)
	}

	file := make([]byte, 0, 16+len(page)+8)
	file = append(file, []byte("cook")...)
	file = binary.BigEndian.AppendUint32(file, 1)
	file = binary.BigEndian.AppendUint32(file, uint32(len(page)))
	file = append(file, page...)
	file = append(file, 0, 0, 0, 0, 0, 0, 0, 0) // checksum, ignored
	return file
}

func buildBinaryCookieRecord(t *testing.T, domain, name, path, value string, expires time.Time) []byte {
	t.Helper()

	domainB := append([]byte(domain), 0)
	nameB := append([]byte(name), 0)
	pathB := append([]byte(path), 0)
	valueB := append([]byte(value), 0)

	domainOff := uint32(cookieRecordHeaderLen)
	nameOff := domainOff + uint32(len(domainB))
	pathOff := nameOff + uint32(len(nameB))
	valueOff := pathOff + uint32(len(pathB))
	size := valueOff + uint32(len(valueB))

	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, size) // size
	buf = binary.LittleEndian.AppendUint32(buf, 0)    // unknown
	buf = binary.LittleEndian.AppendUint32(buf, 1)    // flags
	buf = binary.LittleEndian.AppendUint32(buf, 0)    // unknown
	buf = binary.LittleEndian.AppendUint32(buf, domainOff)
	buf = binary.LittleEndian.AppendUint32(buf, nameOff)
	buf = binary.LittleEndian.AppendUint32(buf, pathOff)
	buf = binary.LittleEndian.AppendUint32(buf, valueOff)
	buf = append(buf, 0, 0, 0, 0, 0, 0, 0, 0) // end marker

	var expiry float64
	if !expires.IsZero() {
		expiry = float64(expires.Unix() - 978307200)
	}
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(expiry))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(0)) // creation

	buf = append(buf, domainB...)
	buf = append(buf, nameB...)
	buf = append(buf, pathB...)
	buf = append(buf, valueB...)

	if uint32(len(buf)) != size {
		t.Fatalf("record size mismatch: want %d got %d", size, len(buf))
	}
	return buf
}
