package browsertoken

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	_ "modernc.org/sqlite" // SQLite driver (pure Go).
)

type cookieRow struct {
	hostKey        string
	name           string
	value          string
	encryptedValue []byte
	expiresUTC     int64
}

// readCookieStore extracts session tokens from a Chromium cookie database.
// A missing store or missing Safe Storage password is a normal empty
// result; individual rows that fail to decrypt are skipped.
func readCookieStore(ctx context.Context, d Descriptor, opts Options) ([]Token, []string) {
	store := resolveCookieStore(opts.Fs, d)
	if store == "" {
		return nil, nil
	}

	key, warnings := safeStorageKey(ctx, d, opts)

	snapshot, cleanup, err := snapshotCookieStore(opts.Fs, store)
	if err != nil {
		return nil, append(warnings, fmt.Sprintf("browsertoken: failed to snapshot %s cookies: %v", d.Label, err))
	}
	defer cleanup()

	db, err := openCookieDB(ctx, snapshot)
	if err != nil {
		return nil, append(warnings, fmt.Sprintf("browsertoken: failed to open %s cookies DB: %v", d.Label, err))
	}
	defer func() { _ = db.Close() }()

	rows, err := readTokenRows(ctx, db, opts.Domain, opts.NamePrefix)
	if err != nil {
		return nil, append(warnings, fmt.Sprintf("browsertoken: failed to read %s cookies: %v", d.Label, err))
	}

	now := time.Now()
	var out []Token
	for _, row := range rows {
		t, ok := rowToToken(d, store, row, key, now)
		if !ok {
			continue
		}
		out = append(out, t)
	}
	return out, warnings
}

// safeStorageKey resolves the browser's Safe Storage password and derives
// the cookie key. A nil key means encrypted values cannot be unlocked;
// plaintext and untagged values still resolve.
func safeStorageKey(ctx context.Context, d Descriptor, opts Options) ([]byte, []string) {
	password, ok := opts.Secrets.Password(ctx, d.SafeStorageService, d.SafeStorageAccount)
	if !ok {
		return nil, []string{fmt.Sprintf("browsertoken: no %s entry in the keychain; encrypted cookies unavailable", d.SafeStorageService)}
	}
	return deriveKey(password), nil
}

// snapshotCookieStore copies the live store (and WAL sidecars, if any) to
// a unique temp directory; the live browser may hold a lock on the
// original. The cleanup func removes the snapshot on every exit path.
func snapshotCookieStore(fsys afero.Fs, store string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "browsertoken-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	target := filepath.Join(dir, "Cookies")
	if err := copyOut(fsys, store, target); err != nil {
		cleanup()
		return "", nil, err
	}
	_ = copyOutIfExists(fsys, store+"-wal", target+"-wal")
	_ = copyOutIfExists(fsys, store+"-shm", target+"-shm")

	return target, cleanup, nil
}

func openCookieDB(ctx context.Context, snapshot string) (*sql.DB, error) {
	dsn := "file:" + filepath.ToSlash(snapshot) + "?mode=ro"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func readTokenRows(ctx context.Context, db *sql.DB, domain, namePrefix string) ([]cookieRow, error) {
	query := strings.Join([]string{
		`SELECT host_key, name, value, encrypted_value, expires_utc`,
		`FROM cookies`,
		`WHERE host_key LIKE ? AND name LIKE ?`,
		`ORDER BY expires_utc DESC`,
	}, " ")

	rows, err := db.QueryContext(ctx, query, "%"+domain+"%", namePrefix+"%")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []cookieRow
	for rows.Next() {
		var r cookieRow
		var encrypted []byte
		var expires sql.NullInt64
		if err := rows.Scan(&r.hostKey, &r.name, &r.value, &encrypted, &expires); err != nil {
			return nil, err
		}
		r.encryptedValue = encrypted
		if expires.Valid {
			r.expiresUTC = expires.Int64
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func rowToToken(d Descriptor, store string, row cookieRow, key []byte, now time.Time) (Token, bool) {
	var value string
	if len(row.encryptedValue) > 0 {
		v, ok := decryptCookieValue(row.encryptedValue, key)
		if !ok {
			return Token{}, false
		}
		value = v
	} else {
		value = row.value
	}
	if strings.TrimSpace(value) == "" {
		return Token{}, false
	}

	var expires *time.Time
	if row.expiresUTC != 0 {
		if t, ok := chromiumTime(row.expiresUTC); ok {
			if t.Before(now) {
				return Token{}, false
			}
			expires = &t
		}
	}

	return Token{
		Browser:   d.Browser,
		Value:     value,
		Source:    store,
		ExpiresAt: expires,
	}, true
}

// chromiumTime converts expires_utc, microseconds since 1601-01-01 UTC.
func chromiumTime(expiresUTC int64) (time.Time, bool) {
	const unixEpochDiffMicros = int64(11644473600000000)
	unixMicros := expiresUTC - unixEpochDiffMicros
	if unixMicros <= 0 {
		return time.Time{}, false
	}
	return time.Unix(0, unixMicros*1000).UTC(), true
}
