package browsertoken

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Signed tokens: three dot-separated base64url segments whose header
// segment is the encoding of `{"alg":...`.
var tokenPattern = regexp.MustCompile(`eyJhbGciOi[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)

// scanIndexedDB walks the target origin's IndexedDB leveldb directory and
// collects token-shaped matches from the raw .log/.ldb segments. The
// leveldb is read as bytes, not through the engine: the browser may hold
// it open, and a partial segment still yields matches.
func scanIndexedDB(ctx context.Context, d Descriptor, opts Options) ([]Token, []string) {
	if d.IndexedDB == "" {
		return nil, nil
	}
	dir := filepath.Join(d.IndexedDB, indexedDBOrigin(opts.Domain))
	if !dirExists(opts.Fs, dir) {
		return nil, nil
	}

	now := time.Now()
	var warnings []string
	found := make(map[string]Token)

	// afero.Walk is lexical, so later segments win on duplicates.
	walkErr := afero.Walk(opts.Fs, dir, func(path string, info os.FileInfo, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("browsertoken: %s IndexedDB walk: %v", d.Label, err))
			return nil
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".log", ".ldb":
		default:
			return nil
		}

		raw, err := afero.ReadFile(opts.Fs, path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("browsertoken: failed to read %s segment %s: %v", d.Label, filepath.Base(path), err))
			return nil
		}
		for _, match := range tokenPattern.FindAllString(string(raw), -1) {
			expires := tokenExpiry(match)
			if expires != nil && expires.Before(now) {
				continue
			}
			found[match] = Token{
				Browser:   d.Browser,
				Value:     match,
				Source:    path,
				ExpiresAt: expires,
			}
		}
		return nil
	})
	if walkErr != nil {
		warnings = append(warnings, fmt.Sprintf("browsertoken: %s IndexedDB scan aborted: %v", d.Label, walkErr))
	}

	out := make([]Token, 0, len(found))
	for _, t := range found {
		out = append(out, t)
	}
	sortTokensByExpiry(out)
	return out, warnings
}

// indexedDBOrigin is the leveldb directory name Chromium uses for an
// https origin's IndexedDB.
func indexedDBOrigin(domain string) string {
	return "https_" + domain + "_0.indexeddb.leveldb"
}

// sortTokensByExpiry orders freshest first; tokens without an expiry sort
// last. Value ties the order so results are deterministic.
func sortTokensByExpiry(tokens []Token) {
	sort.Slice(tokens, func(i, j int) bool {
		a, b := tokens[i].ExpiresAt, tokens[j].ExpiresAt
		switch {
		case a == nil && b == nil:
			return tokens[i].Value < tokens[j].Value
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		default:
			return tokens[i].Value < tokens[j].Value
		}
	})
}
