package browsertoken

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/afero"
)

// Swappable for tests.
var (
	indexedDBScan   = scanIndexedDB
	cookieStoreScan = readCookieStores
)

// ScanAll scans every configured browser in registry order and returns
// the flat candidate list. Tokens are not deduplicated across browsers:
// a token found in two places is reported twice, and disambiguation is
// the caller's job.
func ScanAll(ctx context.Context, opts Options) (Result, error) {
	opts = withDefaults(opts)

	browsers := opts.Browsers
	if len(browsers) == 0 {
		browsers = DefaultBrowsers()
	}
	browsers = slices.Compact(browsers)

	var res Result
	for _, b := range browsers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		d, ok := Describe(b)
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("browsertoken: unsupported browser %q", b))
			continue
		}
		tokens, warnings := scanDescriptor(ctx, d, opts)
		res.Warnings = append(res.Warnings, warnings...)
		res.Tokens = append(res.Tokens, tokens...)
	}
	return res, nil
}

// ScanOne scans a single browser.
func ScanOne(ctx context.Context, b Browser, opts Options) (Result, error) {
	opts.Browsers = []Browser{b}
	return ScanAll(ctx, opts)
}

// scanDescriptor applies the per-browser policy: the IndexedDB scan
// carries expiry claims and reflects the live session, so when it yields
// anything the cookie-store path is not consulted at all.
func scanDescriptor(ctx context.Context, d Descriptor, opts Options) ([]Token, []string) {
	tokens, warnings := indexedDBScan(ctx, d, opts)
	if len(tokens) > 0 {
		return tokens, warnings
	}

	cookieTokens, cookieWarnings := cookieStoreScan(ctx, d, opts)
	return cookieTokens, append(warnings, cookieWarnings...)
}

func readCookieStores(ctx context.Context, d Descriptor, opts Options) ([]Token, []string) {
	switch d.Method {
	case MethodDerivedKey:
		return readCookieStore(ctx, d, opts)
	case MethodBinary:
		return readBinaryCookies(d, opts)
	default:
		return nil, []string{fmt.Sprintf("browsertoken: unknown decryption method %q", d.Method)}
	}
}

func withDefaults(opts Options) Options {
	if opts.Domain == "" {
		opts.Domain = DefaultDomain
	}
	if opts.NamePrefix == "" {
		opts.NamePrefix = DefaultNamePrefix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Secrets == nil {
		opts.Secrets = SystemKeychain{Timeout: opts.Timeout}
	}
	return opts
}
