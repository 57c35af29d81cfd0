package browsertoken

import (
	"time"

	"github.com/spf13/afero"
)

// Browser identifies a token source.
type Browser string

const (
	// BrowserChrome is Google Chrome.
	BrowserChrome Browser = "chrome"
	// BrowserBrave is Brave Browser.
	BrowserBrave Browser = "brave"
	// BrowserEdge is Microsoft Edge.
	BrowserEdge Browser = "edge"
	// BrowserArc is Arc.
	BrowserArc Browser = "arc"

	// BrowserSafari is Apple Safari (macOS only).
	BrowserSafari Browser = "safari"
)

// Method selects how a browser's cookie store is read.
type Method string

const (
	// MethodDerivedKey is the Chromium scheme: a SQLite cookie store whose
	// encrypted values are unlocked with a key derived from the keychain
	// Safe Storage password.
	MethodDerivedKey Method = "derived-key"
	// MethodBinary is the Safari binarycookies container, parsed directly
	// from bytes.
	MethodBinary Method = "binary"
)

// Descriptor describes one browser's stores. Descriptors are compiled-in
// configuration resolved against the user's home directory; see Describe.
type Descriptor struct {
	Browser Browser
	Label   string

	// CookieStore is the cookie database (Chromium) or binarycookies
	// container (Safari). LegacyCookieStore, when set, is an older
	// location probed if CookieStore is missing.
	CookieStore       string
	LegacyCookieStore string

	// IndexedDB is the profile's IndexedDB root, holding per-origin
	// leveldb directories. Empty for Safari.
	IndexedDB string

	Method Method

	// Keychain Safe Storage identifiers (Chromium-family only).
	SafeStorageService string
	SafeStorageAccount string
}

// Token is one candidate session token recovered from a browser.
// Value is never empty; ExpiresAt, when known, is never in the past.
type Token struct {
	Browser   Browser
	Value     string
	Source    string
	ExpiresAt *time.Time
}

// Result is returned by ScanAll and ScanOne. Warnings carry non-fatal
// conditions (missing secrets, skipped records); "nothing found" is an
// empty Tokens slice, never an error.
type Result struct {
	Tokens   []Token
	Warnings []string
}

const (
	// DefaultDomain is the host substring cookie rows are matched against.
	DefaultDomain = "claude.ai"
	// DefaultNamePrefix is the cookie-name prefix of the session token.
	DefaultNamePrefix = "sessionKey"
)

// Options configures a scan.
type Options struct {
	// Domain is matched as a substring of cookie hosts and names the
	// IndexedDB origin. Defaults to DefaultDomain.
	Domain string

	// NamePrefix filters cookies by name prefix. Defaults to DefaultNamePrefix.
	NamePrefix string

	// Browsers restricts the scan. If empty, DefaultBrowsers() is used.
	Browsers []Browser

	// Secrets resolves keychain Safe Storage passwords. Defaults to the
	// system keychain.
	Secrets SecretProvider

	// Fs is the filesystem browser state is read from. Defaults to the OS
	// filesystem. Cookie-store snapshots are always written to the OS temp
	// directory so the SQLite driver can open them.
	Fs afero.Fs

	// Timeout bounds OS helper calls (keychain). Defaults to 3s.
	Timeout time.Duration
}

// DefaultBrowsers returns the registry scan order.
func DefaultBrowsers() []Browser {
	return []Browser{
		BrowserChrome,
		BrowserBrave,
		BrowserEdge,
		BrowserArc,
		BrowserSafari,
	}
}
