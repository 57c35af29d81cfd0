package browsertoken

import (
	"os"
	"path/filepath"
)

// Describe returns the descriptor for b, with store paths resolved against
// the current user's home directory. The second return is false for
// browsers not in the registry.
func Describe(b Browser) (Descriptor, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	appSupport := filepath.Join(home, "Library", "Application Support")

	switch b {
	case BrowserChrome:
		return chromiumDescriptor(b, "Chrome",
			filepath.Join(appSupport, "Google", "Chrome", "Default"),
			"Chrome Safe Storage", "Chrome"), true
	case BrowserBrave:
		return chromiumDescriptor(b, "Brave",
			filepath.Join(appSupport, "BraveSoftware", "Brave-Browser", "Default"),
			"Brave Safe Storage", "Brave"), true
	case BrowserEdge:
		return chromiumDescriptor(b, "Microsoft Edge",
			filepath.Join(appSupport, "Microsoft Edge", "Default"),
			"Microsoft Edge Safe Storage", "Microsoft Edge"), true
	case BrowserArc:
		return chromiumDescriptor(b, "Arc",
			filepath.Join(appSupport, "Arc", "User Data", "Default"),
			"Arc Safe Storage", "Arc"), true
	case BrowserSafari:
		return Descriptor{
			Browser: b,
			Label:   "Safari",
			CookieStore: filepath.Join(home, "Library", "Containers",
				"com.apple.Safari", "Data", "Library", "Cookies", "Cookies.binarycookies"),
			LegacyCookieStore: filepath.Join(home, "Library", "Cookies", "Cookies.binarycookies"),
			Method:            MethodBinary,
		}, true
	default:
		return Descriptor{}, false
	}
}

func chromiumDescriptor(b Browser, label, profileDir, service, account string) Descriptor {
	return Descriptor{
		Browser:            b,
		Label:              label,
		CookieStore:        filepath.Join(profileDir, "Network", "Cookies"),
		LegacyCookieStore:  filepath.Join(profileDir, "Cookies"),
		IndexedDB:          filepath.Join(profileDir, "IndexedDB"),
		Method:             MethodDerivedKey,
		SafeStorageService: service,
		SafeStorageAccount: account,
	}
}

// Browsers returns all registered descriptors in scan order.
func Browsers() []Descriptor {
	ids := DefaultBrowsers()
	out := make([]Descriptor, 0, len(ids))
	for _, b := range ids {
		if d, ok := Describe(b); ok {
			out = append(out, d)
		}
	}
	return out
}
