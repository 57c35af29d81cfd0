package browsertoken

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Cookies.binarycookies layout: a big-endian file header ("cook" magic,
// page count, page sizes) followed by little-endian pages. Each page
// starts with a marker and a cookie count, then page-relative record
// offsets. Each record carries its own size, flags, and record-relative
// offsets to four NUL-terminated strings (domain, name, path, value).
const (
	binaryCookiesMagic = "cook"

	cookieRecordHeaderLen = 56
	cookieFlagsOffset     = 8
	cookieDomainOffset    = 16
	cookieNameOffset      = 20
	cookiePathOffset      = 24
	cookieValueOffset     = 28
	cookieExpiryOffset    = 40
)

var binaryCookiesPageMarker = []byte{0x00, 0x00, 0x01, 0x00}

// readBinaryCookies loads the Safari cookie container and extracts
// matching session tokens.
func readBinaryCookies(d Descriptor, opts Options) ([]Token, []string) {
	path := resolveCookieStore(opts.Fs, d)
	if path == "" {
		return nil, nil
	}
	raw, err := afero.ReadFile(opts.Fs, path)
	if err != nil {
		return nil, []string{fmt.Sprintf("browsertoken: failed to read %s cookies: %v", d.Label, err)}
	}
	return parseBinaryCookies(raw, d, path, opts.Domain, opts.NamePrefix, time.Now())
}

// parseBinaryCookies parses a binarycookies container. The file comes from
// outside our control and may be truncated or corrupt: a bad page or
// record is skipped, never fatal to the rest of the parse.
func parseBinaryCookies(raw []byte, d Descriptor, source, domain, namePrefix string, now time.Time) ([]Token, []string) {
	file := byteCursor{b: raw}

	magic, err := file.slice(0, 4)
	if err != nil || string(magic) != binaryCookiesMagic {
		return nil, nil
	}
	pageCount, err := file.u32be(4)
	if err != nil {
		return nil, nil
	}

	var warnings []string
	var out []Token
	skipped := 0

	pageStart := 8 + 4*int(pageCount)
	for i := 0; i < int(pageCount); i++ {
		size, err := file.u32be(8 + 4*i)
		if err != nil {
			break
		}
		page, err := file.sub(pageStart, int(size))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("browsertoken: %s cookies truncated at page %d", d.Label, i))
			break
		}
		pageStart += int(size)

		tokens, pageSkipped := parseCookiePage(page, d, source, domain, namePrefix, now)
		out = append(out, tokens...)
		skipped += pageSkipped
	}
	if skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("browsertoken: skipped %d malformed %s cookie records", skipped, d.Label))
	}
	return out, warnings
}

func parseCookiePage(page byteCursor, d Descriptor, source, domain, namePrefix string, now time.Time) ([]Token, int) {
	marker, err := page.slice(0, 4)
	if err != nil || string(marker) != string(binaryCookiesPageMarker) {
		return nil, 1
	}
	count, err := page.u32le(4)
	if err != nil {
		return nil, 1
	}

	var out []Token
	skipped := 0
	for i := 0; i < int(count); i++ {
		off, err := page.u32le(8 + 4*i)
		if err != nil {
			skipped++
			continue
		}
		t, ok := parseCookieRecord(page, int(off))
		if !ok {
			skipped++
			continue
		}
		if !strings.Contains(t.domain, domain) || !strings.HasPrefix(t.name, namePrefix) {
			continue
		}
		if t.expires != nil && t.expires.Before(now) {
			continue
		}
		out = append(out, Token{
			Browser:   d.Browser,
			Value:     t.value,
			Source:    source,
			ExpiresAt: t.expires,
		})
	}
	return out, skipped
}

type binaryCookie struct {
	domain  string
	name    string
	value   string
	expires *time.Time
}

func parseCookieRecord(page byteCursor, off int) (binaryCookie, bool) {
	size, err := page.u32le(off)
	if err != nil || size < cookieRecordHeaderLen {
		return binaryCookie{}, false
	}
	record, err := page.sub(off, int(size))
	if err != nil {
		return binaryCookie{}, false
	}

	var c binaryCookie
	for _, field := range []struct {
		headerOff int
		dst       *string
	}{
		{cookieDomainOffset, &c.domain},
		{cookieNameOffset, &c.name},
		{cookieValueOffset, &c.value},
	} {
		strOff, err := record.u32le(field.headerOff)
		if err != nil {
			return binaryCookie{}, false
		}
		s, err := record.cstring(int(strOff))
		if err != nil {
			return binaryCookie{}, false
		}
		*field.dst = s
	}
	if c.value == "" {
		return binaryCookie{}, false
	}

	if expiry, err := record.f64le(cookieExpiryOffset); err == nil && expiry != 0 {
		t := safariTime(expiry)
		c.expires = &t
	}
	return c, true
}

// safariTime converts seconds since 2001-01-01 00:00:00 UTC.
func safariTime(secsSince2001 float64) time.Time {
	const macEpoch = int64(978307200)
	sec := int64(secsSince2001)
	nsec := int64((secsSince2001 - float64(sec)) * 1e9)
	return time.Unix(macEpoch+sec, nsec).UTC()
}
