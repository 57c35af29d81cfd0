package browsertoken

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

func fileExists(fsys afero.Fs, path string) bool {
	fi, err := fsys.Stat(path)
	return err == nil && !fi.IsDir()
}

func dirExists(fsys afero.Fs, path string) bool {
	fi, err := fsys.Stat(path)
	return err == nil && fi.IsDir()
}

// resolveCookieStore returns the first existing cookie-store path for d,
// or "" when the browser has no store on this machine.
func resolveCookieStore(fsys afero.Fs, d Descriptor) string {
	for _, p := range []string{d.CookieStore, d.LegacyCookieStore} {
		if p != "" && fileExists(fsys, p) {
			return p
		}
	}
	return ""
}

// copyOut copies src from fsys to dst on the OS filesystem. Snapshots must
// live on the real filesystem so the SQLite driver can open them.
func copyOut(fsys afero.Fs, src, dst string) error {
	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func copyOutIfExists(fsys afero.Fs, src, dst string) error {
	if _, err := fsys.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return copyOut(fsys, src, dst)
}
