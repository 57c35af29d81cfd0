package browsertoken

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

// SecretProvider resolves a browser's Safe Storage password from the OS
// secret store. Implementations report absence, not errors: a missing
// entry and an unsupported secret store both mean the password is
// unavailable, which downgrades the scan rather than failing it.
type SecretProvider interface {
	Password(ctx context.Context, service, account string) (string, bool)
}

// SystemKeychain reads Safe Storage passwords from the OS keychain,
// falling back to the `security` command-line tool on macOS. It does not
// cache: every call hits the secret store.
type SystemKeychain struct {
	// Timeout bounds the helper subprocess. Zero means 3s.
	Timeout time.Duration
}

// Password implements SecretProvider.
func (k SystemKeychain) Password(ctx context.Context, service, account string) (string, bool) {
	if service == "" {
		return "", false
	}
	if pw, err := keyring.Get(service, account); err == nil {
		if pw = strings.TrimSpace(pw); pw != "" {
			return pw, true
		}
	}

	timeout := k.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout, _, err := execCapture(cctx, "security", []string{
		"find-generic-password",
		"-w",
		"-a", account,
		"-s", service,
	})
	if err != nil {
		return "", false
	}
	pw := strings.TrimSpace(stdout)
	if pw == "" {
		return "", false
	}
	return pw, true
}

var execCommandContext = exec.CommandContext

func execCapture(ctx context.Context, name string, args []string) (stdout string, stderr string, err error) {
	cmd := execCommandContext(ctx, name, args...)
	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}
