// Package browsertoken recovers candidate session tokens for a web service
// from local browser state: Chromium-family encrypted cookie stores, the
// Safari binarycookies container, and IndexedDB leveldb segments.
//
// This is intended for local tooling (CLI helpers, dev scripts). It reads
// browser profile data, may trigger keychain prompts, and performs no
// network I/O or persistence of its own. An empty result is a normal
// outcome, not a failure: choosing, storing, or refreshing a token is the
// caller's job.
//
// Cookie decryption implements the macOS Safe Storage scheme (PBKDF2-SHA1
// key, AES-128-CBC with the platform's fixed IV). On other platforms
// encrypted cookie values are reported as unavailable rather than guessed
// at; plaintext values and IndexedDB tokens still work.
package browsertoken
