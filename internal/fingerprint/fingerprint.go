// Package fingerprint computes stable content digests used to decide when a
// source file has changed between runs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"imagemill/internal/services"
)

// Compute returns the SHA-256 hex digest of the file's byte contents. The
// digest is stable across runs for unchanged files and changes whenever any
// byte changes. Missing or unreadable files fail with an IO-classified error.
func Compute(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrIO, "fingerprint", "open", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", services.Wrap(services.ErrIO, "fingerprint", "read", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// ComputeBytes digests an in-memory payload. Used for callback command
// signatures, which need the same digest shape as file fingerprints.
func ComputeBytes(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Short truncates a digest for log lines. Full digests stay in the ledger.
func Short(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
