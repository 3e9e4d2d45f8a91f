package models

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// CodeFingerprint returns a short stable digest of a unique code, safe to
// write to logs and audit entries in place of the code itself.
func CodeFingerprint(code string) string {
	sum := blake2b.Sum256([]byte(code))
	return hex.EncodeToString(sum[:6])
}
