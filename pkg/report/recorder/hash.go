package recorder

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint identifies a validation outcome independently of when and
// where it happened: the same document failing the same way always gets
// the same fingerprint. Valid documents are fingerprinted by digest alone.
func Fingerprint(digest, kind, path, field string) string {
	parts := []string{digest, kind, path, field}
	if kind == "" {
		parts = []string{digest, "valid"}
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
