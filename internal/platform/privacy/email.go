package privacy

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// PseudonymizeEmail returns a stable, non-reversible token for an email
// address: a BLAKE2b prefix of the normalized address, followed by the
// domain in clear (e.g. "3f9a0c12d4e1@x.com").
//
// Returns "unknown" for empty input.
func PseudonymizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "unknown"
	}
	local, domain, found := strings.Cut(email, "@")
	if !found {
		domain = ""
	}
	sum := blake2b.Sum256([]byte(local + "@" + domain))
	token := hex.EncodeToString(sum[:6])
	if domain == "" {
		return token
	}
	return token + "@" + domain
}
