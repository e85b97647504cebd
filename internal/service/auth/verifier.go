// Package auth implements the credential check guarding mutating routes.
//
// Authentication is deliberately minimal: a single shared username/password
// pair compared against a Basic-Auth-style value carried in a header or
// cookie. There is no session store, token expiry, or rotation; every
// request re-validates independently.
package auth

import (
	"encoding/base64"
	"strings"
)

// Verifier checks a caller-supplied credential of the form
// "<scheme> <base64(user:pass)>". Implementations never error; malformed or
// missing input verifies as false. The interface exists so the check is
// testable without environment coupling and extensible to per-user
// credentials later.
type Verifier interface {
	Verify(candidate string) bool
}

// StaticVerifier compares decoded credentials against two configured strings.
type StaticVerifier struct {
	username string
	password string
}

// NewStaticVerifier creates a Verifier for the given shared credential.
func NewStaticVerifier(username, password string) *StaticVerifier {
	return &StaticVerifier{
		username: username,
		password: password,
	}
}

// Ensure StaticVerifier implements Verifier
var _ Verifier = (*StaticVerifier)(nil)

// Verify decodes the base64 payload, splits on the first colon, and compares
// both parts. The scheme word is not inspected; whatever precedes the space
// is accepted.
func (v *StaticVerifier) Verify(candidate string) bool {
	_, payload, found := strings.Cut(candidate, " ")
	if !found {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return false
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return false
	}

	return username == v.username && password == v.password
}

// EncodeCredential builds the "<base64(user:pass)>" payload for a credential.
// Used when issuing the auth cookie after a successful Basic login.
func EncodeCredential(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
