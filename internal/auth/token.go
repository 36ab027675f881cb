package auth

import (
	"strings"
	"time"

	"github.com/jaevor/go-nanoid"
)

// ReservedAdminUsername is the single hardcoded privileged account.
// It cannot be registered and cannot be deleted.
const ReservedAdminUsername = "csjjpfp"

// Session tokens are opaque bearer credentials looked up in the
// sessions table. 43 characters of the nanoid standard alphabet give
// ~258 bits of entropy, and the alphabet is URL- and header-safe.
const sessionTokenLength = 43

// SessionDuration is the fixed token lifetime from issuance.
const SessionDuration = 30 * 24 * time.Hour

// NewSessionToken generates a fresh opaque session token from a
// cryptographically secure source.
func NewSessionToken() (string, error) {
	generate, err := nanoid.Standard(sessionTokenLength)
	if err != nil {
		return "", err
	}
	return generate(), nil
}

// IsReservedUsername reports whether username collides with the admin
// account, compared case-insensitively.
func IsReservedUsername(username string) bool {
	return strings.EqualFold(username, ReservedAdminUsername)
}
