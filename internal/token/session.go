package token

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/dtroode/finance-server/internal/model"
)

var _ model.TokenIssuer = (*SessionIssuer)(nil)

// SessionIssuer derives opaque session tokens with keyed BLAKE2b.
//
// The token is a digest over the digest of the login and the password hash,
// so it changes whenever either input changes and reveals neither.
type SessionIssuer struct {
	key [blake2b.Size256]byte
}

// NewSessionIssuer creates an issuer keyed by secret.
func NewSessionIssuer(secret string) *SessionIssuer {
	return &SessionIssuer{key: blake2b.Sum256([]byte(secret))}
}

// Issue returns the hex encoded session token for login and passwordHash.
func (s *SessionIssuer) Issue(login, passwordHash string) string {
	loginDigest := blake2b.Sum256([]byte(login))

	// New256 only fails for keys longer than 64 bytes.
	h, err := blake2b.New256(s.key[:])
	if err != nil {
		panic(err)
	}
	h.Write(loginDigest[:])
	h.Write([]byte(passwordHash))

	return hex.EncodeToString(h.Sum(nil))
}
