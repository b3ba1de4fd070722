package utils

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// legacyDigest matches the unsalted MD5 hex digests written by the previous
// backend.
var legacyDigest = regexp.MustCompile(`^[0-9a-f]{32}$`)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a stored credential with a plain password.  bcrypt
// hashes are checked with bcrypt; legacy MD5 digests are compared in constant
// time and reported with needsRehash so the caller can upgrade them.
func VerifyPassword(hash, plain string) (ok bool, needsRehash bool) {
	if IsLegacyHash(hash) {
		sum := md5.Sum([]byte(plain))
		got := hex.EncodeToString(sum[:])
		ok = subtle.ConstantTimeCompare([]byte(got), []byte(hash)) == 1
		return ok, ok
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil, false
}

// IsLegacyHash reports whether hash is an MD5 hex digest.
func IsLegacyHash(hash string) bool {
	return legacyDigest.MatchString(hash)
}
