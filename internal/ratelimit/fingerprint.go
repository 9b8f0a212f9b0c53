package ratelimit

import (
	"crypto/sha1"
	"encoding/hex"
)

// Fingerprint derives a client identifier from request metadata. The inputs
// are caller-controlled headers, so the identifier is spoofable and
// non-authoritative: a client that varies them defeats the limiter. This is
// a known weakness of header-based identification, kept deliberately in the
// absence of reliable IP visibility.
func Fingerprint(userAgent, acceptLanguage string) string {
	sum := sha1.Sum([]byte(userAgent + "|" + acceptLanguage))
	return hex.EncodeToString(sum[:])
}
