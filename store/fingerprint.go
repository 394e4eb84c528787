package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives a pseudonymous voter identity from connection
// metadata plus an optional user id. The same (address, agent, userID)
// triple always yields the same digest, which is what makes retry-safe
// duplicate detection possible. Voters behind shared proxies or with
// varying user agents get different fingerprints; that is an accepted
// limitation of this scheme.
func Fingerprint(address, agent, userID string) string {
	sum := sha256.Sum256([]byte(address + ":" + agent + ":" + userID))
	return hex.EncodeToString(sum[:])
}
