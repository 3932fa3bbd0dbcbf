// Package identity derives the anonymous trial-tracking key for a caller
// from its forwarded address and browser signature.
package identity

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// UnknownAddress stands in for a missing forwarded address.
const UnknownAddress = "unknown"

// Scope selects which request attributes make up a trial identity.
type Scope string

const (
	// ScopeAddressAndAgent grants one trial per (address, browser signature) pair.
	ScopeAddressAndAgent Scope = "address_and_agent"
	// ScopeAddress grants one trial per client address.
	ScopeAddress Scope = "address"
)

// Options configures key derivation.
type Options struct {
	Scope Scope
	// Salt keys the hash so that stored keys cannot be brute-forced back
	// into addresses. Empty means an unkeyed hash.
	Salt string
}

// Key is a derived identity. Both parts are hex-encoded BLAKE2b-256 digests.
type Key struct {
	IPHash string
	UAHash string
	Scope  Scope
}

// String returns the ledger key for the configured scope.
func (k Key) String() string {
	if k.Scope == ScopeAddress {
		return "a:" + k.IPHash
	}
	return k.IPHash + ":" + k.UAHash
}

// ClientAddress returns the first entry of a comma-separated forwarded
// address chain, or UnknownAddress when there is none.
func ClientAddress(forwardedFor string) string {
	first, _, _ := strings.Cut(forwardedFor, ",")
	if addr := strings.TrimSpace(first); addr != "" {
		return addr
	}
	return UnknownAddress
}

// Derive builds the identity key for a request. It never fails.
func Derive(forwardedFor, userAgent string, opts Options) Key {
	scope := opts.Scope
	if scope == "" {
		scope = ScopeAddressAndAgent
	}
	return Key{
		IPHash: digest(opts.Salt, ClientAddress(forwardedFor)),
		UAHash: digest(opts.Salt, userAgent),
		Scope:  scope,
	}
}

func digest(salt, value string) string {
	var key []byte
	if salt != "" {
		sum := blake2b.Sum256([]byte(salt))
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		// Only reachable with a key longer than 64 bytes.
		panic(err)
	}
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}
