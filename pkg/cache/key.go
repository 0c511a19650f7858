package cache

import (
	"crypto/md5"
	"encoding/hex"
)

// DefaultPrefix is prepended to every derived cache key unless configured otherwise.
const DefaultPrefix = "filament_api_"

// Key derives the cache key for a compiled request target
// (endpoint plus serialized query string).
//
// The key is prefix + hex(md5(compiled)). It carries no salt, so entries
// written by one process are found by the next one.
//
// Example:
//
//	Key("filament_api_", "/users?page=1&per_page=15")
//	// filament_api_5d6e1e6b0d6c4f0e8d1f0a7c4d4f3b2a (32 hex chars after the prefix)
func Key(prefix, compiled string) string {
	sum := md5.Sum([]byte(compiled))
	return prefix + hex.EncodeToString(sum[:])
}
