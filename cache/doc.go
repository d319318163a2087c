// Package cache stores API response bodies for idempotent reads.
//
// A Cache holds raw bytes under keys derived by a Keyer from the request
// method, the fully resolved URL and a fingerprint of the credential, so
// two tokens never share an entry. MemoryCache is a bounded LRU with
// per-entry expiry; RedisCache shares entries across processes.
//
// Middleware puts a Cache in front of a fetch function. Only GET requests
// are cached by default, errors are never stored, and concurrent misses for
// the same key are coalesced into a single fetch.
package cache
