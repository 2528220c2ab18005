package cache

import "strings"

const keyPrefix = "pawdex:cache:"

// ListingKey builds the cache key for one normalized listing query.
// The query's sorted-parameter fragment starts with "city=", which keeps
// per-city invalidation a simple prefix pattern.
func ListingKey(queryKey string) string {
	return keyPrefix + "listing:" + queryKey
}

// ListingPattern matches every cached listing page for one city.
// An empty city matches the pages of unfiltered (all-cities) listings,
// which must also be dropped when any report changes.
func ListingPattern(city string) string {
	return keyPrefix + "listing:city=" + strings.ToLower(strings.TrimSpace(city)) + ":*"
}

// AllListingsPattern matches every cached listing page. Used by the
// retention hook, which cannot tell which cities it touched after the fact.
func AllListingsPattern() string {
	return keyPrefix + "listing:*"
}

// AllReversePattern matches every cached reverse-search response.
func AllReversePattern() string {
	return keyPrefix + "reverse:*"
}

// ReverseKey builds the cache key for one reverse-search response:
// city plus the uploaded image's content fingerprint.
func ReverseKey(city, fingerprint string) string {
	return keyPrefix + "reverse:" + strings.ToLower(strings.TrimSpace(city)) + ":" + fingerprint
}

// ReversePattern matches every cached reverse-search response for one city.
func ReversePattern(city string) string {
	return keyPrefix + "reverse:" + strings.ToLower(strings.TrimSpace(city)) + ":*"
}
