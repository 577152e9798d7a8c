package utils

import "hash/fnv"

// HashStringToUint64 gives the mock AI adapter stable pseudo-usage numbers:
// the same transcript always reports the same token counts.
func HashStringToUint64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
