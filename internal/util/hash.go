// Package util contains internal helpers (hashing, power-of-two rounding,
// cache-line sizing).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

// Mix64 finalizes a 64-bit object ID into a well-distributed hash.
// Trace IDs are often sequential or low-entropy, so bucket selection needs
// a real mixer rather than masking the raw value. This is the splitmix64
// finalizer (Stafford variant 13).
func Mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
