package hashing

import "math/bits"

// Distance is the Hamming distance between two fingerprints: the number of
// differing bits, in 0..64.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
