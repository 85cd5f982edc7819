package rarity

// Transpose64 performs an in-place transpose of a 64×64 bit matrix
// stored as 64 rows of one uint64 each, bit c of row r being column c
// (LSB first), using the recursive "Hacker's Delight" shuffle
// (spec.md §4.8, property #7: applying it twice is the identity).
func Transpose64(a *[64]uint64) {
	var m uint64 = 0x00000000FFFFFFFF
	for j := uint(32); j != 0; {
		for k := uint(0); k < 64; k = (k + j + 1) &^ j {
			t := ((a[k] >> j) ^ a[k+j]) & m
			a[k] ^= t << j
			a[k+j] ^= t
		}
		j >>= 1
		m ^= m << j
	}
}
