package vm

import (
	"math"
	"math/big"
)

// FNV-1a, 64 bit. Hashes are self-consistent within a process run; no
// cross-process stability is promised.
const (
	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

func hashBytes(b []byte) uint64 {
	h := fnvOffset
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime
	}
	return h
}

func hashString(s string) uint64 {
	h := fnvOffset
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return h
}

// hashBig hashes the canonical form of an integer: sign byte plus the
// minimal big-endian magnitude. Equal integers hash equal regardless of
// inline or heap representation.
func hashBig(n *big.Int) uint64 {
	var sign byte
	switch n.Sign() {
	case -1:
		sign = 2
	case 1:
		sign = 1
	}
	h := fnvOffset
	h ^= uint64(sign)
	h *= fnvPrime
	for _, c := range n.Bytes() {
		h ^= uint64(c)
		h *= fnvPrime
	}
	return h
}

func hashInt64(n int64) uint64 {
	return hashBig(big.NewInt(n))
}

// hashFloat keeps integral floats hash-equal to the equal integer.
func hashFloat(f float64) uint64 {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		bi, acc := big.NewFloat(f).Int(nil)
		if acc == big.Exact {
			return hashBig(bi)
		}
	}
	bits := math.Float64bits(f)
	h := fnvOffset
	for i := 0; i < 8; i++ {
		h ^= bits >> (8 * i) & 0xff
		h *= fnvPrime
	}
	return h
}

// hashCombine folds parts into one hash.
func hashCombine(parts ...uint64) uint64 {
	h := fnvOffset
	for _, p := range parts {
		for i := 0; i < 8; i++ {
			h ^= p >> (8 * i) & 0xff
			h *= fnvPrime
		}
	}
	return h
}
