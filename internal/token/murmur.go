// Package token implements the partitioner token hash used by the
// storage engine: murmur3 x64 128 with seed 0, in the Cassandra variant
// that sign-extends tail bytes. The first hash lane, reinterpreted as a
// signed 64-bit integer, is the token.
//
// The variant matters: general-purpose murmur3 libraries fold tail bytes
// as unsigned values and produce different hashes for any input with a
// high bit set, which would silently corrupt every token-range
// comparison. Token must stay bit-exact with the engine's partitioner.
package token

import "encoding/binary"

const (
	c1 uint64 = 0x87c37b91114253d5
	c2 uint64 = 0x4cf5ad432745937f
)

// Token hashes raw partition-key bytes to the engine's signed 64-bit
// token. Pure function, safe for concurrent use.
func Token(data []byte) int64 {
	var h1, h2 uint64

	n := len(data)
	nblocks := n / 16

	for i := 0; i < nblocks; i++ {
		k1 := binary.LittleEndian.Uint64(data[i*16:])
		k2 := binary.LittleEndian.Uint64(data[i*16+8:])

		k1 *= c1
		k1 = rotl64(k1, 31)
		k1 *= c2
		h1 ^= k1

		h1 = rotl64(h1, 27)
		h1 += h2
		h1 = h1*5 + 0x52dce729

		k2 *= c2
		k2 = rotl64(k2, 33)
		k2 *= c1
		h2 ^= k2

		h2 = rotl64(h2, 31)
		h2 += h1
		h2 = h2*5 + 0x38495ab5
	}

	// Tail bytes are sign-extended before the shifted XOR. This is the
	// signed-byte fold the engine inherits from its Java ancestry.
	tail := data[nblocks*16:]
	var k1, k2 uint64

	if len(tail) > 8 {
		for i := len(tail) - 1; i >= 8; i-- {
			k2 ^= signExtend(tail[i]) << uint((i-8)*8)
		}
		k2 *= c2
		k2 = rotl64(k2, 33)
		k2 *= c1
		h2 ^= k2
	}

	if len(tail) > 0 {
		top := len(tail) - 1
		if top > 7 {
			top = 7
		}
		for i := top; i >= 0; i-- {
			k1 ^= signExtend(tail[i]) << uint(i*8)
		}
		k1 *= c1
		k1 = rotl64(k1, 31)
		k1 *= c2
		h1 ^= k1
	}

	h1 ^= uint64(n)
	h2 ^= uint64(n)

	h1 += h2
	h2 += h1

	h1 = fmix(h1)
	h2 = fmix(h2)

	h1 += h2

	// Two's-complement reinterpretation wraps overflow exactly the way
	// the partitioner truncates into [-2^63+1, 2^63-1].
	return int64(h1)
}

func rotl64(x uint64, r uint) uint64 {
	return x<<r | x>>(64-r)
}

func fmix(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

func signExtend(b byte) uint64 {
	return uint64(int64(int8(b)))
}
