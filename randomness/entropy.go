package randomness

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// trainTestSplit derives a deterministic pseudo-random permutation of
// [0,numSamples) from a SHA-3 digest of the samples themselves, so
// FindBias's training/test partition isn't just "first half, second
// half" (which would let a source biased only in its early output pass
// by construction). The wider SHA-3 digest gives more permutation
// entropy per draw than a 64-bit split seed would.
func trainTestSplit(samples []byte, numSamples int) []int {
	digest := sha3.Sum256(samples)
	perm := make([]int, numSamples)
	for i := range perm {
		perm[i] = i
	}
	// Fisher-Yates using the digest as an expanding entropy source: once
	// its 32 bytes are consumed, re-hash to extend it.
	state := digest
	consumed := 0
	nextWord := func() uint64 {
		if consumed+8 > len(state) {
			state = sha3.Sum256(state[:])
			consumed = 0
		}
		w := binary.BigEndian.Uint64(state[consumed : consumed+8])
		consumed += 8
		return w
	}
	for i := numSamples - 1; i > 0; i-- {
		j := int(nextWord() % uint64(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// samplesToBytes packs a slice of big-endian sample values into bytes
// suitable for trainTestSplit's digest input.
func samplesToBytes(samples [][]byte) []byte {
	out := make([]byte, 0)
	for _, s := range samples {
		out = append(out, s...)
	}
	return out
}
