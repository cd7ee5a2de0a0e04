package randomness

import "github.com/zeebo/blake3"

// GenerateTestBits deterministically expands seed into nBits bits via
// BLAKE3's XOF, giving the suite's own regression fixtures (FindBias and
// LinearComplexityScatter in particular need long, exactly-repeatable
// bitstreams) a fast non-crypto.Hash-registered generator instead of
// drawing on crypto/rand.
func GenerateTestBits(seed []byte, nBits int) Bits {
	nBytes := (nBits + 7) / 8
	h := blake3.New()
	h.Write(seed)
	digest := h.Digest()
	raw := make([]byte, nBytes)
	if _, err := digest.Read(raw); err != nil {
		panic(err)
	}
	out := make(Bits, nBits)
	for i := 0; i < nBits; i++ {
		byteIdx := i / 8
		bitIdx := 7 - uint(i%8)
		out[i] = (raw[byteIdx] >> bitIdx) & 1
	}
	return out
}
