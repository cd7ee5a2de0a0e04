// Package rsacheck implements component C: one check per known RSA
// weakness, each consuming a list of RSAKey and writing verdicts into
// its TestInfo, plus the CVE-2021-41117 keypair regenerator.
package rsacheck

import (
	"crypto/aes"
	"crypto/sha1"
	"math/big"
)

// gcd30Delta is the fixed wheel used to walk candidates of the form
// 30k+1 toward the next prime: starting at r=1 (mod 30), successive
// +delta steps only ever land on residues coprime to 30.
var gcd30Delta = []int{6, 4, 2, 4, 2, 4, 6, 2}

// KeypairGenerator deterministically regenerates the two RSA primes the
// CVE-2021-41117 vulnerable library would have produced from a 16-byte
// seed, by replaying its exact construction: SHA-1(seed) -> t,
// SHA-1(t) -> key, SHA-1(key) -> new seed (16-byte halves of each), then
// generating each prime by AES-128-ECB-encrypting a 16-byte counter
// under the rolling key, concatenating blocks, and between blocks
// rolling the counter forward and re-deriving the key/counter pair from
// AES-ECB outputs (never SHA-1), stripping the leading/trailing byte,
// forcing the MSB, aligning to 30k+1, and trial-incrementing by
// gcd30Delta until prime.
type KeypairGenerator struct {
	key  []byte
	seed []byte
}

// NewKeypairGenerator derives the initial (key, seed) state from a
// 16-byte seed per the vulnerable library's initialization.
func NewKeypairGenerator(seed16 []byte) *KeypairGenerator {
	tFull := sha1.Sum(seed16)
	keyFull := sha1.Sum(tFull[:])
	seedFull := sha1.Sum(keyFull[:])
	return &KeypairGenerator{
		key:  append([]byte{}, keyFull[:16]...),
		seed: append([]byte{}, seedFull[:16]...),
	}
}

// incrementCounter returns ctr+1 as a 16-byte big-endian value,
// wrapping on overflow, without mutating ctr.
func incrementCounter(ctr []byte) []byte {
	out := append([]byte{}, ctr...)
	for i := len(out) - 1; i >= 0; i-- {
		out[i]++
		if out[i] != 0 {
			break
		}
	}
	return out
}

// nextBlock encrypts the current 16-byte seed under the current
// 16-byte key with AES-128-ECB (one block, no padding), then derives
// the next key and seed entirely from AES-ECB outputs: the new key is
// AES_E(oldKey, seed+1), and the new seed is AES_E(newKey, seed+1),
// matching the vulnerable library's key/seed roll (no SHA-1 involved
// once the initial key/seed pair is derived).
func (g *KeypairGenerator) nextBlock() []byte {
	block, err := aes.NewCipher(g.key)
	if err != nil {
		panic(err) // key is always exactly 16 bytes here
	}
	ct := make([]byte, aes.BlockSize)
	block.Encrypt(ct, g.seed)

	seedInc := incrementCounter(g.seed)

	newKey := make([]byte, aes.BlockSize)
	block.Encrypt(newKey, seedInc) // still under the old key

	newBlock, err := aes.NewCipher(newKey)
	if err != nil {
		panic(err)
	}
	newSeed := make([]byte, aes.BlockSize)
	newBlock.Encrypt(newSeed, seedInc)

	g.key = newKey
	g.seed = newSeed
	return ct
}

// generatePrimeCandidate produces one candidate integer of bitSize bits
// from the AES-ECB block stream: enough blocks are generated to cover
// bitSize bits, the leading and trailing byte are stripped, the MSB is
// forced set (to guarantee the bit length), and the value is aligned to
// 30k+1.
func (g *KeypairGenerator) generatePrimeCandidate(bitSize int) *big.Int {
	nBytes := bitSize / 8
	var buf []byte
	for len(buf) <= nBytes {
		buf = append(buf, g.nextBlock()...)
	}
	buf = buf[1 : 1+nBytes] // strip leading and trailing byte
	buf[0] |= 0x80          // force msb

	p := new(big.Int).SetBytes(buf)
	rem := new(big.Int).Mod(p, big.NewInt(30))
	p.Add(p, big.NewInt(int64(31-rem.Int64())))
	return p
}

// isProbablePrime mirrors the vulnerable library's two-stage check:
// a cheap single-round probe while trial-walking, confirmed by a
// stronger 10-round test before accepting p.
func isProbablePrime(p *big.Int, rounds int) bool {
	return p.ProbablyPrime(rounds)
}

// GeneratePrime produces one deterministic bitSize-bit prime from the
// generator's current state. A candidate that passes the cheap 1-round
// probe but fails the 10-round confirmation is discarded outright: a
// fresh candidate is redrawn from the (already-advanced) AES-ECB stream
// rather than continuing to trial-increment the rejected one.
func (g *KeypairGenerator) GeneratePrime(bitSize int) *big.Int {
	for {
		p := g.generatePrimeCandidate(bitSize)
		idx := 0
		for !isProbablePrime(p, 1) {
			p.Add(p, big.NewInt(int64(gcd30Delta[idx%len(gcd30Delta)])))
			idx++
		}
		if isProbablePrime(p, 10) {
			return p
		}
	}
}

// GenerateKeypair reproduces the vulnerable library's modulus
// construction: generate p and q of bitSize/2 bits each, swap so p>q,
// and retry q until n=p*q has exactly bitSize bits.
func (g *KeypairGenerator) GenerateKeypair(bitSize int) (p, q, n *big.Int) {
	half := bitSize / 2
	p = g.GeneratePrime(half)
	for {
		q = g.GeneratePrime(half)
		if p.Cmp(q) < 0 {
			p, q = q, p
		}
		n = new(big.Int).Mul(p, q)
		if n.BitLen() == bitSize {
			return p, q, n
		}
		// retry q only, per the vulnerable construction
	}
}

// ReconstructSeed rebuilds the 32-byte seed from a keypair-table record
// of the form b0 | (i1,b1) | (i2,b2) | ... : the first byte is given
// directly, remaining bytes are (index,value) pairs into an otherwise
// zero 32-byte buffer.
func ReconstructSeed(record []byte) []byte {
	seed := make([]byte, 32)
	if len(record) == 0 {
		return seed
	}
	seed[0] = record[0]
	for i := 1; i+1 < len(record); i += 2 {
		idx := int(record[i])
		val := record[i+1]
		if idx >= 0 && idx < len(seed) {
			seed[idx] = val
		}
	}
	return seed
}
