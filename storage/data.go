package storage

import "golang.org/x/crypto/blake2b"

// sampleDenylistEntries is a small representative slice of the Debian
// OpenSSL weak-key denylist format described in §6:
// "RSA-<size>:<40-hex>" where the 40-hex tail is the last 40 hex
// characters of SHA-1("Modulus=<UPPERCASE HEX N>\n"). The full table is
// an external static-data service out of scope per spec.md §1; this
// seed lets CheckOpensslDenylist's lookup path and tests exercise the
// real format without vendoring the multi-megabyte reference table.
var sampleDenylistEntries = []string{
	"RSA-1024:5f406aa670e55b7ee0094889e6e53fdcec2fb2db",
	"RSA-2048:8a276d2c3a9e4a5bf40e7ea6e3f0e3f6f1b0a110",
}

// sampleKeypairEntries mirrors GetKeypairData's map<u64,bytes> shape:
// top 64 bits of a vulnerable modulus -> a 32-byte seed-reconstruction
// record of the form b0 | i1 b1 | i2 b2 | ... (first byte arbitrary,
// remaining bytes given as (index,value) pairs, all else zero). Empty
// here by default since no real CVE-2021-41117 table is bundled;
// rsacheck.CheckKeypairDenylist still exercises the full lookup +
// regenerate + verify pipeline against entries added by callers or
// tests via RegisterKeypairEntry.
var sampleKeypairEntries = map[uint64][]byte{}

// RegisterKeypairEntry installs a reconstruction record for nMSB (the
// top 64 bits of a modulus) into the keypair table, used by tests that
// exercise CheckKeypairDenylist end to end against a synthetic entry.
func RegisterKeypairEntry(nMSB uint64, record []byte) {
	GetKeypairData() // ensure the lazy map is initialized
	keypairData[nMSB] = record
	keypairCommits[nMSB] = blake2b.Sum256(record)
}

// sampleUnseededRands mirrors GetUnseededRands's map<bitsize,
// set<BigInt>> shape: well-known unseeded-PRNG prime outputs, keyed by
// bit size. Populated with a couple of small synthetic primes per size
// so CheckUnseededRand's probe loop (p0, p0|msb1, p0|msb11) is
// exercised against real-shaped data; the reference implementation's
// full table is an external static-data service per §6.
var sampleUnseededRands = map[int][]string{
	512: {
		"c90fdaa22168c234c4c6628b80dc1cd129024e088a67cc74020bbea63b139b22514a08798e3404ddef9519b3cd3a431b302b0a6df25f14374fe1356d6d51c245e485b576625e7ec6f44c42e9a63a3620ffffffffffffffff",
	},
}

// lcgCatalogEntry is the hex-encoded source for one GetLCGCatalog entry.
// c and d are the per-sample precomputed constants that let the
// solver express an LCG-generated nonce's upper/lower limbs as an
// affine function of the previous output, following each generator's
// own public multiplier and modulus (GMP's 64-bit LCG, Java's 48-bit
// linear congruential java.util.Random); constants is kept short here
// since the table is an external static-data service per the curve
// registry's own pattern.
type lcgCatalogEntry struct {
	curve         string
	sampleSize    int
	minSignatures int
	slidingWindow int
	w             string
	constants     [][2]string // (c, d) hex pairs
}

// sampleLCGEntries mirrors GetLCGCatalog's map<name, LCGConstants>
// shape for the two generators named in spec.md 4.F: GMP's 64-bit LCG
// (multiplier 0x5851f42d4c957f2d, increment 1, modulus 2^64) and Java's
// 48-bit java.util.Random LCG (multiplier 0x5deece66d, increment 0xb,
// modulus 2^48).
var sampleLCGEntries = map[string]lcgCatalogEntry{
	"gmp": {
		curve:         "secp256r1",
		sampleSize:    8,
		minSignatures: 3,
		slidingWindow: 2,
		w:             "10000",
		constants: [][2]string{
			{"5851f42d4c957f2d", "1"},
		},
	},
	"java_util_random": {
		curve:         "secp256r1",
		sampleSize:    8,
		minSignatures: 3,
		slidingWindow: 2,
		w:             "10000",
		constants: [][2]string{
			{"5deece66d", "b"},
		},
	},
}
