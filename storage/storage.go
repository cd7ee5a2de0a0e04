// Package storage provides the static data services of §6: weak-key
// denylists, the CVE-2021-41117 keypair-reconstruction table,
// well-known unseeded-PRNG prime outputs, and the LCG precomputed-
// constants catalog. Each is read-only after a lazy, one-shot load,
// matching the teacher's pattern of lazy immutable package-level
// singletons (the curve and check registries use the same sync.Once
// shape).
package storage

import (
	"math/big"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/paranoidgo/paranoid/hnp"
)

var (
	denylistOnce sync.Once
	denylist     map[string]struct{}

	keypairOnce    sync.Once
	keypairData    map[uint64][]byte
	keypairCommits map[uint64][32]byte

	unseededOnce  sync.Once
	unseededRands map[int][]*big.Int

	lcgCatalogOnce sync.Once
	lcgCatalog     map[string]hnp.LCGConstants
)

// GetOpensslDenylist returns the set of "RSA-<size>:<40-hex>" strings
// flagging Debian CVE-2008-0166 weak keys. The reference implementation
// ships a multi-megabyte table; this module carries only a
// representative seed set (the denylist is an opaque external service
// per §6), and there is no hook for loading further entries.
func GetOpensslDenylist() map[string]struct{} {
	denylistOnce.Do(func() {
		denylist = map[string]struct{}{}
		for _, e := range sampleDenylistEntries {
			denylist[e] = struct{}{}
		}
	})
	return denylist
}

// GetKeypairData returns the CVE-2021-41117 top-64-bits-of-modulus to
// seed-reconstruction-record table.
func GetKeypairData() map[uint64][]byte {
	keypairOnce.Do(func() {
		keypairData = map[uint64][]byte{}
		keypairCommits = map[uint64][32]byte{}
		for k, v := range sampleKeypairEntries {
			keypairData[k] = v
			keypairCommits[k] = blake2b.Sum256(v)
		}
	})
	return keypairData
}

// KeypairCommitment returns the BLAKE2b-256 commitment of the
// reconstruction record stored under nMSB, computed once when the
// record was indexed. CheckKeypairDenylist checks a reconstructed
// seed's record against this commitment before paying for a full
// keypair regeneration, the same role a content hash plays guarding a
// cache lookup against a stale or colliding key.
func KeypairCommitment(nMSB uint64) ([32]byte, bool) {
	GetKeypairData()
	c, ok := keypairCommits[nMSB]
	return c, ok
}

// GetLCGCatalog returns the precomputed-constants catalog for the
// LCG-nonce HNP variant, keyed by generator name ("gmp",
// "java_util_random"). Each entry's (c, d) constants are derived from
// the generator's public multiplier/modulus per curve and are safe to
// share across callers; CheckLCGNonceGMP and CheckLCGNonceJavaUtilRandom
// look an entry up by curve before running the solver.
func GetLCGCatalog() map[string]hnp.LCGConstants {
	lcgCatalogOnce.Do(func() {
		lcgCatalog = map[string]hnp.LCGConstants{}
		for name, entry := range sampleLCGEntries {
			constants := make([][2]*big.Int, len(entry.constants))
			for i, cd := range entry.constants {
				c, _ := new(big.Int).SetString(cd[0], 16)
				d, _ := new(big.Int).SetString(cd[1], 16)
				constants[i] = [2]*big.Int{c, d}
			}
			w, _ := new(big.Int).SetString(entry.w, 16)
			lcgCatalog[name] = hnp.LCGConstants{
				Curve:         entry.curve,
				Name:          name,
				SampleSize:    entry.sampleSize,
				MinSignatures: entry.minSignatures,
				SlidingWindow: entry.slidingWindow,
				W:             w,
				Constants:     constants,
			}
		}
	})
	return lcgCatalog
}

// GetUnseededRands returns candidate primes produced by well-known
// unseeded-PRNG outputs for the given bit size.
func GetUnseededRands(bitSize int) []*big.Int {
	unseededOnce.Do(func() {
		unseededRands = map[int][]*big.Int{}
		for size, hexVals := range sampleUnseededRands {
			vals := make([]*big.Int, 0, len(hexVals))
			for _, h := range hexVals {
				v, ok := new(big.Int).SetString(h, 16)
				if ok {
					vals = append(vals, v)
				}
			}
			unseededRands[size] = vals
		}
	})
	return unseededRands[bitSize]
}
