package rsacheck

import (
	"container/heap"
	"crypto/sha1"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/paranoidgo/paranoid/ntheory"
	"github.com/paranoidgo/paranoid/ntheory/factoring"
	"github.com/paranoidgo/paranoid/paranoidpb"
	"github.com/paranoidgo/paranoid/storage"
)

// Check names, used both as the TestResult.CheckName and as registry
// keys in the orchestrator.
const (
	NameSizes                 = "CheckSizes"
	NameExponents             = "CheckExponents"
	NameROCA                  = "CheckROCA"
	NameROCAVariant           = "CheckROCAVariant"
	NameFermat                = "CheckFermat"
	NameHighAndLowBitsEqual   = "CheckHighAndLowBitsEqual"
	NameOpensslDenylist       = "CheckOpensslDenylist"
	NameContinuedFractions    = "CheckContinuedFractions"
	NameBitPatterns           = "CheckBitPatterns"
	NamePermutedBitPatterns   = "CheckPermutedBitPatterns"
	NamePollardpm1            = "CheckPollardpm1"
	NameLowHammingWeight      = "CheckLowHammingWeight"
	NameUnseededRand          = "CheckUnseededRand"
	NameSmallUpperDifferences = "CheckSmallUpperDifferences"
	NameKeypairDenylist       = "CheckKeypairDenylist"
	NameGCD                   = "CheckGCD"
	NameGCDN1                 = "CheckGCDN1"
)

func record(k *paranoidpb.RSAKey, name string, sev paranoidpb.Severity, weak bool) {
	k.Info.SetResult(paranoidpb.TestResult{CheckName: name, Severity: sev, Result: weak})
}

// CheckSizes flags moduli below 2048 bits.
func CheckSizes(keys []*paranoidpb.RSAKey) bool {
	anyWeak := false
	for _, k := range keys {
		weak := k.N.BitLen() < 2048
		record(k, NameSizes, paranoidpb.SeverityMedium, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckExponents flags e != 65537.
func CheckExponents(keys []*paranoidpb.RSAKey) bool {
	f4 := big.NewInt(65537)
	anyWeak := false
	for _, k := range keys {
		weak := k.E.Cmp(f4) != 0
		record(k, NameExponents, paranoidpb.SeverityMedium, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// rocaPrimes are the 39 small primes ROCA tests a discrete log against.
var rocaPrimes = []int64{
	3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73,
	79, 83, 89, 97, 101, 103, 107, 109, 113, 127, 131, 137, 139, 149, 151, 157,
	163, 167, 173,
}

// rocaVariantPrimes are the 48 primes > 3 used by the QR-based ROCA
// variant check.
var rocaVariantPrimes = []int64{
	5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79,
	83, 89, 97, 101, 103, 107, 109, 113, 127, 131, 137, 139, 149, 151, 157, 163,
	167, 173, 179, 181, 191, 193, 197, 199, 211, 223, 227, 229,
}

// hasDiscreteLog reports whether n has a discrete log base `base`
// modulo prime p (a small brute-force search, feasible since p < 256).
func hasDiscreteLog(n *big.Int, base, p int64) bool {
	target := new(big.Int).Mod(n, big.NewInt(p))
	acc := big.NewInt(1 % p)
	b := big.NewInt(base % p)
	for e := int64(0); e < p; e++ {
		if acc.Cmp(target) == 0 {
			return true
		}
		acc.Mul(acc, b)
		acc.Mod(acc, big.NewInt(p))
	}
	return false
}

// CheckROCA detects ROCA-vulnerable (RSALib) keys: n has a discrete log
// base 65537 modulo each of the 39 small ROCA primes.
func CheckROCA(keys []*paranoidpb.RSAKey) bool {
	anyWeak := false
	for _, k := range keys {
		weak := true
		for _, p := range rocaPrimes {
			if !hasDiscreteLog(k.N, 65537, p) {
				weak = false
				break
			}
		}
		record(k, NameROCA, paranoidpb.SeverityHigh, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckROCAVariant detects ROCA-like constructions with an unknown
// base generator: n is a quadratic residue modulo each of 48 small
// primes greater than 3.
func CheckROCAVariant(keys []*paranoidpb.RSAKey) bool {
	anyWeak := false
	for _, k := range keys {
		weak := true
		for _, p := range rocaVariantPrimes {
			if big.Jacobi(k.N, big.NewInt(p)) == -1 {
				weak = false
				break
			}
		}
		record(k, NameROCAVariant, paranoidpb.SeverityMedium, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckFermat flags |p-q| small via classical Fermat factoring, bounded
// to 100000 steps.
func CheckFermat(keys []*paranoidpb.RSAKey) bool {
	anyWeak := false
	for _, k := range keys {
		p, q, ok := factoring.FermatFactor(k.N, 100000)
		if ok {
			k.Info.AttachFactors("factors", p, q)
		}
		record(k, NameFermat, paranoidpb.SeverityCritical, ok)
		anyWeak = anyWeak || ok
	}
	return anyWeak
}

// CheckHighAndLowBitsEqual flags shared-high-and-low-bit primes.
func CheckHighAndLowBitsEqual(keys []*paranoidpb.RSAKey) bool {
	anyWeak := false
	for _, k := range keys {
		p, q, ok := factoring.FactorHighAndLowBitsEqual(k.N, 3)
		if ok {
			k.Info.AttachFactors("factors", p, q)
		}
		record(k, NameHighAndLowBitsEqual, paranoidpb.SeverityCritical, ok)
		anyWeak = anyWeak || ok
	}
	return anyWeak
}

// CheckOpensslDenylist flags Debian CVE-2008-0166 weak keys: the full
// 160-bit SHA-1 of "Modulus=<HEX N>\n", as 40 hex chars, looked up in
// the denylist keyed by "RSA-<size>:<40-hex>".
func CheckOpensslDenylist(keys []*paranoidpb.RSAKey) bool {
	denylist := storage.GetOpensslDenylist()
	anyWeak := false
	for _, k := range keys {
		hexN := strings.ToUpper(k.N.Text(16))
		msg := fmt.Sprintf("Modulus=%s\n", hexN)
		digest := sha1.Sum([]byte(msg))
		tail := fmt.Sprintf("%x", digest[:])
		key := fmt.Sprintf("RSA-%d:%s", k.N.BitLen(), tail)
		_, weak := denylist[key]
		record(k, NameOpensslDenylist, paranoidpb.SeverityCritical, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckContinuedFractions flags n whose continued-fraction expansion
// (against 2^bitlen(n)) has a partial quotient >= 2^48, indicating p is
// close to a low-complexity rational multiple of a power of two; it
// then attempts to factor via the implied quadratic.
func CheckContinuedFractions(keys []*paranoidpb.RSAKey) bool {
	bound := new(big.Int).Lsh(big.NewInt(1), 48)
	anyWeak := false
	for _, k := range keys {
		m := new(big.Int).Lsh(big.NewInt(1), uint(k.N.BitLen()))
		next := ntheory.ContinuedFraction(k.N, m)
		weak := false
		for {
			term, ok := next()
			if !ok {
				break
			}
			if term.Q.CmpAbs(bound) >= 0 {
				weak = true
				// attempt factorization via CheckFraction using this
				// convergent's denominator as the target d.
				if term.T.Sign() != 0 {
					if p, q, fok := factoring.CheckFraction(k.N, term.T); fok {
						k.Info.AttachFactors("factors", p, q)
					}
				}
				break
			}
		}
		record(k, NameContinuedFractions, paranoidpb.SeverityCritical, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// bitPatternSizes are the repeating-pattern lengths CheckBitPatterns
// tries, each bounded by bitlen(n)/8.
var bitPatternSizes = func() []int {
	sizes := []int{}
	for k := 1; k < 16; k += 2 {
		sizes = append(sizes, k)
	}
	sizes = append(sizes, 31, 63, 127, 255, 511, 8, 16, 32, 64, 128, 256)
	return sizes
}()

// CheckBitPatterns flags factors with a repeating bit pattern of length
// k, trying CheckFraction with d = 2^k-1 for each candidate k bounded by
// bitlen(n)/8.
func CheckBitPatterns(keys []*paranoidpb.RSAKey) bool {
	anyWeak := false
	for _, k := range keys {
		maxPattern := k.N.BitLen() / 8
		weak := false
		for _, size := range bitPatternSizes {
			if size > maxPattern {
				continue
			}
			d := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(size)), big.NewInt(1))
			if d.Sign() == 0 {
				continue
			}
			if p, q, ok := factoring.CheckFraction(k.N, d); ok {
				k.Info.AttachFactors("factors", p, q)
				weak = true
				break
			}
		}
		record(k, NameBitPatterns, paranoidpb.SeverityCritical, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckPermutedBitPatterns flags factors with word-swapped repeating
// patterns: d = (2^p-1)(2^(p*w)+1)/(2^w+1) for (w,p) in
// {8,16,32,64} x {odd 3..w-1}.
func CheckPermutedBitPatterns(keys []*paranoidpb.RSAKey) bool {
	type wp struct{ w, p int }
	var combos []wp
	for _, w := range []int{8, 16, 32, 64} {
		for p := 3; p < w; p += 2 {
			combos = append(combos, wp{w, p})
		}
	}
	anyWeak := false
	for _, k := range keys {
		weak := false
		for _, c := range combos {
			num := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(c.p)), big.NewInt(1))
			num.Mul(num, new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), uint(c.p*c.w)), big.NewInt(1)))
			den := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), uint(c.w)), big.NewInt(1))
			d := new(big.Int).Div(num, den)
			if d.Sign() == 0 {
				continue
			}
			if p, q, ok := factoring.CheckFraction(k.N, d); ok {
				k.Info.AttachFactors("factors", p, q)
				weak = true
				break
			}
		}
		record(k, NamePermutedBitPatterns, paranoidpb.SeverityCritical, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// pollardM precomputes a powersmooth product of small primes, used as
// the exponent for CheckPollardpm1: primes below 2^16 are included to
// the power that keeps them below a 2^64 powersmooth bound.
func pollardM() *big.Int {
	primes := ntheory.Sieve(1 << 16) // kept modest; full 2^20 bound is
	// the reference default but quadratic in cost for a library default.
	m := big.NewInt(1)
	limit := new(big.Int).Lsh(big.NewInt(1), 64)
	for _, p := range primes {
		pw := big.NewInt(int64(p))
		for {
			next := new(big.Int).Mul(pw, big.NewInt(int64(p)))
			if next.Cmp(limit) > 0 {
				break
			}
			pw = next
		}
		m.Mul(m, pw)
	}
	return m
}

var pollardMCache *big.Int

func pollardMOnce() *big.Int {
	if pollardMCache == nil {
		pollardMCache = pollardM()
	}
	return pollardMCache
}

// CheckPollardpm1 flags n with a smooth p-1: only when gcd(n-1, M) is
// large is the expensive gcd(2^((n-1)*M) mod n - 1, n) attempted.
func CheckPollardpm1(keys []*paranoidpb.RSAKey) bool {
	m := pollardMOnce()
	gcdBound := new(big.Int).Lsh(big.NewInt(1), 60)
	anyWeak := false
	for _, k := range keys {
		nMinus1 := new(big.Int).Sub(k.N, big.NewInt(1))
		g := new(big.Int).GCD(nil, nil, nMinus1, m)
		weak := false
		if g.Cmp(gcdBound) >= 0 {
			exp := new(big.Int).Mul(nMinus1, m)
			base := new(big.Int).Exp(big.NewInt(2), exp, k.N)
			base.Sub(base, big.NewInt(1))
			base.Mod(base, k.N)
			factor := new(big.Int).GCD(nil, nil, base, k.N)
			if factor.Cmp(big.NewInt(1)) > 0 && factor.Cmp(k.N) < 0 {
				weak = true
				k.Info.AttachFactors("factors", factor, new(big.Int).Div(k.N, factor))
			}
		}
		record(k, NamePollardpm1, paranoidpb.SeverityCritical, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// hwItem is a best-first search candidate for CheckLowHammingWeight:
// partial (p0,q0) most-significant-bit prefixes, the bit position next
// to fill, the running Hamming weight, and its heuristic priority.
type hwItem struct {
	heuristic int
	remBits   int
	hw        int
	bit       int
	p0, q0    *big.Int
}

type hwHeap []hwItem

func (h hwHeap) Len() int            { return len(h) }
func (h hwHeap) Less(i, j int) bool  { return h[i].heuristic < h[j].heuristic }
func (h hwHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *hwHeap) Push(x interface{}) { *h = append(*h, x.(hwItem)) }
func (h *hwHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// CheckLowHammingWeight searches for factors with low popcount via a
// best-first search over partial MSB prefixes of p and q, using the
// heuristic remBits + HeuristicWeight*hw. Returns a definite factor
// when found; if exhausted without one but the best heuristic reached
// is within 12 bits of bitlen(n), flags UNKNOWN (potentially weak).
func CheckLowHammingWeight(keys []*paranoidpb.RSAKey, heuristicWeight, cutoff, maxSteps int) bool {
	if heuristicWeight <= 0 {
		heuristicWeight = 5
	}
	if cutoff <= 0 {
		cutoff = 2500
	}
	if maxSteps <= 0 {
		maxSteps = 1000000
	}
	anyWeak := false
	for _, k := range keys {
		weak, unknown := lowHammingSearch(k.N, heuristicWeight, cutoff, maxSteps)
		if weak {
			record(k, NameLowHammingWeight, paranoidpb.SeverityCritical, true)
			anyWeak = true
		} else if unknown {
			record(k, NameLowHammingWeight, paranoidpb.SeverityUnknown, true)
			anyWeak = true
		} else {
			record(k, NameLowHammingWeight, paranoidpb.SeverityCritical, false)
		}
	}
	return anyWeak
}

func lowHammingSearch(n *big.Int, heuristicWeight, cutoff, maxSteps int) (weak, unknown bool) {
	bits := n.BitLen()
	thresholdWeak := bits - 12

	h := &hwHeap{}
	heap.Init(h)
	heap.Push(h, hwItem{heuristic: bits, remBits: bits, hw: 0, bit: bits - 1, p0: big.NewInt(0), q0: big.NewInt(0)})

	best := bits
	steps := 0
	for h.Len() > 0 && steps < maxSteps {
		steps++
		item := heap.Pop(h).(hwItem)
		if item.heuristic < best {
			best = item.heuristic
		}
		if item.bit < 0 {
			p := new(big.Int).Or(item.p0, big.NewInt(1))
			q := new(big.Int).Or(item.q0, big.NewInt(1))
			if p.Sign() > 0 && q.Sign() > 0 {
				prod := new(big.Int).Mul(p, q)
				if prod.Cmp(n) == 0 {
					return true, false
				}
			}
			continue
		}
		if item.hw > cutoff {
			continue
		}
		// Branch: set bit in p0 only, in q0 only, in neither (hw
		// unchanged) — omits "both" since bit in both doesn't reduce
		// search value for a distinguishing low-weight factor.
		next := item.bit - 1
		branches := []hwItem{
			{remBits: next + 1, hw: item.hw, bit: next, p0: item.p0, q0: item.q0},
			{remBits: next + 1, hw: item.hw + 1, bit: next, p0: new(big.Int).SetBit(item.p0, item.bit, 1), q0: item.q0},
			{remBits: next + 1, hw: item.hw + 1, bit: next, p0: item.p0, q0: new(big.Int).SetBit(item.q0, item.bit, 1)},
		}
		for _, b := range branches {
			b.heuristic = b.remBits + heuristicWeight*b.hw
			heap.Push(h, b)
		}
	}
	if best <= thresholdWeak {
		return false, true
	}
	return false, false
}

// CheckUnseededRand flags RSA keys whose primes came from a
// never-seeded PRNG: it tries each storage-provided candidate prime for
// n's size, plus the same candidate with its top 1 or 2 bits forced,
// via FactorWithGuess.
func CheckUnseededRand(keys []*paranoidpb.RSAKey) bool {
	anyWeak := false
	for _, k := range keys {
		candidates := storage.GetUnseededRands(k.N.BitLen() / 2)
		weak := false
		for _, p0 := range candidates {
			psize := uint(p0.BitLen())
			msb1 := new(big.Int).Lsh(big.NewInt(1), psize-1)
			msb11 := new(big.Int).Or(msb1, new(big.Int).Lsh(big.NewInt(1), psize-2))
			for _, guess := range []*big.Int{p0, new(big.Int).Or(p0, msb1), new(big.Int).Or(p0, msb11)} {
				if p, q, ok := factoring.FactorWithGuess(k.N, guess); ok {
					k.Info.AttachFactors("factors", p, q)
					weak = true
					break
				}
			}
			if weak {
				break
			}
		}
		record(k, NameUnseededRand, paranoidpb.SeverityCritical, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckSmallUpperDifferences flags keys where |p-q| happens to equal
// one of several powers of two related to common FIPS 186-4
// bound-misreadings, trying FactorWithGuess with
// p0 = ceil(sqrt(n+(d/2)^2)) + d/2.
func CheckSmallUpperDifferences(keys []*paranoidpb.RSAKey) bool {
	anyWeak := false
	for _, k := range keys {
		primeSize := k.N.BitLen() / 2
		if primeSize < 384 {
			record(k, NameSmallUpperDifferences, paranoidpb.SeverityCritical, false)
			continue
		}
		exps := []int{primeSize - 100, primeSize - 128, primeSize - 160, primeSize - 256, primeSize - 2, primeSize - 3}
		weak := false
		for _, e := range exps {
			if e <= 0 {
				continue
			}
			d := new(big.Int).Lsh(big.NewInt(1), uint(e))
			halfD := new(big.Int).Rsh(d, 1)
			inner := new(big.Int).Add(k.N, new(big.Int).Mul(halfD, halfD))
			p0 := new(big.Int).Sqrt(inner)
			if new(big.Int).Mul(p0, p0).Cmp(inner) < 0 {
				p0.Add(p0, big.NewInt(1))
			}
			p0.Add(p0, halfD)
			if p, q, ok := factoring.FactorWithGuess(k.N, p0); ok {
				k.Info.AttachFactors("factors", p, q)
				weak = true
				break
			}
		}
		record(k, NameSmallUpperDifferences, paranoidpb.SeverityCritical, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckKeypairDenylist looks up the top 64 bits of n in the keypair
// table, reconstructs the 32-byte seed, regenerates the keypair
// deterministically, and verifies p*q == n.
func CheckKeypairDenylist(keys []*paranoidpb.RSAKey) bool {
	table := storage.GetKeypairData()
	anyWeak := false
	for _, k := range keys {
		shift := k.N.BitLen() - 64
		var nMSB uint64
		if shift > 0 {
			nMSB = new(big.Int).Rsh(k.N, uint(shift)).Uint64()
		} else {
			nMSB = k.N.Uint64()
		}
		weak := false
		if record64, ok := table[nMSB]; ok {
			if commit, hasCommit := storage.KeypairCommitment(nMSB); hasCommit && blake2b.Sum256(record64) != commit {
				record(k, NameKeypairDenylist, paranoidpb.SeverityCritical, false)
				continue
			}
			seed := ReconstructSeed(record64)
			gen := NewKeypairGenerator(seed[:16])
			p, q, n := gen.GenerateKeypair(k.N.BitLen())
			if n.Cmp(k.N) == 0 {
				weak = true
				k.Info.AttachFactors("factors", p, q)
			}
		}
		record(k, NameKeypairDenylist, paranoidpb.SeverityCritical, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckGCD flags keys sharing a prime factor across the batch, via
// batch GCD over all moduli.
func CheckGCD(keys []*paranoidpb.RSAKey) bool {
	if len(keys) < 2 {
		for _, k := range keys {
			record(k, NameGCD, paranoidpb.SeverityCritical, false)
		}
		return false
	}
	ns := make([]*big.Int, len(keys))
	for i, k := range keys {
		ns[i] = k.N
	}
	gs := ntheory.BatchGCD(ns, nil)
	anyWeak := false
	for i, k := range keys {
		weak := gs[i].Cmp(big.NewInt(1)) > 0 && gs[i].Cmp(k.N) < 0
		if weak {
			k.Info.AttachFactors("factors", gs[i], new(big.Int).Div(k.N, gs[i]))
		}
		record(k, NameGCD, paranoidpb.SeverityCritical, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckGCDN1 flags keys sharing a large divisor of (n-1) across the
// batch (a weaker, UNKNOWN-severity signal than a shared prime of n
// itself), with gcdBound defaulting to 2^128.
func CheckGCDN1(keys []*paranoidpb.RSAKey, gcdBound *big.Int) bool {
	if gcdBound == nil {
		gcdBound = new(big.Int).Lsh(big.NewInt(1), 128)
	}
	if len(keys) < 2 {
		for _, k := range keys {
			record(k, NameGCDN1, paranoidpb.SeverityUnknown, false)
		}
		return false
	}
	vals := make([]*big.Int, len(keys))
	for i, k := range keys {
		vals[i] = new(big.Int).Sub(k.N, big.NewInt(1))
	}
	gs := ntheory.BatchGCD(vals, nil)
	anyWeak := false
	for i, k := range keys {
		weak := gs[i].Cmp(gcdBound) >= 0
		if weak {
			k.Info.AttachFactors("n1_factors", gs[i])
		}
		record(k, NameGCDN1, paranoidpb.SeverityUnknown, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}
