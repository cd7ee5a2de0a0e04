// Package hnp constructs and solves Hidden Number Problem lattices:
// given arrays a, b with k_i = (a_i + b_i*x) mod n biased toward a known
// kind, it builds the (k+2)x(k+2) lattice of spec.md 4.E, LLL-reduces
// it, and extracts candidate values of x from short vectors. It also
// implements the precomputed-constants (LCG) variant and its
// sliding-window/single/include-key subset strategies.
package hnp

import (
	"math/big"

	"github.com/paranoidgo/paranoid/lll"
)

// Bias names the kind of nonce bias the lattice is built to exploit.
type Bias int

const (
	BiasMSB Bias = iota + 1
	BiasCommonPrefix
	BiasCommonPostfix
	BiasGeneralized
)

// SearchStrategy flags combine to control which subsets of signatures
// the precomputed-constants variant tries.
type SearchStrategy int

const (
	StrategySingle     SearchStrategy = 1 << 0
	StrategySliding    SearchStrategy = 1 << 1
	StrategyIncludeKey SearchStrategy = 1 << 2
	StrategyDefault                   = StrategySingle | StrategySliding | StrategyIncludeKey
)

// DefaultW picks the lattice's bias-scale parameter w as a function of
// sample count k and bias kind, following the reference implementation's
// own tuned table (§9 notes these defaults are empirical and may need
// re-tuning; exposed here as a plain function rather than baked into
// GetLattice so callers can override).
func DefaultW(bias Bias, k int, nBitLen int) *big.Int {
	switch bias {
	case BiasMSB, BiasCommonPrefix, BiasCommonPostfix:
		switch {
		case k < 4:
			return new(big.Int).Lsh(big.NewInt(1), 128)
		case k < 9:
			return new(big.Int).Lsh(big.NewInt(1), 64)
		case k < 14:
			return new(big.Int).Lsh(big.NewInt(1), 48)
		default:
			return new(big.Int).Lsh(big.NewInt(1), 32)
		}
	case BiasGeneralized:
		switch {
		case k < 20:
			return new(big.Int).Lsh(big.NewInt(1), 64)
		case k < 32:
			return new(big.Int).Lsh(big.NewInt(1), 48)
		default:
			return new(big.Int).Lsh(big.NewInt(1), 64)
		}
	}
	return new(big.Int).Lsh(big.NewInt(1), 32)
}

// GetLattice builds the (k+2)x(k+2) HNP lattice for the given bias kind.
func GetLattice(a, b []*big.Int, w, n *big.Int, bias Bias) [][]*big.Int {
	k := len(a)
	size := k + 2

	aUse, bUse := a, b
	if bias == BiasCommonPostfix {
		wInv := new(big.Int).ModInverse(w, n)
		aUse = make([]*big.Int, k)
		bUse = make([]*big.Int, k)
		for i := range a {
			aUse[i] = new(big.Int).Mod(new(big.Int).Mul(a[i], wInv), n)
			bUse[i] = new(big.Int).Mod(new(big.Int).Mul(b[i], wInv), n)
		}
	}

	lat := make([][]*big.Int, size)
	for i := range lat {
		lat[i] = make([]*big.Int, size)
		for j := range lat[i] {
			lat[i][j] = big.NewInt(0)
		}
	}

	nw1 := new(big.Int).Mul(n, w)
	nw1.Add(nw1, big.NewInt(1))
	lat[0][0] = nw1
	lat[1][1] = big.NewInt(1)
	for i := 0; i < k; i++ {
		lat[0][2+i] = new(big.Int).Mod(new(big.Int).Mul(w, aUse[i]), new(big.Int).Mul(n, w))
		lat[1][2+i] = new(big.Int).Mod(new(big.Int).Mul(w, bUse[i]), new(big.Int).Mul(n, w))
	}
	nw := new(big.Int).Mul(n, w)
	for i := 0; i < k; i++ {
		lat[2+i][2+i] = new(big.Int).Set(nw)
	}

	switch bias {
	case BiasCommonPrefix, BiasCommonPostfix:
		for j := 2; j < size; j++ {
			lat[2][j] = new(big.Int).Set(w)
		}
	case BiasGeneralized:
		lat[0][0] = big.NewInt(1)
		for j := 2; j < size; j++ {
			lat[2][j] = new(big.Int).Set(w)
		}
	}
	return lat
}

// HiddenNumberProblem LLL-reduces the lattice for (a,b,n,bias,w) and
// returns the set of candidate x values extracted from rows whose
// first column is not a multiple of n: x = v[1] * v[0]^-1 mod n.
func HiddenNumberProblem(a, b []*big.Int, n, w *big.Int, bias Bias) []*big.Int {
	lat := GetLattice(a, b, w, n, bias)
	reduced := lll.Default.Reduce(lat)
	var guesses []*big.Int
	for _, row := range reduced {
		v0mod := new(big.Int).Mod(row[0], n)
		if v0mod.Sign() == 0 {
			continue
		}
		inv := new(big.Int).ModInverse(v0mod, n)
		if inv == nil {
			continue
		}
		x := new(big.Int).Mul(row[1], inv)
		x.Mod(x, n)
		guesses = append(guesses, x)
	}
	return guesses
}

// LCGConstants is one catalog entry for the precomputed-constants
// (LCG-bias) HNP variant.
type LCGConstants struct {
	Curve         string
	Name          string
	SampleSize    int
	MinSignatures int
	SlidingWindow int
	W             *big.Int
	Constants     [][2]*big.Int // (c, d) pairs
}

// HiddenNumberProblemWithPrecomputation builds and solves the
// precomputed-constants lattice: size = len(a)*len(constants)+2, with
// row 0 column t = (a_i*c - d)*w, row 1 column t = (b_i*c mod n)*w, and
// nw on the remaining diagonal.
func HiddenNumberProblemWithPrecomputation(a, b []*big.Int, n *big.Int, constants [][2]*big.Int, w *big.Int) []*big.Int {
	numConsts := len(constants)
	size := len(a)*numConsts + 2
	lat := make([][]*big.Int, size)
	for i := range lat {
		lat[i] = make([]*big.Int, size)
		for j := range lat[i] {
			lat[i][j] = big.NewInt(0)
		}
	}
	nw1 := new(big.Int).Mul(n, w)
	nw1.Add(nw1, big.NewInt(1))
	lat[0][0] = nw1
	lat[1][1] = big.NewInt(1)

	for i := range a {
		for j, cd := range constants {
			c, d := cd[0], cd[1]
			t := i*numConsts + j + 2
			ac := new(big.Int).Mul(a[i], c)
			ac.Sub(ac, d)
			ac.Mod(ac, n)
			ac.Mul(ac, w)
			lat[0][t] = ac

			bc := new(big.Int).Mul(b[i], c)
			bc.Mod(bc, n)
			bc.Mul(bc, w)
			lat[1][t] = bc

			nw := new(big.Int).Mul(n, w)
			lat[t][t] = nw
		}
	}
	reduced := lll.Default.Reduce(lat)
	var guesses []*big.Int
	for _, row := range reduced {
		v0mod := new(big.Int).Mod(row[0], n)
		if v0mod.Sign() == 0 {
			continue
		}
		inv := new(big.Int).ModInverse(v0mod, n)
		if inv == nil {
			continue
		}
		x := new(big.Int).Mul(row[1], inv)
		x.Mod(x, n)
		guesses = append(guesses, x)
	}
	return guesses
}

// SubsetStrategyResult is one (a,b) subset produced by the subset
// iterator below.
type SubsetStrategyResult struct {
	A, B []*big.Int
}

// Subsets implements the sliding/single/include-key selection
// strategies over catalog-sized signature lists, returning an iterator
// (as spec.md §9 prescribes for the Python-generator-shaped selection
// logic) over the subsets to try.
func Subsets(a, b []*big.Int, catalog LCGConstants, strategy SearchStrategy) func() (SubsetStrategyResult, bool) {
	var queue []SubsetStrategyResult

	withIncludeKey := func(sa, sb []*big.Int) ([]*big.Int, []*big.Int) {
		if strategy&StrategyIncludeKey == 0 {
			return sa, sb
		}
		na := append(append([]*big.Int{}, sa...), big.NewInt(0))
		nb := append(append([]*big.Int{}, sb...), big.NewInt(1))
		return na, nb
	}

	n := len(a)
	minSig := catalog.MinSignatures
	if minSig <= 0 {
		minSig = 1
	}

	if strategy&StrategySingle != 0 && n >= minSig {
		sa, sb := withIncludeKey(a, b)
		queue = append(queue, SubsetStrategyResult{A: sa, B: sb})
	}
	if strategy&StrategySliding != 0 {
		window := catalog.SlidingWindow
		if window <= 0 {
			window = minSig
		}
		for start := 0; start+window <= n; start++ {
			sa, sb := withIncludeKey(a[start:start+window], b[start:start+window])
			queue = append(queue, SubsetStrategyResult{A: sa, B: sb})
		}
	}
	idx := 0
	return func() (SubsetStrategyResult, bool) {
		if idx >= len(queue) {
			return SubsetStrategyResult{}, false
		}
		r := queue[idx]
		idx++
		return r, true
	}
}

// HiddenNumberProblemForCurve resolves n from the curve's order and
// delegates to HiddenNumberProblem.
func HiddenNumberProblemForCurve(a, b []*big.Int, curveOrder, w *big.Int, bias Bias) []*big.Int {
	return HiddenNumberProblem(a, b, curveOrder, w, bias)
}
