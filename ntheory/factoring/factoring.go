// Package factoring implements the special-case factoring attacks of
// component B: Lehman-style factoring from an approximate factor,
// "high and low bits equal" factoring via 2-adic square roots,
// fraction-guess factoring via a small LLL lattice, and classical
// Fermat factoring.
package factoring

import (
	"math/big"

	"github.com/paranoidgo/paranoid/lll"
	"github.com/paranoidgo/paranoid/ntheory"
)

var big0 = big.NewInt(0)
var big1 = big.NewInt(1)
var big2 = big.NewInt(2)
var big4 = big.NewInt(4)

// isPerfectSquare reports whether n is a perfect square and, if so,
// returns its square root.
func isPerfectSquare(n *big.Int) (*big.Int, bool) {
	if n.Sign() < 0 {
		return nil, false
	}
	r := new(big.Int).Sqrt(n)
	if new(big.Int).Mul(r, r).Cmp(n) == 0 {
		return r, true
	}
	return nil, false
}

// FermatFactor performs classical Fermat factoring: search a^2 - n =
// b^2 starting from a = ceil(sqrt(n)), bounded to maxSteps iterations.
// Returns (p, q, true) on success.
func FermatFactor(n *big.Int, maxSteps int) (*big.Int, *big.Int, bool) {
	if n.Bit(0) == 0 {
		return big2, new(big.Int).Rsh(n, 1), true
	}
	a := new(big.Int).Sqrt(n)
	if new(big.Int).Mul(a, a).Cmp(n) < 0 {
		a.Add(a, big1)
	}
	b2 := new(big.Int).Mul(a, a)
	b2.Sub(b2, n)
	for i := 0; i < maxSteps; i++ {
		if b, ok := isPerfectSquare(b2); ok {
			p := new(big.Int).Sub(a, b)
			q := new(big.Int).Add(a, b)
			if p.Sign() > 0 && q.Sign() > 0 {
				return p, q, true
			}
		}
		b2.Add(b2, a)
		a.Add(a, big1)
		b2.Add(b2, a)
	}
	return nil, nil, false
}

// FactorWithGuess implements Lehman's method given an approximation p0
// of a factor of n: it walks the continued-fraction convergents of
// p0/q0 (q0 = n/p0), and for convergents within the Lehman bound applies
// Fermat's method to 4*u*v*n.
func FactorWithGuess(n, p0 *big.Int) (*big.Int, *big.Int, bool) {
	if p0.Sign() <= 0 || n.Sign() <= 0 {
		return nil, nil, false
	}
	q0 := new(big.Int).Div(n, p0)
	if q0.Sign() == 0 {
		return nil, nil, false
	}
	// B ~ n^(1/3), computed via bit-length scaling to avoid overflow.
	bits := n.BitLen()
	bBits := uint((bits + 2) / 3)
	bound := new(big.Int).Lsh(big1, bBits+1)

	next := ntheory.ContinuedFraction(p0, q0)
	for {
		term, ok := next()
		if !ok {
			break
		}
		u, v := term.R, term.T
		if v.Sign() == 0 {
			continue
		}
		diff := new(big.Int).Sub(new(big.Int).Mul(u, q0), new(big.Int).Mul(v, p0))
		diff.Abs(diff)
		if diff.Cmp(bound) >= 0 {
			continue
		}
		uv := new(big.Int).Mul(u, v)
		if uv.Sign() <= 0 {
			continue
		}
		m := new(big.Int).Mul(big4, uv)
		m.Mul(m, n)
		a := new(big.Int).Sqrt(m)
		if new(big.Int).Mul(a, a).Cmp(m) < 0 {
			a.Add(a, big1)
		}
		b2 := new(big.Int).Mul(a, a)
		b2.Sub(b2, m)
		if b, ok := isPerfectSquare(b2); ok {
			g := new(big.Int).GCD(nil, nil, new(big.Int).Add(a, b), n)
			if g.Cmp(big1) > 0 && g.Cmp(n) < 0 {
				return g, new(big.Int).Div(n, g), true
			}
		}
	}
	return nil, nil, false
}

// FactorHighAndLowBitsEqual assumes the high and low portions of p and
// q (n=p*q) are equal and recovers a factor by combining the integer
// square root of n (high bits of (p+q)/2) with a 2-adic square root of
// n modulo 2^k (low bits of (p+q)/2). Requires n == 1 (mod 8).
func FactorHighAndLowBitsEqual(n *big.Int, middleBits uint) (*big.Int, *big.Int, bool) {
	eight := big.NewInt(8)
	if new(big.Int).Mod(n, eight).Cmp(big1) != 0 {
		return nil, nil, false
	}
	bitlen := uint(n.BitLen())
	k := (bitlen + 1) / 2

	invSqrt := ntheory.InverseSqrt2exp(n, k+1)
	if invSqrt == nil {
		return nil, nil, false
	}
	mod := new(big.Int).Lsh(big1, k+1)
	r0 := new(big.Int).Mul(n, invSqrt)
	r0.Mod(r0, mod)
	r0 = ntheory.Inverse2exp(r0, k+1)
	if r0 == nil {
		return nil, nil, false
	}

	sqrtN := new(big.Int).Sqrt(n)
	half := new(big.Int).Lsh(big1, k)

	tryRoot := func(r *big.Int) (*big.Int, *big.Int, bool) {
		s := new(big.Int).Set(sqrtN)
		lowMask := new(big.Int).Sub(half, big1)
		sLow := new(big.Int).And(s, lowMask)
		rLow := new(big.Int).And(r, lowMask)
		diffBits := new(big.Int).Xor(sLow, rLow)
		for bit := uint(0); bit < k; bit++ {
			if diffBits.Bit(int(bit)) == 0 {
				continue
			}
			candidate := new(big.Int).Set(s)
			if s.Bit(int(bit)) == 0 {
				candidate.SetBit(candidate, int(bit), 1)
			} else {
				candidate.SetBit(candidate, int(bit), 0)
			}
			span := int64(1) << middleBits
			for d := -span; d <= span; d++ {
				cand := new(big.Int).Add(candidate, big.NewInt(d))
				b2 := new(big.Int).Mul(cand, cand)
				b2.Sub(b2, n)
				if b2.Sign() < 0 {
					continue
				}
				if b, ok := isPerfectSquare(b2); ok {
					p := new(big.Int).Sub(cand, b)
					q := new(big.Int).Add(cand, b)
					if p.Cmp(big1) > 0 && q.Cmp(big1) > 0 {
						g := new(big.Int).GCD(nil, nil, p, n)
						if g.Cmp(big1) > 0 && g.Cmp(n) < 0 {
							return g, new(big.Int).Div(n, g), true
						}
					}
				}
			}
		}
		return nil, nil, false
	}

	if p, q, ok := tryRoot(r0); ok {
		return p, q, true
	}
	r1 := new(big.Int).Sub(half, r0)
	if p, q, ok := tryRoot(r1); ok {
		return p, q, true
	}
	return nil, nil, false
}

// CheckFraction attempts to factor n when a factor p is close to
// (a*W+c)/d for small a,c and W = 2^(bitlen(n)/2): it builds the 3x3
// lattice described in spec.md 4.B, LLL-reduces, and GCD-tests each
// short vector's implied candidate against n.
func CheckFraction(n *big.Int, d *big.Int) (*big.Int, *big.Int, bool) {
	bitlen := uint(n.BitLen())
	w := new(big.Int).Lsh(big1, bitlen/2)
	x := new(big.Int).Lsh(big1, uint(d.BitLen()))

	u, v := new(big.Int), new(big.Int)
	u.DivMod(n, w, v)

	basis := [][]*big.Int{
		{new(big.Int).Set(x), big0, new(big.Int).Mod(new(big.Int).Mul(u, d), w)},
		{big0, new(big.Int).Set(x), new(big.Int).Mod(new(big.Int).Mul(v, d), w)},
		{big0, big0, new(big.Int).Set(w)},
	}
	reduced := lll.Default.Reduce(basis)
	for _, row := range reduced {
		cx, ax := row[0], new(big.Int).Neg(row[1])
		candidate := new(big.Int).Mul(ax, w)
		candidate.Add(candidate, cx)
		g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(candidate), n)
		if g.Cmp(big1) > 0 && g.Cmp(n) < 0 {
			return g, new(big.Int).Div(n, g), true
		}
	}
	return nil, nil, false
}
