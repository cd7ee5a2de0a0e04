// Package cr50u2f implements component F: the lattice construction and
// solver for the Cr50 U2F nonce bug, where an ECDSA nonce is generated
// as a word-repeated pattern k = sum(c_j * 2^(32j)) with small c_j.
package cr50u2f

import (
	"fmt"
	"math/big"

	"github.com/paranoidgo/paranoid/lll"
)

// ArithmeticBug is the mandatory self-consistency tripwire of §7: the
// solver recovers x independently from each of the two signatures, and
// a mismatch means a programming error (mixed integer types, a bad
// lattice) rather than a recoverable numeric dead end. It must never be
// silently swallowed.
type ArithmeticBug struct {
	msg string
}

func (e *ArithmeticBug) Error() string { return "cr50u2f: arithmetic bug: " + e.msg }

func newArithmeticBug(format string, args ...interface{}) *ArithmeticBug {
	return &ArithmeticBug{msg: fmt.Sprintf(format, args...)}
}

// Cr50U2fSubProblem builds the (2W+2)x(2W+2) lattice for the
// word-repeated-nonce relation a*k1 + b*k2 == w (mod p), given the
// basis vector values basis[j] = 0x01010101 << 32j.
func Cr50U2fSubProblem(a, b, w, p *big.Int, basis []*big.Int) [][]*big.Int {
	words := len(basis)
	size := 2*words + 2
	lat := make([][]*big.Int, size)
	for i := range lat {
		lat[i] = make([]*big.Int, size)
		for j := range lat[i] {
			lat[i][j] = big.NewInt(0)
		}
	}
	for j := 0; j < words; j++ {
		lat[j][j] = big.NewInt(1)
		v := new(big.Int).Mul(basis[j], a)
		v.Mod(v, p)
		lat[j][size-1] = v
	}
	for j := 0; j < words; j++ {
		row := words + j
		lat[row][row] = big.NewInt(1)
		v := new(big.Int).Mul(basis[j], b)
		v.Mod(v, p)
		lat[row][size-1] = v
	}
	lat[2*words][2*words] = big.NewInt(256)
	lat[2*words][size-1] = new(big.Int).Set(w)
	lat[size-1][size-1] = new(big.Int).Set(p)
	return lat
}

// reconstructWord rebuilds k from a lattice output row's first `words`
// (or next `words`) components by multiplying each by its basis value
// and summing, matching the 32-bit word packing the lattice encodes.
func reconstructWord(row []*big.Int, basis []*big.Int, offset int) *big.Int {
	k := big.NewInt(0)
	for j, b := range basis {
		k.Add(k, new(big.Int).Mul(row[offset+j], b))
	}
	return k
}

// Cr50U2fGuesses recovers candidate private keys x from two ECDSA
// signatures (r1,s1,z1), (r2,s2,z2) sharing the Cr50 U2F nonce flaw on
// a curve of order n whose bit length must be a multiple of 32.
// Eliminating x from the ECDSA equations yields a*k1+b*k2 == w (mod n)
// with a=r2*s1, b=-r1*s2, w=r2*z1-r1*z2. For every output row of the
// reduced lattice that reconstructs consistent k1,k2, it computes x
// from both signatures independently and raises ArithmeticBug if they
// disagree — a real bug, never a recoverable miss.
func Cr50U2fGuesses(r1, s1, z1, r2, s2, z2, n *big.Int) ([]*big.Int, error) {
	if n.BitLen()%32 != 0 {
		return nil, fmt.Errorf("cr50u2f: curve order bit length %d not a multiple of 32", n.BitLen())
	}
	words := n.BitLen() / 32

	a := new(big.Int).Mul(r2, s1)
	a.Mod(a, n)
	b := new(big.Int).Neg(new(big.Int).Mul(r1, s2))
	b.Mod(b, n)
	w := new(big.Int).Sub(new(big.Int).Mul(r2, z1), new(big.Int).Mul(r1, z2))
	w.Mod(w, n)

	basis := make([]*big.Int, words)
	base := big.NewInt(0x01010101)
	for j := 0; j < words; j++ {
		basis[j] = new(big.Int).Lsh(base, uint(32*j))
	}

	lat := Cr50U2fSubProblem(a, b, w, n, basis)
	reduced := lll.Default.Reduce(lat)

	r1Inv := new(big.Int).ModInverse(r1, n)
	r2Inv := new(big.Int).ModInverse(r2, n)
	if r1Inv == nil || r2Inv == nil {
		return nil, fmt.Errorf("cr50u2f: r1 or r2 has no inverse mod n")
	}

	var guesses []*big.Int
	for _, row := range reduced {
		k1 := reconstructWord(row, basis, 0)
		k2 := reconstructWord(row, basis, words)
		k1.Mod(k1, n)
		k2.Mod(k2, n)

		lhs := new(big.Int).Mul(a, k1)
		lhs.Add(lhs, new(big.Int).Mul(b, k2))
		lhs.Mod(lhs, n)
		if lhs.Cmp(w) != 0 {
			continue
		}

		x1 := new(big.Int).Mul(s1, k1)
		x1.Sub(x1, z1)
		x1.Mul(x1, r1Inv)
		x1.Mod(x1, n)

		x2 := new(big.Int).Mul(s2, k2)
		x2.Sub(x2, z2)
		x2.Mul(x2, r2Inv)
		x2.Mod(x2, n)

		if x1.Cmp(x2) != 0 {
			return nil, newArithmeticBug("x1=%s != x2=%s for a candidate row", x1.Text(16), x2.Text(16))
		}
		guesses = append(guesses, x1)
	}
	return guesses, nil
}
