// Package lll defines the external LLL-reducer contract used by hnp,
// cr50u2f, and randomness.FindBias (§6: "given an m x n integer matrix,
// return an m x n integer matrix whose rows are a reduced basis of the
// same lattice"), and supplies a reference Lenstra-Lenstra-Lovász
// implementation satisfying it. Production deployments are expected to
// swap in a faster reducer (fplll-style) behind the same Reducer
// interface for dimensions approaching the 72 cap; the reference
// implementation here is correct but not fast, and is adequate for the
// dimensions this engine actually builds (HNP/Cr50 lattices top out in
// the low hundreds of columns only for the precomputed-constants
// variant, and FindBias caps at 72).
package lll

import "math/big"

// Reducer reduces an integer lattice basis, given as rows of a dense
// matrix, to a reduced basis of the same lattice.
type Reducer interface {
	Reduce(basis [][]*big.Int) [][]*big.Int
}

// Default is the package-level reference reducer, satisfying Reducer.
var Default Reducer = deltaReducer{delta: big.NewRat(3, 4)}

type deltaReducer struct {
	delta *big.Rat
}

// Reduce runs rational Lenstra-Lenstra-Lovász reduction with the
// conventional delta = 3/4.
func (d deltaReducer) Reduce(basis [][]*big.Int) [][]*big.Int {
	return Reduce(basis, d.delta)
}

func cloneMatrix(m [][]*big.Int) [][]*big.Int {
	out := make([][]*big.Int, len(m))
	for i, row := range m {
		out[i] = make([]*big.Int, len(row))
		for j, v := range row {
			out[i][j] = new(big.Int).Set(v)
		}
	}
	return out
}

func dotBig(a, b []*big.Int) *big.Int {
	s := new(big.Int)
	for i := range a {
		s.Add(s, new(big.Int).Mul(a[i], b[i]))
	}
	return s
}

func dotRat(a, b []*big.Rat) *big.Rat {
	s := new(big.Rat)
	for i := range a {
		s.Add(s, new(big.Rat).Mul(a[i], b[i]))
	}
	return s
}

func toRatVec(v []*big.Int) []*big.Rat {
	out := make([]*big.Rat, len(v))
	for i, x := range v {
		out[i] = new(big.Rat).SetInt(x)
	}
	return out
}

func subRat(a, b []*big.Rat) []*big.Rat {
	out := make([]*big.Rat, len(a))
	for i := range a {
		out[i] = new(big.Rat).Sub(a[i], b[i])
	}
	return out
}

func scaleRat(v []*big.Rat, c *big.Rat) []*big.Rat {
	out := make([]*big.Rat, len(v))
	for i := range v {
		out[i] = new(big.Rat).Mul(v[i], c)
	}
	return out
}

// gramSchmidt computes the (non-normalized) orthogonal basis bStar and
// the Gram-Schmidt coefficients mu[i][j] = <b_i, bStar_j> / <bStar_j,
// bStar_j> for j < i.
func gramSchmidt(basis [][]*big.Int) (bStar [][]*big.Rat, mu [][]*big.Rat) {
	n := len(basis)
	bStar = make([][]*big.Rat, n)
	mu = make([][]*big.Rat, n)
	for i := 0; i < n; i++ {
		mu[i] = make([]*big.Rat, n)
		v := toRatVec(basis[i])
		for j := 0; j < i; j++ {
			num := dotRat(toRatVec(basis[i]), bStar[j])
			den := dotRat(bStar[j], bStar[j])
			m := new(big.Rat)
			if den.Sign() != 0 {
				m.Quo(num, den)
			}
			mu[i][j] = m
			v = subRat(v, scaleRat(bStar[j], m))
		}
		bStar[i] = v
	}
	return bStar, mu
}

// Reduce runs LLL reduction with the given delta (conventionally 3/4)
// on basis, returning a new reduced basis; the input is not mutated.
func Reduce(basis [][]*big.Int, delta *big.Rat) [][]*big.Int {
	if len(basis) == 0 {
		return nil
	}
	b := cloneMatrix(basis)
	n := len(b)

	roundRat := func(r *big.Rat) *big.Int {
		num := new(big.Int).Set(r.Num())
		den := new(big.Int).Set(r.Denom())
		q, rem := new(big.Int), new(big.Int)
		q.DivMod(num, den, rem)
		twice := new(big.Int).Lsh(rem, 1)
		if twice.Cmp(den) >= 0 {
			q.Add(q, big.NewInt(1))
		}
		return q
	}

	bStar, mu := gramSchmidt(b)

	k := 1
	for k < n {
		for j := k - 1; j >= 0; j-- {
			m := mu[k][j]
			if m == nil {
				continue
			}
			rounded := roundRat(m)
			if rounded.Sign() != 0 {
				for c := range b[k] {
					b[k][c] = new(big.Int).Sub(b[k][c], new(big.Int).Mul(rounded, b[j][c]))
				}
				bStar, mu = gramSchmidt(b)
			}
		}
		lhs := dotRat(bStar[k], bStar[k])
		mkk1 := mu[k][k-1]
		if mkk1 == nil {
			mkk1 = new(big.Rat)
		}
		rhsTerm := new(big.Rat).Mul(mkk1, mkk1)
		rhsTerm = new(big.Rat).Sub(delta, rhsTerm)
		rhs := new(big.Rat).Mul(rhsTerm, dotRat(bStar[k-1], bStar[k-1]))
		if lhs.Cmp(rhs) >= 0 {
			k++
		} else {
			b[k], b[k-1] = b[k-1], b[k]
			bStar, mu = gramSchmidt(b)
			if k-1 > 1 {
				k--
			} else {
				k = 1
			}
		}
	}
	return b
}

// ShortestRowNorm2 returns the squared Euclidean norm of the shortest
// row in basis, a convenience used by tests asserting reduction quality.
func ShortestRowNorm2(basis [][]*big.Int) *big.Int {
	var best *big.Int
	for _, row := range basis {
		n := dotBig(row, row)
		if best == nil || n.Cmp(best) < 0 {
			best = n
		}
	}
	return best
}
