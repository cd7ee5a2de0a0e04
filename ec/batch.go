package ec

import (
	"math/big"

	"github.com/paranoidgo/paranoid/paranoidpb"
)

// BatchInverse inverts a list of residues mod p using Montgomery's
// trick: one modular inverse plus O(m) multiplications. Zero entries
// invert to nil.
func (c *Curve) BatchInverse(vals []*big.Int) []*big.Int {
	p := c.Params.P
	n := len(vals)
	out := make([]*big.Int, n)
	prefix := make([]*big.Int, n)
	acc := big.NewInt(1)
	zeroAt := make([]bool, n)
	for i, v := range vals {
		if v.Sign() == 0 {
			zeroAt[i] = true
			prefix[i] = new(big.Int).Set(acc)
			continue
		}
		prefix[i] = new(big.Int).Set(acc)
		acc.Mul(acc, v)
		acc.Mod(acc, p)
	}
	accInv := new(big.Int).ModInverse(acc, p)
	if accInv == nil {
		accInv = big.NewInt(0)
	}
	for i := n - 1; i >= 0; i-- {
		if zeroAt[i] {
			out[i] = nil
			continue
		}
		out[i] = new(big.Int).Mul(accInv, prefix[i])
		out[i].Mod(out[i], p)
		accInv.Mul(accInv, vals[i])
		accInv.Mod(accInv, p)
	}
	return out
}

// BatchAdd computes P+Q_i for every Q in qs, sharing one modular
// inversion across the whole batch.
func (c *Curve) BatchAdd(p paranoidpb.AffinePoint, qs []paranoidpb.AffinePoint) []paranoidpb.AffinePoint {
	dens := make([]*big.Int, len(qs))
	for i, q := range qs {
		if p.Infinity || q.Infinity {
			dens[i] = big.NewInt(0)
			continue
		}
		d := new(big.Int).Sub(q.X, p.X)
		d.Mod(d, c.Params.P)
		dens[i] = d
	}
	invs := c.BatchInverse(dens)
	out := make([]paranoidpb.AffinePoint, len(qs))
	for i, q := range qs {
		if p.Infinity {
			out[i] = q
			continue
		}
		if q.Infinity {
			out[i] = p
			continue
		}
		if invs[i] == nil {
			out[i] = c.Add(p, q) // equal-x case, fall back to the safe path
			continue
		}
		num := new(big.Int).Sub(q.Y, p.Y)
		lambda := new(big.Int).Mul(num, invs[i])
		lambda.Mod(lambda, c.Params.P)
		out[i] = c.addWithSlope(p, q, lambda)
	}
	return out
}

// BatchAddX is BatchAdd but returns only the resulting X coordinates,
// the form used by BatchDL's giant-step table probe.
func (c *Curve) BatchAddX(p paranoidpb.AffinePoint, qs []paranoidpb.AffinePoint) []*big.Int {
	pts := c.BatchAdd(p, qs)
	out := make([]*big.Int, len(pts))
	for i, pt := range pts {
		if pt.Infinity {
			out[i] = nil
			continue
		}
		out[i] = pt.X
	}
	return out
}

// BatchDouble doubles every point in ps, sharing one modular inversion.
func (c *Curve) BatchDouble(ps []paranoidpb.AffinePoint) []paranoidpb.AffinePoint {
	dens := make([]*big.Int, len(ps))
	for i, p := range ps {
		if p.Infinity {
			dens[i] = big.NewInt(0)
			continue
		}
		d := new(big.Int).Lsh(p.Y, 1)
		d.Mod(d, c.Params.P)
		dens[i] = d
	}
	invs := c.BatchInverse(dens)
	out := make([]paranoidpb.AffinePoint, len(ps))
	for i, p := range ps {
		if p.Infinity || invs[i] == nil {
			out[i] = paranoidpb.AffinePoint{Infinity: true}
			continue
		}
		num := new(big.Int).Mul(p.X, p.X)
		num.Mul(num, big.NewInt(3))
		num.Add(num, c.Params.A)
		lambda := new(big.Int).Mul(num, invs[i])
		lambda.Mod(lambda, c.Params.P)
		out[i] = c.addWithSlope(p, p, lambda)
	}
	return out
}

// BatchAddList computes ps[i]+qs[i] pairwise, sharing one inversion.
func (c *Curve) BatchAddList(ps, qs []paranoidpb.AffinePoint) []paranoidpb.AffinePoint {
	dens := make([]*big.Int, len(ps))
	for i := range ps {
		if ps[i].Infinity || qs[i].Infinity {
			dens[i] = big.NewInt(0)
			continue
		}
		d := new(big.Int).Sub(qs[i].X, ps[i].X)
		d.Mod(d, c.Params.P)
		dens[i] = d
	}
	invs := c.BatchInverse(dens)
	out := make([]paranoidpb.AffinePoint, len(ps))
	for i := range ps {
		p, q := ps[i], qs[i]
		if p.Infinity {
			out[i] = q
			continue
		}
		if q.Infinity {
			out[i] = p
			continue
		}
		if invs[i] == nil {
			out[i] = c.Add(p, q)
			continue
		}
		num := new(big.Int).Sub(q.Y, p.Y)
		lambda := new(big.Int).Mul(num, invs[i])
		lambda.Mod(lambda, c.Params.P)
		out[i] = c.addWithSlope(p, q, lambda)
	}
	return out
}

// BatchAddSubtractX returns, for each Q in qs, the X coordinates of
// both P+Q and P-Q, letting BatchDL test positive and negative
// discrete logs with one batched inversion pass.
func (c *Curve) BatchAddSubtractX(p paranoidpb.AffinePoint, qs []paranoidpb.AffinePoint) (plus, minus []*big.Int) {
	negQs := make([]paranoidpb.AffinePoint, len(qs))
	for i, q := range qs {
		negQs[i] = c.Negate(q)
	}
	plus = c.BatchAddX(p, qs)
	minus = c.BatchAddX(p, negQs)
	return
}

// BatchMultiplyG computes [k]G for every scalar in ks, via MultiplyG's
// cached comb table (no cross-scalar batching is needed once the
// doubling table exists).
func (c *Curve) BatchMultiplyG(ks []*big.Int) []paranoidpb.AffinePoint {
	out := make([]paranoidpb.AffinePoint, len(ks))
	for i, k := range ks {
		out[i] = c.MultiplyG(k)
	}
	return out
}
