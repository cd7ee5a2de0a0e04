// Package ec implements the elliptic-curve kernel of component D: a
// registry of named short-Weierstrass curves, affine and Jacobian
// arithmetic, Montgomery-trick batched operations, batched
// baby-step/giant-step discrete log, its word-packed extension, and
// batched DL-of-differences.
package ec

import (
	"crypto/elliptic"
	"fmt"
	"math/big"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/paranoidgo/paranoid/paranoidpb"
)

// Curve wraps a registered CurveParams with cached arithmetic state
// (the base-point comb table is simulated here via a lazily built
// power-of-two table, adequate for MultiplyG's role as a cached
// per-curve accelerator without requiring a hand-rolled comb encoding).
type Curve struct {
	Params *paranoidpb.CurveParams

	mgOnce  sync.Once
	mgTable []JacobianPointPow // mgTable[i] = 2^i * G in Jacobian coords
}

// JacobianPointPow is one entry of the base-point doubling table.
type JacobianPointPow struct {
	P paranoidpb.JacobianPoint
}

var (
	registry     = map[string]*Curve{}
	registryOnce sync.Once
)

func register(c *Curve) { registry[c.Params.Name] = c }

// Registry returns the lazily initialized, immutable curve registry
// keyed by curve name. Initialization happens once under a one-shot
// guard; readers never lock afterward (§5).
func Registry() map[string]*Curve {
	registryOnce.Do(func() {
		registry = map[string]*Curve{}
		register(fromExplicit("secp192r1", secp192r1()))
		register(fromNamed("secp224r1", elliptic.P224()))
		register(fromNamed("secp256r1", elliptic.P256()))
		register(fromNamed("secp384r1", elliptic.P384()))
		register(fromNamed("secp521r1", elliptic.P521()))
		register(fromSecp256k1())
		register(fromExplicit("brainpoolP256r1", brainpoolP256r1()))
		register(fromExplicit("brainpoolP384r1", brainpoolP384r1()))
		register(fromExplicit("brainpoolP512r1", brainpoolP512r1()))
	})
	return registry
}

func fromNamed(name string, c elliptic.Curve) *Curve {
	params := c.Params()
	return &Curve{Params: &paranoidpb.CurveParams{
		Name: name,
		P:    params.P,
		A:    big.NewInt(-3), // all stdlib NIST curves use a = -3 mod p
		B:    params.B,
		Gx:   params.Gx,
		Gy:   params.Gy,
		N:    params.N,
		H:    big.NewInt(1),
	}}
}

func fromSecp256k1() *Curve {
	params := secp256k1.S256().Params()
	return &Curve{Params: &paranoidpb.CurveParams{
		Name: "secp256k1",
		P:    params.P,
		A:    big.NewInt(0),
		B:    big.NewInt(7),
		Gx:   params.Gx,
		Gy:   params.Gy,
		N:    params.N,
		H:    big.NewInt(1),
	}}
}

type explicitParams struct {
	p, a, b, gx, gy, n *big.Int
}

// secp192r1 returns the NIST P-192 domain parameters (not present in
// crypto/elliptic, unlike the other NIST curves).
func secp192r1() explicitParams {
	return explicitParams{
		p:  hexBig("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFFFFFFFFFFFFF"),
		a:  hexBig("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFFFFFFFFFFFFC"),
		b:  hexBig("64210519E59C80E70FA7E9AB72243049FEB8DEECC146B9B1"),
		gx: hexBig("188DA80EB03090F67CBF20EB43A18800F4FF0AFD82FF1012"),
		gy: hexBig("07192B95FFC8DA78631011ED6B24CDD573F977A11E794811"),
		n:  hexBig("FFFFFFFFFFFFFFFFFFFFFFFF99DEF836146BC9B1B4D22831"),
	}
}

func hexBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("ec: bad hex constant " + s)
	}
	return v
}

// brainpoolP256r1 returns the RFC 5639 domain parameters.
func brainpoolP256r1() explicitParams {
	return explicitParams{
		p:  hexBig("A9FB57DBA1EEA9BC3E660A909D838D726E3BF623D52620282013481D1F6E5377"),
		a:  hexBig("7D5A0975FC2C3057EEF67530417AFFE7FB8055C126DC5C6CE94A4B44F330B5D9"),
		b:  hexBig("26DC5C6CE94A4B44F330B5D9BBD77CBF958416295CF7E1CE6BCCDC18FF8C07B6"),
		gx: hexBig("8BD2AEB9CB7E57CB2C4B482FFC81B7AFB9DE27E1E3BD23C23A4453BD9ACE3262"),
		gy: hexBig("547EF835C3DAC4FD97F8461A14611DC9C27745132DED8E545C1D54C72F046997"),
		n:  hexBig("A9FB57DBA1EEA9BC3E660A909D838D718C397AA3B561A6F7901E0E82974856A7"),
	}
}

func brainpoolP384r1() explicitParams {
	return explicitParams{
		p:  hexBig("8CB91E82A3386D280F5D6F7E50E641DF152F7109ED5456B412B1DA197FB71123ACD3A729901D1A71874700133107EC53"),
		a:  hexBig("7BC382C63D8C150C3C72080ACE05AFA0C2BEA28E4FB22787139165EFBA91F90F8AA5814A503AD4EB04A8C7DD22CE2826"),
		b:  hexBig("04A8C7DD22CE28268B39B55416F0447C2FB77DE107DCD2A62E880EA53EEB62D57CB4390295DBC9943AB78696FA504C11"),
		gx: hexBig("1D1C64F068CF45FFA2A63A81B7C13F6B8847A3E77EF14FE3DB7FCAFE0CBD10E8E826E03436D646AAEF87B2E247D4AF1E"),
		gy: hexBig("8ABE1D7520F9C2A45CB1EB8E95CFD55262B70B29FEEC5864E19C054FF99129280E4646217791811142820341263C5315"),
		n:  hexBig("8CB91E82A3386D280F5D6F7E50E641DF152F7109ED5456B31F166E6CAC0425A7CF3AB6AF6B7FC3103B883202E9046565"),
	}
}

func brainpoolP512r1() explicitParams {
	return explicitParams{
		p:  hexBig("AADD9DB8DBE9C48B3FD4E6AE33C9FC07CB308DB3B3C9D20ED6639CCA703308717D4D9B009BC66842AECDA12AE6A380E62881FF2F2D82C68528AA6056583A48F3"),
		a:  hexBig("7830A3318B603B89E2327145AC234CC594CBDD8D3DF91610A83441CAEA9863BC2DED5D5AA8253AA10A2EF1C98B9AC8B57F1117A72BF2C7B9E7C1AC4D77FC94CA"),
		b:  hexBig("3DF91610A83441CAEA9863BC2DED5D5AA8253AA10A2EF1C98B9AC8B57F1117A72BF2C7B9E7C1AC4D77FC94CADC083E67984050B75EBAE5DD2809BD638016F723"),
		gx: hexBig("81AEE4BDD82ED9645A21322E9C4C6A9385ED9F70B5D916C1B43B62EEF4D0098EFF3B1F78E2D0D48D50D1687B93B97D5F7C6D5047406A5E688B352209BCB9F822"),
		gy: hexBig("7DDE385D566332ECC0EABFA9CF7822FDF209F70024A57B1AA000C55B881F8111B2DCDE494A5F485E5BCA4BD88A2763AED1CA2B2FA8F0540678CD1E0F3AD80892"),
		n:  hexBig("AADD9DB8DBE9C48B3FD4E6AE33C9FC07CB308DB3B3C9D20ED6639CCA70330870553E5C414CA92619418661197FAC10471DB1D381085DDADDB58796829CA90069"),
	}
}

func fromExplicit(name string, p explicitParams) *Curve {
	return &Curve{Params: &paranoidpb.CurveParams{
		Name: name, P: p.p, A: p.a, B: p.b, Gx: p.gx, Gy: p.gy, N: p.n, H: big.NewInt(1),
	}}
}

// OnCurve reports whether (x,y) satisfies y^2 = x^3+ax+b (mod p).
func (c *Curve) OnCurve(p paranoidpb.AffinePoint) bool {
	if p.Infinity {
		return true
	}
	if p.X == nil || p.Y == nil {
		return false
	}
	if p.X.Sign() < 0 || p.X.Cmp(c.Params.P) >= 0 || p.Y.Sign() < 0 || p.Y.Cmp(c.Params.P) >= 0 {
		return false
	}
	lhs := new(big.Int).Mul(p.Y, p.Y)
	lhs.Mod(lhs, c.Params.P)

	rhs := new(big.Int).Mul(p.X, p.X)
	rhs.Mul(rhs, p.X)
	ax := new(big.Int).Mul(c.Params.A, p.X)
	rhs.Add(rhs, ax)
	rhs.Add(rhs, c.Params.B)
	rhs.Mod(rhs, c.Params.P)
	if rhs.Sign() < 0 {
		rhs.Add(rhs, c.Params.P)
	}
	return lhs.Cmp(rhs) == 0
}

// Negate returns -P = (x, -y mod p).
func (c *Curve) Negate(p paranoidpb.AffinePoint) paranoidpb.AffinePoint {
	if p.Infinity {
		return p
	}
	negY := new(big.Int).Neg(p.Y)
	negY.Mod(negY, c.Params.P)
	return paranoidpb.AffinePoint{X: new(big.Int).Set(p.X), Y: negY}
}

// Add computes P+Q in affine coordinates, handling infinity and the
// equal-x (doubling or P=-Q) special cases explicitly.
func (c *Curve) Add(p, q paranoidpb.AffinePoint) paranoidpb.AffinePoint {
	if p.Infinity {
		return q
	}
	if q.Infinity {
		return p
	}
	if p.X.Cmp(q.X) == 0 {
		if new(big.Int).Mod(new(big.Int).Add(p.Y, q.Y), c.Params.P).Sign() == 0 {
			return paranoidpb.AffinePoint{Infinity: true}
		}
		return c.Double(p)
	}
	lambda := c.slope(p, q)
	return c.addWithSlope(p, q, lambda)
}

func (c *Curve) slope(p, q paranoidpb.AffinePoint) *big.Int {
	num := new(big.Int).Sub(q.Y, p.Y)
	den := new(big.Int).Sub(q.X, p.X)
	den.Mod(den, c.Params.P)
	denInv := new(big.Int).ModInverse(den, c.Params.P)
	lambda := new(big.Int).Mul(num, denInv)
	lambda.Mod(lambda, c.Params.P)
	return lambda
}

func (c *Curve) addWithSlope(p, q paranoidpb.AffinePoint, lambda *big.Int) paranoidpb.AffinePoint {
	x3 := new(big.Int).Mul(lambda, lambda)
	x3.Sub(x3, p.X)
	x3.Sub(x3, q.X)
	x3.Mod(x3, c.Params.P)
	y3 := new(big.Int).Sub(p.X, x3)
	y3.Mul(y3, lambda)
	y3.Sub(y3, p.Y)
	y3.Mod(y3, c.Params.P)
	if x3.Sign() < 0 {
		x3.Add(x3, c.Params.P)
	}
	if y3.Sign() < 0 {
		y3.Add(y3, c.Params.P)
	}
	return paranoidpb.AffinePoint{X: x3, Y: y3}
}

// Double computes 2P in affine coordinates.
func (c *Curve) Double(p paranoidpb.AffinePoint) paranoidpb.AffinePoint {
	if p.Infinity || p.Y.Sign() == 0 {
		return paranoidpb.AffinePoint{Infinity: true}
	}
	num := new(big.Int).Mul(p.X, p.X)
	num.Mul(num, big.NewInt(3))
	num.Add(num, c.Params.A)
	den := new(big.Int).Lsh(p.Y, 1)
	den.Mod(den, c.Params.P)
	denInv := new(big.Int).ModInverse(den, c.Params.P)
	lambda := new(big.Int).Mul(num, denInv)
	lambda.Mod(lambda, c.Params.P)
	return c.addWithSlope(p, p, lambda)
}

// Subtract computes P-Q.
func (c *Curve) Subtract(p, q paranoidpb.AffinePoint) paranoidpb.AffinePoint {
	return c.Add(p, c.Negate(q))
}

// Multiply computes [k]P for integer k (possibly negative or > n), via
// double-and-add on the reduced scalar.
func (c *Curve) Multiply(p paranoidpb.AffinePoint, k *big.Int) paranoidpb.AffinePoint {
	kk := new(big.Int).Mod(k, c.Params.N)
	result := paranoidpb.AffinePoint{Infinity: true}
	addend := p
	for i := 0; i < kk.BitLen(); i++ {
		if kk.Bit(i) == 1 {
			result = c.Add(result, addend)
		}
		addend = c.Double(addend)
	}
	return result
}

// MultiplyG computes [k]G using the cached base-point doubling table,
// built lazily under a one-shot guard and immutable afterward (§5).
func (c *Curve) MultiplyG(k *big.Int) paranoidpb.AffinePoint {
	c.mgOnce.Do(func() {
		g := paranoidpb.AffinePoint{X: c.Params.Gx, Y: c.Params.Gy}
		bits := c.Params.N.BitLen() + 1
		c.mgTable = make([]JacobianPointPow, bits)
		cur := g
		for i := 0; i < bits; i++ {
			c.mgTable[i] = JacobianPointPow{P: toJacobian(cur)}
			cur = c.Double(cur)
		}
	})
	kk := new(big.Int).Mod(k, c.Params.N)
	result := paranoidpb.AffinePoint{Infinity: true}
	for i := 0; i < kk.BitLen() && i < len(c.mgTable); i++ {
		if kk.Bit(i) == 1 {
			result = c.Add(result, toAffine(c, c.mgTable[i].P))
		}
	}
	return result
}

func toJacobian(p paranoidpb.AffinePoint) paranoidpb.JacobianPoint {
	if p.Infinity {
		return paranoidpb.JacobianPoint{X: big.NewInt(1), Y: big.NewInt(1), Z: big.NewInt(0)}
	}
	return paranoidpb.JacobianPoint{X: p.X, Y: p.Y, Z: big.NewInt(1)}
}

func toAffine(c *Curve, j paranoidpb.JacobianPoint) paranoidpb.AffinePoint {
	if j.Z.Sign() == 0 {
		return paranoidpb.AffinePoint{Infinity: true}
	}
	zInv := new(big.Int).ModInverse(j.Z, c.Params.P)
	z2 := new(big.Int).Mul(zInv, zInv)
	z3 := new(big.Int).Mul(z2, zInv)
	x := new(big.Int).Mul(j.X, z2)
	x.Mod(x, c.Params.P)
	y := new(big.Int).Mul(j.Y, z3)
	y.Mod(y, c.Params.P)
	return paranoidpb.AffinePoint{X: x, Y: y}
}

// HiddenNumberParams returns (a,b) such that the ECDSA nonce k
// satisfies k == a + b*x (mod n): a = z/s mod n, b = r/s mod n.
func (c *Curve) HiddenNumberParams(r, s, z *big.Int) (*big.Int, *big.Int, error) {
	sInv := new(big.Int).ModInverse(s, c.Params.N)
	if sInv == nil {
		return nil, nil, fmt.Errorf("ec: s has no inverse mod n")
	}
	a := new(big.Int).Mul(z, sInv)
	a.Mod(a, c.Params.N)
	b := new(big.Int).Mul(r, sInv)
	b.Mod(b, c.Params.N)
	return a, b, nil
}

// TransformOrderLen maps a wide hash to an integer mod n, truncating
// high bits to n's bit length per ECDSA/DSA convention.
func (c *Curve) TransformOrderLen(hash *big.Int, hashBitLen int) *big.Int {
	nBitLen := c.Params.N.BitLen()
	if hashBitLen <= nBitLen {
		return new(big.Int).Set(hash)
	}
	shift := uint(hashBitLen - nBitLen)
	return new(big.Int).Rsh(hash, shift)
}
