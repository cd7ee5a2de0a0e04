// Package eccheck implements component G: the EC public-key and ECDSA
// signature checks, including the biased-nonce HNP checks, the Cr50
// U2F check, and issuer-key forwarding.
package eccheck

import (
	"math/big"

	"github.com/paranoidgo/paranoid/cr50u2f"
	"github.com/paranoidgo/paranoid/ec"
	"github.com/paranoidgo/paranoid/hnp"
	"github.com/paranoidgo/paranoid/paranoidpb"
)

const (
	NameValidECKey             = "CheckValidECKey"
	NameWeakCurve              = "CheckWeakCurve"
	NameWeakECPrivateKey       = "CheckWeakECPrivateKey"
	NameECKeySmallDifference   = "CheckECKeySmallDifference"
	NameLCGNonceGMP            = "CheckLCGNonceGMP"
	NameLCGNonceJavaUtilRandom = "CheckLCGNonceJavaUtilRandom"
	NameNonceMSB               = "CheckNonceMSB"
	NameNonceCommonPrefix      = "CheckNonceCommonPrefix"
	NameNonceCommonPostfix     = "CheckNonceCommonPostfix"
	NameNonceGeneralized       = "CheckNonceGeneralized"
	NameIssuerKey              = "CheckIssuerKey"
	NameCr50U2f                = "CheckCr50U2f"
)

// ApprovedCurves is the registry of curve names CheckWeakCurve accepts;
// anything outside this set is flagged.
var ApprovedCurves = map[string]struct{}{
	"secp224r1": {}, "secp256r1": {}, "secp384r1": {}, "secp521r1": {},
	"secp256k1": {}, "brainpoolP256r1": {}, "brainpoolP384r1": {}, "brainpoolP512r1": {},
}

func recordEC(k *paranoidpb.ECKey, name string, sev paranoidpb.Severity, weak bool) {
	k.Info.SetResult(paranoidpb.TestResult{CheckName: name, Severity: sev, Result: weak})
}

func recordSig(s *paranoidpb.ECDSASignature, name string, sev paranoidpb.Severity, weak bool) {
	s.Info.SetResult(paranoidpb.TestResult{CheckName: name, Severity: sev, Result: weak})
}

// CheckValidECKey validates that each key's point is on-curve and not
// the point at infinity.
func CheckValidECKey(keys []*paranoidpb.ECKey) bool {
	anyWeak := false
	for _, k := range keys {
		curve, ok := ec.Registry()[k.Curve.Name]
		weak := k.Point.Infinity || !ok || !curve.OnCurve(k.Point)
		recordEC(k, NameValidECKey, paranoidpb.SeverityCritical, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckWeakCurve flags keys on a curve outside ApprovedCurves.
func CheckWeakCurve(keys []*paranoidpb.ECKey) bool {
	anyWeak := false
	for _, k := range keys {
		_, approved := ApprovedCurves[k.Curve.Name]
		weak := !approved
		recordEC(k, NameWeakCurve, paranoidpb.SeverityHigh, weak)
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckWeakECPrivateKey uses ExtendedBatchDL to discover a small private
// scalar (|k| <= 2^16) behind each public key.
func CheckWeakECPrivateKey(keys []*paranoidpb.ECKey) bool {
	byCurve := map[string][]*paranoidpb.ECKey{}
	for _, k := range keys {
		byCurve[k.Curve.Name] = append(byCurve[k.Curve.Name], k)
	}
	anyWeak := false
	for name, group := range byCurve {
		curve, ok := ec.Registry()[name]
		if !ok {
			continue
		}
		pts := make([]paranoidpb.AffinePoint, len(group))
		for i, k := range group {
			pts[i] = k.Point
		}
		logs := curve.ExtendedBatchDL(pts, 4)
		for i, k := range group {
			weak := logs[i] != nil
			if weak {
				k.Info.AttachDiscreteLog("private_key", logs[i])
			}
			recordEC(k, NameWeakECPrivateKey, paranoidpb.SeverityCritical, weak)
			anyWeak = anyWeak || weak
		}
	}
	return anyWeak
}

// CheckECKeySmallDifference flags key pairs on the same curve whose
// private keys differ by at most maxDiff (default 2^24), via
// BatchDLOfDifferences.
func CheckECKeySmallDifference(keys []*paranoidpb.ECKey, maxDiff int64) bool {
	if maxDiff <= 0 {
		maxDiff = 1 << 24
	}
	byCurve := map[string][]*paranoidpb.ECKey{}
	for _, k := range keys {
		byCurve[k.Curve.Name] = append(byCurve[k.Curve.Name], k)
	}
	anyWeak := false
	for name, group := range byCurve {
		curve, ok := ec.Registry()[name]
		if !ok || len(group) < 2 {
			continue
		}
		pts := make([]paranoidpb.AffinePoint, len(group))
		for i, k := range group {
			pts[i] = k.Point
		}
		diffs := curve.BatchDLOfDifferences(pts, nil, maxDiff)
		flagged := map[int]bool{}
		for _, d := range diffs {
			flagged[d.I] = true
			flagged[d.J] = true
			group[d.I].Info.AttachDiscreteLog("dl_difference", d.Diff)
			group[d.J].Info.AttachDiscreteLog("dl_difference", d.Diff)
		}
		for i, k := range group {
			weak := flagged[i]
			recordEC(k, NameECKeySmallDifference, paranoidpb.SeverityHigh, weak)
			anyWeak = anyWeak || weak
		}
	}
	return anyWeak
}

// subsetSizes are the HNP subset sizes spec.md 4.G tries in order,
// breaking early once enough signatures are available.
var subsetSizes = []int{24, 48, 120}

// dedupeSignatures groups signatures by issuer point and removes
// duplicate (r,s,z) triples within each group, matching
// ecdsa_sig_checks.py's issuer grouping and set-based dedup.
func dedupeSignatures(sigs []*paranoidpb.ECDSASignature) map[string][]*paranoidpb.ECDSASignature {
	groups := map[string][]*paranoidpb.ECDSASignature{}
	seen := map[string]map[string]bool{}
	for _, s := range sigs {
		if s.Issuer == nil {
			continue
		}
		key := s.Issuer.Curve.Name + ":" + s.Issuer.Point.X.Text(16) + ":" + s.Issuer.Point.Y.Text(16)
		triple := s.R.Text(16) + "," + s.S.Text(16) + "," + s.MessageHash.Text(16)
		if seen[key] == nil {
			seen[key] = map[string]bool{}
		}
		if seen[key][triple] {
			continue
		}
		seen[key][triple] = true
		groups[key] = append(groups[key], s)
	}
	return groups
}

func biasedCheck(sigs []*paranoidpb.ECDSASignature, name string, bias hnp.Bias) bool {
	anyWeak := false
	groups := dedupeSignatures(sigs)
	for _, group := range groups {
		curve, ok := ec.Registry()[group[0].Issuer.Curve.Name]
		if !ok {
			continue
		}
		var a, b []*big.Int
		for _, s := range group {
			ai, bi, err := curve.HiddenNumberParams(s.R, s.S, s.MessageHash)
			if err != nil {
				continue
			}
			a = append(a, ai)
			b = append(b, bi)
		}
		weak := false
		for _, size := range subsetSizes {
			if len(a) < size && size != subsetSizes[len(subsetSizes)-1] {
				continue
			}
			n := len(a)
			if n > size {
				n = size
			}
			w := hnp.DefaultW(bias, n, curve.Params.N.BitLen())
			guesses := hnp.HiddenNumberProblem(a[:n], b[:n], curve.Params.N, w, bias)
			matches := curve.BatchMultiplyG(guesses)
			for i, m := range matches {
				if !m.Infinity && m.X.Cmp(group[0].Issuer.Point.X) == 0 && m.Y.Cmp(group[0].Issuer.Point.Y) == 0 {
					weak = true
					for _, s := range group {
						s.Info.AttachDiscreteLog("issuer_private_key", guesses[i])
					}
					break
				}
			}
			if weak || len(a) <= size {
				break
			}
		}
		for _, s := range group {
			recordSig(s, name, paranoidpb.SeverityCritical, weak)
		}
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckNonceMSB, CheckNonceCommonPrefix, CheckNonceCommonPostfix, and
// CheckNonceGeneralized each run the HNP solver with the corresponding
// bias kind at subset sizes {24,48,120}.
func CheckNonceMSB(sigs []*paranoidpb.ECDSASignature) bool {
	return biasedCheck(sigs, NameNonceMSB, hnp.BiasMSB)
}
func CheckNonceCommonPrefix(sigs []*paranoidpb.ECDSASignature) bool {
	return biasedCheck(sigs, NameNonceCommonPrefix, hnp.BiasCommonPrefix)
}
func CheckNonceCommonPostfix(sigs []*paranoidpb.ECDSASignature) bool {
	return biasedCheck(sigs, NameNonceCommonPostfix, hnp.BiasCommonPostfix)
}
func CheckNonceGeneralized(sigs []*paranoidpb.ECDSASignature) bool {
	return biasedCheck(sigs, NameNonceGeneralized, hnp.BiasGeneralized)
}

func lcgCheck(sigs []*paranoidpb.ECDSASignature, name string, catalog hnp.LCGConstants) bool {
	if catalog.W == nil || len(catalog.Constants) == 0 {
		// No catalog entry loaded for this generator; nothing to check
		// against, so record a clean skip rather than running the
		// precomputed-constants lattice against an empty table.
		for _, s := range sigs {
			recordSig(s, name, paranoidpb.SeverityCritical, false)
		}
		return false
	}
	anyWeak := false
	groups := dedupeSignatures(sigs)
	for _, group := range groups {
		curve, ok := ec.Registry()[group[0].Issuer.Curve.Name]
		if !ok {
			continue
		}
		var a, b []*big.Int
		for _, s := range group {
			ai, bi, err := curve.HiddenNumberParams(s.R, s.S, s.MessageHash)
			if err != nil {
				continue
			}
			a = append(a, ai)
			b = append(b, bi)
		}
		weak := false
		next := hnp.Subsets(a, b, catalog, hnp.StrategyDefault)
		for {
			subset, ok := next()
			if !ok {
				break
			}
			guesses := hnp.HiddenNumberProblemWithPrecomputation(subset.A, subset.B, curve.Params.N, catalog.Constants, catalog.W)
			matches := curve.BatchMultiplyG(guesses)
			for i, m := range matches {
				if !m.Infinity && m.X.Cmp(group[0].Issuer.Point.X) == 0 && m.Y.Cmp(group[0].Issuer.Point.Y) == 0 {
					weak = true
					for _, s := range group {
						s.Info.AttachDiscreteLog("issuer_private_key", guesses[i])
					}
					break
				}
			}
			if weak {
				break
			}
		}
		for _, s := range group {
			recordSig(s, name, paranoidpb.SeverityCritical, weak)
		}
		anyWeak = anyWeak || weak
	}
	return anyWeak
}

// CheckLCGNonceGMP and CheckLCGNonceJavaUtilRandom run the HNP solver
// with precomputed constants tailored to each LCG.
func CheckLCGNonceGMP(sigs []*paranoidpb.ECDSASignature, catalog hnp.LCGConstants) bool {
	return lcgCheck(sigs, NameLCGNonceGMP, catalog)
}
func CheckLCGNonceJavaUtilRandom(sigs []*paranoidpb.ECDSASignature, catalog hnp.LCGConstants) bool {
	return lcgCheck(sigs, NameLCGNonceJavaUtilRandom, catalog)
}

// CheckCr50U2f runs a sliding window of 2 over each issuer's deduped
// signatures, plus a final single-signature probe against a synthetic
// (r2=1, s2=1, z2=0), surfacing any recovered private key. It never
// swallows cr50u2f.ArithmeticBug.
func CheckCr50U2f(sigs []*paranoidpb.ECDSASignature) (bool, error) {
	anyWeak := false
	groups := dedupeSignatures(sigs)
	for _, group := range groups {
		curve, ok := ec.Registry()[group[0].Issuer.Curve.Name]
		if !ok {
			continue
		}
		weak := false
		for i := 0; i+1 < len(group); i++ {
			s1, s2 := group[i], group[i+1]
			guesses, err := cr50u2f.Cr50U2fGuesses(s1.R, s1.S, s1.MessageHash, s2.R, s2.S, s2.MessageHash, curve.Params.N)
			if err != nil {
				return anyWeak, err
			}
			if matchIssuer(curve, guesses, group[0].Issuer.Point, group) {
				weak = true
			}
		}
		if len(group) > 0 {
			last := group[len(group)-1]
			guesses, err := cr50u2f.Cr50U2fGuesses(last.R, last.S, last.MessageHash, big.NewInt(1), big.NewInt(1), big.NewInt(0), curve.Params.N)
			if err != nil {
				return anyWeak, err
			}
			if matchIssuer(curve, guesses, group[0].Issuer.Point, group) {
				weak = true
			}
		}
		for _, s := range group {
			recordSig(s, NameCr50U2f, paranoidpb.SeverityCritical, weak)
		}
		anyWeak = anyWeak || weak
	}
	return anyWeak, nil
}

func matchIssuer(curve *ec.Curve, guesses []*big.Int, issuer paranoidpb.AffinePoint, group []*paranoidpb.ECDSASignature) bool {
	for _, g := range guesses {
		pt := curve.MultiplyG(g)
		if !pt.Infinity && pt.X.Cmp(issuer.X) == 0 && pt.Y.Cmp(issuer.Y) == 0 {
			for _, s := range group {
				s.Info.AttachDiscreteLog("issuer_private_key", g)
			}
			return true
		}
	}
	return false
}

// CheckIssuerKey dedupes issuer public keys across sigs and recursively
// applies the EC-key checks to them, inheriting the maximum severity of
// whichever child check fired.
func CheckIssuerKey(sigs []*paranoidpb.ECDSASignature, ecCheckers []func([]*paranoidpb.ECKey) bool) bool {
	seen := map[string]*paranoidpb.ECKey{}
	for _, s := range sigs {
		if s.Issuer == nil {
			continue
		}
		key := s.Issuer.Curve.Name + ":" + s.Issuer.Point.X.Text(16) + ":" + s.Issuer.Point.Y.Text(16)
		if _, ok := seen[key]; !ok {
			seen[key] = &paranoidpb.ECKey{Curve: s.Issuer.Curve, Point: s.Issuer.Point, Info: paranoidpb.NewTestInfo()}
		}
	}
	if len(seen) == 0 {
		return false
	}
	issuerKeys := make([]*paranoidpb.ECKey, 0, len(seen))
	for _, k := range seen {
		issuerKeys = append(issuerKeys, k)
	}
	anyWeak := false
	for _, checker := range ecCheckers {
		if checker(issuerKeys) {
			anyWeak = true
		}
	}
	for _, s := range sigs {
		if s.Issuer == nil {
			continue
		}
		key := s.Issuer.Curve.Name + ":" + s.Issuer.Point.X.Text(16) + ":" + s.Issuer.Point.Y.Text(16)
		issuer := seen[key]
		sev := issuer.Info.HighestSeverity()
		recordSig(s, NameIssuerKey, sev, issuer.Info.Weak)
	}
	return anyWeak
}
