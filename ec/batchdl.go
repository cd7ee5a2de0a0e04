package ec

import (
	"math/big"

	"github.com/paranoidgo/paranoid/paranoidpb"
)

// BatchDL solves the discrete log of each point in points against G,
// bounded to [-bound, bound], via baby-step/giant-step: a giant-step
// table of size ~sqrt(bound) maps [i*m]G -> i, and for each input P the
// batch tests P + [j]G for j in [0,m) using BatchAddSubtractX so that
// positive and negative logs are probed together. Returns nil for
// inputs with no log found in range.
func (c *Curve) BatchDL(points []paranoidpb.AffinePoint, bound int64) []*big.Int {
	if bound <= 0 {
		return make([]*big.Int, len(points))
	}
	m := int64(1)
	for m*m < bound {
		m++
	}

	giant := make(map[string]int64, m)
	step := c.MultiplyG(big.NewInt(m))
	cur := paranoidpb.AffinePoint{Infinity: true}
	for i := int64(0); i < m; i++ {
		if !cur.Infinity {
			giant[cur.X.Text(16)] = i
		} else {
			giant["inf"] = i
		}
		cur = c.Add(cur, step)
	}

	babyPoints := make([]paranoidpb.AffinePoint, m)
	b := paranoidpb.AffinePoint{Infinity: true}
	g := paranoidpb.AffinePoint{X: c.Params.Gx, Y: c.Params.Gy}
	for j := int64(0); j < m; j++ {
		babyPoints[j] = b
		b = c.Add(b, g)
	}

	// confirm returns the first candidate v within bound with [v]G == pt:
	// an X-coordinate match fixes pt +- [j]G only up to sign.
	confirm := func(pt paranoidpb.AffinePoint, cands ...int64) *big.Int {
		for _, v := range cands {
			if v > bound || v < -bound {
				continue
			}
			q := c.Multiply(g, big.NewInt(v))
			if q.Infinity == pt.Infinity && (pt.Infinity || (q.X.Cmp(pt.X) == 0 && q.Y.Cmp(pt.Y) == 0)) {
				return big.NewInt(v)
			}
		}
		return nil
	}

	out := make([]*big.Int, len(points))
	for idx, p := range points {
		plus, minus := c.BatchAddSubtractX(p, babyPoints)
		found := false
		for j := int64(0); j < m; j++ {
			var key string
			if plus[j] == nil {
				key = "inf"
			} else {
				key = plus[j].Text(16)
			}
			if i, ok := giant[key]; ok {
				if x := confirm(p, i*m-j, -i*m-j); x != nil {
					out[idx] = x
					found = true
					break
				}
			}
			if minus[j] == nil {
				key = "inf"
			} else {
				key = minus[j].Text(16)
			}
			if i, ok := giant[key]; ok {
				if x := confirm(p, i*m+j, j-i*m); x != nil {
					out[idx] = x
					found = true
					break
				}
			}
		}
		if !found {
			out[idx] = nil
		}
	}
	return out
}

// ExtendedBatchDL runs up to maxWords rounds of BatchDL with a per-round
// bound of 2^16, adding each log found (shifted by 32*round bits) to the
// point's total and subtracting its contribution from the point. A log
// found by BatchDL solves the point outright, so in effect only private
// scalars with |k| <= 2^16 are recovered; scalars of the form
// sum(a_i * 2^(32i)) with more than one nonzero word are not found.
// Returns nil for points not solved.
func (c *Curve) ExtendedBatchDL(points []paranoidpb.AffinePoint, maxWords int) []*big.Int {
	wordBound := int64(1) << 16 // per-word search bound kept small; the
	// weak-key pattern this targets has each a_i itself small relative
	// to a full 32-bit word, matching paranoid_crypto's own assumption
	// that only a few low words carry nonzero structure.
	remaining := make([]paranoidpb.AffinePoint, len(points))
	copy(remaining, points)
	totals := make([]*big.Int, len(points))
	for i := range totals {
		totals[i] = big.NewInt(0)
	}
	solved := make([]bool, len(points))

	for word := 0; word < maxWords; word++ {
		logs := c.BatchDL(remaining, wordBound)
		anyFound := false
		for i, lg := range logs {
			if solved[i] || lg == nil {
				continue
			}
			anyFound = true
			shifted := new(big.Int).Lsh(lg, uint(32*word))
			totals[i].Add(totals[i], shifted)
			contribution := c.MultiplyG(lg)
			remaining[i] = c.Subtract(remaining[i], contribution)
			if remaining[i].Infinity {
				solved[i] = true
			}
		}
		if !anyFound {
			break
		}
	}
	out := make([]*big.Int, len(points))
	for i := range out {
		if solved[i] {
			out[i] = totals[i]
		}
	}
	return out
}

// BatchDLOfDifferences detects pairs among newPoints (and optionally
// oldPoints) whose private keys differ by at most maxDiff, by running
// BatchDL on every pairwise difference P_i - P_j.
type DiffResult struct {
	I, J int
	Diff *big.Int // satisfies P_i - P_j == [Diff]G, |Diff| <= maxDiff
}

func (c *Curve) BatchDLOfDifferences(newPoints, oldPoints []paranoidpb.AffinePoint, maxDiff int64) []DiffResult {
	var results []DiffResult
	type pair struct{ i, j int }
	var diffs []paranoidpb.AffinePoint
	var pairs []pair

	if oldPoints == nil {
		for i := 0; i < len(newPoints); i++ {
			for j := i + 1; j < len(newPoints); j++ {
				diffs = append(diffs, c.Subtract(newPoints[i], newPoints[j]))
				pairs = append(pairs, pair{i, j})
			}
		}
	} else {
		for i := range newPoints {
			for j := range oldPoints {
				diffs = append(diffs, c.Subtract(newPoints[i], oldPoints[j]))
				pairs = append(pairs, pair{i, j})
			}
		}
	}
	if len(diffs) == 0 {
		return nil
	}
	logs := c.BatchDL(diffs, maxDiff)
	for k, lg := range logs {
		if lg == nil {
			continue
		}
		results = append(results, DiffResult{I: pairs[k].i, J: pairs[k].j, Diff: lg})
	}
	return results
}
