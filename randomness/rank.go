package randomness

// binaryMatrix is a dense GF(2) matrix stored one byte per entry for
// clarity; rank is computed by Gaussian elimination over GF(2).
type binaryMatrix struct {
	rows, cols int
	m     [][]byte
}

func newBinaryMatrix(bits Bits, rows, cols int) *binaryMatrix {
	m := make([][]byte, rows)
	for i := range m {
		m[i] = make([]byte, cols)
		copy(m[i], bits[i*cols:(i+1)*cols])
	}
	return &binaryMatrix{rows: rows, cols: cols, m: m}
}

func (bm *binaryMatrix) rank() int {
	m := bm.m
	rows, cols := bm.rows, bm.cols
	rank := 0
	for col := 0; col < cols && rank < rows; col++ {
		pivot := -1
		for r := rank; r < rows; r++ {
			if m[r][col] == 1 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			continue
		}
		m[rank], m[pivot] = m[pivot], m[rank]
		for r := 0; r < rows; r++ {
			if r != rank && m[r][col] == 1 {
				for c := col; c < cols; c++ {
					m[r][c] ^= m[rank][c]
				}
			}
		}
		rank++
	}
	return rank
}

// rankProbability computes the exact probability that an r x r binary
// matrix has rank r-i, via the product formula over (1 - 2^(j-r)),
// matching NIST SP 800-22's exact small-matrix rank distribution.
func rankProbability(r, deficiency int) float64 {
	k := r - deficiency
	prod := 1.0
	for j := 0; j < k; j++ {
		num := (1 - pow2(j-r)) * (1 - pow2(j-r))
		den := 1 - pow2(j-k)
		prod *= num / den
	}
	exponent := float64(deficiency * deficiency)
	scale := pow2(int(-exponent))
	return scale * prod
}

func pow2(e int) float64 {
	if e >= 0 {
		f := 1.0
		for i := 0; i < e; i++ {
			f *= 2
		}
		return f
	}
	f := 1.0
	for i := 0; i < -e; i++ {
		f /= 2
	}
	return f
}

// BinaryMatrixRank is NIST §2.5: partition the stream into 32x32
// matrices, bucket by rank into {full, full-1, lower}, chi-square
// against the exact small-matrix distribution.
func BinaryMatrixRank(bits Bits) (float64, error) {
	const r, c = 32, 32
	blockBits := r * c
	n := len(bits) / blockBits
	if n < 38 {
		return 0, &InsufficientData{Test: "BinaryMatrixRank", Have: len(bits), Required: 38 * blockBits}
	}
	fullCount, fullMinus1Count := 0, 0
	for i := 0; i < n; i++ {
		bm := newBinaryMatrix(bits[i*blockBits:(i+1)*blockBits], r, c)
		switch rk := bm.rank(); {
		case rk == r:
			fullCount++
		case rk == r-1:
			fullMinus1Count++
		}
	}
	lowerCount := n - fullCount - fullMinus1Count
	pFull := rankProbability(r, 0)
	pFullMinus1 := rankProbability(r, 1)
	pLower := 1 - pFull - pFullMinus1

	exp := []float64{pFull * float64(n), pFullMinus1 * float64(n), pLower * float64(n)}
	obs := []float64{float64(fullCount), float64(fullMinus1Count), float64(lowerCount)}
	chisq := 0.0
	for i := range exp {
		chisq += (obs[i] - exp[i]) * (obs[i] - exp[i]) / exp[i]
	}
	return igamc(1.0, chisq/2.0), nil
}

// largeRankTail is an asymptotic lookup entry for the extended
// LargeBinaryMatrixRank test's P(rank >= n-k) distribution, for the
// square matrix sizes it doubles through.
var largeRankTail = map[int][]float64{
	// index 0..: P(deficiency <= k) for k = 0,1,2,3,4,5
	64:   {0.288788, 0.866364, 0.994715, 0.999953, 0.999999903, 0.999999999951},
	128:  {0.288788, 0.866364, 0.994715, 0.999953, 0.999999903, 0.999999999951},
	256:  {0.288788, 0.866364, 0.994715, 0.999953, 0.999999903, 0.999999999951},
	512:  {0.288788, 0.866364, 0.994715, 0.999953, 0.999999903, 0.999999999951},
	1024: {0.288788, 0.866364, 0.994715, 0.999953, 0.999999903, 0.999999999951},
}

// LargeBinaryMatrixRank is the extended test of §4.I: it repeats
// BinaryMatrixRank's chi-square procedure at doubling square sizes
// (64, 128, 256, ...), using the asymptotic P(rank <= n-k) tail table
// (which converges quickly with matrix size) in place of the exact
// small-matrix product formula.
func LargeBinaryMatrixRank(bits Bits, size int) (float64, error) {
	blockBits := size * size
	n := len(bits) / blockBits
	if n < 10 {
		return 0, &InsufficientData{Test: "LargeBinaryMatrixRank", Have: len(bits), Required: 10 * blockBits}
	}
	tail, ok := largeRankTail[size]
	if !ok {
		tail = largeRankTail[1024]
	}
	deficiencyCounts := make([]int, len(tail)+1)
	for i := 0; i < n; i++ {
		bm := newBinaryMatrix(bits[i*blockBits:(i+1)*blockBits], size, size)
		def := size - bm.rank()
		if def >= len(deficiencyCounts) {
			def = len(deficiencyCounts) - 1
		}
		deficiencyCounts[def]++
	}
	probPerBucket := make([]float64, len(deficiencyCounts))
	prev := 0.0
	for k := 0; k < len(tail); k++ {
		probPerBucket[k] = tail[k] - prev
		prev = tail[k]
	}
	probPerBucket[len(tail)] = 1 - prev

	chisq := 0.0
	for i, obs := range deficiencyCounts {
		exp := probPerBucket[i] * float64(n)
		if exp <= 0 {
			continue
		}
		chisq += (float64(obs) - exp) * (float64(obs) - exp) / exp
	}
	return igamc(float64(len(deficiencyCounts)-1)/2.0, chisq/2.0), nil
}
