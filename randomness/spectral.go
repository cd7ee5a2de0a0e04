package randomness

import (
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
)

// spectralThreshold computes sqrt(ln(1/0.05) * n) at extended precision:
// the peak-count threshold is a hard pass/fail boundary, and log/sqrt at
// plain float64 precision can shift which side of it a peak count near
// the boundary lands on for large n, the same class of concern that
// motivates lattigo's bootstrapping approximation code to reach for
// big.Float transcendentals instead of float64 ones.
func spectralThreshold(n int) float64 {
	const prec = 200
	alpha := new(big.Float).SetPrec(prec).SetFloat64(0.05)
	one := new(big.Float).SetPrec(prec).SetFloat64(1)
	ratio := new(big.Float).SetPrec(prec).Quo(one, alpha)
	lnRatio := bigfloat.Log(ratio)
	nf := new(big.Float).SetPrec(prec).SetFloat64(float64(n))
	product := new(big.Float).SetPrec(prec).Mul(lnRatio, nf)
	root := bigfloat.Sqrt(product)
	f, _ := root.Float64()
	return f
}

// fft computes the DFT of a real-valued sequence via an iterative
// radix-2 Cooley-Tukey transform; the caller truncates its input to the
// largest power of two not exceeding the available bit count.
func fft(re []float64) []complex128 {
	n := len(re)
	x := make([]complex128, n)
	for i, v := range re {
		x[i] = complex(v, 0)
	}
	// bit-reversal permutation
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
	for length := 2; length <= n; length <<= 1 {
		ang := -2 * math.Pi / float64(length)
		wLen := complex(math.Cos(ang), math.Sin(ang))
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			for j := 0; j < length/2; j++ {
				u := x[i+j]
				v := x[i+j+length/2] * w
				x[i+j] = u + v
				x[i+j+length/2] = u - v
				w *= wLen
			}
		}
	}
	return x
}

func largestPowerOfTwo(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// Spectral is NIST §2.6 (the DFT test): transform the +-1 valued
// sequence, count spectral peaks below the 95% threshold, and compare
// the observed count against the expected 95% of n/2. The peak threshold
// is sqrt(log(1/0.05)*n), and the variance of the peak count keeps NIST's
// divisor 4 (not the Pareschi/Rovatti/Setti value 3.8).
func Spectral(bits Bits) (float64, error) {
	n := largestPowerOfTwo(len(bits))
	if n < 1024 {
		return 0, &InsufficientData{Test: "Spectral", Have: len(bits), Required: 1024}
	}
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		if bits[i] == 1 {
			x[i] = 1
		} else {
			x[i] = -1
		}
	}
	spec := fft(x)
	half := n / 2
	modulus := make([]float64, half)
	for i := 0; i < half; i++ {
		modulus[i] = math.Hypot(real(spec[i]), imag(spec[i]))
	}
	threshold := spectralThreshold(n)
	count := 0
	for _, m := range modulus {
		if m < threshold {
			count++
		}
	}
	expected := 0.95 * float64(half)
	d := (float64(count) - expected) / math.Sqrt(float64(n)*0.95*0.05/4.0)
	return math.Erfc(math.Abs(d) / math.Sqrt2), nil
}
