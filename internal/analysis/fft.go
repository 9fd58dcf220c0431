package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT is a recursive radix-2 Cooley-Tukey transform. len(data) must be a
// power of two; it panics otherwise. Use PadPow2 first for arbitrary lengths.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// PowerSpectrum returns the magnitudes of the first len(data)/2 bins of FFT.
// It panics under the same length rule as FFT.
func PowerSpectrum(data []float64) []float64 {
	fft := FFT(data)
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// PadPow2 zero-pads data to the next power of two.
func PadPow2(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, data)
	return padded
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC
// component of samples taken at sampleRate. The mean is removed and the
// whole series is transformed, whatever its length, so no padding smears
// the peak. Returns 0 for fewer than four samples.
func DominantFrequency(samples []float64, sampleRate float64) float64 {
	n := len(samples)
	if n < 4 || sampleRate <= 0 {
		return 0
	}

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(n)
	data := make([]float64, n)
	for i, v := range samples {
		data[i] = v - mean
	}

	spectrum := fft.FFTReal(data)
	peak, best := 1, 0.0
	for i := 1; i <= n/2; i++ {
		if p := cmplx.Abs(spectrum[i]); p > best {
			peak, best = i, p
		}
	}
	return float64(peak) * sampleRate / float64(n)
}
