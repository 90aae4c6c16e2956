package spectral

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct {
	// No state needed for now
}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes Fast Fourier Transform using mjibson/go-dsp
// Takes []float64 input and returns []complex128 output
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes efficiently, including non-power-of-2
	return fft.FFTReal(x)
}

// PowerSpectrum computes the one-sided power spectrum of a real frame.
// Returns len(x)/2+1 bins of squared magnitudes.
func (f *FFT) PowerSpectrum(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := fft.FFTReal(x)
	bins := len(x)/2 + 1
	power := make([]float64, bins)
	for i := range bins {
		re := real(spectrum[i])
		im := imag(spectrum[i])
		power[i] = re*re + im*im
	}
	return power
}

// HannWindow returns Hann window coefficients of the given size.
func HannWindow(size int) []float64 {
	w := make([]float64, size)
	if size == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}
