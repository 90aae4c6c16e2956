package spectral

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// HzToMel converts a frequency in Hz to the mel scale.
func HzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

// MelToHz is the inverse of HzToMel.
func MelToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// melFilterBank builds numFilters triangular filters over the fftSize/2+1
// bins of a power spectrum. Filter centers sit evenly spaced on the mel
// scale between lowFreq and highFreq; each filter rises linearly from the
// previous center to its own and falls back to zero at the next.
func melFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	if numFilters <= 0 || fftSize <= 0 {
		return nil
	}
	numBins := fftSize/2 + 1

	// numFilters+2 bin indices: the extra first and last points carry the
	// rising edge of the first filter and the falling edge of the last.
	lowMel := HzToMel(lowFreq)
	melStep := (HzToMel(highFreq) - lowMel) / float64(numFilters+1)
	centers := make([]int, numFilters+2)
	for i := range centers {
		hz := MelToHz(lowMel + float64(i)*melStep)
		bin := int(math.Floor((float64(fftSize)+1)*hz/float64(sampleRate) + 0.5))
		centers[i] = min(bin, fftSize/2)
	}

	bank := make([][]float64, numFilters)
	for m := range bank {
		filter := make([]float64, numBins)
		left, center, right := centers[m], centers[m+1], centers[m+2]
		for k := left; k < center && k < numBins; k++ {
			filter[k] = float64(k-left) / float64(center-left)
		}
		for k := center; k < right && k < numBins; k++ {
			filter[k] = float64(right-k) / float64(right-center)
		}
		bank[m] = filter
	}

	return bank
}

// applyFilterBank reduces one power spectrum frame to its mel band energies.
func applyFilterBank(bank [][]float64, power []float64) []float64 {
	mel := make([]float64, len(bank))
	for i, filter := range bank {
		n := min(len(filter), len(power))
		mel[i] = floats.Dot(filter[:n], power[:n])
	}
	return mel
}
