package spectral

import (
	"math"
	"testing"
)

func TestMelConversionRoundTrip(t *testing.T) {
	for _, hz := range []float64{0, 100, 440, 1000, 4000} {
		back := MelToHz(HzToMel(hz))
		if math.Abs(back-hz) > 1e-6 {
			t.Errorf("round trip of %g Hz gave %g", hz, back)
		}
	}
	if HzToMel(1000) <= HzToMel(100) {
		t.Error("mel scale not increasing")
	}
}

func TestMelFilterBankShape(t *testing.T) {
	const (
		numFilters = 8
		fftSize    = 64
		sampleRate = 8000
	)
	bank := melFilterBank(numFilters, fftSize, sampleRate, 0, sampleRate/2)

	if len(bank) != numFilters {
		t.Fatalf("got %d filters, want %d", len(bank), numFilters)
	}
	for m, filter := range bank {
		if len(filter) != fftSize/2+1 {
			t.Fatalf("filter %d has %d bins, want %d", m, len(filter), fftSize/2+1)
		}
		for k, v := range filter {
			if v < 0 || v > 1 {
				t.Errorf("filter %d bin %d weight %g outside [0, 1]", m, k, v)
			}
		}
	}
}

func TestMelFilterBankBadParams(t *testing.T) {
	if bank := melFilterBank(0, 64, 8000, 0, 4000); bank != nil {
		t.Errorf("zero filters gave %d rows", len(bank))
	}
	if bank := melFilterBank(8, 0, 8000, 0, 4000); bank != nil {
		t.Errorf("zero FFT size gave %d rows", len(bank))
	}
}

func TestApplyFilterBankSumsWeightedPower(t *testing.T) {
	bank := [][]float64{
		{1, 0.5, 0},
		{0, 0.5, 1},
	}
	power := []float64{2, 4, 6}

	mel := applyFilterBank(bank, power)
	if len(mel) != 2 {
		t.Fatalf("got %d bands, want 2", len(mel))
	}
	if mel[0] != 4 {
		t.Errorf("band 0 = %g, want 4", mel[0])
	}
	if mel[1] != 8 {
		t.Errorf("band 1 = %g, want 8", mel[1])
	}
}
