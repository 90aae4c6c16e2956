package spectral

import (
	"math"
	"testing"
)

func TestMelSpectrogramFrameCount(t *testing.T) {
	ms, err := NewMelSpectrogram(MelParams{
		SampleRate: 8000,
		SizeFFT:    256,
		HopLength:  128,
		NumFilters: 16,
	})
	if err != nil {
		t.Fatal(err)
	}

	signal := make([]float64, 128*9)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 8000)
	}

	spec, err := ms.Compute(signal)
	if err != nil {
		t.Fatal(err)
	}
	if len(spec) != 16 {
		t.Fatalf("got %d filter rows, want 16", len(spec))
	}
	wantFrames := 1 + len(signal)/128
	if len(spec[0]) != wantFrames {
		t.Fatalf("got %d frames, want %d", len(spec[0]), wantFrames)
	}
}

func TestMelSpectrogramRejectsEmptySignal(t *testing.T) {
	ms, err := NewMelSpectrogram(MelParams{
		SampleRate: 8000,
		SizeFFT:    256,
		HopLength:  128,
		NumFilters: 16,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ms.Compute(nil); err == nil {
		t.Fatal("expected error for empty signal")
	}
}

func TestPowerToDBRange(t *testing.T) {
	spec := [][]float64{
		{1.0, 0.1, 0.01},
		{0.001, 1e-12, 100.0},
	}
	db := PowerToDB(spec, 80)

	maxDB := math.Inf(-1)
	minDB := math.Inf(1)
	for _, row := range db {
		for _, v := range row {
			maxDB = math.Max(maxDB, v)
			minDB = math.Min(minDB, v)
		}
	}
	if math.Abs(maxDB) > 1e-9 {
		t.Errorf("max dB is %g, want 0 (referenced to the peak)", maxDB)
	}
	if minDB < -80 {
		t.Errorf("min dB is %g, want clamped at -80", minDB)
	}
}

func TestPowerToDBMonotonic(t *testing.T) {
	spec := [][]float64{{0.01, 0.1, 1.0}}
	db := PowerToDB(spec, 80)
	if !(db[0][0] < db[0][1] && db[0][1] < db[0][2]) {
		t.Fatalf("dB conversion not monotonic: %v", db[0])
	}
}

func TestRescaleDBIntoUnitRange(t *testing.T) {
	spec := [][]float64{{0, -40, -80}}
	out := RescaleDB(spec, 80)

	want := []float64{1, 0.5, 0}
	for i, v := range out[0] {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Errorf("rescaled[%d] = %g, want %g", i, v, want[i])
		}
	}
}

func TestRescaleDBNotIdempotent(t *testing.T) {
	a := [][]float64{{-40}}
	RescaleDB(a, 80)
	first := a[0][0]
	RescaleDB(a, 80)
	if a[0][0] == first {
		t.Fatalf("applying the rescale twice left the value at %g", first)
	}
}
