package features

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/echolab/songbird/config"
)

func TestSplitPatchesPadsAndCounts(t *testing.T) {
	// 17x31 spectrogram with 16x16 patches pads up to 32x32: 4 patches.
	spec := make([][]float64, 17)
	for i := range spec {
		spec[i] = make([]float64, 31)
		for j := range spec[i] {
			spec[i][j] = 1
		}
	}

	patches := SplitPatches(spec, 16, 16)
	if len(patches) != 4 {
		t.Fatalf("got %d patches, want 4", len(patches))
	}
	for i, patch := range patches {
		if len(patch) != 16 || len(patch[0]) != 16 {
			t.Fatalf("patch %d has shape %dx%d, want 16x16", i, len(patch), len(patch[0]))
		}
	}

	// The bottom-right patch covers rows 16..31 and cols 16..31: only its
	// top-left cell (row 16, col 16..30) carries data, the rest is padding.
	last := patches[3]
	if last[0][0] != 1 {
		t.Errorf("expected data in the last patch's first row")
	}
	if last[1][0] != 0 || last[0][15] != 0 {
		t.Errorf("expected zero padding beyond the spectrogram bounds")
	}
}

func TestSplitPatchesExactFit(t *testing.T) {
	spec := make([][]float64, 4)
	for i := range spec {
		spec[i] = []float64{1, 2, 3, 4}
	}
	patches := SplitPatches(spec, 2, 2)
	if len(patches) != 4 {
		t.Fatalf("got %d patches, want 4", len(patches))
	}
}

func TestNormalizeSegmentsRange(t *testing.T) {
	window := []float64{0.5, -1.0, 0.25, -0.25}
	out := NormalizeSegments(window, 2)

	if len(out) != len(window) {
		t.Fatalf("length changed: %d vs %d", len(out), len(window))
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range out {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo != 0 || hi != 1 {
		t.Errorf("normalized range [%g, %g], want [0, 1]", lo, hi)
	}

	// |-1.0| is the max, |-0.25| and |0.25| tie at the min.
	if out[1] != 1 {
		t.Errorf("max sample normalized to %g, want 1", out[1])
	}
	if out[2] != 0 || out[3] != 0 {
		t.Errorf("min samples normalized to %g and %g, want 0", out[2], out[3])
	}
}

func TestNormalizeSegmentsConstantWindow(t *testing.T) {
	out := NormalizeSegments([]float64{0.3, 0.3, -0.3, 0.3}, 2)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("constant window sample %d is %g, want 0", i, v)
		}
	}
}

func TestParseLabel(t *testing.T) {
	cases := []struct {
		path    string
		source  config.LabelSource
		want    int
		wantErr bool
	}{
		{filepath.Join("data", "2", "clip.wav"), config.LabelFromDirectoryName, 2, false},
		{filepath.Join("data", "3_siren", "clip.wav"), config.LabelFromFilenameToken, 3, false},
		{filepath.Join("data", "0_dog_bark", "x.wav"), config.LabelFromFilenameToken, 0, false},
		{filepath.Join("data", "siren", "clip.wav"), config.LabelFromDirectoryName, 0, true},
		{filepath.Join("data", "siren_3", "clip.wav"), config.LabelFromFilenameToken, 0, true},
	}

	for _, tc := range cases {
		got, err := ParseLabel(tc.path, tc.source)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseLabel(%q, %s): expected error", tc.path, tc.source)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLabel(%q, %s): %v", tc.path, tc.source, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLabel(%q, %s) = %d, want %d", tc.path, tc.source, got, tc.want)
		}
	}
}

func TestExtractorShapes(t *testing.T) {
	for _, family := range config.Families() {
		cfg := config.ForFamily(family)
		extractor, err := New(cfg)
		if err != nil {
			t.Fatalf("%s: %v", family, err)
		}

		shape := extractor.Shape()
		if Len(shape) == 0 {
			t.Errorf("%s: empty shape %v", family, shape)
		}

		switch family {
		case config.FamilyLSTM, config.FamilyMLP:
			want := []int{cfg.WindowSizeFactor, cfg.HopLength}
			if shape[0] != want[0] || shape[1] != want[1] {
				t.Errorf("%s: shape %v, want %v", family, shape, want)
			}
		case config.FamilyResidual:
			if shape[1] != cfg.WindowSizeFactor {
				t.Errorf("%s: time dimension %d, want %d", family, shape[1], cfg.WindowSizeFactor)
			}
		}
	}
}
