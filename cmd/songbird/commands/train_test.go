package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/echolab/songbird/config"
)

// resetTrainFlags restores the train flag variables to their unset state
// after a test has poked them.
func resetTrainFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		trainConfigFile = ""
		trainFamily = ""
		trainSampleRate = 0
		trainClasses = 0
		trainHopLength = 0
		trainWindowFactor = 0
		trainOverlap = 0
		trainFFTSize = 0
		trainMelFilters = 0
		trainDuration = 0
		trainPatchHeight = 0
		trainPatchWidth = 0
		trainDropout = 0
		trainProjectionDim = 0
		trainHeadSize = 0
		trainHeads = 0
		trainBlocks = 0
		trainHiddenUnits = nil
		trainConvFilters = nil
		trainKernelSize = 0
		trainPoolingSize = 0
	})
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveSettingsDefaults(t *testing.T) {
	resetTrainFlags(t)

	cfg, err := resolveSettings()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Family != config.FamilyTransformer {
		t.Errorf("family %q, want the transformer default", cfg.Family)
	}
	if cfg.HopLength != 512 {
		t.Errorf("hop length %d, want 512", cfg.HopLength)
	}
}

// --family combined with --config must fill defaults from the flag's family,
// not the file's.
func TestResolveSettingsFamilyFlagBeatsFile(t *testing.T) {
	resetTrainFlags(t)
	trainConfigFile = writeSettings(t, "family: lstm\nnumber_epochs: 3\n")
	trainFamily = "transformer"

	cfg, err := resolveSettings()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Family != config.FamilyTransformer {
		t.Fatalf("family %q, want transformer", cfg.Family)
	}
	if cfg.HopLength != 512 {
		t.Errorf("hop length %d, want transformer default 512", cfg.HopLength)
	}
	if cfg.DropoutRate != 0.2 {
		t.Errorf("dropout %g, want transformer default 0.2", cfg.DropoutRate)
	}
	if cfg.NumberEpochs != 3 {
		t.Errorf("file epochs lost: %d", cfg.NumberEpochs)
	}
}

func TestResolveSettingsFlagBeatsFileValue(t *testing.T) {
	resetTrainFlags(t)
	trainConfigFile = writeSettings(t, "family: mlp\nhop_length: 64\nhidden_units: [16]\n")
	trainHopLength = 128
	trainHiddenUnits = []int{8, 8}
	trainDropout = 0.3

	cfg, err := resolveSettings()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HopLength != 128 {
		t.Errorf("hop length %d, want the 128 from the flag", cfg.HopLength)
	}
	if len(cfg.HiddenUnits) != 2 || cfg.HiddenUnits[0] != 8 {
		t.Errorf("hidden units %v, want the [8,8] from the flag", cfg.HiddenUnits)
	}
	if cfg.DropoutRate != 0.3 {
		t.Errorf("dropout %g, want the 0.3 from the flag", cfg.DropoutRate)
	}
	if cfg.SampleRate != 8000 {
		t.Errorf("untouched field %d, want the 8000 default", cfg.SampleRate)
	}
}

func TestResolveSettingsRejectsUnknownFamily(t *testing.T) {
	resetTrainFlags(t)
	trainFamily = "gru"

	if _, err := resolveSettings(); err == nil {
		t.Fatal("expected error for unknown family flag")
	}
}
