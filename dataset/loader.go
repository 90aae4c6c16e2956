package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/echolab/songbird/features"
	"github.com/echolab/songbird/logging"
)

// Loader walks a class-labeled directory tree and turns every matching audio
// file into features. A file that fails to decode or extract is logged and
// skipped; a partial dataset is a valid dataset.
type Loader struct {
	extractor features.Extractor
	pattern   string
	logger    logging.Logger
}

// NewLoader creates a loader using the given extractor and file glob pattern
// (e.g. "*.wav").
func NewLoader(extractor features.Extractor, pattern string) *Loader {
	if pattern == "" {
		pattern = "*.wav"
	}
	return &Loader{
		extractor: extractor,
		pattern:   pattern,
		logger: logging.WithFields(logging.Fields{
			"component": "dataset_loader",
			"extractor": extractor.Name(),
		}),
	}
}

// Load enumerates the immediate subdirectories of root as classes and
// extracts features from every file matching the loader's pattern. The root
// directory must exist; a missing root fails the whole load.
func (l *Loader) Load(root string) (*Set, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", root)
		}
		l.logger.Error(err, "dataset directory does not exist", logging.Fields{"root": root})
		return nil, fmt.Errorf("dataset directory %q: %w", root, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		l.logger.Error(err, "failed to list dataset directory", logging.Fields{"root": root})
		return nil, fmt.Errorf("failed to list %q: %w", root, err)
	}

	var classDirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			classDirs = append(classDirs, filepath.Join(root, entry.Name()))
		}
	}
	l.logger.Info("loading dataset", logging.Fields{
		"root":    root,
		"classes": len(classDirs),
	})

	set := &Set{Shape: l.extractor.Shape()}

	for _, dir := range classDirs {
		files, err := filepath.Glob(filepath.Join(dir, l.pattern))
		if err != nil {
			l.logger.Error(err, "bad file pattern", logging.Fields{"pattern": l.pattern})
			return nil, fmt.Errorf("bad file pattern %q: %w", l.pattern, err)
		}

		loaded := 0
		for _, file := range files {
			feats, err := l.extractor.Extract(file)
			if err != nil {
				// A single bad file never aborts the load.
				l.logger.Error(err, "skipping file", logging.Fields{"file": file})
				continue
			}
			for _, f := range feats {
				set.Samples = append(set.Samples, Sample{Data: f.Data, Label: f.Label})
			}
			loaded++
		}

		l.logger.Info("class directory loaded", logging.Fields{
			"dir":      dir,
			"files":    loaded,
			"of_files": len(files),
		})
	}

	l.logger.Info("dataset loading complete", logging.Fields{"samples": set.Len()})
	return set, nil
}
