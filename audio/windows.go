package audio

import (
	"fmt"
	"iter"
)

// Windows returns a lazy sequence of (start, end) index pairs over a buffer
// of n samples. Consecutive starts advance by windowSize/overlap, so overlap=1
// yields disjoint windows and overlap=2 yields half-overlapping ones. The
// final windows may run past n; callers that need exact-length windows must
// filter short slices themselves.
//
// The sequence is restartable: every range over it starts from zero again.
func Windows(n, windowSize, overlap int) (iter.Seq2[int, int], error) {
	if windowSize < 1 {
		return nil, fmt.Errorf("window size must be >= 1, got %d", windowSize)
	}
	if overlap < 1 {
		return nil, fmt.Errorf("overlap must be >= 1, got %d", overlap)
	}

	step := windowSize / overlap
	if step < 1 {
		return nil, fmt.Errorf("window size %d with overlap %d gives a zero step", windowSize, overlap)
	}

	return func(yield func(int, int) bool) {
		for start := 0; start < n; start += step {
			if !yield(start, start+windowSize) {
				return
			}
		}
	}, nil
}

// FullWindows returns only the windows that fit entirely within n samples,
// which is the filter every feature extractor applies.
func FullWindows(n, windowSize, overlap int) (iter.Seq2[int, int], error) {
	all, err := Windows(n, windowSize, overlap)
	if err != nil {
		return nil, err
	}

	return func(yield func(int, int) bool) {
		for start, end := range all {
			if end > n {
				continue
			}
			if !yield(start, end) {
				return
			}
		}
	}, nil
}
