// Package dataset materializes labeled feature sets from directory trees of
// audio files and provides the class-balancing resampler the trainer uses.
package dataset

import (
	"slices"
)

// Sample is one feature tensor with its class label.
type Sample struct {
	Data  []float64
	Label int
}

// Set is an ordered collection of equally shaped samples. Shape is the
// per-sample tensor shape. Sets are treated as read-only once loaded;
// Subset and Balance build new sets instead of mutating.
type Set struct {
	Shape   []int
	Samples []Sample
}

// Len returns the number of samples.
func (s *Set) Len() int {
	return len(s.Samples)
}

// Labels returns the label vector of the set.
func (s *Set) Labels() []int {
	labels := make([]int, len(s.Samples))
	for i, smp := range s.Samples {
		labels[i] = smp.Label
	}
	return labels
}

// Classes returns the sorted distinct labels present in the set.
func (s *Set) Classes() []int {
	seen := map[int]bool{}
	var classes []int
	for _, smp := range s.Samples {
		if !seen[smp.Label] {
			seen[smp.Label] = true
			classes = append(classes, smp.Label)
		}
	}
	slices.Sort(classes)
	return classes
}

// Subset returns a new set holding the samples at the given indices, in
// order. Sample data is shared, not copied.
func (s *Set) Subset(indices []int) *Set {
	sub := &Set{
		Shape:   s.Shape,
		Samples: make([]Sample, len(indices)),
	}
	for i, idx := range indices {
		sub.Samples[i] = s.Samples[idx]
	}
	return sub
}
