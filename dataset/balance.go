package dataset

import (
	"math/rand"
)

// Balance resamples every class with replacement up to the majority class
// count, so the result has exactly maxCount samples per class, grouped by
// ascending label. The draw is seeded and reproducible; the input set is not
// modified.
func Balance(set *Set, seed int64) *Set {
	classes := set.Classes()
	if len(classes) == 0 {
		return &Set{Shape: set.Shape}
	}

	byClass := make(map[int][]int, len(classes))
	for i, smp := range set.Samples {
		byClass[smp.Label] = append(byClass[smp.Label], i)
	}

	maxCount := 0
	for _, indices := range byClass {
		if len(indices) > maxCount {
			maxCount = len(indices)
		}
	}

	rng := rand.New(rand.NewSource(seed))

	balanced := &Set{
		Shape:   set.Shape,
		Samples: make([]Sample, 0, maxCount*len(classes)),
	}
	for _, class := range classes {
		indices := byClass[class]
		for range maxCount {
			pick := indices[rng.Intn(len(indices))]
			balanced.Samples = append(balanced.Samples, set.Samples[pick])
		}
	}

	return balanced
}
