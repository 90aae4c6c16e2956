package train

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
)

// Fold is one cross-validation partition: indices into the training pool.
type Fold struct {
	Train []int
	Val   []int
}

// HoldoutSplit partitions sample indices into a train and a test part,
// stratified by label: every class contributes the same fraction to the test
// part. The draw is seeded; both index slices come back sorted.
func HoldoutSplit(labels []int, fraction float64, seed int64) (train, test []int, err error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("holdout fraction must be in (0, 1), got %g", fraction)
	}

	rng := rand.New(rand.NewSource(seed))
	for _, indices := range groupByLabel(labels) {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		testCount := int(math.Round(fraction * float64(len(indices))))
		if testCount >= len(indices) {
			testCount = len(indices) - 1
		}
		test = append(test, indices[:testCount]...)
		train = append(train, indices[testCount:]...)
	}

	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}

// StratifiedKFold splits sample indices into k folds with near-equal class
// proportions in every validation part. Each index lands in exactly one
// validation part. The per-class order is shuffled with the given seed.
func StratifiedKFold(labels []int, k int, seed int64) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	if len(labels) < k {
		return nil, fmt.Errorf("cannot split %d samples into %d folds", len(labels), k)
	}

	rng := rand.New(rand.NewSource(seed))
	valParts := make([][]int, k)
	for _, indices := range groupByLabel(labels) {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		// Spread the class across the folds; the first len%k folds take
		// one extra sample.
		base, extra := len(indices)/k, len(indices)%k
		offset := 0
		for fold := range k {
			take := base
			if fold < extra {
				take++
			}
			valParts[fold] = append(valParts[fold], indices[offset:offset+take]...)
			offset += take
		}
	}

	folds := make([]Fold, k)
	for i := range folds {
		val := valParts[i]
		slices.Sort(val)

		var train []int
		for j, part := range valParts {
			if j != i {
				train = append(train, part...)
			}
		}
		slices.Sort(train)

		if len(val) == 0 {
			return nil, fmt.Errorf("fold %d has no validation samples", i)
		}
		folds[i] = Fold{Train: train, Val: val}
	}
	return folds, nil
}

// groupByLabel buckets sample indices by their label, in ascending label
// order so the seeded shuffles are deterministic.
func groupByLabel(labels []int) [][]int {
	byLabel := map[int][]int{}
	var classes []int
	for i, label := range labels {
		if _, ok := byLabel[label]; !ok {
			classes = append(classes, label)
		}
		byLabel[label] = append(byLabel[label], i)
	}
	slices.Sort(classes)

	groups := make([][]int, len(classes))
	for i, class := range classes {
		groups[i] = byLabel[class]
	}
	return groups
}
