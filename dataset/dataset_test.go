package dataset

import (
	"testing"
)

func makeSet(labels ...int) *Set {
	set := &Set{Shape: []int{2}}
	for i, label := range labels {
		set.Samples = append(set.Samples, Sample{
			Data:  []float64{float64(i), float64(label)},
			Label: label,
		})
	}
	return set
}

func countLabels(set *Set) map[int]int {
	counts := map[int]int{}
	for _, smp := range set.Samples {
		counts[smp.Label]++
	}
	return counts
}

func TestClassesSortedDistinct(t *testing.T) {
	set := makeSet(2, 0, 1, 0, 2, 2)
	classes := set.Classes()
	want := []int{0, 1, 2}
	if len(classes) != len(want) {
		t.Fatalf("got classes %v, want %v", classes, want)
	}
	for i := range want {
		if classes[i] != want[i] {
			t.Fatalf("got classes %v, want %v", classes, want)
		}
	}
}

func TestSubsetKeepsOrder(t *testing.T) {
	set := makeSet(0, 1, 0, 1)
	sub := set.Subset([]int{3, 0})

	if sub.Len() != 2 {
		t.Fatalf("subset length %d, want 2", sub.Len())
	}
	if sub.Samples[0].Label != 1 || sub.Samples[1].Label != 0 {
		t.Errorf("subset labels %v, want [1 0]", sub.Labels())
	}
	if &sub.Samples[0].Data[0] != &set.Samples[3].Data[0] {
		t.Error("subset copied sample data instead of sharing it")
	}
}

func TestBalanceEqualizesClassCounts(t *testing.T) {
	set := makeSet(0, 0, 0, 1, 1, 1, 1, 1, 1, 1)
	balanced := Balance(set, 0)

	counts := countLabels(balanced)
	if counts[0] != 7 || counts[1] != 7 {
		t.Fatalf("balanced counts %v, want 7 per class", counts)
	}
	if balanced.Len() != 14 {
		t.Fatalf("balanced size %d, want 14", balanced.Len())
	}

	// Classes come back grouped in ascending label order.
	for i, smp := range balanced.Samples {
		want := 0
		if i >= 7 {
			want = 1
		}
		if smp.Label != want {
			t.Fatalf("sample %d has label %d, want %d", i, smp.Label, want)
		}
	}
}

func TestBalanceDeterministic(t *testing.T) {
	set := makeSet(0, 0, 1, 1, 1, 1, 1)

	a := Balance(set, 0)
	b := Balance(set, 0)
	if a.Len() != b.Len() {
		t.Fatalf("sizes differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Samples {
		if &a.Samples[i].Data[0] != &b.Samples[i].Data[0] {
			t.Fatalf("draw diverged at sample %d with the same seed", i)
		}
	}
}

func TestBalanceLeavesInputUntouched(t *testing.T) {
	set := makeSet(0, 1, 1, 1)
	before := set.Len()
	Balance(set, 0)
	if set.Len() != before {
		t.Fatalf("input set grew from %d to %d", before, set.Len())
	}
}
