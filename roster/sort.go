package roster

import (
	"slices"
	"strings"

	"rosterkit/core"
)

// SortByName reorders the roster ascending by case-insensitive name using
// quicksort with a Lomuto partition around the last element. The result is
// not stable: records with equal names may change relative order.
func (r *Roster) SortByName() {
	r.quickSort(0, len(r.records)-1)
}

func (r *Roster) quickSort(low, high int) {
	for low < high {
		p := r.partition(low, high)
		// recurse into the smaller side to bound stack depth
		if p-low < high-p {
			r.quickSort(low, p-1)
			low = p + 1
		} else {
			r.quickSort(p+1, high)
			high = p - 1
		}
	}
}

func (r *Roster) partition(low, high int) int {
	pivot := r.records[high].Name()
	i := low - 1
	for j := low; j < high; j++ {
		if compareFold(r.records[j].Name(), pivot) <= 0 {
			i++
			r.swap(i, j)
		}
	}
	r.swap(i+1, high)
	return i + 1
}

// SortByScore reorders the roster ascending by score with bubble sort,
// stopping after the first pass that makes no swap.
func (r *Roster) SortByScore() {
	n := len(r.records)
	for i := 0; i < n-1; i++ {
		swapped := false
		for j := 0; j < n-i-1; j++ {
			if r.records[j].Score() > r.records[j+1].Score() {
				r.swap(j, j+1)
				swapped = true
			}
		}
		if !swapped {
			return
		}
	}
}

// SortByID reorders the roster ascending by id. Equal ids keep their order.
func (r *Roster) SortByID() {
	r.index.reset()
	slices.SortStableFunc(r.records, func(a, b *core.Record) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
}

func (r *Roster) swap(i, j int) {
	r.index.reset()
	r.records[i], r.records[j] = r.records[j], r.records[i]
}

// compareFold orders names ignoring case.
func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
