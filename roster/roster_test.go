package roster

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterkit/core"
)

func rec(t *testing.T, id core.RecordID, name string, score float64) core.Record {
	t.Helper()
	r, err := core.NewRecord(id, name, score)
	require.NoError(t, err)
	return r
}

func sampleRoster(t *testing.T) *Roster {
	t.Helper()
	r := New()
	r.Add(rec(t, 101, "Ella Cynthia", 4.50))
	r.Add(rec(t, 102, "Ikenna Divine", 4.80))
	r.Add(rec(t, 103, "Chris Chibuike", 4.30))
	return r
}

func ids(records []core.Record) []core.RecordID {
	out := make([]core.RecordID, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return out
}

func TestSampleScenario(t *testing.T) {
	r := sampleRoster(t)
	assert.Equal(t, 3, r.Count())
	assert.InDelta(t, 4.5333, r.AverageScore(), 1e-4)

	top, ok := r.TopPerformer()
	require.True(t, ok)
	assert.Equal(t, "Ikenna Divine", top.Name())

	low, ok := r.LowestPerformer()
	require.True(t, ok)
	assert.Equal(t, "Chris Chibuike", low.Name())

	s := r.Summary()
	assert.Equal(t, 3, s.Count)
	require.NotNil(t, s.Top)
	require.NotNil(t, s.Lowest)
	assert.Equal(t, 4.8, s.Top.Score())
	assert.Equal(t, 4.3, s.Lowest.Score())
}

func TestEmptyRoster(t *testing.T) {
	r := New()
	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0.0, r.AverageScore())
	_, ok := r.TopPerformer()
	assert.False(t, ok)
	_, ok = r.LowestPerformer()
	assert.False(t, ok)
	s := r.Summary()
	assert.Nil(t, s.Top)
	assert.Nil(t, s.Lowest)
	assert.Empty(t, r.All())
	r.SortByName()
	r.SortByScore()
	r.SortByID()
	_, ok = r.BinarySearchByID(1)
	assert.False(t, ok)
}

func TestAverageOfTwo(t *testing.T) {
	r := New()
	r.Add(rec(t, 1, "A", 4.0))
	r.Add(rec(t, 2, "B", 5.0))
	assert.Equal(t, 4.5, r.AverageScore())
}

func TestPerformerTieBreakFirstWins(t *testing.T) {
	r := New()
	r.Add(rec(t, 1, "A", 3))
	r.Add(rec(t, 2, "B", 4))
	r.Add(rec(t, 3, "C", 4))
	r.Add(rec(t, 4, "D", 3))
	top, _ := r.TopPerformer()
	low, _ := r.LowestPerformer()
	assert.Equal(t, core.RecordID(2), top.ID())
	assert.Equal(t, core.RecordID(1), low.ID())
}

func TestAllReturnsCopies(t *testing.T) {
	r := sampleRoster(t)
	snap := r.All()
	require.NoError(t, snap[0].SetScore(0))
	got, _ := r.FindByID(101)
	assert.Equal(t, 4.5, got.Score())
}

func TestFindByIDFirstMatch(t *testing.T) {
	r := New()
	r.Add(rec(t, 5, "First", 1))
	r.Add(rec(t, 5, "Second", 2))
	got, ok := r.FindByID(5)
	require.True(t, ok)
	assert.Equal(t, "First", got.Name())
	_, ok = r.FindByID(6)
	assert.False(t, ok)
}

func TestBinarySearchSortsByID(t *testing.T) {
	r := New()
	for _, id := range []core.RecordID{30, 10, 20} {
		r.Add(rec(t, id, "n", 1))
	}
	got, ok := r.BinarySearchByID(10)
	require.True(t, ok)
	assert.Equal(t, core.RecordID(10), got.ID())
	assert.Equal(t, []core.RecordID{10, 20, 30}, ids(r.All()))

	_, ok = r.BinarySearchByID(25)
	assert.False(t, ok)
	assert.Equal(t, []core.RecordID{10, 20, 30}, ids(r.All()))
}

func TestBinarySearchDuplicatesFirstBeforeSort(t *testing.T) {
	r := New()
	r.Add(rec(t, 9, "A", 1))
	r.Add(rec(t, 3, "B", 1))
	r.Add(rec(t, 9, "C", 1))
	got, ok := r.BinarySearchByID(9)
	require.True(t, ok)
	assert.Equal(t, "A", got.Name())
	assert.Equal(t, []core.RecordID{3, 9, 9}, ids(r.All()))
}

func TestLookupByIDKeepsOrder(t *testing.T) {
	r := New()
	for _, id := range []core.RecordID{30, 10, 20} {
		r.Add(rec(t, id, "n", 1))
	}
	got, ok := r.LookupByID(20)
	require.True(t, ok)
	assert.Equal(t, core.RecordID(20), got.ID())
	assert.Equal(t, []core.RecordID{30, 10, 20}, ids(r.All()))

	require.NotNil(t, r.index.byID)
	r.Add(rec(t, 5, "late", 1))
	assert.Nil(t, r.index.byID, "add only appends")
	got, ok = r.LookupByID(5)
	require.True(t, ok)
	assert.Equal(t, "late", got.Name())

	r.Remove(10)
	_, ok = r.LookupByID(10)
	assert.False(t, ok)
}

func TestLookupByIDFollowsCurrentOrder(t *testing.T) {
	r := New()
	r.Add(rec(t, 7, "high", 4))
	r.Add(rec(t, 7, "low", 1))
	got, _ := r.LookupByID(7)
	assert.Equal(t, "high", got.Name())

	r.SortByScore()
	got, _ = r.LookupByID(7)
	assert.Equal(t, "low", got.Name())

	r.Replace([]core.Record{rec(t, 8, "fresh", 2)})
	_, ok := r.LookupByID(7)
	assert.False(t, ok)
	got, ok = r.LookupByID(8)
	require.True(t, ok)
	assert.Equal(t, "fresh", got.Name())
}

func TestBinaryAndLinearSearchAgree(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		r := New()
		n := rng.IntN(30)
		for i := 0; i < n; i++ {
			r.Add(rec(t, core.RecordID(1+rng.IntN(40)), "x", float64(rng.IntN(6))))
		}
		if n > 0 && rng.IntN(2) == 0 {
			r.Remove(r.All()[rng.IntN(n)].ID())
		}
		switch rng.IntN(3) {
		case 0:
			r.SortByName()
		case 1:
			r.SortByScore()
		}
		for id := core.RecordID(0); id <= 42; id++ {
			linearRec, linear := r.FindByID(id)
			lookupRec, lookup := r.LookupByID(id)
			require.Equal(t, linear, lookup, "round %d id %d", round, id)
			require.Equal(t, linearRec, lookupRec, "round %d id %d", round, id)
			_, binary := r.BinarySearchByID(id)
			require.Equal(t, linear, binary, "round %d id %d", round, id)
		}
		assert.True(t, slices.IsSortedFunc(r.All(), func(a, b core.Record) int {
			return int(a.ID() - b.ID())
		}))
	}
}

func TestBinarySearchAfterRemovingDuplicate(t *testing.T) {
	r := New()
	r.Add(rec(t, 9, "Early", 1))
	r.Add(rec(t, 9, "Late", 2))
	r.SortByScore()
	r.Remove(9) // removes "Early", the first in current order
	got, ok := r.BinarySearchByID(9)
	require.True(t, ok)
	assert.Equal(t, "Late", got.Name())
}

func TestUpdateScore(t *testing.T) {
	r := sampleRoster(t)
	found, err := r.UpdateScore(103, 3.9)
	require.NoError(t, err)
	assert.True(t, found)
	got, _ := r.BinarySearchByID(103)
	assert.Equal(t, 3.9, got.Score())

	found, err = r.UpdateScore(999, 1)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = r.UpdateScore(101, 5.5)
	assert.True(t, found)
	assert.True(t, core.IsValidation(err))
	got, _ = r.FindByID(101)
	assert.Equal(t, 4.5, got.Score())
}

func TestRename(t *testing.T) {
	r := sampleRoster(t)
	found, err := r.Rename(101, "  Ella C. ")
	require.NoError(t, err)
	assert.True(t, found)
	got, _ := r.FindByID(101)
	assert.Equal(t, "Ella C.", got.Name())

	found, err = r.Rename(101, "")
	assert.True(t, found)
	assert.True(t, core.IsValidation(err))
}

func TestRemove(t *testing.T) {
	r := sampleRoster(t)
	removed, ok := r.Remove(102)
	require.True(t, ok)
	assert.Equal(t, "Ikenna Divine", removed.Name())
	assert.Equal(t, []core.RecordID{101, 103}, ids(r.All()))
	_, ok = r.BinarySearchByID(102)
	assert.False(t, ok)
	_, ok = r.Remove(102)
	assert.False(t, ok)
}

func TestSortByName(t *testing.T) {
	r := New()
	for i, name := range []string{"delta", "Alpha", "charlie", "Bravo", "alpha", "echo"} {
		r.Add(rec(t, core.RecordID(i+1), name, 1))
	}
	before := r.All()
	r.SortByName()
	after := r.All()
	for i := 1; i < len(after); i++ {
		assert.LessOrEqual(t, strings.ToLower(after[i-1].Name()), strings.ToLower(after[i].Name()))
	}
	assert.ElementsMatch(t, before, after)
}

func TestSortByNameEqualNamesOrder(t *testing.T) {
	r := New()
	for i, name := range []string{"alpha", "Bravo", "Alpha", "bravo", "ALPHA"} {
		r.Add(rec(t, core.RecordID(i+1), name, 1))
	}
	r.SortByName()
	// last-element pivot with <= moves the first "bravo" behind the second
	assert.Equal(t, []core.RecordID{1, 3, 5, 4, 2}, ids(r.All()))

	r = New()
	for i, name := range []string{"delta", "Alpha", "charlie", "Bravo", "alpha", "echo"} {
		r.Add(rec(t, core.RecordID(i+1), name, 1))
	}
	r.SortByName()
	assert.Equal(t, []core.RecordID{2, 5, 4, 3, 1, 6}, ids(r.All()))
}

func TestSortByScore(t *testing.T) {
	r := New()
	scores := []float64{3.1, 4.9, 0, 2.2, 4.9, 1.5, 5}
	for i, s := range scores {
		r.Add(rec(t, core.RecordID(i+1), "n", s))
	}
	before := r.All()
	r.SortByScore()
	after := r.All()
	assert.True(t, slices.IsSortedFunc(after, func(a, b core.Record) int {
		switch {
		case a.Score() < b.Score():
			return -1
		case a.Score() > b.Score():
			return 1
		}
		return 0
	}))
	assert.ElementsMatch(t, before, after)
	// bubble sort never swaps equal neighbours
	assert.Equal(t, []core.RecordID{3, 6, 4, 1, 2, 5, 7}, ids(after))
}

func TestSortByIDIsStable(t *testing.T) {
	r := New()
	r.Add(rec(t, 3, "c", 1))
	r.Add(rec(t, 1, "a1", 1))
	r.Add(rec(t, 2, "b", 1))
	r.Add(rec(t, 1, "a2", 1))
	r.SortByID()
	got := r.All()
	assert.Equal(t, []core.RecordID{1, 1, 2, 3}, ids(got))
	assert.Equal(t, "a1", got[0].Name())
	assert.Equal(t, "a2", got[1].Name())
}

func TestSortsPreserveMultisetRandomized(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	names := []string{"ada", "Ada", "bob", "Cy", "cy", "dee", "Eve"}
	for round := 0; round < 30; round++ {
		r := New()
		for i := 0; i < rng.IntN(25); i++ {
			r.Add(rec(t, core.RecordID(1+rng.IntN(10)), names[rng.IntN(len(names))], float64(rng.IntN(51))/10))
		}
		before := r.All()
		r.SortByName()
		assert.ElementsMatch(t, before, r.All())
		r.SortByScore()
		assert.ElementsMatch(t, before, r.All())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"students.dat", "students.json", "students.yaml", "students.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			src := sampleRoster(t)
			src.SortByName()
			require.NoError(t, src.SaveToFile(path))

			dst := New()
			status, err := dst.LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, Loaded, status)
			assert.Equal(t, src.All(), dst.All())

			got, ok := dst.BinarySearchByID(102)
			require.True(t, ok)
			assert.Equal(t, "Ikenna Divine", got.Name())
		})
	}
}

func TestLoadMissingFileLeavesRoster(t *testing.T) {
	r := sampleRoster(t)
	status, err := r.LoadFromFile(filepath.Join(t.TempDir(), "absent.dat"))
	require.NoError(t, err)
	assert.Equal(t, NotFound, status)
	assert.Equal(t, 3, r.Count())
}

func TestLoadCorruptFileLeavesRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.dat")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	r := sampleRoster(t)
	status, err := r.LoadFromFile(path)
	require.Error(t, err)
	assert.Equal(t, Failed, status)
	assert.Equal(t, []core.RecordID{101, 102, 103}, ids(r.All()))
}

func TestSaveToUnwritablePathReportsError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	err := sampleRoster(t).SaveToFile(filepath.Join(blocker, "students.dat"))
	assert.Error(t, err)
}

func TestLoadStatusString(t *testing.T) {
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "failed", Failed.String())
}
