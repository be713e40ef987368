package entity

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID    string
	Name  string
	Count int
}

func rowID(r row) string { return r.ID }

// keepCount carries the view-only Count over an update that does not return it.
func keepCount(old, updated row) row {
	updated.Count = old.Count
	return updated
}

func newRowStore(rows ...row) *Store[row] {
	s := New(rowID, keepCount)
	s.Reset(rows)
	return s
}

func TestPrependPutsNewRowFirst(t *testing.T) {
	s := newRowStore(row{ID: "a"}, row{ID: "b"})
	s.Prepend(row{ID: "c", Name: "new"})

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, row{ID: "c", Name: "new"}, items[0])
	assert.Equal(t, "a", items[1].ID)
	assert.Equal(t, "b", items[2].ID)
}

func TestPrependIntoEmptyStore(t *testing.T) {
	s := New[row](rowID, nil)
	s.Prepend(row{ID: "a"})
	assert.Equal(t, 1, s.Len())
}

func TestUpdateReplacesOnlyMatchingRow(t *testing.T) {
	s := newRowStore(
		row{ID: "a", Name: "A", Count: 1},
		row{ID: "b", Name: "B", Count: 2},
		row{ID: "c", Name: "C", Count: 3},
	)
	require.NoError(t, s.Update(row{ID: "b", Name: "B2"}))

	assert.Equal(t, []row{
		{ID: "a", Name: "A", Count: 1},
		{ID: "b", Name: "B2", Count: 2},
		{ID: "c", Name: "C", Count: 3},
	}, s.Items())
}

func TestUpdateWithoutMergeReplacesVerbatim(t *testing.T) {
	s := New[row](rowID, nil)
	s.Reset([]row{{ID: "a", Count: 5}})
	require.NoError(t, s.Update(row{ID: "a", Name: "x"}))
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, row{ID: "a", Name: "x"}, got)
}

func TestUpdateMissingIDLeavesStoreUnchanged(t *testing.T) {
	s := newRowStore(row{ID: "a", Name: "A"})
	err := s.Update(row{ID: "zzz", Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotInStore)
	assert.Equal(t, []row{{ID: "a", Name: "A"}}, s.Items())
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	s := newRowStore(row{ID: "a"}, row{ID: "b"}, row{ID: "c"})
	require.NoError(t, s.Delete("b"))

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []row{{ID: "a"}, {ID: "c"}}, s.Items())
}

func TestDeleteMissingIDLeavesStoreUnchanged(t *testing.T) {
	s := newRowStore(row{ID: "a"})
	assert.ErrorIs(t, s.Delete("zzz"), ErrNotInStore)
	assert.Equal(t, 1, s.Len())
}

func TestItemsReturnsCopy(t *testing.T) {
	s := newRowStore(row{ID: "a", Name: "A"})
	items := s.Items()
	items[0].Name = "changed"
	got, _ := s.Get("a")
	assert.Equal(t, "A", got.Name)
}

func TestResetCopiesInput(t *testing.T) {
	in := []row{{ID: "a"}, {ID: "b"}}
	s := newRowStore(in...)
	in[0].ID = "changed"
	assert.Equal(t, "a", s.Items()[0].ID)
}

func TestAppend(t *testing.T) {
	s := newRowStore(row{ID: "a"})
	s.Append(row{ID: "b"}, row{ID: "c"})
	assert.Equal(t, []row{{ID: "a"}, {ID: "b"}, {ID: "c"}}, s.Items())
}

func TestConcurrentPatches(t *testing.T) {
	s := New[row](rowID, nil)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Prepend(row{ID: fmt.Sprintf("r%d", i)})
		}()
	}
	wg.Wait()
	require.Equal(t, 50, s.Len())

	for i := range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Delete(fmt.Sprintf("r%d", i)))
		}()
	}
	wg.Wait()
	assert.Equal(t, 25, s.Len())
}
