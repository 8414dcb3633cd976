package understory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivide_CompleteAndDisjoint(t *testing.T) {
	unit := newTestUnit("a.go", 100,
		NewSpan(0, 10), NewSpan(10, 30), NewSpan(30, 50),
		NewSpan(50, 70), NewSpan(70, 100))

	inside, outside := divide(unit, NewSpan(0, 100), NewSpan(20, 40), nil)

	// Every element within the total range lands in exactly one partition.
	seen := make(map[*Element]int)
	for _, el := range inside {
		seen[el]++
	}
	for _, el := range outside {
		seen[el]++
	}
	var all []*Element
	unit.Root.Walk(func(el *Element) bool {
		all = append(all, el)
		return true
	})
	require.Len(t, seen, len(all))
	for el, n := range seen {
		assert.Equal(t, 1, n, "element %s partitioned %d times", el.Span, n)
	}

	// The root and the two leaves overlapping [20, 40) are priority.
	assert.Len(t, inside, 3)
	assert.Len(t, outside, 3)
}

func TestDivide_ExcludesOutsideTotal(t *testing.T) {
	unit := newTestUnit("a.go", 100, NewSpan(0, 10), NewSpan(40, 60), NewSpan(90, 100))

	inside, outside := divide(unit, NewSpan(30, 70), NewSpan(40, 45), nil)

	require.Len(t, inside, 1)
	assert.Equal(t, NewSpan(40, 60), inside[0].Span)
	// Only the root remains outside; leaves at [0,10) and [90,100) are
	// excluded entirely.
	require.Len(t, outside, 1)
	assert.Equal(t, "file", outside[0].Kind)
}

func TestDivide_EmptyPriorityActsAsCaret(t *testing.T) {
	unit := newTestUnit("a.go", 50, NewSpan(0, 25), NewSpan(25, 50))

	inside, outside := divide(unit, NewSpan(0, 50), Span{}, nil)

	// The empty priority span at offset 0 still touches elements covering it.
	for _, el := range inside {
		assert.True(t, el.Span.Contains(0) || el.Span.Start == 0)
	}
	assert.Len(t, inside, 2) // root and first leaf
	assert.Len(t, outside, 1)
}

func TestDivide_FilterExcludesUnit(t *testing.T) {
	unit := newTestUnit("skip.gen.go", 50, NewSpan(0, 50))

	inside, outside := divide(unit, NewSpan(0, 50), NewSpan(0, 50),
		func(u *SourceUnit) bool { return u.Name != "skip.gen.go" })

	assert.Empty(t, inside)
	assert.Empty(t, outside)
}

func TestDivide_PreservesDocumentOrder(t *testing.T) {
	unit := newTestUnit("a.go", 100,
		NewSpan(0, 20), NewSpan(20, 40), NewSpan(40, 60), NewSpan(60, 80))

	_, outside := divide(unit, NewSpan(0, 100), NewSpan(95, 100), nil)

	var starts []int
	for _, el := range outside {
		starts = append(starts, el.Span.Start)
	}
	assert.IsNonDecreasing(t, starts)
}
