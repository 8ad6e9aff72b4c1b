package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndLinkAppends(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "G", "group", "x", "y")
	e := NewEngine(d)

	z, err := e.InsertAndLink("source", "z.ext", noAttrs(), "G")
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y", "z.ext"}, children(t, d, "G"))
	assert.True(t, d.Contains("G", z.ID))
	got, err := d.Entry(z.ID)
	require.NoError(t, err)
	assert.Equal(t, "source", got.Kind)
}

func TestInsertAndLinkStrictIsIdempotent(t *testing.T) {
	d := NewDocument(WithStrict())
	containerOf(t, d, "G", "group")
	containerOf(t, d, "S", "phase")
	e := NewEngine(d)

	first, err := e.InsertAndLink("source", "z.ext", noAttrs(), "G")
	require.NoError(t, err)
	second, err := e.InsertAndLink("source", "z.ext", noAttrs(), "G", "S")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, d.FindEntries("source", "z.ext"), 1)
	assert.Equal(t, []string{"z.ext"}, children(t, d, "G"))
	assert.Equal(t, []string{"z.ext"}, children(t, d, "S"))
}

func TestInsertAndLinkUnknownContainerChangesNothing(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "G", "group")
	e := NewEngine(d)

	_, err := e.InsertAndLink("source", "z.ext", noAttrs(), "G", "missing")
	assert.True(t, errors.Is(err, ErrUnknownContainer))
	assert.Empty(t, d.Entries())
	assert.Empty(t, children(t, d, "G"))
}

func TestDeduplicate(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "S", "phase", "a", "b", "a", "c")
	e := NewEngine(d)

	removed, err := e.Deduplicate("S")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, children(t, d, "S"))
	require.Len(t, removed, 1)
	assert.Equal(t, "a", removed[0].Target)
	assert.Equal(t, 2, removed[0].Position)

	again, err := e.Deduplicate("S")
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, []string{"a", "b", "c"}, children(t, d, "S"))
}

func TestDeduplicateKeepsMembershipAndOrder(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "S", "phase", "c", "a", "c", "b", "a", "a", "d")
	e := NewEngine(d)

	before := map[string]bool{}
	for _, id := range []string{"a", "b", "c", "d"} {
		before[id] = d.Contains("S", id)
	}
	_, err := e.Deduplicate("S")
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a", "b", "d"}, children(t, d, "S"))
	for id, was := range before {
		assert.Equal(t, was, d.Contains("S", id), id)
	}
}

func TestDeduplicateUnknownContainer(t *testing.T) {
	_, err := NewEngine(NewDocument()).Deduplicate("nope")
	assert.True(t, errors.Is(err, ErrUnknownContainer))
}

func TestReassignMovesEntry(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "A", "group", "e")
	containerOf(t, d, "B", "group")
	containerOf(t, d, "C", "group", "e")
	e := NewEngine(d)

	require.NoError(t, e.Reassign("e", []string{"A"}, []string{"B"}))
	assert.False(t, d.Contains("A", "e"))
	assert.True(t, d.Contains("B", "e"))
	assert.True(t, d.Contains("C", "e"), "unrelated membership is kept")
	assert.Equal(t, []string{"B", "C"}, d.Memberships("e"))
}

func TestReassignIntoExistingMembershipDoesNotDuplicate(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "A", "group", "e")
	containerOf(t, d, "B", "group", "e")
	e := NewEngine(d)

	require.NoError(t, e.Reassign("e", []string{"A"}, []string{"B"}))
	assert.Equal(t, []string{"e"}, children(t, d, "B"))
}

func TestReassignValidatesFirst(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "A", "group", "e")
	e := NewEngine(d)

	err := e.Reassign("e", []string{"A"}, []string{"missing"})
	assert.True(t, errors.Is(err, ErrUnknownContainer))
	assert.True(t, d.Contains("A", "e"))

	err = e.Reassign("ghost", []string{"A"}, nil)
	assert.True(t, errors.Is(err, ErrUnknownEntry))
}

func TestAtomicRollsBack(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "G", "group", "x")
	e := NewEngine(d)

	var inserted string
	err := e.Atomic(func() error {
		z, err := e.InsertAndLink("source", "z", noAttrs(), "G")
		if err != nil {
			return err
		}
		inserted = z.ID
		_, err = e.InsertAndLink("source", "w", noAttrs(), "missing")
		return err
	})
	assert.True(t, errors.Is(err, ErrUnknownContainer))
	assert.False(t, d.HasEntry(inserted))
	assert.Equal(t, []string{"x"}, children(t, d, "G"))

	next, err := d.NextID()
	require.NoError(t, err)
	assert.NotEqual(t, inserted, next)
}
