package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileOnlyInOneTarget(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "T1", "phase", "f")
	containerOf(t, d, "T2", "phase", "f")
	containerOf(t, d, "T3", "phase", "f")
	r := NewReconciler(NewEngine(d))

	actions, err := r.Apply(Exclusive([]string{"f"}, []string{"T1"}, d.ContainerIDs("phase")))
	require.NoError(t, err)
	assert.Equal(t, []Action{
		{Op: OpUnlink, Entry: "f", Container: "T2"},
		{Op: OpUnlink, Entry: "f", Container: "T3"},
	}, actions)
	assert.True(t, d.Contains("T1", "f"))
	assert.False(t, d.Contains("T2", "f"))
	assert.False(t, d.Contains("T3", "f"))
}

func TestReconcileIsIdempotent(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "G1", "group", "a", "b", "a")
	containerOf(t, d, "G2", "group", "b")
	containerOf(t, d, "G3", "group", "c")
	r := NewReconciler(NewEngine(d))
	placements := []Placement{
		{Entries: []string{"a", "b"}, Include: []string{"G1", "G3"}, Exclude: []string{"G2"}},
		{Entries: []string{"c"}, Include: []string{"G2"}},
	}

	_, err := r.Apply(placements...)
	require.NoError(t, err)
	once := map[string][]string{}
	for _, id := range d.ContainerIDs() {
		once[id] = children(t, d, id)
	}

	actions, err := r.Apply(placements...)
	require.NoError(t, err)
	assert.Empty(t, actions)
	for _, id := range d.ContainerIDs() {
		assert.Equal(t, once[id], children(t, d, id), id)
	}
	assert.Equal(t, []string{"a", "b"}, once["G1"])
	assert.Equal(t, []string{"c"}, once["G2"])
	assert.Equal(t, []string{"c", "a", "b"}, once["G3"])
}

func TestReconcileLeavesUnrelatedMemberships(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "A", "group", "x", "y")
	containerOf(t, d, "B", "group", "y")
	r := NewReconciler(NewEngine(d))

	_, err := r.Apply(Placement{Entries: []string{"x"}, Include: []string{"B"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, children(t, d, "A"))
	assert.Equal(t, []string{"y", "x"}, children(t, d, "B"))
}

func TestReconcileCollapsesDuplicatesInIncluded(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "S", "phase", "a", "b", "a")
	r := NewReconciler(NewEngine(d))

	actions, err := r.Diff(Placement{Entries: []string{"a"}, Include: []string{"S"}})
	require.NoError(t, err)
	assert.Equal(t, []Action{{Op: OpCollapse, Entry: "a", Container: "S"}}, actions)

	_, err = r.Apply(Placement{Entries: []string{"a"}, Include: []string{"S"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, children(t, d, "S"))
}

func TestReconcileErrors(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "A", "group", "x")
	r := NewReconciler(NewEngine(d))

	_, err := r.Apply(Placement{Entries: []string{"ghost"}, Include: []string{"A"}})
	assert.True(t, errors.Is(err, ErrUnknownEntry))

	_, err = r.Apply(Placement{Entries: []string{"x"}, Include: []string{"nope"}})
	assert.True(t, errors.Is(err, ErrUnknownContainer))

	_, err = r.Apply(Placement{Entries: []string{"x"}, Include: []string{"A"}, Exclude: []string{"A"}})
	assert.True(t, errors.Is(err, ErrConflictingPlacement))
	assert.True(t, d.Contains("A", "x"))
}

func TestReconcileNeverDangles(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "A", "group", "x", "y", "x")
	containerOf(t, d, "B", "group", "y")
	e := NewEngine(d)
	r := NewReconciler(e)

	_, err := e.InsertAndLink("source", "z", noAttrs(), "A", "B")
	require.NoError(t, err)
	_, err = e.Deduplicate("A")
	require.NoError(t, err)
	require.NoError(t, e.Reassign("y", []string{"B"}, []string{"A"}))
	_, err = r.Apply(Placement{Entries: []string{"x"}, Include: []string{"B"}, Exclude: []string{"A"}})
	require.NoError(t, err)

	assert.NoError(t, d.Validate())
}

func TestExclusive(t *testing.T) {
	p := Exclusive([]string{"f"}, []string{"T1"}, []string{"T1", "T2", "T3"})
	assert.Equal(t, []string{"T1"}, p.Include)
	assert.Equal(t, []string{"T2", "T3"}, p.Exclude)
}

func TestReconcileConflictAcrossPlacements(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "C", "group")
	register(t, d, "e")
	r := NewReconciler(NewEngine(d))

	for i := 0; i < 2; i++ {
		_, err := r.Apply(
			Placement{Entries: []string{"e"}, Include: []string{"C"}},
			Placement{Entries: []string{"e"}, Exclude: []string{"C"}},
		)
		assert.True(t, errors.Is(err, ErrConflictingPlacement))
		assert.False(t, d.Contains("C", "e"))
	}
}

func TestReconcileOverlappingPlacementsSettle(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "G1", "group")
	containerOf(t, d, "G2", "group")
	containerOf(t, d, "G3", "group", "a")
	r := NewReconciler(NewEngine(d))
	placements := []Placement{
		{Entries: []string{"a"}, Include: []string{"G1"}},
		{Entries: []string{"a"}, Include: []string{"G2", "G1"}, Exclude: []string{"G3"}},
	}

	actions, err := r.Apply(placements...)
	require.NoError(t, err)
	assert.Equal(t, []Action{
		{Op: OpLink, Entry: "a", Container: "G1"},
		{Op: OpLink, Entry: "a", Container: "G2"},
		{Op: OpUnlink, Entry: "a", Container: "G3"},
	}, actions)

	actions, err = r.Apply(placements...)
	require.NoError(t, err)
	assert.Empty(t, actions)
	assert.Equal(t, []string{"G1", "G2"}, d.Memberships("a"))
}

func TestApplyActionsRollsBack(t *testing.T) {
	d := NewDocument()
	containerOf(t, d, "A", "group", "x", "y")
	containerOf(t, d, "B", "group")
	r := NewReconciler(NewEngine(d))

	err := r.ApplyActions([]Action{
		{Op: OpUnlink, Entry: "x", Container: "A"},
		{Op: OpLink, Entry: "y", Container: "B"},
		{Op: OpLink, Entry: "ghost", Container: "B"},
	})
	assert.True(t, errors.Is(err, ErrUnknownEntry))
	assert.Equal(t, []string{"x", "y"}, children(t, d, "A"))
	assert.Empty(t, children(t, d, "B"))
	assert.NoError(t, d.Validate())
}
