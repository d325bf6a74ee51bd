package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type posA struct{ X, Y int }
type tagB struct{ Label string }

func newTestWorld() (*World, Component[posA], Component[tagB]) {
	r := NewRegistry()
	a := Register[posA](r, "A")
	b := Register[tagB](r, "B")
	return NewWorld(r), a, b
}

func TestQueryExampleScenario(t *testing.T) {
	w, a, b := newTestWorld()

	e1 := w.Create()
	require.NoError(t, Add(w, e1, a, &posA{}))
	e2 := w.Create()
	require.NoError(t, Add(w, e2, a, &posA{}))
	require.NoError(t, Add(w, e2, b, &tagB{}))

	assert.Equal(t, []EntityID{e1, e2}, w.Query(a.ID()))
	assert.Equal(t, []EntityID{e2}, w.Query(b.ID()))
	assert.Equal(t, []EntityID{e2}, w.Query(a.ID(), b.ID()))

	require.NoError(t, w.Destroy(e1))
	assert.Equal(t, []EntityID{e2}, w.Query(a.ID()))
}

func TestQueryMatchesConjunctionAfterMutation(t *testing.T) {
	w, a, b := newTestWorld()

	var both []EntityID
	for i := 0; i < 20; i++ {
		e := w.Create()
		require.NoError(t, Add(w, e, a, &posA{X: i}))
		if i%3 == 0 {
			require.NoError(t, Add(w, e, b, &tagB{}))
			both = append(both, e)
		}
	}
	assert.Equal(t, both, w.Query(a.ID(), b.ID()))
	assert.Equal(t, both, w.Query(b.ID(), a.ID()))

	require.True(t, Remove(w, both[1], b))
	assert.Equal(t, append([]EntityID{both[0]}, both[2:]...), w.Query(a.ID(), b.ID()))
}

func TestQuerySnapshotSurvivesDestroyDuringIteration(t *testing.T) {
	w, a, _ := newTestWorld()

	ids := make([]EntityID, 5)
	for i := range ids {
		ids[i] = w.Create()
		require.NoError(t, Add(w, ids[i], a, &posA{X: i}))
	}

	var visited, alive []EntityID
	for _, e := range w.Query(a.ID()) {
		visited = append(visited, e)
		if w.Alive(e) {
			alive = append(alive, e)
		}
		if e == ids[0] {
			require.NoError(t, w.Destroy(ids[1]))
			require.NoError(t, w.Destroy(ids[3]))
		}
		// creating entities mid-loop must not extend the snapshot
		n := w.Create()
		require.NoError(t, Add(w, n, a, &posA{}))
	}
	assert.Equal(t, ids, visited, "snapshot keeps its membership")
	assert.Equal(t, []EntityID{ids[0], ids[2], ids[4]}, alive)

	var live []EntityID
	for _, e := range w.Query(a.ID())[:3] {
		live = append(live, e)
	}
	assert.Equal(t, []EntityID{ids[0], ids[2], ids[4]}, live)
}

func TestQueryIsIdempotent(t *testing.T) {
	w, a, b := newTestWorld()
	for i := 0; i < 8; i++ {
		e := w.Create()
		require.NoError(t, Add(w, e, b, &tagB{}))
		if i%2 == 0 {
			require.NoError(t, Add(w, e, a, &posA{}))
		}
	}
	first := w.Query(a.ID(), b.ID())
	second := w.Query(a.ID(), b.ID())
	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
}

func TestQueryEdgeCases(t *testing.T) {
	w, a, b := newTestWorld()
	assert.Empty(t, w.Query())
	assert.Empty(t, w.Query(a.ID()))

	e := w.Create()
	require.NoError(t, Add(w, e, a, &posA{}))
	assert.Empty(t, w.Query(a.ID(), b.ID()), "b has no store yet")
}

func TestReplaceKeepsInsertionOrder(t *testing.T) {
	w, a, _ := newTestWorld()
	e1, e2, e3 := w.Create(), w.Create(), w.Create()
	for _, e := range []EntityID{e1, e2, e3} {
		require.NoError(t, Add(w, e, a, &posA{}))
	}
	require.NoError(t, Add(w, e1, a, &posA{X: 9}))

	assert.Equal(t, []EntityID{e1, e2, e3}, w.Query(a.ID()))
	got, ok := Get(w, e1, a)
	require.True(t, ok)
	assert.Equal(t, 9, got.X)
}

func TestDestroyThenRequire(t *testing.T) {
	w, a, b := newTestWorld()
	e := w.Create()
	require.NoError(t, Add(w, e, a, &posA{}))

	_, err := Require(w, e, b)
	var missing *MissingComponentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "B", missing.Component)
	assert.Equal(t, e, missing.Entity)
	assert.True(t, errors.Is(err, ErrMissingComponent))

	require.NoError(t, w.Destroy(e))
	_, err = Require(w, e, a)
	assert.ErrorIs(t, err, ErrInvalidEntity)

	assert.ErrorIs(t, Add(w, e, a, &posA{}), ErrInvalidEntity)
	assert.ErrorIs(t, w.Destroy(e), ErrInvalidEntity)
	assert.False(t, Has(w, e, a))
	_, ok := Get(w, e, a)
	assert.False(t, ok)
}

func TestRecycledSlotDoesNotAliasStaleID(t *testing.T) {
	w, a, _ := newTestWorld()
	old := w.Create()
	require.NoError(t, Add(w, old, a, &posA{X: 1}))
	require.NoError(t, w.Destroy(old))

	fresh := w.Create()
	assert.Equal(t, old.Index(), fresh.Index(), "slot is reused")
	assert.NotEqual(t, old, fresh)
	require.NoError(t, Add(w, fresh, a, &posA{X: 2}))

	assert.False(t, w.Alive(old))
	_, ok := Get(w, old, a)
	assert.False(t, ok)
	assert.ErrorIs(t, Add(w, old, a, &posA{}), ErrInvalidEntity)
}

func TestZeroEntityIsNeverAlive(t *testing.T) {
	w, _, _ := newTestWorld()
	e := w.Create()
	assert.False(t, e.IsZero())
	assert.False(t, w.Alive(0))
}

func TestDeferredDestruction(t *testing.T) {
	w, a, _ := newTestWorld()
	e1, e2 := w.Create(), w.Create()
	require.NoError(t, Add(w, e1, a, &posA{}))
	require.NoError(t, Add(w, e2, a, &posA{}))

	w.MarkForDestruction(e1)
	w.MarkForDestruction(e1)
	assert.True(t, w.Alive(e1), "destroy is deferred")

	assert.Equal(t, 1, w.FlushDestroyQueue())
	assert.False(t, w.Alive(e1))
	assert.Equal(t, []EntityID{e2}, w.Query(a.ID()))
	assert.Equal(t, 1, w.Count())
}

func TestCopyEntityAcrossWorlds(t *testing.T) {
	r := NewRegistry()
	a := Register[posA](r, "A")
	b := Register[tagB](r, "B")
	src, dst := NewWorld(r), NewWorld(r)

	e := src.Create()
	require.NoError(t, Add(src, e, a, &posA{X: 3, Y: 4}))
	require.NoError(t, Add(src, e, b, &tagB{Label: "player"}))

	moved, err := CopyEntity(src, e, dst)
	require.NoError(t, err)
	got, err := Require(dst, moved, a)
	require.NoError(t, err)
	assert.Equal(t, posA{X: 3, Y: 4}, *got)

	got.X = 10
	orig, _ := Get(src, e, a)
	assert.Equal(t, 3, orig.X, "copy is independent")

	other := NewWorld(NewRegistry())
	_, err = CopyEntity(src, e, other)
	assert.ErrorIs(t, err, ErrForeignComponent)
}

func TestForeignHandleRejected(t *testing.T) {
	w, a, _ := newTestWorld()
	foreign := Register[posA](NewRegistry(), "A")
	e := w.Create()
	assert.ErrorIs(t, Add(w, e, foreign, &posA{}), ErrForeignComponent)
	_, ok := Get(w, e, foreign)
	assert.False(t, ok)

	// same ID as a, different registry
	require.NoError(t, Add(w, e, a, &posA{X: 1}))
	require.Equal(t, a.ID(), foreign.ID())
	assert.False(t, Has(w, e, foreign))
	assert.False(t, Remove(w, e, foreign))
	assert.True(t, Has(w, e, a), "foreign remove leaves the local component")
}

func TestEachHelpers(t *testing.T) {
	w, a, b := newTestWorld()
	e1, e2 := w.Create(), w.Create()
	require.NoError(t, Add(w, e1, a, &posA{X: 1}))
	require.NoError(t, Add(w, e2, a, &posA{X: 2}))
	require.NoError(t, Add(w, e2, b, &tagB{Label: "two"}))

	sum := 0
	Each(w, a, func(id EntityID, p *posA) {
		sum += p.X
		_ = w.Destroy(e2)
	})
	assert.Equal(t, 1, sum, "e2 destroyed before it was reached")

	e3 := w.Create()
	require.NoError(t, Add(w, e3, a, &posA{X: 5}))
	require.NoError(t, Add(w, e3, b, &tagB{Label: "three"}))
	var labels []string
	Each2(w, a, b, func(_ EntityID, _ *posA, tag *tagB) { labels = append(labels, tag.Label) })
	assert.Equal(t, []string{"three"}, labels)
}
