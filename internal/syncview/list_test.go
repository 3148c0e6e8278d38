package syncview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudswin/nettube/internal/models"
)

func genre(id, name string) models.Genre {
	return models.Genre{ID: id, Name: name, Slug: name}
}

func keys(items []models.Genre) []string {
	out := make([]string, len(items))
	for i, g := range items {
		out[i] = g.ID
	}
	return out
}

func TestListLoad(t *testing.T) {
	l := NewList[models.Genre]()
	assert.False(t, l.Loaded())

	err := l.Load(context.Background(), func(context.Context) ([]models.Genre, error) {
		return []models.Genre{genre("a", "action"), genre("b", "drama")}, nil
	})
	require.NoError(t, err)
	assert.True(t, l.Loaded())
	assert.Equal(t, []string{"a", "b"}, keys(l.Snapshot()))
}

func TestListLoadFailureLeavesEmptyList(t *testing.T) {
	l := NewList[models.Genre]()
	boom := errors.New("upstream down")

	err := l.Load(context.Background(), func(context.Context) ([]models.Genre, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, l.Loaded())
	assert.ErrorIs(t, l.Err(), boom)
	assert.Equal(t, 0, l.Len())
}

func TestListAddAppendsInArrivalOrder(t *testing.T) {
	l := NewList[models.Genre]()
	l.Add(genre("a", "action"))
	l.Add(genre("b", "drama"))
	l.Add(genre("c", "comedy"))
	assert.Equal(t, []string{"a", "b", "c"}, keys(l.Snapshot()))
}

func TestListAddDuplicateKeySubstitutes(t *testing.T) {
	l := NewList[models.Genre]()
	l.Add(genre("a", "action"))
	l.Add(genre("b", "drama"))
	l.Add(genre("a", "adventure"))

	assert.Equal(t, []string{"a", "b"}, keys(l.Snapshot()))
	got, ok := l.Get("a")
	require.True(t, ok)
	assert.Equal(t, "adventure", got.Name)
}

func TestListReplaceKeepsPosition(t *testing.T) {
	l := NewList[models.Genre]()
	l.Add(genre("a", "action"))
	l.Add(genre("b", "drama"))
	l.Add(genre("c", "comedy"))

	l.Replace(genre("b", "docudrama"))

	assert.Equal(t, []string{"a", "b", "c"}, keys(l.Snapshot()))
	got, _ := l.Get("b")
	assert.Equal(t, "docudrama", got.Name)
}

func TestListReplaceAbsentKeyIsNoop(t *testing.T) {
	l := NewList[models.Genre]()
	l.Add(genre("a", "action"))

	l.Replace(genre("zz", "ghost"))

	assert.Equal(t, []string{"a"}, keys(l.Snapshot()))
	_, ok := l.Get("zz")
	assert.False(t, ok)
}

func TestListRemovePreservesOrder(t *testing.T) {
	l := NewList[models.Genre]()
	l.Add(genre("a", "action"))
	l.Add(genre("b", "drama"))
	l.Add(genre("c", "comedy"))

	l.Remove("b")
	assert.Equal(t, []string{"a", "c"}, keys(l.Snapshot()))

	// Removing a missing key changes nothing.
	l.Remove("zz")
	assert.Equal(t, []string{"a", "c"}, keys(l.Snapshot()))
}

func TestListSnapshotIsACopy(t *testing.T) {
	l := NewList[models.Genre]()
	l.Add(genre("a", "action"))

	snap := l.Snapshot()
	snap[0] = genre("mutated", "mutated")

	got, ok := l.Get("a")
	require.True(t, ok)
	assert.Equal(t, "action", got.Name)
}
