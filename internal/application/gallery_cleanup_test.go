package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	deleted []string
	err     error
}

func (f *fakeObjects) DeleteImages(_ context.Context, urls []string) error {
	f.deleted = append(f.deleted, urls...)
	return f.err
}

func TestCleanupProvider_DeletesObjectsOfRemovedImages(t *testing.T) {
	p := newFakeProvider(A, B, C)
	objects := &fakeObjects{}
	cp := NewCleanupProvider(p, objects)

	require.NoError(t, cp.RemoveByIDs(context.Background(), []int{A, C, 99}))
	assert.Equal(t, []string{imageURL(A), imageURL(C)}, objects.deleted)
	assert.Equal(t, []int{B}, imageIDs(p.images))
}

func TestCleanupProvider_RemoveFailureKeepsObjects(t *testing.T) {
	p := newFakeProvider(A)
	p.fail(errStoreDown)
	objects := &fakeObjects{}
	cp := NewCleanupProvider(p, objects)

	assert.ErrorIs(t, cp.RemoveByIDs(context.Background(), []int{A}), errStoreDown)
	assert.Empty(t, objects.deleted)
}

func TestCleanupProvider_ObjectFailureIsNotFatal(t *testing.T) {
	p := newFakeProvider(A, B)
	cp := NewCleanupProvider(p, &fakeObjects{err: errors.New("access denied")})

	assert.NoError(t, cp.RemoveByIDs(context.Background(), []int{A}))
	assert.Equal(t, []int{B}, imageIDs(p.images))
}

func TestCleanupProvider_WorksAsControllerProvider(t *testing.T) {
	p := newFakeProvider(A, B)
	objects := &fakeObjects{}
	g, err := NewGalleryController(context.Background(), NewCleanupProvider(p, objects), nil)
	require.NoError(t, err)

	g.ToggleSelection(B)
	_, err = g.DeleteSelected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{imageURL(B)}, objects.deleted)
}
