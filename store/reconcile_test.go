package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	images := newTestImageStore(t)
	catalog := setupTestCatalog(t)

	// slot 1 is on disk but never recorded
	_, err := images.Put(1, strings.NewReader("untracked"))
	require.NoError(t, err)

	// slot 2 is recorded but its file is gone
	require.NoError(t, catalog.Record(Artifact{Slot: 2, Size: 3, Checksum: "gone", UploadedAt: time.Now()}))

	// slot 4 is consistent
	a, err := images.Put(4, strings.NewReader("tracked"))
	require.NoError(t, err)
	require.NoError(t, catalog.Record(*a))

	require.NoError(t, Reconcile(images, catalog))

	all, err := catalog.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Slot)
	assert.Equal(t, int64(len("untracked")), all[0].Size)
	assert.Equal(t, 4, all[1].Slot)
	assert.Equal(t, a.Checksum, all[1].Checksum)

	_, err = catalog.Get(2)
	assert.ErrorIs(t, err, ErrNotFound)
}
