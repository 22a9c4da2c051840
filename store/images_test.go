package store

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aouyang1/popbadge/util"
)

func newTestImageStore(t *testing.T) *ImageStore {
	t.Helper()
	s, err := OpenImageStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestPut_EverySlotExistsAfterUpload(t *testing.T) {
	s := newTestImageStore(t)

	for slot := 0; slot < util.MaxImages; slot++ {
		payload := []byte{0x89, 'P', 'N', 'G', byte(slot)}
		a, err := s.Put(slot, bytes.NewReader(payload))
		require.NoError(t, err)
		assert.Equal(t, slot, a.Slot)
		assert.Equal(t, int64(len(payload)), a.Size)
		assert.Len(t, a.Checksum, 16)

		assert.True(t, s.Exists(slot))
		got, err := s.Load(slot)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	}
}

func TestPut_OverwritesPriorContent(t *testing.T) {
	s := newTestImageStore(t)

	_, err := s.Put(2, strings.NewReader("first upload with more bytes"))
	require.NoError(t, err)
	_, err = s.Put(2, strings.NewReader("second"))
	require.NoError(t, err)

	got, err := s.Load(2)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestPut_IdenticalBytesGiveIdenticalChecksum(t *testing.T) {
	s := newTestImageStore(t)

	a, err := s.Put(1, strings.NewReader("same"))
	require.NoError(t, err)
	b, err := s.Put(1, strings.NewReader("same"))
	require.NoError(t, err)
	assert.Equal(t, a.Checksum, b.Checksum)
}

func TestPut_AbortedStreamLeavesNoArtifact(t *testing.T) {
	s := newTestImageStore(t)

	r := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(errors.New("connection reset")))
	_, err := s.Put(3, r)
	require.Error(t, err)

	assert.False(t, s.Exists(3))

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file should be cleaned up")
}

func TestPut_AbortedStreamKeepsPreviousArtifact(t *testing.T) {
	s := newTestImageStore(t)

	_, err := s.Put(0, strings.NewReader("good"))
	require.NoError(t, err)

	r := io.MultiReader(strings.NewReader("bad"), iotest.ErrReader(errors.New("timeout")))
	_, err = s.Put(0, r)
	require.Error(t, err)

	got, err := s.Load(0)
	require.NoError(t, err)
	assert.Equal(t, "good", string(got))
}

func TestPut_RejectsSlotOutOfRange(t *testing.T) {
	s := newTestImageStore(t)

	for _, slot := range []int{-1, util.MaxImages, 99} {
		_, err := s.Put(slot, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidSlot)
	}
}

func TestDelete(t *testing.T) {
	s := newTestImageStore(t)

	_, err := s.Put(4, strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(4))
	assert.False(t, s.Exists(4))
	assert.ErrorIs(t, s.Delete(4), ErrNotFound)
}

func TestSlots(t *testing.T) {
	s := newTestImageStore(t)

	for _, slot := range []int{0, 3} {
		_, err := s.Put(slot, strings.NewReader("x"))
		require.NoError(t, err)
	}

	got := s.Slots().ToSlice()
	want := []int{0, 3}
	if !s.Slots().Equal(mapset.NewSet(want...)) {
		t.Error(cmp.Diff(want, got))
	}
}

func TestLoadDefault(t *testing.T) {
	s := newTestImageStore(t)

	_, ok := s.LoadDefault()
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(s.DefaultPath(), []byte("qr"), 0o644))
	data, ok := s.LoadDefault()
	assert.True(t, ok)
	assert.Equal(t, "qr", string(data))
}

func TestOpenImageStore_ClearsAbortedUploads(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, ".upload-1234.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("half"), 0o644))

	_, err := OpenImageStore(root)
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenImageStore_UnwritableRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, nil, 0o644))

	_, err := OpenImageStore(filepath.Join(root, "nested"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
