package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalog_RecordAndGet(t *testing.T) {
	c := setupTestCatalog(t)

	uploaded := time.UnixMilli(1_700_000_000_000)
	want := Artifact{Slot: 2, Size: 1024, Checksum: "00000000deadbeef", UploadedAt: uploaded}
	require.NoError(t, c.Record(want))

	got, err := c.Get(2)
	require.NoError(t, err)
	assert.Equal(t, want.Size, got.Size)
	assert.Equal(t, want.Checksum, got.Checksum)
	assert.True(t, want.UploadedAt.Equal(got.UploadedAt))
}

func TestCatalog_RecordReplacesExistingRow(t *testing.T) {
	c := setupTestCatalog(t)

	require.NoError(t, c.Record(Artifact{Slot: 1, Size: 1, Checksum: "a", UploadedAt: time.Now()}))
	require.NoError(t, c.Record(Artifact{Slot: 1, Size: 2, Checksum: "b", UploadedAt: time.Now()}))

	all, err := c.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Checksum)
}

func TestCatalog_ListOrderedBySlot(t *testing.T) {
	c := setupTestCatalog(t)

	for _, slot := range []int{4, 0, 2} {
		require.NoError(t, c.Record(Artifact{Slot: slot, Checksum: "x", UploadedAt: time.Now()}))
	}

	all, err := c.List()
	require.NoError(t, err)

	var got []int
	for _, a := range all {
		got = append(got, a.Slot)
	}
	want := []int{0, 2, 4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Error(diff)
	}
}

func TestCatalog_RemoveAndMissing(t *testing.T) {
	c := setupTestCatalog(t)

	require.NoError(t, c.Record(Artifact{Slot: 3, Checksum: "x", UploadedAt: time.Now()}))
	require.NoError(t, c.Remove(3))

	_, err := c.Get(3)
	assert.ErrorIs(t, err, ErrNotFound)

	// removing an absent row is not an error
	assert.NoError(t, c.Remove(3))
}

func TestCatalog_RecordWrapsDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := &Catalog{db: sqlx.NewDb(db, "sqlmock")}

	driverErr := errors.New("database is locked")
	mock.ExpectExec("INSERT INTO slots").WillReturnError(driverErr)

	err = c.Record(Artifact{Slot: 1, Size: 10, Checksum: "abc", UploadedAt: time.Now()})
	assert.ErrorIs(t, err, driverErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalog_ListWrapsDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := &Catalog{db: sqlx.NewDb(db, "sqlmock")}

	mock.ExpectQuery("SELECT slot, size, checksum, uploaded_at FROM slots").
		WillReturnError(errors.New("disk I/O error"))

	_, err = c.List()
	assert.ErrorContains(t, err, "failed to list slots")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalog_ConcurrentWriters(t *testing.T) {
	c := setupTestCatalog(t)

	var wg sync.WaitGroup
	errs := make(chan error, 5*41)
	for slot := 0; slot < 5; slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				errs <- c.Record(Artifact{Slot: slot, Size: int64(i), Checksum: "x", UploadedAt: time.Now()})
				errs <- c.Remove(slot)
			}
			errs <- c.Record(Artifact{Slot: slot, Size: 99, Checksum: "final", UploadedAt: time.Now()})
		}(slot)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	all, err := c.List()
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, a := range all {
		assert.Equal(t, "final", a.Checksum)
	}
}

func TestOpenCatalog_ReplacesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "catalog.db")
	require.NoError(t, os.WriteFile(dbPath, []byte(strings.Repeat("cut off mid write ", 256)), 0o644))

	_, err := NewCatalog(dbPath)
	require.Error(t, err)

	c, err := OpenCatalog(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	require.NoError(t, c.Record(Artifact{Slot: 0, Checksum: "x", UploadedAt: time.Now()}))
	all, err := c.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var aside int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "catalog.db.corrupt-") {
			aside++
		}
	}
	assert.Equal(t, 1, aside)
}

func TestOpenCatalog_FreshPath(t *testing.T) {
	c, err := OpenCatalog(filepath.Join(t.TempDir(), "nested", "catalog.db"))
	require.NoError(t, err)
	defer c.Close()

	all, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}
