package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justsurfingit/internship-tracker/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestDBStoreRoundTrip(t *testing.T) {
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	store := NewDBStore(db)
	ctx := context.Background()

	saved, err := store.Save(ctx, "cv.pdf", "application/pdf", "student-1", strings.NewReader("%PDF-1.4 resume"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, int64(15), saved.Size)

	meta, rc, err := store.Open(ctx, saved.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 resume", string(body))
	assert.Equal(t, "application/pdf", meta.ContentType)
	assert.Equal(t, "student-1", meta.UploadedBy)
	assert.Equal(t, "cv.pdf", meta.Filename)

	require.NoError(t, store.Delete(ctx, saved.ID))
	_, _, err = store.Open(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, store.Delete(ctx, saved.ID), ErrFileNotFound)
}

func TestDBStoreDefaultsContentType(t *testing.T) {
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	saved, err := NewDBStore(db).Save(context.Background(), "cv", "", "s", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", saved.ContentType)
}

func TestLegacyName(t *testing.T) {
	assert.Equal(t, "abc.pdf", LegacyName("abc.pdf", ""))
	assert.Equal(t, "171-cv.pdf", LegacyName("", "http://localhost:5000/uploads/resumes/171-cv.pdf"))
	assert.Equal(t, "passwd", LegacyName("../../etc/passwd", ""))
	assert.Equal(t, "", LegacyName("", ""))
}

func TestLegacyDirOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.pdf"), []byte("old resume"), 0o644))
	legacy := LegacyDir{Root: dir}

	meta, rc, err := legacy.Open("old.pdf")
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "old resume", string(body))
	assert.Equal(t, "application/pdf", meta.ContentType)

	_, _, err = legacy.Open("missing.pdf")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, _, err = LegacyDir{}.Open("old.pdf")
	assert.ErrorIs(t, err, ErrFileNotFound)
}
