package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bashkirian/repair-order-pipeline/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestReadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.xml", "<b/>")
	writeFile(t, dir, "a.xml", "<a/>")
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, "upper.XML", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.xml"), 0o755))

	docs, err := ReadDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []Document{
		{Name: "a.xml", Content: "<a/>"},
		{Name: "b.xml", Content: "<b/>"},
	}, docs)
}

func TestReadDir_NotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadDir(context.Background(), filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = ReadDir(context.Background(), dir)
	assert.ErrorIs(t, err, models.ErrNotFound, "empty directory")

	writeFile(t, dir, "orders.json", "{}")
	_, err = ReadDir(context.Background(), dir)
	assert.ErrorIs(t, err, models.ErrNotFound, "no xml files")

	_, err = ReadDir(context.Background(), filepath.Join(dir, "orders.json"))
	assert.ErrorIs(t, err, models.ErrNotFound, "not a directory")
}

func TestReadDir_Canceled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.xml", "<a/>")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadDir(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
