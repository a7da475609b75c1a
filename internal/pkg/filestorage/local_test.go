package filestorage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_StoreAndDelete(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "http://example.test/uploads/", zerolog.Nop())
	require.NoError(t, err)

	ref, err := ls.Store(context.Background(), strings.NewReader("jpeg bytes"), "Holiday.JPG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	data, err := os.ReadFile(filepath.Join(dir, ref))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	assert.Equal(t, "http://example.test/uploads/"+ref, ls.URL(ref))

	require.NoError(t, ls.Delete(context.Background(), ref))
	_, err = os.Stat(filepath.Join(dir, ref))
	assert.True(t, os.IsNotExist(err))

	// idempotent
	assert.NoError(t, ls.Delete(context.Background(), ref))
}

func TestLocalStorage_RejectsEscapingRefs(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)

	for _, ref := range []string{"", "../etc/passwd", "a/b.jpg", ".."} {
		assert.Error(t, ls.Delete(context.Background(), ref), ref)
	}
}

func TestLocalStorage_DefaultURL(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "/uploads/x.png", ls.URL("x.png"))
	assert.Empty(t, ls.URL(""))
}
