package diskstore

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/roster/core/media"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	store, err := New(filepath.Join(t.TempDir(), "upload", "images"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "image_1_abcd.png", strings.NewReader("png-bytes"), 9, "image/png"))

	// names are never reused
	assert.Error(t, store.Save(ctx, "image_1_abcd.png", strings.NewReader("other"), 5, "image/png"))

	rc, err := store.Open(ctx, "image_1_abcd.png")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(b))

	_, err = store.Open(ctx, "../../etc/passwd")
	assert.Equal(t, media.ErrNotFound, err)

	require.NoError(t, store.Delete(ctx, "image_1_abcd.png"))
	_, err = store.Open(ctx, "image_1_abcd.png")
	assert.Equal(t, media.ErrNotFound, err)
	assert.Equal(t, media.ErrNotFound, store.Delete(ctx, "image_1_abcd.png"))
}

func TestStore_withGatekeeper(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	gk := media.NewGatekeeper(store, media.DefaultMaxSize)

	stored, err := gk.Accept(ctx, media.Upload{
		Field:       "profileImage",
		Filename:    "me.jpg",
		ContentType: "image/jpeg",
		Size:        4,
		Body:        strings.NewReader("jpeg"),
	})
	require.NoError(t, err)

	rc, err := store.Open(ctx, stored.Name)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(b))
}
