package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	d, err := NewLocal(t.TempDir(), "http://localhost:8081/uploads/")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "applications/a1/id.png", strings.NewReader("png-bytes"), "image/png"))

	ok, err := d.Exists(ctx, "applications/a1/id.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := d.Get(ctx, "applications/a1/id.png")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(body))

	assert.Equal(t, "http://localhost:8081/uploads/applications/a1/id.png", d.URL("/applications/a1/id.png"))

	require.NoError(t, d.Delete(ctx, "applications/a1/id.png"))
	require.NoError(t, d.Delete(ctx, "applications/a1/id.png"))
	_, err = d.Get(ctx, "applications/a1/id.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocal_PathStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := NewLocal(root, "")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "../../escape.txt", strings.NewReader("x"), ""))
	ok, err := d.Exists(ctx, "escape.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Error(t, d.Put(ctx, "", strings.NewReader("x"), ""))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "ftp"})
	assert.Error(t, err)
}
