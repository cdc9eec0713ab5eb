package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// 1x1 PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func fileHeader(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File[field][0]
}

func TestDisk_SaveImageAndDelete(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "/storage/")
	require.NoError(t, err)
	ctx := context.Background()

	key, err := SaveImage(ctx, d, "covers", fileHeader(t, "cover", "a.txt", pngBytes), 1<<20)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(key, "covers/"))
	require.True(t, strings.HasSuffix(key, ".png"))
	require.Equal(t, "/storage/"+key, d.URL(key))

	_, err = os.Stat(filepath.Join(d.Root(), filepath.FromSlash(key)))
	require.NoError(t, err)

	require.NoError(t, d.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(d.Root(), filepath.FromSlash(key)))
	require.True(t, os.IsNotExist(err))

	// 2回目の削除はエラーにしない
	require.NoError(t, d.Delete(ctx, key))
}

func TestSaveImage_RejectsNonImage(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "/storage")
	require.NoError(t, err)

	_, err = SaveImage(context.Background(), d, "covers", fileHeader(t, "cover", "a.png", []byte("plain text")), 1<<20)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveImage_RejectsTooLarge(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "/storage")
	require.NoError(t, err)

	_, err = SaveImage(context.Background(), d, "covers", fileHeader(t, "cover", "a.png", pngBytes), 10)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestDisk_KeyCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	d, err := NewDisk(filepath.Join(root, "inner"), "/storage")
	require.NoError(t, err)

	require.NoError(t, d.Put(context.Background(), "../../evil.png", bytes.NewReader(pngBytes), 0, "image/png"))
	_, err = os.Stat(filepath.Join(root, "evil.png"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "inner", "evil.png"))
	require.NoError(t, err)
}
