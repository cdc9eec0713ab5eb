package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"BIBLIO-backend/internal/platform/ident"
)

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Storage は画像ファイル（表紙・著者画像・在籍証明）の保存先
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// SaveImage: multipart の画像を検証して dir 配下に保存し、保存キーを返す
func SaveImage(ctx context.Context, st Storage, dir string, fh *multipart.FileHeader, maxBytes int64) (string, error) {
	if fh == nil {
		return "", ErrUnsupportedType
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	// 先頭 512 バイトで判定（拡張子は信用しない）
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	ct := http.DetectContentType(head[:n])
	ext, ok := allowedImageTypes[ct]
	if !ok {
		return "", ErrUnsupportedType
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	key := ident.ObjectKey(dir, "x"+ext)
	if err := st.Put(ctx, key, f, fh.Size, ct); err != nil {
		return "", err
	}
	return key, nil
}

// DeleteQuietly: 差し替え前ファイルの削除（失敗してもリクエストは成功扱い）
func DeleteQuietly(ctx context.Context, st Storage, key string) {
	if key == "" {
		return
	}
	if err := st.Delete(ctx, key); err != nil {
		logWarn("delete %s: %v", key, err)
	}
}

// ===== local disk =====

type Disk struct {
	root      string
	publicURL string
}

func NewDisk(root, publicURL string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	return &Disk{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (d *Disk) Root() string { return d.root }

func (d *Disk) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}

func (d *Disk) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	p, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(p)
		return err
	}
	return f.Close()
}

func (d *Disk) Delete(_ context.Context, key string) error {
	p, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (d *Disk) URL(key string) string {
	if key == "" {
		return ""
	}
	return d.publicURL + "/" + strings.TrimLeft(key, "/")
}

func logWarn(format string, args ...any) {
	log.Printf("[WARN] storage: "+format, args...)
}
