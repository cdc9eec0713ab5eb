package ident

import (
	"crypto/rand"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGen は公開用 ID（ULID）を払い出す
type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func ULID() IDGen { return ulidGen{} }

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsULID: パスパラメータが ULID 形式か（数値 ID と区別する）
func IsULID(s string) bool {
	if len(s) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// ObjectKey: アップロードファイルの保存キー（dir/uuid.ext）
func ObjectKey(dir, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(dir, uuid.NewString()+ext)
}
