package ident

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULID_NewIsParseable(t *testing.T) {
	id, err := ULID().New()
	require.NoError(t, err)
	assert.True(t, IsULID(id))
	assert.False(t, IsULID("12345"))
	assert.False(t, IsULID(strings.Repeat("!", 26)))
}

func TestObjectKey(t *testing.T) {
	k := ObjectKey("covers", "Portada.JPG")
	assert.True(t, strings.HasPrefix(k, "covers/"))
	assert.True(t, strings.HasSuffix(k, ".jpg"))
	assert.NotEqual(t, k, ObjectKey("covers", "Portada.JPG"))
}
