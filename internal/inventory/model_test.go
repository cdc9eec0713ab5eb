package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"BIBLIO-backend/internal/platform/apierr"
)

func TestAdjusted(t *testing.T) {
	n, err := Adjusted(2, -2)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = Adjusted(2, 3)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	// 在庫を超える減算は 422 で、値は変えない
	n, err = Adjusted(2, -5)
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))
	require.Equal(t, 2, n)
}
