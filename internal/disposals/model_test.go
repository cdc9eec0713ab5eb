package disposals

import (
	"testing"

	"github.com/stretchr/testify/require"

	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/apierr"
)

func TestPlan(t *testing.T) {
	inv := &inventory.Inventory{InventoryID: 1, BookID: 7, Quantity: 3, Status: inventory.StatusAvailable}

	next, err := plan(inv, 2)
	require.NoError(t, err)
	require.Equal(t, 1, next.Quantity)
	require.Equal(t, inventory.StatusAvailable, next.Status)
	require.Equal(t, 3, inv.Quantity, "input untouched")

	next, err = plan(inv, 3)
	require.NoError(t, err)
	require.Equal(t, 0, next.Quantity)
	require.Equal(t, inventory.StatusRetired, next.Status)

	_, err = plan(inv, 4)
	require.True(t, apierr.Is(err, apierr.CodeConflict))
	_, err = plan(inv, 0)
	require.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
	_, err = plan(nil, 1)
	require.True(t, apierr.Is(err, apierr.CodeNotFound))
}
