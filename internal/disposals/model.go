package disposals

import (
	"database/sql"
	"time"

	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/apierr"
)

// Disposal は除籍1件
type Disposal struct {
	DisposalID   uint64
	DisposalULID string
	BookID       uint64
	Quantity     int
	Reason       sql.NullString
	ProcessedBy  sql.NullString
	DisposedAt   time.Time

	BookTitle string
}

type Filter struct {
	BookID *uint64
	From   *time.Time
	To     *time.Time
}

// plan: 在庫から quantity 冊を外した後の在庫。0 冊になったら status=baja
func plan(inv *inventory.Inventory, quantity int) (inventory.Inventory, error) {
	if inv == nil {
		return inventory.Inventory{}, apierr.ErrNotFound("inventory not found")
	}
	if quantity <= 0 {
		return *inv, apierr.ErrInvalid("quantity must be > 0")
	}
	if inv.Quantity < quantity {
		return *inv, apierr.ErrConflict("insufficient stock")
	}
	next := *inv
	next.Quantity -= quantity
	if next.Quantity == 0 {
		next.Status = inventory.StatusRetired
	}
	return next, nil
}
