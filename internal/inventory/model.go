package inventory

import (
	"time"

	"BIBLIO-backend/internal/platform/apierr"
)

type Condition string

const (
	ConditionNew  Condition = "nuevo"
	ConditionUsed Condition = "usado"
	ConditionWorn Condition = "deteriorado"
)

func (c Condition) Valid() bool {
	return c == ConditionNew || c == ConditionUsed || c == ConditionWorn
}

type Status string

const (
	StatusAvailable Status = "disponible"
	StatusRepair    Status = "en_reparacion"
	StatusRetired   Status = "baja"
)

func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusRepair || s == StatusRetired
}

// Inventory は inventories テーブルの1行（書籍と 1:1）
type Inventory struct {
	InventoryID uint64
	BookID      uint64
	Quantity    int
	Condition   Condition
	Status      Status
	Location    string
	UpdatedAt   time.Time
}

// QuantityOf: 在庫行が無い書籍は 0 冊扱い
func QuantityOf(inv *Inventory) int {
	if inv == nil {
		return 0
	}
	return inv.Quantity
}

type Filter struct {
	Condition *Condition
	Status    *Status
	Location  *string
	LowStock  bool
}

// Adjusted: quantity + delta を返す。0 未満になるなら 422
func Adjusted(quantity, delta int) (int, error) {
	n := quantity + delta
	if n < 0 {
		return quantity, apierr.ErrUnprocessable("quantity cannot go below zero")
	}
	return n, nil
}
