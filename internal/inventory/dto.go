package inventory

import "time"

// Input: 書籍登録時のネスト入力と PUT /books/:book_id/inventory で共用
type Input struct {
	Quantity  *int    `json:"quantity,omitempty" binding:"omitempty,min=0"`
	Condition *string `json:"condition,omitempty" binding:"omitempty,oneof=nuevo usado deteriorado"`
	Status    *string `json:"status,omitempty" binding:"omitempty,oneof=disponible en_reparacion baja"`
	Location  *string `json:"location,omitempty" binding:"omitempty,max=255"`
}

type AdjustRequest struct {
	Delta  int     `json:"delta" binding:"required"`
	Reason *string `json:"reason,omitempty"`
}

type Response struct {
	InventoryID uint64    `json:"inventory_id"`
	BookID      uint64    `json:"book_id"`
	BookTitle   string    `json:"book_title,omitempty"`
	Quantity    int       `json:"quantity"`
	Condition   Condition `json:"condition"`
	Status      Status    `json:"status"`
	Location    string    `json:"location"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToResponse(inv *Inventory) *Response {
	if inv == nil {
		return nil
	}
	return &Response{
		InventoryID: inv.InventoryID,
		BookID:      inv.BookID,
		Quantity:    inv.Quantity,
		Condition:   inv.Condition,
		Status:      inv.Status,
		Location:    inv.Location,
		UpdatedAt:   inv.UpdatedAt,
	}
}

// Apply: 入力を既存値（または既定値）に重ねる
func (in Input) Apply(cur *Inventory) Inventory {
	out := Inventory{Condition: ConditionNew, Status: StatusAvailable}
	if cur != nil {
		out = *cur
	}
	if in.Quantity != nil {
		out.Quantity = *in.Quantity
	}
	if in.Condition != nil {
		out.Condition = Condition(*in.Condition)
	}
	if in.Status != nil {
		out.Status = Status(*in.Status)
	}
	if in.Location != nil {
		out.Location = *in.Location
	}
	return out
}
