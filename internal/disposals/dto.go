package disposals

import "time"

type CreateRequest struct {
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Reason   *string `json:"reason"   binding:"omitempty,max=512"`
}

type Response struct {
	DisposalULID string    `json:"disposal_id"`
	BookID       uint64    `json:"book_id"`
	BookTitle    string    `json:"book_title,omitempty"`
	Quantity     int       `json:"quantity"`
	Reason       *string   `json:"reason,omitempty"`
	ProcessedBy  *string   `json:"processed_by,omitempty"`
	DisposedAt   time.Time `json:"disposed_at"`
	// 除籍後の在庫（作成時のみ）
	RemainingQuantity *int `json:"remaining_quantity,omitempty"`
}

func ToResponse(d *Disposal) Response {
	res := Response{
		DisposalULID: d.DisposalULID,
		BookID:       d.BookID,
		BookTitle:    d.BookTitle,
		Quantity:     d.Quantity,
		DisposedAt:   d.DisposedAt,
	}
	if d.Reason.Valid {
		res.Reason = &d.Reason.String
	}
	if d.ProcessedBy.Valid {
		res.ProcessedBy = &d.ProcessedBy.String
	}
	return res
}
