package taxonomy

import "time"

type CreateRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description,omitempty"`
}

type UpdateRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type Response struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeleteResponse: 書籍から参照されていれば無効化のみ
type DeleteResponse struct {
	ID       uint64 `json:"id"`
	Disabled bool   `json:"disabled"`
	Deleted  bool   `json:"deleted"`
}
