package catalog

import (
	"errors"
	"time"
)

// Moderation states of a product. A product is visible to end users only
// when approved and active.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Deletion outcomes reported to callers, so "gone" and "deactivated" stay
// distinguishable.
const (
	DeleteHard = "hard"
	DeleteSoft = "soft"
)

var (
	ErrNotFound  = errors.New("product not found")
	ErrForbidden = errors.New("product is not yours")
)

// Product is a shop-submitted listing subject to moderation.
type Product struct {
	ID               int64     `json:"id"`
	ShopID           int64     `json:"shop_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Price            float64   `json:"price"`
	Images           []string  `json:"images"`
	IsActive         bool      `json:"is_active"`
	ModerationStatus string    `json:"moderation_status"`
	ModerationNotes  string    `json:"moderation_notes,omitempty"`
	ApprovalFee      *float64  `json:"approval_fee,omitempty"`
	ViewsCount       int64     `json:"views_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
