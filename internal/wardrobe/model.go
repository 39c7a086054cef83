package wardrobe

import (
	"errors"
	"time"
)

// Provenance records where a wardrobe item came from. It is fixed at creation
// and drives what deletion is allowed to touch.
type Provenance string

const (
	// SourceShopCopyRef references a live product's media without owning it.
	SourceShopCopyRef Provenance = "shop_copy_ref"
	// SourceShopCopyOwned holds private copies of a product's media.
	SourceShopCopyOwned Provenance = "shop_copy_owned"
	// SourceAIGenerated references media produced by a try-on generation.
	SourceAIGenerated Provenance = "ai_generated"
	// SourceUserUploaded holds media the user uploaded themselves.
	SourceUserUploaded Provenance = "user_uploaded"
	// SourcePurchased references media of a product the user bought.
	SourcePurchased Provenance = "purchased"
)

// Valid reports whether p is one of the known provenance values.
func (p Provenance) Valid() bool {
	switch p {
	case SourceShopCopyRef, SourceShopCopyOwned, SourceAIGenerated, SourceUserUploaded, SourcePurchased:
		return true
	}
	return false
}

// OwnsMedia reports whether the item's media files belong to the item itself.
// Only owned media is ever removed when the item is deleted; referenced media
// belongs to a product or generation record and outlives the item.
func (p Provenance) OwnsMedia() bool {
	return p == SourceShopCopyOwned || p == SourceUserUploaded
}

// MaxItemsPerUser caps a wardrobe's size.
const MaxItemsPerUser = 500

var (
	ErrNotFound      = errors.New("wardrobe item not found")
	ErrForbidden     = errors.New("wardrobe item belongs to another user")
	ErrWardrobeFull  = errors.New("wardrobe item limit reached")
	ErrBadProvenance = errors.New("unknown wardrobe item source")
)

type Item struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Source       Provenance `json:"source"`
	ProductID    *int64     `json:"product_id,omitempty"`
	GenerationID *int64     `json:"generation_id,omitempty"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Images       []string   `json:"images"`
	IsFavorite   bool       `json:"is_favorite"`
	Folder       string     `json:"folder,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Stats summarises one user's wardrobe.
type Stats struct {
	Total     int            `json:"total"`
	Favorites int            `json:"favorites"`
	BySource  map[string]int `json:"by_source"`
	Folders   []string       `json:"folders"`
}
