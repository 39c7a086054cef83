package wardrobe

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/vetra-app/vetra/internal/catalog"
	"github.com/vetra-app/vetra/internal/storage"
)

type itemStore interface {
	GetByID(ctx context.Context, id int64) (*Item, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	Insert(ctx context.Context, it *Item) (int64, error)
	SetImages(ctx context.Context, id int64, images []string) error
	Delete(ctx context.Context, id int64) error
}

type productSource interface {
	GetByID(ctx context.Context, id int64) (*catalog.Product, error)
}

// generationSource resolves the owner and produced media of a try-on
// generation.
type generationSource interface {
	GenerationMedia(ctx context.Context, id int64) (userID int64, imageURL string, err error)
}

type alertQueue interface {
	AdminAlert(severity, message string)
}

// Service enforces wardrobe rules: the size cap, provenance assignment at
// creation, and the deletion policy that provenance drives.
type Service struct {
	store       itemStore
	products    productSource
	generations generationSource
	media       storage.MediaStore
	mail        alertQueue
}

func NewService(store itemStore, products productSource, generations generationSource, media storage.MediaStore, mail alertQueue) *Service {
	return &Service{store: store, products: products, generations: generations, media: media, mail: mail}
}

func (s *Service) checkCapacity(ctx context.Context, userID int64) error {
	n, err := s.store.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if n >= MaxItemsPerUser {
		return ErrWardrobeFull
	}
	return nil
}

// CopyFromListing adds an active product to the user's wardrobe. With
// copyFiles the media is duplicated into user-owned files and survives the
// product's later deletion; without it the item only references the product's
// media and goes stale if the product is hard-deleted.
func (s *Service) CopyFromListing(ctx context.Context, userID, productID int64, copyFiles bool) (*Item, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive || p.ModerationStatus != catalog.StatusApproved {
		return nil, catalog.ErrNotFound
	}
	if err := s.checkCapacity(ctx, userID); err != nil {
		return nil, err
	}

	it := &Item{
		UserID:      userID,
		ProductID:   &p.ID,
		Name:        p.Name,
		Description: p.Description,
	}
	if copyFiles {
		it.Source = SourceShopCopyOwned
	} else {
		it.Source = SourceShopCopyRef
		it.Images = p.Images
	}

	id, err := s.store.Insert(ctx, it)
	if err != nil {
		return nil, err
	}
	it.ID = id

	if copyFiles {
		copied := make([]string, 0, len(p.Images))
		for i, src := range p.Images {
			dst := storage.WardrobeImagePath(userID, id, i, filepath.Base(src))
			url, err := s.media.Copy(src, dst)
			if err != nil {
				s.discard(ctx, id, copied)
				return nil, fmt.Errorf("copy product media: %w", err)
			}
			copied = append(copied, url)
		}
		if err := s.store.SetImages(ctx, id, copied); err != nil {
			s.discard(ctx, id, copied)
			return nil, err
		}
		it.Images = copied
	}
	return it, nil
}

// SaveFromGeneration adds a finished try-on result to the wardrobe. The item
// references the generation's media rather than owning it.
func (s *Service) SaveFromGeneration(ctx context.Context, userID, generationID int64) (*Item, error) {
	ownerID, imageURL, err := s.generations.GenerationMedia(ctx, generationID)
	if err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}
	if err := s.checkCapacity(ctx, userID); err != nil {
		return nil, err
	}

	it := &Item{
		UserID:       userID,
		Source:       SourceAIGenerated,
		GenerationID: &generationID,
		Name:         "Try-on result",
		Images:       []string{imageURL},
	}
	id, err := s.store.Insert(ctx, it)
	if err != nil {
		return nil, err
	}
	it.ID = id
	return it, nil
}

// Upload is one file submitted with a direct wardrobe upload.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// CreateFromUpload adds a user-uploaded item. The files become user-owned
// media and are removed again when the item is deleted.
func (s *Service) CreateFromUpload(ctx context.Context, userID int64, name, description, folder string, files []Upload) (*Item, error) {
	if err := s.checkCapacity(ctx, userID); err != nil {
		return nil, err
	}

	it := &Item{
		UserID:      userID,
		Source:      SourceUserUploaded,
		Name:        name,
		Description: description,
		Folder:      folder,
	}
	id, err := s.store.Insert(ctx, it)
	if err != nil {
		return nil, err
	}
	it.ID = id

	saved := make([]string, 0, len(files))
	for i, f := range files {
		dst := storage.WardrobeImagePath(userID, id, i, f.Filename)
		url, err := s.media.Save(dst, f.Reader)
		if err != nil {
			s.discard(ctx, id, saved)
			return nil, fmt.Errorf("save uploaded file: %w", err)
		}
		saved = append(saved, url)
	}
	if err := s.store.SetImages(ctx, id, saved); err != nil {
		s.discard(ctx, id, saved)
		return nil, err
	}
	it.Images = saved
	return it, nil
}

// Delete removes a wardrobe item. Only media the item owns is touched:
// referenced media stays with the product or generation it belongs to.
func (s *Service) Delete(ctx context.Context, userID, itemID int64) error {
	it, err := s.store.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if it.UserID != userID {
		return ErrForbidden
	}

	switch it.Source {
	case SourceShopCopyOwned, SourceUserUploaded:
		if err := s.media.Remove(it.Images); err != nil {
			return fmt.Errorf("remove item media: %w", err)
		}
		if err := s.store.Delete(ctx, itemID); err != nil {
			log.Printf("FATAL INCONSISTENCY: wardrobe item %d media removed but record delete failed: %v", itemID, err)
			s.mail.AdminAlert("critical", fmt.Sprintf("wardrobe item %d: media removed but record delete failed: %v", itemID, err))
			return err
		}
	case SourceShopCopyRef, SourceAIGenerated, SourcePurchased:
		if err := s.store.Delete(ctx, itemID); err != nil {
			return err
		}
	default:
		return ErrBadProvenance
	}
	return nil
}

// discard best-effort undoes a half-finished creation.
func (s *Service) discard(ctx context.Context, id int64, urls []string) {
	if len(urls) > 0 {
		if err := s.media.Remove(urls); err != nil {
			log.Printf("cleanup media for wardrobe item %d: %v", id, err)
		}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		log.Printf("cleanup wardrobe item %d: %v", id, err)
	}
}
