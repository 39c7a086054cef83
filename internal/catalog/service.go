package catalog

import (
	"context"
	"fmt"
	"log"
)

// productStore is the slice of Store the service needs.
type productStore interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	HasCompletedOrders(ctx context.Context, productID int64) (bool, error)
	SoftDelete(ctx context.Context, id int64, note string) error
	HardDelete(ctx context.Context, id int64) error
	PendingCount(ctx context.Context) (int, error)
}

type mediaStore interface {
	Remove(urls []string) error
}

type deleteNotifier interface {
	ProductDeleted(productID, shopID int64, productName, outcome string)
	ModerationBacklog(pendingCount int, action string, productID int64)
}

type alertQueue interface {
	AdminAlert(severity, message string)
}

// Service owns the product deletion policy.
type Service struct {
	store    productStore
	media    mediaStore
	notifier deleteNotifier
	mail     alertQueue
}

func NewService(store productStore, media mediaStore, notifier deleteNotifier, mail alertQueue) *Service {
	return &Service{store: store, media: media, notifier: notifier, mail: mail}
}

const retiredNote = "Product deleted by shop owner"

// Delete removes a product on behalf of its shop. Products referenced by
// completed orders are retired in place so order history stays intact;
// unreferenced products are destroyed together with their media. Media is
// removed before the record so a crash can never leave files with no owning
// row to find them by.
func (s *Service) Delete(ctx context.Context, productID, shopID int64) (string, error) {
	p, err := s.store.GetByID(ctx, productID)
	if err != nil {
		return "", err
	}
	if p.ShopID != shopID {
		return "", ErrForbidden
	}

	referenced, err := s.store.HasCompletedOrders(ctx, productID)
	if err != nil {
		return "", err
	}

	wasPending := p.ModerationStatus == StatusPending

	var outcome string
	if referenced {
		if err := s.store.SoftDelete(ctx, productID, retiredNote); err != nil {
			return "", err
		}
		outcome = DeleteSoft
	} else {
		if err := s.media.Remove(p.Images); err != nil {
			return "", fmt.Errorf("remove product media: %w", err)
		}
		if err := s.store.HardDelete(ctx, productID); err != nil {
			// Media is already gone but the row survived. The product is now
			// unservable and needs operator attention.
			log.Printf("FATAL INCONSISTENCY: product %d media removed but record delete failed: %v", productID, err)
			s.mail.AdminAlert("critical", fmt.Sprintf("product %d: media removed but record delete failed: %v", productID, err))
			return "", err
		}
		outcome = DeleteHard
	}

	s.notifier.ProductDeleted(productID, shopID, p.Name, outcome)

	if wasPending {
		if pending, err := s.store.PendingCount(ctx); err == nil {
			s.notifier.ModerationBacklog(pending, "removed", productID)
		} else {
			log.Printf("pending count after delete of product %d: %v", productID, err)
		}
	}
	return outcome, nil
}
