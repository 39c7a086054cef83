package moderation

import (
	"context"
	"errors"
	"log"

	"github.com/vetra-app/vetra/internal/dispatch"
	"github.com/vetra-app/vetra/internal/settings"
)

const defaultApprovalFee = 5.0

type decisionStore interface {
	Approve(ctx context.Context, productID int64, fee float64) (*Decision, error)
	Reject(ctx context.Context, productID int64, note string) (*Decision, error)
}

type backlogCounter interface {
	PendingCount(ctx context.Context) (int, error)
}

type feeSource interface {
	GetFloat(ctx context.Context, key string, fallback float64) (float64, error)
}

type notifier interface {
	ProductApproved(o dispatch.ModerationOutcome)
	ProductApprovedToShop(o dispatch.ModerationOutcome)
	ProductsApproved(productIDs []int64, adminID int64)
	ProductRejected(o dispatch.ModerationOutcome)
	ModerationBacklog(pendingCount int, action string, productID int64)
	ShopBalanceChanged(shopID int64, oldBalance, newBalance float64, reason string)
}

type alertQueue interface {
	ProductApproved(shopEmail, productName string)
	ProductRejected(shopEmail, productName, note string)
}

// Service drives moderation decisions: it resolves the current fee, runs the
// transition, and fans the outcome out to websocket audiences and the email
// queue. Notifications only ever follow a committed transition.
type Service struct {
	store   decisionStore
	backlog backlogCounter
	fees    feeSource
	notify  notifier
	mail    alertQueue
}

func NewService(store decisionStore, backlog backlogCounter, fees feeSource, notify notifier, mail alertQueue) *Service {
	return &Service{store: store, backlog: backlog, fees: fees, notify: notify, mail: mail}
}

// BulkResult reports a bulk moderation run: which ids transitioned and which
// failed, with the reason per failure.
type BulkResult struct {
	Succeeded []int64          `json:"succeeded"`
	Failed    map[int64]string `json:"failed"`
}

// Approve approves one product, charging the current platform approval fee.
func (s *Service) Approve(ctx context.Context, productID, adminID int64) (*Decision, error) {
	fee, err := s.fees.GetFloat(ctx, settings.KeyApprovalFee, defaultApprovalFee)
	if err != nil {
		return nil, err
	}

	d, err := s.store.Approve(ctx, productID, fee)
	if err != nil {
		return nil, err
	}
	if d.NoChange {
		return d, nil
	}

	s.notify.ProductApproved(dispatch.ModerationOutcome{
		ProductID:   d.ProductID,
		ProductName: d.ProductName,
		ShopID:      d.ShopID,
		ShopName:    d.ShopName,
		Status:      d.Status,
		AdminID:     adminID,
		Fee:         d.Fee,
	})
	s.notify.ShopBalanceChanged(d.ShopID, d.OldBalance, d.NewBalance, "approval_fee")
	s.announceBacklog(ctx, "removed", productID)
	s.mail.ProductApproved(d.ShopEmail, d.ProductName)
	return d, nil
}

// Reject rejects one product with a mandatory note explaining the decision.
func (s *Service) Reject(ctx context.Context, productID, adminID int64, note string) (*Decision, error) {
	d, err := s.store.Reject(ctx, productID, note)
	if err != nil {
		return nil, err
	}
	if d.NoChange {
		return d, nil
	}

	s.notify.ProductRejected(dispatch.ModerationOutcome{
		ProductID:   d.ProductID,
		ProductName: d.ProductName,
		ShopID:      d.ShopID,
		ShopName:    d.ShopName,
		Status:      d.Status,
		Notes:       d.Notes,
		AdminID:     adminID,
	})
	s.announceBacklog(ctx, "removed", productID)
	s.mail.ProductRejected(d.ShopEmail, d.ProductName, note)
	return d, nil
}

// BulkApprove approves each id independently. One failing product never stops
// the rest. Each owning shop is notified as its transition commits; end users
// hear about the run once, as one aggregate event, and a single backlog
// update closes it.
func (s *Service) BulkApprove(ctx context.Context, productIDs []int64, adminID int64) (*BulkResult, error) {
	fee, err := s.fees.GetFloat(ctx, settings.KeyApprovalFee, defaultApprovalFee)
	if err != nil {
		return nil, err
	}

	res := &BulkResult{Failed: map[int64]string{}}
	var approved []int64
	for _, id := range productIDs {
		d, err := s.store.Approve(ctx, id, fee)
		if err != nil {
			res.Failed[id] = reason(err)
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
		if d.NoChange {
			continue
		}
		approved = append(approved, id)
		s.notify.ProductApprovedToShop(dispatch.ModerationOutcome{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			ShopID:      d.ShopID,
			ShopName:    d.ShopName,
			Status:      d.Status,
			AdminID:     adminID,
			Fee:         d.Fee,
		})
		s.notify.ShopBalanceChanged(d.ShopID, d.OldBalance, d.NewBalance, "approval_fee")
		s.mail.ProductApproved(d.ShopEmail, d.ProductName)
	}
	s.notify.ProductsApproved(approved, adminID)
	s.announceBacklog(ctx, "bulk_approve", 0)
	return res, nil
}

// BulkReject rejects each id independently with a shared note.
func (s *Service) BulkReject(ctx context.Context, productIDs []int64, adminID int64, note string) (*BulkResult, error) {
	res := &BulkResult{Failed: map[int64]string{}}
	for _, id := range productIDs {
		d, err := s.store.Reject(ctx, id, note)
		if err != nil {
			res.Failed[id] = reason(err)
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
		if d.NoChange {
			continue
		}
		s.notify.ProductRejected(dispatch.ModerationOutcome{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			ShopID:      d.ShopID,
			ShopName:    d.ShopName,
			Status:      d.Status,
			Notes:       d.Notes,
			AdminID:     adminID,
		})
		s.mail.ProductRejected(d.ShopEmail, d.ProductName, note)
	}
	s.announceBacklog(ctx, "bulk_reject", 0)
	return res, nil
}

func (s *Service) announceBacklog(ctx context.Context, action string, productID int64) {
	pending, err := s.backlog.PendingCount(ctx)
	if err != nil {
		log.Println("moderation backlog count:", err)
		return
	}
	s.notify.ModerationBacklog(pending, action, productID)
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return "product not found"
	case errors.Is(err, ErrShopNotFound):
		return "shop not found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient shop balance"
	default:
		return "internal error"
	}
}
