package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetra-app/vetra/internal/dispatch"
)

type mockDecisionStore struct {
	approveFn func(ctx context.Context, productID int64, fee float64) (*Decision, error)
	rejectFn  func(ctx context.Context, productID int64, note string) (*Decision, error)
}

func (m *mockDecisionStore) Approve(ctx context.Context, productID int64, fee float64) (*Decision, error) {
	return m.approveFn(ctx, productID, fee)
}

func (m *mockDecisionStore) Reject(ctx context.Context, productID int64, note string) (*Decision, error) {
	return m.rejectFn(ctx, productID, note)
}

type mockBacklog struct {
	count int
}

func (m *mockBacklog) PendingCount(context.Context) (int, error) { return m.count, nil }

type mockFees struct {
	fee float64
}

func (m *mockFees) GetFloat(_ context.Context, _ string, fallback float64) (float64, error) {
	if m.fee == 0 {
		return fallback, nil
	}
	return m.fee, nil
}

type mockNotifier struct {
	approved     []dispatch.ModerationOutcome
	shopApproved []dispatch.ModerationOutcome
	bulkApproved [][]int64
	rejected     []dispatch.ModerationOutcome
	backlogs     []int
	balances     []float64
}

func (m *mockNotifier) ProductApproved(o dispatch.ModerationOutcome) { m.approved = append(m.approved, o) }
func (m *mockNotifier) ProductApprovedToShop(o dispatch.ModerationOutcome) {
	m.shopApproved = append(m.shopApproved, o)
}
func (m *mockNotifier) ProductsApproved(productIDs []int64, _ int64) {
	m.bulkApproved = append(m.bulkApproved, productIDs)
}
func (m *mockNotifier) ProductRejected(o dispatch.ModerationOutcome) { m.rejected = append(m.rejected, o) }
func (m *mockNotifier) ModerationBacklog(pendingCount int, _ string, _ int64) {
	m.backlogs = append(m.backlogs, pendingCount)
}
func (m *mockNotifier) ShopBalanceChanged(_ int64, _, newBalance float64, _ string) {
	m.balances = append(m.balances, newBalance)
}

type mockMail struct {
	approved []string
	rejected []string
}

func (m *mockMail) ProductApproved(_, productName string)    { m.approved = append(m.approved, productName) }
func (m *mockMail) ProductRejected(_, productName, _ string) { m.rejected = append(m.rejected, productName) }

func TestApproveChargesFeeAndNotifies(t *testing.T) {
	store := &mockDecisionStore{
		approveFn: func(_ context.Context, productID int64, fee float64) (*Decision, error) {
			assert.Equal(t, int64(42), productID)
			assert.Equal(t, 5.0, fee)
			return &Decision{
				ProductID:   42,
				ProductName: "Linen Blazer",
				ShopID:      7,
				ShopName:    "Atelier Nord",
				ShopEmail:   "owner@atelier.example",
				Status:      "approved",
				Fee:         fee,
				OldBalance:  20,
				NewBalance:  15,
			}, nil
		},
	}
	notify := &mockNotifier{}
	mail := &mockMail{}
	svc := NewService(store, &mockBacklog{count: 3}, &mockFees{}, notify, mail)

	d, err := svc.Approve(context.Background(), 42, 1)
	require.NoError(t, err)
	assert.Equal(t, 15.0, d.NewBalance)

	require.Len(t, notify.approved, 1)
	assert.Equal(t, int64(42), notify.approved[0].ProductID)
	assert.Equal(t, 5.0, notify.approved[0].Fee)
	assert.Equal(t, int64(1), notify.approved[0].AdminID)
	assert.Equal(t, []float64{15}, notify.balances)
	assert.Equal(t, []int{3}, notify.backlogs)
	assert.Equal(t, []string{"Linen Blazer"}, mail.approved)
}

func TestApproveInsufficientBalance(t *testing.T) {
	store := &mockDecisionStore{
		approveFn: func(context.Context, int64, float64) (*Decision, error) {
			return nil, ErrInsufficientFunds
		},
	}
	notify := &mockNotifier{}
	svc := NewService(store, &mockBacklog{}, &mockFees{}, notify, &mockMail{})

	_, err := svc.Approve(context.Background(), 42, 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Empty(t, notify.approved, "a failed transition announces nothing")
	assert.Empty(t, notify.balances)
	assert.Empty(t, notify.backlogs)
}

func TestApproveAlreadyApprovedIsSilent(t *testing.T) {
	store := &mockDecisionStore{
		approveFn: func(context.Context, int64, float64) (*Decision, error) {
			return &Decision{ProductID: 42, Status: "approved", NoChange: true}, nil
		},
	}
	notify := &mockNotifier{}
	mail := &mockMail{}
	svc := NewService(store, &mockBacklog{}, &mockFees{}, notify, mail)

	d, err := svc.Approve(context.Background(), 42, 1)
	require.NoError(t, err)
	assert.True(t, d.NoChange)
	assert.Empty(t, notify.approved)
	assert.Empty(t, mail.approved)
}

func TestRejectRequiresCommittedTransition(t *testing.T) {
	store := &mockDecisionStore{
		rejectFn: func(_ context.Context, productID int64, note string) (*Decision, error) {
			return &Decision{
				ProductID:   productID,
				ProductName: "Silk Scarf",
				ShopID:      7,
				ShopEmail:   "owner@atelier.example",
				Status:      "rejected",
				Notes:       note,
			}, nil
		},
	}
	notify := &mockNotifier{}
	mail := &mockMail{}
	svc := NewService(store, &mockBacklog{count: 2}, &mockFees{}, notify, mail)

	_, err := svc.Reject(context.Background(), 43, 1, "blurry photos")
	require.NoError(t, err)
	require.Len(t, notify.rejected, 1)
	assert.Equal(t, "blurry photos", notify.rejected[0].Notes)
	assert.Empty(t, notify.balances, "rejection never touches the balance")
	assert.Equal(t, []string{"Silk Scarf"}, mail.rejected)
}

func TestBulkApprovePartialFailure(t *testing.T) {
	store := &mockDecisionStore{
		approveFn: func(_ context.Context, productID int64, fee float64) (*Decision, error) {
			if productID == 3 {
				return nil, ErrInsufficientFunds
			}
			return &Decision{
				ProductID: productID,
				ShopID:    productID * 10,
				ShopEmail: "shop@example.com",
				Status:    "approved",
				Fee:       fee,
			}, nil
		},
	}
	notify := &mockNotifier{}
	svc := NewService(store, &mockBacklog{count: 1}, &mockFees{}, notify, &mockMail{})

	res, err := svc.BulkApprove(context.Background(), []int64{1, 2, 3, 4}, 1)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 4}, res.Succeeded)
	assert.Equal(t, map[int64]string{3: "insufficient shop balance"}, res.Failed)
	assert.Len(t, notify.shopApproved, 3, "each committed transition is announced to its shop")
	assert.Equal(t, [][]int64{{1, 2, 4}}, notify.bulkApproved, "end users hear one aggregate event")
	assert.Equal(t, []int{1}, notify.backlogs, "one backlog update closes the whole run")
}

func TestBulkRejectSharedNote(t *testing.T) {
	var notes []string
	store := &mockDecisionStore{
		rejectFn: func(_ context.Context, productID int64, note string) (*Decision, error) {
			notes = append(notes, note)
			if productID == 2 {
				return nil, ErrProductNotFound
			}
			return &Decision{ProductID: productID, Status: "rejected", Notes: note}, nil
		},
	}
	notify := &mockNotifier{}
	svc := NewService(store, &mockBacklog{}, &mockFees{}, notify, &mockMail{})

	res, err := svc.BulkReject(context.Background(), []int64{1, 2}, 1, "off-season")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, res.Succeeded)
	assert.Equal(t, map[int64]string{2: "product not found"}, res.Failed)
	assert.Equal(t, []string{"off-season", "off-season"}, notes)
}
