package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProductStore struct {
	getFn          func(ctx context.Context, id int64) (*Product, error)
	hasOrdersFn    func(ctx context.Context, productID int64) (bool, error)
	softDeleted    []int64
	hardDeleted    []int64
	hardDeleteErr  error
	softDeleteNote string
	pending        int
}

func (m *mockProductStore) GetByID(ctx context.Context, id int64) (*Product, error) {
	return m.getFn(ctx, id)
}

func (m *mockProductStore) HasCompletedOrders(ctx context.Context, productID int64) (bool, error) {
	return m.hasOrdersFn(ctx, productID)
}

func (m *mockProductStore) SoftDelete(_ context.Context, id int64, note string) error {
	m.softDeleted = append(m.softDeleted, id)
	m.softDeleteNote = note
	return nil
}

func (m *mockProductStore) HardDelete(_ context.Context, id int64) error {
	if m.hardDeleteErr != nil {
		return m.hardDeleteErr
	}
	m.hardDeleted = append(m.hardDeleted, id)
	return nil
}

func (m *mockProductStore) PendingCount(context.Context) (int, error) { return m.pending, nil }

type mockMedia struct {
	removed [][]string
	err     error
}

func (m *mockMedia) Remove(urls []string) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, urls)
	return nil
}

type mockDeleteNotifier struct {
	outcomes []string
	backlogs []int
}

func (m *mockDeleteNotifier) ProductDeleted(_, _ int64, _, outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockDeleteNotifier) ModerationBacklog(pendingCount int, _ string, _ int64) {
	m.backlogs = append(m.backlogs, pendingCount)
}

type mockAlerts struct {
	alerts []string
}

func (m *mockAlerts) AdminAlert(_, message string) { m.alerts = append(m.alerts, message) }

func activeProduct() *Product {
	return &Product{
		ID:               42,
		ShopID:           7,
		Name:             "Linen Blazer",
		Images:           []string{"/uploads/products/7/42/image_0.jpg"},
		IsActive:         true,
		ModerationStatus: StatusApproved,
	}
}

func TestDeleteUnreferencedProductIsHard(t *testing.T) {
	store := &mockProductStore{
		getFn:       func(context.Context, int64) (*Product, error) { return activeProduct(), nil },
		hasOrdersFn: func(context.Context, int64) (bool, error) { return false, nil },
	}
	media := &mockMedia{}
	notify := &mockDeleteNotifier{}
	svc := NewService(store, media, notify, &mockAlerts{})

	outcome, err := svc.Delete(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, DeleteHard, outcome)

	require.Len(t, media.removed, 1, "media goes before the record")
	assert.Equal(t, []int64{42}, store.hardDeleted)
	assert.Empty(t, store.softDeleted)
	assert.Equal(t, []string{DeleteHard}, notify.outcomes)
}

func TestDeleteReferencedProductIsSoft(t *testing.T) {
	store := &mockProductStore{
		getFn:       func(context.Context, int64) (*Product, error) { return activeProduct(), nil },
		hasOrdersFn: func(context.Context, int64) (bool, error) { return true, nil },
	}
	media := &mockMedia{}
	notify := &mockDeleteNotifier{}
	svc := NewService(store, media, notify, &mockAlerts{})

	outcome, err := svc.Delete(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, DeleteSoft, outcome)

	assert.Empty(t, media.removed, "retired products keep their media")
	assert.Empty(t, store.hardDeleted)
	assert.Equal(t, []int64{42}, store.softDeleted)
	assert.NotEmpty(t, store.softDeleteNote)
	assert.Equal(t, []string{DeleteSoft}, notify.outcomes)
}

func TestDeleteWrongShopIsForbidden(t *testing.T) {
	store := &mockProductStore{
		getFn: func(context.Context, int64) (*Product, error) { return activeProduct(), nil },
	}
	svc := NewService(store, &mockMedia{}, &mockDeleteNotifier{}, &mockAlerts{})

	_, err := svc.Delete(context.Background(), 42, 999)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, store.hardDeleted)
	assert.Empty(t, store.softDeleted)
}

func TestDeleteMissingProduct(t *testing.T) {
	store := &mockProductStore{
		getFn: func(context.Context, int64) (*Product, error) { return nil, ErrNotFound },
	}
	svc := NewService(store, &mockMedia{}, &mockDeleteNotifier{}, &mockAlerts{})

	_, err := svc.Delete(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAbortsWhenMediaRemovalFails(t *testing.T) {
	store := &mockProductStore{
		getFn:       func(context.Context, int64) (*Product, error) { return activeProduct(), nil },
		hasOrdersFn: func(context.Context, int64) (bool, error) { return false, nil },
	}
	media := &mockMedia{err: errors.New("disk unavailable")}
	notify := &mockDeleteNotifier{}
	svc := NewService(store, media, notify, &mockAlerts{})

	_, err := svc.Delete(context.Background(), 42, 7)
	require.Error(t, err)
	assert.Empty(t, store.hardDeleted, "record survives when its media could not be removed")
	assert.Empty(t, notify.outcomes)
}

func TestDeletePendingProductUpdatesBacklog(t *testing.T) {
	p := activeProduct()
	p.ModerationStatus = StatusPending
	p.IsActive = false
	store := &mockProductStore{
		getFn:       func(context.Context, int64) (*Product, error) { return p, nil },
		hasOrdersFn: func(context.Context, int64) (bool, error) { return false, nil },
		pending:     4,
	}
	notify := &mockDeleteNotifier{}
	svc := NewService(store, &mockMedia{}, notify, &mockAlerts{})

	_, err := svc.Delete(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, notify.backlogs, "removing a pending product shrinks the queue")
}

func TestDeleteHardFailureAlertsOperators(t *testing.T) {
	store := &mockProductStore{
		getFn:         func(context.Context, int64) (*Product, error) { return activeProduct(), nil },
		hasOrdersFn:   func(context.Context, int64) (bool, error) { return false, nil },
		hardDeleteErr: errors.New("row locked"),
	}
	media := &mockMedia{}
	mail := &mockAlerts{}
	svc := NewService(store, media, &mockDeleteNotifier{}, mail)

	_, err := svc.Delete(context.Background(), 42, 7)
	require.Error(t, err)
	require.Len(t, media.removed, 1, "media removal already happened")
	require.Len(t, mail.alerts, 1, "the orphaned record is flagged to operators")
	assert.Contains(t, mail.alerts[0], "product 42")
}
