package wardrobe

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetra-app/vetra/internal/catalog"
)

type mockItemStore struct {
	items     map[int64]*Item
	nextID    int64
	count     int
	deleted   []int64
	deleteErr error
	images    map[int64][]string
}

func newMockItemStore() *mockItemStore {
	return &mockItemStore{items: map[int64]*Item{}, nextID: 1, images: map[int64][]string{}}
}

func (m *mockItemStore) GetByID(_ context.Context, id int64) (*Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return it, nil
}

func (m *mockItemStore) CountByUser(context.Context, int64) (int, error) { return m.count, nil }

func (m *mockItemStore) Insert(_ context.Context, it *Item) (int64, error) {
	id := m.nextID
	m.nextID++
	stored := *it
	stored.ID = id
	m.items[id] = &stored
	return id, nil
}

func (m *mockItemStore) SetImages(_ context.Context, id int64, images []string) error {
	m.images[id] = images
	return nil
}

func (m *mockItemStore) Delete(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockAlerts struct {
	alerts []string
}

func (m *mockAlerts) AdminAlert(_, message string) { m.alerts = append(m.alerts, message) }

type mockProducts struct {
	p   *catalog.Product
	err error
}

func (m *mockProducts) GetByID(context.Context, int64) (*catalog.Product, error) {
	return m.p, m.err
}

type mockGenerations struct {
	ownerID  int64
	imageURL string
	err      error
}

func (m *mockGenerations) GenerationMedia(context.Context, int64) (int64, string, error) {
	return m.ownerID, m.imageURL, m.err
}

type mockMedia struct {
	saved   []string
	copied  []string
	removed [][]string
}

func (m *mockMedia) Save(relPath string, _ io.Reader) (string, error) {
	m.saved = append(m.saved, relPath)
	return "/uploads/" + relPath, nil
}

func (m *mockMedia) Copy(_, relPath string) (string, error) {
	m.copied = append(m.copied, relPath)
	return "/uploads/" + relPath, nil
}

func (m *mockMedia) Remove(urls []string) error {
	m.removed = append(m.removed, urls)
	return nil
}

func approvedProduct() *catalog.Product {
	return &catalog.Product{
		ID:               42,
		ShopID:           7,
		Name:             "Linen Blazer",
		Description:      "Relaxed fit",
		Images:           []string{"/uploads/products/7/42/image_0.jpg"},
		IsActive:         true,
		ModerationStatus: catalog.StatusApproved,
	}
}

func TestCopyFromListingReference(t *testing.T) {
	store := newMockItemStore()
	media := &mockMedia{}
	svc := NewService(store, &mockProducts{p: approvedProduct()}, &mockGenerations{}, media, &mockAlerts{})

	it, err := svc.CopyFromListing(context.Background(), 3, 42, false)
	require.NoError(t, err)

	assert.Equal(t, SourceShopCopyRef, it.Source)
	assert.Equal(t, []string{"/uploads/products/7/42/image_0.jpg"}, it.Images, "reference copy points at the product's media")
	assert.Empty(t, media.copied, "no files are duplicated for a reference copy")
	require.NotNil(t, it.ProductID)
	assert.Equal(t, int64(42), *it.ProductID)
}

func TestCopyFromListingOwned(t *testing.T) {
	store := newMockItemStore()
	media := &mockMedia{}
	svc := NewService(store, &mockProducts{p: approvedProduct()}, &mockGenerations{}, media, &mockAlerts{})

	it, err := svc.CopyFromListing(context.Background(), 3, 42, true)
	require.NoError(t, err)

	assert.Equal(t, SourceShopCopyOwned, it.Source)
	require.Len(t, media.copied, 1)
	assert.True(t, strings.HasPrefix(media.copied[0], "wardrobe/3/"), "owned copies live under the user's directory")
	assert.Equal(t, it.Images, store.images[it.ID])
}

func TestCopyFromListingRejectsInactiveProduct(t *testing.T) {
	p := approvedProduct()
	p.IsActive = false
	svc := NewService(newMockItemStore(), &mockProducts{p: p}, &mockGenerations{}, &mockMedia{}, &mockAlerts{})

	_, err := svc.CopyFromListing(context.Background(), 3, 42, false)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCapacityLimit(t *testing.T) {
	store := newMockItemStore()
	store.count = MaxItemsPerUser
	svc := NewService(store, &mockProducts{p: approvedProduct()}, &mockGenerations{}, &mockMedia{}, &mockAlerts{})

	_, err := svc.CopyFromListing(context.Background(), 3, 42, false)
	assert.ErrorIs(t, err, ErrWardrobeFull)
}

func TestSaveFromGeneration(t *testing.T) {
	store := newMockItemStore()
	gens := &mockGenerations{ownerID: 3, imageURL: "/uploads/generations/9.png"}
	svc := NewService(store, &mockProducts{}, gens, &mockMedia{}, &mockAlerts{})

	it, err := svc.SaveFromGeneration(context.Background(), 3, 9)
	require.NoError(t, err)
	assert.Equal(t, SourceAIGenerated, it.Source)
	assert.Equal(t, []string{"/uploads/generations/9.png"}, it.Images)
	require.NotNil(t, it.GenerationID)
	assert.Equal(t, int64(9), *it.GenerationID)
}

func TestSaveFromGenerationWrongOwner(t *testing.T) {
	gens := &mockGenerations{ownerID: 99, imageURL: "/uploads/generations/9.png"}
	svc := NewService(newMockItemStore(), &mockProducts{}, gens, &mockMedia{}, &mockAlerts{})

	_, err := svc.SaveFromGeneration(context.Background(), 3, 9)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateFromUpload(t *testing.T) {
	store := newMockItemStore()
	media := &mockMedia{}
	svc := NewService(store, &mockProducts{}, &mockGenerations{}, media, &mockAlerts{})

	it, err := svc.CreateFromUpload(context.Background(), 3, "Denim Jacket", "", "outerwear",
		[]Upload{{Filename: "front.jpg", Reader: strings.NewReader("img")}})
	require.NoError(t, err)

	assert.Equal(t, SourceUserUploaded, it.Source)
	require.Len(t, media.saved, 1)
	assert.True(t, strings.HasPrefix(media.saved[0], "wardrobe/3/"))
	assert.Equal(t, it.Images, store.images[it.ID])
}

func TestDeleteOwnedMediaIsRemoved(t *testing.T) {
	for _, source := range []Provenance{SourceShopCopyOwned, SourceUserUploaded} {
		store := newMockItemStore()
		store.items[1] = &Item{ID: 1, UserID: 3, Source: source, Images: []string{"/uploads/wardrobe/3/1/image_0.jpg"}}
		media := &mockMedia{}
		svc := NewService(store, &mockProducts{}, &mockGenerations{}, media, &mockAlerts{})

		require.NoError(t, svc.Delete(context.Background(), 3, 1))
		assert.Equal(t, [][]string{{"/uploads/wardrobe/3/1/image_0.jpg"}}, media.removed, "source %s owns its media", source)
		assert.Equal(t, []int64{1}, store.deleted)
	}
}

func TestDeleteReferencedMediaIsKept(t *testing.T) {
	for _, source := range []Provenance{SourceShopCopyRef, SourceAIGenerated, SourcePurchased} {
		store := newMockItemStore()
		store.items[1] = &Item{ID: 1, UserID: 3, Source: source, Images: []string{"/uploads/products/7/42/image_0.jpg"}}
		media := &mockMedia{}
		svc := NewService(store, &mockProducts{}, &mockGenerations{}, media, &mockAlerts{})

		require.NoError(t, svc.Delete(context.Background(), 3, 1))
		assert.Empty(t, media.removed, "source %s references media it does not own", source)
		assert.Equal(t, []int64{1}, store.deleted)
	}
}

func TestDeleteForeignItem(t *testing.T) {
	store := newMockItemStore()
	store.items[1] = &Item{ID: 1, UserID: 99, Source: SourceUserUploaded}
	svc := NewService(store, &mockProducts{}, &mockGenerations{}, &mockMedia{}, &mockAlerts{})

	err := svc.Delete(context.Background(), 3, 1)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, store.deleted)
}

func TestDeleteUnknownProvenance(t *testing.T) {
	store := newMockItemStore()
	store.items[1] = &Item{ID: 1, UserID: 3, Source: Provenance("legacy")}
	svc := NewService(store, &mockProducts{}, &mockGenerations{}, &mockMedia{}, &mockAlerts{})

	err := svc.Delete(context.Background(), 3, 1)
	assert.ErrorIs(t, err, ErrBadProvenance)
	assert.Empty(t, store.deleted, "unknown provenance never deletes anything")
}

func TestDeleteRecordFailureAlertsOperators(t *testing.T) {
	store := newMockItemStore()
	store.items[1] = &Item{ID: 1, UserID: 3, Source: SourceUserUploaded, Images: []string{"/uploads/wardrobe/3/1/image_0.jpg"}}
	store.deleteErr = errors.New("row locked")
	media := &mockMedia{}
	mail := &mockAlerts{}
	svc := NewService(store, &mockProducts{}, &mockGenerations{}, media, mail)

	err := svc.Delete(context.Background(), 3, 1)
	require.Error(t, err)
	require.Len(t, media.removed, 1, "media removal already happened")
	require.Len(t, mail.alerts, 1, "the orphaned record is flagged to operators")
	assert.Contains(t, mail.alerts[0], "wardrobe item 1")
}
