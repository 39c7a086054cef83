package generation

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetra-app/vetra/internal/catalog"
)

type mockGenerationStore struct {
	gens      map[int64]*Generation
	nextID    int64
	results   map[int64]string
	deleted   []int64
	deleteErr error
}

func newMockGenerationStore() *mockGenerationStore {
	return &mockGenerationStore{gens: map[int64]*Generation{}, nextID: 1, results: map[int64]string{}}
}

func (m *mockGenerationStore) Insert(_ context.Context, userID int64, productID *int64, cost float64) (int64, error) {
	id := m.nextID
	m.nextID++
	m.gens[id] = &Generation{ID: id, UserID: userID, ProductID: productID, Cost: cost}
	return id, nil
}

func (m *mockGenerationStore) SetResult(_ context.Context, id int64, imageURL string) error {
	m.results[id] = imageURL
	if g, ok := m.gens[id]; ok {
		g.ImageURL = imageURL
	}
	return nil
}

func (m *mockGenerationStore) GetByID(_ context.Context, id int64) (*Generation, error) {
	g, ok := m.gens[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

func (m *mockGenerationStore) Delete(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.gens[id]; !ok {
		return ErrNotFound
	}
	delete(m.gens, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockProducts struct {
	p   *catalog.Product
	err error
}

func (m *mockProducts) GetByID(context.Context, int64) (*catalog.Product, error) {
	return m.p, m.err
}

type mockRefs struct {
	count int
}

func (m *mockRefs) CountByGeneration(context.Context, int64) (int, error) { return m.count, nil }

type mockGenerator struct {
	resultURL string
	err       error
}

func (m *mockGenerator) TryOn(context.Context, string, string) (string, error) {
	return m.resultURL, m.err
}

type mockProgress struct {
	started   []int64
	completed chan string
}

func newMockProgress() *mockProgress {
	return &mockProgress{completed: make(chan string, 1)}
}

func (m *mockProgress) GenerationStarted(generationID, _ int64) {
	m.started = append(m.started, generationID)
}

func (m *mockProgress) GenerationCompleted(_, _ int64, imageURL string) {
	m.completed <- imageURL
}

type mockAlerts struct {
	alerts []string
}

func (m *mockAlerts) AdminAlert(_, message string) { m.alerts = append(m.alerts, message) }

type mockCosts struct{}

func (mockCosts) GetFloat(_ context.Context, _ string, fallback float64) (float64, error) {
	return fallback, nil
}

type noopMedia struct {
	removed [][]string
}

func (m *noopMedia) Save(relPath string, _ io.Reader) (string, error) { return "/uploads/" + relPath, nil }
func (m *noopMedia) Copy(_, relPath string) (string, error)           { return "/uploads/" + relPath, nil }
func (m *noopMedia) Remove(urls []string) error {
	m.removed = append(m.removed, urls)
	return nil
}

func garmentProduct() *catalog.Product {
	return &catalog.Product{
		ID:       42,
		ShopID:   7,
		Images:   []string{"/uploads/products/7/42/image_0.jpg"},
		IsActive: true,
	}
}

func TestCreateRunsGeneratorAndAnnouncesResult(t *testing.T) {
	store := newMockGenerationStore()
	progress := newMockProgress()
	svc := NewService(store, &mockProducts{p: garmentProduct()}, &mockRefs{},
		&mockGenerator{resultURL: "/uploads/generations/1.png"}, progress, mockCosts{}, &noopMedia{}, &mockAlerts{})

	g, err := svc.Create(context.Background(), 3, 42, "/uploads/wardrobe/3/me.jpg")
	require.NoError(t, err)
	assert.Equal(t, []int64{g.ID}, progress.started, "start is announced before the job runs")

	select {
	case url := <-progress.completed:
		assert.Equal(t, "/uploads/generations/1.png", url)
	case <-time.After(2 * time.Second):
		t.Fatal("completion event never arrived")
	}
	assert.Equal(t, "/uploads/generations/1.png", store.results[g.ID])
}

func TestCreateRejectsInactiveProduct(t *testing.T) {
	p := garmentProduct()
	p.IsActive = false
	svc := NewService(newMockGenerationStore(), &mockProducts{p: p}, &mockRefs{},
		&mockGenerator{}, newMockProgress(), mockCosts{}, &noopMedia{}, &mockAlerts{})

	_, err := svc.Create(context.Background(), 3, 42, "/uploads/wardrobe/3/me.jpg")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDeleteBlockedByWardrobeReferences(t *testing.T) {
	store := newMockGenerationStore()
	store.gens[9] = &Generation{ID: 9, UserID: 3, ImageURL: "/uploads/generations/9.png"}
	media := &noopMedia{}
	svc := NewService(store, &mockProducts{}, &mockRefs{count: 2}, &mockGenerator{}, newMockProgress(), mockCosts{}, media, &mockAlerts{})

	err := svc.Delete(context.Background(), 3, 9)
	conflict, ok := AsConflict(err)
	require.True(t, ok, "expected a conflict error, got %v", err)
	assert.Equal(t, 2, conflict.References)
	assert.Empty(t, store.deleted)
	assert.Empty(t, media.removed, "blocked deletion touches nothing")
}

func TestDeleteRemovesMediaThenRecord(t *testing.T) {
	store := newMockGenerationStore()
	store.gens[9] = &Generation{ID: 9, UserID: 3, ImageURL: "/uploads/generations/9.png"}
	media := &noopMedia{}
	svc := NewService(store, &mockProducts{}, &mockRefs{}, &mockGenerator{}, newMockProgress(), mockCosts{}, media, &mockAlerts{})

	require.NoError(t, svc.Delete(context.Background(), 3, 9))
	assert.Equal(t, [][]string{{"/uploads/generations/9.png"}}, media.removed)
	assert.Equal(t, []int64{9}, store.deleted)
}

func TestDeleteForeignGeneration(t *testing.T) {
	store := newMockGenerationStore()
	store.gens[9] = &Generation{ID: 9, UserID: 99}
	svc := NewService(store, &mockProducts{}, &mockRefs{}, &mockGenerator{}, newMockProgress(), mockCosts{}, &noopMedia{}, &mockAlerts{})

	err := svc.Delete(context.Background(), 3, 9)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteRecordFailureAlertsOperators(t *testing.T) {
	store := newMockGenerationStore()
	store.gens[9] = &Generation{ID: 9, UserID: 3, ImageURL: "/uploads/generations/9.png"}
	store.deleteErr = errors.New("row locked")
	media := &noopMedia{}
	mail := &mockAlerts{}
	svc := NewService(store, &mockProducts{}, &mockRefs{}, &mockGenerator{}, newMockProgress(), mockCosts{}, media, mail)

	err := svc.Delete(context.Background(), 3, 9)
	require.Error(t, err)
	require.Len(t, media.removed, 1, "media removal already happened")
	require.Len(t, mail.alerts, 1, "the orphaned record is flagged to operators")
	assert.Contains(t, mail.alerts[0], "generation 9")
}
