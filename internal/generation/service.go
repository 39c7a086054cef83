package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/vetra-app/vetra/internal/catalog"
	"github.com/vetra-app/vetra/internal/storage"
)

// ErrConflict wraps a blocked generation deletion with the number of wardrobe
// items still referencing it.
type ErrConflict struct {
	References int
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("generation is referenced by %d wardrobe item(s)", e.References)
}

type generationStore interface {
	Insert(ctx context.Context, userID int64, productID *int64, cost float64) (int64, error)
	SetResult(ctx context.Context, id int64, imageURL string) error
	GetByID(ctx context.Context, id int64) (*Generation, error)
	Delete(ctx context.Context, id int64) error
}

type productSource interface {
	GetByID(ctx context.Context, id int64) (*catalog.Product, error)
}

// refCounter reports how many wardrobe items reference a generation.
type refCounter interface {
	CountByGeneration(ctx context.Context, generationID int64) (int, error)
}

type progressNotifier interface {
	GenerationStarted(generationID, userID int64)
	GenerationCompleted(generationID, userID int64, imageURL string)
}

type costSource interface {
	GetFloat(ctx context.Context, key string, fallback float64) (float64, error)
}

type alertQueue interface {
	AdminAlert(severity, message string)
}

// KeyGenerationCost is the platform setting for the per-generation charge.
const KeyGenerationCost = "generation_cost"

const defaultGenerationCost = 1.0

// Service runs try-on generations. The record is created up front so progress
// events carry a stable id; the external generator runs in the background and
// the result lands via a completion event and the record's media reference.
type Service struct {
	store     generationStore
	products  productSource
	refs      refCounter
	generator Generator
	notify    progressNotifier
	costs     costSource
	media     storage.MediaStore
	mail      alertQueue
}

func NewService(store generationStore, products productSource, refs refCounter,
	generator Generator, notify progressNotifier, costs costSource, media storage.MediaStore, mail alertQueue) *Service {
	return &Service{
		store: store, products: products, refs: refs,
		generator: generator, notify: notify, costs: costs, media: media, mail: mail,
	}
}

// Create starts a try-on of a product's garment onto the given person photo.
// The returned generation has no media reference yet; completion arrives over
// the generation's progress room.
func (s *Service) Create(ctx context.Context, userID, productID int64, personImageURL string) (*Generation, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive || len(p.Images) == 0 {
		return nil, catalog.ErrNotFound
	}

	cost, err := s.costs.GetFloat(ctx, KeyGenerationCost, defaultGenerationCost)
	if err != nil {
		return nil, err
	}

	id, err := s.store.Insert(ctx, userID, &productID, cost)
	if err != nil {
		return nil, err
	}
	s.notify.GenerationStarted(id, userID)

	garmentURL := p.Images[0]
	go s.run(id, userID, personImageURL, garmentURL)

	return &Generation{ID: id, UserID: userID, ProductID: &productID, Cost: cost}, nil
}

func (s *Service) run(id, userID int64, personImageURL, garmentURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	resultURL, err := s.generator.TryOn(ctx, personImageURL, garmentURL)
	if err != nil {
		log.Printf("generation %d failed: %v", id, err)
		return
	}
	if err := s.store.SetResult(ctx, id, resultURL); err != nil {
		log.Printf("generation %d: store result: %v", id, err)
		return
	}
	s.notify.GenerationCompleted(id, userID, resultURL)
}

// Delete removes a generation and its media. Deletion is refused while any
// wardrobe item still references the generation; the caller gets the count so
// the client can tell the user what is in the way.
func (s *Service) Delete(ctx context.Context, userID, generationID int64) error {
	g, err := s.store.GetByID(ctx, generationID)
	if err != nil {
		return err
	}
	if g.UserID != userID {
		return ErrForbidden
	}

	refs, err := s.refs.CountByGeneration(ctx, generationID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return &ErrConflict{References: refs}
	}

	if g.ImageURL != "" {
		if err := s.media.Remove([]string{g.ImageURL}); err != nil {
			return fmt.Errorf("remove generation media: %w", err)
		}
	}
	if err := s.store.Delete(ctx, generationID); err != nil {
		log.Printf("FATAL INCONSISTENCY: generation %d media removed but record delete failed: %v", generationID, err)
		s.mail.AdminAlert("critical", fmt.Sprintf("generation %d: media removed but record delete failed: %v", generationID, err))
		return err
	}
	return nil
}

// AsConflict unwraps an ErrConflict if err carries one.
func AsConflict(err error) (*ErrConflict, bool) {
	var c *ErrConflict
	if errors.As(err, &c) {
		return c, true
	}
	return nil, false
}
