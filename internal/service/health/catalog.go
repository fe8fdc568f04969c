package health

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
	"github.com/mamadbah2/swinewatch/internal/repository"
)

// RegisterBreed stores a breed profile after checking its bands. Cached
// reports of every pig of that breed are dropped, since their band changed.
func (s *Service) RegisterBreed(ctx context.Context, breed models.BreedProfile) (models.BreedProfile, error) {
	if err := breed.Validate(); err != nil {
		return models.BreedProfile{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if breed.ID == "" {
		breed.ID = s.newID()
	}
	if err := s.repo.SaveBreed(ctx, breed); err != nil {
		return models.BreedProfile{}, err
	}
	s.logger.Info("breed registered", zap.String("breed_id", breed.ID), zap.String("name", breed.Name))

	if s.cache != nil {
		pigs, err := s.repo.ListPigs(ctx)
		if err != nil {
			return models.BreedProfile{}, fmt.Errorf("list pigs of breed %s: %w", breed.ID, err)
		}
		for _, pig := range pigs {
			if pig.BreedID == breed.ID {
				s.invalidate(ctx, pig.ID)
			}
		}
	}
	return breed, nil
}

// RegisterPig stores a pig whose breed is already known.
func (s *Service) RegisterPig(ctx context.Context, pig models.Pig) (models.Pig, error) {
	if !pig.Category.Valid() {
		return models.Pig{}, fmt.Errorf("%w: category %q must be Adult or Young", ErrInvalidInput, pig.Category)
	}

	if _, err := s.repo.GetBreed(ctx, pig.BreedID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Pig{}, fmt.Errorf("%w: %s", ErrBreedNotFound, pig.BreedID)
		}
		return models.Pig{}, err
	}

	if pig.ID == "" {
		pig.ID = s.newID()
	}
	if pig.CreatedAt.IsZero() {
		pig.CreatedAt = s.now().UTC()
	}
	if err := s.repo.SavePig(ctx, pig); err != nil {
		return models.Pig{}, err
	}
	s.invalidate(ctx, pig.ID)
	s.logger.Info("pig registered", zap.String("pig_id", pig.ID), zap.String("breed_id", pig.BreedID))
	return pig, nil
}

// ListPigs returns every registered pig.
func (s *Service) ListPigs(ctx context.Context) ([]models.Pig, error) {
	return s.repo.ListPigs(ctx)
}

// RegisterChecklistItem adds or replaces a symptom in the catalog.
func (s *Service) RegisterChecklistItem(ctx context.Context, item models.ChecklistItem) (models.ChecklistItem, error) {
	if item.Name == "" {
		return models.ChecklistItem{}, fmt.Errorf("%w: checklist item name must be provided", ErrInvalidInput)
	}
	if item.RiskWeight < 1 || item.RiskWeight > 5 {
		return models.ChecklistItem{}, fmt.Errorf("%w: risk weight %d must be between 1 and 5", ErrInvalidInput, item.RiskWeight)
	}
	if item.ID == "" {
		item.ID = s.newID()
	}
	if err := s.repo.SaveChecklistItem(ctx, item); err != nil {
		return models.ChecklistItem{}, err
	}
	return item, nil
}

// ListChecklistItems returns the symptom catalog.
func (s *Service) ListChecklistItems(ctx context.Context) ([]models.ChecklistItem, error) {
	return s.repo.ListChecklistItems(ctx)
}
