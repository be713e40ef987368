package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/form"
	"github.com/vbonduro/homeinspect/internal/photostore"
	"github.com/vbonduro/homeinspect/internal/store"
)

// houseRepository is the subset of store.HouseStore that the services require.
type houseRepository interface {
	Create(ctx context.Context, userID, name string, address *string) (*domain.House, error)
	GetByID(ctx context.Context, userID, id string) (*domain.House, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.HouseWithCount, error)
	Update(ctx context.Context, userID, id, name string, address *string) (*domain.House, error)
	Delete(ctx context.Context, userID, id string) error
}

type HouseService struct {
	houses      houseRepository
	inspections inspectionRepository
	photoStg    photostore.PhotoStore
	logger      *slog.Logger
}

func NewHouseService(houses houseRepository, inspections inspectionRepository, photoStg photostore.PhotoStore, logger *slog.Logger) *HouseService {
	return &HouseService{houses: houses, inspections: inspections, photoStg: photoStg, logger: logger}
}

// List returns the caller's houses, newest first, each with its inspection
// count.
func (s *HouseService) List(ctx context.Context, userID string) ([]*domain.HouseWithCount, error) {
	houses, err := s.houses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if houses == nil {
		houses = []*domain.HouseWithCount{}
	}
	return houses, nil
}

func (s *HouseService) Get(ctx context.Context, userID, id string) (*domain.House, error) {
	house, err := s.houses.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if house == nil {
		return nil, ErrNotFound
	}
	return house, nil
}

func (s *HouseService) Create(ctx context.Context, userID string, in form.HouseInput) (*domain.House, error) {
	fields, err := in.Validate()
	if err != nil {
		return nil, err
	}
	house, err := s.houses.Create(ctx, userID, fields.Name, fields.Address)
	if err != nil {
		return nil, err
	}
	s.logger.Info("house created", "house_id", house.ID, "user_id", userID)
	return house, nil
}

func (s *HouseService) Update(ctx context.Context, userID, id string, in form.HouseInput) (*domain.House, error) {
	fields, err := in.Validate()
	if err != nil {
		return nil, err
	}
	house, err := s.houses.Update(ctx, userID, id, fields.Name, fields.Address)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return house, nil
}

// Delete removes the house. Its inspections go with it through the foreign
// key; their stored images are then removed best-effort.
func (s *HouseService) Delete(ctx context.Context, userID, id string) error {
	inspectionIDs, err := s.inspections.ListIDsByHouse(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to list inspections: %w", err)
	}

	err = s.houses.Delete(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.logger.Info("house deleted", "house_id", id, "inspections", len(inspectionIDs))

	for _, inspectionID := range inspectionIDs {
		removeImages(ctx, s.photoStg, s.logger, inspectionID)
	}
	return nil
}

func removeImages(ctx context.Context, ps photostore.PhotoStore, logger *slog.Logger, inspectionID string) {
	n, err := photostore.DeletePrefix(ctx, ps, domain.ImagePrefix(inspectionID))
	if err != nil {
		logger.Error("failed to remove inspection images", "inspection_id", inspectionID, "removed", n, "error", err)
		return
	}
	if n > 0 {
		logger.Debug("inspection images removed", "inspection_id", inspectionID, "count", n)
	}
}
