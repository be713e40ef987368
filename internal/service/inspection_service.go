package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/form"
	"github.com/vbonduro/homeinspect/internal/photostore"
	"github.com/vbonduro/homeinspect/internal/store"
)

// inspectionRepository is the subset of store.InspectionStore that the services require.
type inspectionRepository interface {
	Create(ctx context.Context, userID, houseID, title string, notes *string, inspectionDate time.Time) (*domain.Inspection, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Inspection, error)
	GetInHouse(ctx context.Context, userID, houseID, id string) (*domain.Inspection, error)
	ListByHouse(ctx context.Context, userID, houseID string) ([]*domain.Inspection, error)
	ListIDsByHouse(ctx context.Context, userID, houseID string) ([]string, error)
	Update(ctx context.Context, userID, id, title string, notes *string, inspectionDate time.Time) (*domain.Inspection, error)
	Delete(ctx context.Context, userID, id string) error
}

type InspectionService struct {
	houses      houseRepository
	inspections inspectionRepository
	photoStg    photostore.PhotoStore
	logger      *slog.Logger
}

func NewInspectionService(houses houseRepository, inspections inspectionRepository, photoStg photostore.PhotoStore, logger *slog.Logger) *InspectionService {
	return &InspectionService{houses: houses, inspections: inspections, photoStg: photoStg, logger: logger}
}

func (s *InspectionService) requireHouse(ctx context.Context, userID, houseID string) error {
	house, err := s.houses.GetByID(ctx, userID, houseID)
	if err != nil {
		return err
	}
	if house == nil {
		return ErrNotFound
	}
	return nil
}

// List returns the house's inspections, most recent inspection date first.
func (s *InspectionService) List(ctx context.Context, userID, houseID string) ([]*domain.Inspection, error) {
	if err := s.requireHouse(ctx, userID, houseID); err != nil {
		return nil, err
	}
	inspections, err := s.inspections.ListByHouse(ctx, userID, houseID)
	if err != nil {
		return nil, err
	}
	if inspections == nil {
		inspections = []*domain.Inspection{}
	}
	return inspections, nil
}

func (s *InspectionService) Get(ctx context.Context, userID, houseID, id string) (*domain.Inspection, error) {
	in, err := s.inspections.GetInHouse(ctx, userID, houseID, id)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, ErrNotFound
	}
	return in, nil
}

func (s *InspectionService) Create(ctx context.Context, userID, houseID string, in form.InspectionInput) (*domain.Inspection, error) {
	fields, err := in.Validate()
	if err != nil {
		return nil, err
	}
	inspection, err := s.inspections.Create(ctx, userID, houseID, fields.Title, fields.Notes, fields.InspectionDate)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("inspection created", "inspection_id", inspection.ID, "house_id", houseID)
	return inspection, nil
}

func (s *InspectionService) Update(ctx context.Context, userID, id string, in form.InspectionInput) (*domain.Inspection, error) {
	fields, err := in.Validate()
	if err != nil {
		return nil, err
	}
	inspection, err := s.inspections.Update(ctx, userID, id, fields.Title, fields.Notes, fields.InspectionDate)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return inspection, nil
}

// Delete removes the inspection row, then its images.
func (s *InspectionService) Delete(ctx context.Context, userID, id string) error {
	err := s.inspections.Delete(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.logger.Info("inspection deleted", "inspection_id", id)
	removeImages(ctx, s.photoStg, s.logger, id)
	return nil
}
