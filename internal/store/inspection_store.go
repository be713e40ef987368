package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/homeinspect/internal/domain"
)

type InspectionStore struct {
	db *sql.DB
}

func NewInspectionStore(db *sql.DB) *InspectionStore {
	return &InspectionStore{db: db}
}

const inspectionColumns = `id, house_id, user_id, title, notes, inspection_date, created_at, updated_at`

func scanInspection(row rowScanner) (*domain.Inspection, error) {
	in := &domain.Inspection{}
	var notes sql.NullString
	err := row.Scan(&in.ID, &in.HouseID, &in.UserID, &in.Title, &notes, &in.InspectionDate, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return nil, err
	}
	in.Notes = stringPtr(notes)
	return in, nil
}

// Create inserts an inspection under houseID. The owner is copied from the
// house row, so an inspection can only be attached to one of userID's houses;
// ErrNotFound is returned otherwise.
func (s *InspectionStore) Create(ctx context.Context, userID, houseID, title string, notes *string, inspectionDate time.Time) (*domain.Inspection, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO inspections (id, house_id, user_id, title, notes, inspection_date, created_at, updated_at)
		SELECT ?, h.id, h.user_id, ?, ?, ?, ?, ? FROM houses h WHERE h.id = ? AND h.user_id = ?
	`, id, title, nullString(notes), inspectionDate.UTC(), now, now, houseID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create inspection: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(ctx, userID, id)
}

// GetByID returns the inspection when it belongs to userID.
func (s *InspectionStore) GetByID(ctx context.Context, userID, id string) (*domain.Inspection, error) {
	in, err := scanInspection(s.db.QueryRowContext(ctx, `
		SELECT `+inspectionColumns+` FROM inspections WHERE id = ? AND user_id = ?
	`, id, userID))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection: %w", err)
	}
	return in, nil
}

// GetInHouse is GetByID narrowed to a single house.
func (s *InspectionStore) GetInHouse(ctx context.Context, userID, houseID, id string) (*domain.Inspection, error) {
	in, err := scanInspection(s.db.QueryRowContext(ctx, `
		SELECT `+inspectionColumns+` FROM inspections WHERE id = ? AND house_id = ? AND user_id = ?
	`, id, houseID, userID))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection: %w", err)
	}
	return in, nil
}

// ListByHouse returns the house's inspections, most recent inspection date first.
func (s *InspectionStore) ListByHouse(ctx context.Context, userID, houseID string) ([]*domain.Inspection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+inspectionColumns+` FROM inspections
		WHERE house_id = ? AND user_id = ?
		ORDER BY inspection_date DESC, created_at DESC, rowid DESC
	`, houseID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	inspections := make([]*domain.Inspection, 0)
	for rows.Next() {
		in, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inspection: %w", err)
		}
		inspections = append(inspections, in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inspections: %w", err)
	}
	return inspections, nil
}

func (s *InspectionStore) ListIDsByHouse(ctx context.Context, userID, houseID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM inspections WHERE house_id = ? AND user_id = ?
	`, houseID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspection ids: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan inspection id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inspection ids: %w", err)
	}
	return ids, nil
}

// Update writes title, notes and date and returns the persisted row.
func (s *InspectionStore) Update(ctx context.Context, userID, id, title string, notes *string, inspectionDate time.Time) (*domain.Inspection, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE inspections SET title = ?, notes = ?, inspection_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, title, nullString(notes), inspectionDate.UTC(), time.Now().UTC(), id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update inspection: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(ctx, userID, id)
}

func (s *InspectionStore) Delete(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM inspections WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete inspection: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
