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

type HouseStore struct {
	db *sql.DB
}

func NewHouseStore(db *sql.DB) *HouseStore {
	return &HouseStore{db: db}
}

const houseColumns = `id, user_id, name, address, created_at, updated_at`

func scanHouse(row rowScanner, extra ...any) (*domain.House, error) {
	house := &domain.House{}
	var address sql.NullString
	dest := append([]any{&house.ID, &house.UserID, &house.Name, &address, &house.CreatedAt, &house.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	house.Address = stringPtr(address)
	return house, nil
}

func (s *HouseStore) Create(ctx context.Context, userID, name string, address *string) (*domain.House, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO houses (id, user_id, name, address, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
	`, id, userID, name, nullString(address), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create house: %w", err)
	}

	return s.GetByID(ctx, userID, id)
}

// GetByID returns the house only when it belongs to userID.
func (s *HouseStore) GetByID(ctx context.Context, userID, id string) (*domain.House, error) {
	house, err := scanHouse(s.db.QueryRowContext(ctx, `
		SELECT `+houseColumns+` FROM houses WHERE id = ? AND user_id = ?
	`, id, userID))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get house: %w", err)
	}
	return house, nil
}

// ListByUser returns the user's houses, newest first, each with its
// inspection count.
func (s *HouseStore) ListByUser(ctx context.Context, userID string) ([]*domain.HouseWithCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.user_id, h.name, h.address, h.created_at, h.updated_at,
			(SELECT COUNT(*) FROM inspections i WHERE i.house_id = h.id) AS inspection_count
		FROM houses h
		WHERE h.user_id = ?
		ORDER BY h.created_at DESC, h.rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list houses: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	houses := make([]*domain.HouseWithCount, 0)
	for rows.Next() {
		var count int
		house, err := scanHouse(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("failed to scan house: %w", err)
		}
		houses = append(houses, &domain.HouseWithCount{House: *house, InspectionCount: count})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating houses: %w", err)
	}
	return houses, nil
}

// Update writes name and address and returns the persisted row.
func (s *HouseStore) Update(ctx context.Context, userID, id, name string, address *string) (*domain.House, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE houses SET name = ?, address = ?, updated_at = ? WHERE id = ? AND user_id = ?
	`, name, nullString(address), time.Now().UTC(), id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update house: %w", err)
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

// Delete removes the house; its inspections go with it through the foreign key.
func (s *HouseStore) Delete(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM houses WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete house: %w", err)
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
