package domain

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// House is a property owned by exactly one user. Names need not be unique.
type House struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HouseWithCount is the list row: a persisted house plus the number of
// inspections recorded against it. The count is never stored.
type HouseWithCount struct {
	House
	InspectionCount int `json:"inspection_count"`
}

type Inspection struct {
	ID             string    `json:"id"`
	HouseID        string    `json:"house_id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Notes          *string   `json:"notes"`
	InspectionDate time.Time `json:"inspection_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Image is a stored photo. It has no row of its own: the storage path
// inspections/<inspection_id>/<id> is the relation to its inspection.
type Image struct {
	ID           string     `json:"id"`
	InspectionID string     `json:"inspection_id"`
	Path         string     `json:"path"`
	URL          string     `json:"url"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// Object describes a blob in the storage bucket.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}
