package store

import (
	"context"
	"errors"
	"time"

	"github.com/Mylifeforrent/react-management-backend/pkg/models"
)

var (
	// ErrNotFound is returned when no user matches the lookup
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a username or email is already taken
	ErrDuplicate = errors.New("username or email already exists")
)

// ListFilter narrows and pages a user listing
type ListFilter struct {
	Search  string // Matches username, email, or real name
	Role    models.Role
	Status  models.Status
	Page    int
	PerPage int
}

// Stats summarizes the user population for dashboard reporting
type Stats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Admins int `json:"admin"`
	Recent int `json:"recent"`
}

// DailyCount is one day of signup counts
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// UserStore is the persistence contract consumed by the auth subsystem
// and the API handlers.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns one page of users plus the total match count
	List(ctx context.Context, filter ListFilter) ([]*models.User, int, error)

	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error

	// Stats counts users overall, active, admin, and created since the
	// given time
	Stats(ctx context.Context, since time.Time) (*Stats, error)
	CountByRole(ctx context.Context) (map[models.Role]int, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	DailySignups(ctx context.Context, days int) ([]DailyCount, error)
}
