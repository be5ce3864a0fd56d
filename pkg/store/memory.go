package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Mylifeforrent/react-management-backend/pkg/models"
)

// MemoryStore is an in-memory UserStore used by tests and local
// experiments. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	nextID int64
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[int64]*models.User),
		nextID: 1,
		now:    time.Now,
	}
}

func (s *MemoryStore) clone(u *models.User) *models.User {
	cp := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}

// FindByID looks up a user by ID
func (s *MemoryStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(u), nil
}

// FindByUsername looks up a user by username
func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return s.clone(u), nil
		}
	}
	return nil, ErrNotFound
}

// FindByEmail looks up a user by email
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return s.clone(u), nil
		}
	}
	return nil, ErrNotFound
}

func matches(u *models.User, filter ListFilter) bool {
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(u.Username), needle) &&
			!strings.Contains(strings.ToLower(u.Email), needle) &&
			!strings.Contains(strings.ToLower(u.RealName), needle) {
			return false
		}
	}
	if filter.Role != "" && u.Role != filter.Role {
		return false
	}
	if filter.Status != "" && u.Status != filter.Status {
		return false
	}
	return true
}

// List returns one page of matching users, newest first, plus the total
// match count
func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*models.User, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 10
	}

	s.mu.RLock()
	var all []*models.User
	for _, u := range s.users {
		if matches(u, filter) {
			all = append(all, s.clone(u))
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := (filter.Page - 1) * filter.PerPage
	if start >= total {
		return nil, total, nil
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// Create inserts a new user, assigning an ID and timestamps
func (s *MemoryStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrDuplicate
		}
	}
	now := s.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.ID = s.nextID
	s.nextID++
	s.users[user.ID] = s.clone(user)
	return nil
}

// Update persists every mutable field of the user
func (s *MemoryStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	for _, u := range s.users {
		if u.ID != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return ErrDuplicate
		}
	}
	user.UpdatedAt = s.now().UTC()
	s.users[user.ID] = s.clone(user)
	return nil
}

// Delete removes a user by ID
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// Stats counts the user population
func (s *MemoryStore) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats Stats
	for _, u := range s.users {
		stats.Total++
		if u.Status == models.StatusActive {
			stats.Active++
		}
		if u.Role == models.RoleAdmin {
			stats.Admins++
		}
		if !u.CreatedAt.Before(since) {
			stats.Recent++
		}
	}
	return &stats, nil
}

// CountByRole returns the number of users holding each role
func (s *MemoryStore) CountByRole(ctx context.Context) (map[models.Role]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[models.Role]int)
	for _, u := range s.users {
		result[u.Role]++
	}
	return result, nil
}

// CountByStatus returns the number of users in each status
func (s *MemoryStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[models.Status]int)
	for _, u := range s.users {
		result[u.Status]++
	}
	return result, nil
}

// DailySignups counts registrations per day for the trailing window,
// oldest day first
func (s *MemoryStore) DailySignups(ctx context.Context, days int) ([]DailyCount, error) {
	if days < 1 {
		days = 1
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]DailyCount, 0, days)
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		count := 0
		for _, u := range s.users {
			if !u.CreatedAt.Before(day) && u.CreatedAt.Before(next) {
				count++
			}
		}
		result = append(result, DailyCount{Date: day.Format("2006-01-02"), Count: count})
	}
	return result, nil
}
