package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/Mylifeforrent/react-management-backend/pkg/models"
)

// Dialect selects the SQL flavor used for placeholders and schema DDL
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	real_name TEXT,
	phone TEXT,
	avatar TEXT,
	role TEXT NOT NULL DEFAULT 'user',
	status TEXT NOT NULL DEFAULT 'active',
	last_login TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username VARCHAR(80) NOT NULL UNIQUE,
	email VARCHAR(120) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	real_name VARCHAR(100),
	phone VARCHAR(20),
	avatar VARCHAR(255),
	role VARCHAR(20) NOT NULL DEFAULT 'user',
	status VARCHAR(20) NOT NULL DEFAULT 'active',
	last_login TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
`

const userColumns = "id, username, email, password_hash, real_name, phone, avatar, role, status, last_login, created_at, updated_at"

// SQLStore implements UserStore over database/sql
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLStore creates a store for the given connection and dialect
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

// EnsureSchema creates the users table and indexes if they do not exist
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	schema := sqliteSchema
	if s.dialect == DialectPostgres {
		schema = postgresSchema
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure users table: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $N for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// translateErr maps driver-specific unique constraint violations to ErrDuplicate
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrDuplicate
	}
	return err
}

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var (
		u                       models.User
		realName, phone, avatar sql.NullString
		lastLogin               sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &realName, &phone, &avatar,
		&u.Role, &u.Status, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.RealName = realName.String
	u.Phone = phone.String
	u.Avatar = avatar.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (s *SQLStore) findBy(ctx context.Context, column, value interface{}) (*models.User, error) {
	query := s.rebind(fmt.Sprintf("SELECT %s FROM users WHERE %s = ?", userColumns, column))
	user, err := scanUser(s.db.QueryRowContext(ctx, query, value))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// FindByID looks up a user by primary key
func (s *SQLStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findBy(ctx, "id", id)
}

// FindByUsername looks up a user by username
func (s *SQLStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findBy(ctx, "username", username)
}

// FindByEmail looks up a user by email
func (s *SQLStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findBy(ctx, "email", email)
}

// List returns one page of users matching the filter, newest first,
// plus the total match count.
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]*models.User, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 10
	}

	var conds []string
	var args []interface{}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conds = append(conds, "(username LIKE ? OR email LIKE ? OR real_name LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := s.rebind("SELECT COUNT(*) FROM users" + where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	pageQuery := s.rebind(fmt.Sprintf(
		"SELECT %s FROM users%s ORDER BY created_at DESC LIMIT ? OFFSET ?", userColumns, where))
	pageArgs := append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := s.db.QueryContext(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, total, nil
}

// Create inserts a new user and fills in its ID and timestamps
func (s *SQLStore) Create(ctx context.Context, user *models.User) error {
	now := s.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if s.dialect == DialectPostgres {
		query := s.rebind(`INSERT INTO users (username, email, password_hash, real_name, phone, avatar, role, status, last_login, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
		err := s.db.QueryRowContext(ctx, query,
			user.Username, user.Email, user.PasswordHash, user.RealName, user.Phone, user.Avatar,
			user.Role, user.Status, user.LastLoginAt, now, now).Scan(&user.ID)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", translateErr(err))
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, real_name, phone, avatar, role, status, last_login, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.RealName, user.Phone, user.Avatar,
		user.Role, user.Status, user.LastLoginAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new user id: %w", err)
	}
	user.ID = id
	return nil
}

// Update persists every mutable field of the user
func (s *SQLStore) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = s.now().UTC()
	query := s.rebind(`UPDATE users SET username = ?, email = ?, password_hash = ?, real_name = ?, phone = ?, avatar = ?, role = ?, status = ?, last_login = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.RealName, user.Phone, user.Avatar,
		user.Role, user.Status, user.LastLoginAt, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translateErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user by ID
func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	query := s.rebind("DELETE FROM users WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats counts the user population for dashboard reporting
func (s *SQLStore) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	var stats Stats
	counts := []struct {
		query string
		args  []interface{}
		dest  *int
	}{
		{"SELECT COUNT(*) FROM users", nil, &stats.Total},
		{"SELECT COUNT(*) FROM users WHERE status = ?", []interface{}{models.StatusActive}, &stats.Active},
		{"SELECT COUNT(*) FROM users WHERE role = ?", []interface{}{models.RoleAdmin}, &stats.Admins},
		{"SELECT COUNT(*) FROM users WHERE created_at >= ?", []interface{}{since}, &stats.Recent},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, s.rebind(c.query), c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count users: %w", err)
		}
	}
	return &stats, nil
}

// CountByRole returns the number of users holding each role
func (s *SQLStore) CountByRole(ctx context.Context) (map[models.Role]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT role, COUNT(*) FROM users GROUP BY role")
	if err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	defer rows.Close()

	result := make(map[models.Role]int)
	for rows.Next() {
		var role models.Role
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("failed to scan role count: %w", err)
		}
		result[role] = count
	}
	return result, rows.Err()
}

// CountByStatus returns the number of users in each status
func (s *SQLStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM users GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count users by status: %w", err)
	}
	defer rows.Close()

	result := make(map[models.Status]int)
	for rows.Next() {
		var status models.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		result[status] = count
	}
	return result, rows.Err()
}

// DailySignups counts registrations per day for the trailing window,
// oldest day first. One count query per day keeps the SQL portable
// across both dialects.
func (s *SQLStore) DailySignups(ctx context.Context, days int) ([]DailyCount, error) {
	if days < 1 {
		days = 1
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))

	query := s.rebind("SELECT COUNT(*) FROM users WHERE created_at >= ? AND created_at < ?")
	result := make([]DailyCount, 0, days)
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		var count int
		if err := s.db.QueryRowContext(ctx, query, day, day.AddDate(0, 0, 1)).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count signups: %w", err)
		}
		result = append(result, DailyCount{Date: day.Format("2006-01-02"), Count: count})
	}
	return result, nil
}
