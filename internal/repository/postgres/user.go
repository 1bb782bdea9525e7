package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
)

const userColumns = `id, email, first_name, last_name, phone_number, role, created_at, updated_at`

// UserRepository implements user.Repository
type UserRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, dialect Dialect) user.Repository {
	return &UserRepository{db: db, dialect: dialect}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = user.RoleCitizen
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO users (%s) VALUES (%s)`, userColumns, placeholders(8))
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		u.ID, u.Email, u.FirstName, u.LastName, u.PhoneNumber, string(u.Role), formatTime(now), formatTime(now),
	)
	if err != nil {
		return errors.StoreFailure("Failed to create user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = ?`, userColumns)
	u, err := scanUser(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.StoreFailure("Failed to get user", err)
	}
	return u, nil
}

// GetMany retrieves users by ID
func (r *UserRepository) GetMany(ctx context.Context, ids []string) (map[string]*user.User, error) {
	out := make(map[string]*user.User, len(ids))

	uniq := make([]interface{}, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		uniq = append(uniq, id)
	}
	if len(uniq) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE id IN (%s)`, userColumns, placeholders(len(uniq)))
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), uniq...)
	if err != nil {
		return nil, errors.StoreFailure("Failed to get users", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.StoreFailure("Failed to scan user", err)
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// AddPushToken registers a device token, ignoring duplicates
func (r *UserRepository) AddPushToken(ctx context.Context, userID, token string) error {
	query := `INSERT INTO push_tokens (user_id, token, created_at) VALUES (?, ?, ?) ON CONFLICT (user_id, token) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), userID, token, formatTime(time.Now())); err != nil {
		return errors.StoreFailure("Failed to save push token", err)
	}
	return nil
}

// ListPushTokensByRoles returns the distinct tokens of users in any of roles
func (r *UserRepository) ListPushTokensByRoles(ctx context.Context, roles []user.Role) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	args := make([]interface{}, len(roles))
	for i, role := range roles {
		args[i] = string(role)
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT t.token
		FROM push_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE u.role IN (%s)
		ORDER BY t.token
	`, placeholders(len(roles)))

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, errors.StoreFailure("Failed to list push tokens", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, errors.StoreFailure("Failed to scan push token", err)
		}
		if strings.TrimSpace(token) != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens, rows.Err()
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var role, createdAt, updatedAt string
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &role, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.Role = user.Role(role)
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}
