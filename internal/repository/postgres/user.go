package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
)

const userColumns = `id, first_name, last_name, email, phone, password_hash, role,
	is_active, current_site_id, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			first_name, last_name, email, phone, password_hash, role,
			is_active, current_site_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		nullString(user.Phone),
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.CurrentSiteID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err := r.observe("user_create", err); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, "user_get", "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "user_get_by_email", "SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER($1)", email)
}

func (r *userRepository) getOne(ctx context.Context, op, query string, arg interface{}) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		r.observe(op, nil)
		return nil, nil
	}
	if err := r.observe(op, err); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
