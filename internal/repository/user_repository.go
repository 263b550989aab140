package repository

import (
	"context"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// UserRepository defines persistence access for application accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, businessUnitID string) ([]domain.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	TouchLogin(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	base
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db persistence.DB) UserRepository {
	return &userRepository{base{db: db}}
}

const userColumns = `id, business_unit_id, role_id, name, email, password_hash, is_active, last_login_at, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (business_unit_id, role_id, name, email, password_hash, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.conn(ctx).QueryRow(ctx, query,
		user.BusinessUnitID,
		user.RoleID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET role_id=$1, name=$2, email=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`

	return r.conn(ctx).QueryRow(ctx, query,
		user.RoleID,
		user.Name,
		user.Email,
		user.IsActive,
		user.ID,
	).Scan(&user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.conn(ctx).QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email)=LOWER($1)`
	return scanUser(r.conn(ctx).QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context, businessUnitID string) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE business_unit_id=$1 ORDER BY name`
	rows, err := r.conn(ctx).Query(ctx, query, businessUnitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanUser)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return execOne(ctx, r.conn(ctx), `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, hash, id)
}

func (r *userRepository) TouchLogin(ctx context.Context, id string) error {
	return execOne(ctx, r.conn(ctx), `UPDATE users SET last_login_at=NOW() WHERE id=$1`, id)
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func scanUser(row rowScanner, extra ...any) (*domain.User, error) {
	var user domain.User
	dest := []any{
		&user.ID,
		&user.BusinessUnitID,
		&user.RoleID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &user, nil
}
