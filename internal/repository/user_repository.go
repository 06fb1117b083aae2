package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/issue-service/internal/domain"
)

// UserRepository defines persistence access for users. Save is an upsert
// keyed on a zero id, mirroring the issue store.
type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByDepartment(ctx context.Context, department string) ([]domain.User, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userSelect = `
    SELECT id, username, password_hash, name, email, phone, address, department, created_at, updated_at
    FROM users`

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	if user.ID == 0 {
		const insert = `
            INSERT INTO users (username, password_hash, name, email, phone, address, department, created_at, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
            RETURNING id`
		return r.pool.QueryRow(ctx, insert,
			user.Username,
			user.PasswordHash,
			user.Name,
			user.Email,
			user.Phone,
			user.Address,
			user.Department,
			user.CreatedAt,
			user.UpdatedAt,
		).Scan(&user.ID)
	}

	const update = `
        UPDATE users SET username=$1, password_hash=$2, name=$3, email=$4, phone=$5,
            address=$6, department=$7, updated_at=$8
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, update,
		user.Username,
		user.PasswordHash,
		user.Name,
		user.Email,
		user.Phone,
		user.Address,
		user.Department,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE id=$1`, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE username=$1`, username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE email=$1`, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Address,
		&user.Department,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.listWhere(ctx, userSelect+` ORDER BY id`)
}

func (r *userRepository) ListByDepartment(ctx context.Context, department string) ([]domain.User, error) {
	return r.listWhere(ctx, userSelect+` WHERE department=$1 ORDER BY id`, department)
}

func (r *userRepository) listWhere(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Name,
			&user.Email,
			&user.Phone,
			&user.Address,
			&user.Department,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, id)
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username=$1)`, username)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email=$1)`, email)
}

func (r *userRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, query, arg).Scan(&exists)
	return exists, err
}
