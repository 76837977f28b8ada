package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

const userColumns = `id, email, username, password_hash, image_key, image_url, created_at, updated_at`

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: pool}
}

func (r *UserRepo) Save(ctx context.Context, user *domain.User) error {
	q := `
		INSERT INTO users (id, email, username, password_hash, image_key, image_url, created_at, updated_at)
		VALUES (@id, @email, @username, @password_hash, @image_key, @image_url, @created_at, @updated_at)
	`
	if _, err := r.db.Exec(ctx, q, userArgs(user)); err != nil {
		return handleUserError(err)
	}
	return nil
}

// Update réécrit le profil et le hash. created_at n'est jamais touché.
func (r *UserRepo) Update(ctx context.Context, user *domain.User) error {
	q := `
		UPDATE users
		SET email = @email, username = @username, password_hash = @password_hash,
		    image_key = @image_key, image_url = @image_url, updated_at = @updated_at
		WHERE id = @id
	`
	tag, err := r.db.Exec(ctx, q, userArgs(user))
	if err != nil {
		return handleUserError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func userArgs(user *domain.User) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":            user.ID,
		"email":         user.Email,
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"image_key":     user.ImageKey,
		"image_url":     user.ImageURL,
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
	}
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("db: get by email: %w", err)
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("db: get user %s: %w", id, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.ImageKey, &u.ImageURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// handleUserError traduit les codes PostgreSQL en erreurs du domaine
func handleUserError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation, seul l'email est unique
			return domain.ErrEmailAlreadyExists
		case "22P02": // invalid_text_representation (UUID mal formé)
			return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.Message)
		}
	}
	return err
}
