package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// no password_hash here; only GetCredentialsByEmail reads it.
const publicColumns = `id::text, name, email, role, is_active, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (u user.PublicUser, err error) {
	err = r.observe("users.create", func() error {
		return scanPublic(r.pool.QueryRow(ctx,
			`INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING `+publicColumns,
			nu.Name, user.NormalizeEmail(nu.Email), nu.PasswordHash, string(user.RoleOrDefault(nu.Role)),
		), &u)
	})

	if err != nil {
		// the unique index on email is the authoritative duplicate check
		if observability.IsUniqueViolation(err) {
			return user.PublicUser{}, user.ErrDuplicateEmail
		}
		return user.PublicUser{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (u user.PublicUser, err error) {
	err = r.observe("users.get_by_email", func() error {
		return scanPublic(r.pool.QueryRow(ctx,
			`SELECT `+publicColumns+`
			FROM users
			WHERE email = $1`,
			user.NormalizeEmail(email),
		), &u)
	})

	if err != nil {
		return user.PublicUser{}, mapNoRows(err)
	}
	return u, nil
}

func (r *UsersRepo) GetCredentialsByEmail(ctx context.Context, email string) (rec user.CredentialRecord, err error) {
	var role string

	err = r.observe("users.get_credentials_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT `+publicColumns+`, password_hash
			FROM users
			WHERE email = $1`,
			user.NormalizeEmail(email),
		).Scan(
			&rec.ID,
			&rec.Name,
			&rec.Email,
			&role,
			&rec.IsActive,
			&rec.CreatedAt,
			&rec.UpdatedAt,
			&rec.PasswordHash,
		)
	})

	if err != nil {
		return user.CredentialRecord{}, mapNoRows(err)
	}

	rec.Role = user.Role(role)
	return rec, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (u user.PublicUser, err error) {
	// a malformed id can never match a row; answer before Postgres rejects the cast
	if _, parseErr := uuid.Parse(id); parseErr != nil {
		return user.PublicUser{}, user.ErrNotFound
	}

	err = r.observe("users.get_by_id", func() error {
		return scanPublic(r.pool.QueryRow(ctx,
			`SELECT `+publicColumns+`
			FROM users
			WHERE id = $1`,
			id,
		), &u)
	})

	if err != nil {
		return user.PublicUser{}, mapNoRows(err)
	}
	return u, nil
}

func scanPublic(row pgx.Row, u *user.PublicUser) error {
	var role string

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&role,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return err
	}

	u.Role = user.Role(role)
	return nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return user.ErrNotFound
	}
	return err
}
