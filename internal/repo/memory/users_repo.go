package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/google/uuid"
)

// UsersRepo keeps users in process memory. Email uniqueness is enforced under
// the write lock, so it holds for concurrent Creates just like a unique index.
type UsersRepo struct {
	mu      sync.RWMutex
	byID    map[string]user.CredentialRecord
	byEmail map[string]string // normalized email -> id
	now     func() time.Time
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		byID:    make(map[string]user.CredentialRecord),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.PublicUser, error) {
	if err := ctx.Err(); err != nil {
		return user.PublicUser{}, err
	}

	email := user.NormalizeEmail(nu.Email)
	now := r.now().UTC()

	rec := user.CredentialRecord{
		PublicUser: user.PublicUser{
			ID:        uuid.NewString(),
			Name:      nu.Name,
			Email:     email,
			Role:      user.RoleOrDefault(nu.Role),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: nu.PasswordHash,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[email]; taken {
		return user.PublicUser{}, user.ErrDuplicateEmail
	}

	r.byID[rec.ID] = rec
	r.byEmail[email] = rec.ID

	return rec.Public(), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.PublicUser, error) {
	rec, err := r.GetCredentialsByEmail(ctx, email)
	if err != nil {
		return user.PublicUser{}, err
	}
	return rec.Public(), nil
}

func (r *UsersRepo) GetCredentialsByEmail(ctx context.Context, email string) (user.CredentialRecord, error) {
	if err := ctx.Err(); err != nil {
		return user.CredentialRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return user.CredentialRecord{}, user.ErrNotFound
	}

	return r.byID[id], nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.PublicUser, error) {
	if err := ctx.Err(); err != nil {
		return user.PublicUser{}, err
	}

	r.mu.RLock()
	rec, ok := r.byID[id]
	r.mu.RUnlock()

	if !ok {
		return user.PublicUser{}, user.ErrNotFound
	}

	return rec.Public(), nil
}

// Count reports how many users are stored. Test hook; the service never calls it.
func (r *UsersRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
