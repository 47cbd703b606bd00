package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/geocoder89/storefront/internal/cache"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/observability"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the persistence contract. Implementations return
// user.ErrNotFound for misses and user.ErrDuplicateEmail when their own
// uniqueness guarantee rejects a Create.
type UserStore interface {
	Create(ctx context.Context, nu user.NewUser) (user.PublicUser, error)
	GetByEmail(ctx context.Context, email string) (user.PublicUser, error)
	GetCredentialsByEmail(ctx context.Context, email string) (user.CredentialRecord, error)
	GetByID(ctx context.Context, id string) (user.PublicUser, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
	CheckDummy(plain string)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     user.Role
}

type LoginInput struct {
	Email    string
	Password string
}

type UsersService struct {
	store  UserStore
	hasher PasswordHasher
	cache  cache.Store
	prom   *observability.Prom
	log    *slog.Logger
}

type Option func(*UsersService)

// WithCache makes GetByID read-through. Users are never mutated by this
// service, so entries only age out by the cache's TTL.
func WithCache(c cache.Store) Option {
	return func(s *UsersService) { s.cache = c }
}

func WithProm(p *observability.Prom) Option {
	return func(s *UsersService) { s.prom = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *UsersService) { s.log = l }
}

func NewUsersService(store UserStore, hasher PasswordHasher, opts ...Option) *UsersService {
	s := &UsersService{
		store:  store,
		hasher: hasher,
		log:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *UsersService) Register(ctx context.Context, in RegisterInput) (user.PublicUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = user.NormalizeEmail(in.Email)
	in.Role = user.RoleOrDefault(in.Role)

	if in.Name == "" || in.Email == "" || in.Password == "" {
		return user.PublicUser{}, fmt.Errorf("%w: name, email and password are required", user.ErrValidation)
	}
	if len(in.Password) > user.MaxPasswordBytes {
		return user.PublicUser{}, fmt.Errorf("%w: password longer than %d bytes", user.ErrValidation, user.MaxPasswordBytes)
	}
	if !in.Role.Valid() {
		return user.PublicUser{}, fmt.Errorf("%w: unknown role %q", user.ErrValidation, in.Role)
	}

	_, err := s.store.GetByEmail(ctx, in.Email)

	switch {
	case err == nil:
		s.prom.ObserveRegistration("duplicate")
		return user.PublicUser{}, user.ErrDuplicateEmail
	case !errors.Is(err, user.ErrNotFound):
		s.prom.ObserveRegistration("error")
		return user.PublicUser{}, s.persistence(ctx, "register.lookup", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return user.PublicUser{}, fmt.Errorf("%w: %w", user.ErrValidation, err)
	}
	if err != nil {
		s.prom.ObserveRegistration("error")
		return user.PublicUser{}, s.persistence(ctx, "register.hash", err)
	}

	created, err := s.store.Create(ctx, user.NewUser{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	})

	if err != nil {
		// lost a race with a concurrent registration; the store had the final say
		if errors.Is(err, user.ErrDuplicateEmail) {
			s.prom.ObserveRegistration("duplicate")
			return user.PublicUser{}, user.ErrDuplicateEmail
		}
		s.prom.ObserveRegistration("error")
		return user.PublicUser{}, s.persistence(ctx, "register.create", err)
	}

	s.prom.ObserveRegistration("created")
	s.log.InfoContext(ctx, "user registered", "user_id", created.ID, "role", created.Role)

	return created, nil
}

// Login answers ErrInvalidCredentials for an unknown email and for a wrong
// password alike, and spends one bcrypt comparison in both cases.
func (s *UsersService) Login(ctx context.Context, in LoginInput) (user.PublicUser, error) {
	email := user.NormalizeEmail(in.Email)

	if email == "" || in.Password == "" {
		s.prom.ObserveLogin("invalid_credentials")
		return user.PublicUser{}, user.ErrInvalidCredentials
	}

	rec, err := s.store.GetCredentialsByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.CheckDummy(in.Password)
			s.prom.ObserveLogin("invalid_credentials")
			return user.PublicUser{}, user.ErrInvalidCredentials
		}
		s.prom.ObserveLogin("error")
		return user.PublicUser{}, s.persistence(ctx, "login.lookup", err)
	}

	if err := s.hasher.Check(rec.PasswordHash, in.Password); err != nil {
		s.prom.ObserveLogin("invalid_credentials")
		return user.PublicUser{}, user.ErrInvalidCredentials
	}

	s.prom.ObserveLogin("success")

	return rec.Public(), nil
}

func (s *UsersService) GetByID(ctx context.Context, id string) (user.PublicUser, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return user.PublicUser{}, user.ErrNotFound
	}

	if u, ok := s.cached(ctx, id); ok {
		return u, nil
	}

	u, err := s.store.GetByID(ctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.PublicUser{}, user.ErrNotFound
		}
		return user.PublicUser{}, s.persistence(ctx, "get_by_id", err)
	}

	s.remember(ctx, u)

	return u, nil
}

func cacheKey(id string) string {
	return "user:" + id
}

func (s *UsersService) cached(ctx context.Context, id string) (user.PublicUser, bool) {
	if s.cache == nil {
		return user.PublicUser{}, false
	}

	b, err := s.cache.Get(ctx, cacheKey(id))

	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			s.prom.ObserveCache("miss")
		} else {
			s.prom.ObserveCache("error")
			s.log.WarnContext(ctx, "user cache read failed", "user_id", id, "err", err)
		}
		return user.PublicUser{}, false
	}

	var u user.PublicUser
	if err := json.Unmarshal(b, &u); err != nil {
		s.prom.ObserveCache("error")
		_ = s.cache.Delete(ctx, cacheKey(id))
		return user.PublicUser{}, false
	}

	s.prom.ObserveCache("hit")
	return u, true
}

func (s *UsersService) remember(ctx context.Context, u user.PublicUser) {
	if s.cache == nil {
		return
	}

	b, err := json.Marshal(u)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, cacheKey(u.ID), b); err != nil {
		s.log.WarnContext(ctx, "user cache write failed", "user_id", u.ID, "err", err)
	}
}

// persistence logs the store cause server side and hides it behind ErrPersistence.
func (s *UsersService) persistence(ctx context.Context, op string, err error) error {
	s.log.ErrorContext(ctx, "user store failure", "op", op, "err", err)
	return fmt.Errorf("%w: %s: %w", user.ErrPersistence, op, err)
}
