package db

import (
	"context"
	"errors"

	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/service"
)

type Registrar interface {
	Register(ctx context.Context, in service.RegisterInput) (user.PublicUser, error)
}

// EnsureAdminUser registers the configured admin account once. An existing
// account with that email counts as already seeded.
func EnsureAdminUser(ctx context.Context, users Registrar, cfg config.Config) (bool, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	_, err := users.Register(ctx, service.RegisterInput{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     user.RoleAdmin,
	})

	if errors.Is(err, user.ErrDuplicateEmail) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
