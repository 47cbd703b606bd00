package db

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/service"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	calls []service.RegisterInput
	err   error
}

func (f *fakeRegistrar) Register(_ context.Context, in service.RegisterInput) (user.PublicUser, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return user.PublicUser{}, f.err
	}
	return user.PublicUser{ID: "admin-1", Email: in.Email, Role: in.Role}, nil
}

func TestEnsureAdminUser(t *testing.T) {
	cfg := config.Config{AdminEmail: "admin@shop.test", AdminPassword: "s3cret", AdminName: "Store Admin"}

	t.Run("not configured", func(t *testing.T) {
		f := &fakeRegistrar{}
		seeded, err := EnsureAdminUser(context.Background(), f, config.Config{})
		require.NoError(t, err)
		require.False(t, seeded)
		require.Empty(t, f.calls)
	})

	t.Run("creates admin", func(t *testing.T) {
		f := &fakeRegistrar{}
		seeded, err := EnsureAdminUser(context.Background(), f, cfg)
		require.NoError(t, err)
		require.True(t, seeded)
		require.Len(t, f.calls, 1)
		require.Equal(t, user.RoleAdmin, f.calls[0].Role)
		require.Equal(t, "admin@shop.test", f.calls[0].Email)
	})

	t.Run("already seeded", func(t *testing.T) {
		f := &fakeRegistrar{err: user.ErrDuplicateEmail}
		seeded, err := EnsureAdminUser(context.Background(), f, cfg)
		require.NoError(t, err)
		require.False(t, seeded)
	})

	t.Run("store failure", func(t *testing.T) {
		boom := errors.New("boom")
		f := &fakeRegistrar{err: boom}
		_, err := EnsureAdminUser(context.Background(), f, cfg)
		require.ErrorIs(t, err, boom)
	})
}
