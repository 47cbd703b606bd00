package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestUsersRepo_CreateAndLookup(t *testing.T) {
	repo := NewUsersRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, user.NewUser{Name: "A", Email: "User@Example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "user@example.com", created.Email)
	require.Equal(t, user.RoleUser, created.Role)
	require.True(t, created.IsActive)
	require.False(t, created.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, byID)

	byEmail, err := repo.GetByEmail(ctx, "USER@example.COM")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)

	creds, err := repo.GetCredentialsByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, "hash", creds.PasswordHash)
}

func TestUsersRepo_NotFound(t *testing.T) {
	repo := NewUsersRepo()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, user.ErrNotFound)

	_, err = repo.GetCredentialsByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_UniqueEmailUnderConcurrency(t *testing.T) {
	repo := NewUsersRepo()
	ctx := context.Background()

	const attempts = 16
	results := make([]error, attempts)

	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		i := i
		g.Go(func() error {
			email := "race@example.com"
			if i%2 == 1 {
				email = "RACE@example.com"
			}
			_, results[i] = repo.Create(ctx, user.NewUser{Name: fmt.Sprintf("u%d", i), Email: email, PasswordHash: "h"})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok, dup := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case err == user.ErrDuplicateEmail:
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	require.Equal(t, 1, ok)
	require.Equal(t, attempts-1, dup)
	require.Equal(t, 1, repo.Count())
}

func TestUsersRepo_CanceledContext(t *testing.T) {
	repo := NewUsersRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Create(ctx, user.NewUser{Name: "A", Email: "a@b.com", PasswordHash: "h"})
	require.ErrorIs(t, err, context.Canceled)
}
