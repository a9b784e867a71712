package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
	"github.com/readtrackapp/readtrack-server/internal/id"
)

func TestCreateUser(t *testing.T) {
	envs := map[string]*testEnv{
		"sqlite": setupTestEnv(t),
		"badger": setupBadgerTestEnv(t, clock.NewCalendar(time.UTC)),
	}

	for name, env := range envs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			user, err := env.users.Create(ctx, "  Ada@Example.com ", "  Ada   Lovelace ")
			require.NoError(t, err)
			assert.True(t, id.HasPrefix(user.ID, id.PrefixUser))
			assert.Equal(t, "ada@example.com", user.Email)
			assert.Equal(t, "Ada Lovelace", user.Name)
			assert.Equal(t, testStart, user.CreatedAt)

			got, err := env.users.Get(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, "ada@example.com", got.Email)

			byEmail, err := env.users.GetByEmail(ctx, "ada@EXAMPLE.com")
			require.NoError(t, err)
			assert.Equal(t, user.ID, byEmail.ID)
			assert.Equal(t, "ada@example.com", byEmail.Email)
		})
	}
}

func TestCreateUser_DuplicateEmailIgnoresCase(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "ada@example.com")

	_, err := env.users.Create(ctx, "ADA@example.com", "")
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestCreateUser_InvalidEmail(t *testing.T) {
	env := setupTestEnv(t)

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := env.users.Create(context.Background(), email, "")
		assert.ErrorIs(t, err, domainerrors.ErrInvalidInput, email)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.users.Get(context.Background(), "user-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.users.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
