package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
)

func TestUpdatePage_StatusTransitions(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, "ada@example.com")
	entry := env.shelve(t, user.ID, "Kindred", 300)
	ubID := entry.Progress.ID

	env.clock.Advance(time.Hour)
	p, err := env.progress.UpdatePage(ctx, user.ID, ubID, 50)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReading, p.Status)
	assert.Equal(t, 50, p.CurrentPage)
	require.NotNil(t, p.StartedAt)
	startedAt := *p.StartedAt
	assert.Nil(t, p.CompletedAt)

	env.clock.Advance(time.Hour)
	p, err = env.progress.UpdatePage(ctx, user.ID, ubID, 120)
	require.NoError(t, err)
	assert.True(t, startedAt.Equal(*p.StartedAt), "startedAt is stamped once")

	env.clock.Advance(time.Hour)
	p, err = env.progress.UpdatePage(ctx, user.ID, ubID, 300)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, p.Status)
	require.NotNil(t, p.CompletedAt)
	completedAt := *p.CompletedAt

	// Paging back does not undo completion.
	env.clock.Advance(time.Hour)
	p, err = env.progress.UpdatePage(ctx, user.ID, ubID, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, p.Status)
	assert.Equal(t, 10, p.CurrentPage)
	assert.True(t, completedAt.Equal(*p.CompletedAt))

	stored, err := env.library.GetBook(ctx, user.ID, ubID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Progress.CurrentPage)
	assert.Equal(t, domain.StatusCompleted, stored.Progress.Status)
}

func TestUpdatePage_JumpStraightToLastPage(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, "ada@example.com")
	entry := env.shelve(t, user.ID, "Kindred", 300)

	p, err := env.progress.UpdatePage(ctx, user.ID, entry.Progress.ID, 300)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, p.Status)
	assert.NotNil(t, p.CompletedAt)
	assert.Nil(t, p.StartedAt)
}

func TestUpdatePage_PageZeroKeepsStatus(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, "ada@example.com")
	entry := env.shelve(t, user.ID, "Kindred", 300)

	p, err := env.progress.UpdatePage(ctx, user.ID, entry.Progress.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotStarted, p.Status)

	_, err = env.progress.UpdatePage(ctx, user.ID, entry.Progress.ID, 20)
	require.NoError(t, err)
	p, err = env.progress.UpdatePage(ctx, user.ID, entry.Progress.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReading, p.Status)
	assert.Zero(t, p.CurrentPage)
}

func TestUpdatePage_Errors(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.newUser(t, "ada@example.com")
	intruder := env.newUser(t, "eve@example.com")
	entry := env.shelve(t, owner.ID, "Kindred", 300)

	tests := []struct {
		name    string
		userID  string
		ubID    string
		page    int
		wantErr error
	}{
		{"negative page", owner.ID, entry.Progress.ID, -1, domainerrors.ErrInvalidInput},
		{"past the end", owner.ID, entry.Progress.ID, 301, domainerrors.ErrInvalidInput},
		{"another user", intruder.ID, entry.Progress.ID, 10, domainerrors.ErrForbidden},
		{"missing book", owner.ID, "ub-missing", 10, domainerrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.progress.UpdatePage(ctx, tt.userID, tt.ubID, tt.page)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := env.library.GetBook(ctx, owner.ID, entry.Progress.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Progress.CurrentPage)
	assert.Equal(t, domain.StatusNotStarted, stored.Progress.Status)
}
