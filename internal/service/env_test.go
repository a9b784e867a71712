package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
	"github.com/readtrackapp/readtrack-server/internal/store/kv"
	"github.com/readtrackapp/readtrack-server/internal/store/sqlite"
	"github.com/readtrackapp/readtrack-server/internal/validation"
)

// testStart is a Tuesday morning in UTC.
var testStart = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	store    store.Store
	clock    *clock.Manual
	ledger   *SessionLedger
	streaks  *StreakEngine
	progress *ProgressTracker
	activity *ActivityCoordinator
	library  *LibraryService
	notes    *NoteService
	stats    *StatsService
	users    *UserService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return newTestEnv(st, clock.NewCalendar(time.UTC))
}

func setupBadgerTestEnv(t *testing.T, cal clock.Calendar) *testEnv {
	t.Helper()

	st, err := kv.OpenInMemory(discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return newTestEnv(st, cal)
}

func newTestEnv(st store.Store, cal clock.Calendar) *testEnv {
	var (
		logger = discardLogger()
		clk    = clock.NewManual(testStart)
		v      = validation.New()
	)

	env := &testEnv{store: st, clock: clk}
	env.ledger = NewSessionLedger(st, clk, logger)
	env.streaks = NewStreakEngine(st, clk, cal, logger)
	env.progress = NewProgressTracker(st, clk, logger)
	env.activity = NewActivityCoordinator(st, clk, env.ledger, env.streaks, logger)
	env.library = NewLibraryService(st, clk, v, logger)
	env.notes = NewNoteService(st, clk, v, logger)
	env.stats = NewStatsService(st, env.streaks, logger)
	env.users = NewUserService(st, clk, v, logger)
	return env
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (e *testEnv) newUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), email, "")
	require.NoError(t, err)
	return u
}

func (e *testEnv) shelve(t *testing.T, ownerID, title string, pages int) *domain.LibraryEntry {
	t.Helper()
	entry, err := e.library.AddBook(context.Background(), ownerID, AddBookInput{
		Title:      title,
		AuthorName: "Octavia E. Butler",
		TotalPages: pages,
	})
	require.NoError(t, err)
	return entry
}

// read opens and finishes one session of d on userBookID.
func (e *testEnv) read(t *testing.T, ownerID, userBookID string, d time.Duration, pages int) *FinishResult {
	t.Helper()
	ctx := context.Background()

	rs, err := e.ledger.OpenSession(ctx, ownerID, userBookID)
	require.NoError(t, err)
	e.clock.Advance(d)
	res, err := e.activity.FinishSession(ctx, rs.ID, ownerID, pages)
	require.NoError(t, err)
	return res
}
