// Package storetest is a behavioral suite every store.Store backend must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// Opener returns a fresh, empty store. The suite closes it.
type Opener func(t *testing.T) store.Store

// Run executes the suite against stores produced by open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Users", testUsers},
		{"AuthorsAndBooks", testAuthorsAndBooks},
		{"Progress", testProgress},
		{"SessionsPagination", testSessionsPagination},
		{"SessionsCascadeAndSum", testSessionsCascadeAndSum},
		{"Notes", testNotes},
		{"Streaks", testStreaks},
		{"UpdateRollsBack", testUpdateRollsBack},
		{"ViewIsReadOnly", testViewIsReadOnly},
		{"ConcurrentUpdatesSerialize", testConcurrentUpdatesSerialize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func update(t *testing.T, s store.Store, fn func(tx store.Tx) error) {
	t.Helper()
	require.NoError(t, s.Update(context.Background(), fn))
}

func view(t *testing.T, s store.Store, fn func(tx store.Tx) error) {
	t.Helper()
	require.NoError(t, s.View(context.Background(), fn))
}

// fixture is one user owning one book relation.
type fixture struct {
	user     *domain.User
	author   *domain.Author
	book     *domain.Book
	progress *domain.BookProgress
}

func seed(t *testing.T, s store.Store, suffix string) fixture {
	t.Helper()
	ctx := context.Background()

	f := fixture{
		user:   &domain.User{Record: domain.Record{ID: "user-" + suffix}, Email: suffix + "@example.com", Name: "Reader " + suffix},
		author: &domain.Author{Record: domain.Record{ID: "author-" + suffix}, Name: "Author " + suffix, NameKey: "author-" + suffix},
	}
	f.user.InitTimestamps(base)
	f.author.InitTimestamps(base)
	f.book = &domain.Book{Record: domain.Record{ID: "book-" + suffix}, Title: "Book " + suffix, AuthorID: f.author.ID, TotalPages: 300}
	f.book.InitTimestamps(base)
	f.progress = domain.NewBookProgress("ub-"+suffix, f.user.ID, f.book.ID, base)

	update(t, s, func(tx store.Tx) error {
		if err := tx.CreateUser(ctx, f.user); err != nil {
			return err
		}
		if err := tx.CreateAuthor(ctx, f.author); err != nil {
			return err
		}
		if err := tx.CreateBook(ctx, f.book); err != nil {
			return err
		}
		return tx.CreateProgress(ctx, f.progress)
	})
	return f
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := &domain.User{Record: domain.Record{ID: "user-1"}, Email: "Reader@Example.com", Name: "  Ada   Reader "}
	u.InitTimestamps(base)

	update(t, s, func(tx store.Tx) error { return tx.CreateUser(ctx, u) })

	view(t, s, func(tx store.Tx) error {
		got, err := tx.GetUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Reader@Example.com", got.Email)
		assert.Equal(t, "Ada Reader", got.Name)
		assert.True(t, base.Equal(got.CreatedAt))

		byEmail, err := tx.GetUserByEmail(ctx, "reader@example.COM")
		require.NoError(t, err)
		assert.Equal(t, "user-1", byEmail.ID)

		_, err = tx.GetUser(ctx, "user-missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})

	dup := &domain.User{Record: domain.Record{ID: "user-2"}, Email: "reader@example.com"}
	dup.InitTimestamps(base)
	err := s.Update(ctx, func(tx store.Tx) error { return tx.CreateUser(ctx, dup) })
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testAuthorsAndBooks(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := &domain.Author{Record: domain.Record{ID: "author-1"}, Name: "Ursula K. Le Guin", NameKey: "ursula-k-le-guin"}
	a.InitTimestamps(base)

	first := &domain.Book{Record: domain.Record{ID: "book-1"}, Title: "The Dispossessed", AuthorID: a.ID, ISBN: "978-0-06-051275-0", TotalPages: 387}
	first.InitTimestamps(base)
	second := &domain.Book{Record: domain.Record{ID: "book-2"}, Title: "the dispossessed!", AuthorID: a.ID, TotalPages: 400}
	second.InitTimestamps(base.Add(time.Hour))

	update(t, s, func(tx store.Tx) error {
		require.NoError(t, tx.CreateAuthor(ctx, a))
		require.NoError(t, tx.CreateBook(ctx, first))
		return tx.CreateBook(ctx, second)
	})

	view(t, s, func(tx store.Tx) error {
		got, err := tx.GetAuthorByNameKey(ctx, "ursula-k-le-guin")
		require.NoError(t, err)
		assert.Equal(t, "author-1", got.ID)

		byISBN, err := tx.GetBookByISBN(ctx, "9780060512750")
		require.NoError(t, err)
		assert.Equal(t, "book-1", byISBN.ID)
		assert.Equal(t, "9780060512750", byISBN.ISBN)

		byTitle, err := tx.GetBookByTitle(ctx, a.ID, "THE DISPOSSESSED")
		require.NoError(t, err)
		assert.Equal(t, "book-1", byTitle.ID, "oldest match wins")

		_, err = tx.GetBookByTitle(ctx, a.ID, "The Left Hand of Darkness")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = tx.GetBookByISBN(ctx, "")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})

	dupAuthor := &domain.Author{Record: domain.Record{ID: "author-2"}, Name: "ursula k le guin", NameKey: "ursula-k-le-guin"}
	dupAuthor.InitTimestamps(base)
	err := s.Update(ctx, func(tx store.Tx) error { return tx.CreateAuthor(ctx, dupAuthor) })
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	dupISBN := &domain.Book{Record: domain.Record{ID: "book-3"}, Title: "Other", AuthorID: a.ID, ISBN: "9780060512750", TotalPages: 10}
	dupISBN.InitTimestamps(base)
	err = s.Update(ctx, func(tx store.Tx) error { return tx.CreateBook(ctx, dupISBN) })
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testProgress(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := seed(t, s, "p")

	extra := &domain.Book{Record: domain.Record{ID: "book-p2"}, Title: "Second", AuthorID: f.author.ID, TotalPages: 100}
	extra.InitTimestamps(base)
	second := domain.NewBookProgress("ub-p2", f.user.ID, extra.ID, base.Add(time.Minute))

	update(t, s, func(tx store.Tx) error {
		require.NoError(t, tx.CreateBook(ctx, extra))
		return tx.CreateProgress(ctx, second)
	})

	err := s.Update(ctx, func(tx store.Tx) error {
		return tx.CreateProgress(ctx, domain.NewBookProgress("ub-dup", f.user.ID, f.book.ID, base))
	})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	// Reading the first book makes it the most recently updated.
	update(t, s, func(tx store.Tx) error {
		p, err := tx.GetProgressByBook(ctx, f.user.ID, f.book.ID)
		require.NoError(t, err)
		require.NoError(t, p.ApplyPageUpdate(40, f.book.TotalPages, base.Add(time.Hour)))
		p.ToggleFavorite(base.Add(time.Hour))
		return tx.UpdateProgress(ctx, p)
	})

	view(t, s, func(tx store.Tx) error {
		p, err := tx.GetProgress(ctx, f.progress.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReading, p.Status)
		assert.Equal(t, 40, p.CurrentPage)
		assert.True(t, p.IsFavorite)
		require.NotNil(t, p.StartedAt)
		assert.Nil(t, p.CompletedAt)

		all, err := tx.ListProgress(ctx, f.user.ID, store.ProgressFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, f.progress.ID, all[0].ID)
		assert.Equal(t, second.ID, all[1].ID)

		reading, err := tx.ListProgress(ctx, f.user.ID, store.ProgressFilter{Status: domain.StatusReading})
		require.NoError(t, err)
		require.Len(t, reading, 1)
		assert.Equal(t, f.progress.ID, reading[0].ID)

		favorites, err := tx.ListProgress(ctx, f.user.ID, store.ProgressFilter{FavoritesOnly: true})
		require.NoError(t, err)
		assert.Len(t, favorites, 1)

		limited, err := tx.ListProgress(ctx, f.user.ID, store.ProgressFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)
		return nil
	})

	update(t, s, func(tx store.Tx) error { return tx.DeleteProgress(ctx, second.ID) })
	view(t, s, func(tx store.Tx) error {
		_, err := tx.GetProgress(ctx, second.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = tx.GetProgressByBook(ctx, f.user.ID, extra.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})

	err = s.Update(ctx, func(tx store.Tx) error { return tx.DeleteProgress(ctx, second.ID) })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testSessionsPagination(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := seed(t, s, "s")

	// Two sessions share a start time so the id tiebreak is exercised.
	starts := []time.Duration{0, time.Hour, time.Hour, 2 * time.Hour, 3 * time.Hour}
	update(t, s, func(tx store.Tx) error {
		for i, d := range starts {
			rs := domain.NewReadingSession(fmt.Sprintf("rs-%d", i), f.user.ID, f.progress.ID, base.Add(d))
			if err := tx.CreateSession(ctx, rs); err != nil {
				return err
			}
		}
		return nil
	})

	var (
		got    []string
		cursor string
	)
	for range 5 {
		var page *store.PaginatedResult[*domain.ReadingSession]
		view(t, s, func(tx store.Tx) error {
			var err error
			page, err = tx.ListSessions(ctx, store.SessionQuery{
				UserID: f.user.ID,
				Page:   store.PaginationParams{Limit: 2, Cursor: cursor},
			})
			return err
		})
		for _, rs := range page.Items {
			got = append(got, rs.ID)
		}
		if !page.HasMore {
			assert.Empty(t, page.NextCursor)
			break
		}
		cursor = page.NextCursor
	}
	assert.Equal(t, []string{"rs-4", "rs-3", "rs-2", "rs-1", "rs-0"}, got)

	view(t, s, func(tx store.Tx) error {
		byBook, err := tx.ListSessions(ctx, store.SessionQuery{UserID: f.user.ID, UserBookID: f.progress.ID})
		require.NoError(t, err)
		assert.Len(t, byBook.Items, 5)
		assert.False(t, byBook.HasMore)

		other, err := tx.ListSessions(ctx, store.SessionQuery{UserID: "user-other", UserBookID: f.progress.ID})
		require.NoError(t, err)
		assert.Empty(t, other.Items)

		_, err = tx.ListSessions(ctx, store.SessionQuery{UserID: f.user.ID, Page: store.PaginationParams{Cursor: "%%%"}})
		assert.Error(t, err)
		return nil
	})
}

func testSessionsCascadeAndSum(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := seed(t, s, "c")

	open := domain.NewReadingSession("rs-open", f.user.ID, f.progress.ID, base)
	closed := domain.NewReadingSession("rs-closed", f.user.ID, f.progress.ID, base)
	require.NoError(t, closed.Close(12, base.Add(25*time.Minute+30*time.Second)))

	update(t, s, func(tx store.Tx) error {
		require.NoError(t, tx.CreateSession(ctx, open))
		rs := domain.NewReadingSession("rs-closed", f.user.ID, f.progress.ID, base)
		require.NoError(t, tx.CreateSession(ctx, rs))
		return tx.UpdateSession(ctx, closed)
	})

	view(t, s, func(tx store.Tx) error {
		got, err := tx.GetSession(ctx, "rs-closed")
		require.NoError(t, err)
		assert.False(t, got.IsOpen())
		require.NotNil(t, got.DurationMinutes)
		assert.Equal(t, 25, *got.DurationMinutes)
		assert.Equal(t, 12, got.PagesRead)

		stillOpen, err := tx.GetSession(ctx, "rs-open")
		require.NoError(t, err)
		assert.True(t, stillOpen.IsOpen())
		assert.Nil(t, stillOpen.DurationMinutes)

		total, err := tx.SumSessionMinutes(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, 25, total)
		return nil
	})

	update(t, s, func(tx store.Tx) error {
		n, err := tx.DeleteSessionsByUserBook(ctx, f.progress.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		return nil
	})

	view(t, s, func(tx store.Tx) error {
		_, err := tx.GetSession(ctx, "rs-open")
		assert.ErrorIs(t, err, store.ErrNotFound)
		total, err := tx.SumSessionMinutes(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Zero(t, total)
		return nil
	})
}

func testNotes(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := seed(t, s, "n")

	mk := func(id string, page int, at time.Time) *domain.Note {
		n := &domain.Note{Record: domain.Record{ID: id}, UserID: f.user.ID, UserBookID: f.progress.ID, PageNumber: page, Content: id}
		n.InitTimestamps(at)
		return n
	}
	update(t, s, func(tx store.Tx) error {
		for _, n := range []*domain.Note{
			mk("note-c", 120, base),
			mk("note-b", 9, base.Add(time.Hour)),
			mk("note-a", 9, base),
		} {
			if err := tx.CreateNote(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})

	view(t, s, func(tx store.Tx) error {
		notes, err := tx.ListNotes(ctx, f.progress.ID)
		require.NoError(t, err)
		ids := make([]string, 0, len(notes))
		for _, n := range notes {
			ids = append(ids, n.ID)
		}
		assert.Equal(t, []string{"note-a", "note-b", "note-c"}, ids)

		count, err := tx.CountNotes(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		return nil
	})

	update(t, s, func(tx store.Tx) error {
		n, err := tx.DeleteNotesByUserBook(ctx, f.progress.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		return nil
	})
	view(t, s, func(tx store.Tx) error {
		count, err := tx.CountNotes(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
		return nil
	})
}

func testStreaks(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := seed(t, s, "k")
	uid := f.user.ID

	view(t, s, func(tx store.Tx) error {
		st, err := tx.GetStreakState(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, uid, st.UserID)
		assert.Zero(t, st.CurrentStreak)
		assert.Nil(t, st.LastReadDate)
		return nil
	})

	days := []clock.Day{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-03"}
	update(t, s, func(tx store.Tx) error {
		for _, d := range days {
			marked, err := tx.MarkStreakDay(ctx, &domain.StreakRecord{UserID: uid, Day: d, CreatedAt: base})
			require.NoError(t, err)
			assert.True(t, marked, d)
		}
		again, err := tx.MarkStreakDay(ctx, &domain.StreakRecord{UserID: uid, Day: "2026-03-01", CreatedAt: base})
		require.NoError(t, err)
		assert.False(t, again)

		last := base
		return tx.PutStreakState(ctx, &domain.StreakState{
			UserID: uid, CurrentStreak: 3, LongestStreak: 5, LastReadDate: &last, UpdatedAt: base,
		})
	})

	view(t, s, func(tx store.Tx) error {
		st, err := tx.GetStreakState(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, 3, st.CurrentStreak)
		assert.Equal(t, 5, st.LongestStreak)
		require.NotNil(t, st.LastReadDate)
		assert.True(t, base.Equal(*st.LastReadDate))

		has, err := tx.HasStreakDay(ctx, uid, "2026-03-01")
		require.NoError(t, err)
		assert.True(t, has)
		has, err = tx.HasStreakDay(ctx, uid, "2026-03-02")
		require.NoError(t, err)
		assert.False(t, has)

		window, err := tx.ListStreakDays(ctx, uid, "2026-02-28", "2026-03-02")
		require.NoError(t, err)
		assert.Equal(t, []clock.Day{"2026-02-28", "2026-03-01"}, window)

		total, err := tx.CountStreakDays(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		other, err := tx.CountStreakDays(ctx, "user-other")
		require.NoError(t, err)
		assert.Zero(t, other)
		return nil
	})

	// Counters are overwritten, not merged.
	update(t, s, func(tx store.Tx) error {
		return tx.PutStreakState(ctx, &domain.StreakState{UserID: uid, CurrentStreak: 1, LongestStreak: 5, UpdatedAt: base})
	})
	view(t, s, func(tx store.Tx) error {
		st, err := tx.GetStreakState(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, 1, st.CurrentStreak)
		assert.Nil(t, st.LastReadDate)
		return nil
	})
}

func testUpdateRollsBack(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := seed(t, s, "r")
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx store.Tx) error {
		rs := domain.NewReadingSession("rs-rollback", f.user.ID, f.progress.ID, base)
		if err := tx.CreateSession(ctx, rs); err != nil {
			return err
		}
		if _, err := tx.MarkStreakDay(ctx, &domain.StreakRecord{UserID: f.user.ID, Day: "2026-03-01", CreatedAt: base}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	view(t, s, func(tx store.Tx) error {
		_, err := tx.GetSession(ctx, "rs-rollback")
		assert.ErrorIs(t, err, store.ErrNotFound)
		has, err := tx.HasStreakDay(ctx, f.user.ID, "2026-03-01")
		require.NoError(t, err)
		assert.False(t, has)
		return nil
	})
}

func testViewIsReadOnly(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := seed(t, s, "v")

	err := s.View(ctx, func(tx store.Tx) error {
		return tx.CreateSession(ctx, domain.NewReadingSession("rs-view", f.user.ID, f.progress.ID, base))
	})
	assert.ErrorIs(t, err, store.ErrReadOnly)

	err = s.View(ctx, func(tx store.Tx) error {
		_, err := tx.MarkStreakDay(ctx, &domain.StreakRecord{UserID: f.user.ID, Day: "2026-03-01", CreatedAt: base})
		return err
	})
	assert.ErrorIs(t, err, store.ErrReadOnly)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = s.View(cancelled, func(store.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

// Read-modify-write of the streak counters from many goroutines must not
// lose an increment.
func testConcurrentUpdatesSerialize(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := seed(t, s, "x")
	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Update(ctx, func(tx store.Tx) error {
				st, err := tx.GetStreakState(ctx, f.user.ID)
				if err != nil {
					return err
				}
				st.CurrentStreak++
				st.LongestStreak = max(st.LongestStreak, st.CurrentStreak)
				st.UpdatedAt = base
				return tx.PutStreakState(ctx, st)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view(t, s, func(tx store.Tx) error {
		st, err := tx.GetStreakState(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, workers, st.CurrentStreak)
		return nil
	})
}
