package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
	"github.com/readtrackapp/readtrack-server/internal/id"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

func TestAddBook_CreatesCatalogAndRelation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, "ada@example.com")

	entry, err := env.library.AddBook(ctx, user.ID, AddBookInput{
		Title:      "  Parable of the Sower ",
		AuthorName: "Octavia  E. Butler",
		TotalPages: 345,
		ISBN:       "978-0-446-67550-5",
		CoverURL:   "https://covers.example.com/sower.jpg",
	})
	require.NoError(t, err)

	assert.True(t, id.HasPrefix(entry.Progress.ID, id.PrefixUserBook))
	assert.True(t, id.HasPrefix(entry.Book.ID, id.PrefixBook))
	assert.Equal(t, domain.StatusNotStarted, entry.Progress.Status)
	assert.Zero(t, entry.Progress.CurrentPage)
	assert.Equal(t, "Parable of the Sower", entry.Book.Title)
	assert.Equal(t, "9780446675505", entry.Book.ISBN)
	assert.Equal(t, "Octavia E. Butler", entry.Author.Name)
	assert.Equal(t, "octavia-e-butler", entry.Author.NameKey)
	assert.Equal(t, entry.Author.ID, entry.Book.AuthorID)
}

func TestAddBook_ReusesAuthorAndBook(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	ada := env.newUser(t, "ada@example.com")
	bea := env.newUser(t, "bea@example.com")

	first, err := env.library.AddBook(ctx, ada.ID, AddBookInput{Title: "Kindred", AuthorName: "Octavia E. Butler", TotalPages: 264})
	require.NoError(t, err)

	// Spelling variants resolve to the same author and the same book.
	second, err := env.library.AddBook(ctx, bea.ID, AddBookInput{Title: "KINDRED", AuthorName: "octavia e butler", TotalPages: 287})
	require.NoError(t, err)
	assert.Equal(t, first.Author.ID, second.Author.ID)
	assert.Equal(t, first.Book.ID, second.Book.ID)
	assert.Equal(t, 264, second.Book.TotalPages, "the catalog keeps its first page count")
	assert.NotEqual(t, first.Progress.ID, second.Progress.ID)

	// A new title by the same author is a new book.
	third, err := env.library.AddBook(ctx, ada.ID, AddBookInput{Title: "Dawn", AuthorName: "Octavia Butler", TotalPages: 248})
	require.NoError(t, err)
	assert.NotEqual(t, first.Book.ID, third.Book.ID)
	assert.NotEqual(t, first.Author.ID, third.Author.ID, "a different name key is a different author")
}

func TestAddBook_MatchesByISBNFirst(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	ada := env.newUser(t, "ada@example.com")
	bea := env.newUser(t, "bea@example.com")

	first, err := env.library.AddBook(ctx, ada.ID, AddBookInput{
		Title: "Lilith's Brood", AuthorName: "Octavia E. Butler", TotalPages: 752, ISBN: "0-446-67610-7",
	})
	require.NoError(t, err)

	second, err := env.library.AddBook(ctx, bea.ID, AddBookInput{
		Title: "Xenogenesis", AuthorName: "O. Butler", TotalPages: 700, ISBN: "0446676107",
	})
	require.NoError(t, err)
	assert.Equal(t, first.Book.ID, second.Book.ID)
	assert.Equal(t, first.Author.ID, second.Author.ID)
	assert.Equal(t, "Lilith's Brood", second.Book.Title)
}

func TestAddBook_DuplicateRelationRejected(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, "ada@example.com")
	env.shelve(t, user.ID, "Kindred", 264)

	_, err := env.library.AddBook(ctx, user.ID, AddBookInput{Title: "kindred", AuthorName: "Octavia E. Butler", TotalPages: 264})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	books, err := env.library.ListBooks(ctx, user.ID, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestAddBook_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, "ada@example.com")

	tests := []struct {
		name  string
		in    AddBookInput
		field string
	}{
		{"missing title", AddBookInput{AuthorName: "A", TotalPages: 1}, "title"},
		{"blank title", AddBookInput{Title: "   ", AuthorName: "A", TotalPages: 1}, "title"},
		{"missing author", AddBookInput{Title: "T", TotalPages: 1}, "author_name"},
		{"punctuation author", AddBookInput{Title: "T", AuthorName: "?!", TotalPages: 1}, "author_name"},
		{"zero pages", AddBookInput{Title: "T", AuthorName: "A"}, "total_pages"},
		{"bad cover", AddBookInput{Title: "T", AuthorName: "A", TotalPages: 1, CoverURL: "cover.jpg"}, "cover_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.library.AddBook(ctx, user.ID, tt.in)
			require.ErrorIs(t, err, domainerrors.ErrInvalidInput)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Contains(t, domainErr.Details, tt.field)
		})
	}
}

func TestListBooks_FiltersAndOrder(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, "ada@example.com")

	kindred := env.shelve(t, user.ID, "Kindred", 264)
	env.clock.Advance(time.Minute)
	dawn := env.shelve(t, user.ID, "Dawn", 248)
	env.clock.Advance(time.Minute)
	sower := env.shelve(t, user.ID, "Parable of the Sower", 345)

	env.clock.Advance(time.Minute)
	_, err := env.progress.UpdatePage(ctx, user.ID, kindred.Progress.ID, 100)
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	_, err = env.library.ToggleFavorite(ctx, user.ID, dawn.Progress.ID)
	require.NoError(t, err)

	all, err := env.library.ListBooks(ctx, user.ID, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, dawn.Progress.ID, all[0].Progress.ID)
	assert.Equal(t, kindred.Progress.ID, all[1].Progress.ID)
	assert.Equal(t, sower.Progress.ID, all[2].Progress.ID)
	assert.Equal(t, "Octavia E. Butler", all[2].Author.Name)

	reading, err := env.library.ListBooks(ctx, user.ID, ListFilter{Status: domain.StatusReading})
	require.NoError(t, err)
	require.Len(t, reading, 1)
	assert.Equal(t, "Kindred", reading[0].Book.Title)

	favorites, err := env.library.ListBooks(ctx, user.ID, ListFilter{FavoritesOnly: true})
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "Dawn", favorites[0].Book.Title)

	_, err = env.library.ListBooks(ctx, user.ID, ListFilter{Status: "abandoned"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestToggleFavoriteAndRate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.newUser(t, "ada@example.com")
	intruder := env.newUser(t, "eve@example.com")
	entry := env.shelve(t, owner.ID, "Kindred", 264)

	on, err := env.library.ToggleFavorite(ctx, owner.ID, entry.Progress.ID)
	require.NoError(t, err)
	assert.True(t, on)
	off, err := env.library.ToggleFavorite(ctx, owner.ID, entry.Progress.ID)
	require.NoError(t, err)
	assert.False(t, off)

	for _, bad := range []int{0, 6, -1} {
		_, err := env.library.Rate(ctx, owner.ID, entry.Progress.ID, bad)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidInput, bad)
	}

	p, err := env.library.Rate(ctx, owner.ID, entry.Progress.ID, 4)
	require.NoError(t, err)
	require.NotNil(t, p.Rating)
	assert.Equal(t, 4, *p.Rating)

	_, err = env.library.Rate(ctx, intruder.ID, entry.Progress.ID, 1)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = env.library.ToggleFavorite(ctx, intruder.ID, entry.Progress.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = env.library.GetBook(ctx, intruder.ID, entry.Progress.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDeleteBook_Cascades(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	ada := env.newUser(t, "ada@example.com")
	bea := env.newUser(t, "bea@example.com")

	mine := env.shelve(t, ada.ID, "Kindred", 264)
	theirs := env.shelve(t, bea.ID, "Kindred", 264)

	env.read(t, ada.ID, mine.Progress.ID, 20*time.Minute, 10)
	_, err := env.ledger.OpenSession(ctx, ada.ID, mine.Progress.ID)
	require.NoError(t, err)
	_, err = env.notes.AddNote(ctx, ada.ID, mine.Progress.ID, 12, "Dana meets Rufus")
	require.NoError(t, err)
	_, err = env.notes.AddNote(ctx, bea.ID, theirs.Progress.ID, 3, "kept")
	require.NoError(t, err)

	assert.ErrorIs(t, env.library.DeleteBook(ctx, bea.ID, mine.Progress.ID), domainerrors.ErrNotFound)

	require.NoError(t, env.library.DeleteBook(ctx, ada.ID, mine.Progress.ID))

	_, err = env.library.GetBook(ctx, ada.ID, mine.Progress.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	sessions, err := env.ledger.ListSessions(ctx, ada.ID, "", store.PaginationParams{})
	require.NoError(t, err)
	assert.Empty(t, sessions.Items)

	// Streak history and the other reader's shelf survive.
	days, err := env.streaks.TotalActiveDays(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, days)

	kept, err := env.library.GetBook(ctx, bea.ID, theirs.Progress.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.Book.ID, kept.Book.ID)
	notes, err := env.notes.ListNotes(ctx, bea.ID, theirs.Progress.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	// The book can be shelved again afterwards.
	again := env.shelve(t, ada.ID, "Kindred", 264)
	assert.Equal(t, mine.Book.ID, again.Book.ID)
}

func TestListAuthors_Groups(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, "ada@example.com")

	kindred := env.shelve(t, user.ID, "Kindred", 264)
	dawn := env.shelve(t, user.ID, "Dawn", 248)
	_, err := env.library.AddBook(ctx, user.ID, AddBookInput{Title: "The Dispossessed", AuthorName: "Ursula K. Le Guin", TotalPages: 387})
	require.NoError(t, err)

	_, err = env.progress.UpdatePage(ctx, user.ID, kindred.Progress.ID, 264)
	require.NoError(t, err)
	_, err = env.progress.UpdatePage(ctx, user.ID, dawn.Progress.ID, 40)
	require.NoError(t, err)

	shelves, err := env.library.ListAuthors(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, shelves, 2)

	butler := shelves[0]
	assert.Equal(t, "Octavia E. Butler", butler.Author.Name)
	assert.Equal(t, 2, butler.TotalBooks)
	assert.Equal(t, 1, butler.CompletedBooks)
	assert.Equal(t, 1, butler.ReadingBooks)
	assert.Len(t, butler.Books, 2)

	leGuin := shelves[1]
	assert.Equal(t, "Ursula K. Le Guin", leGuin.Author.Name)
	assert.Equal(t, 1, leGuin.TotalBooks)
	assert.Zero(t, leGuin.CompletedBooks)
}
