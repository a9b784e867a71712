package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readtrackapp/readtrack-server/internal/domain"
)

func TestBooks_AddAndGet(t *testing.T) {
	ts := setupTestServer(t, nil)
	user, token := ts.createUserWithToken(t, "reader@example.com")

	rec := ts.do(t, http.MethodPost, "/api/v1/books", token, map[string]any{
		"title":       "  The Dispossessed ",
		"author_name": "Ursula K. Le Guin",
		"total_pages": 387,
		"isbn":        "978-0-06-051275-0",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var entry domain.LibraryEntry
	decode(t, rec, &entry)
	assert.Equal(t, "The Dispossessed", entry.Book.Title)
	assert.Equal(t, "9780060512750", entry.Book.ISBN)
	assert.Equal(t, "Ursula K. Le Guin", entry.Author.Name)
	assert.Equal(t, user.ID, entry.Progress.UserID)
	assert.Equal(t, domain.StatusNotStarted, entry.Progress.Status)

	rec = ts.do(t, http.MethodGet, "/api/v1/books/"+entry.Progress.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.LibraryEntry
	decode(t, rec, &got)
	assert.Equal(t, entry.Book.ID, got.Book.ID)

	rec = ts.do(t, http.MethodPost, "/api/v1/books", token, map[string]any{
		"title":       "The Dispossessed",
		"author_name": "Ursula K. Le Guin",
		"total_pages": 387,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_EXISTS", decodeError(t, rec).Code)
}

func TestBooks_ListAndFilter(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, token := ts.createUserWithToken(t, "reader@example.com")

	rec := ts.do(t, http.MethodGet, "/api/v1/books", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var empty ListBooksResponse
	decode(t, rec, &empty)
	assert.NotNil(t, empty.Books)
	assert.Empty(t, empty.Books)

	reading := ts.shelve(t, token, "Four Ways to Forgiveness", 228)
	ts.shelve(t, token, "The Birthday of the World", 362)

	rec = ts.do(t, http.MethodPut, "/api/v1/books/"+reading.Progress.ID+"/page", token, map[string]any{"current_page": 40})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "all", query: "", want: 2},
		{name: "reading", query: "?status=reading", want: 1},
		{name: "not started", query: "?status=not_started", want: 1},
		{name: "completed", query: "?status=completed", want: 0},
		{name: "favorites", query: "?favorites=true", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, "/api/v1/books"+tt.query, token, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var list ListBooksResponse
			decode(t, rec, &list)
			assert.Len(t, list.Books, tt.want)
		})
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/books?status=shelved", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBooks_UpdatePage(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, token := ts.createUserWithToken(t, "reader@example.com")
	entry := ts.shelve(t, token, "The Lathe of Heaven", 184)
	path := "/api/v1/books/" + entry.Progress.ID + "/page"

	rec := ts.do(t, http.MethodPut, path, token, map[string]any{"current_page": 50})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var progress domain.BookProgress
	decode(t, rec, &progress)
	assert.Equal(t, domain.StatusReading, progress.Status)
	assert.Equal(t, 50, progress.CurrentPage)
	assert.NotNil(t, progress.StartedAt)

	rec = ts.do(t, http.MethodPut, path, token, map[string]any{"current_page": 184})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &progress)
	assert.Equal(t, domain.StatusCompleted, progress.Status)
	assert.NotNil(t, progress.CompletedAt)

	rec = ts.do(t, http.MethodPut, path, token, map[string]any{"current_page": 185})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)

	_, intruder := ts.createUserWithToken(t, "intruder@example.com")
	rec = ts.do(t, http.MethodPut, path, intruder, map[string]any{"current_page": 10})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBooks_FavoriteAndRating(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, token := ts.createUserWithToken(t, "reader@example.com")
	entry := ts.shelve(t, token, "Tehanu", 252)
	base := "/api/v1/books/" + entry.Progress.ID

	rec := ts.do(t, http.MethodPost, base+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fav FavoriteResponse
	decode(t, rec, &fav)
	assert.True(t, fav.IsFavorite)

	rec = ts.do(t, http.MethodPost, base+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fav = FavoriteResponse{}
	decode(t, rec, &fav)
	assert.False(t, fav.IsFavorite)

	rec = ts.do(t, http.MethodPut, base+"/rating", token, map[string]any{"rating": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var progress domain.BookProgress
	decode(t, rec, &progress)
	require.NotNil(t, progress.Rating)
	assert.Equal(t, 4, *progress.Rating)

	for _, rating := range []int{0, 6} {
		rec = ts.do(t, http.MethodPut, base+"/rating", token, map[string]any{"rating": rating})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "rating %d", rating)
	}
}

func TestBooks_ForeignEntryIsHidden(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, owner := ts.createUserWithToken(t, "owner@example.com")
	_, intruder := ts.createUserWithToken(t, "intruder@example.com")
	entry := ts.shelve(t, owner, "Voices", 341)
	base := "/api/v1/books/" + entry.Progress.ID

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, base, intruder, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, base, intruder, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, base+"/favorite", intruder, nil).Code)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, base, owner, nil).Code)
}

func TestBooks_Delete(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, token := ts.createUserWithToken(t, "reader@example.com")
	entry := ts.shelve(t, token, "Powers", 502)
	base := "/api/v1/books/" + entry.Progress.ID

	rs := ts.startSession(t, token, entry.Progress.ID)
	rec := ts.do(t, http.MethodPost, base+"/notes", token, map[string]any{"page_number": 3, "content": "Gavir remembers"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodDelete, base, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, base, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/v1/sessions/"+rs.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, base+"/notes", token, nil).Code)
}

func TestAuthors_List(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, token := ts.createUserWithToken(t, "reader@example.com")

	ts.shelve(t, token, "The Dispossessed", 387)
	ts.shelve(t, token, "The Lathe of Heaven", 184)
	rec := ts.do(t, http.MethodPost, "/api/v1/books", token, map[string]any{
		"title":       "Kindred",
		"author_name": "Octavia E. Butler",
		"total_pages": 264,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/authors", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var list ListAuthorsResponse
	decode(t, rec, &list)
	require.Len(t, list.Authors, 2)
	assert.Equal(t, "Octavia E. Butler", list.Authors[0].Author.Name)
	assert.Equal(t, 1, list.Authors[0].TotalBooks)
	assert.Equal(t, "Ursula K. Le Guin", list.Authors[1].Author.Name)
	assert.Equal(t, 2, list.Authors[1].TotalBooks)
}
