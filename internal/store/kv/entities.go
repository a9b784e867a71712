package kv

import (
	"fmt"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/util"
)

// Key prefixes.
const (
	prefixUser        = "user:"
	prefixAuthor      = "author:"
	prefixBook        = "book:"
	prefixProgress    = "ub:"
	prefixSession     = "rs:"
	prefixNote        = "note:"
	prefixStreakState = "streak:state:"
	prefixStreakDay   = "streak:day:"
)

// Index names.
const (
	idxEmail    = "email"
	idxName     = "name"
	idxISBN     = "isbn"
	idxTitle    = "title"
	idxUserBook = "user_book"
	idxUser     = "user"
)

func (s *Store) initEntities() {
	s.users = newEntity(prefixUser, func(u *domain.User) string { return u.ID }).
		withUnique(idxEmail, func(u *domain.User) []string {
			return []string{domain.NormalizeEmail(u.Email)}
		})

	s.authors = newEntity(prefixAuthor, func(a *domain.Author) string { return a.ID }).
		withUnique(idxName, func(a *domain.Author) []string {
			return []string{a.NameKey}
		})

	// Title entries sort by creation so the first hit is the oldest book.
	s.books = newEntity(prefixBook, func(b *domain.Book) string { return b.ID }).
		withUnique(idxISBN, func(b *domain.Book) []string {
			return []string{domain.NormalizeISBN(b.ISBN)}
		}).
		withList(idxTitle, func(b *domain.Book) []string {
			return []string{titleIndexValue(b.AuthorID, b.Title) + sortable(b.CreatedAt)}
		})

	s.progress = newEntity(prefixProgress, func(p *domain.BookProgress) string { return p.ID }).
		withUnique(idxUserBook, func(p *domain.BookProgress) []string {
			return []string{p.UserID + ":" + p.BookID}
		}).
		withList(idxUser, func(p *domain.BookProgress) []string {
			return []string{p.UserID + ":" + sortable(p.UpdatedAt)}
		})

	s.sessions = newEntity(prefixSession, func(rs *domain.ReadingSession) string { return rs.ID }).
		withList(idxUser, func(rs *domain.ReadingSession) []string {
			return []string{rs.UserID + ":" + sortable(rs.StartedAt)}
		}).
		withList(idxUserBook, func(rs *domain.ReadingSession) []string {
			return []string{rs.UserBookID + ":" + sortable(rs.StartedAt)}
		})

	s.notes = newEntity(prefixNote, func(n *domain.Note) string { return n.ID }).
		withList(idxUserBook, func(n *domain.Note) []string {
			return []string{n.UserBookID + ":" + fmt.Sprintf("%010d", n.PageNumber) + ":" + sortable(n.CreatedAt)}
		}).
		withList(idxUser, func(n *domain.Note) []string {
			return []string{n.UserID}
		})
}

func titleIndexValue(authorID, title string) string {
	return authorID + ":" + util.TitleKey(title) + ":"
}
