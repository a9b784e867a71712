package kv

import (
	"context"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
	"github.com/readtrackapp/readtrack-server/internal/util"
)

// CreateUser stores a user. Email is unique case-insensitively.
func (t *txn) CreateUser(ctx context.Context, u *domain.User) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	rec := *u
	rec.Name = util.CleanName(rec.Name)
	return t.s.users.create(t.btx, &rec)
}

// GetUser returns a user by id.
func (t *txn) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return t.s.users.get(t.btx, id)
}

// GetUserByEmail returns a user by email, ignoring case.
func (t *txn) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return t.s.users.getByUnique(t.btx, idxEmail, domain.NormalizeEmail(email))
}

// CreateAuthor stores an author. NameKey is unique.
func (t *txn) CreateAuthor(ctx context.Context, a *domain.Author) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return t.s.authors.create(t.btx, a)
}

// GetAuthor returns an author by id.
func (t *txn) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	return t.s.authors.get(t.btx, id)
}

// GetAuthorByNameKey returns the author owning key.
func (t *txn) GetAuthorByNameKey(ctx context.Context, key string) (*domain.Author, error) {
	return t.s.authors.getByUnique(t.btx, idxName, key)
}

// CreateBook stores a catalog book. A non-empty ISBN is unique.
func (t *txn) CreateBook(ctx context.Context, b *domain.Book) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	rec := *b
	rec.ISBN = domain.NormalizeISBN(rec.ISBN)
	return t.s.books.create(t.btx, &rec)
}

// GetBook returns a book by id.
func (t *txn) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return t.s.books.get(t.btx, id)
}

// GetBookByISBN matches the normalized ISBN.
func (t *txn) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return t.s.books.getByUnique(t.btx, idxISBN, domain.NormalizeISBN(isbn))
}

// GetBookByTitle returns the author's oldest book with the same title key.
func (t *txn) GetBookByTitle(ctx context.Context, authorID, title string) (*domain.Book, error) {
	var found *domain.Book
	err := t.s.books.scan(t.btx, idxTitle, titleIndexValue(authorID, title), scanOptions{limit: 1},
		func(b *domain.Book) error {
			found = b
			return nil
		})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}
