package sqlite

import (
	"context"
	"database/sql"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/util"
)

const authorColumns = `id, name, name_key, bio, created_at, updated_at`

func scanAuthor(row scanner) (*domain.Author, error) {
	var (
		a                    domain.Author
		bio                  sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&a.ID, &a.Name, &a.NameKey, &bio, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err)
	}
	a.Bio = bio.String

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAuthor inserts an author. Returns store.ErrAlreadyExists when the
// name key is taken.
func (t *txn) CreateAuthor(ctx context.Context, a *domain.Author) error {
	_, err := t.exec(ctx, `
		INSERT INTO authors (id, name, name_key, bio, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.NameKey, nullString(a.Bio), formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	return err
}

// GetAuthor returns an author by id.
func (t *txn) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	return scanAuthor(t.q.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE id = ?`, id))
}

// GetAuthorByNameKey returns the author whose normalized name is key.
func (t *txn) GetAuthorByNameKey(ctx context.Context, key string) (*domain.Author, error) {
	return scanAuthor(t.q.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE name_key = ?`, key))
}

const bookColumns = `id, title, author_id, isbn, description, cover_url, total_pages, created_at, updated_at`

func scanBook(row scanner) (*domain.Book, error) {
	var (
		b                        domain.Book
		isbn, description, cover sql.NullString
		createdAt, updatedAt     string
	)
	err := row.Scan(&b.ID, &b.Title, &b.AuthorID, &isbn, &description, &cover,
		&b.TotalPages, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	b.ISBN = isbn.String
	b.Description = description.String
	b.CoverURL = cover.String

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook inserts a catalog book. The ISBN is stored normalized and is
// unique when present.
func (t *txn) CreateBook(ctx context.Context, b *domain.Book) error {
	_, err := t.exec(ctx, `
		INSERT INTO books (
			id, title, title_key, author_id, isbn, description, cover_url,
			total_pages, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, util.TitleKey(b.Title), b.AuthorID,
		nullString(domain.NormalizeISBN(b.ISBN)), nullString(b.Description), nullString(b.CoverURL),
		b.TotalPages, formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	return err
}

// GetBook returns a catalog book by id.
func (t *txn) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return scanBook(t.q.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
}

// GetBookByISBN returns the book with the given ISBN in any notation.
func (t *txn) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return scanBook(t.q.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE isbn = ?`, domain.NormalizeISBN(isbn)))
}

// GetBookByTitle returns the oldest book by authorID whose title normalizes
// to the same key.
func (t *txn) GetBookByTitle(ctx context.Context, authorID, title string) (*domain.Book, error) {
	return scanBook(t.q.QueryRowContext(ctx, `
		SELECT `+bookColumns+` FROM books
		WHERE author_id = ? AND title_key = ?
		ORDER BY created_at LIMIT 1`,
		authorID, util.TitleKey(title)))
}
