package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
	"github.com/readtrackapp/readtrack-server/internal/id"
	"github.com/readtrackapp/readtrack-server/internal/store"
	"github.com/readtrackapp/readtrack-server/internal/util"
	"github.com/readtrackapp/readtrack-server/internal/validation"
)

// AddBookInput describes a book to put on a user's shelf.
type AddBookInput struct {
	Title       string `json:"title" validate:"required,max=500"`
	AuthorName  string `json:"author_name" validate:"required,max=200"`
	TotalPages  int    `json:"total_pages" validate:"gte=1,lte=100000"`
	ISBN        string `json:"isbn,omitempty" validate:"omitempty,max=32"`
	Description string `json:"description,omitempty" validate:"max=5000"`
	CoverURL    string `json:"cover_url,omitempty" validate:"omitempty,url"`
}

// ListFilter narrows ListBooks.
type ListFilter struct {
	Status        domain.ReadingStatus
	FavoritesOnly bool
}

// LibraryService manages a user's shelf over the shared catalog.
type LibraryService struct {
	store     store.Store
	clock     clock.Clock
	validator *validation.Validator
	logger    *slog.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(st store.Store, clk clock.Clock, v *validation.Validator, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		store:     st,
		clock:     clk,
		validator: v,
		logger:    logger,
	}
}

// AddBook shelves a book for ownerID. The author is found by normalized name
// and the book by ISBN, then by title under that author; either is created
// when missing. The same book cannot be shelved twice.
func (s *LibraryService) AddBook(ctx context.Context, ownerID string, in AddBookInput) (*domain.LibraryEntry, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.AuthorName = util.CleanName(in.AuthorName)
	in.ISBN = domain.NormalizeISBN(in.ISBN)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	nameKey := util.NameKey(in.AuthorName)
	if nameKey == "" {
		return nil, domainerrors.InvalidInputWithDetails("invalid author_name",
			map[string]string{"author_name": "must contain a letter or digit"})
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, domainerrors.Internal("generate book id", err)
	}
	userBookID, err := id.Generate(id.PrefixUserBook)
	if err != nil {
		return nil, domainerrors.Internal("generate user book id", err)
	}
	authorID := uuid.NewString()
	now := s.clock.Now()

	var entry domain.LibraryEntry
	err = s.store.Update(ctx, func(tx store.Tx) error {
		book, author, err := s.findByISBN(ctx, tx, in.ISBN)
		if err != nil {
			return err
		}
		if book == nil {
			if author, err = s.findOrCreateAuthor(ctx, tx, authorID, in.AuthorName, nameKey, now); err != nil {
				return err
			}
			if book, err = s.findOrCreateBook(ctx, tx, bookID, author, in, now); err != nil {
				return err
			}
		}

		if _, err := tx.GetProgressByBook(ctx, ownerID, book.ID); err == nil {
			return domainerrors.AlreadyExistsf("%q is already in your library", book.Title)
		} else if !errors.Is(err, store.ErrNotFound) {
			return translate(err, "library entry")
		}

		progress := domain.NewBookProgress(userBookID, ownerID, book.ID, now)
		if err := tx.CreateProgress(ctx, progress); err != nil {
			return translate(err, "library entry")
		}

		entry = domain.LibraryEntry{Progress: progress, Book: book, Author: author}
		return nil
	})
	if err != nil {
		return nil, translate(err, "library entry")
	}

	s.logger.Info("book added to library",
		"user_id", ownerID,
		"user_book_id", entry.Progress.ID,
		"book_id", entry.Book.ID,
		"author_id", entry.Author.ID)
	return &entry, nil
}

func (s *LibraryService) findOrCreateAuthor(ctx context.Context, tx store.Tx, newID, name, nameKey string, now time.Time) (*domain.Author, error) {
	author, err := tx.GetAuthorByNameKey(ctx, nameKey)
	if err == nil {
		return author, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, translate(err, "author")
	}

	author = &domain.Author{Record: domain.Record{ID: newID}, Name: name, NameKey: nameKey}
	author.InitTimestamps(now)
	if err := tx.CreateAuthor(ctx, author); err != nil {
		return nil, translate(err, "author")
	}
	return author, nil
}

// findByISBN returns the cataloged book with isbn and its author, or nils
// when isbn is empty or unknown.
func (s *LibraryService) findByISBN(ctx context.Context, tx store.Tx, isbn string) (*domain.Book, *domain.Author, error) {
	if isbn == "" {
		return nil, nil, nil
	}
	book, err := tx.GetBookByISBN(ctx, isbn)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, translate(err, "book")
	}
	author, err := tx.GetAuthor(ctx, book.AuthorID)
	if err != nil {
		return nil, nil, translate(err, "author "+book.AuthorID)
	}
	return book, author, nil
}

func (s *LibraryService) findOrCreateBook(ctx context.Context, tx store.Tx, newID string, author *domain.Author, in AddBookInput, now time.Time) (*domain.Book, error) {
	book, err := tx.GetBookByTitle(ctx, author.ID, in.Title)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, translate(err, "book")
	}

	book = &domain.Book{
		Record:      domain.Record{ID: newID},
		Title:       in.Title,
		AuthorID:    author.ID,
		ISBN:        in.ISBN,
		Description: strings.TrimSpace(in.Description),
		CoverURL:    in.CoverURL,
		TotalPages:  in.TotalPages,
	}
	book.InitTimestamps(now)
	if err := tx.CreateBook(ctx, book); err != nil {
		return nil, translate(err, "book")
	}
	return book, nil
}

// GetBook returns one of the owner's library entries.
func (s *LibraryService) GetBook(ctx context.Context, ownerID, userBookID string) (*domain.LibraryEntry, error) {
	var entry *domain.LibraryEntry
	err := s.store.View(ctx, func(tx store.Tx) error {
		p, err := loadProgress(ctx, tx, ownerID, userBookID, foreignHidden)
		if err != nil {
			return err
		}
		entries, err := loadEntries(ctx, tx, []*domain.BookProgress{p})
		if err != nil {
			return err
		}
		entry = &entries[0]
		return nil
	})
	if err != nil {
		return nil, translate(err, "library entry")
	}
	return entry, nil
}

// ListBooks returns the owner's entries, most recently updated first.
func (s *LibraryService) ListBooks(ctx context.Context, ownerID string, filter ListFilter) ([]domain.LibraryEntry, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domainerrors.InvalidInputf("unknown status %q", filter.Status)
	}

	var entries []domain.LibraryEntry
	err := s.store.View(ctx, func(tx store.Tx) error {
		progress, err := tx.ListProgress(ctx, ownerID, store.ProgressFilter{
			Status:        filter.Status,
			FavoritesOnly: filter.FavoritesOnly,
		})
		if err != nil {
			return err
		}
		entries, err = loadEntries(ctx, tx, progress)
		return err
	})
	if err != nil {
		return nil, translate(err, "library")
	}
	return entries, nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *LibraryService) ToggleFavorite(ctx context.Context, ownerID, userBookID string) (bool, error) {
	now := s.clock.Now()

	var favorite bool
	err := s.store.Update(ctx, func(tx store.Tx) error {
		p, err := loadProgress(ctx, tx, ownerID, userBookID, foreignHidden)
		if err != nil {
			return err
		}
		favorite = p.ToggleFavorite(now)
		return tx.UpdateProgress(ctx, p)
	})
	if err != nil {
		return false, translate(err, "book "+userBookID)
	}
	return favorite, nil
}

// Rate stores a 1-5 rating on the owner's entry.
func (s *LibraryService) Rate(ctx context.Context, ownerID, userBookID string, rating int) (*domain.BookProgress, error) {
	now := s.clock.Now()

	var progress *domain.BookProgress
	err := s.store.Update(ctx, func(tx store.Tx) error {
		p, err := loadProgress(ctx, tx, ownerID, userBookID, foreignHidden)
		if err != nil {
			return err
		}
		if err := p.SetRating(rating, now); err != nil {
			return err
		}
		if err := tx.UpdateProgress(ctx, p); err != nil {
			return err
		}
		progress = p
		return nil
	})
	if err != nil {
		return nil, translate(err, "book "+userBookID)
	}
	return progress, nil
}

// DeleteBook removes the owner's entry together with its notes and sessions.
// The catalog book and author stay for other readers.
func (s *LibraryService) DeleteBook(ctx context.Context, ownerID, userBookID string) error {
	var notes, sessions int
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := loadProgress(ctx, tx, ownerID, userBookID, foreignHidden); err != nil {
			return err
		}
		var err error
		if notes, err = tx.DeleteNotesByUserBook(ctx, userBookID); err != nil {
			return err
		}
		if sessions, err = tx.DeleteSessionsByUserBook(ctx, userBookID); err != nil {
			return err
		}
		return tx.DeleteProgress(ctx, userBookID)
	})
	if err != nil {
		return translate(err, "book "+userBookID)
	}

	s.logger.Info("book removed from library",
		"user_id", ownerID,
		"user_book_id", userBookID,
		"notes_deleted", notes,
		"sessions_deleted", sessions)
	return nil
}

// ListAuthors groups the owner's entries by author, ordered by author name.
func (s *LibraryService) ListAuthors(ctx context.Context, ownerID string) ([]domain.AuthorShelf, error) {
	entries, err := s.ListBooks(ctx, ownerID, ListFilter{})
	if err != nil {
		return nil, err
	}

	byAuthor := make(map[string]*domain.AuthorShelf)
	for _, e := range entries {
		shelf, ok := byAuthor[e.Author.ID]
		if !ok {
			shelf = &domain.AuthorShelf{Author: e.Author}
			byAuthor[e.Author.ID] = shelf
		}
		shelf.TotalBooks++
		switch e.Progress.Status {
		case domain.StatusCompleted:
			shelf.CompletedBooks++
		case domain.StatusReading:
			shelf.ReadingBooks++
		}
		shelf.Books = append(shelf.Books, e)
	}

	shelves := make([]domain.AuthorShelf, 0, len(byAuthor))
	for _, shelf := range byAuthor {
		shelves = append(shelves, *shelf)
	}
	sort.Slice(shelves, func(i, j int) bool {
		if shelves[i].Author.NameKey != shelves[j].Author.NameKey {
			return shelves[i].Author.NameKey < shelves[j].Author.NameKey
		}
		return shelves[i].Author.ID < shelves[j].Author.ID
	})
	return shelves, nil
}

// loadEntries joins each relation with its book and author, keeping order.
func loadEntries(ctx context.Context, tx store.Tx, progress []*domain.BookProgress) ([]domain.LibraryEntry, error) {
	var (
		books   = make(map[string]*domain.Book)
		authors = make(map[string]*domain.Author)
		entries = make([]domain.LibraryEntry, 0, len(progress))
	)
	for _, p := range progress {
		book, ok := books[p.BookID]
		if !ok {
			var err error
			if book, err = tx.GetBook(ctx, p.BookID); err != nil {
				return nil, translate(err, "book "+p.BookID)
			}
			books[p.BookID] = book
		}

		author, ok := authors[book.AuthorID]
		if !ok {
			var err error
			if author, err = tx.GetAuthor(ctx, book.AuthorID); err != nil {
				return nil, translate(err, "author "+book.AuthorID)
			}
			authors[book.AuthorID] = author
		}

		entries = append(entries, domain.LibraryEntry{Progress: p, Book: book, Author: author})
	}
	return entries, nil
}
