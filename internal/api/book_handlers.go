package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	register(s, huma.Operation{
		OperationID:   "addBook",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/books",
		Summary:       "Add book",
		Description:   "Puts a book on your shelf, reusing the catalog entry when it already exists",
		Tags:          []string{"Books"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddBook)

	register(s, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/books",
		Summary:     "List books",
		Description: "Returns your shelf, most recently updated first",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleListBooks)

	register(s, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/books/{id}",
		Summary:     "Get book",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleGetBook)

	register(s, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/books/{id}",
		Summary:       "Remove book",
		Description:   "Removes the book from your shelf with its sessions and notes",
		Tags:          []string{"Books"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)

	register(s, huma.Operation{
		OperationID: "updatePage",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/books/{id}/page",
		Summary:     "Update current page",
		Description: "Sets the page you are on; status follows from it",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleUpdatePage)

	register(s, huma.Operation{
		OperationID: "toggleFavorite",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/books/{id}/favorite",
		Summary:     "Toggle favorite",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleToggleFavorite)

	register(s, huma.Operation{
		OperationID: "rateBook",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/books/{id}/rating",
		Summary:     "Rate book",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleRateBook)

	register(s, huma.Operation{
		OperationID: "listAuthors",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/authors",
		Summary:     "List authors",
		Description: "Groups your shelf by author",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleListAuthors)
}

// === DTOs ===

// AddBookRequest is the request body for adding a book.
type AddBookRequest struct {
	Title       string `json:"title" doc:"Book title"`
	AuthorName  string `json:"author_name" doc:"Author display name"`
	TotalPages  int    `json:"total_pages" doc:"Page count"`
	ISBN        string `json:"isbn,omitempty" doc:"ISBN-10 or ISBN-13, separators allowed"`
	Description string `json:"description,omitempty" doc:"Blurb"`
	CoverURL    string `json:"cover_url,omitempty" doc:"Cover image URL"`
}

// AddBookInput wraps the add book request for Huma.
type AddBookInput struct {
	Body AddBookRequest
}

// BookOutput wraps a library entry for Huma.
type BookOutput struct {
	Body *domain.LibraryEntry
}

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	Status    string `query:"status" doc:"Only books with this status"`
	Favorites bool   `query:"favorites" doc:"Only favorites"`
}

// ListBooksResponse contains a list of library entries.
type ListBooksResponse struct {
	Books []domain.LibraryEntry `json:"books" doc:"Library entries"`
}

// ListBooksOutput wraps the list books response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// BookIDInput contains the library entry path parameter.
type BookIDInput struct {
	ID string `path:"id" doc:"Library entry ID"`
}

// UpdatePageRequest is the request body for updating the current page.
type UpdatePageRequest struct {
	CurrentPage int `json:"current_page" doc:"Page you are on, 0 to total_pages"`
}

// UpdatePageInput wraps the update page request for Huma.
type UpdatePageInput struct {
	ID   string `path:"id" doc:"Library entry ID"`
	Body UpdatePageRequest
}

// ProgressOutput wraps a progress record for Huma.
type ProgressOutput struct {
	Body *domain.BookProgress
}

// FavoriteResponse reports the favorite flag after a toggle.
type FavoriteResponse struct {
	IsFavorite bool `json:"is_favorite"`
}

// FavoriteOutput wraps the favorite response for Huma.
type FavoriteOutput struct {
	Body FavoriteResponse
}

// RateBookRequest is the request body for rating a book.
type RateBookRequest struct {
	Rating int `json:"rating" doc:"Rating from 1 to 5"`
}

// RateBookInput wraps the rate request for Huma.
type RateBookInput struct {
	ID   string `path:"id" doc:"Library entry ID"`
	Body RateBookRequest
}

// ListAuthorsResponse contains the shelf grouped by author.
type ListAuthorsResponse struct {
	Authors []domain.AuthorShelf `json:"authors"`
}

// ListAuthorsOutput wraps the list authors response for Huma.
type ListAuthorsOutput struct {
	Body ListAuthorsResponse
}

// === Handlers ===

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*BookOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.services.Library.AddBook(ctx, userID, service.AddBookInput{
		Title:       input.Body.Title,
		AuthorName:  input.Body.AuthorName,
		TotalPages:  input.Body.TotalPages,
		ISBN:        input.Body.ISBN,
		Description: input.Body.Description,
		CoverURL:    input.Body.CoverURL,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: entry}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.services.Library.ListBooks(ctx, userID, service.ListFilter{
		Status:        domain.ReadingStatus(input.Status),
		FavoritesOnly: input.Favorites,
	})
	if err != nil {
		return nil, err
	}

	return &ListBooksOutput{Body: ListBooksResponse{Books: entries}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.services.Library.GetBook(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: entry}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.DeleteBook(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return nil, nil
}

func (s *Server) handleUpdatePage(ctx context.Context, input *UpdatePageInput) (*ProgressOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	progress, err := s.services.Progress.UpdatePage(ctx, userID, input.ID, input.Body.CurrentPage)
	if err != nil {
		return nil, err
	}

	return &ProgressOutput{Body: progress}, nil
}

func (s *Server) handleToggleFavorite(ctx context.Context, input *BookIDInput) (*FavoriteOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	favorite, err := s.services.Library.ToggleFavorite(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &FavoriteOutput{Body: FavoriteResponse{IsFavorite: favorite}}, nil
}

func (s *Server) handleRateBook(ctx context.Context, input *RateBookInput) (*ProgressOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	progress, err := s.services.Library.Rate(ctx, userID, input.ID, input.Body.Rating)
	if err != nil {
		return nil, err
	}

	return &ProgressOutput{Body: progress}, nil
}

func (s *Server) handleListAuthors(ctx context.Context, _ *struct{}) (*ListAuthorsOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	shelves, err := s.services.Library.ListAuthors(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListAuthorsOutput{Body: ListAuthorsResponse{Authors: shelves}}, nil
}
