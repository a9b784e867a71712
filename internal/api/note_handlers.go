package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrackapp/readtrack-server/internal/domain"
)

func (s *Server) registerNoteRoutes() {
	register(s, huma.Operation{
		OperationID:   "addNote",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/books/{id}/notes",
		Summary:       "Add note",
		Description:   "Attaches a note to a page of one of your books",
		Tags:          []string{"Notes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddNote)

	register(s, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/books/{id}/notes",
		Summary:     "List notes",
		Description: "Returns the book's notes ordered by page",
		Tags:        []string{"Notes"},
		Security:    bearerSecurity,
	}, s.handleListNotes)
}

// AddNoteRequest is the request body for adding a note.
type AddNoteRequest struct {
	PageNumber int    `json:"page_number" doc:"Page the note refers to"`
	Content    string `json:"content" doc:"Note text"`
}

// AddNoteInput wraps the add note request for Huma.
type AddNoteInput struct {
	ID   string `path:"id" doc:"Library entry ID"`
	Body AddNoteRequest
}

// NoteOutput wraps a note for Huma.
type NoteOutput struct {
	Body *domain.Note
}

// ListNotesResponse contains a book's notes.
type ListNotesResponse struct {
	Notes []*domain.Note `json:"notes"`
}

// ListNotesOutput wraps the list notes response for Huma.
type ListNotesOutput struct {
	Body ListNotesResponse
}

func (s *Server) handleAddNote(ctx context.Context, input *AddNoteInput) (*NoteOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Notes.AddNote(ctx, userID, input.ID, input.Body.PageNumber, input.Body.Content)
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleListNotes(ctx context.Context, input *BookIDInput) (*ListNotesOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	notes, err := s.services.Notes.ListNotes(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ListNotesOutput{Body: ListNotesResponse{Notes: notes}}, nil
}
