package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
	"github.com/readtrackapp/readtrack-server/internal/id"
	"github.com/readtrackapp/readtrack-server/internal/store"
	"github.com/readtrackapp/readtrack-server/internal/validation"
)

type noteInput struct {
	PageNumber int    `json:"page_number" validate:"gte=0"`
	Content    string `json:"content" validate:"required,max=10000"`
}

// NoteService stores page notes on a user's books.
type NoteService struct {
	store     store.Store
	clock     clock.Clock
	validator *validation.Validator
	logger    *slog.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(st store.Store, clk clock.Clock, v *validation.Validator, logger *slog.Logger) *NoteService {
	return &NoteService{
		store:     st,
		clock:     clk,
		validator: v,
		logger:    logger,
	}
}

// AddNote attaches a note at pageNumber. Another user's book reads as not
// found.
func (s *NoteService) AddNote(ctx context.Context, ownerID, userBookID string, pageNumber int, content string) (*domain.Note, error) {
	in := noteInput{PageNumber: pageNumber, Content: strings.TrimSpace(content)}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	noteID, err := id.Generate(id.PrefixNote)
	if err != nil {
		return nil, domainerrors.Internal("generate note id", err)
	}
	now := s.clock.Now()

	note := &domain.Note{
		Record:     domain.Record{ID: noteID},
		UserID:     ownerID,
		UserBookID: userBookID,
		PageNumber: in.PageNumber,
		Content:    in.Content,
	}
	note.InitTimestamps(now)

	err = s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := loadProgress(ctx, tx, ownerID, userBookID, foreignHidden); err != nil {
			return err
		}
		return tx.CreateNote(ctx, note)
	})
	if err != nil {
		return nil, translate(err, "note")
	}

	s.logger.Debug("note added",
		"user_id", ownerID,
		"user_book_id", userBookID,
		"note_id", note.ID,
		"page", note.PageNumber)
	return note, nil
}

// ListNotes returns the book's notes by page, then creation time.
func (s *NoteService) ListNotes(ctx context.Context, ownerID, userBookID string) ([]*domain.Note, error) {
	var notes []*domain.Note
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := loadProgress(ctx, tx, ownerID, userBookID, foreignHidden); err != nil {
			return err
		}
		var err error
		notes, err = tx.ListNotes(ctx, userBookID)
		return err
	})
	if err != nil {
		return nil, translate(err, "notes")
	}
	if notes == nil {
		notes = []*domain.Note{}
	}
	return notes, nil
}
