package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

func (s *Server) registerSessionRoutes() {
	register(s, huma.Operation{
		OperationID:   "startSession",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/sessions",
		Summary:       "Start reading session",
		Description:   "Opens a timed reading session on one of your books",
		Tags:          []string{"Sessions"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleStartSession)

	register(s, huma.Operation{
		OperationID: "stopSession",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/sessions/{id}/stop",
		Summary:     "Stop reading session",
		Description: "Closes the session and counts the day toward your streak",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleStopSession)

	register(s, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/sessions/{id}",
		Summary:     "Get reading session",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleGetSession)

	register(s, huma.Operation{
		OperationID: "listSessions",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/sessions",
		Summary:     "List reading sessions",
		Description: "Returns your sessions newest first, optionally for one book",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleListSessions)
}

// === DTOs ===

// StartSessionRequest is the request body for starting a session.
type StartSessionRequest struct {
	UserBookID string `json:"user_book_id" minLength:"1" doc:"Library entry to read"`
}

// StartSessionInput wraps the start session request for Huma.
type StartSessionInput struct {
	Body StartSessionRequest
}

// SessionOutput wraps a single session for Huma.
type SessionOutput struct {
	Body *domain.ReadingSession
}

// StopSessionRequest is the request body for stopping a session.
type StopSessionRequest struct {
	PagesRead int `json:"pages_read,omitempty" minimum:"0" doc:"Pages read during the session"`
}

// StopSessionInput wraps the stop session request for Huma.
type StopSessionInput struct {
	ID   string              `path:"id" doc:"Session ID"`
	Body *StopSessionRequest `required:"false"`
}

// StreakResponse is the streak as shown to the reader after an activity.
type StreakResponse struct {
	CurrentStreak int        `json:"current_streak" doc:"Consecutive active days ending today or yesterday"`
	LongestStreak int        `json:"longest_streak" doc:"Longest streak ever reached"`
	LastReadDate  *time.Time `json:"last_read_date,omitempty" doc:"Time of the last counted activity"`
}

// StopSessionResponse contains the closed session and the updated streak.
type StopSessionResponse struct {
	Session *domain.ReadingSession `json:"session"`
	Streak  StreakResponse         `json:"streak"`
}

// StopSessionOutput wraps the stop session response for Huma.
type StopSessionOutput struct {
	Body StopSessionResponse
}

// GetSessionInput contains parameters for getting a session.
type GetSessionInput struct {
	ID string `path:"id" doc:"Session ID"`
}

// ListSessionsInput contains parameters for listing sessions.
type ListSessionsInput struct {
	UserBookID string `query:"user_book_id" doc:"Only sessions for this library entry"`
	Cursor     string `query:"cursor" doc:"Cursor from a previous page"`
	Limit      int    `query:"limit" minimum:"0" maximum:"500" doc:"Page size (default 50)"`
}

// ListSessionsOutput wraps a page of sessions for Huma.
type ListSessionsOutput struct {
	Body *store.PaginatedResult[*domain.ReadingSession]
}

// === Handlers ===

func (s *Server) handleStartSession(ctx context.Context, input *StartSessionInput) (*SessionOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.services.Ledger.OpenSession(ctx, userID, input.Body.UserBookID)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: session}, nil
}

func (s *Server) handleStopSession(ctx context.Context, input *StopSessionInput) (*StopSessionOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var pagesRead int
	if input.Body != nil {
		pagesRead = input.Body.PagesRead
	}

	res, err := s.services.Activity.FinishSession(ctx, input.ID, userID, pagesRead)
	if err != nil {
		return nil, err
	}

	return &StopSessionOutput{
		Body: StopSessionResponse{
			Session: res.Session,
			Streak: StreakResponse{
				CurrentStreak: s.services.Streaks.Current(res.Streak),
				LongestStreak: res.Streak.LongestStreak,
				LastReadDate:  res.Streak.LastReadDate,
			},
		},
	}, nil
}

func (s *Server) handleGetSession(ctx context.Context, input *GetSessionInput) (*SessionOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.services.Ledger.GetSession(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: session}, nil
}

func (s *Server) handleListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Ledger.ListSessions(ctx, userID, input.UserBookID, store.PaginationParams{
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []*domain.ReadingSession{}
	}

	return &ListSessionsOutput{Body: page}, nil
}
