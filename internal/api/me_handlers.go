package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/service"
)

func (s *Server) registerMeRoutes() {
	register(s, huma.Operation{
		OperationID: "getMe",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/me",
		Summary:     "Get current user",
		Tags:        []string{"Me"},
		Security:    bearerSecurity,
	}, s.handleGetMe)

	register(s, huma.Operation{
		OperationID: "getStreak",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/me/streak",
		Summary:     "Get reading streak",
		Description: "Returns the live streak with a calendar of recent days",
		Tags:        []string{"Me"},
		Security:    bearerSecurity,
	}, s.handleGetStreak)

	register(s, huma.Operation{
		OperationID: "getDashboard",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/me/dashboard",
		Summary:     "Get dashboard",
		Tags:        []string{"Me"},
		Security:    bearerSecurity,
	}, s.handleGetDashboard)

	register(s, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/me/profile",
		Summary:     "Get profile statistics",
		Tags:        []string{"Me"},
		Security:    bearerSecurity,
	}, s.handleGetProfile)
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body *domain.User
}

// StreakInput contains parameters for the streak summary.
type StreakInput struct {
	Days int `query:"days" minimum:"1" maximum:"366" doc:"Calendar length in days, default 7"`
}

// StreakOutput wraps the streak summary for Huma.
type StreakOutput struct {
	Body *domain.StreakSummary
}

// DashboardOutput wraps the dashboard for Huma.
type DashboardOutput struct {
	Body *domain.Dashboard
}

// ProfileOutput wraps the profile for Huma.
type ProfileOutput struct {
	Body *domain.Profile
}

func (s *Server) handleGetMe(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: user}, nil
}

func (s *Server) handleGetStreak(ctx context.Context, input *StreakInput) (*StreakOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	days := input.Days
	if days == 0 {
		days = service.CalendarDays
	}

	summary, err := s.services.Streaks.Summary(ctx, userID, days)
	if err != nil {
		return nil, err
	}

	return &StreakOutput{Body: summary}, nil
}

func (s *Server) handleGetDashboard(ctx context.Context, _ *struct{}) (*DashboardOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	dashboard, err := s.services.Stats.Dashboard(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &DashboardOutput{Body: dashboard}, nil
}

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Stats.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: profile}, nil
}
