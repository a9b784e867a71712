package service

import (
	"context"
	"log/slog"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// RecentEntries is how many recently updated books the dashboard shows.
const RecentEntries = 5

// StatsService computes dashboard and profile summaries.
type StatsService struct {
	store   store.Store
	streaks *StreakEngine
	logger  *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(st store.Store, streaks *StreakEngine, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:   st,
		streaks: streaks,
		logger:  logger,
	}
}

// Dashboard returns the streak with a week calendar, status counts and the
// most recently updated entries.
func (s *StatsService) Dashboard(ctx context.Context, ownerID string) (*domain.Dashboard, error) {
	var dash domain.Dashboard
	err := s.store.View(ctx, func(tx store.Tx) error {
		streak, err := s.streaks.summaryIn(ctx, tx, ownerID, CalendarDays)
		if err != nil {
			return err
		}
		all, err := tx.ListProgress(ctx, ownerID, store.ProgressFilter{})
		if err != nil {
			return err
		}

		dash.Streak = *streak
		for _, p := range all {
			dash.Counts.Add(p.Status)
		}
		dash.Recent, err = loadEntries(ctx, tx, all[:min(len(all), RecentEntries)])
		return err
	})
	if err != nil {
		return nil, translate(err, "dashboard")
	}
	return &dash, nil
}

// Profile returns lifetime reading totals.
func (s *StatsService) Profile(ctx context.Context, ownerID string) (*domain.Profile, error) {
	var prof domain.Profile
	err := s.store.View(ctx, func(tx store.Tx) error {
		streak, err := s.streaks.summaryIn(ctx, tx, ownerID, CalendarDays)
		if err != nil {
			return err
		}
		all, err := tx.ListProgress(ctx, ownerID, store.ProgressFilter{})
		if err != nil {
			return err
		}
		if prof.TotalReadingMinutes, err = tx.SumSessionMinutes(ctx, ownerID); err != nil {
			return err
		}
		if prof.TotalNotes, err = tx.CountNotes(ctx, ownerID); err != nil {
			return err
		}

		prof.Streak = *streak
		ratingSum := 0
		for _, p := range all {
			prof.Counts.Add(p.Status)
			prof.TotalPages += p.CurrentPage
			if p.IsFavorite {
				prof.FavoriteBooks++
			}
			if p.Rating != nil {
				prof.RatedBooks++
				ratingSum += *p.Rating
			}
		}
		if prof.RatedBooks > 0 {
			prof.AverageRating = float64(ratingSum) / float64(prof.RatedBooks)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "profile")
	}
	return &prof, nil
}
