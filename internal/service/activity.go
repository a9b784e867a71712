package service

import (
	"context"
	"log/slog"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// FinishResult is the closed session and the streak after it was counted.
type FinishResult struct {
	Session *domain.ReadingSession `json:"session"`
	Streak  *domain.StreakState    `json:"streak"`
}

// ActivityCoordinator composes the session ledger and streak engine so that
// ending a session counts toward the streak in the same commit.
type ActivityCoordinator struct {
	store   store.Store
	clock   clock.Clock
	ledger  *SessionLedger
	streaks *StreakEngine
	logger  *slog.Logger
}

// NewActivityCoordinator creates a new activity coordinator.
func NewActivityCoordinator(st store.Store, clk clock.Clock, ledger *SessionLedger, streaks *StreakEngine, logger *slog.Logger) *ActivityCoordinator {
	return &ActivityCoordinator{
		store:   st,
		clock:   clk,
		ledger:  ledger,
		streaks: streaks,
		logger:  logger,
	}
}

// FinishSession closes the session and records the activity. If the close
// fails nothing is written; if the streak update fails the close is rolled
// back with it. Page progress is not touched.
func (c *ActivityCoordinator) FinishSession(ctx context.Context, sessionID, ownerID string, pagesRead int) (*FinishResult, error) {
	now := c.clock.Now()

	var result FinishResult
	err := c.store.Update(ctx, func(tx store.Tx) error {
		session, err := c.ledger.closeIn(ctx, tx, sessionID, ownerID, pagesRead, now)
		if err != nil {
			return err
		}
		streak, _, err := c.streaks.recordIn(ctx, tx, ownerID, now)
		if err != nil {
			return err
		}
		result = FinishResult{Session: session, Streak: streak}
		return nil
	})
	if err != nil {
		return nil, translate(err, "reading session")
	}

	c.logger.Info("reading session finished",
		"user_id", ownerID,
		"session_id", sessionID,
		"duration_minutes", result.Session.Minutes(),
		"current_streak", result.Streak.CurrentStreak)
	return &result, nil
}
