package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
	"github.com/readtrackapp/readtrack-server/internal/service"
)

// seedShelf is the catalog the seed command shelves for its user.
var seedShelf = []service.AddBookInput{
	{Title: "The Left Hand of Darkness", AuthorName: "Ursula K. Le Guin", TotalPages: 304, ISBN: "9780441478125"},
	{Title: "The Dispossessed", AuthorName: "Ursula K. Le Guin", TotalPages: 387},
	{Title: "Kindred", AuthorName: "Octavia E. Butler", TotalPages: 264},
	{Title: "Parable of the Sower", AuthorName: "Octavia E. Butler", TotalPages: 345},
	{Title: "Piranesi", AuthorName: "Susanna Clarke", TotalPages: 272},
}

type seedOptions struct {
	days    int
	seed    uint64
	skipPct int
}

func newSeedCmd(flags *globalFlags) *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill --user's account with books and a history of reading sessions",
		Long: "Creates the user when missing, shelves a few books and replays reading " +
			"sessions over the past days so the streak, dashboard and profile have data.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.user == "" {
				return fmt.Errorf("--user is required")
			}
			return withApp(flags, func(ctx context.Context, a *app) error {
				return runSeed(ctx, cmd, a, flags.user, opts)
			})
		},
	}
	cmd.Flags().IntVar(&opts.days, "days", 14, "days of history to create, ending today")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&opts.skipPct, "skip", 20, "percent chance of skipping a day before yesterday")
	return cmd
}

func runSeed(ctx context.Context, cmd *cobra.Command, base *app, email string, opts seedOptions) error {
	if opts.days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	now := time.Now()
	cal := base.calendar
	today := cal.Day(now)
	first := cal.Midnight(today.AddDays(-(opts.days - 1)))

	// Replay history on a manual clock so sessions land on past days.
	clk := clock.NewManual(first)
	a := newApp(base.cfg, base.store, clk, base.logger)
	out := cmd.OutOrStdout()

	user, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, domainerrors.ErrNotFound) {
		user, err = a.users.Create(ctx, email, "")
	}
	if err != nil {
		return err
	}

	entries := make([]*domain.LibraryEntry, 0, len(seedShelf))
	for _, in := range seedShelf {
		entry, err := a.library.AddBook(ctx, user.ID, in)
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s already has the seed shelf; nothing to do", email)
	}
	_, _ = fmt.Fprintf(out, "shelved %d books for %s\n", len(entries), user.Email)

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	sessions := 0

	for back := opts.days - 1; back >= 0; back-- {
		// Today and yesterday are always read so the streak is live.
		if back > 1 && rng.IntN(100) < opts.skipPct {
			continue
		}

		day := today.AddDays(-back)
		start := cal.Midnight(day).Add(7*time.Hour + time.Duration(rng.IntN(12*60))*time.Minute)
		if !start.Before(now) {
			start = cal.Midnight(day)
		}
		clk.Set(start)

		entry := entries[rng.IntN(len(entries))]
		rs, err := a.ledger.OpenSession(ctx, user.ID, entry.Progress.ID)
		if err != nil {
			return err
		}

		minutes := 5 + rng.IntN(50)
		clk.Advance(time.Duration(minutes) * time.Minute)

		pages := min(3+rng.IntN(30), entry.Book.TotalPages-entry.Progress.CurrentPage)
		if _, err := a.activity.FinishSession(ctx, rs.ID, user.ID, pages); err != nil {
			return err
		}
		if pages > 0 {
			progress, err := a.progress.UpdatePage(ctx, user.ID, entry.Progress.ID, entry.Progress.CurrentPage+pages)
			if err != nil {
				return err
			}
			entry.Progress = progress
		}
		sessions++
	}

	summary, err := a.streaks.Summary(ctx, user.ID, opts.days)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "replayed %d sessions over %d days\n", sessions, opts.days)
	printStreak(out, summary)
	return nil
}
