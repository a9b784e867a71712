package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/service"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

func newUserCmd(flags *globalFlags) *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Manage users"}

	var name string
	createCmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(ctx context.Context, a *app) error {
				u, err := a.users.Create(ctx, args[0], name)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", u.Email, u.ID)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "display name")

	showCmd := &cobra.Command{
		Use:   "show <email>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(ctx context.Context, a *app) error {
				u, err := a.users.GetByEmail(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
					u.ID, u.Email, u.DisplayName(), u.CreatedAt.Format("2006-01-02"))
				return nil
			})
		},
	}

	user.AddCommand(createCmd, showCmd)
	return user
}

func newTokenCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for --user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(flags, func(_ context.Context, a *app, u *domain.User) error {
				token, expires, err := a.issueToken(u)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format("2006-01-02 15:04 MST"))
				return nil
			})
		},
	}
}

func newBookCmd(flags *globalFlags) *cobra.Command {
	book := &cobra.Command{Use: "book", Short: "Manage the --user's shelf"}

	var in service.AddBookInput
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(flags, func(ctx context.Context, a *app, u *domain.User) error {
				entry, err := a.library.AddBook(ctx, u.ID, in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "shelved %q by %s as %s\n",
					entry.Book.Title, entry.Author.Name, entry.Progress.ID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&in.Title, "title", "", "book title")
	addCmd.Flags().StringVar(&in.AuthorName, "author", "", "author name")
	addCmd.Flags().IntVar(&in.TotalPages, "pages", 0, "total pages")
	addCmd.Flags().StringVar(&in.ISBN, "isbn", "", "ISBN (optional)")

	var status string
	var favorites bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List books, most recently updated first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(flags, func(ctx context.Context, a *app, u *domain.User) error {
				entries, err := a.library.ListBooks(ctx, u.ID, service.ListFilter{
					Status:        domain.ReadingStatus(status),
					FavoritesOnly: favorites,
				})
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no books")
					return nil
				}
				for _, e := range entries {
					printEntry(cmd.OutOrStdout(), e)
				}
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "not_started|reading|completed")
	listCmd.Flags().BoolVar(&favorites, "favorites", false, "only favorites")

	removeCmd := &cobra.Command{
		Use:   "remove <user-book-id>",
		Short: "Remove a book with its sessions and notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(flags, func(ctx context.Context, a *app, u *domain.User) error {
				if err := a.library.DeleteBook(ctx, u.ID, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}

	book.AddCommand(addCmd, listCmd, removeCmd)
	return book
}

func newSessionCmd(flags *globalFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Reading session commands"}

	session.AddCommand(&cobra.Command{
		Use:   "start <user-book-id>",
		Short: "Open a reading session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(flags, func(ctx context.Context, a *app, u *domain.User) error {
				rs, err := a.ledger.OpenSession(ctx, u.ID, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "started %s at %s\n", rs.ID, rs.StartedAt.Format("15:04"))
				return nil
			})
		},
	})

	var pages int
	stopCmd := &cobra.Command{
		Use:   "stop <session-id>",
		Short: "Close a reading session and count the day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(flags, func(ctx context.Context, a *app, u *domain.User) error {
				res, err := a.activity.FinishSession(ctx, args[0], u.ID, pages)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stopped %s after %d min, %d pages; streak %d (longest %d)\n",
					res.Session.ID, res.Session.Minutes(), res.Session.PagesRead,
					a.streaks.Current(res.Streak), res.Streak.LongestStreak)
				return nil
			})
		},
	}
	stopCmd.Flags().IntVar(&pages, "pages", 0, "pages read during the session")

	var bookID string
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(flags, func(ctx context.Context, a *app, u *domain.User) error {
				page, err := a.ledger.ListSessions(ctx, u.ID, bookID, store.PaginationParams{Limit: limit})
				if err != nil {
					return err
				}
				if len(page.Items) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
					return nil
				}
				for _, rs := range page.Items {
					state := "open"
					if !rs.IsOpen() {
						state = fmt.Sprintf("%d min", rs.Minutes())
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%d pages\n",
						rs.ID, rs.UserBookID, rs.StartedAt.Format("2006-01-02 15:04"), state, rs.PagesRead)
				}
				if page.HasMore {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "...")
				}
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&bookID, "book", "", "only sessions for this user book")
	listCmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to show")

	session.AddCommand(stopCmd, listCmd)
	return session
}

func newPageCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "page <user-book-id> <page>",
		Short: "Set the current page of a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var page int
			if _, err := fmt.Sscanf(args[1], "%d", &page); err != nil {
				return fmt.Errorf("page must be a number: %q", args[1])
			}
			return withUser(flags, func(ctx context.Context, a *app, u *domain.User) error {
				p, err := a.progress.UpdatePage(ctx, u.ID, args[0], page)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s now on page %d (%s)\n", p.ID, p.CurrentPage, p.Status)
				return nil
			})
		},
	}
}

func newStreakCmd(flags *globalFlags) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Show the reading streak and calendar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(flags, func(ctx context.Context, a *app, u *domain.User) error {
				summary, err := a.streaks.Summary(ctx, u.ID, days)
				if err != nil {
					return err
				}
				printStreak(cmd.OutOrStdout(), summary)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", service.CalendarDays, "calendar length in days")
	return cmd
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard and lifetime totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(flags, func(ctx context.Context, a *app, u *domain.User) error {
				profile, err := a.stats.Profile(ctx, u.ID)
				if err != nil {
					return err
				}
				dash, err := a.stats.Dashboard(ctx, u.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				printStreak(out, &profile.Streak)
				_, _ = fmt.Fprintf(out, "books: %d total, %d reading, %d completed, %d not started\n",
					profile.Counts.Total, profile.Counts.Reading, profile.Counts.Completed, profile.Counts.NotStarted)
				_, _ = fmt.Fprintf(out, "read: %d pages in %d min across %d notes\n",
					profile.TotalPages, profile.TotalReadingMinutes, profile.TotalNotes)
				_, _ = fmt.Fprintf(out, "favorites: %d, rated: %d, average rating %.1f\n",
					profile.FavoriteBooks, profile.RatedBooks, profile.AverageRating)
				if len(dash.Recent) > 0 {
					_, _ = fmt.Fprintln(out, "recent:")
					for _, e := range dash.Recent {
						printEntry(out, e)
					}
				}
				return nil
			})
		},
	}
}

func printEntry(w io.Writer, e domain.LibraryEntry) {
	fav := ""
	if e.Progress.IsFavorite {
		fav = " *"
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d%s\n",
		e.Progress.ID, e.Book.Title, e.Author.Name, e.Progress.Status,
		e.Progress.CurrentPage, e.Book.TotalPages, fav)
}

func printStreak(w io.Writer, s *domain.StreakSummary) {
	_, _ = fmt.Fprintf(w, "streak: %d days (longest %d, %d active days total)\n",
		s.CurrentStreak, s.LongestStreak, s.TotalStreakDays)

	var b strings.Builder
	for _, d := range s.Calendar {
		if d.Active {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	if b.Len() > 0 {
		_, _ = fmt.Fprintf(w, "%s  %s..%s\n", b.String(), s.Calendar[0].Day, s.Calendar[len(s.Calendar)-1].Day)
	}
}
