package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/readtrackapp/readtrack-server/internal/api"
	"github.com/readtrackapp/readtrack-server/internal/auth"
	"github.com/readtrackapp/readtrack-server/internal/config"
	"github.com/readtrackapp/readtrack-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)
	log := do.MustInvoke[*LoggerHandle](i)

	services := &api.Services{
		Ledger:   do.MustInvoke[*service.SessionLedger](i),
		Streaks:  do.MustInvoke[*service.StreakEngine](i),
		Progress: do.MustInvoke[*service.ProgressTracker](i),
		Activity: do.MustInvoke[*service.ActivityCoordinator](i),
		Library:  do.MustInvoke[*service.LibraryService](i),
		Notes:    do.MustInvoke[*service.NoteService](i),
		Stats:    do.MustInvoke[*service.StatsService](i),
		Users:    do.MustInvoke[*service.UserService](i),
	}

	handler := api.NewServer(services, storeHandle.Store, tokens, limiterHandle.KeyedRateLimiter, api.Options{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}, log.Logger.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
