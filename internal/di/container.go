// Package di provides dependency injection configuration for the ReadTrack server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/readtrackapp/readtrack-server/internal/auth"
	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/config"
	"github.com/readtrackapp/readtrack-server/internal/di/providers"
	"github.com/readtrackapp/readtrack-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideClock)
	do.Provide(injector, providers.ProvideCalendar)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionLedger)
	do.Provide(injector, providers.ProvideStreakEngine)
	do.Provide(injector, providers.ProvideProgressTracker)
	do.Provide(injector, providers.ProvideActivityCoordinator)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideNoteService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideUserService)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// Config and store errors surface here rather than on first request.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.LoggerHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[clock.Calendar](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionLedger](injector)
	_ = do.MustInvoke[*service.StreakEngine](injector)
	_ = do.MustInvoke[*service.ProgressTracker](injector)
	_ = do.MustInvoke[*service.ActivityCoordinator](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*service.NoteService](injector)
	_ = do.MustInvoke[*service.StatsService](injector)
	_ = do.MustInvoke[*service.UserService](injector)

	// Server
	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
