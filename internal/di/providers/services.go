package providers

import (
	"github.com/samber/do/v2"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/service"
	"github.com/readtrackapp/readtrack-server/internal/validation"
)

// ProvideValidator provides the shared input validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSessionLedger provides the reading session ledger.
func ProvideSessionLedger(i do.Injector) (*service.SessionLedger, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewSessionLedger(storeHandle.Store, clk, log.Logger.Logger), nil
}

// ProvideStreakEngine provides the streak engine.
func ProvideStreakEngine(i do.Injector) (*service.StreakEngine, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	cal := do.MustInvoke[clock.Calendar](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewStreakEngine(storeHandle.Store, clk, cal, log.Logger.Logger), nil
}

// ProvideProgressTracker provides the page progress tracker.
func ProvideProgressTracker(i do.Injector) (*service.ProgressTracker, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewProgressTracker(storeHandle.Store, clk, log.Logger.Logger), nil
}

// ProvideActivityCoordinator provides the session-close and streak coordinator.
func ProvideActivityCoordinator(i do.Injector) (*service.ActivityCoordinator, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	ledger := do.MustInvoke[*service.SessionLedger](i)
	streaks := do.MustInvoke[*service.StreakEngine](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewActivityCoordinator(storeHandle.Store, clk, ledger, streaks, log.Logger.Logger), nil
}

// ProvideLibraryService provides the library service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewLibraryService(storeHandle.Store, clk, v, log.Logger.Logger), nil
}

// ProvideNoteService provides the note service.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewNoteService(storeHandle.Store, clk, v, log.Logger.Logger), nil
}

// ProvideStatsService provides the dashboard and profile statistics service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	streaks := do.MustInvoke[*service.StreakEngine](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewStatsService(storeHandle.Store, streaks, log.Logger.Logger), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewUserService(storeHandle.Store, clk, v, log.Logger.Logger), nil
}
