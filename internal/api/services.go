package api

import (
	"github.com/readtrackapp/readtrack-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Ledger   *service.SessionLedger
	Streaks  *service.StreakEngine
	Progress *service.ProgressTracker
	Activity *service.ActivityCoordinator
	Library  *service.LibraryService
	Notes    *service.NoteService
	Stats    *service.StatsService
	Users    *service.UserService
}
