package providers

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/config"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured backend under the data path.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	if err := os.MkdirAll(cfg.App.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	st, err := OpenStore(cfg, log.Logger.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Store initialized", "backend", st.Backend(), "path", cfg.DatabasePath())

	return &StoreHandle{Store: st}, nil
}

// ProvideClock provides the wall clock.
func ProvideClock(i do.Injector) (clock.Clock, error) {
	return clock.System(), nil
}

// ProvideCalendar provides the calendar that assigns activity to days.
func ProvideCalendar(i do.Injector) (clock.Calendar, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return clock.NewCalendar(cfg.DayLocation()), nil
}
