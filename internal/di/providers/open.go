package providers

import (
	"fmt"
	"log/slog"

	"github.com/readtrackapp/readtrack-server/internal/config"
	"github.com/readtrackapp/readtrack-server/internal/store"
	"github.com/readtrackapp/readtrack-server/internal/store/kv"
	"github.com/readtrackapp/readtrack-server/internal/store/sqlite"
)

// OpenStore opens the backend named by cfg. It is shared with the CLI,
// which opens the store without a container.
func OpenStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendBadger:
		return kv.Open(cfg.DatabasePath(), logger)
	case config.BackendSQLite, "":
		return sqlite.Open(cfg.DatabasePath(), logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
