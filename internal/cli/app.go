package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/vbonduro/mcprogress/internal/config"
	"github.com/vbonduro/mcprogress/internal/db"
	"github.com/vbonduro/mcprogress/internal/iconstore/local"
	"github.com/vbonduro/mcprogress/internal/logging"
	"github.com/vbonduro/mcprogress/internal/service"
	"github.com/vbonduro/mcprogress/internal/store"
)

// app is the wiring shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	icons    *local.LocalIconStore
	uow      *store.TxManager
	library  *service.LibraryService
	packages *service.PackageService

	closeLog func()
}

// openApp loads the configuration and opens the database and icon store.
// Interactive commands log as text on stderr; the server follows LOG_FORMAT.
func openApp(interactive bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, closeLog: func() {}}
	if interactive {
		a.logger = slog.New(logging.NewHandler(os.Stderr, cfg.LogLevel, "text"))
	} else {
		a.logger, a.closeLog, err = logging.New(cfg.LogLevel, cfg.LogFile, cfg.LogFormat)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	a.db, err = db.Open(cfg.DBPath)
	if err != nil {
		a.closeLog()
		return nil, err
	}

	a.icons, err = local.NewLocalIconStore(cfg.UploadsPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize icon store: %w", err)
	}

	a.uow = store.NewTxManager(a.db)
	a.library = service.NewLibraryService(a.uow, a.icons, a.logger)
	a.packages = service.NewPackageService(
		a.uow,
		a.icons,
		clockwork.NewRealClock(),
		service.PackageOptions{ExportAllWhenUnreferenced: cfg.ExportAllWhenUnreferenced},
		a.logger,
	)
	return a, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err)
	}
	a.closeLog()
}
