package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dori/dossier/internal/config"
	"github.com/dori/dossier/internal/db"
	"github.com/dori/dossier/internal/folder"
	"github.com/dori/dossier/internal/intake"
	"github.com/dori/dossier/internal/preview"
	"github.com/dori/dossier/internal/store"
	"github.com/dori/dossier/internal/tasks"
	"github.com/dori/dossier/internal/visibility"
	"github.com/gofrs/flock"
)

// LockFile is created in the data directory while an instance is running
const LockFile = "dossier.lock"

// App holds the application state and dependencies
type App struct {
	Config      config.Config
	DB          *db.DB // nil with the file backend
	Tasks       *tasks.Repository
	Thumbnailer *preview.Thumbnailer
	Logger      *log.Logger
	lockFile    *flock.Flock
}

// New wires the repository to the configured backend and loads the task
// list. A nil logger discards diagnostics.
func New(cfg config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Acquire lock to ensure single instance
	if err := app.acquireLock(); err != nil {
		return nil, err
	}

	records, flags, err := app.backends()
	if err != nil {
		app.releaseLock()
		return nil, err
	}

	folders := folder.NewManager(cfg.ProjectsRoot, logger)
	vis := visibility.New(flags, logger)
	app.Tasks = tasks.New(records, folders, intake.New(logger), vis, logger)
	if err := app.Tasks.Load(); err != nil {
		app.Close()
		return nil, err
	}

	cacheDir := cfg.Preview.CacheDir
	if cacheDir == "" {
		cacheDir = preview.DefaultCacheDir()
	}
	app.Thumbnailer = preview.NewThumbnailer(cacheDir, logger)
	app.Thumbnailer.FFmpeg = cfg.Preview.FFmpeg
	app.Thumbnailer.Placeholder = cfg.Preview.Placeholder
	app.Thumbnailer.Offset = time.Duration(cfg.Preview.OffsetSeconds) * time.Second

	return app, nil
}

func (a *App) backends() (store.Backend, visibility.Backend, error) {
	switch a.Config.Backend {
	case config.BackendSQLite:
		database, err := db.Open(a.Config.DBPath)
		if err != nil {
			return nil, nil, err
		}
		a.DB = database
		return db.NewTaskStore(database), db.NewVisibilityStore(database), nil
	case config.BackendFile, "":
		return store.NewFile(a.Config.RecordFile), visibility.NewFile(a.Config.VisibilityFile, a.Logger), nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", a.Config.Backend)
	}
}

// acquireLock acquires an exclusive file lock to prevent concurrent writers
func (a *App) acquireLock() error {
	a.lockFile = flock.New(filepath.Join(a.Config.DataDir, LockFile))

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another instance of dossier is already using %s", a.Config.DataDir)
	}
	return nil
}

func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
