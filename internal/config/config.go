package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultRecordFile     = "todo_data_ui.txt"
	DefaultVisibilityFile = "hide_state_config.txt"
	DefaultProjectsRoot   = "项目文件夹"
	DefaultDBName         = "dossier.db"

	BackendFile   = "file"
	BackendSQLite = "sqlite"

	// EnvConfig overrides the config file location
	EnvConfig = "DOSSIER_CONFIG"
)

type Preview struct {
	FFmpeg        string `toml:"ffmpeg"`
	CacheDir      string `toml:"cache_dir"`
	Placeholder   string `toml:"placeholder"`
	OffsetSeconds int    `toml:"offset_seconds"`
}

type Config struct {
	DataDir        string  `toml:"data_dir"`
	ProjectsRoot   string  `toml:"projects_root"`
	RecordFile     string  `toml:"record_file"`
	VisibilityFile string  `toml:"visibility_file"`
	Backend        string  `toml:"backend"`
	DBPath         string  `toml:"db_path"`
	Preview        Preview `toml:"preview"`
}

// DefaultDataDir returns the default data directory path
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dossier"
	}
	return filepath.Join(home, ".local", "share", "dossier")
}

// ResolveConfigPath returns $DOSSIER_CONFIG or the file in the data directory
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(DefaultDataDir(), DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing defaults first if the
// file does not exist
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolved(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg.resolved(), nil
}

// Validate checks values that cannot be defaulted
func (c Config) Validate() error {
	switch c.Backend {
	case "", BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendFile, BackendSQLite)
	}
	if c.Preview.OffsetSeconds < 0 {
		return errors.New("preview.offset_seconds must not be negative")
	}
	return nil
}

// resolved fills blanks with defaults and anchors relative paths at DataDir
func (c Config) resolved() Config {
	d := Default()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.ProjectsRoot == "" {
		c.ProjectsRoot = d.ProjectsRoot
	}
	if c.RecordFile == "" {
		c.RecordFile = d.RecordFile
	}
	if c.VisibilityFile == "" {
		c.VisibilityFile = d.VisibilityFile
	}
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.Preview.FFmpeg == "" {
		c.Preview.FFmpeg = d.Preview.FFmpeg
	}

	c.ProjectsRoot = c.under(c.ProjectsRoot)
	c.RecordFile = c.under(c.RecordFile)
	c.VisibilityFile = c.under(c.VisibilityFile)
	c.DBPath = c.under(c.DBPath)
	if c.Preview.CacheDir != "" {
		c.Preview.CacheDir = c.under(c.Preview.CacheDir)
	}
	if c.Preview.Placeholder != "" {
		c.Preview.Placeholder = c.under(c.Preview.Placeholder)
	}
	return c
}

func (c Config) under(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the configuration written on first launch
func Default() Config {
	return Config{
		DataDir:        DefaultDataDir(),
		ProjectsRoot:   DefaultProjectsRoot,
		RecordFile:     DefaultRecordFile,
		VisibilityFile: DefaultVisibilityFile,
		Backend:        BackendFile,
		DBPath:         DefaultDBName,
		Preview: Preview{
			FFmpeg:        "ffmpeg",
			OffsetSeconds: 1,
		},
	}
}
