// Package folder manages the per-task project folder tree:
//
//	<root>/项目<N>_<title>[_<n>]/
//	  images/ videos/ files/ docs/ project_info.txt
package folder

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// InfoFile is the metadata file written into every new project folder
const InfoFile = "project_info.txt"

// maxTitleRunes bounds the title part of a folder name
const maxTitleRunes = 50

// Subdirs are the category subdirectories created in every project folder
var Subdirs = []string{"images", "videos", "files", "docs"}

var (
	// ErrNoRoot is returned when the manager has no projects root
	ErrNoRoot = errors.New("projects root is not set")
	// ErrOutsideRoot guards recursive deletion of paths the manager does not own
	ErrOutsideRoot = errors.New("path is outside the projects root")
)

// Manager creates and removes project folders under Root
type Manager struct {
	Root   string
	Logger *log.Logger
	Now    func() time.Time
}

// NewManager creates a manager rooted at root
func NewManager(root string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		Root:   root,
		Logger: logger,
		Now:    time.Now,
	}
}

// Sanitize replaces characters that are illegal in file names on common
// filesystems, and the ";" path-list separator, with "_"
func Sanitize(title string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|', ';':
			return '_'
		}
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, title)
}

// Name builds the folder name for the task at the 0-based index
func Name(index int, title string) string {
	safe := Sanitize(title)
	if strings.TrimSpace(safe) == "" {
		safe = fmt.Sprintf("任务%d", index+1)
	}
	if r := []rune(safe); len(r) > maxTitleRunes {
		safe = string(r[:maxTitleRunes])
	}
	return fmt.Sprintf("项目%d_%s", index+1, safe)
}

// Create makes a uniquely named project folder with its subdirectories and
// metadata file, returning its path. A name already taken gets a _1, _2, ...
// suffix. On failure the error is logged and returned; whatever was created
// before the failure is left in place.
func (m *Manager) Create(index int, title string) (string, error) {
	if m.Root == "" {
		return "", ErrNoRoot
	}
	if err := os.MkdirAll(m.Root, 0755); err != nil {
		m.Logger.Printf("warning: failed to create projects root %s: %v", m.Root, err)
		return "", fmt.Errorf("failed to create projects root: %w", err)
	}

	base := filepath.Join(m.Root, Name(index, title))
	path := base
	for n := 1; exists(path); n++ {
		path = fmt.Sprintf("%s_%d", base, n)
	}

	if err := m.populate(path, index, title); err != nil {
		m.Logger.Printf("warning: failed to create project folder %s: %v", path, err)
		return "", err
	}
	return path, nil
}

func (m *Manager) populate(path string, index int, title string) error {
	if err := os.Mkdir(path, 0755); err != nil {
		return err
	}
	for _, sub := range Subdirs {
		if err := os.Mkdir(filepath.Join(path, sub), 0755); err != nil {
			return err
		}
	}
	return writeInfo(filepath.Join(path, InfoFile), Info{
		Name:    filepath.Base(path),
		Created: m.Now().Format("2006-01-02 15:04:05"),
		Index:   index,
		Title:   title,
	})
}

// Ensure returns path unchanged if it names an existing directory, and
// otherwise creates a fresh folder for the task. created reports whether a
// new folder was made.
func (m *Manager) Ensure(path string, index int, title string) (string, bool, error) {
	if path != "" && IsDir(path) {
		return path, false, nil
	}
	created, err := m.Create(index, title)
	if err != nil {
		return "", false, err
	}
	return created, true, nil
}

// Delete recursively removes a project folder. Folders outside Root are
// only removed if they carry an InfoFile, so folders made under an earlier
// projects root are still cleaned up. An empty path or a folder already
// gone is not an error.
func (m *Manager) Delete(path string) error {
	if path == "" {
		return nil
	}
	if !exists(path) {
		return nil
	}
	if !m.owns(path) && !isProject(path) {
		return fmt.Errorf("%s: %w", path, ErrOutsideRoot)
	}
	if err := os.RemoveAll(path); err != nil {
		m.Logger.Printf("warning: failed to delete project folder %s: %v", path, err)
		return fmt.Errorf("failed to delete project folder: %w", err)
	}
	return nil
}

// Contains reports whether target lies inside the folder
func Contains(folder, target string) bool {
	if folder == "" || target == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(folder), filepath.Clean(target))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (m *Manager) owns(path string) bool {
	if m.Root == "" {
		return false
	}
	root, err := filepath.Abs(m.Root)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return Contains(root, abs)
}

// isProject reports whether path looks like a folder made by Create
func isProject(path string) bool {
	info, err := os.Lstat(filepath.Join(path, InfoFile))
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path is an existing directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
