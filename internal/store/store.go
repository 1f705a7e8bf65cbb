package store

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dori/dossier/internal/model"
)

// Backend is the storage port for the whole task list. Save replaces
// everything previously stored.
type Backend interface {
	Load() ([]model.Task, error)
	Save(tasks []model.Task) error
}

// maxLineSize bounds a single record line
const maxLineSize = 16 * 1024 * 1024

// File stores records in a UTF-8 text file, one line per task
type File struct {
	Path string
}

// NewFile creates a file backend
func NewFile(path string) *File {
	return &File{Path: path}
}

// Load reads every non-blank line. A missing file is an empty list; any
// read error aborts the whole load.
func (f *File) Load() ([]model.Task, error) {
	fh, err := os.Open(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	defer fh.Close()

	var tasks []model.Task
	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tasks = append(tasks, DecodeLine(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}
	return tasks, nil
}

// Save rewrites the whole file through WriteAtomic
func (f *File) Save(tasks []model.Task) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	var b strings.Builder
	for _, t := range tasks {
		line := EncodeLine(t)
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if err := WriteAtomic(f.Path, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	return nil
}

// WriteAtomic replaces path with data. The content goes to a temporary file
// in the same directory, is synced, and renamed over path.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Memory keeps records in process; used by tests and dry runs
type Memory struct {
	mu    sync.Mutex
	tasks []model.Task
	Saves int
}

// NewMemory creates a memory backend seeded with tasks
func NewMemory(tasks ...model.Task) *Memory {
	m := &Memory{}
	m.tasks = cloneAll(tasks)
	return m
}

func (m *Memory) Load() ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.tasks), nil
}

func (m *Memory) Save(tasks []model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = cloneAll(tasks)
	m.Saves++
	return nil
}

func cloneAll(tasks []model.Task) []model.Task {
	if tasks == nil {
		return nil
	}
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
