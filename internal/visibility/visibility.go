// Package visibility stores the per-task hide/show switches, keyed by the
// task's 0-based position. One line per task:
//
//	index|note,images,videos,files
//
// with each switch "0" (shown) or "1" (hidden).
package visibility

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dori/dossier/internal/model"
	"github.com/dori/dossier/internal/store"
)

// Backend is the storage port for the full index -> flags map
type Backend interface {
	Load() (map[int]model.Flags, error)
	Save(map[int]model.Flags) error
}

// Store reads and writes flags through a Backend. Every Set rewrites the
// whole map. Entries are not renumbered when tasks are deleted unless the
// caller asks for it with Shift.
type Store struct {
	backend Backend
	logger  *log.Logger
}

// New creates a store
func New(backend Backend, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{backend: backend, logger: logger}
}

// Get returns the flags for a task; all shown if none are stored or the
// store cannot be read
func (s *Store) Get(index int) model.Flags {
	all, err := s.backend.Load()
	if err != nil {
		s.logger.Printf("warning: failed to load visibility state: %v", err)
		return model.Flags{}
	}
	return all[index]
}

// Set stores the flags for one task
func (s *Store) Set(index int, flags model.Flags) error {
	all, err := s.backend.Load()
	if err != nil {
		return fmt.Errorf("failed to load visibility state: %w", err)
	}
	if all == nil {
		all = map[int]model.Flags{}
	}
	all[index] = flags
	return s.backend.Save(all)
}

// Shift drops the entry for a deleted task and moves every later entry down
// by one so flags stay attached to the same tasks
func (s *Store) Shift(deleted int) error {
	all, err := s.backend.Load()
	if err != nil {
		return fmt.Errorf("failed to load visibility state: %w", err)
	}
	if len(all) == 0 {
		return nil
	}
	shifted := make(map[int]model.Flags, len(all))
	for idx, f := range all {
		switch {
		case idx < deleted:
			shifted[idx] = f
		case idx > deleted:
			shifted[idx-1] = f
		}
	}
	return s.backend.Save(shifted)
}

// File stores flags in a text file
type File struct {
	Path   string
	Logger *log.Logger
}

// NewFile creates a file backend
func NewFile(path string, logger *log.Logger) *File {
	if logger == nil {
		logger = log.Default()
	}
	return &File{Path: path, Logger: logger}
}

// Load parses the file. Lines that cannot be parsed are skipped with a
// warning; missing switches default to shown.
func (f *File) Load() (map[int]model.Flags, error) {
	fh, err := os.Open(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return map[int]model.Flags{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	all := map[int]model.Flags{}
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		idx, flags, err := ParseLine(line)
		if err != nil {
			f.Logger.Printf("warning: skipping visibility line %q: %v", line, err)
			continue
		}
		all[idx] = flags
	}
	return all, sc.Err()
}

// Save rewrites the file in index order, via a temporary file and rename
func (f *File) Save(all map[int]model.Flags) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return err
	}
	idxs := make([]int, 0, len(all))
	for idx := range all {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	var b strings.Builder
	for _, idx := range idxs {
		b.WriteString(FormatLine(idx, all[idx]))
		b.WriteByte('\n')
	}
	return store.WriteAtomic(f.Path, []byte(b.String()))
}

// ParseLine parses one "index|f,f,f,f" line
func ParseLine(line string) (int, model.Flags, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return 0, model.Flags{}, errors.New("missing flags field")
	}
	idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, model.Flags{}, fmt.Errorf("bad index: %w", err)
	}
	states := strings.Split(parts[1], ",")
	var flags model.Flags
	for i, s := range model.Sections {
		if i < len(states) {
			flags = flags.With(s, strings.TrimSpace(states[i]) == "1")
		}
	}
	return idx, flags, nil
}

// FormatLine renders one line
func FormatLine(idx int, flags model.Flags) string {
	states := make([]string, len(model.Sections))
	for i, s := range model.Sections {
		states[i] = "0"
		if flags.Hidden(s) {
			states[i] = "1"
		}
	}
	return strconv.Itoa(idx) + "|" + strings.Join(states, ",")
}

// Memory keeps flags in process
type Memory struct {
	mu  sync.Mutex
	all map[int]model.Flags
}

// NewMemory creates an empty memory backend
func NewMemory() *Memory {
	return &Memory{all: map[int]model.Flags{}}
}

func (m *Memory) Load() (map[int]model.Flags, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]model.Flags, len(m.all))
	for k, v := range m.all {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) Save(all map[int]model.Flags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.all = make(map[int]model.Flags, len(all))
	for k, v := range all {
		m.all[k] = v
	}
	return nil
}
