// Package tasks owns the in-memory task list and keeps it in sync with the
// record backend, the project folders and the visibility store.
//
// Tasks are addressed by their 0-based position. Deleting a task moves every
// later task down by one; the repository shifts visibility entries to match.
package tasks

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dori/dossier/internal/folder"
	"github.com/dori/dossier/internal/intake"
	"github.com/dori/dossier/internal/model"
	"github.com/dori/dossier/internal/pathlist"
	"github.com/dori/dossier/internal/store"
	"github.com/dori/dossier/internal/visibility"
	"github.com/google/uuid"
)

var (
	ErrInvalidIndex    = errors.New("task index out of range")
	ErrInvalidPosition = errors.New("attachment position out of range")
	ErrEmptyTitle      = errors.New("task title is empty")
	ErrDelimiter       = errors.New(`text contains the reserved "|" delimiter`)
	ErrNotAttachment   = errors.New("section does not hold attachments")
	ErrNotFound        = errors.New("task not found")
)

// Repository is the single owner of the task list
type Repository struct {
	backend    store.Backend
	folders    *folder.Manager
	intake     *intake.Intake
	visibility *visibility.Store
	logger     *log.Logger
	tasks      []model.Task

	// Now is used for title date stamps
	Now func() time.Time
}

// New creates a repository. vis may be nil, in which case every task reports
// all sections shown.
func New(backend store.Backend, folders *folder.Manager, in *intake.Intake, vis *visibility.Store, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Default()
	}
	if in == nil {
		in = intake.New(logger)
	}
	return &Repository{
		backend:    backend,
		folders:    folders,
		intake:     in,
		visibility: vis,
		logger:     logger,
		Now:        time.Now,
	}
}

// Load replaces the in-memory list with the backend's content
func (r *Repository) Load() error {
	tasks, err := r.backend.Load()
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = uuid.New().String()
		}
	}
	r.tasks = tasks
	return nil
}

func (r *Repository) save() error {
	if err := r.backend.Save(r.tasks); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}
	return nil
}

// Len returns the number of tasks
func (r *Repository) Len() int {
	return len(r.tasks)
}

// Tasks returns a copy of the list
func (r *Repository) Tasks() []model.Task {
	out := make([]model.Task, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Get returns a copy of the task at index
func (r *Repository) Get(index int) (model.Task, error) {
	if err := r.check(index); err != nil {
		return model.Task{}, err
	}
	return r.tasks[index].Clone(), nil
}

// IndexOf returns the current position of the task with the given ID
func (r *Repository) IndexOf(id string) (int, error) {
	for i, t := range r.tasks {
		if t.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s: %w", id, ErrNotFound)
}

func (r *Repository) check(index int) error {
	if index < 0 || index >= len(r.tasks) {
		return fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, index+1, len(r.tasks))
	}
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if strings.ContainsAny(title, store.Delimiter+"\n\r") {
		return "", ErrDelimiter
	}
	return title, nil
}

// Add appends a task titled "<title> (YYYY-MM-DD)" and creates its project
// folder. If the folder cannot be created the task is still added, without
// a folder, and the failure is logged.
func (r *Repository) Add(title string) (model.Task, error) {
	title, err := validateTitle(title)
	if err != nil {
		return model.Task{}, err
	}

	t := model.Task{
		ID:    uuid.New().String(),
		Title: model.StampTitle(title, r.Now()),
	}
	r.tasks = append(r.tasks, t)
	index := len(r.tasks) - 1

	if r.folders != nil {
		if path, err := r.folders.Create(index, t.Title); err != nil {
			r.logger.Printf("warning: task %q added without project folder: %v", t.Title, err)
		} else {
			r.tasks[index].ProjectFolder = path
		}
	}

	if err := r.save(); err != nil {
		return r.tasks[index].Clone(), err
	}
	return r.tasks[index].Clone(), nil
}

// Rename changes a task's title, keeping its existing date stamp or adding
// today's. The project folder keeps its original name.
func (r *Repository) Rename(index int, title string) error {
	if err := r.check(index); err != nil {
		return err
	}
	title, err := validateTitle(title)
	if err != nil {
		return err
	}

	t := &r.tasks[index]
	day, ok := t.CreatedOn()
	if !ok {
		day = r.Now()
	}
	t.Title = model.StampTitle(title, day)
	return r.save()
}

// ToggleCompleted flips the completion flag and returns the new value
func (r *Repository) ToggleCompleted(index int) (bool, error) {
	if err := r.check(index); err != nil {
		return false, err
	}
	r.tasks[index].Completed = !r.tasks[index].Completed
	return r.tasks[index].Completed, r.save()
}

// SetNote replaces the free-text note. Newlines are allowed; the field
// delimiter is not.
func (r *Repository) SetNote(index int, note string) error {
	if err := r.check(index); err != nil {
		return err
	}
	if strings.Contains(note, store.Delimiter) {
		return ErrDelimiter
	}
	r.tasks[index].Note = strings.TrimSpace(note)
	return r.save()
}

// EnsureFolder returns the task's project folder, creating it if it has
// never been made or no longer exists on disk
func (r *Repository) EnsureFolder(index int) (string, error) {
	if err := r.check(index); err != nil {
		return "", err
	}
	if r.folders == nil {
		return "", folder.ErrNoRoot
	}
	t := &r.tasks[index]
	path, created, err := r.folders.Ensure(t.ProjectFolder, index, t.DisplayTitle())
	if err != nil {
		return "", err
	}
	if created {
		t.ProjectFolder = path
		if err := r.save(); err != nil {
			return path, err
		}
	}
	return path, nil
}

// Reconcile drops attachment paths that no longer exist on disk and
// persists the result if anything changed. It returns the dropped paths.
func (r *Repository) Reconcile(index int) ([]string, error) {
	if err := r.check(index); err != nil {
		return nil, err
	}
	t := &r.tasks[index]
	var dropped []string
	for _, s := range model.AttachmentSections {
		kept, gone := pathlist.Reconcile(t.Paths(s))
		if len(gone) == 0 {
			continue
		}
		t.SetPaths(s, kept)
		dropped = append(dropped, gone...)
	}
	if len(dropped) == 0 {
		return nil, nil
	}
	r.logger.Printf("pruned %d missing attachment(s) from task %d", len(dropped), index+1)
	return dropped, r.save()
}

// Detail is everything a detail view needs for one task
type Detail struct {
	Index     int
	Task      model.Task
	Flags     model.Flags
	Dropped   []string // paths pruned by this call
	FolderErr error    // set when the project folder could not be made
}

// Detail prepares a task for display: it makes sure the project folder
// exists, reconciles the attachment lists with the filesystem and reads the
// visibility flags.
func (r *Repository) Detail(index int) (Detail, error) {
	if err := r.check(index); err != nil {
		return Detail{}, err
	}
	d := Detail{Index: index}
	if _, err := r.EnsureFolder(index); err != nil {
		r.logger.Printf("warning: project folder unavailable for task %d: %v", index+1, err)
		d.FolderErr = err
	}
	dropped, err := r.Reconcile(index)
	if err != nil {
		return Detail{}, err
	}
	d.Dropped = dropped
	d.Task = r.tasks[index].Clone()
	d.Flags = r.Flags(index)
	return d, nil
}

// Attach copies files into the task's project folder and appends the
// resulting paths to the section's list. Each file succeeds or degrades to
// its original path on its own.
func (r *Repository) Attach(index int, section model.Section, sources []string) ([]intake.Result, error) {
	if err := r.check(index); err != nil {
		return nil, err
	}
	if !section.IsAttachment() {
		return nil, fmt.Errorf("%s: %w", section, ErrNotAttachment)
	}
	if len(sources) == 0 {
		return nil, nil
	}

	dir, err := r.EnsureFolder(index)
	if err != nil {
		r.logger.Printf("warning: attaching to task %d without project folder: %v", index+1, err)
		dir = ""
	}

	results := r.intake.AddFiles(dir, sources, intake.HintFor(section))
	t := &r.tasks[index]
	t.SetPaths(section, append(t.Paths(section), intake.Paths(results)...))
	return results, r.save()
}

// Detach removes entries from a section's list by 0-based position. The
// files themselves are left on disk.
func (r *Repository) Detach(index int, section model.Section, positions []int) ([]string, error) {
	if err := r.check(index); err != nil {
		return nil, err
	}
	if !section.IsAttachment() {
		return nil, fmt.Errorf("%s: %w", section, ErrNotAttachment)
	}
	t := &r.tasks[index]
	paths := t.Paths(section)

	drop := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(paths) {
			return nil, fmt.Errorf("%w: %d (have %d)", ErrInvalidPosition, p+1, len(paths))
		}
		drop[p] = true
	}
	if len(drop) == 0 {
		return nil, nil
	}

	var kept, removed []string
	for i, p := range paths {
		if drop[i] {
			removed = append(removed, p)
			continue
		}
		kept = append(kept, p)
	}
	t.SetPaths(section, kept)
	return removed, r.save()
}

// Deletion reports what Delete did
type Deletion struct {
	Task          model.Task
	FolderRemoved bool
	FolderErr     error
}

// Delete removes the task at index. Its project folder is removed first on
// a best-effort basis; a failure there does not stop the record deletion.
func (r *Repository) Delete(index int) (Deletion, error) {
	if err := r.check(index); err != nil {
		return Deletion{}, err
	}
	d := Deletion{Task: r.tasks[index].Clone()}

	if d.Task.HasFolder() && folder.IsDir(d.Task.ProjectFolder) && r.folders != nil {
		if err := r.folders.Delete(d.Task.ProjectFolder); err != nil {
			r.logger.Printf("warning: failed to delete project folder %s: %v", d.Task.ProjectFolder, err)
			d.FolderErr = err
		} else {
			d.FolderRemoved = true
		}
	}

	r.tasks = append(r.tasks[:index], r.tasks[index+1:]...)
	if err := r.save(); err != nil {
		return d, err
	}

	if r.visibility != nil {
		if err := r.visibility.Shift(index); err != nil {
			r.logger.Printf("warning: failed to renumber visibility state: %v", err)
		}
	}
	return d, nil
}

// Migrate copies attachments recorded outside the project folder into it
// and rewrites the lists to point at the copies. Paths already inside the
// folder are left alone, so running it again makes no new copies.
func (r *Repository) Migrate(index int) (intake.MigrateResult, error) {
	if err := r.check(index); err != nil {
		return intake.MigrateResult{}, err
	}
	dir, err := r.EnsureFolder(index)
	if err != nil {
		return intake.MigrateResult{}, fmt.Errorf("cannot migrate without project folder: %w", err)
	}

	t := &r.tasks[index]
	outside := func(paths []string) []string {
		var out []string
		for _, p := range paths {
			if !folder.Contains(dir, p) {
				out = append(out, p)
			}
		}
		return out
	}

	res := r.intake.Migrate(dir, outside(t.Images), outside(t.Videos), outside(t.Files))
	t.Images = merge(dir, t.Images, res.Images)
	t.Videos = merge(dir, t.Videos, res.Videos)
	t.Files = merge(dir, t.Files, res.Files)
	return res, r.save()
}

// merge replaces each outside path with its migration result, in order
func merge(dir string, paths []string, results []intake.Result) []string {
	out := make([]string, 0, len(paths))
	next := 0
	for _, p := range paths {
		if folder.Contains(dir, p) || next >= len(results) {
			out = append(out, p)
			continue
		}
		out = append(out, results[next].Path)
		next++
	}
	return out
}

// Flags returns the visibility flags for a task
func (r *Repository) Flags(index int) model.Flags {
	if r.visibility == nil {
		return model.Flags{}
	}
	return r.visibility.Get(index)
}

// SetHidden hides or shows one section of a task's detail view
func (r *Repository) SetHidden(index int, section model.Section, hidden bool) (model.Flags, error) {
	if err := r.check(index); err != nil {
		return model.Flags{}, err
	}
	if r.visibility == nil {
		return model.Flags{}, errors.New("visibility state is not configured")
	}
	flags := r.visibility.Get(index).With(section, hidden)
	return flags, r.visibility.Set(index, flags)
}

// RestoreAll shows every section of a task again
func (r *Repository) RestoreAll(index int) error {
	if err := r.check(index); err != nil {
		return err
	}
	if r.visibility == nil {
		return nil
	}
	return r.visibility.Set(index, model.Flags{})
}
