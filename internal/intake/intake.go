// Package intake copies external files into a task's project folder.
package intake

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dori/dossier/internal/classify"
	"github.com/dori/dossier/internal/folder"
	"github.com/dori/dossier/internal/model"
	"github.com/dori/dossier/internal/pathlist"
)

var (
	// ErrNoFolder means the project folder is absent, so the file was not copied
	ErrNoFolder = errors.New("project folder unavailable")
	// ErrUnstorablePath means the path contains a reserved delimiter
	ErrUnstorablePath = errors.New("path contains a reserved character")
	// ErrUnstorableCopy means the copied destination path contains a reserved
	// delimiter, so the copy was removed and the original path kept
	ErrUnstorableCopy = errors.New("copied path contains a reserved character")
)

// Hint picks the target category for a batch. HintAuto classifies each file
// by extension.
type Hint int

const (
	HintAuto Hint = iota
	HintImage
	HintVideo
)

// HintFor returns the hint used when attaching to a section
func HintFor(s model.Section) Hint {
	switch s {
	case model.SectionImages:
		return HintImage
	case model.SectionVideos:
		return HintVideo
	}
	return HintAuto
}

// Result is the outcome for one source file. Path is the copied file on
// success and the original source path when Err is set.
type Result struct {
	Source string
	Path   string
	Err    error
}

// Copied returns true if the file now lives in the project folder
func (r Result) Copied() bool {
	return r.Err == nil && r.Path != r.Source
}

// Paths collects the stored path of every result that can be recorded
func Paths(results []Result) []string {
	paths := make([]string, 0, len(results))
	for _, r := range results {
		if errors.Is(r.Err, ErrUnstorablePath) {
			continue
		}
		paths = append(paths, r.Path)
	}
	return paths
}

// Failed returns the results that degraded to their original path
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Intake copies files into project folders
type Intake struct {
	Logger *log.Logger
}

// New creates an Intake
func New(logger *log.Logger) *Intake {
	if logger == nil {
		logger = log.Default()
	}
	return &Intake{Logger: logger}
}

// AddFiles copies every source into the matching category subdirectory of
// projectFolder. Files are processed in order and independently: a file that
// cannot be copied keeps its original path in the result.
func (in *Intake) AddFiles(projectFolder string, sources []string, hint Hint) []Result {
	results := make([]Result, 0, len(sources))
	for _, src := range sources {
		results = append(results, in.addOne(projectFolder, src, categoryFor(src, hint)))
	}
	return results
}

func (in *Intake) addOne(projectFolder, src string, cat model.Category) Result {
	r := Result{Source: src, Path: src}
	if !pathlist.Valid(src) {
		r.Err = fmt.Errorf("%q: %w", src, ErrUnstorablePath)
		return r
	}
	if projectFolder == "" || !folder.IsDir(projectFolder) {
		r.Err = ErrNoFolder
		return r
	}

	dst, err := CopyInto(src, filepath.Join(projectFolder, cat.Dir()))
	if err != nil {
		in.Logger.Printf("warning: failed to copy %s: %v", src, err)
		r.Err = err
		return r
	}
	if !pathlist.Valid(dst) {
		in.Logger.Printf("warning: copy of %s at %s cannot be recorded, keeping original", src, dst)
		os.Remove(dst)
		r.Err = fmt.Errorf("%q: %w", dst, ErrUnstorableCopy)
		return r
	}
	r.Path = dst
	return r
}

// MigrateResult holds per-file outcomes for the three attachment lists
type MigrateResult struct {
	Images []Result
	Videos []Result
	Files  []Result
}

// Migrate copies attachments recorded before the project folder existed.
// Sources missing from disk are kept as-is. Migrating the same source twice
// yields two copies; callers skip paths already inside the folder.
func (in *Intake) Migrate(projectFolder string, images, videos, files []string) MigrateResult {
	return MigrateResult{
		Images: in.migrateList(projectFolder, images, HintImage),
		Videos: in.migrateList(projectFolder, videos, HintVideo),
		Files:  in.migrateList(projectFolder, files, HintAuto),
	}
}

func (in *Intake) migrateList(projectFolder string, paths []string, hint Hint) []Result {
	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			results = append(results, Result{Source: p, Path: p})
			continue
		}
		results = append(results, in.addOne(projectFolder, p, categoryFor(p, hint)))
	}
	return results
}

func categoryFor(src string, hint Hint) model.Category {
	switch hint {
	case HintImage:
		return model.CategoryImage
	case HintVideo:
		return model.CategoryVideo
	}
	return classify.Classify(src)
}

// maxNameBytes is the file name limit of common filesystems
const maxNameBytes = 255

// FreeName returns a path in dir for name that does not exist yet, adding
// _1, _2, ... before the extension as needed. The stem is shortened when the
// suffix would push the name past maxNameBytes. Any error other than
// "does not exist" from the lookup is returned.
func FreeName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 1; ; n++ {
		target := filepath.Join(dir, candidate)
		_, err := os.Lstat(target)
		if errors.Is(err, os.ErrNotExist) {
			return target, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fitName(stem, fmt.Sprintf("_%d%s", n, ext))
	}
}

func fitName(stem, suffix string) string {
	for stem != "" && len(stem)+len(suffix) > maxNameBytes {
		_, size := utf8.DecodeLastRuneInString(stem)
		stem = stem[:len(stem)-size]
	}
	return stem + suffix
}

// CopyInto copies src into dir under a free name, preserving mode and
// modification time, and returns the new path. An existing file is never
// overwritten.
func CopyInto(src, dir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", src)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	// O_EXCL retries if another writer took the name first
	var out *os.File
	var dst string
	for {
		dst, err = FreeName(dir, filepath.Base(src))
		if err != nil {
			return "", err
		}
		out, err = os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", err
	}
	// Content is in place; a failed timestamp copy does not undo it
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return dst, nil
}
