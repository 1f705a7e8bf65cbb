package preview

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dori/dossier/internal/classify"
	"github.com/dori/dossier/internal/model"
	"github.com/dustin/go-humanize"
	"github.com/rwcarlsen/goexif/exif"
)

// Attachment describes one stored file for listing
type Attachment struct {
	Path     string
	Name     string
	Exists   bool
	Size     int64
	SizeText string
	Label    string
	Category model.Category
	TakenAt  *time.Time // EXIF capture time, images only
}

// Describe stats a path and fills in what can be known about it. A missing
// file is described with Exists=false rather than an error.
func Describe(path string) Attachment {
	a := Attachment{
		Path:     path,
		Name:     filepath.Base(path),
		Label:    classify.Label(path),
		Category: classify.Classify(path),
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return a
	}
	a.Exists = true
	a.Size = info.Size()
	a.SizeText = humanize.Bytes(uint64(info.Size()))
	if a.Category == model.CategoryImage {
		a.TakenAt = takenAt(path)
	}
	return a
}

// DescribeAll describes each path in order
func DescribeAll(paths []string) []Attachment {
	out := make([]Attachment, 0, len(paths))
	for _, p := range paths {
		out = append(out, Describe(p))
	}
	return out
}

func takenAt(path string) *time.Time {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil
	}
	t, err := x.DateTime()
	if err != nil {
		return nil
	}
	return &t
}
