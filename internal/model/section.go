package model

import "fmt"

// Section names one of the four parts of a task detail: the note and the
// three attachment lists
type Section string

const (
	SectionNote   Section = "note"
	SectionImages Section = "images"
	SectionVideos Section = "videos"
	SectionFiles  Section = "files"
)

// Sections lists every section in the fixed visibility-file order
var Sections = []Section{SectionNote, SectionImages, SectionVideos, SectionFiles}

// AttachmentSections lists the sections that hold paths
var AttachmentSections = []Section{SectionImages, SectionVideos, SectionFiles}

// ParseSection parses a section name, accepting a few short forms
func ParseSection(s string) (Section, error) {
	switch s {
	case "note", "notes", "comment":
		return SectionNote, nil
	case "images", "image", "img":
		return SectionImages, nil
	case "videos", "video", "vid":
		return SectionVideos, nil
	case "files", "file":
		return SectionFiles, nil
	}
	return "", fmt.Errorf("unknown section %q", s)
}

// IsAttachment returns true for sections that hold paths
func (s Section) IsAttachment() bool {
	return s == SectionImages || s == SectionVideos || s == SectionFiles
}

// Category is the storage class of an attachment, derived from its extension
type Category int

const (
	CategoryOther Category = iota
	CategoryImage
	CategoryVideo
	CategoryDocument
)

func (c Category) String() string {
	switch c {
	case CategoryImage:
		return "image"
	case CategoryVideo:
		return "video"
	case CategoryDocument:
		return "document"
	default:
		return "other"
	}
}

// Dir returns the project folder subdirectory that holds the category
func (c Category) Dir() string {
	switch c {
	case CategoryImage:
		return "images"
	case CategoryVideo:
		return "videos"
	case CategoryDocument:
		return "docs"
	default:
		return "files"
	}
}

// Flags holds the four per-task hide/show switches
type Flags struct {
	NoteHidden   bool `json:"note_hidden"`
	ImagesHidden bool `json:"images_hidden"`
	VideosHidden bool `json:"videos_hidden"`
	FilesHidden  bool `json:"files_hidden"`
}

// Hidden reports whether a section is hidden
func (f Flags) Hidden(s Section) bool {
	switch s {
	case SectionNote:
		return f.NoteHidden
	case SectionImages:
		return f.ImagesHidden
	case SectionVideos:
		return f.VideosHidden
	case SectionFiles:
		return f.FilesHidden
	}
	return false
}

// With returns a copy with one section's switch set
func (f Flags) With(s Section, hidden bool) Flags {
	switch s {
	case SectionNote:
		f.NoteHidden = hidden
	case SectionImages:
		f.ImagesHidden = hidden
	case SectionVideos:
		f.VideosHidden = hidden
	case SectionFiles:
		f.FilesHidden = hidden
	}
	return f
}

// Any returns true if at least one section is hidden
func (f Flags) Any() bool {
	return f.NoteHidden || f.ImagesHidden || f.VideosHidden || f.FilesHidden
}
