package model

import (
	"regexp"
	"strings"
	"time"
)

// UntitledTask is shown in place of a blank title
const UntitledTask = "无标题任务"

// DateLayout is the layout of the creation date appended to titles
const DateLayout = "2006-01-02"

var dateSuffix = regexp.MustCompile(`\s*\((\d{4}-\d{2}-\d{2})\)$`)

// Task represents a todo item and the attachments it owns
type Task struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Completed     bool     `json:"completed"`
	Note          string   `json:"note,omitempty"`
	Images        []string `json:"images,omitempty"`
	Videos        []string `json:"videos,omitempty"`
	Files         []string `json:"files,omitempty"`
	ProjectFolder string   `json:"project_folder,omitempty"` // empty when absent
}

// DisplayTitle returns the title, or a placeholder if it is blank
func (t *Task) DisplayTitle() string {
	if strings.TrimSpace(t.Title) == "" {
		return UntitledTask
	}
	return t.Title
}

// HasFolder returns true if a project folder path is recorded
func (t *Task) HasFolder() bool {
	return t.ProjectFolder != ""
}

// Paths returns the attachment list for a section. Note has no list.
func (t *Task) Paths(s Section) []string {
	switch s {
	case SectionImages:
		return t.Images
	case SectionVideos:
		return t.Videos
	case SectionFiles:
		return t.Files
	}
	return nil
}

// SetPaths replaces the attachment list for a section
func (t *Task) SetPaths(s Section, paths []string) {
	switch s {
	case SectionImages:
		t.Images = paths
	case SectionVideos:
		t.Videos = paths
	case SectionFiles:
		t.Files = paths
	}
}

// AttachmentCount returns the number of paths across all three lists
func (t *Task) AttachmentCount() int {
	return len(t.Images) + len(t.Videos) + len(t.Files)
}

// Clone returns a copy that shares no slices with t
func (t Task) Clone() Task {
	t.Images = append([]string(nil), t.Images...)
	t.Videos = append([]string(nil), t.Videos...)
	t.Files = append([]string(nil), t.Files...)
	return t
}

// BaseTitle strips a trailing " (YYYY-MM-DD)" date from the title
func (t *Task) BaseTitle() string {
	return dateSuffix.ReplaceAllString(t.Title, "")
}

// CreatedOn returns the date carried in the title suffix, if any
func (t *Task) CreatedOn() (time.Time, bool) {
	m := dateSuffix.FindStringSubmatch(t.Title)
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// StampTitle appends the creation date to a title
func StampTitle(title string, day time.Time) string {
	return strings.TrimSpace(title) + " (" + day.Format(DateLayout) + ")"
}
