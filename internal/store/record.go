// Package store persists the task list. Each task is one "|"-delimited line:
//
//	title|completed|note|images|videos|files|projectFolder
//
// where the three lists are ";"-joined paths and completed is "True" or
// "False".
package store

import (
	"strings"

	"github.com/dori/dossier/internal/model"
	"github.com/dori/dossier/internal/pathlist"
)

// Delimiter separates the fields of a record line
const Delimiter = "|"

// FieldCount is the number of fields every record is normalized to
const FieldCount = 7

const (
	fieldTitle = iota
	fieldCompleted
	fieldNote
	fieldImages
	fieldVideos
	fieldFiles
	fieldFolder
)

// lineSeparator stands in for line breaks inside a note. Backslashes are
// never interpreted, so notes in files written by older versions read back
// unchanged.
const lineSeparator = "\u2028"

var (
	noteEscaper   = strings.NewReplacer("\r\n", lineSeparator, "\n", lineSeparator, "\r", lineSeparator, Delimiter, "_")
	noteUnescaper = strings.NewReplacer(lineSeparator, "\n")
	singleLine    = strings.NewReplacer("\n", " ", "\r", " ", Delimiter, "_")
	completedText = map[bool]string{true: "True", false: "False"}
)

// Normalize pads or truncates fields to exactly FieldCount entries
func Normalize(fields []string) []string {
	out := make([]string, FieldCount)
	copy(out, fields)
	return out
}

// DecodeLine parses one record line. Short lines are padded with empty
// fields and extra fields are dropped; no line is rejected. Attachment
// lists are split but not checked against the filesystem.
func DecodeLine(line string) model.Task {
	f := Normalize(strings.Split(line, Delimiter))
	return model.Task{
		Title:         f[fieldTitle],
		Completed:     f[fieldCompleted] == "True",
		Note:          noteUnescaper.Replace(f[fieldNote]),
		Images:        pathlist.Decode(f[fieldImages]),
		Videos:        pathlist.Decode(f[fieldVideos]),
		Files:         pathlist.Decode(f[fieldFiles]),
		ProjectFolder: strings.TrimSpace(f[fieldFolder]),
	}
}

// EncodeLine renders a task as exactly FieldCount delimited fields
func EncodeLine(t model.Task) string {
	f := make([]string, FieldCount)
	f[fieldTitle] = singleLine.Replace(t.Title)
	f[fieldCompleted] = completedText[t.Completed]
	f[fieldNote] = noteEscaper.Replace(t.Note)
	f[fieldImages] = pathlist.Encode(t.Images)
	f[fieldVideos] = pathlist.Encode(t.Videos)
	f[fieldFiles] = pathlist.Encode(t.Files)
	f[fieldFolder] = singleLine.Replace(t.ProjectFolder)
	return strings.Join(f, Delimiter)
}
