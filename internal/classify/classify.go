// Package classify maps a file extension to an attachment category.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/dori/dossier/internal/model"
)

var (
	imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true}
	videoExts = map[string]bool{".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".wmv": true, ".flv": true, ".webm": true}
	docExts   = map[string]bool{".doc": true, ".docx": true, ".pdf": true, ".txt": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true}
)

// Classify returns the category for path based only on its lower-cased
// extension. Unknown or missing extensions are CategoryOther.
func Classify(path string) model.Category {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExts[ext]:
		return model.CategoryImage
	case videoExts[ext]:
		return model.CategoryVideo
	case docExts[ext]:
		return model.CategoryDocument
	default:
		return model.CategoryOther
	}
}

// Label returns a short human type name for the file list
func Label(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".doc", ".docx":
		return "Word"
	case ".xls", ".xlsx":
		return "Excel"
	case ".ppt", ".pptx":
		return "PPT"
	case ".pdf":
		return "PDF"
	case ".txt":
		return "Text"
	case ".zip", ".rar", ".7z":
		return "Archive"
	default:
		switch Classify(path) {
		case model.CategoryImage:
			return "Image"
		case model.CategoryVideo:
			return "Video"
		}
		return "Other"
	}
}
