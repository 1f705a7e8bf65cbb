// Package preview derives display aids for attachments: cached video
// thumbnails made by an external ffmpeg, and file descriptions.
package preview

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultOffset is where in the video the frame is taken
const DefaultOffset = time.Second

// Thumbnailer extracts one frame of a video with ffmpeg and caches it under
// a key derived from the file name, size and modification time
type Thumbnailer struct {
	FFmpeg      string // binary name or path
	CacheDir    string
	Placeholder string // returned when no frame can be produced; may be empty
	Offset      time.Duration
	Timeout     time.Duration
	Logger      *log.Logger
	enabled     bool
}

// NewThumbnailer creates a thumbnailer using ffmpeg from PATH
func NewThumbnailer(cacheDir string, logger *log.Logger) *Thumbnailer {
	if logger == nil {
		logger = log.Default()
	}
	return &Thumbnailer{
		FFmpeg:   "ffmpeg",
		CacheDir: cacheDir,
		Offset:   DefaultOffset,
		Timeout:  30 * time.Second,
		Logger:   logger,
		enabled:  true,
	}
}

// DefaultCacheDir returns ~/.todo_video_thumbs
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".todo_video_thumbs")
	}
	return filepath.Join(home, ".todo_video_thumbs")
}

// SetEnabled turns frame extraction on or off. Cached frames are still
// returned when disabled.
func (t *Thumbnailer) SetEnabled(enabled bool) {
	t.enabled = enabled
}

// IsEnabled returns whether frame extraction runs
func (t *Thumbnailer) IsEnabled() bool {
	return t.enabled
}

// CacheKey returns the cache file name for a video
func CacheKey(videoPath string, info os.FileInfo) string {
	key := fmt.Sprintf("%s_%d_%s", filepath.Base(videoPath), info.Size(),
		strconv.FormatInt(info.ModTime().UnixNano(), 10))
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:]) + ".jpg"
}

// Thumbnail returns the path of a cached frame for the video, extracting it
// on a cache miss. Any failure yields the placeholder and ok=false; it never
// returns an error to the caller.
func (t *Thumbnailer) Thumbnail(ctx context.Context, videoPath string) (path string, ok bool) {
	info, err := os.Stat(videoPath)
	if err != nil || info.IsDir() {
		return t.Placeholder, false
	}
	if err := os.MkdirAll(t.CacheDir, 0755); err != nil {
		t.Logger.Printf("warning: failed to create thumbnail cache %s: %v", t.CacheDir, err)
		return t.Placeholder, false
	}

	cached := filepath.Join(t.CacheDir, CacheKey(videoPath, info))
	if _, err := os.Stat(cached); err == nil {
		return cached, true
	}
	if !t.enabled {
		return t.Placeholder, false
	}

	if err := t.extract(ctx, videoPath, cached); err != nil {
		t.Logger.Printf("warning: failed to extract thumbnail for %s: %v", videoPath, err)
		os.Remove(cached)
		return t.Placeholder, false
	}
	return cached, true
}

func (t *Thumbnailer) extract(ctx context.Context, videoPath, out string) error {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	offset := strconv.FormatFloat(t.Offset.Seconds(), 'f', -1, 64)
	args := []string{
		"-i", videoPath,
		"-ss", offset,
		"-vframes", "1",
		"-q:v", "2",
		out,
		"-y",
	}

	cmd := exec.CommandContext(ctx, t.FFmpeg, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		if len(output) > 200 {
			output = output[len(output)-200:]
		}
		return fmt.Errorf("%s: %w: %s", t.FFmpeg, err, output)
	}
	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("%s produced no frame", t.FFmpeg)
	}
	return nil
}
