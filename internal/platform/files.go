package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ytget/yt-queue/internal/model"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// File extensions of partial transfers, never treated as finished output
var (
	SkippedExtensions = []string{".part", ".ytdl", ".temp"}
)

// VideoExtensions are the containers a video merge or remux may settle on
// when the final extension differs from the predicted one
var (
	VideoExtensions = []string{".mp4", ".mkv", ".webm"}
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user
func GetHomeDownloadsDir() (string, error) {
	if runtime.GOOS == "android" || os.Getenv("ANDROID_DATA") != "" {
		return "/sdcard/Download", nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, "Downloads"), nil
}

// FileExists reports whether path names an existing regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FindExistingOutput looks for a finished file at the predicted path. Audio
// paths already carry the extraction format and must match exactly. For
// video, a sibling with the same base name in another video container is
// accepted. Partial transfers are ignored.
func FindExistingOutput(filePath string, kind model.MediaKind) (string, bool) {
	if filePath == "" {
		return "", false
	}
	if strings.HasPrefix(filePath, "http") {
		return "", false
	}
	if isSkipped(filePath) {
		return "", false
	}

	if FileExists(filePath) {
		return filePath, true
	}

	if kind != model.MediaVideo || !isVideoExt(filepath.Ext(filePath)) {
		return "", false
	}

	dir := filepath.Dir(filePath)
	base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	for _, ext := range VideoExtensions {
		candidate := filepath.Join(dir, base+ext)
		if FileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isVideoExt(ext string) bool {
	for _, v := range VideoExtensions {
		if strings.EqualFold(ext, v) {
			return true
		}
	}
	return false
}

func isSkipped(name string) bool {
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
