package fs

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
)

// CheckDir reports an error unless dir exists and is a directory.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path %s is not a directory", dir)
	}
	return nil
}

// SavePNG writes img as dir/filename and returns the absolute path. The
// directory must already exist; an existing file is overwritten.
func SavePNG(dir, filename string, img image.Image) (string, error) {
	if err := CheckDir(dir); err != nil {
		return "", err
	}

	fullPath, err := filepath.Abs(filepath.Join(dir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to resolve output path: %w", err)
	}

	if err := gg.SavePNG(fullPath, img); err != nil {
		return "", fmt.Errorf("failed to save png: %w", err)
	}

	fileInfo, err := os.Stat(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat saved png: %w", err)
	}
	if fileInfo.Size() == 0 {
		return "", fmt.Errorf("png file is empty after saving")
	}

	return fullPath, nil
}
