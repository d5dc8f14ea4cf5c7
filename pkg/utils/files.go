package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ReadSource reads a program file and returns its text and absolute path.
func ReadSource(relPath string) (src string, fullPath string, err error) {
	fullPath, _, err = GetPathInfo(relPath)
	if err != nil {
		return "", "", err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %q: %w", relPath, err)
	}

	return string(data), fullPath, nil
}

// ReplaceExt returns path with its extension swapped for ext.
func ReplaceExt(path, ext string) string {
	old := filepath.Ext(path)
	return path[:len(path)-len(old)] + ext
}
