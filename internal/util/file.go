package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const uniquePrefixLength = 12

// Example output for "ex.pdf": "V1StGXR8_Z5j_ex.pdf"
func AddUniquePrefixToFileName(fileName string) (string, error) {
	prefix, err := GenerateNChar(uniquePrefixLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate file name prefix: %w", err)
	}
	return fmt.Sprintf("%s_%s", prefix, fileName), nil
}

// SanitizeFileName keeps the base name and drops characters that are awkward in object keys.
func SanitizeFileName(fileName string) string {
	base := filepath.Base(strings.TrimSpace(fileName))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}

	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '?', '#', '%', '"', '\'':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, base)
}

func GetTempDir() string {
	return filepath.Join(os.TempDir(), "docsign")
}

func CreateTemp(pattern string) (*os.File, error) {
	tempDir := GetTempDir()
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return os.CreateTemp(tempDir, pattern)
}

func MkdirTemp(pattern string) (string, error) {
	tempDir := GetTempDir()
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	return os.MkdirTemp(tempDir, pattern)
}
