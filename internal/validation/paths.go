package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator checks file paths taken from configuration or flags
type PathValidator struct {
	// AllowedBaseDirs restricts files to these directories; empty allows all
	AllowedBaseDirs []string
	// MaxPathLength is the maximum allowed path length
	MaxPathLength int
}

// NewPathValidator keeps files under the corkboard data and config
// directories or the temp dir
func NewPathValidator() *PathValidator {
	homeDir, _ := os.UserHomeDir()
	return &PathValidator{
		AllowedBaseDirs: []string{
			filepath.Join(homeDir, ".corkboard"),
			filepath.Join(homeDir, ".config", "corkboard"),
			os.TempDir(),
		},
		MaxPathLength: 4096,
	}
}

// NewPermissivePathValidator creates a validator for development/testing
func NewPermissivePathValidator() *PathValidator {
	return &PathValidator{
		AllowedBaseDirs: []string{},
		MaxPathLength:   4096,
	}
}

// ValidateFile returns the cleaned absolute form of path. The path must not
// name a directory.
func (v *PathValidator) ValidateFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains null bytes")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}

	if err := v.validateBaseDirs(abs); err != nil {
		return "", err
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", abs)
	}

	return abs, nil
}

// DatabasePath validates the bolt backend file and creates its directory.
func (v *PathValidator) DatabasePath(path string) (string, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(homeDir, ".corkboard", "board.db")
	}

	valid, err := v.ValidateFile(path)
	if err != nil {
		return "", fmt.Errorf("database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(valid), 0o755); err != nil {
		return "", fmt.Errorf("creating database directory: %w", err)
	}
	return valid, nil
}

func (v *PathValidator) validateBaseDirs(abs string) error {
	if len(v.AllowedBaseDirs) == 0 {
		return nil
	}

	for _, baseDir := range v.AllowedBaseDirs {
		absBaseDir, err := filepath.Abs(baseDir)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absBaseDir, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}

	return fmt.Errorf("path not within allowed directories: %v", v.AllowedBaseDirs)
}
