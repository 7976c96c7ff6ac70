package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateFile(t *testing.T) {
	base := t.TempDir()
	v := &PathValidator{AllowedBaseDirs: []string{base}, MaxPathLength: 4096}

	tests := []struct {
		name      string
		path      string
		shouldErr bool
		errorMsg  string
	}{
		{"inside base", filepath.Join(base, "board.db"), false, ""},
		{"nested inside base", filepath.Join(base, "a", "board.db"), false, ""},
		{"empty", "", true, "cannot be empty"},
		{"traversal", base + "/../etc/passwd", true, "traversal"},
		{"null byte", base + "/board\x00.db", true, "null bytes"},
		{"outside base", "/etc/board.db", true, "not within allowed"},
		{"directory", base, true, "is a directory"},
		{"too long", filepath.Join(base, strings.Repeat("a", 5000)), true, "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ValidateFile(tt.path)
			if tt.shouldErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !filepath.IsAbs(got) {
				t.Errorf("expected absolute path, got %s", got)
			}
		})
	}
}

func TestPermissivePathValidator(t *testing.T) {
	v := NewPermissivePathValidator()
	got, err := v.ValidateFile("relative/board.db")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("expected absolute path, got %s", got)
	}
}

func TestDefaultPathValidatorAllowsTempDir(t *testing.T) {
	v := NewPathValidator()
	if _, err := v.ValidateFile(filepath.Join(os.TempDir(), "corkboard-test.db")); err != nil {
		t.Errorf("temp dir should be allowed: %v", err)
	}
}

func TestDatabasePath(t *testing.T) {
	base := t.TempDir()
	v := &PathValidator{AllowedBaseDirs: []string{base}, MaxPathLength: 4096}

	path, err := v.DatabasePath(filepath.Join(base, "nested", "board.db"))
	if err != nil {
		t.Fatalf("DatabasePath failed: %v", err)
	}

	info, err := os.Stat(filepath.Dir(path))
	if err != nil || !info.IsDir() {
		t.Errorf("expected parent directory to be created: %v", err)
	}
}
