package osutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// MockPathProvider is a mock implementation for testing.
type MockPathProvider struct {
	UserConfigDirFn func() (string, error)
	MkdirAllFn      func(path string, perm os.FileMode) error
}

func (m *MockPathProvider) UserConfigDir() (string, error) {
	if m.UserConfigDirFn != nil {
		return m.UserConfigDirFn()
	}
	return "", nil
}

func (m *MockPathProvider) MkdirAll(path string, perm os.FileMode) error {
	if m.MkdirAllFn != nil {
		return m.MkdirAllFn(path, perm)
	}
	return nil
}

func TestDefaultPathProvider_MkdirAll(t *testing.T) {
	p := DefaultPathProvider{}
	testDir := filepath.Join(t.TempDir(), "test", "nested", "dir")

	if err := p.MkdirAll(testDir, 0755); err != nil {
		t.Fatalf("MkdirAll returned error: %v", err)
	}

	info, err := os.Stat(testDir)
	if err != nil {
		t.Fatalf("Failed to stat created directory: %v", err)
	}
	if !info.IsDir() {
		t.Error("MkdirAll did not create a directory")
	}
}

func TestAppFile(t *testing.T) {
	tmpDir := t.TempDir()
	SetProvider(&MockPathProvider{
		UserConfigDirFn: func() (string, error) { return tmpDir, nil },
		MkdirAllFn:      os.MkdirAll,
	})
	defer ResetProvider()

	path, err := AppFile("config.toml")
	if err != nil {
		t.Fatalf("AppFile returned error: %v", err)
	}

	expected := filepath.Join(tmpDir, AppName, "config.toml")
	if path != expected {
		t.Errorf("AppFile() = %q, expected %q", path, expected)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("app directory was not created: %v", err)
	}
}

func TestAppFile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		provider *MockPathProvider
	}{
		{
			name: "config dir unavailable",
			provider: &MockPathProvider{
				UserConfigDirFn: func() (string, error) { return "", errors.New("no home") },
			},
		},
		{
			name: "mkdir fails",
			provider: &MockPathProvider{
				UserConfigDirFn: func() (string, error) { return "/tmp", nil },
				MkdirAllFn: func(string, os.FileMode) error {
					return errors.New("permission denied")
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetProvider(tt.provider)
			defer ResetProvider()

			if _, err := AppFile("config.toml"); err == nil {
				t.Error("AppFile() should return error")
			}
		})
	}
}
