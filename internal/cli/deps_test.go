package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/service"
)

func TestNewDeps(t *testing.T) {
	dir := t.TempDir()
	services, err := service.NewServices(service.Options{
		ConfigPath: filepath.Join(dir, "config.toml"),
		Config:     config.DefaultConfig(),
		CachePath:  filepath.Join(dir, "snapshots.jsonl"),
	})
	if err != nil {
		t.Fatalf("failed to create services: %v", err)
	}

	deps := NewDeps(services, RenderOptions{ShowMinutes: true})
	if deps == nil {
		t.Fatal("expected non-nil deps")
	}
	if deps.Services != services {
		t.Error("expected services to match")
	}
	if deps.Stdout == nil || deps.Stderr == nil || deps.Stdin == nil {
		t.Error("expected non-nil streams")
	}
	if deps.Exit == nil {
		t.Error("expected non-nil Exit")
	}
	if deps.Logger == nil {
		t.Error("expected non-nil Logger")
	}
	if !deps.Render.ShowMinutes {
		t.Error("expected render options to be kept")
	}
}

func TestFail_WithDetails(t *testing.T) {
	var stderr bytes.Buffer
	code := 0
	d := &Deps{Stderr: &stderr, Exit: func(c int) { code = c }}

	d.Fail("Failed to fetch", errors.New("timeout"), "")

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if stderr.String() != "Error: Failed to fetch\nDetails: timeout\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
}
