package handlers

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xolan/evertrack/internal/cli"
	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/entry"
	"github.com/xolan/evertrack/internal/everhour"
	"github.com/xolan/evertrack/internal/service"
)

var wednesday13 = time.Date(2024, time.January, 17, 13, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	entries []entry.TimeEntry
	err     error
	userErr error
}

func (f *fakeFetcher) FetchTimeEntries(ctx context.Context, from, to time.Time) ([]entry.TimeEntry, error) {
	return f.entries, f.err
}

func (f *fakeFetcher) CurrentUser(ctx context.Context) (everhour.User, error) {
	if f.userErr != nil {
		return everhour.User{}, f.userErr
	}
	return everhour.User{ID: 42, Name: "Ada Lovelace"}, nil
}

func hours(h ...float64) []entry.TimeEntry {
	out := make([]entry.TimeEntry, len(h))
	for i, v := range h {
		out[i] = entry.TimeEntry{Time: int64(v * 3600)}
	}
	return out
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.APIToken = "secret-token"
	cfg.Timezone = "UTC"
	cfg.WeeklyTarget = 40
	return cfg
}

type testEnv struct {
	deps     *cli.Deps
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	exitCode *int
	fetcher  *fakeFetcher
}

func setupTestDeps(t *testing.T, cfg config.Config, getenv func(string) string) testEnv {
	t.Helper()
	dir := t.TempDir()

	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	f := &fakeFetcher{}
	services, err := service.NewServices(service.Options{
		ConfigPath: filepath.Join(dir, "config.toml"),
		Config:     cfg,
		Getenv:     getenv,
		Fetcher:    f,
		CachePath:  filepath.Join(dir, "snapshots.jsonl"),
	})
	if err != nil {
		t.Fatalf("failed to create services: %v", err)
	}

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	exitCode := 0
	deps := &cli.Deps{
		Stdout:   stdout,
		Stderr:   stderr,
		Stdin:    &bytes.Buffer{},
		Exit:     func(code int) { exitCode = code },
		Services: services,
		Render:   cli.RenderOptions{ShowMinutes: true, BarWidth: 20},
	}
	return testEnv{deps: deps, stdout: stdout, stderr: stderr, exitCode: &exitCode, fetcher: f}
}
