package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/entry"
	"github.com/xolan/evertrack/internal/everhour"
	"github.com/xolan/evertrack/internal/logging"
	"github.com/xolan/evertrack/internal/server"
	"github.com/xolan/evertrack/internal/tui"
)

var wednesday13 = time.Date(2024, time.January, 17, 13, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	entries []entry.TimeEntry
	err     error
}

func (f *fakeFetcher) FetchTimeEntries(ctx context.Context, from, to time.Time) ([]entry.TimeEntry, error) {
	return f.entries, f.err
}

func (f *fakeFetcher) CurrentUser(ctx context.Context) (everhour.User, error) {
	return everhour.User{ID: 9, Name: "Grace"}, nil
}

type testEnv struct {
	stdout     *bytes.Buffer
	stderr     *bytes.Buffer
	exitCode   *int
	fetcher    *fakeFetcher
	configPath string
	cachePath  string

	tuiOpts  *tui.Options
	served   *http.Handler
	servedAt *string
}

func hours(h ...float64) []entry.TimeEntry {
	out := make([]entry.TimeEntry, len(h))
	for i, v := range h {
		out[i] = entry.TimeEntry{Time: int64(v * 3600)}
	}
	return out
}

// setupTestEnv writes a UTC config with a 40h week and swaps in test deps.
// The token comes from the environment unless the config sets one.
func setupTestEnv(t *testing.T, edit func(*config.Config)) testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.WeeklyTarget = 40
	if edit != nil {
		edit(&cfg)
	}
	configPath := filepath.Join(dir, "config.toml")
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	env := testEnv{
		stdout:     &bytes.Buffer{},
		stderr:     &bytes.Buffer{},
		exitCode:   new(int),
		fetcher:    &fakeFetcher{entries: hours(8, 8, 2)},
		configPath: configPath,
		cachePath:  filepath.Join(dir, "snapshots.jsonl"),
		tuiOpts:    &tui.Options{},
		served:     new(http.Handler),
		servedAt:   new(string),
	}

	SetDeps(&Deps{
		Stdout: env.stdout,
		Stderr: env.stderr,
		Stdin:  strings.NewReader(""),
		Exit:   func(code int) { *env.exitCode = code },
		Now:    func() time.Time { return wednesday13 },
		Getenv: func(key string) string {
			if key == config.TokenEnv {
				return "env-token"
			}
			return ""
		},
		ConfigPath: func() (string, error) { return configPath, nil },
		CachePath:  func() (string, error) { return env.cachePath, nil },
		Fetcher:    env.fetcher,
		IsTerminal: func(w io.Writer) bool { return false },
		RunForm:    func(f *huh.Form) error { return nil },
		RunTUI: func(src tui.Source, opts tui.Options) error {
			*env.tuiOpts = opts
			return nil
		},
		Serve: func(ctx context.Context, addr string, h http.Handler, log logging.Logger) error {
			*env.served = h
			*env.servedAt = addr
			return nil
		},
	})
	resetFlags()
	t.Cleanup(func() {
		ResetDeps()
		resetFlags()
	})
	return env
}

func resetFlags() {
	configFlag, verboseFlag = "", false
	*rootStatusFlags = statusFlags{format: "text"}
	*statusCmdFlags = statusFlags{format: "text"}
	*scheduleCmdFlags = statusFlags{format: "text"}
	serveAddr = server.DefaultAddr
	_ = rootCmd.PersistentFlags().Set("tui", "false")
	rootCmd.SetArgs(nil)
}

// execute runs the root command with args and returns cobra's own output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	err := rootCmd.Execute()
	return out.String(), err
}
