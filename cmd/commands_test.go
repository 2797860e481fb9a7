package cmd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/period"
	"github.com/xolan/evertrack/internal/tui"
)

func TestTUIFlag(t *testing.T) {
	env := setupTestEnv(t, nil)

	if _, err := execute(t, "--tui"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if env.tuiOpts.Mode != period.Weekly {
		t.Errorf("mode = %s, want weekly", env.tuiOpts.Mode)
	}
	if env.tuiOpts.RefreshInterval != 2*time.Minute {
		t.Errorf("refresh interval = %s, want 2m", env.tuiOpts.RefreshInterval)
	}
	if env.tuiOpts.Theme != "dracula" {
		t.Errorf("theme = %q, want dracula", env.tuiOpts.Theme)
	}
	if env.stdout.Len() != 0 {
		t.Errorf("status should not print when --tui is set, got %q", env.stdout.String())
	}
}

func TestTUICommand_SavesTheme(t *testing.T) {
	env := setupTestEnv(t, nil)

	runTUI()
	if env.tuiOpts.SaveTheme == nil {
		t.Fatal("expected a SaveTheme callback")
	}
	if err := env.tuiOpts.SaveTheme("nord"); err != nil {
		t.Fatalf("SaveTheme: %v", err)
	}

	cfg, err := config.Load(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Theme != "nord" {
		t.Errorf("saved theme = %q, want nord", cfg.Theme)
	}
	if cfg.APIToken != "" {
		t.Error("environment token must not be written to the config file")
	}
}

func TestTUICommand_Error(t *testing.T) {
	env := setupTestEnv(t, nil)
	deps.RunTUI = func(tui.Source, tui.Options) error { return errors.New("no tty") }

	runTUI()

	if *env.exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", *env.exitCode)
	}
	if !strings.Contains(env.stderr.String(), "Dashboard stopped unexpectedly") {
		t.Errorf("unexpected stderr %q", env.stderr.String())
	}
}

func TestServeCommand(t *testing.T) {
	env := setupTestEnv(t, nil)

	if _, err := execute(t, "serve", "--addr", "127.0.0.1:9999"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *env.servedAt != "127.0.0.1:9999" {
		t.Errorf("addr = %q", *env.servedAt)
	}
	if !strings.Contains(env.stdout.String(), "Serving progress on http://127.0.0.1:9999") {
		t.Errorf("unexpected stdout %q", env.stdout.String())
	}

	h := *env.served
	if h == nil {
		t.Fatal("expected a handler")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/progress", nil))
	if w.Code != http.StatusOK {
		t.Errorf("progress status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"period_label":"Jan 15 - Jan 21"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestServeCommand_DefaultAddr(t *testing.T) {
	env := setupTestEnv(t, nil)

	runServe(context.Background(), serveAddr)

	if *env.servedAt != "127.0.0.1:7788" {
		t.Errorf("addr = %q, want 127.0.0.1:7788", *env.servedAt)
	}
}

func TestConfigCommand_Show(t *testing.T) {
	env := setupTestEnv(t, nil)

	if _, err := execute(t, "config"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := env.stdout.String()
	if !strings.Contains(out, "File exists") {
		t.Errorf("expected file status, got %q", out)
	}
	if !strings.Contains(out, "env-******** (from EVERTRACK_API_TOKEN)") {
		t.Errorf("expected masked env token, got %q", out)
	}
}

func TestConfigCommand_Path(t *testing.T) {
	env := setupTestEnv(t, nil)

	if _, err := execute(t, "config", "path"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(env.stdout.String()) != env.configPath {
		t.Errorf("unexpected path %q", env.stdout.String())
	}
}

func TestConfigCommand_InitNewPath(t *testing.T) {
	env := setupTestEnv(t, nil)
	fresh := filepath.Join(filepath.Dir(env.configPath), "fresh.toml")

	if _, err := execute(t, "config", "init", "--config", fresh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Created config file: "+fresh) {
		t.Errorf("unexpected stdout %q", env.stdout.String())
	}
	if _, err := config.Load(fresh); err != nil {
		t.Errorf("sample config does not load: %v", err)
	}
}

func TestConfigCommand_Set(t *testing.T) {
	env := setupTestEnv(t, nil)

	if _, err := execute(t, "config", "set", "tracking_mode", "monthly"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Set tracking_mode = monthly") {
		t.Errorf("unexpected stdout %q", env.stdout.String())
	}
	cfg, err := config.Load(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TrackingMode != period.Monthly {
		t.Errorf("tracking_mode = %s, want monthly", cfg.TrackingMode)
	}
}

func TestConfigCommand_SetNeedsTwoArgs(t *testing.T) {
	setupTestEnv(t, nil)

	if _, err := execute(t, "config", "set", "tracking_mode"); err == nil {
		t.Error("expected an argument error")
	}
}

func TestConfigCommand_Check(t *testing.T) {
	env := setupTestEnv(t, nil)

	if _, err := execute(t, "config", "check"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "API token: OK (user 9 Grace)") {
		t.Errorf("unexpected stdout %q", env.stdout.String())
	}
}

func TestConfigEdit_SavesFormValues(t *testing.T) {
	env := setupTestEnv(t, nil)
	deps.RunForm = func(f *huh.Form) error {
		if f == nil {
			return errors.New("nil form")
		}
		return nil
	}

	runConfigEdit()

	if *env.exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", *env.exitCode, env.stderr.String())
	}
	if !strings.Contains(env.stdout.String(), "Saved "+env.configPath) {
		t.Errorf("unexpected stdout %q", env.stdout.String())
	}
	cfg, err := config.Load(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WeeklyTarget != 40 || cfg.Timezone != "UTC" {
		t.Errorf("unchanged form should keep settings, got %+v", cfg)
	}
}

func TestConfigEdit_Aborted(t *testing.T) {
	env := setupTestEnv(t, nil)
	before, _ := os.ReadFile(env.configPath)
	deps.RunForm = func(*huh.Form) error { return huh.ErrUserAborted }

	runConfigEdit()

	if !strings.Contains(env.stdout.String(), "No changes saved") {
		t.Errorf("unexpected stdout %q", env.stdout.String())
	}
	after, _ := os.ReadFile(env.configPath)
	if string(before) != string(after) {
		t.Error("config file changed after abort")
	}
}

func TestSettingsForm_Apply(t *testing.T) {
	cfg := config.DefaultConfig()
	form := newSettingsForm(cfg)

	if form.TrackingMode != "weekly" || form.WeeklyTarget != "38" || form.RefreshInterval != "2m0s" {
		t.Errorf("unexpected initial values %+v", form)
	}

	form.TrackingMode = "daily"
	form.DailyTarget = "7.5"
	form.Token = "new-token"
	form.ShowMinutes = false

	updated, err := form.apply(cfg)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.TrackingMode != period.Daily || updated.DailyTarget != 7.5 || updated.APIToken != "new-token" || updated.ShowMinutes {
		t.Errorf("unexpected config %+v", updated)
	}
	if cfg.TrackingMode != period.Weekly {
		t.Error("apply must not modify its input")
	}

	form.WeeklyTarget = "many"
	if _, err := form.apply(cfg); err == nil {
		t.Error("expected an error for a non-numeric target")
	}
}

func TestSettingsForm_BlankTokenKeepsCurrent(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.APIToken = "keep-me"

	updated, err := newSettingsForm(cfg).apply(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if updated.APIToken != "keep-me" {
		t.Errorf("token = %q, want keep-me", updated.APIToken)
	}
}

func TestFieldValidator(t *testing.T) {
	cfg := config.DefaultConfig()

	if err := fieldValidator(cfg, "daily_target")("25"); err == nil {
		t.Error("expected daily_target above 24 to be rejected")
	}
	if err := fieldValidator(cfg, "refresh_interval")("10s"); err == nil {
		t.Error("expected refresh_interval below 30s to be rejected")
	}
	if err := fieldValidator(cfg, "timezone")("UTC"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if buildSettingsForm(cfg, newSettingsForm(cfg)) == nil {
		t.Error("expected a form")
	}
}

func TestCacheCommands(t *testing.T) {
	env := setupTestEnv(t, nil)
	runStatus(context.Background(), &statusFlags{format: "text"})
	env.stdout.Reset()

	if _, err := execute(t, "cache", "validate"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Snapshots: 1 valid, 0 corrupted") {
		t.Errorf("unexpected stdout %q", env.stdout.String())
	}

	env.stdout.Reset()
	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Cache cleared") {
		t.Errorf("unexpected stdout %q", env.stdout.String())
	}
	if _, err := os.Stat(env.cachePath); !os.IsNotExist(err) {
		t.Error("expected snapshot file to be removed")
	}
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			env := setupTestEnv(t, nil)

			generateCompletion(shell)

			if env.stdout.Len() == 0 {
				t.Error("expected completion output")
			}
			if !strings.Contains(env.stdout.String(), "evertrack") {
				t.Error("expected the command name in the script")
			}
			if env.stderr.Len() != 0 {
				t.Errorf("unexpected stderr %q", env.stderr.String())
			}
		})
	}
}

func TestCompletion_UnsupportedShell(t *testing.T) {
	env := setupTestEnv(t, nil)

	generateCompletion("tcsh")

	if *env.exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", *env.exitCode)
	}
	if !strings.Contains(env.stderr.String(), "Unsupported shell 'tcsh'") {
		t.Errorf("unexpected stderr %q", env.stderr.String())
	}
}
