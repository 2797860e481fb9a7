package cmd

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/logging"
	"github.com/xolan/evertrack/internal/server"
	"github.com/xolan/evertrack/internal/service"
	"github.com/xolan/evertrack/internal/storage"
	"github.com/xolan/evertrack/internal/tui"
)

// Deps holds external dependencies for CLI commands, enabling testability.
type Deps struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Exit   func(code int)

	Now    func() time.Time
	Getenv func(string) string

	ConfigPath func() (string, error)
	CachePath  func() (string, error)

	// Fetcher replaces the Everhour client when set.
	Fetcher    service.Fetcher
	HTTPClient *http.Client

	IsTerminal func(w io.Writer) bool
	RunForm    func(f *huh.Form) error
	RunTUI     func(src tui.Source, opts tui.Options) error
	Serve      func(ctx context.Context, addr string, h http.Handler, log logging.Logger) error
}

// DefaultDeps returns the default production dependencies.
func DefaultDeps() *Deps {
	return &Deps{
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Stdin:      os.Stdin,
		Exit:       os.Exit,
		Now:        time.Now,
		Getenv:     os.Getenv,
		ConfigPath: config.GetConfigPath,
		CachePath:  storage.GetStoragePath,
		IsTerminal: isTerminal,
		RunForm:    func(f *huh.Form) error { return f.Run() },
		RunTUI:     tui.Run,
		Serve:      server.Run,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// deps is the global dependencies instance used by commands.
// In production, this is DefaultDeps(). Tests can replace it.
var deps = DefaultDeps()

// SetDeps sets the global dependencies (for testing).
func SetDeps(d *Deps) {
	deps = d
}

// ResetDeps resets dependencies to defaults (for testing cleanup).
func ResetDeps() {
	deps = DefaultDeps()
}
