package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/xolan/evertrack/internal/logging"
	"github.com/xolan/evertrack/internal/service"
)

// Deps contains all dependencies for CLI operations
type Deps struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Exit   func(code int)

	Services *service.Services
	Logger   logging.Logger
	Render   RenderOptions
}

// NewDeps creates a new Deps with the given services writing to the
// process streams.
func NewDeps(services *service.Services, render RenderOptions) *Deps {
	return &Deps{
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Stdin:    os.Stdin,
		Exit:     os.Exit,
		Services: services,
		Logger:   logging.Nop(),
		Render:   render,
	}
}

// Fail prints the Error/Details/Hint block to Stderr and exits with code 1.
// Empty details or hint lines are omitted.
func (d *Deps) Fail(msg string, details error, hint string) {
	_, _ = fmt.Fprintf(d.Stderr, "Error: %s\n", msg)
	if details != nil {
		_, _ = fmt.Fprintf(d.Stderr, "Details: %v\n", details)
	}
	if hint != "" {
		_, _ = fmt.Fprintf(d.Stderr, "Hint: %s\n", hint)
	}
	d.Exit(1)
}
