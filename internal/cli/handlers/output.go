package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xolan/evertrack/internal/cli"
	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/everhour"
	"github.com/xolan/evertrack/internal/period"
	"github.com/xolan/evertrack/internal/service"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ParseFormat validates an output format name. Empty means text.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text, json or yaml)", s)
}

func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q", format)
}

// failRefresh maps a refresh error to an Error/Details/Hint block.
func failRefresh(d *cli.Deps, err error) {
	switch {
	case errors.Is(err, service.ErrNoToken):
		d.Fail("No Everhour API token configured", nil,
			"Run 'evertrack config set api_token <token>' or set "+config.TokenEnv)
	case errors.Is(err, everhour.ErrUnauthorized):
		d.Fail("Everhour rejected the API token", err,
			"Copy a fresh token from your Everhour profile and run 'evertrack config set api_token <token>'")
	case errors.Is(err, everhour.ErrForbidden):
		d.Fail("Everhour denied access to time records", err, "Check the permissions of the token's user")
	case errors.Is(err, period.ErrInvalidMode):
		d.Fail("Invalid tracking mode", err, "Use daily, weekly or monthly")
	default:
		d.Fail("Failed to fetch time entries", err,
			"Check your network connection; with cache_enabled the last fetched data is used when available")
	}
}
