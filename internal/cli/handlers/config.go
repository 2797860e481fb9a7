package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/xolan/evertrack/internal/cli"
	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/schedule"
)

// MaskToken hides all but the first four characters of a token.
func MaskToken(token string) string {
	switch {
	case token == "":
		return "(not set)"
	case len(token) <= 4:
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", 8)
}

// ShowConfig displays the current configuration
func ShowConfig(d *cli.Deps) {
	cfg := d.Services.Config.Get()
	path := d.Services.Config.GetPath()
	out := d.Stdout

	_, _ = fmt.Fprintln(out, "Configuration:")
	_, _ = fmt.Fprintln(out, strings.Repeat("=", 50))
	_, _ = fmt.Fprintf(out, "Config file: %s\n", path)
	if d.Services.Config.Exists() {
		_, _ = fmt.Fprintln(out, "Status: File exists")
	} else {
		_, _ = fmt.Fprintln(out, "Status: Using defaults (no config file)")
	}
	_, _ = fmt.Fprintln(out, strings.Repeat("-", 50))

	token := MaskToken(cfg.APIToken)
	if env := d.Services.Progress.Config().APIToken; env != "" && env != cfg.APIToken {
		token = MaskToken(env) + " (from " + config.TokenEnv + ")"
	}
	rows := [][2]string{
		{"api_token", token},
		{"api_base_url", cfg.APIBaseURL},
		{"auth_scheme", cfg.AuthScheme},
		{"tracking_mode", string(cfg.TrackingMode)},
		{"daily_target", fmt.Sprintf("%g", cfg.DailyTarget)},
		{"weekly_target", fmt.Sprintf("%g", cfg.WeeklyTarget)},
		{"monthly_target", fmt.Sprintf("%g", cfg.MonthlyTarget)},
		{"timezone", cfg.Timezone},
		{"refresh_interval", cfg.RefreshInterval.String()},
		{"show_minutes", fmt.Sprintf("%t", cfg.ShowMinutes)},
		{"theme", cfg.Theme},
		{"log_level", cfg.LogLevel},
		{"log_file", cfg.LogFile},
		{"cache_enabled", fmt.Sprintf("%t", cfg.CacheEnabled)},
		{"cache_keep", fmt.Sprintf("%d", cfg.CacheKeep)},
		{"allowed_origins", strings.Join(cfg.AllowedOrigins, ", ")},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(out, "%-17s %s\n", r[0]+":", r[1])
	}

	_, _ = fmt.Fprintln(out, "work_schedule:")
	for _, name := range schedule.Weekdays {
		day := cfg.WorkSchedule[name]
		state := "off"
		if day.Enabled {
			state = "on "
		}
		_, _ = fmt.Fprintf(out, "  %-10s %s %s - %s\n", name+":", state, day.Start, day.End)
	}
}

// ShowConfigPath prints the config file location.
func ShowConfigPath(d *cli.Deps) {
	_, _ = fmt.Fprintln(d.Stdout, d.Services.Config.GetPath())
}

// InitConfig creates a sample config file
func InitConfig(d *cli.Deps) {
	if err := d.Services.Config.Init(); err != nil {
		d.Fail("Failed to create config file", err, "Use 'evertrack config set' to change an existing file")
		return
	}

	_, _ = fmt.Fprintf(d.Stdout, "Created config file: %s\n", d.Services.Config.GetPath())
	_, _ = fmt.Fprintln(d.Stdout, "Edit this file to customize your settings.")
}

// SetConfig changes one key and writes the file.
func SetConfig(d *cli.Deps, key, value string) {
	if err := d.Services.Config.Set(key, value); err != nil {
		d.Fail(fmt.Sprintf("Failed to set %s", key), err,
			"Valid keys: "+strings.Join(config.Keys(), ", "))
		return
	}

	shown := value
	if strings.EqualFold(key, "api_token") {
		shown = MaskToken(value)
	}
	_, _ = fmt.Fprintf(d.Stdout, "Set %s = %s\n", strings.ToLower(key), shown)
}

// CheckConfig validates the configuration and verifies the token against
// the API.
func CheckConfig(ctx context.Context, d *cli.Deps) {
	cfg := d.Services.Progress.Config()
	if err := cfg.Validate(); err != nil {
		d.Fail("Configuration is invalid", err, "Fix the value in "+d.Services.Config.GetPath())
		return
	}
	_, _ = fmt.Fprintln(d.Stdout, "Configuration: OK")

	user, err := d.Services.Progress.WhoAmI(ctx)
	if err != nil {
		failRefresh(d, err)
		return
	}
	name := user.Name
	if name == "" {
		name = user.Email
	}
	_, _ = fmt.Fprintf(d.Stdout, "API token: OK (user %d %s)\n", user.ID, name)
}
