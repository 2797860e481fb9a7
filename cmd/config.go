package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/xolan/evertrack/internal/cli/handlers"
	"github.com/xolan/evertrack/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display or manage configuration settings",
	Long: `Display the effective configuration.

evertrack works without a config file except for the Everhour API token,
which can also come from the EVERTRACK_API_TOKEN environment variable.

Configuration file location:
  ~/.config/evertrack/config.toml          Linux
  ~/Library/Application Support/evertrack  macOS
  %APPDATA%\evertrack\config.toml          Windows`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		d, done, ok := setup()
		if !ok {
			return
		}
		defer done()
		handlers.ShowConfig(d)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := resolveConfigPath()
		if err != nil {
			fail("Failed to determine config file location", err, "Check that your home directory is accessible")
			return
		}
		handlers.ShowConfigPath(configOnlyDeps(path))
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented sample config file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := resolveConfigPath()
		if err != nil {
			fail("Failed to determine config file location", err, "Check that your home directory is accessible")
			return
		}
		handlers.InitConfig(configOnlyDeps(path))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting and save the file. The new value is validated first.

Examples:
  evertrack config set api_token <token>
  evertrack config set tracking_mode monthly
  evertrack config set weekly_target 32
  evertrack config set work_schedule.friday.end 13:00
  evertrack config set work_schedule.saturday.enabled yes`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return config.Keys(), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		d, done, ok := setup()
		if !ok {
			return
		}
		defer done()
		handlers.SetConfig(d, args[0], args[1])
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the main settings in an interactive form",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runConfigEdit()
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and test the API token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		d, done, ok := setup()
		if !ok {
			return
		}
		defer done()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		handlers.CheckConfig(ctx, d)
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

// settingsForm holds the form's field values as text, in the format
// accepted by config.Set.
type settingsForm struct {
	Token           string
	TrackingMode    string
	DailyTarget     string
	WeeklyTarget    string
	MonthlyTarget   string
	Timezone        string
	RefreshInterval string
	ShowMinutes     bool
}

func newSettingsForm(cfg config.Config) *settingsForm {
	return &settingsForm{
		TrackingMode:    string(cfg.TrackingMode),
		DailyTarget:     fmt.Sprintf("%g", cfg.DailyTarget),
		WeeklyTarget:    fmt.Sprintf("%g", cfg.WeeklyTarget),
		MonthlyTarget:   fmt.Sprintf("%g", cfg.MonthlyTarget),
		Timezone:        cfg.Timezone,
		RefreshInterval: cfg.RefreshInterval.String(),
		ShowMinutes:     cfg.ShowMinutes,
	}
}

// apply returns a copy of cfg with the form values set. A blank token
// keeps the current one.
func (s *settingsForm) apply(cfg config.Config) (config.Config, error) {
	out := cfg.Clone()
	values := []struct{ key, value string }{
		{"tracking_mode", s.TrackingMode},
		{"daily_target", s.DailyTarget},
		{"weekly_target", s.WeeklyTarget},
		{"monthly_target", s.MonthlyTarget},
		{"timezone", s.Timezone},
		{"refresh_interval", s.RefreshInterval},
	}
	if s.Token != "" {
		values = append(values, struct{ key, value string }{"api_token", s.Token})
	}
	for _, v := range values {
		if err := out.Set(v.key, v.value); err != nil {
			return cfg, err
		}
	}
	out.ShowMinutes = s.ShowMinutes
	return out, nil
}

// fieldValidator checks one form field the way config set would.
func fieldValidator(cfg config.Config, key string) func(string) error {
	return func(value string) error {
		candidate := cfg.Clone()
		if err := candidate.Set(key, value); err != nil {
			return err
		}
		candidate.Normalize()
		return candidate.Validate()
	}
}

func buildSettingsForm(cfg config.Config, s *settingsForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Everhour API token").
				Description("Leave empty to keep the current token").
				EchoMode(huh.EchoModePassword).
				Value(&s.Token),
			huh.NewSelect[string]().
				Title("Tracking mode").
				Options(huh.NewOptions("daily", "weekly", "monthly")...).
				Value(&s.TrackingMode),
		),
		huh.NewGroup(
			huh.NewInput().Title("Daily target (hours)").Value(&s.DailyTarget).
				Validate(fieldValidator(cfg, "daily_target")),
			huh.NewInput().Title("Weekly target (hours)").Value(&s.WeeklyTarget).
				Validate(fieldValidator(cfg, "weekly_target")),
			huh.NewInput().Title("Monthly target (hours)").Value(&s.MonthlyTarget).
				Validate(fieldValidator(cfg, "monthly_target")),
		),
		huh.NewGroup(
			huh.NewInput().Title("Timezone").Description("IANA name or Local").Value(&s.Timezone).
				Validate(fieldValidator(cfg, "timezone")),
			huh.NewInput().Title("Refresh interval").Description("At least 30s, e.g. 2m").Value(&s.RefreshInterval).
				Validate(fieldValidator(cfg, "refresh_interval")),
			huh.NewConfirm().Title("Show hours and minutes?").Value(&s.ShowMinutes),
		),
	)
}

func runConfigEdit() {
	d, done, ok := setup()
	if !ok {
		return
	}
	defer done()

	cfg := d.Services.Config.Get()
	values := newSettingsForm(cfg)
	if err := deps.RunForm(buildSettingsForm(cfg, values)); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			_, _ = fmt.Fprintln(d.Stdout, "No changes saved")
			return
		}
		d.Fail("Failed to run the settings form", err, "Use 'evertrack config set <key> <value>' instead")
		return
	}

	updated, err := values.apply(cfg)
	if err != nil {
		d.Fail("Invalid setting", err, "")
		return
	}
	if err := d.Services.Config.Update(updated); err != nil {
		d.Fail("Failed to save configuration", err, "")
		return
	}
	_, _ = fmt.Fprintf(d.Stdout, "Saved %s\n", d.Services.Config.GetPath())
}
