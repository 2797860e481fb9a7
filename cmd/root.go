package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xolan/evertrack/internal/cli"
	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/logging"
	"github.com/xolan/evertrack/internal/service"
)

var (
	configFlag  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "evertrack",
	Short: "Pro-rated work-hour progress for Everhour",
	Long: `evertrack compares the hours you logged in Everhour with the share of your
target that your work schedule says should be done by now.

Usage:
  evertrack                          Show progress for the configured mode
  evertrack status --mode daily      Show progress for today
  evertrack status --at "2024-01-17 13:00"
  evertrack schedule                 Show the work schedule and period totals
  evertrack tui                      Live dashboard (also: evertrack --tui)
  evertrack serve                    JSON endpoint for browser overlays
  evertrack config init              Create a sample config file
  evertrack config set api_token <token>

The API token can also be given in the EVERTRACK_API_TOKEN environment variable.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		if CheckTUIFlag(cmd) {
			return
		}
		runStatus(cmd.Context(), rootStatusFlags)
	},
}

var rootStatusFlags = &statusFlags{}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to the config file")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Log debug output to stderr or log_file")
	addStatusFlags(rootCmd, rootStatusFlags)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(
		"evertrack version {{.Version}}\n" +
			"commit: " + commit + "\n" +
			"built: " + date + "\n",
	)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// fail prints the Error/Details/Hint block and exits.
func fail(msg string, details error, hint string) {
	(&cli.Deps{Stderr: deps.Stderr, Exit: deps.Exit}).Fail(msg, details, hint)
}

// resolveConfigPath returns --config or the default location.
func resolveConfigPath() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	return deps.ConfigPath()
}

// setup loads the configuration and wires the services, logger and render
// options shared by all commands. On failure it has already reported the
// error and returns ok=false.
func setup() (d *cli.Deps, done func(), ok bool) {
	path, err := resolveConfigPath()
	if err != nil {
		fail("Failed to determine config file location", err, "Check that your home directory is accessible, or pass --config")
		return nil, nil, false
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		fail("Failed to load configuration", err,
			fmt.Sprintf("Fix the file or inspect it with 'evertrack config': %s", path))
		return nil, nil, false
	}

	level := cfg.LogLevel
	if verboseFlag {
		level = "debug"
	}
	log, err := logging.New(level, cfg.LogFile)
	if err != nil {
		fail("Failed to set up logging", err, "Check log_level and that log_file is writable")
		return nil, nil, false
	}

	var cachePath string
	if cfg.CacheEnabled {
		if cachePath, err = deps.CachePath(); err != nil {
			fail("Failed to determine cache location", err, "Set cache_enabled = false to run without a cache")
			return nil, nil, false
		}
	}

	services, err := service.NewServices(service.Options{
		ConfigPath: path,
		Config:     cfg,
		Getenv:     deps.Getenv,
		Logger:     log,
		HTTPClient: deps.HTTPClient,
		Fetcher:    deps.Fetcher,
		CachePath:  cachePath,
		Now:        deps.Now,
	})
	if err != nil {
		fail("Failed to initialize", err, "")
		return nil, nil, false
	}
	log.Debugf("config %s, mode %s, cache %t", path, cfg.TrackingMode, cfg.CacheEnabled)

	d = &cli.Deps{
		Stdout:   deps.Stdout,
		Stderr:   deps.Stderr,
		Stdin:    deps.Stdin,
		Exit:     deps.Exit,
		Services: services,
		Logger:   log,
		Render: cli.RenderOptions{
			ShowMinutes: cfg.ShowMinutes,
			Color:       deps.IsTerminal(deps.Stdout),
			BarWidth:    cli.DefaultBarWidth,
		},
	}
	return d, func() { _ = log.Sync() }, true
}

// configOnlyDeps serves commands that must work while the config file is
// missing or broken.
func configOnlyDeps(path string) *cli.Deps {
	return &cli.Deps{
		Stdout: deps.Stdout,
		Stderr: deps.Stderr,
		Stdin:  deps.Stdin,
		Exit:   deps.Exit,
		Services: &service.Services{
			Config: service.NewConfigService(path, config.DefaultConfig()),
		},
		Logger: logging.Nop(),
	}
}
