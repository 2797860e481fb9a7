package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/xolan/evertrack/internal/osutil"
	"github.com/xolan/evertrack/internal/period"
	"github.com/xolan/evertrack/internal/schedule"
)

const (
	// ConfigFile is the name of the TOML configuration file
	ConfigFile = "config.toml"
	// TokenEnv overrides api_token when set
	TokenEnv = "EVERTRACK_API_TOKEN"

	DefaultBaseURL         = "https://api.everhour.com"
	DefaultRefreshInterval = 2 * time.Minute
	MinRefreshInterval     = 30 * time.Second
	DefaultTheme           = "dracula"
	DefaultCacheKeep       = 50
	// DefaultAllowedOrigin is the Everhour web app, home of the browser overlay.
	DefaultAllowedOrigin = "https://app.everhour.com"
)

// Duration is a time.Duration stored as a Go duration string ("2m").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q (use e.g. 90s, 2m, 1h)", string(text))
	}
	d.Duration = parsed
	return nil
}

// Config represents the application configuration
type Config struct {
	// APIToken authenticates against the Everhour API
	APIToken string `toml:"api_token"`
	// APIBaseURL is the Everhour API root
	APIBaseURL string `toml:"api_base_url" validate:"required,url"`
	// AuthScheme selects how the token is sent: "api-key" (X-Api-Key) or "bearer"
	AuthScheme string `toml:"auth_scheme" validate:"oneof=api-key bearer"`

	// TrackingMode is the default period: daily, weekly or monthly
	TrackingMode  period.Mode `toml:"tracking_mode" validate:"oneof=daily weekly monthly"`
	DailyTarget   float64     `toml:"daily_target" validate:"gte=0,lte=24"`
	WeeklyTarget  float64     `toml:"weekly_target" validate:"gte=0,lte=168"`
	MonthlyTarget float64     `toml:"monthly_target" validate:"gte=0,lte=744"`

	// Timezone is an IANA timezone name or "Local"
	Timezone string `toml:"timezone"`

	RefreshInterval Duration `toml:"refresh_interval"`
	ShowMinutes     bool     `toml:"show_minutes"`
	Theme           string   `toml:"theme"`

	LogLevel string `toml:"log_level" validate:"oneof=debug info warn error"`
	LogFile  string `toml:"log_file"`

	CacheEnabled bool `toml:"cache_enabled"`
	CacheKeep    int  `toml:"cache_keep" validate:"gte=1,lte=10000"`

	// AllowedOrigins are the browser origins that may call "evertrack serve"
	AllowedOrigins []string `toml:"allowed_origins" validate:"dive,url"`

	WorkSchedule schedule.WorkSchedule `toml:"work_schedule"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// DefaultConfig returns a Config with the documented defaults: weekly
// tracking, 8/38/160 target hours and a Monday to Friday 09:00-17:00 week.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:      DefaultBaseURL,
		AuthScheme:      "api-key",
		TrackingMode:    period.Weekly,
		DailyTarget:     8,
		WeeklyTarget:    38,
		MonthlyTarget:   160,
		Timezone:        "Local",
		RefreshInterval: Duration{DefaultRefreshInterval},
		ShowMinutes:     true,
		Theme:           DefaultTheme,
		LogLevel:        "warn",
		CacheEnabled:    true,
		CacheKeep:       DefaultCacheKeep,
		AllowedOrigins:  []string{DefaultAllowedOrigin},
		WorkSchedule:    schedule.DefaultWorkSchedule(),
	}
}

// GetConfigPath returns the path to the config file.
// Uses os.UserConfigDir() for cross-platform XDG-compliant config directory.
// Creates the config directory if it doesn't exist.
func GetConfigPath() (string, error) {
	return osutil.AppFile(ConfigFile)
}

// Load reads, normalizes and validates the config file at path.
// Keys absent from the file keep their defaults; weekdays absent from
// work_schedule take the default schedule's entry.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	cfg.WorkSchedule = nil

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown config key(s) in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields DefaultConfig.
func LoadOrDefault(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Clone returns a copy of c that does not share the work schedule map.
func (c Config) Clone() Config {
	out := c
	if c.AllowedOrigins != nil {
		out.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	}
	out.WorkSchedule = make(schedule.WorkSchedule, len(c.WorkSchedule))
	for k, v := range c.WorkSchedule {
		out.WorkSchedule[k] = v
	}
	return out
}

// ApplyEnv overrides the token from the environment. It is applied after
// loading and never written back by Save.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if token := strings.TrimSpace(getenv(TokenEnv)); token != "" {
		c.APIToken = token
	}
}

// Normalize trims and lowercases enumerated values, fills empty values with
// defaults and completes the work schedule with default entries.
func (c *Config) Normalize() {
	def := DefaultConfig()

	c.APIToken = strings.TrimSpace(c.APIToken)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = def.APIBaseURL
	}
	c.AuthScheme = strings.ToLower(strings.TrimSpace(c.AuthScheme))
	if c.AuthScheme == "" {
		c.AuthScheme = def.AuthScheme
	}
	c.TrackingMode = period.Mode(strings.ToLower(strings.TrimSpace(string(c.TrackingMode))))
	if c.TrackingMode == "" {
		c.TrackingMode = def.TrackingMode
	}
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.RefreshInterval.Duration == 0 {
		c.RefreshInterval = def.RefreshInterval
	}
	c.Theme = strings.ToLower(strings.TrimSpace(c.Theme))
	if c.Theme == "" {
		c.Theme = def.Theme
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.CacheKeep == 0 {
		c.CacheKeep = def.CacheKeep
	}
	c.AllowedOrigins = normalizeOrigins(c.AllowedOrigins)

	normalized := make(schedule.WorkSchedule, len(schedule.Weekdays))
	for name, day := range c.WorkSchedule {
		normalized[strings.ToLower(strings.TrimSpace(name))] = day
	}
	for _, name := range schedule.Weekdays {
		if _, ok := normalized[name]; !ok {
			normalized[name] = def.WorkSchedule[name]
		}
	}
	c.WorkSchedule = normalized
}

// Validate checks value ranges, enumerations, the timezone and the work
// schedule.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fieldError(verrs[0])
		}
		return err
	}

	if c.RefreshInterval.Duration < MinRefreshInterval {
		return fmt.Errorf("invalid refresh_interval %q: must be at least %s", c.RefreshInterval, MinRefreshInterval)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if err := c.WorkSchedule.Validate(); err != nil {
		return err
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("invalid %s %q: must be one of %s", fe.Field(), fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Errorf("invalid %s %v: must be at least %s", fe.Field(), fe.Value(), fe.Param())
	case "lte":
		return fmt.Errorf("invalid %s %v: must be at most %s", fe.Field(), fe.Value(), fe.Param())
	case "url", "required":
		return fmt.Errorf("invalid %s %q: must be an absolute URL", fe.Field(), fmt.Sprint(fe.Value()))
	}
	return fmt.Errorf("invalid %s: failed %s check", fe.Field(), fe.Tag())
}

// Location resolves Timezone. Empty and "Local" are the system zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Targets returns the three target hours.
func (c Config) Targets() period.Targets {
	return period.Targets{Daily: c.DailyTarget, Weekly: c.WeeklyTarget, Monthly: c.MonthlyTarget}
}

// Save writes c to path as TOML.
func (c Config) Save(path string) error {
	var buf bytes.Buffer
	buf.WriteString("# evertrack configuration file\n\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Keys lists the keys accepted by Set, sorted.
func Keys() []string {
	keys := []string{
		"api_token", "api_base_url", "auth_scheme", "tracking_mode",
		"daily_target", "weekly_target", "monthly_target", "timezone",
		"refresh_interval", "show_minutes", "theme", "log_level", "log_file",
		"cache_enabled", "cache_keep", "allowed_origins",
	}
	for _, day := range schedule.Weekdays {
		keys = append(keys,
			"work_schedule."+day+".enabled",
			"work_schedule."+day+".start",
			"work_schedule."+day+".end")
	}
	sort.Strings(keys)
	return keys
}

// Set assigns value to key using the same syntax as the config file. It
// does not validate; callers normalize and validate afterwards.
func (c *Config) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	if strings.HasPrefix(key, "work_schedule.") {
		return c.setScheduleField(strings.TrimPrefix(key, "work_schedule."), value)
	}

	var err error
	switch key {
	case "api_token":
		c.APIToken = value
	case "api_base_url":
		c.APIBaseURL = value
	case "auth_scheme":
		c.AuthScheme = value
	case "tracking_mode":
		c.TrackingMode, err = period.ParseMode(value)
	case "daily_target":
		c.DailyTarget, err = parseHours(key, value)
	case "weekly_target":
		c.WeeklyTarget, err = parseHours(key, value)
	case "monthly_target":
		c.MonthlyTarget, err = parseHours(key, value)
	case "timezone":
		c.Timezone = value
	case "refresh_interval":
		err = c.RefreshInterval.UnmarshalText([]byte(value))
	case "show_minutes":
		c.ShowMinutes, err = parseBool(key, value)
	case "theme":
		c.Theme = value
	case "log_level":
		c.LogLevel = value
	case "log_file":
		c.LogFile = value
	case "cache_enabled":
		c.CacheEnabled, err = parseBool(key, value)
	case "cache_keep":
		c.CacheKeep, err = parseInt(key, value)
	case "allowed_origins":
		c.AllowedOrigins = normalizeOrigins(strings.Split(value, ","))
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return err
}

func (c *Config) setScheduleField(rest, value string) error {
	parts := strings.Split(rest, ".")
	if len(parts) != 2 {
		return fmt.Errorf("invalid schedule key %q (use work_schedule.<weekday>.<enabled|start|end>)", "work_schedule."+rest)
	}
	dayName, field := parts[0], parts[1]
	if c.WorkSchedule == nil {
		c.WorkSchedule = schedule.WorkSchedule{}
	}
	day := c.WorkSchedule[dayName]

	var err error
	switch field {
	case "enabled":
		day.Enabled, err = parseBool(rest, value)
	case "start":
		day.Start, err = schedule.ParseTimeOfDay(value)
	case "end":
		day.End, err = schedule.ParseTimeOfDay(value)
	default:
		return fmt.Errorf("unknown schedule field %q (use enabled, start or end)", field)
	}
	if err != nil {
		return err
	}
	c.WorkSchedule[dayName] = day
	return nil
}

// GenerateSampleConfig returns a commented config file with every key at
// its default value.
func GenerateSampleConfig() string {
	var b strings.Builder
	b.WriteString(`# evertrack configuration file
# All keys are optional; shown values are the defaults.

# Everhour API token (Settings > Profile in Everhour).
# The EVERTRACK_API_TOKEN environment variable takes precedence.
api_token = ""

# API root and how the token is sent: "api-key" (X-Api-Key header) or "bearer"
api_base_url = "https://api.everhour.com"
auth_scheme = "api-key"

# Tracking period: "daily", "weekly" or "monthly"
tracking_mode = "weekly"

# Target hours per period
daily_target = 8.0
weekly_target = 38.0
monthly_target = 160.0

# Timezone: IANA timezone name (e.g., "Europe/Berlin") or "Local"
timezone = "Local"

# Dashboard refresh interval (minimum 30s)
refresh_interval = "2m"

# Show hours as "7h 30m" (true) or "7.5h" (false)
show_minutes = true

# Dashboard theme (see "evertrack tui", press t to cycle)
theme = "dracula"

# Logging: "debug", "info", "warn" or "error"; log_file defaults to stderr
log_level = "warn"
log_file = ""

# Keep the last fetched entries to show when the API is unreachable
cache_enabled = true
cache_keep = 50

# Browser origins allowed to read "evertrack serve" responses.
# Requests from any other origin are refused.
allowed_origins = ["https://app.everhour.com"]

# Work schedule; expected hours accrue only inside enabled windows.
`)
	def := schedule.DefaultWorkSchedule()
	for _, name := range schedule.Weekdays {
		day := def[name]
		fmt.Fprintf(&b, "\n[work_schedule.%s]\nenabled = %t\nstart = %q\nend = %q\n", name, day.Enabled, day.Start, day.End)
	}
	return b.String()
}

// normalizeOrigins trims entries and trailing slashes and drops empty ones.
// The result is never nil, so an emptied list stays empty.
func normalizeOrigins(origins []string) []string {
	out := []string{}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func parseHours(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: not a number", key, value)
	}
	return f, nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: not an integer", key, value)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid %s %q: use true or false", key, value)
}
