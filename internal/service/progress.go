package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/entry"
	"github.com/xolan/evertrack/internal/everhour"
	"github.com/xolan/evertrack/internal/logging"
	"github.com/xolan/evertrack/internal/period"
	"github.com/xolan/evertrack/internal/progress"
	"github.com/xolan/evertrack/internal/schedule"
	"github.com/xolan/evertrack/internal/storage"
)

// sharedFetchTimeout bounds a fetch shared by concurrent callers. It runs
// apart from any single caller's context.
const sharedFetchTimeout = time.Minute

// ErrNoToken is returned when no API token is configured.
var ErrNoToken = everhour.ErrNoToken

// Fetcher loads the time entries dated within [from, to].
type Fetcher interface {
	FetchTimeEntries(ctx context.Context, from, to time.Time) ([]entry.TimeEntry, error)
}

// Identifier is implemented by fetchers that can name the token's owner.
type Identifier interface {
	CurrentUser(ctx context.Context) (everhour.User, error)
}

// SnapshotCache stores fetched entries for offline use.
type SnapshotCache interface {
	Save(mode period.Mode, from, to time.Time, entries []entry.TimeEntry, fetchedAt time.Time) error
	Latest(mode period.Mode, from, to time.Time) (storage.Snapshot, bool, error)
}

// ProgressService computes progress reports from fetched time entries.
type ProgressService struct {
	cfg     config.Config
	fetcher Fetcher
	cache   SnapshotCache
	log     logging.Logger
	now     func() time.Time

	group singleflight.Group
}

// ProgressOption configures a ProgressService.
type ProgressOption func(*ProgressService)

// WithCache enables the snapshot fallback.
func WithCache(c SnapshotCache) ProgressOption {
	return func(s *ProgressService) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) ProgressOption {
	return func(s *ProgressService) { s.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ProgressOption {
	return func(s *ProgressService) { s.now = now }
}

// NewProgressService creates a ProgressService for cfg.
func NewProgressService(cfg config.Config, fetcher Fetcher, opts ...ProgressOption) *ProgressService {
	s := &ProgressService{
		cfg:     cfg,
		fetcher: fetcher,
		log:     logging.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration the service computes with.
func (s *ProgressService) Config() config.Config {
	return s.cfg
}

// Now returns the current instant in the configured timezone.
func (s *ProgressService) Now() time.Time {
	return s.inZone(s.now())
}

// Refresh computes the report for the configured mode at the current instant.
func (s *ProgressService) Refresh(ctx context.Context) (Report, error) {
	return s.RefreshAt(ctx, s.now(), s.cfg.TrackingMode)
}

// RefreshAt computes the report for mode at now. Concurrent calls for the
// same mode and range share a single fetch. The shared fetch is not tied to
// any caller's ctx: a caller whose ctx ends stops waiting and gets ctx.Err(),
// while the others still receive the result.
func (s *ProgressService) RefreshAt(ctx context.Context, now time.Time, mode period.Mode) (Report, error) {
	if s.cfg.APIToken == "" {
		return Report{}, ErrNoToken
	}
	if !mode.Valid() {
		return Report{}, fmt.Errorf("%w %q", period.ErrInvalidMode, mode)
	}

	now = s.inZone(now)
	rng, err := period.QueryRange(mode, now)
	if err != nil {
		return Report{}, err
	}

	key := fmt.Sprintf("%s|%s|%s", mode, rng.Start.Format(storage.DateLayout), rng.End.Format(storage.DateLayout))
	ch := s.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return s.load(fetchCtx, mode, rng)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
	if res.Err != nil {
		return Report{}, res.Err
	}
	if res.Shared {
		s.log.Debugf("shared in-flight fetch for %s", key)
	}
	loaded := res.Val.(loadResult)

	worked := progress.SumWorkedHours(loaded.entries)
	result, err := progress.Compute(worked, s.input(mode), now)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Result:     result,
		Mode:       mode,
		Start:      rng.Start,
		End:        rng.End,
		At:         now,
		FetchedAt:  loaded.fetchedAt,
		EntryCount: len(loaded.entries),
		Source:     loaded.source,
		Stale:      loaded.source == SourceCache,
		Warning:    loaded.warning,
	}, nil
}

type loadResult struct {
	entries   []entry.TimeEntry
	fetchedAt time.Time
	source    Source
	warning   string
}

func (s *ProgressService) load(ctx context.Context, mode period.Mode, rng period.Bounds) (loadResult, error) {
	entries, err := s.fetcher.FetchTimeEntries(ctx, rng.Start, rng.End)
	fetchedAt := s.now()
	if err == nil {
		s.log.Infof("fetched %d entries for %s", len(entries), mode)
		if s.cache != nil {
			if cerr := s.cache.Save(mode, rng.Start, rng.End, entries, fetchedAt); cerr != nil {
				s.log.Warnf("failed to cache entries: %v", cerr)
			}
		}
		return loadResult{entries: entries, fetchedAt: fetchedAt, source: SourceAPI}, nil
	}

	if !fallbackAllowed(ctx, err) || s.cache == nil {
		return loadResult{}, err
	}

	snap, ok, cerr := s.cache.Latest(mode, rng.Start, rng.End)
	if cerr != nil {
		s.log.Warnf("failed to read cache: %v", cerr)
	}
	if !ok {
		return loadResult{}, err
	}

	s.log.Warnf("API unavailable, using cached entries from %s: %v", snap.FetchedAt.Format(time.RFC3339), err)
	return loadResult{
		entries:   snap.Entries,
		fetchedAt: snap.FetchedAt,
		source:    SourceCache,
		warning:   err.Error(),
	}, nil
}

// fallbackAllowed rejects the cache for credential problems and for a
// cancelled fetch, which the caller must see. A fetch that ran out of time
// falls back like any other outage.
func fallbackAllowed(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.Canceled) {
		return false
	}
	return !errors.Is(err, everhour.ErrUnauthorized) &&
		!errors.Is(err, everhour.ErrForbidden) &&
		!errors.Is(err, everhour.ErrNoToken)
}

// WhoAmI returns the user the configured token belongs to.
func (s *ProgressService) WhoAmI(ctx context.Context) (everhour.User, error) {
	if s.cfg.APIToken == "" {
		return everhour.User{}, ErrNoToken
	}
	id, ok := s.fetcher.(Identifier)
	if !ok {
		return everhour.User{}, errors.New("token check is not supported by this data source")
	}
	return id.CurrentUser(ctx)
}

// Schedule describes the work schedule and its totals for the period of
// mode containing now. It never touches the network.
func (s *ProgressService) Schedule(now time.Time, mode period.Mode) (ScheduleReport, error) {
	now = s.inZone(now)
	bounds, err := period.BoundsFor(mode, now)
	if err != nil {
		return ScheduleReport{}, err
	}
	label, err := period.Label(mode, now)
	if err != nil {
		return ScheduleReport{}, err
	}

	target := period.TargetHoursFor(mode, s.cfg.Targets())
	expected, err := progress.ExpectedHours(mode, s.cfg.WorkSchedule, target, now)
	if err != nil {
		return ScheduleReport{}, err
	}

	report := ScheduleReport{
		Mode:          mode,
		PeriodLabel:   label,
		PeriodStart:   bounds.Start,
		PeriodEnd:     bounds.End,
		At:            now,
		TotalHours:    schedule.TotalWorkHours(bounds.Start, bounds.End, s.cfg.WorkSchedule),
		ElapsedHours:  schedule.ElapsedWorkHours(bounds.Start, now, s.cfg.WorkSchedule),
		TargetHours:   target,
		ExpectedHours: expected.Hours,
	}
	for _, name := range schedule.Weekdays {
		day := s.cfg.WorkSchedule[name]
		hours := schedule.WorkHoursForDay(day)
		report.Days = append(report.Days, DayHours{
			Day:     name,
			Enabled: day.Enabled,
			Start:   day.Start.String(),
			End:     day.End.String(),
			Hours:   hours,
		})
		report.WeeklyHours += hours
	}
	return report, nil
}

func (s *ProgressService) input(mode period.Mode) progress.Input {
	return progress.Input{
		Mode:     mode,
		Targets:  s.cfg.Targets(),
		Schedule: s.cfg.WorkSchedule,
	}
}

func (s *ProgressService) inZone(t time.Time) time.Time {
	loc, err := s.cfg.Location()
	if err != nil {
		return t
	}
	return t.In(loc)
}
