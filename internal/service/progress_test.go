package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/entry"
	"github.com/xolan/evertrack/internal/everhour"
	"github.com/xolan/evertrack/internal/period"
	"github.com/xolan/evertrack/internal/progress"
	"github.com/xolan/evertrack/internal/storage"
)

// wednesday13 is Wednesday 2024-01-17 13:00 UTC.
var wednesday13 = time.Date(2024, time.January, 17, 13, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	entries []entry.TimeEntry
	err     error
	calls   int32

	mu       sync.Mutex
	from, to time.Time

	started chan struct{}
	release chan struct{}
}

func (f *fakeFetcher) FetchTimeEntries(ctx context.Context, from, to time.Time) ([]entry.TimeEntry, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.from, f.to = from, to
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	return f.entries, f.err
}

func (f *fakeFetcher) CurrentUser(ctx context.Context) (everhour.User, error) {
	return everhour.User{ID: 7, Name: "Ada"}, nil
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.APIToken = "tok"
	cfg.Timezone = "UTC"
	cfg.WeeklyTarget = 40
	return cfg
}

func hours(h ...float64) []entry.TimeEntry {
	out := make([]entry.TimeEntry, len(h))
	for i, v := range h {
		out[i] = entry.TimeEntry{Time: int64(v * 3600)}
	}
	return out
}

func TestRefreshAt_Weekly(t *testing.T) {
	f := &fakeFetcher{entries: hours(8, 8, 2)}
	svc := NewProgressService(testConfig(), f, WithClock(func() time.Time { return wednesday13 }))

	report, err := svc.RefreshAt(context.Background(), wednesday13, period.Weekly)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), f.from)
	assert.Equal(t, 17, f.to.Day())
	assert.Equal(t, 23, f.to.Hour())

	assert.Equal(t, period.Weekly, report.Mode)
	assert.Equal(t, SourceAPI, report.Source)
	assert.False(t, report.Stale)
	assert.Equal(t, 3, report.EntryCount)
	assert.Equal(t, wednesday13, report.FetchedAt)
	assert.InDelta(t, 18, report.Result.WorkedHours, 1e-9)
	assert.InDelta(t, 20, report.Result.ExpectedHours, 1e-9)
	assert.InDelta(t, -2, report.Result.DifferenceHours, 1e-9)
	assert.Equal(t, progress.SlightlyBehind, report.Result.Classification)
}

func TestRefresh_UsesClockAndConfiguredMode(t *testing.T) {
	cfg := testConfig()
	cfg.TrackingMode = period.Daily
	f := &fakeFetcher{entries: hours(4)}
	svc := NewProgressService(cfg, f, WithClock(func() time.Time { return wednesday13 }))

	report, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, period.Daily, report.Mode)
	assert.InDelta(t, 4, report.Result.ExpectedHours, 1e-9)
	assert.Equal(t, progress.OnTrack, report.Result.Classification)
	assert.Equal(t, "Wednesday, Jan 17", report.Result.PeriodLabel)
}

func TestRefreshAt_NoToken(t *testing.T) {
	cfg := testConfig()
	cfg.APIToken = ""
	f := &fakeFetcher{}

	_, err := NewProgressService(cfg, f).RefreshAt(context.Background(), wednesday13, period.Weekly)
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Zero(t, atomic.LoadInt32(&f.calls))
}

func TestRefreshAt_InvalidMode(t *testing.T) {
	_, err := NewProgressService(testConfig(), &fakeFetcher{}).RefreshAt(context.Background(), wednesday13, "yearly")
	assert.ErrorIs(t, err, period.ErrInvalidMode)
}

func TestRefreshAt_ConvertsToConfiguredZone(t *testing.T) {
	cfg := testConfig()
	cfg.Timezone = "Asia/Tokyo"
	f := &fakeFetcher{}
	svc := NewProgressService(cfg, f)

	// 2024-01-17 20:00 UTC is already Thursday in Tokyo.
	report, err := svc.RefreshAt(context.Background(), time.Date(2024, time.January, 17, 20, 0, 0, 0, time.UTC), period.Daily)
	require.NoError(t, err)
	assert.Equal(t, "Thursday, Jan 18", report.Result.PeriodLabel)
	assert.Equal(t, "Asia/Tokyo", f.from.Location().String())
}

func TestRefreshAt_CachesAndFallsBack(t *testing.T) {
	store := storage.NewStore(filepath.Join(t.TempDir(), "snapshots.jsonl"), 5)
	f := &fakeFetcher{entries: hours(10)}
	earlier := wednesday13.Add(-time.Hour)
	svc := NewProgressService(testConfig(), f, WithCache(store), WithClock(func() time.Time { return earlier }))

	_, err := svc.RefreshAt(context.Background(), wednesday13, period.Weekly)
	require.NoError(t, err)

	f.entries = nil
	f.err = &everhour.APIError{Status: 503}
	report, err := svc.RefreshAt(context.Background(), wednesday13, period.Weekly)
	require.NoError(t, err)

	assert.True(t, report.Stale)
	assert.Equal(t, SourceCache, report.Source)
	assert.True(t, report.FetchedAt.Equal(earlier))
	assert.InDelta(t, 10, report.Result.WorkedHours, 1e-9)
	assert.Contains(t, report.Warning, "503")
}

func TestRefreshAt_NoFallbackForAuthErrors(t *testing.T) {
	store := storage.NewStore(filepath.Join(t.TempDir(), "snapshots.jsonl"), 5)
	require.NoError(t, store.Save(period.Weekly,
		time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), wednesday13, hours(1), wednesday13))

	f := &fakeFetcher{err: everhour.ErrUnauthorized}
	_, err := NewProgressService(testConfig(), f, WithCache(store)).RefreshAt(context.Background(), wednesday13, period.Weekly)
	assert.ErrorIs(t, err, everhour.ErrUnauthorized)
}

func TestRefreshAt_FetchErrorWithoutCache(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewProgressService(testConfig(), &fakeFetcher{err: boom}).RefreshAt(context.Background(), wednesday13, period.Weekly)
	assert.ErrorIs(t, err, boom)

	store := storage.NewStore(filepath.Join(t.TempDir(), "snapshots.jsonl"), 5)
	_, err = NewProgressService(testConfig(), &fakeFetcher{err: boom}, WithCache(store)).RefreshAt(context.Background(), wednesday13, period.Weekly)
	assert.ErrorIs(t, err, boom, "an empty cache surfaces the fetch error")
}

func TestRefreshAt_SharesInFlightFetch(t *testing.T) {
	f := &fakeFetcher{
		entries: hours(5),
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	svc := NewProgressService(testConfig(), f)

	var wg sync.WaitGroup
	reports := make([]Report, 2)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.RefreshAt(context.Background(), wednesday13, period.Weekly)
			assert.NoError(t, err)
			reports[i] = r
		}(i)
	}

	<-f.started
	time.Sleep(50 * time.Millisecond)
	close(f.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.calls))
	assert.Equal(t, reports[0].Result, reports[1].Result)
}

// blockingFetcher holds every fetch until release is closed or the fetch
// context ends.
type blockingFetcher struct {
	calls   int32
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) FetchTimeEntries(ctx context.Context, from, to time.Time) ([]entry.TimeEntry, error) {
	atomic.AddInt32(&f.calls, 1)
	f.started <- struct{}{}
	select {
	case <-f.release:
		return hours(6), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRefreshAt_CancelledCallerDoesNotFailOthers(t *testing.T) {
	f := &blockingFetcher{started: make(chan struct{}, 2), release: make(chan struct{})}
	svc := NewProgressService(testConfig(), f)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.RefreshAt(ctxA, wednesday13, period.Weekly)
		errA <- err
	}()
	<-f.started

	type outcome struct {
		report Report
		err    error
	}
	doneB := make(chan outcome, 1)
	go func() {
		r, err := svc.RefreshAt(context.Background(), wednesday13, period.Weekly)
		doneB <- outcome{r, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting for the shared fetch")
	}

	close(f.release)
	select {
	case b := <-doneB:
		require.NoError(t, b.err)
		assert.InDelta(t, 6, b.report.Result.WorkedHours, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never got the shared result")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.calls))
}

func TestFallbackAllowed(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()
	outage := &everhour.APIError{Status: 503}

	assert.True(t, fallbackAllowed(context.Background(), outage))
	assert.True(t, fallbackAllowed(expired, context.DeadlineExceeded), "a timed out fetch uses the cache")
	assert.False(t, fallbackAllowed(cancelled, outage))
	assert.False(t, fallbackAllowed(context.Background(), everhour.ErrUnauthorized))
	assert.False(t, fallbackAllowed(context.Background(), everhour.ErrForbidden))
}

func TestSchedule(t *testing.T) {
	svc := NewProgressService(testConfig(), &fakeFetcher{})

	report, err := svc.Schedule(wednesday13, period.Weekly)
	require.NoError(t, err)
	require.Len(t, report.Days, 7)
	assert.Equal(t, "monday", report.Days[0].Day)
	assert.Equal(t, "09:00", report.Days[0].Start)
	assert.InDelta(t, 8, report.Days[0].Hours, 1e-9)
	assert.False(t, report.Days[6].Enabled)
	assert.InDelta(t, 40, report.WeeklyHours, 1e-9)
	assert.InDelta(t, 40, report.TotalHours, 1e-9)
	assert.InDelta(t, 20, report.ElapsedHours, 1e-9)
	assert.InDelta(t, 20, report.ExpectedHours, 1e-9)
	assert.Equal(t, "Jan 15 - Jan 21", report.PeriodLabel)

	_, err = svc.Schedule(wednesday13, "hourly")
	assert.ErrorIs(t, err, period.ErrInvalidMode)
}

func TestWhoAmI(t *testing.T) {
	u, err := NewProgressService(testConfig(), &fakeFetcher{}).WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)

	cfg := testConfig()
	cfg.APIToken = ""
	_, err = NewProgressService(cfg, &fakeFetcher{}).WhoAmI(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestNewServices(t *testing.T) {
	dir := t.TempDir()
	fileCfg := testConfig()
	fileCfg.APIToken = "from-file"

	services, err := NewServices(Options{
		ConfigPath: filepath.Join(dir, "config.toml"),
		Config:     fileCfg,
		Getenv: func(key string) string {
			if key == config.TokenEnv {
				return "from-env"
			}
			return ""
		},
		Fetcher:   &fakeFetcher{},
		CachePath: filepath.Join(dir, "snapshots.jsonl"),
	})
	require.NoError(t, err)

	assert.Equal(t, "from-env", services.Progress.Config().APIToken)
	assert.Equal(t, "from-file", services.Config.Get().APIToken, "env token is not persisted")
	require.NotNil(t, services.Cache)
	assert.Equal(t, filepath.Join(dir, "snapshots.jsonl"), services.Cache.Path())
}

func TestNewServices_CacheDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.CacheEnabled = false

	services, err := NewServices(Options{Config: cfg, Fetcher: &fakeFetcher{}})
	require.NoError(t, err)
	assert.Nil(t, services.Cache)
}
