package handlers

import (
	"fmt"

	"github.com/xolan/evertrack/internal/cli"
	"github.com/xolan/evertrack/internal/storage"
)

// ValidateCache reports on the health of the snapshot cache file.
func ValidateCache(d *cli.Deps) {
	if d.Services.Cache == nil {
		_, _ = fmt.Fprintln(d.Stdout, "Cache is disabled (cache_enabled = false)")
		return
	}
	path := d.Services.Cache.Path()

	health, err := storage.ValidateStorage(path)
	if err != nil {
		d.Fail("Failed to read cache file", err, "Check that "+path+" is readable")
		return
	}

	_, _ = fmt.Fprintf(d.Stdout, "Cache file: %s\n", path)
	if health.TotalLines == 0 {
		_, _ = fmt.Fprintln(d.Stdout, "Cache is empty")
		return
	}
	_, _ = fmt.Fprintf(d.Stdout, "Snapshots: %d valid, %d corrupted\n", health.ValidSnapshots, health.CorruptedEntries)
	if health.CorruptedEntries == 0 {
		_, _ = fmt.Fprintln(d.Stdout, "Cache is healthy")
		return
	}

	_, _ = fmt.Fprintf(d.Stdout, "Corrupted %s:\n", cli.Pluralize("line", health.CorruptedEntries))
	for _, w := range health.Warnings {
		_, _ = fmt.Fprintln(d.Stdout, cli.FormatCorruptionWarning(w))
	}
	_, _ = fmt.Fprintln(d.Stdout, "Hint: run 'evertrack cache clear' to start over")
}

// ClearCache removes all cached snapshots.
func ClearCache(d *cli.Deps) {
	if d.Services.Cache == nil {
		_, _ = fmt.Fprintln(d.Stdout, "Cache is disabled (cache_enabled = false)")
		return
	}
	if err := storage.Clear(d.Services.Cache.Path()); err != nil {
		d.Fail("Failed to clear cache", err, "")
		return
	}
	_, _ = fmt.Fprintln(d.Stdout, "Cache cleared")
}
