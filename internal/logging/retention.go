package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// PruneRunLogs deletes per-run daemon logs in dir older than retentionDays,
// never touching current (the log of this run). It returns how many files
// were removed; retentionDays <= 0 disables pruning.
func PruneRunLogs(logger *slog.Logger, dir, current string, retentionDays int) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	expired := expiredRunLogs(dir, current, time.Now().AddDate(0, 0, -retentionDays))
	removed := 0
	for _, path := range expired {
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and paths.log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Debug("run logs pruned",
			Int("removed", removed),
			Int("retention_days", retentionDays),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}

// expiredRunLogs lists files matching RunLogPattern last modified before
// cutoff, oldest first.
func expiredRunLogs(dir, current string, cutoff time.Time) []string {
	matches, err := filepath.Glob(filepath.Join(dir, RunLogPattern))
	if err != nil {
		return nil
	}
	if abs, err := filepath.Abs(current); err == nil {
		current = abs
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var expired []candidate
	for _, path := range matches {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if path == current {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		expired = append(expired, candidate{path, info.ModTime()})
	}
	slices.SortFunc(expired, func(a, b candidate) int { return a.modTime.Compare(b.modTime) })

	paths := make([]string, len(expired))
	for i, c := range expired {
		paths[i] = c.path
	}
	return paths
}
