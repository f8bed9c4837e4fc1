package interfaces

import "time"

// EodSummarizer turns one day of journal entries into a CSV report.
type EodSummarizer interface {
	// SummarizeDay aggregates the day's submitted orders by symbol and
	// writes a CSV. Returns an empty path when the day has no entries.
	SummarizeDay(t time.Time) (csvPath string, err error)
	SummarizeToday() (csvPath string, err error)
	// ShouldRunNow reports whether the summary is due: past the US cash
	// close and not yet written.
	ShouldRunNow() (shouldRun bool, csvPath string)
}
