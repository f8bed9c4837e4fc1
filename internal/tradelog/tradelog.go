package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var mu sync.Mutex

// Entry records one submitted bracket order.
type Entry struct {
	Time, Symbol, OrderID string
	Qty                   int
	LimitPrice            float64
	StopLoss              float64
	TakeProfit            float64
	Confidence            float64
	Reason                string
	Extra                 map[string]any `json:"extra,omitempty"`
}

// ScanEntry records one AI recommendation from a watchlist scan.
type ScanEntry struct {
	Time, Symbol, Decision string
	Confidence             float64
	Reasoning              string
	Price                  float64
	Indicators             map[string]float64
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".txt")
}

func scansFilepath(t time.Time) string {
	return filepath.Join(logDir(), "scans", t.UTC().Format("2006-01-02")+".txt")
}

// Append writes one order entry to today's journal file.
func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(dailyFilepath(now), e)
}

// AppendScan writes one recommendation entry to today's scan journal.
func AppendScan(e ScanEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(scansFilepath(now), e)
}

func appendLine(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips journal files older than days and removes the
// originals. days <= 0 disables retention.
func CompressOlder(days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	for _, dir := range []string{logDir(), filepath.Join(logDir(), "scans")} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, de := range entries {
			name := de.Name()
			if !strings.HasSuffix(name, ".txt") {
				continue
			}
			day, err := time.Parse("2006-01-02", strings.TrimSuffix(name, ".txt"))
			if err != nil || !day.Before(cutoff) {
				continue
			}
			if err := gzipFile(filepath.Join(dir, name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func gzipFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}
