// Package eod writes an end-of-day CSV summary of the order journal.
package eod

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"ai-scalper/internal/interfaces"
)

type orderLine struct {
	Time, Symbol, OrderID string
	Qty                   int
	LimitPrice            float64
	StopLoss              float64
	TakeProfit            float64
	Confidence            float64
	Reason                string
}

type aggRow struct {
	Symbol        string
	Orders        int
	TotalQty      int
	Notional      float64
	ConfidenceSum float64
}

type eodSummarizer struct{}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func journalPath(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".txt")
}

func csvPath(t time.Time) string {
	return filepath.Join(logDir(), "eod", t.UTC().Format("2006-01-02")+".csv")
}

// marketCloseUTC is late enough to sit past the 16:00 ET cash close in
// both EST and EDT.
func marketCloseUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 21, 10, 0, 0, time.UTC)
}

func (e *eodSummarizer) SummarizeDay(t time.Time) (string, error) {
	inPath := journalPath(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ol orderLine
		if err := json.Unmarshal(sc.Bytes(), &ol); err != nil {
			continue
		}
		row := aggs[ol.Symbol]
		if row == nil {
			row = &aggRow{Symbol: ol.Symbol}
			aggs[ol.Symbol] = row
		}
		row.Orders++
		row.TotalQty += ol.Qty
		row.Notional += float64(ol.Qty) * ol.LimitPrice
		row.ConfidenceSum += ol.Confidence
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := csvPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	if err := w.Write([]string{"symbol", "orders", "total_qty", "avg_limit", "avg_confidence", "notional"}); err != nil {
		return "", err
	}
	var totalOrders, totalQty int
	var totalNotional float64
	for _, k := range keys {
		r := aggs[k]
		avgLimit := 0.0
		if r.TotalQty > 0 {
			avgLimit = r.Notional / float64(r.TotalQty)
		}
		rec := []string{
			r.Symbol,
			strconv.Itoa(r.Orders),
			strconv.Itoa(r.TotalQty),
			fmt.Sprintf("%.4f", avgLimit),
			fmt.Sprintf("%.1f", r.ConfidenceSum/float64(r.Orders)),
			fmt.Sprintf("%.2f", r.Notional),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalOrders += r.Orders
		totalQty += r.TotalQty
		totalNotional += r.Notional
	}
	_ = w.Write([]string{"TOTAL", strconv.Itoa(totalOrders), strconv.Itoa(totalQty), "", "", fmt.Sprintf("%.2f", totalNotional)})
	return outPath, nil
}

func (e *eodSummarizer) SummarizeToday() (string, error) {
	return e.SummarizeDay(time.Now().UTC())
}

func (e *eodSummarizer) ShouldRunNow() (bool, string) {
	now := time.Now().UTC()
	outPath := csvPath(now)
	if now.After(marketCloseUTC(now)) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}

// The package-level summarizer lets cmd wiring swap in the observability
// wrapper once while call sites stay function calls.
var active interfaces.EodSummarizer = &eodSummarizer{}

func NewSummarizer() interfaces.EodSummarizer { return &eodSummarizer{} }

func SetDefaultSummarizer(s interfaces.EodSummarizer) { active = s }

func SummarizeDay(t time.Time) (string, error) { return active.SummarizeDay(t) }

func SummarizeToday() (string, error) { return active.SummarizeToday() }

func ShouldRunNow() (bool, string) { return active.ShouldRunNow() }
