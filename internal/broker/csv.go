package broker

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"FXSentinel/internal/model"
)

// ErrExhausted is returned by replay feeds once every row was served.
var ErrExhausted = errors.New("feed exhausted")

var csvTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", time.DateOnly}

// LoadCSV reads bars from a file of time,open,high,low,close[,volume] rows.
func LoadCSV(path string) ([]model.OHLCV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open csv")
	}
	defer f.Close()
	bars, err := ReadCSV(f)
	return bars, errors.Wrapf(err, "read %s", path)
}

// ReadCSV parses bars. A leading header row is skipped; time accepts
// RFC3339, "YYYY-MM-DD hh:mm[:ss]", dates or unix seconds. Rows missing
// high, low or close are skipped; a missing open takes the close.
func ReadCSV(r io.Reader) ([]model.OHLCV, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars []model.OHLCV
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if len(rec) < 5 {
			return nil, errors.Errorf("line %d: expected at least 5 columns, got %d", line, len(rec))
		}
		if line == 1 {
			if _, err := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64); err != nil {
				continue
			}
		}

		ts, err := parseCSVTime(rec[0])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		var vals [5]float64
		var present [5]bool
		for i := 1; i < len(rec) && i <= 5; i++ {
			field := strings.TrimSpace(rec[i])
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d column %d", line, i+1)
			}
			vals[i-1], present[i-1] = v, !math.IsNaN(v) && !math.IsInf(v, 0)
		}
		// Rows without a full price range are gaps, not zero prices.
		if !present[1] || !present[2] || !present[3] {
			continue
		}
		if !present[0] {
			vals[0] = vals[3]
		}
		if !present[4] {
			vals[4] = 0
		}
		bars = append(bars, model.OHLCV{
			Time: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4],
		})
	}
	return bars, nil
}

func parseCSVTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, errors.Errorf("unrecognised time %q", s)
}

// CSVFeed replays one instrument's bars, advancing one row per Price call.
type CSVFeed struct {
	symbol string
	bars   []model.OHLCV

	mu  sync.Mutex
	pos int
}

// NewCSVFeed creates a replay feed over bars for symbol.
func NewCSVFeed(symbol string, bars []model.OHLCV) *CSVFeed {
	return &CSVFeed{symbol: symbol, bars: bars}
}

// OpenCSVFeed loads path into a replay feed.
func OpenCSVFeed(path, symbol string) (*CSVFeed, error) {
	bars, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	return NewCSVFeed(symbol, bars), nil
}

func (f *CSVFeed) Name() string { return "csv" }

func (f *CSVFeed) Price(_ context.Context, symbol string) (float64, error) {
	if symbol != f.symbol {
		return 0, errors.Errorf("csv feed serves %s, not %s", f.symbol, symbol)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pos >= len(f.bars) {
		return 0, ErrExhausted
	}
	p := f.bars[f.pos].Close
	f.pos++
	return p, nil
}

// Bars returns the last count bars; interval is ignored.
func (f *CSVFeed) Bars(_ context.Context, symbol, _ string, count int) ([]model.OHLCV, error) {
	if symbol != f.symbol {
		return nil, errors.Errorf("csv feed serves %s, not %s", f.symbol, symbol)
	}
	bars := f.bars
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return append([]model.OHLCV(nil), bars...), nil
}
