package sim

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/evdnx/bbgrid/feed"
)

// LoadBars reads candles from a CSV with a header row naming at least
// time (or timestamp), open, high, low and close. Extra columns are
// ignored, headers are case-insensitive, and the result is sorted by time.
func LoadBars(r io.Reader) ([]feed.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty bar file")
		}
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	timeCol, ok := cols["time"]
	if !ok {
		if timeCol, ok = cols["timestamp"]; !ok {
			return nil, errors.New("missing time column")
		}
	}
	for _, name := range []string{"open", "high", "low", "close"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing %s column", name)
		}
	}

	var out []feed.Bar
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		field := func(col int) string {
			if col < len(rec) {
				return strings.TrimSpace(rec[col])
			}
			return ""
		}
		ts, err := parseTime(field(timeCol))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var vals [4]float64
		for i, name := range []string{"open", "high", "low", "close"} {
			v, err := strconv.ParseFloat(field(cols[name]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, name, err)
			}
			vals[i] = v
		}
		out = append(out, feed.Bar{OpenTime: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OpenTime.Before(out[j].OpenTime) })
	return out, nil
}

// parseTime accepts RFC3339 or unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time: %q", s)
}

// ticks expands a bar into the prices a tick feed would have shown: open,
// then low and high (low first on an up bar, high first on a down bar),
// then close.
func ticks(b feed.Bar) []float64 {
	out := []float64{b.Open}
	if b.Close >= b.Open {
		out = append(out, b.Low, b.High)
	} else {
		out = append(out, b.High, b.Low)
	}
	out = append(out, b.Close)

	dedup := out[:1]
	for _, p := range out[1:] {
		if p != dedup[len(dedup)-1] {
			dedup = append(dedup, p)
		}
	}
	return dedup
}
