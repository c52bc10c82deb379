package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidPeriod = errors.New("period must be one of daily, weekly, monthly, quarterly, yearly")

type Period string

const (
	PeriodDaily     Period = "daily"
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// ParsePeriod accepts a period name in any case. Empty means daily.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodDaily, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidPeriod, s)
	}
}

// Window returns the calendar period containing now, as [from, to) in now's location.
// Weeks start on Monday.
func Window(p Period, now time.Time) (from, to time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	switch p {
	case PeriodWeekly:
		offset := (int(now.Weekday()) + 6) % 7
		from = time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 0, 7)
	case PeriodMonthly:
		from = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0)
	case PeriodQuarterly:
		first := time.Month((int(m)-1)/3*3 + 1)
		from = time.Date(y, first, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 3, 0)
	case PeriodYearly:
		from = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(1, 0, 0)
	default:
		from = time.Date(y, m, d, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 0, 1)
	}
}

// Bucket is one slice of a trend series.
type Bucket struct {
	Label string    `json:"label"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

// Buckets splits the window of p into chart slices: hours of a day, days of a week,
// weeks of a month, months of a quarter or year. The last bucket ends at the window end.
func Buckets(p Period, from, to time.Time) []Bucket {
	var step func(time.Time) time.Time
	var label func(i int, t time.Time) string
	switch p {
	case PeriodWeekly:
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
		label = func(_ int, t time.Time) string { return t.Weekday().String()[:3] }
	case PeriodMonthly:
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
		label = func(i int, _ time.Time) string { return fmt.Sprintf("Week %d", i+1) }
	case PeriodQuarterly, PeriodYearly:
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
		label = func(_ int, t time.Time) string { return t.Month().String()[:3] }
	default:
		step = func(t time.Time) time.Time { return t.Add(time.Hour) }
		label = func(_ int, t time.Time) string { return t.Format("15:04") }
	}

	var out []Bucket
	for i, start := 0, from; start.Before(to); i++ {
		end := step(start)
		if end.After(to) {
			end = to
		}
		out = append(out, Bucket{Label: label(i, start), From: start, To: end})
		start = end
	}
	return out
}
