package nyt

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Period selects the bestseller lists to sweep. A zero Month sweeps the whole year, a
// zero Day sweeps the whole month.
type Period struct {
	Year  int `json:"year" validate:"required,gte=2008,lte=2100"`
	Month int `json:"month" validate:"gte=0,lte=12"`
	Day   int `json:"day" validate:"gte=0,lte=31"`
}

func (p Period) String() string {
	return fmt.Sprintf("%d-%d-%d", p.Year, p.Month, p.Day)
}

// Dates returns the as-of dates to query. Without a day it is every Monday between the
// start of the period and the start of the next one, both ends included.
func (p Period) Dates() []string {
	if p.Month != 0 && p.Day != 0 {
		return []string{time.Date(p.Year, time.Month(p.Month), p.Day, 0, 0, 0, 0, time.UTC).Format(DateLayout)}
	}

	var start, end time.Time
	if p.Month == 0 {
		start = time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(1, 0, 0)
	} else {
		start = time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	}

	offset := (int(time.Monday) - int(start.Weekday()) + 7) % 7
	var dates []string
	for d := start.AddDate(0, 0, offset); !d.After(end); d = d.AddDate(0, 0, 7) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}
