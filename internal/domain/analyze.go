package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
)

// Analyze computes the day-of-year comparison for series as of referenceDate.
//
// The current reading is the first usable observation dated referenceDate,
// or failing that the first usable observation dated the day before. The
// historical set is every other usable observation sharing referenceDate's
// month and day, excluding the date that supplied the current reading.
//
// Analyze is a pure function of its arguments: it reads no clock, performs no
// I/O, and does not modify series. Failures wrap ErrMalformedSource,
// ErrNoRecentData, or ErrNoHistoricalData.
func Analyze(series *Series, referenceDate time.Time) (FlowComparison, error) {
	if series == nil {
		return FlowComparison{}, fmt.Errorf("analyze: %w: no series supplied", ErrMalformedSource)
	}

	today := referenceDate.Format(DateLayout)
	yesterday := referenceDate.AddDate(0, 0, -1).Format(DateLayout)
	monthDay := today[5:10]

	current, dateUsed, ok := locateCurrent(series, today, yesterday)
	if !ok {
		return FlowComparison{}, fmt.Errorf("analyze %s: %w: no usable reading for %s or %s",
			series.SiteCode, ErrNoRecentData, today, yesterday)
	}

	historical := historicalSet(series, monthDay, dateUsed)
	if len(historical) == 0 {
		return FlowComparison{}, fmt.Errorf("analyze %s: %w: no usable readings on %s in other years",
			series.SiteCode, ErrNoHistoricalData, monthDay)
	}

	discharges := make([]float64, len(historical))
	for i, p := range historical {
		discharges[i] = p.Discharge
	}

	summary, err := summarize(discharges)
	if err != nil {
		return FlowComparison{}, fmt.Errorf("analyze %s: %w", series.SiteCode, err)
	}
	percentile := percentileBelow(discharges, current)

	return FlowComparison{
		SiteCode:      series.SiteCode,
		SiteName:      series.SiteName,
		ReferenceDate: today,
		DateUsed:      dateUsed,
		Current:       current,
		Unit:          series.Unit,
		Historical:    historical,
		Mean:          summary.mean,
		Median:        summary.median,
		Min:           summary.min,
		Max:           summary.max,
		Percentile:    percentile,
		Condition:     deriveCondition(percentile),
	}, nil
}

// locateCurrent returns the first usable reading dated today, else the first
// usable reading dated yesterday.
func locateCurrent(series *Series, today, yesterday string) (float64, string, bool) {
	for _, date := range []string{today, yesterday} {
		if v, ok := series.firstUsable(date); ok {
			return v, date, true
		}
	}
	return 0, "", false
}

// HasUsableReading reports whether the series holds a usable value dated day.
func (s *Series) HasUsableReading(day time.Time) bool {
	_, ok := s.firstUsable(day.Format(DateLayout))
	return ok
}

func (s *Series) firstUsable(date string) (float64, bool) {
	for _, obs := range s.Observations {
		if !strings.HasPrefix(obs.DateTime, date) {
			continue
		}
		if v, ok := s.parseValue(obs.Value); ok {
			return v, true
		}
	}
	return 0, false
}

// historicalSet keeps observations whose month-day equals monthDay and whose
// date is not excluded. Order follows the series.
func historicalSet(series *Series, monthDay, excluded string) []HistoricalPoint {
	points := make([]HistoricalPoint, 0)
	for _, obs := range series.Observations {
		date := observationDate(obs.DateTime)
		if date == "" || date[5:10] != monthDay {
			continue
		}
		if date == excluded {
			continue
		}
		v, ok := series.parseValue(obs.Value)
		if !ok {
			continue
		}
		points = append(points, HistoricalPoint{Year: date[:4], Discharge: v})
	}
	return points
}

// observationDate returns the YYYY-MM-DD prefix of an NWIS timestamp, or ""
// when the timestamp does not start with a well-formed date.
func observationDate(dateTime string) string {
	if len(dateTime) < len(DateLayout) {
		return ""
	}
	date := dateTime[:len(DateLayout)]
	for i := 0; i < len(date); i++ {
		c := date[i]
		switch i {
		case 4, 7:
			if c != '-' {
				return ""
			}
		default:
			if c < '0' || c > '9' {
				return ""
			}
		}
	}
	return date
}

// parseValue converts a raw reading into a discharge value. Non-numeric,
// non-finite, and no-data sentinel readings are unusable.
func (s *Series) parseValue(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if s.NoDataValue != nil && v == *s.NoDataValue {
		return 0, false
	}
	return v, true
}

// percentileBelow returns the share of values strictly below current, as 0–100.
// Values equal to current do not count as below.
func percentileBelow(values []float64, current float64) float64 {
	below := 0
	for _, v := range values {
		if v < current {
			below++
		}
	}
	return float64(below) / float64(len(values)) * 100
}

type summary struct {
	mean, median, min, max float64
}

func summarize(values []float64) (summary, error) {
	var (
		s   summary
		err error
	)
	if s.mean, err = stats.Mean(values); err != nil {
		return summary{}, fmt.Errorf("mean: %w", err)
	}
	if s.median, err = stats.Median(values); err != nil {
		return summary{}, fmt.Errorf("median: %w", err)
	}
	if s.min, err = stats.Min(values); err != nil {
		return summary{}, fmt.Errorf("min: %w", err)
	}
	if s.max, err = stats.Max(values); err != nil {
		return summary{}, fmt.Errorf("max: %w", err)
	}
	return s, nil
}

// deriveCondition maps a percentile to a flow condition class using the USGS
// WaterWatch breakpoints.
func deriveCondition(percentile float64) string {
	switch {
	case percentile < 10:
		return "much_below_normal"
	case percentile < 25:
		return "below_normal"
	case percentile <= 75:
		return "normal"
	case percentile <= 90:
		return "above_normal"
	default:
		return "much_above_normal"
	}
}
