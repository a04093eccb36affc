package domain

import (
	"context"
	"time"
)

// DateLayout is the calendar-date form used for every date string in this package.
const DateLayout = "2006-01-02"

// DischargeParameterCode is the NWIS parameter code for discharge in ft³/s.
const DischargeParameterCode = "00060"

// Observation is one reported daily value. Value is kept as the raw string
// from the source so that unusable readings are detected explicitly.
type Observation struct {
	DateTime string `json:"dateTime"`
	Value    string `json:"value"`
}

// Series is the daily-values time series for one gauge and one parameter.
// Observations are not assumed to be sorted.
type Series struct {
	SiteCode     string
	SiteName     string
	VariableCode string
	Unit         string
	NoDataValue  *float64 // sentinel meaning "no reading", -999999 for NWIS
	Observations []Observation
}

// HistoricalPoint is the same-day-of-year reading for one earlier year.
type HistoricalPoint struct {
	Year      string  `json:"year"`
	Discharge float64 `json:"discharge"`
}

// FlowComparison relates the most recent reading to the readings recorded on
// the same calendar day in earlier years.
type FlowComparison struct {
	SiteCode      string            `json:"site_code,omitempty"`
	SiteName      string            `json:"site_name,omitempty"`
	ReferenceDate string            `json:"reference_date"`
	DateUsed      string            `json:"date_used"`
	Current       float64           `json:"current"`
	Unit          string            `json:"unit"`
	Historical    []HistoricalPoint `json:"historical"`
	Mean          float64           `json:"mean"`
	Median        float64           `json:"median"`
	Min           float64           `json:"min"`
	Max           float64           `json:"max"`
	Percentile    float64           `json:"percentile"`
	Condition     string            `json:"condition"`

	ComputedAt time.Time `json:"computed_at,omitzero"`
}

// SeriesFetcher retrieves daily discharge series from an upstream source.
type SeriesFetcher interface {
	// FetchDailySeries returns the discharge series for siteCode between
	// start and end inclusive (calendar dates).
	FetchDailySeries(ctx context.Context, siteCode string, start, end time.Time) (*Series, error)
}

// ComparisonWindow returns the retrieval range for a reference date: from the
// same calendar day `years` years earlier through the reference date.
func ComparisonWindow(referenceDate time.Time, years int) (start, end time.Time) {
	end = TruncateDay(referenceDate)
	start = end.AddDate(-years, 0, 0)
	return start, end
}
