package domain

import "errors"

// Failure kinds reported by Analyze and ParseNWISPayload. Callers match them
// with errors.Is; the wrapped message carries the details.
var (
	ErrMalformedSource  = errors.New("malformed source payload")
	ErrNoRecentData     = errors.New("no recent data")
	ErrNoHistoricalData = errors.New("no historical data")
)

// Request-level errors raised before any analysis runs.
var (
	ErrInvalidRequest  = errors.New("invalid analysis request")
	ErrInvalidSiteCode = errors.New("invalid site code")
	ErrGaugeNotFound   = errors.New("gauge not found")
)

// Failure kind labels used in metrics, HTTP responses, and CLI output.
const (
	KindMalformedSource  = "malformed_source"
	KindNoRecentData     = "no_recent_data"
	KindNoHistoricalData = "no_historical_data"
	KindInvalidSiteCode  = "invalid_site_code"
	KindInvalidRequest   = "invalid_request"
	KindGaugeNotFound    = "gauge_not_found"
	KindUnknown          = "unknown"
)

// FailureKind maps an error to its failure kind label.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedSource):
		return KindMalformedSource
	case errors.Is(err, ErrNoRecentData):
		return KindNoRecentData
	case errors.Is(err, ErrNoHistoricalData):
		return KindNoHistoricalData
	case errors.Is(err, ErrInvalidSiteCode):
		return KindInvalidSiteCode
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrGaugeNotFound):
		return KindGaugeNotFound
	default:
		return KindUnknown
	}
}

// Retryable reports whether err may clear on its own, such as a USGS timeout
// or 5xx. Every classified failure is permanent for the request that caused it.
func Retryable(err error) bool {
	return err != nil && FailureKind(err) == KindUnknown
}
