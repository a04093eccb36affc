package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// siteCodeRe matches USGS site numbers: 8 to 15 digits.
var siteCodeRe = regexp.MustCompile(`^\d{8,15}$`)

// ValidateSiteCode checks that s looks like a USGS site number.
func ValidateSiteCode(s string) error {
	if !siteCodeRe.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidSiteCode, s)
	}
	return nil
}

// RawEvent represents an unprocessed message from the request topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// AnalysisRequest asks for the comparison of one gauge. An empty
// ReferenceDate means "today" at the time the request is processed.
type AnalysisRequest struct {
	ID            string    `json:"id"`
	SiteCode      string    `json:"site_code"`
	ReferenceDate string    `json:"reference_date,omitempty"`
	RequestedAt   time.Time `json:"requested_at"`
}

// ComparisonResult is the message published for each analysed request.
type ComparisonResult struct {
	RequestID string `json:"request_id"`
	FlowComparison
}

// NewAnalysisRequest builds a request with a fresh ID stamped with the package clock.
func NewAnalysisRequest(siteCode string, referenceDate string) AnalysisRequest {
	return AnalysisRequest{
		ID:            uuid.NewString(),
		SiteCode:      siteCode,
		ReferenceDate: referenceDate,
		RequestedAt:   Now(),
	}
}

// ParseAnalysisRequest deserializes and validates a request message. Every
// failure wraps ErrInvalidRequest; a bad site code also wraps ErrInvalidSiteCode.
func ParseAnalysisRequest(raw RawEvent) (AnalysisRequest, error) {
	var req AnalysisRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return AnalysisRequest{}, fmt.Errorf("parse analysis request: %w: %w", ErrInvalidRequest, err)
	}

	req.SiteCode = strings.TrimSpace(req.SiteCode)
	if req.SiteCode == "" {
		return AnalysisRequest{}, fmt.Errorf("parse analysis request: %w: missing site_code", ErrInvalidRequest)
	}
	if err := ValidateSiteCode(req.SiteCode); err != nil {
		return AnalysisRequest{}, fmt.Errorf("parse analysis request: %w: %w", ErrInvalidRequest, err)
	}
	if _, err := req.Reference(); err != nil {
		return AnalysisRequest{}, fmt.Errorf("parse analysis request: %w: %w", ErrInvalidRequest, err)
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	return req, nil
}

// Reference returns the parsed reference date, or Today when the request
// leaves it empty.
func (r AnalysisRequest) Reference() (time.Time, error) {
	if r.ReferenceDate == "" {
		return Today(), nil
	}
	return ParseReferenceDate(r.ReferenceDate)
}

// ParseReferenceDate parses a YYYY-MM-DD reference date as a UTC calendar date.
func ParseReferenceDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// SerializeComparison marshals a comparison into an OutputEvent keyed by site code.
func SerializeComparison(requestID string, c FlowComparison) (OutputEvent, error) {
	data, err := json.Marshal(ComparisonResult{RequestID: requestID, FlowComparison: c})
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize comparison: %w", err)
	}
	return OutputEvent{
		Key:   []byte(c.SiteCode),
		Value: data,
		Headers: map[string]string{
			"site_code":   c.SiteCode,
			"request_id":  requestID,
			"condition":   c.Condition,
			"computed_at": c.ComputedAt.Format(time.RFC3339),
		},
	}, nil
}
