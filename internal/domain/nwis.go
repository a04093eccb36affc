package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NWIS daily-values JSON (WaterML-JSON) types. Only the fields this service
// reads are declared.

type nwisResponse struct {
	Value *nwisValue `json:"value"`
}

type nwisValue struct {
	TimeSeries []nwisTimeSeries `json:"timeSeries"`
}

type nwisTimeSeries struct {
	SourceInfo nwisSourceInfo  `json:"sourceInfo"`
	Variable   nwisVariable    `json:"variable"`
	Values     []nwisValueList `json:"values"`
	Name       string          `json:"name"`
}

type nwisSourceInfo struct {
	SiteName string         `json:"siteName"`
	SiteCode []nwisSiteCode `json:"siteCode"`
}

type nwisSiteCode struct {
	Value      string `json:"value"`
	AgencyCode string `json:"agencyCode"`
}

type nwisVariable struct {
	VariableCode []nwisVariableCode `json:"variableCode"`
	Unit         nwisUnit           `json:"unit"`
	NoDataValue  *float64           `json:"noDataValue"`
}

type nwisVariableCode struct {
	Value string `json:"value"`
}

type nwisUnit struct {
	UnitCode string `json:"unitCode"`
}

type nwisValueList struct {
	Value []Observation `json:"value"`
}

// ParseNWISPayload decodes a USGS daily-values JSON document into a Series
// built from its first time series. A document that is not JSON or lacks the
// value.timeSeries[0].values[0].value structure wraps ErrMalformedSource.
func ParseNWISPayload(data []byte) (*Series, error) {
	var resp nwisResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse nwis payload: %w: %w", ErrMalformedSource, err)
	}

	if resp.Value == nil || len(resp.Value.TimeSeries) == 0 {
		return nil, fmt.Errorf("parse nwis payload: %w: no time series", ErrMalformedSource)
	}
	ts := resp.Value.TimeSeries[0]
	if len(ts.Values) == 0 || ts.Values[0].Value == nil {
		return nil, fmt.Errorf("parse nwis payload: %w: time series %q has no value list", ErrMalformedSource, ts.Name)
	}

	series := &Series{
		SiteName:     strings.TrimSpace(ts.SourceInfo.SiteName),
		Unit:         ts.Variable.Unit.UnitCode,
		NoDataValue:  ts.Variable.NoDataValue,
		Observations: ts.Values[0].Value,
	}
	if len(ts.SourceInfo.SiteCode) > 0 {
		series.SiteCode = ts.SourceInfo.SiteCode[0].Value
	}
	if len(ts.Variable.VariableCode) > 0 {
		series.VariableCode = ts.Variable.VariableCode[0].Value
	}
	return series, nil
}

// UnmarshalJSON accepts the reading as a JSON string, number, or null. NWIS
// sends strings; other producers of the same shape send bare numbers.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var raw struct {
		DateTime string          `json:"dateTime"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.DateTime = raw.DateTime
	o.Value = ""

	v := strings.TrimSpace(string(raw.Value))
	switch {
	case v == "" || v == "null":
	case strings.HasPrefix(v, `"`):
		if err := json.Unmarshal(raw.Value, &o.Value); err != nil {
			return err
		}
	default:
		o.Value = v
	}
	return nil
}
