// Package domain models USGS daily streamflow data and the day-of-year
// comparison computed from it.
//
// # Data Source
//
// Daily mean discharge comes from the USGS Water Services daily-values
// endpoint (https://waterservices.usgs.gov/nwis/dv/), requested with
// parameter code 00060 (discharge, cubic feet per second) over a window that
// ends on the reference date and starts N years earlier (10 by default).
//
// # NWIS Data Conventions
//
// Payload shape:
//
//	value.timeSeries[0].sourceInfo.siteName      →  "COLUMBIA RIVER AT RICHLAND, WA"
//	value.timeSeries[0].sourceInfo.siteCode[0]   →  {"value": "12510500"}
//	value.timeSeries[0].variable.unit.unitCode   →  "ft3/s"
//	value.timeSeries[0].variable.noDataValue     →  -999999.0
//	value.timeSeries[0].values[0].value[]        →  {"value": "112000", "dateTime": "2024-06-15T00:00:00.000"}
//
// A payload without that wrapping structure is rejected as malformed. A
// present but empty value array is a valid, empty series.
//
// Timestamps:
//
//	ISO-8601 local timestamps, e.g. "2024-06-15T00:00:00.000". Only the
//	"YYYY-MM-DD" prefix carries meaning. Lexicographic order of the prefix
//	equals chronological order, so all date matching is string matching.
//
// Values:
//
//	Reported as strings. A value is usable when it parses as a finite number
//	and differs from the series' noDataValue sentinel. Ice-affected or
//	equipment-down days arrive as the sentinel or as non-numeric text.
//
// # Comparison
//
// [Analyze] picks the reading for the reference date, falling back to the
// previous day, then compares it against every other year's reading for the
// same month and day:
//
//	percentile = 100 * count(historical < current) / count(historical)
//
// Values equal to the current reading are never counted as below it. The
// percentile is mapped to a flow condition class that follows the USGS
// WaterWatch convention:
//
//	<10 much_below_normal | <25 below_normal | ≤75 normal | ≤90 above_normal | >90 much_above_normal
package domain
