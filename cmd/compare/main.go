// Command compare reports how a gauge's current discharge ranks against the
// same calendar day in previous years.
//
// Usage:
//
//	go run ./cmd/compare -site 12510500
//	go run ./cmd/compare -site 12510500 -date 2024-06-15
//	go run ./cmd/compare -file internal/domain/testdata/nwis_dv_12510500.json -date 2024-06-15
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/streamflow-etl/internal/adapter/usgs"
	"github.com/couchcryptid/streamflow-etl/internal/domain"
	"github.com/couchcryptid/streamflow-etl/internal/observability"
	"github.com/couchcryptid/streamflow-etl/internal/pipeline"
)

// Exit codes.
const (
	exitOK       = 0
	exitUsage    = 1
	exitNoData   = 2
	exitUpstream = 3
)

type options struct {
	site    string
	file    string
	date    string
	years   int
	baseURL string
	timeout time.Duration
	asJSON  bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.site, "site", "", "USGS site code (8-15 digits)")
	fs.StringVar(&opts.file, "file", "", "analyse a saved NWIS JSON payload instead of calling the API")
	fs.StringVar(&opts.date, "date", "", "reference date YYYY-MM-DD (default: today, UTC)")
	fs.IntVar(&opts.years, "years", 10, "years of history to fetch")
	fs.StringVar(&opts.baseURL, "base-url", usgs.DefaultBaseURL, "USGS daily values endpoint")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "USGS request timeout")
	fs.BoolVar(&opts.asJSON, "json", false, "print the comparison as JSON")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if opts.site == "" && opts.file == "" {
		fs.Usage()
		return exitUsage
	}
	if opts.years <= 0 {
		fmt.Fprintln(stderr, "-years must be positive")
		return exitUsage
	}

	ref := domain.Today()
	if opts.date != "" {
		d, err := domain.ParseReferenceDate(opts.date)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		ref = d
	}

	result, err := compare(context.Background(), opts, ref, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error (%s): %v\n", domain.FailureKind(err), err)
		return exitCode(err)
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		return exitOK
	}

	printReport(stdout, result)
	return exitOK
}

func compare(ctx context.Context, opts options, ref time.Time, stderr io.Writer) (domain.FlowComparison, error) {
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return domain.FlowComparison{}, fmt.Errorf("read payload: %w", err)
		}
		series, err := domain.ParseNWISPayload(data)
		if err != nil {
			return domain.FlowComparison{}, err
		}
		if opts.site != "" && series.SiteCode != "" && series.SiteCode != opts.site {
			return domain.FlowComparison{}, fmt.Errorf("payload is for site %s, not %s", series.SiteCode, opts.site)
		}
		return domain.Analyze(series, ref)
	}

	if err := domain.ValidateSiteCode(opts.site); err != nil {
		return domain.FlowComparison{}, err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetricsForTesting()
	client := usgs.NewClient(opts.baseURL, opts.timeout, metrics, logger)
	comparator := pipeline.NewComparator(client, opts.years, metrics, logger)
	return comparator.Compare(ctx, opts.site, ref)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSiteCode):
		return exitUsage
	case errors.Is(err, domain.ErrNoRecentData),
		errors.Is(err, domain.ErrNoHistoricalData),
		errors.Is(err, domain.ErrGaugeNotFound):
		return exitNoData
	default:
		return exitUpstream
	}
}

func printReport(w io.Writer, c domain.FlowComparison) {
	name := c.SiteCode
	if c.SiteName != "" {
		name = fmt.Sprintf("%s (%s)", c.SiteName, c.SiteCode)
	}

	fmt.Fprintf(w, "Gauge:      %s\n", name)
	fmt.Fprintf(w, "Date used:  %s (requested %s)\n", c.DateUsed, c.ReferenceDate)
	fmt.Fprintf(w, "Current:    %.2f %s\n", c.Current, c.Unit)
	fmt.Fprintf(w, "Mean:       %.2f %s over %d years\n", c.Mean, c.Unit, len(c.Historical))
	fmt.Fprintf(w, "Median:     %.2f  Min: %.2f  Max: %.2f\n", c.Median, c.Min, c.Max)
	fmt.Fprintf(w, "Percentile: %.1f (%s)\n", c.Percentile, c.Condition)
	fmt.Fprintf(w, "Today's flow is higher than %.0f%% of past flows on this date.\n\n", c.Percentile)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tDischarge\t")
	for _, h := range c.Historical {
		fmt.Fprintf(tw, "%s\t%.2f\t\n", h.Year, h.Discharge)
	}
	tw.Flush() //nolint:errcheck // writing to stdout
}
