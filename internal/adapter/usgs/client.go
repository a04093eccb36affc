package usgs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/streamflow-etl/internal/domain"
	"github.com/couchcryptid/streamflow-etl/internal/observability"
)

// DefaultBaseURL is the USGS Water Services daily-values endpoint.
const DefaultBaseURL = "https://waterservices.usgs.gov/nwis/dv/"

// maxBodyBytes bounds the payload read from the daily-values endpoint. Ten
// years of one parameter is well under 2 MiB.
const maxBodyBytes = 32 << 20

// Client implements domain.SeriesFetcher using the USGS daily-values service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a USGS Water Services client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchDailySeries retrieves daily mean discharge for siteCode between start
// and end inclusive.
func (c *Client) FetchDailySeries(ctx context.Context, siteCode string, start, end time.Time) (*domain.Series, error) {
	params := url.Values{
		"format":      {"json"},
		"sites":       {siteCode},
		"parameterCd": {domain.DischargeParameterCode},
		"startDT":     {start.Format(domain.DateLayout)},
		"endDT":       {end.Format(domain.DateLayout)},
	}

	begin := time.Now()
	series, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.USGSAPIDuration.Observe(time.Since(begin).Seconds())
	if err != nil {
		c.metrics.USGSRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.USGSRequests.WithLabelValues("success").Inc()

	if series.SiteCode == "" {
		series.SiteCode = siteCode
	}
	c.logger.Debug("fetched daily series",
		"site_code", siteCode,
		"observations", len(series.Observations),
		"start", params.Get("startDT"),
		"end", params.Get("endDT"),
	)
	return series, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (*domain.Series, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daily values request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("usgs API: %w", domain.ErrGaugeNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("usgs API error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return domain.ParseNWISPayload(data)
}
