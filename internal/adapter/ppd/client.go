// Package ppd fetches citywide homicide totals from the police department's
// crime statistics feed.
package ppd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/gv-dashboard-data/internal/config"
	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
	"github.com/couchcryptid/gv-dashboard-data/internal/homicides"
	"github.com/couchcryptid/gv-dashboard-data/internal/observability"
)

// The site stamps its year-to-date table with a date only; the conventional
// observation time is 11:59.
const asOfHour, asOfMinute = 11, 59

// Client implements homicides.Source against the stats JSON feed.
type Client struct {
	endpoint   string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a homicide stats client for the configured endpoint.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		endpoint:   cfg.PPDEndpoint,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch downloads the current homicide totals snapshot.
func (c *Client) Fetch(ctx context.Context) (homicides.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return homicides.Snapshot{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamAPIDuration.WithLabelValues("ppd").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.With(prometheus.Labels{"source": "ppd", "outcome": "error"}).Inc()
		return homicides.Snapshot{}, &domain.UpstreamUnavailable{Source: "ppd", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.With(prometheus.Labels{"source": "ppd", "outcome": "error"}).Inc()
		body, _ := io.ReadAll(resp.Body)
		return homicides.Snapshot{}, &domain.UpstreamUnavailable{
			Source: "ppd",
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}

	var doc statsDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		c.metrics.UpstreamRequests.With(prometheus.Labels{"source": "ppd", "outcome": "error"}).Inc()
		return homicides.Snapshot{}, &domain.UpstreamUnavailable{Source: "ppd", Err: fmt.Errorf("decode stats: %w", err)}
	}
	c.metrics.UpstreamRequests.With(prometheus.Labels{"source": "ppd", "outcome": "success"}).Inc()

	asOf, err := parseAsOfDate(doc.AsOfDate)
	if err != nil {
		return homicides.Snapshot{}, &domain.UpstreamUnavailable{Source: "ppd", Err: err}
	}
	if len(doc.Rows) == 0 {
		return homicides.Snapshot{}, &domain.UpstreamUnavailable{Source: "ppd", Err: fmt.Errorf("stats feed has no rows")}
	}

	snap := homicides.Snapshot{
		AsOfDate: asOf,
		Annual:   make(map[int]int),
		YTD:      make(map[int]int),
	}
	for _, row := range doc.Rows {
		if row.Annual != nil {
			snap.Annual[row.Year] = *row.Annual
		}
		if row.YTD != nil {
			snap.YTD[row.Year] = *row.YTD
		}
	}

	c.logger.Info("fetched homicide stats", "as_of", asOf.Format("2006-01-02"), "years", len(doc.Rows))
	return snap, nil
}

func parseAsOfDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad as_of_date %q", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), asOfHour, asOfMinute, 0, 0, time.UTC), nil
}

type statsDoc struct {
	AsOfDate string     `json:"as_of_date"`
	Rows     []statsRow `json:"rows"`
}

type statsRow struct {
	Year   int  `json:"year"`
	Annual *int `json:"annual"`
	YTD    *int `json:"ytd"`
}
