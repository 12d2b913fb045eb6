// Package carto queries the city's SQL-over-HTTP API for the raw shooting
// victims table, point recovery from the incidents table, and static boundary
// layers.
package carto

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/gv-dashboard-data/internal/config"
	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
	"github.com/couchcryptid/gv-dashboard-data/internal/observability"
)

// Client fetches GeoJSON result sets from the carto SQL API.
// It implements pipeline.IncidentSource and geo.PointSource.
type Client struct {
	endpoint       string
	shootingsTable string
	incidentsTable string
	httpClient     *http.Client
	metrics        *observability.Metrics
	logger         *slog.Logger
}

// NewClient creates a carto SQL API client for the configured tables.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		endpoint:       cfg.CartoEndpoint,
		shootingsTable: cfg.ShootingsTable,
		incidentsTable: cfg.IncidentsTable,
		httpClient:     &http.Client{Timeout: cfg.HTTPTimeout},
		metrics:        metrics,
		logger:         logger,
	}
}

// Shootings downloads the full shooting victims table as raw rows.
func (c *Client) Shootings(ctx context.Context) ([]domain.RawIncident, error) {
	data, err := c.query(ctx, fmt.Sprintf("SELECT * FROM %s", c.shootingsTable))
	if err != nil {
		return nil, err
	}

	var doc response
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &domain.UpstreamUnavailable{Source: "carto", Err: fmt.Errorf("decode shootings response: %w", err)}
	}

	raws := make([]domain.RawIncident, 0, len(doc.Features))
	for _, f := range doc.Features {
		var props shootingProps
		if err := json.Unmarshal(f.Properties, &props); err != nil {
			return nil, &domain.UpstreamUnavailable{Source: "carto", Err: fmt.Errorf("decode shooting row: %w", err)}
		}

		raw := domain.RawIncident{
			DCKey:           asString(props.DCKey),
			Date:            props.Date,
			Time:            props.Time,
			Race:            props.Race,
			Sex:             props.Sex,
			Fatal:           asInt(props.Fatal),
			Age:             asFloatPtr(props.Age),
			Latino:          asInt(props.Latino),
			OfficerInvolved: props.OfficerInvolved,
			StreetName:      props.StreetName,
			BlockNumber:     props.BlockNumber,
			Point:           f.point(),
		}
		raws = append(raws, raw)
	}

	c.logger.Info("fetched shootings table", "rows", len(raws))
	return raws, nil
}

// RecoverPoints looks up geometries in the incidents table for the given
// incident numbers in one batched query. Keys with no match are simply absent
// from the result; duplicate matches keep the first.
func (c *Client) RecoverPoints(ctx context.Context, dcKeys []string) (map[string]orb.Point, error) {
	if len(dcKeys) == 0 {
		return map[string]orb.Point{}, nil
	}

	quoted := make([]string, len(dcKeys))
	for i, k := range dcKeys {
		quoted[i] = "'" + strings.ReplaceAll(k, "'", "''") + "'"
	}
	// the_geom must be selected explicitly: the geojson format only
	// materializes geometry for queries that include it.
	sql := fmt.Sprintf("SELECT dc_key, the_geom FROM %s WHERE dc_key IN ( %s )", c.incidentsTable, strings.Join(quoted, ", "))

	data, err := c.query(ctx, sql)
	if err != nil {
		return nil, err
	}

	var doc response
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &domain.UpstreamUnavailable{Source: "carto", Err: fmt.Errorf("decode incidents response: %w", err)}
	}

	points := make(map[string]orb.Point)
	for _, f := range doc.Features {
		var props struct {
			DCKey any `json:"dc_key"`
		}
		if err := json.Unmarshal(f.Properties, &props); err != nil {
			return nil, &domain.UpstreamUnavailable{Source: "carto", Err: fmt.Errorf("decode incident row: %w", err)}
		}
		key := asString(props.DCKey)
		p := f.point()
		if key == "" || p == nil {
			continue
		}
		if _, seen := points[key]; seen {
			continue
		}
		points[key] = *p
	}

	c.metrics.PointsRecovered.Add(float64(len(points)))
	c.logger.Info("recovered incident points", "requested", len(dcKeys), "found", len(points))
	return points, nil
}

// FetchLayer downloads one boundary layer table as raw GeoJSON bytes.
func (c *Client) FetchLayer(ctx context.Context, table string) ([]byte, error) {
	return c.query(ctx, fmt.Sprintf("SELECT * FROM %s", table))
}

func (c *Client) query(ctx context.Context, sql string) ([]byte, error) {
	params := url.Values{
		"q":          {sql},
		"format":     {"geojson"},
		"skipfields": {"cartodb_id"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamAPIDuration.WithLabelValues("carto").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.With(prometheus.Labels{"source": "carto", "outcome": "error"}).Inc()
		return nil, &domain.UpstreamUnavailable{Source: "carto", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.With(prometheus.Labels{"source": "carto", "outcome": "error"}).Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.UpstreamUnavailable{
			Source: "carto",
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.UpstreamRequests.With(prometheus.Labels{"source": "carto", "outcome": "error"}).Inc()
		return nil, &domain.UpstreamUnavailable{Source: "carto", Err: err}
	}

	c.metrics.UpstreamRequests.With(prometheus.Labels{"source": "carto", "outcome": "success"}).Inc()
	return data, nil
}

// Carto GeoJSON response types. Geometry is decoded by hand because the
// shootings feed carries literal null geometries for rows with no location.

type response struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Geometry   *pointGeometry  `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

type pointGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func (f feature) point() *orb.Point {
	if f.Geometry == nil || f.Geometry.Type != "Point" || len(f.Geometry.Coordinates) < 2 {
		return nil
	}
	return &orb.Point{f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]}
}

type shootingProps struct {
	DCKey           any      `json:"dc_key"`
	Date            string   `json:"date_"`
	Time            string   `json:"time"`
	Race            string   `json:"race"`
	Sex             string   `json:"sex"`
	Fatal           any      `json:"fatal"`
	Age             any      `json:"age"`
	Latino          any      `json:"latino"`
	OfficerInvolved string   `json:"officer_involved"`
	StreetName      *string  `json:"street_name"`
	BlockNumber     *float64 `json:"block_number"`
}

// The feed is loosely typed: numeric columns arrive as numbers or strings
// depending on the row. Coercion happens here so domain code sees one shape.

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func asInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(x))
		return n
	default:
		return 0
	}
}

func asFloatPtr(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return &f
		}
	}
	return nil
}
