package carto

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
	"github.com/couchcryptid/gv-dashboard-data/internal/observability"
)

func testClient(endpoint string) *Client {
	return &Client{
		endpoint:       endpoint,
		shootingsTable: "shootings",
		incidentsTable: "incidents_part1_part2",
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		metrics:        observability.NewMetricsForTesting(),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Shootings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "SELECT * FROM shootings", r.Form.Get("q"))
		assert.Equal(t, "geojson", r.Form.Get("format"))
		assert.Equal(t, "cartodb_id", r.Form.Get("skipfields"))

		_, _ = w.Write([]byte(`{
			"type": "FeatureCollection",
			"features": [
				{
					"geometry": {"type": "Point", "coordinates": [-75.16, 39.95]},
					"properties": {
						"dc_key": "202400001",
						"date_": "2024-03-05T00:00:00Z",
						"time": "21:15:00",
						"race": "B",
						"sex": "M",
						"fatal": 1,
						"age": 24,
						"latino": 0,
						"officer_involved": "N",
						"street_name": "MARKET ST",
						"block_number": 3900
					}
				},
				{
					"geometry": null,
					"properties": {
						"dc_key": 202400002.0,
						"date_": "2024-03-06T00:00:00Z",
						"time": "<Null>",
						"race": "W",
						"sex": "F",
						"fatal": "0",
						"age": null,
						"latino": "1",
						"officer_involved": "N",
						"street_name": null,
						"block_number": null
					}
				}
			]
		}`))
	}))
	defer srv.Close()

	raws, err := testClient(srv.URL).Shootings(context.Background())
	require.NoError(t, err)
	require.Len(t, raws, 2)

	t.Run("typed row", func(t *testing.T) {
		r := raws[0]
		assert.Equal(t, "202400001", r.DCKey)
		assert.Equal(t, "2024-03-05T00:00:00Z", r.Date)
		assert.Equal(t, "21:15:00", r.Time)
		assert.Equal(t, 1, r.Fatal)
		assert.Equal(t, 24.0, *r.Age)
		assert.Equal(t, "MARKET ST", *r.StreetName)
		require.NotNil(t, r.Point)
		assert.Equal(t, orb.Point{-75.16, 39.95}, *r.Point)
	})

	t.Run("loosely typed row coerced", func(t *testing.T) {
		r := raws[1]
		assert.Equal(t, "202400002", r.DCKey)
		assert.Equal(t, 0, r.Fatal)
		assert.Equal(t, 1, r.Latino)
		assert.Nil(t, r.Age)
		assert.Nil(t, r.StreetName)
		assert.Nil(t, r.Point)
	})
}

func TestClient_Shootings_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Shootings(context.Background())
	var uu *domain.UpstreamUnavailable
	require.ErrorAs(t, err, &uu)
	assert.Equal(t, "carto", uu.Source)
}

func TestClient_RecoverPoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		q := r.Form.Get("q")
		assert.Contains(t, q, "SELECT dc_key, the_geom FROM incidents_part1_part2")
		assert.Contains(t, q, "dc_key IN ( '202400001', '202400002' )")

		_, _ = w.Write([]byte(`{
			"type": "FeatureCollection",
			"features": [
				{
					"geometry": {"type": "Point", "coordinates": [-75.1, 39.9]},
					"properties": {"dc_key": "202400001"}
				},
				{
					"geometry": {"type": "Point", "coordinates": [-75.2, 39.8]},
					"properties": {"dc_key": "202400001"}
				},
				{
					"geometry": null,
					"properties": {"dc_key": "202400002"}
				}
			]
		}`))
	}))
	defer srv.Close()

	points, err := testClient(srv.URL).RecoverPoints(context.Background(), []string{"202400001", "202400002"})
	require.NoError(t, err)

	t.Run("duplicate matches keep the first", func(t *testing.T) {
		require.Contains(t, points, "202400001")
		assert.Equal(t, orb.Point{-75.1, 39.9}, points["202400001"])
	})

	t.Run("null geometry matches are skipped", func(t *testing.T) {
		assert.NotContains(t, points, "202400002")
	})
}

func TestClient_RecoverPoints_NoKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected for an empty key set")
	}))
	defer srv.Close()

	points, err := testClient(srv.URL).RecoverPoints(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestClient_FetchLayer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "SELECT * FROM zip_codes", r.Form.Get("q"))
		_, _ = w.Write([]byte(`{"type": "FeatureCollection", "features": []}`))
	}))
	defer srv.Close()

	data, err := testClient(srv.URL).FetchLayer(context.Background(), "zip_codes")
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")
}
