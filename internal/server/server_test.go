package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	carbonfootprint "github.com/superdango/carbon-footprint"
)

func serve(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeFootprint(t *testing.T, rec *httptest.ResponseRecorder) FootprintResponse {
	t.Helper()
	var resp FootprintResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestFootprintFromQuery(t *testing.T) {
	rec := serve(t, New(), httptest.NewRequest(http.MethodGet, "/api/v1/footprint?electricity=300&petrol=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decodeFootprint(t, rec)
	_, err := uuid.Parse(resp.CalculationMetadata.CalculationID)
	assert.NoError(t, err)
	assert.Equal(t, carbonfootprint.Inputs{ElectricityMonthly: 300, PetrolWeekly: 10}, resp.Inputs)
	assert.Equal(t, Quantity(1800), resp.Footprint.ElectricityKg)
	assert.InDelta(t, 1201.2, float64(resp.Footprint.PetrolKg), 1e-9)
	assert.InDelta(t, 3001.2, float64(resp.Footprint.TotalKg), 1e-9)
	assert.InDelta(t, 3.0012, float64(resp.Footprint.TotalTonnes), 1e-12)
	require.Len(t, resp.Footprint.Breakdown, 4)
	assert.Equal(t, "electricity", resp.Footprint.Breakdown[0].Category)
	assert.InDelta(t, 59.976, resp.Footprint.Breakdown[0].Percent, 1e-3)
}

func TestFootprintFromJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/footprint?electricity=1",
		strings.NewReader(`{"electricity": "300", "short_flight_distance": 1000, "long_flight_distance": -4}`))
	req.Header.Set("Content-Type", "application/json")

	resp := decodeFootprint(t, serve(t, New(), req))

	assert.Equal(t, carbonfootprint.Inputs{ElectricityMonthly: 300, ShortFlightDistance: 1000}, resp.Inputs)
	assert.InDelta(t, 150.0, float64(resp.Footprint.ShortFlightKg), 1e-9)
	assert.Equal(t, Quantity(0), resp.Footprint.LongFlightKg)
}

func TestFootprintFromFormBody(t *testing.T) {
	body := url.Values{"petrol": {"10"}, "long": {"abc"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/footprint", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp := decodeFootprint(t, serve(t, New(), req))

	assert.Equal(t, carbonfootprint.Inputs{PetrolWeekly: 10}, resp.Inputs)
}

func TestFootprintMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/footprint", strings.NewReader(`{"petrol" 10}`))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(t, New(), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, http.StatusBadRequest, errResp.Status)
	assert.Contains(t, errResp.Message, "source: json")
}

func TestFootprintZeroInputs(t *testing.T) {
	resp := decodeFootprint(t, serve(t, New(), httptest.NewRequest(http.MethodGet, "/api/v1/footprint", nil)))

	assert.Equal(t, Quantity(0), resp.Footprint.TotalKg)
	for _, share := range resp.Footprint.Breakdown {
		assert.Equal(t, 0.0, share.Percent)
	}
}

type fixedSource carbonfootprint.Inputs

func (f fixedSource) Inputs(r *http.Request) (carbonfootprint.Inputs, error) {
	return carbonfootprint.Inputs(f), nil
}

func TestFallbackOnlyWithoutValues(t *testing.T) {
	s := New(WithFallback(fixedSource{PetrolWeekly: 1}))

	resp := decodeFootprint(t, serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/footprint", nil)))
	assert.Equal(t, carbonfootprint.Inputs{PetrolWeekly: 1}, resp.Inputs)

	resp = decodeFootprint(t, serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/footprint?electricity=2", nil)))
	assert.Equal(t, carbonfootprint.Inputs{ElectricityMonthly: 2}, resp.Inputs)
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(WithLabels(map[string]string{"household": "test"}))
	rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/metrics?electricity=300", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `estimated_emissions_kgCO2eq_year{category="electricity",household="test"} 1800.0000000000`)
	assert.Contains(t, rec.Body.String(), `estimated_total_emissions_tCO2eq_year{household="test"} 1.8000000000`)
}

func TestReportEndpoint(t *testing.T) {
	rec := serve(t, New(), httptest.NewRequest(http.MethodGet, "/report?electricity=300&petrol=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "3.00 t CO₂e\n3,001 kg CO₂e / year\n"))
}

func TestHealthAndInternalMetrics(t *testing.T) {
	s := New()

	rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())

	serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/footprint", nil))
	rec = serve(t, s, httptest.NewRequest(http.MethodGet, "/internal/metrics", nil))
	assert.Contains(t, rec.Body.String(), "carbon_footprint_http_requests_total")
}

func TestMethodNotAllowed(t *testing.T) {
	rec := serve(t, New(), httptest.NewRequest(http.MethodDelete, "/api/v1/footprint", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRunShutsDownWithContext(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- New(WithShutdownTimeout(time.Second)).Run(ctx, addr)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestFootprintOverflowingInputs(t *testing.T) {
	rec := serve(t, New(), httptest.NewRequest(http.MethodGet, "/api/v1/footprint?petrol=1e307&electricity=300", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"petrol_kg":"+Inf"`)
	assert.Contains(t, rec.Body.String(), `"total_kg":"+Inf"`)

	resp := decodeFootprint(t, rec)
	assert.True(t, math.IsInf(float64(resp.Footprint.TotalTonnes), 1))
	assert.Equal(t, Quantity(1800), resp.Footprint.ElectricityKg)
	assert.Equal(t, 0.0, resp.Footprint.Breakdown[0].Percent)
	assert.Equal(t, 100.0, resp.Footprint.Breakdown[1].Percent)
}

func TestReportOverflowingInputs(t *testing.T) {
	rec := serve(t, New(), httptest.NewRequest(http.MethodGet, "/report?petrol=1e307", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "+Inf t CO₂e\n"))
}

func TestQuantityJSON(t *testing.T) {
	tests := []struct {
		name string
		q    Quantity
		want string
	}{
		{name: "integer", q: 1800, want: "1800"},
		{name: "decimals", q: 1201.2, want: "1201.2"},
		{name: "positive infinity", q: Quantity(math.Inf(1)), want: `"+Inf"`},
		{name: "negative infinity", q: Quantity(math.Inf(-1)), want: `"-Inf"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			var decoded Quantity
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.q, decoded)
		})
	}

	var q Quantity
	assert.Error(t, json.Unmarshal([]byte(`"lots"`), &q))
	assert.Error(t, json.Unmarshal([]byte(`true`), &q))
}

// failingWriter is a response writer whose body can not be written.
type failingWriter struct {
	header http.Header
	status int
}

func (w *failingWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (w *failingWriter) WriteHeader(status int) { w.status = status }

func (w *failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return buf
}

func TestWriteFailuresAreLogged(t *testing.T) {
	logs := captureLogs(t)

	handleHealth(&failingWriter{}, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Contains(t, logs.String(), "failed to write health response")

	w := &failingWriter{}
	writeError(w, http.StatusBadRequest, "bad inputs")
	assert.Equal(t, http.StatusBadRequest, w.status)
	assert.Contains(t, logs.String(), "failed to write error response")
}
