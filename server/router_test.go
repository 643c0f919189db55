package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"astronomy-explorer/models"
	"astronomy-explorer/providers"
)

type stubService struct {
	gotEndpoint string
	gotRaw      models.RawRequest
	chartFn     func(ctx context.Context, endpoint string, raw models.RawRequest) (models.ChartResult, error)
}

func (s *stubService) Chart(ctx context.Context, endpoint string, raw models.RawRequest) (models.ChartResult, error) {
	s.gotEndpoint = endpoint
	s.gotRaw = raw
	return s.chartFn(ctx, endpoint, raw)
}

func (s *stubService) TransportName() string { return "stub" }

func successService() *stubService {
	return &stubService{
		chartFn: func(ctx context.Context, endpoint string, raw models.RawRequest) (models.ChartResult, error) {
			return models.ChartResult{Subject: raw.Subject, Style: raw.Style, ImageURL: "https://img.example/" + raw.Subject + ".png"}, nil
		},
	}
}

func failingService(err error) *stubService {
	return &stubService{
		chartFn: func(ctx context.Context, endpoint string, raw models.RawRequest) (models.ChartResult, error) {
			return models.ChartResult{}, err
		},
	}
}

func newRouterUnderTest(svc ChartService, rps float64, burst int) http.Handler {
	return NewRouter(Options{
		Service:        svc,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		DefaultLat:     33.775867,
		DefaultLng:     -84.39733,
		Now:            func() time.Time { return time.Date(2024, 6, 1, 22, 0, 0, 0, time.UTC) },
	})
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "203.0.113.7:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProxy(t *testing.T, rec *httptest.ResponseRecorder) models.ProxyResponse {
	t.Helper()
	var body models.ProxyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestChart_SuccessUsesDefaults(t *testing.T) {
	svc := successService()
	rec := get(newRouterUnderTest(svc, 0, 0), "/api/chart?subject=ori&style=navy")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeProxy(t, rec)
	require.Equal(t, models.ProxyResponse{Subject: "ori", Style: "navy", Image: "https://img.example/ori.png"}, body)

	require.Equal(t, "star-chart", svc.gotEndpoint)
	require.Equal(t, "33.775867", svc.gotRaw.Latitude)
	require.Equal(t, "-84.39733", svc.gotRaw.Longitude)
	require.Equal(t, "2024-06-01", svc.gotRaw.Date)

	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	require.NoError(t, err)
}

func TestChart_PassesExplicitObserver(t *testing.T) {
	svc := successService()
	rec := get(newRouterUnderTest(svc, 0, 0), "/api/chart?subject=cas&style=default&lat=-33.9&lng=18.4&date=2024-12-24")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.RawRequest{Subject: "cas", Style: "default", Latitude: "-33.9", Longitude: "18.4", Date: "2024-12-24"}, svc.gotRaw)
}

func TestMoonPhase_AcceptsViewOrSubject(t *testing.T) {
	svc := successService()
	h := newRouterUnderTest(svc, 0, 0)

	rec := get(h, "/api/moon-phase?view=landscape-simple&style=sketch")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "moon-phase", svc.gotEndpoint)
	require.Equal(t, "landscape-simple", svc.gotRaw.Subject)

	rec = get(h, "/api/moon-phase?subject=portrait-simple")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "portrait-simple", svc.gotRaw.Subject)
	require.Equal(t, "default", svc.gotRaw.Style)
}

func TestChart_ErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &models.ValidationError{Field: "subject", Message: "не выбран объект"}, http.StatusBadRequest},
		{"unauthorized", &providers.APIError{StatusCode: 401, StatusText: "Unauthorized"}, http.StatusUnauthorized},
		{"rate limited upstream", &providers.APIError{StatusCode: 429}, http.StatusTooManyRequests},
		{"network", providers.NewNetworkError(errors.New("dial tcp: refused")), http.StatusBadGateway},
		{"invalid response", &providers.InvalidResponseError{Field: "data.imageUrl", Reason: "поле отсутствует"}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(newRouterUnderTest(failingService(tc.err), 0, 0), "/api/chart?subject=ori")
			require.Equal(t, tc.status, rec.Code)
			body := decodeProxy(t, rec)
			require.Equal(t, providers.UserMessage(tc.err), body.Error)
			require.Empty(t, body.Image)
		})
	}
}

func TestRateLimit_PerIP(t *testing.T) {
	h := newRouterUnderTest(successService(), 0.001, 2)

	require.Equal(t, http.StatusOK, get(h, "/api/chart?subject=ori").Code)
	require.Equal(t, http.StatusOK, get(h, "/api/chart?subject=ori").Code)

	rec := get(h, "/api/chart?subject=ori")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, decodeProxy(t, rec).Error)

	// Каталог не лимитируется.
	require.Equal(t, http.StatusOK, get(h, "/api/subjects").Code)

	other := httptest.NewRequest(http.MethodGet, "/api/chart?subject=ori", nil)
	other.RemoteAddr = "198.51.100.1:1234"
	otherRec := httptest.NewRecorder()
	h.ServeHTTP(otherRec, other)
	require.Equal(t, http.StatusOK, otherRec.Code)
}

func getFrom(h http.Handler, target, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "203.0.113.7:5555"
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_IgnoresSpoofedForwardedFor(t *testing.T) {
	h := newRouterUnderTest(successService(), 0.001, 1)

	require.Equal(t, http.StatusOK, getFrom(h, "/api/chart?subject=ori", "198.51.100.10").Code)
	for _, spoofed := range []string{"198.51.100.11", "198.51.100.12", "198.51.100.13"} {
		require.Equal(t, http.StatusTooManyRequests, getFrom(h, "/api/chart?subject=ori", spoofed).Code, spoofed)
	}
}

func TestRateLimit_TrustedProxyForwardsClientIP(t *testing.T) {
	h := NewRouter(Options{
		Service:        successService(),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		TrustedProxies: []string{"203.0.113.0/24"},
		RateLimitRPS:   0.001,
		RateLimitBurst: 1,
	})

	require.Equal(t, http.StatusOK, getFrom(h, "/api/chart?subject=ori", "198.51.100.10").Code)
	require.Equal(t, http.StatusOK, getFrom(h, "/api/chart?subject=ori", "198.51.100.11").Code)
	require.Equal(t, http.StatusTooManyRequests, getFrom(h, "/api/chart?subject=ori", "198.51.100.10").Code)
}

func TestCatalogRoutes(t *testing.T) {
	h := newRouterUnderTest(successService(), 0, 0)

	rec := get(h, "/api/subjects")
	require.Equal(t, http.StatusOK, rec.Code)
	var subjects struct {
		Constellations []struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"constellations"`
		MoonViews []string `json:"moon_views"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subjects))
	require.Len(t, subjects.Constellations, 88)
	require.Contains(t, subjects.MoonViews, "portrait-simple")

	rec = get(h, "/api/styles")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "inverted")

	rec = get(h, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"transport":"stub"`)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	h := NewRouter(Options{
		Service:        successService(),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		AllowedOrigins: []string{"https://stars.example"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://stars.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "https://stars.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestID_PreservesValidIncoming(t *testing.T) {
	h := newRouterUnderTest(successService(), 0, 0)
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, id, rec.Header().Get(requestIDHeader))
}

func TestIPLimiters_ForgetIdleVisitors(t *testing.T) {
	l := newIPLimiters(1, 1, time.Minute)
	start := time.Now()
	require.True(t, l.allow("a", start))
	require.True(t, l.allow("b", start.Add(2*time.Minute)))
	require.Len(t, l.visitors, 1)
}
