package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/pfcatalog/internal/config"
	"github.com/JonMunkholm/pfcatalog/internal/core"
	"github.com/JonMunkholm/pfcatalog/internal/diff"
)

func testConfig() *config.Config {
	return &config.Config{
		Import:   config.ImportConfig{MaxFileSize: 1 << 20},
		Diff:     config.DiffConfig{MaxInputSize: 64 << 10},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

// newTestServer returns a server with no database or PlayFab client, which
// is enough for diff sessions and request validation.
func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc := core.NewService(nil, nil, core.Options{SessionTTL: time.Minute, MaxSessions: 10})
	s := NewServer(svc, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func startDiff(t *testing.T, s *Server) core.DiffSessionInfo {
	t.Helper()
	body := `{"left":{"ItemId":"sword","DisplayName":"Sword"},` +
		`"right":{"ItemId":"sword","DisplayName":"Iron <Sword>","ItemClass":"Weapon"}}`
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/diff", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[core.DiffSessionInfo](t, rec)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[healthResponse](t, rec)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "Main", h.CatalogVersion)
	assert.False(t, h.RemoteEnabled)
	assert.Equal(t, core.DefaultMaxConcurrent, h.Operations.MaxConcurrent)
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestDiffFlow(t *testing.T) {
	s := newTestServer(t, testConfig())
	info := startDiff(t, s)
	assert.Equal(t, 2, info.Differing)

	body := `{"field":"DisplayName","side":"left"}`
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/diff/"+info.ID+"/choice", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/diff/"+info.ID+"?differing=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]diff.Row](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, "DisplayName", rows[0].Field)
	assert.Equal(t, diff.Left, rows[0].Choice)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/diff/"+info.ID+"/report.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "DisplayName,Sword,Iron <Sword>,true,left")

	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/api/diff/"+info.ID+"/merge", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	merged := decode[core.MergeResult](t, rec)
	assert.False(t, merged.Applied)
	assert.Equal(t, map[string]string{
		"DisplayName": "Sword",
		"ItemClass":   "Weapon",
		"ItemId":      "sword",
	}, merged.Fields)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/diff/"+info.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "DIFF002", decode[ErrorResponse](t, rec).Code)
}

func TestStartDiff_YAMLString(t *testing.T) {
	s := newTestServer(t, testConfig())
	body := `{"left":"ItemId: sword\nDisplayName: Sword\n","right":{"ItemId":"sword"}}`
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/diff", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[core.DiffSessionInfo](t, rec).Differing)
}

func TestStartDiff_BadRequests(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"not json", `{`, ""},
		{"missing right", `{"left":{"ItemId":"a"}}`, ""},
		{"unparseable side", `{"left":"[1,2","right":{}}`, "DIFF001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/diff", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rec).Code)
			}
		})
	}
}

func TestChooseAll_InvalidSide(t *testing.T) {
	s := newTestServer(t, testConfig())
	info := startDiff(t, s)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/diff/"+info.ID+"/all/middle", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DIFF004", decode[ErrorResponse](t, rec).Code)

	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/api/diff/"+info.ID+"/all/left", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	for _, row := range decode[core.DiffSessionInfo](t, rec).Rows {
		assert.Equal(t, diff.Left, row.Choice)
	}
}

func TestApplyChoices(t *testing.T) {
	s := newTestServer(t, testConfig())
	info := startDiff(t, s)

	report := "field,left,right,different,choice\nItemClass,,Weapon,true,left\n"
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/diff/"+info.ID+"/choices", strings.NewReader(report)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[applyChoicesResponse](t, rec)
	assert.Equal(t, 1, res.Applied)

	report = "field,left,right,different,choice\nPrice,,,true,left\n"
	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/api/diff/"+info.ID+"/choices", strings.NewReader(report)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DIFF003", decode[ErrorResponse](t, rec).Code)
}

func TestCancelDiff(t *testing.T) {
	s := newTestServer(t, testConfig())
	info := startDiff(t, s)

	rec := do(t, s, httptest.NewRequest(http.MethodDelete, "/api/diff/"+info.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/diff/"+info.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDiffPage(t *testing.T) {
	s := newTestServer(t, testConfig())
	info := startDiff(t, s)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/diff/"+info.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	page := rec.Body.String()
	assert.Contains(t, page, "2 of 3 fields differ")
	assert.Contains(t, page, "Iron &lt;Sword&gt;")
	assert.NotContains(t, page, "<Sword>")

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/diff/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "DIFF002")
}

func TestImportCSV_NoFile(t *testing.T) {
	s := newTestServer(t, testConfig())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(t, s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE004", decode[ErrorResponse](t, rec).Code)
}

func TestImportJSON_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Import.MaxFileSize = 16
	s := newTestServer(t, cfg)

	body := `[{"ItemId":"a_rather_long_item_id"}]`
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/import/json", strings.NewReader(body)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decode[ErrorResponse](t, rec).Code)
}

func TestPush_NotConfigured(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/push", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "PF002", decode[ErrorResponse](t, rec).Code)
}

func TestListItems_InvalidKind(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/items?kind=weapon", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ITEM002", decode[ErrorResponse](t, rec).Code)
}

func TestImportSource_InvalidID(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/imports/not-a-uuid/source", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := newTestServer(t, cfg)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/diff/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/diff/x", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = do(t, s, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDiffPage_RequiresAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/diff", strings.NewReader(`{"left":{"ItemId":"a"},"right":{"ItemId":"b"}}`))
	req.Header.Set("X-API-Key", "secret")
	rec := do(t, s, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	info := decode[core.DiffSessionInfo](t, rec)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/diff/"+info.ID, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), `<td>ItemId</td>`)

	req = httptest.NewRequest(http.MethodGet, "/diff/"+info.ID, nil)
	req.Header.Set("X-API-Key", "secret")
	rec = do(t, s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<td>ItemId</td>`)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, ImportLimit: 1}
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_WindowReset(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     1,
		window:   time.Minute,
		now:      func() time.Time { return now },
	}

	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("5.6.7.8"))

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.allow("1.2.3.4"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     5,
		window:   time.Minute,
		now:      func() time.Time { return now },
	}
	rl.allow("1.2.3.4")
	now = now.Add(90 * time.Second)
	rl.allow("5.6.7.8")

	now = now.Add(45 * time.Second)
	rl.sweep()
	assert.NotContains(t, rl.visitors, "1.2.3.4")
	assert.Contains(t, rl.visitors, "5.6.7.8")
}

func TestShutdown_StopsRateLimiters(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 10, ImportLimit: 1}
	svc := core.NewService(nil, nil, core.Options{SessionTTL: time.Minute, MaxSessions: 10})
	s := NewServer(svc, cfg)
	require.Len(t, s.limiters, 2)

	require.NoError(t, s.Shutdown(context.Background()))
	require.NoError(t, s.Shutdown(context.Background()))

	for _, rl := range s.limiters {
		select {
		case <-rl.stopped:
		case <-time.After(time.Second):
			t.Fatal("rate limiter cleanup goroutine still running")
		}
	}
}
