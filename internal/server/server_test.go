package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"hourcast/internal/config"
	"hourcast/internal/db"
	"hourcast/internal/engine"
	"hourcast/internal/engine/auth"
	"hourcast/internal/migrate"
	"hourcast/internal/server"
)

const (
	testSecret = "test-secret"
	testTenant = "tenant-1"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := migrate.Apply(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	svc := auth.Service{DB: conn}
	if err := svc.EnsureActor(ctx, "admin", "Admin"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if err := svc.AssignRole(ctx, "admin", "admin"); err != nil {
		t.Fatalf("assign admin: %v", err)
	}
	if err := svc.EnsureActor(ctx, "nobody", "Nobody"); err != nil {
		t.Fatalf("ensure nobody: %v", err)
	}
	e := engine.New(conn, config.Default(testTenant), zerolog.Nop())
	handler, err := server.New(server.Config{
		Engine: e,
		Auth: server.AuthConfig{
			JWTSecret:              testSecret,
			AllowLegacyActorHeader: true,
			Logger:                 zerolog.Nop(),
		},
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func mintToken(t *testing.T, actorID, tenantID string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": actorID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if tenantID != "" {
		claims["tenant_id"] = tenantID
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, method, url string, headers map[string]string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func adminHeaders() map[string]string {
	return map[string]string{"X-Actor-Id": "admin"}
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	env, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %v", body)
	}
	code, _ := env["code"].(string)
	return code
}

func TestHealthzIsOpen(t *testing.T) {
	ts := newTestServer(t)
	status, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/healthz", nil, nil)
	if status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz: %d %v", status, body)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	status, _ := doJSON(t, http.MethodGet, ts.URL+"/api/v1/forecast-versions", nil, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/forecast-versions", map[string]string{
		"Authorization": "Bearer not-a-token",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", status)
	}
}

func TestJWTAuth(t *testing.T) {
	ts := newTestServer(t)
	headers := map[string]string{"Authorization": "Bearer " + mintToken(t, "admin", testTenant)}
	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecast-versions", headers, map[string]any{
		"name": "Q3 plan",
	})
	if status != http.StatusCreated {
		t.Fatalf("create version: %d %v", status, body)
	}
	// a mismatched tenant claim is rejected
	badTenant := map[string]string{"Authorization": "Bearer " + mintToken(t, "admin", "other-tenant")}
	status, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/forecast-versions", badTenant, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for tenant mismatch, got %d %v", status, body)
	}
}

func TestPermissionDenied(t *testing.T) {
	ts := newTestServer(t)
	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecast-versions", map[string]string{
		"X-Actor-Id": "nobody",
	}, map[string]any{"name": "sneaky"})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d %v", status, body)
	}
	if code := errorCode(t, body); code != "forbidden" {
		t.Fatalf("expected forbidden code, got %q", code)
	}
}

func TestVersionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	h := adminHeaders()

	status, current := doJSON(t, http.MethodGet, ts.URL+"/api/v1/forecast-versions/current", h, nil)
	if status != http.StatusOK || current["is_current"] != true {
		t.Fatalf("current: %d %v", status, current)
	}

	status, v := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecast-versions", h, map[string]any{
		"name": "what-if",
	})
	if status != http.StatusCreated || v["type"] != "what_if" {
		t.Fatalf("create: %d %v", status, v)
	}
	id := v["id"].(string)

	status, promoted := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecast-versions/"+id+"/promote", h, nil)
	if status != http.StatusOK || promoted["is_current"] != true {
		t.Fatalf("promote: %d %v", status, promoted)
	}

	// the demoted version can be archived
	oldID := current["id"].(string)
	status, archived := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecast-versions/"+oldID+"/archive", h, map[string]any{
		"reason": "superseded",
	})
	if status != http.StatusOK || archived["type"] != "historical" {
		t.Fatalf("archive: %d %v", status, archived)
	}

	// archiving the current version is an invalid state
	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecast-versions/"+id+"/archive", h, map[string]any{})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %v", status, body)
	}
	if code := errorCode(t, body); code != "invalid_state" {
		t.Fatalf("expected invalid_state, got %q", code)
	}

	status, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/forecast-versions/does-not-exist", h, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d %v", status, body)
	}
	if code := errorCode(t, body); code != "not_found" {
		t.Fatalf("expected not_found, got %q", code)
	}
}

func TestForecastWorkflow(t *testing.T) {
	ts := newTestServer(t)
	h := adminHeaders()

	_, v := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecast-versions", h, map[string]any{"name": "plan"})
	versionID := v["id"].(string)

	status, f := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecasts", h, map[string]any{
		"version_id":       versionID,
		"assignment_id":    "asmt-1",
		"year":             2025,
		"month":            7,
		"forecasted_hours": 40,
	})
	if status != http.StatusCreated || f["status"] != "draft" {
		t.Fatalf("create forecast: %d %v", status, f)
	}
	id := f["id"].(string)
	if f["forecasted_hours"] != "40" {
		t.Fatalf("hours should serialize as decimal string, got %v", f["forecasted_hours"])
	}

	// duplicate tuple conflicts
	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecasts", h, map[string]any{
		"version_id":       versionID,
		"assignment_id":    "asmt-1",
		"year":             2025,
		"month":            7,
		"forecasted_hours": 10,
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d %v", status, body)
	}
	if code := errorCode(t, body); code != "duplicate_entry" {
		t.Fatalf("expected duplicate_entry, got %q", code)
	}

	status, f = doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecasts/"+id+"/submit", h, nil)
	if status != http.StatusOK || f["status"] != "submitted" {
		t.Fatalf("submit: %d %v", status, f)
	}
	status, f = doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecasts/"+id+"/approve", h, map[string]any{"comment": "ok"})
	if status != http.StatusOK || f["status"] != "approved" {
		t.Fatalf("approve: %d %v", status, f)
	}

	// normal edits are now rejected
	status, body = doJSON(t, http.MethodPatch, ts.URL+"/api/v1/forecasts/"+id, h, map[string]any{
		"forecasted_hours": 10,
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %v", status, body)
	}

	status, f = doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecasts/"+id+"/override", h, map[string]any{
		"forecasted_hours": 32,
		"comment":          "budget cut",
	})
	if status != http.StatusOK {
		t.Fatalf("override: %d %v", status, f)
	}
	if f["original_forecasted_hours"] != "40" || f["status"] != "approved" {
		t.Fatalf("override should preserve original and status, got %v", f)
	}

	status, hist := doJSON(t, http.MethodGet, ts.URL+"/api/v1/forecasts/"+id+"/history", h, nil)
	if status != http.StatusOK {
		t.Fatalf("history: %d %v", status, hist)
	}
}

func TestForecastListPagination(t *testing.T) {
	ts := newTestServer(t)
	h := adminHeaders()

	_, v := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecast-versions", h, map[string]any{"name": "plan"})
	versionID := v["id"].(string)
	for i := 1; i <= 3; i++ {
		status, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecasts", h, map[string]any{
			"version_id":       versionID,
			"assignment_id":    fmt.Sprintf("asmt-%d", i),
			"year":             2025,
			"month":            7,
			"forecasted_hours": 10 * i,
		})
		if status != http.StatusCreated {
			t.Fatalf("seed forecast %d: %d %v", i, status, body)
		}
	}

	url := ts.URL + "/api/v1/forecasts?version_id=" + versionID + "&limit=2"
	status, page := doJSON(t, http.MethodGet, url, h, nil)
	if status != http.StatusOK {
		t.Fatalf("list: %d %v", status, page)
	}
	items := page["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	cursor, _ := page["next_cursor"].(string)
	if cursor == "" {
		t.Fatalf("expected next cursor, got %v", page)
	}
	status, page = doJSON(t, http.MethodGet, url+"&cursor="+cursor, h, nil)
	if status != http.StatusOK {
		t.Fatalf("second page: %d %v", status, page)
	}
	items = page["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 item on second page, got %d", len(items))
	}
	if _, ok := page["next_cursor"].(string); ok && page["next_cursor"] != "" {
		t.Fatalf("expected no cursor on last page, got %v", page["next_cursor"])
	}
}

func TestBulkAndLockMonth(t *testing.T) {
	ts := newTestServer(t)
	h := adminHeaders()

	_, v := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecast-versions", h, map[string]any{"name": "plan"})
	versionID := v["id"].(string)

	status, res := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecasts/bulk", h, map[string]any{
		"version_id": versionID,
		"items": []map[string]any{
			{"assignment_id": "asmt-1", "year": 2025, "month": 7, "forecasted_hours": 40},
			{"assignment_id": "asmt-2", "year": 2025, "month": 7, "forecasted_hours": 20},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("bulk: %d %v", status, res)
	}
	if res["created_count"] != float64(2) {
		t.Fatalf("expected 2 created, got %v", res)
	}

	// replaying without update_existing leaves the rows alone
	status, res = doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecasts/bulk", h, map[string]any{
		"version_id": versionID,
		"items": []map[string]any{
			{"assignment_id": "asmt-1", "year": 2025, "month": 7, "forecasted_hours": 99},
			{"assignment_id": "asmt-2", "year": 2025, "month": 7, "forecasted_hours": 99},
		},
	})
	if status != http.StatusOK || res["skipped_count"] != float64(2) {
		t.Fatalf("expected 2 skipped on replay, got %d %v", status, res)
	}

	status, lock := doJSON(t, http.MethodPost, ts.URL+"/api/v1/forecasts/lock-month", h, map[string]any{
		"version_id": versionID,
		"year":       2025,
		"month":      7,
		"reason":     "month closed",
	})
	if status != http.StatusOK {
		t.Fatalf("lock-month: %d %v", status, lock)
	}
	if lock["locked_count"] != float64(2) {
		t.Fatalf("expected 2 locked, got %v", lock)
	}

	status, sum := doJSON(t, http.MethodGet, ts.URL+"/api/v1/forecasts/summary?version_id="+versionID, h, nil)
	if status != http.StatusOK {
		t.Fatalf("summary: %d %v", status, sum)
	}
	if sum["locked_count"] != float64(2) || sum["approved_hours"] != "60" {
		t.Fatalf("unexpected summary %v", sum)
	}
}

func TestOpenAPIAndDocs(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/openapi.json")
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("openapi status %d", resp.StatusCode)
	}
	var spec map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&spec); err != nil {
		t.Fatalf("decode spec: %v", err)
	}
	if _, ok := spec["paths"].(map[string]any); !ok {
		t.Fatalf("expected paths in spec")
	}

	docs, err := http.Get(ts.URL + "/docs")
	if err != nil {
		t.Fatalf("docs: %v", err)
	}
	docs.Body.Close()
	if docs.StatusCode != http.StatusOK {
		t.Fatalf("docs status %d", docs.StatusCode)
	}
}
