package authz

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/rajesharora27/dap-sub001/internal/shared"
)

func newTestRouter(t *testing.T, store *stubStore, caller *shared.Caller) http.Handler {
	t.Helper()
	svc := NewService(store, Policy{})
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, nil)

	r := chi.NewRouter()
	if caller != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(shared.ContextWithCaller(req.Context(), caller)))
			})
		})
	}
	r.Route("/api/authz", handler.MountRoutes)
	return r
}

func TestHandlerCheck(t *testing.T) {
	store := newStubStore()
	store.addUser("u1", true, false, "USER")
	store.addDirect("u1", ResourceProduct, "p1", LevelWrite)
	router := newTestRouter(t, store, &shared.Caller{UserID: "u1"})

	body := `{"resourceType":"PRODUCT","resourceId":"p1","level":"WRITE"}`
	req := httptest.NewRequest(http.MethodPost, "/api/authz/check", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Allowed bool `json:"allowed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Allowed {
		t.Fatalf("expected allowed=true")
	}
}

func TestHandlerCheckWithoutCallerDenies(t *testing.T) {
	router := newTestRouter(t, newStubStore(), nil)

	body := `{"resourceType":"PRODUCT","resourceId":"p1","level":"READ"}`
	req := httptest.NewRequest(http.MethodPost, "/api/authz/check", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Allowed bool `json:"allowed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Allowed {
		t.Fatalf("anonymous check must report allowed=false")
	}
}

func TestHandlerCheckRejectsUnknownLevel(t *testing.T) {
	router := newTestRouter(t, newStubStore(), &shared.Caller{UserID: "u1"})

	body := `{"resourceType":"PRODUCT","resourceId":"p1","level":"OWNER"}`
	req := httptest.NewRequest(http.MethodPost, "/api/authz/check", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerCheckBatch(t *testing.T) {
	store := newStubStore()
	store.addUser("u1", true, false, "USER")
	store.addDirect("u1", ResourceProduct, "p1", LevelRead)
	router := newTestRouter(t, store, &shared.Caller{UserID: "u1"})

	body := `{"resourceType":"PRODUCT","resourceIds":["p1","p2"],"level":"READ"}`
	req := httptest.NewRequest(http.MethodPost, "/api/authz/check-batch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Results map[string]bool `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Results["p1"] || resp.Results["p2"] {
		t.Fatalf("unexpected results: %v", resp.Results)
	}
}

func TestHandlerCheckBatchRequiresCaller(t *testing.T) {
	router := newTestRouter(t, newStubStore(), nil)

	body := `{"resourceType":"PRODUCT","resourceIds":["p1"],"level":"READ"}`
	req := httptest.NewRequest(http.MethodPost, "/api/authz/check-batch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandlerAccessible(t *testing.T) {
	store := newStubStore()
	store.addUser("u1", true, false, "USER")
	store.addDirect("u1", ResourceProduct, "p7", LevelRead)
	router := newTestRouter(t, store, &shared.Caller{UserID: "u1"})

	req := httptest.NewRequest(http.MethodGet, "/api/authz/accessible?resourceType=PRODUCT&level=READ", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		All bool     `json:"all"`
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.All || len(resp.IDs) != 1 || resp.IDs[0] != "p7" {
		t.Fatalf("unexpected set: %+v", resp)
	}
}

func TestHandlerAccessibleAdminGetsAll(t *testing.T) {
	store := newStubStore()
	store.addUser("root", true, true, "USER")
	router := newTestRouter(t, store, &shared.Caller{UserID: "root"})

	req := httptest.NewRequest(http.MethodGet, "/api/authz/accessible?resourceType=SOLUTION&level=ADMIN", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		All bool     `json:"all"`
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.All {
		t.Fatalf("expected all=true")
	}
	if resp.IDs == nil {
		t.Fatalf("ids must serialize as an empty array, not null")
	}
}

func TestHandlerAccessibleRejectsUnknownType(t *testing.T) {
	router := newTestRouter(t, newStubStore(), &shared.Caller{UserID: "u1"})

	req := httptest.NewRequest(http.MethodGet, "/api/authz/accessible?resourceType=SYSTEM", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerLevel(t *testing.T) {
	store := newStubStore()
	store.addUser("u1", true, false, "USER")
	store.addDirect("u1", ResourceProduct, "p1", LevelWrite)
	router := newTestRouter(t, store, &shared.Caller{UserID: "u1"})

	req := httptest.NewRequest(http.MethodGet, "/api/authz/level?resourceType=PRODUCT&resourceId=p1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Level *string `json:"level"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Level == nil || *resp.Level != "WRITE" {
		t.Fatalf("level = %v, want WRITE", resp.Level)
	}
}

func TestHandlerLevelNoneIsNull(t *testing.T) {
	store := newStubStore()
	store.addUser("u1", true, false, "USER")
	router := newTestRouter(t, store, &shared.Caller{UserID: "u1"})

	req := httptest.NewRequest(http.MethodGet, "/api/authz/level?resourceType=CUSTOMER&resourceId=c1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Level *string `json:"level"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Level != nil {
		t.Fatalf("expected null level, got %q", *resp.Level)
	}
}
