package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"storefront/internal/catalog"
	"storefront/internal/clock"
	"storefront/internal/domain"
	"storefront/internal/repository/slot"
	"storefront/internal/search"
	"storefront/internal/service/auth"
)

type fakeUpstream struct {
	products   []catalog.RawProduct
	categories []string
	err        error
}

func (f *fakeUpstream) Products(context.Context) ([]catalog.RawProduct, error) {
	return f.products, f.err
}

func (f *fakeUpstream) ProductsInCategory(_ context.Context, category string) ([]catalog.RawProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []catalog.RawProduct{}
	for _, p := range f.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeUpstream) Product(_ context.Context, id int) (*catalog.RawProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUpstream) Categories(context.Context) ([]string, error) {
	return f.categories, f.err
}

func seedUpstream(n int) *fakeUpstream {
	up := &fakeUpstream{categories: []string{"electronics", "jewelery", "men's clothing", "women's clothing"}}
	up.products = append(up.products,
		catalog.RawProduct{ID: 1, Title: "Blue Shirt", Price: 20, Category: "men's clothing"},
		catalog.RawProduct{ID: 2, Title: "Gold Ring", Price: 150, Category: "jewelery"},
	)
	for id := 3; id <= n; id++ {
		up.products = append(up.products, catalog.RawProduct{ID: id, Title: "Gadget", Price: float64(id), Category: "electronics"})
	}
	return up
}

type testEnv struct {
	router   *gin.Engine
	sessions *SessionManager
	clock    *clock.Manual
	upstream *fakeUpstream
	repo     slot.Repository
}

func newTestEnv(t *testing.T, up *fakeUpstream) *testEnv {
	t.Helper()
	return newTestEnvWithRepo(t, up, slot.NewMemory())
}

func newTestEnvWithRepo(t *testing.T, up *fakeUpstream, repo slot.Repository) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, up, repo, SessionConfig{})
}

func newTestEnvWithConfig(t *testing.T, up *fakeUpstream, repo slot.Repository, cfg SessionConfig) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	gateway := catalog.NewGateway(up)
	backend := auth.NewMockBackend(auth.DefaultBackendConfig, clk, zerolog.Nop())
	sessions := NewSessionManager(repo, backend, clk, cfg, zerolog.Nop())
	t.Cleanup(sessions.CloseAll)

	router, err := buildRouter(zerolog.Nop(), Deps{
		Catalog:     gateway,
		Suggestions: search.NewEngine(gateway),
		Sessions:    sessions,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &testEnv{router: router, sessions: sessions, clock: clk, upstream: up, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) openSession(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		SessionID string `json:"sessionId"`
	}
	decode(t, rec, &out)
	return out.SessionID
}

func (e *testEnv) login(t *testing.T, sessionID, identifier string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/sessions/"+sessionID+"/auth/otp", `{"identifier":"`+identifier+`"}`)
	expectStatus(t, rec, http.StatusOK)
	rec = e.do(t, http.MethodPost, "/sessions/"+sessionID+"/auth/otp/verify", `{"otp":"123456"}`)
	expectStatus(t, rec, http.StatusOK)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d body=%s", want, rec.Code, rec.Body.String())
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error errorBody `json:"error"`
	}
	decode(t, rec, &out)
	return out.Error.Code
}
