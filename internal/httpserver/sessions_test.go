package httpserver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"storefront/internal/repository/slot"
)

func TestIdleSessionsAreEvicted(t *testing.T) {
	env := newTestEnvWithConfig(t, seedUpstream(5), slot.NewMemory(), SessionConfig{IdleTimeout: 10 * time.Minute})
	active := env.openSession(t)
	idle := env.openSession(t)
	expectStatus(t, env.do(t, http.MethodPost, "/sessions/"+active+"/cart/items", `{"productId":1,"selectedColor":"Blue","selectedSize":"M"}`), http.StatusCreated)

	env.clock.Advance(4 * time.Minute)
	expectStatus(t, env.do(t, http.MethodGet, "/sessions/"+active+"/cart", ""), http.StatusOK)
	env.clock.Advance(6 * time.Minute)

	expectStatus(t, env.do(t, http.MethodGet, "/sessions/"+idle+"/cart", ""), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodGet, "/sessions/"+active+"/cart", ""), http.StatusOK)
	if env.sessions.Len() != 1 {
		t.Fatalf("expected one session left, got %d", env.sessions.Len())
	}

	env.clock.Advance(15 * time.Minute)
	if env.sessions.Len() != 0 {
		t.Fatalf("expected every session evicted, got %d", env.sessions.Len())
	}

	rec := env.do(t, http.MethodPost, "/sessions", `{"sessionId":"`+active+`"}`)
	expectStatus(t, rec, http.StatusCreated)
	var cart cartBody
	decode(t, env.do(t, http.MethodGet, "/sessions/"+active+"/cart", ""), &cart)
	if len(cart.Items) != 1 {
		t.Fatalf("expected the stored cart back after eviction, got %+v", cart)
	}
}

func TestSessionLimit(t *testing.T) {
	env := newTestEnvWithConfig(t, seedUpstream(5), slot.NewMemory(), SessionConfig{MaxSessions: 2})
	first := env.openSession(t)
	env.openSession(t)

	rec := env.do(t, http.MethodPost, "/sessions", "")
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if code := errorCode(t, rec); code != "session_limit" {
		t.Fatalf("unexpected code %s", code)
	}

	expectStatus(t, env.do(t, http.MethodPost, "/sessions", `{"sessionId":"`+first+`"}`), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodDelete, "/sessions/"+first, ""), http.StatusNoContent)
	env.openSession(t)
}

func TestOpenSessionWithCorruptSlots(t *testing.T) {
	repo := slot.NewMemory()
	id := "5b0f6f5e-8d5c-4a43-9a4e-1c1f7e0c2a11"
	ctx := context.Background()
	if err := repo.Save(ctx, id+":auth-storage", []byte(`{"state":`)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, id+":cart_guest", []byte(`garbage`)); err != nil {
		t.Fatal(err)
	}
	env := newTestEnvWithConfig(t, seedUpstream(5), repo, SessionConfig{})

	expectStatus(t, env.do(t, http.MethodPost, "/sessions", `{"sessionId":"`+id+`"}`), http.StatusCreated)
	var cart cartBody
	decode(t, env.do(t, http.MethodGet, "/sessions/"+id+"/cart", ""), &cart)
	if !cart.Loaded || len(cart.Items) != 0 {
		t.Fatalf("expected an empty loaded cart, got %+v", cart)
	}
	expectStatus(t, env.do(t, http.MethodPost, "/sessions/"+id+"/cart/items", `{"productId":1}`), http.StatusCreated)
}
