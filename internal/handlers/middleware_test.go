package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

func authedRequest(t *testing.T, secret string) *http.Request {
	t.Helper()

	token, err := SignToken(secret, 42, "alice", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/mine", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRequireAuth(t *testing.T) {
	mw := NewMiddleware("test-secret")

	var got *AuthUser
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		got = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, "test-secret"), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got == nil || got.UserID != 42 || got.Username != "alice" {
		t.Errorf("user = %+v", got)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	mw := NewMiddleware("test-secret")

	handler := mw.RequireAuth(func(http.ResponseWriter, *http.Request, httprouter.Params) {
		t.Error("handler must not run")
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/mine", nil), nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, authedRequest(t, "other-secret"), nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := SignToken("test-secret", 42, "alice", -time.Minute)
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/rooms/mine", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rec := httptest.NewRecorder()
		handler(rec, req, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestRequireAuthQueryParamFallback(t *testing.T) {
	mw := NewMiddleware("test-secret")

	called := false
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
	})

	token, err := SignToken("test-secret", 7, "bob", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/ws/rooms/1?token="+token, nil), nil)

	if !called {
		t.Errorf("handler not reached, status = %d", rec.Code)
	}
}
