package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func writeFile(t *testing.T, path, content string) error {
	t.Helper()
	return os.WriteFile(path, []byte(content), 0o600)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	session, err := NewFileSession(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return New(srv.URL, session), srv
}

func TestFileSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewFileSession(path)
	if err != nil {
		t.Fatalf("NewFileSession: %v", err)
	}
	if err := s.Set(keyUser, "alice@example.com"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(keyToken, "jwt-token"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh store over the same file sees the persisted values.
	reloaded, err := NewFileSession(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if v, ok := reloaded.Get(keyUser); !ok || v != "alice@example.com" {
		t.Errorf("user = %q, %v", v, ok)
	}
	if v, ok := reloaded.Get(keyToken); !ok || v != "jwt-token" {
		t.Errorf("token = %q, %v", v, ok)
	}

	if err := reloaded.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	cleared, err := NewFileSession(path)
	if err != nil {
		t.Fatalf("reload after clear: %v", err)
	}
	if _, ok := cleared.Get(keyToken); ok {
		t.Error("token survived Clear")
	}
}

func TestVerifyOTPStoresSessionAndSendsBearer(t *testing.T) {
	var sawAuth atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Login successful",
			"user":    map[string]string{"email": "alice@example.com", "role": "client"},
			"token":   "access-jwt",
		})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		sawAuth.Store(r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"email": "alice@example.com", "role": "client"})
	})
	c, srv := newTestClient(t, mux)
	defer srv.Close()

	s, err := c.VerifyOTP(context.Background(), "alice@example.com", "123456")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if s.User.Role != "client" {
		t.Errorf("role = %q", s.User.Role)
	}
	if email, ok := c.CurrentUser(); !ok || email != "alice@example.com" {
		t.Errorf("CurrentUser = %q, %v", email, ok)
	}

	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if got := sawAuth.Load(); got != "Bearer access-jwt" {
		t.Errorf("Authorization = %v", got)
	}
}

func TestProjectsServedFromCacheOnTransportError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{"id": 1, "title": "Alpha Audit"}})
	})
	c, srv := newTestClient(t, mux)

	first, err := c.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if len(first) != 1 || first[0].Title != "Alpha Audit" {
		t.Fatalf("unexpected listing: %+v", first)
	}

	// Server gone: the last good listing is returned instead of an error.
	srv.Close()
	cached, err := c.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects after close: %v", err)
	}
	if len(cached) != 1 || cached[0].Title != "Alpha Audit" {
		t.Errorf("cache not served: %+v", cached)
	}
}

func TestProjectsTransportErrorWithoutCache(t *testing.T) {
	session, err := NewFileSession(filepath.Join(t.TempDir(), "s.json"))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	c := New("http://127.0.0.1:1", session) // nothing listens here

	_, err = c.Projects(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("want TransportError, got %v", err)
	}
}

func TestServerRejectionIsNotServedFromCache(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			json.NewEncoder(w).Encode([]map[string]any{{"id": 1, "title": "Alpha Audit"}})
			return
		}
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "forbidden"})
	})
	c, srv := newTestClient(t, mux)
	defer srv.Close()

	if _, err := c.Projects(context.Background()); err != nil {
		t.Fatalf("Projects: %v", err)
	}

	// A real server answer, even a rejection, must win over the cache.
	_, err := c.Projects(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("want 403 APIError, got %v", err)
	}
}

func TestMutationDropsProjectCache(t *testing.T) {
	var listCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		listCalls.Add(1)
		json.NewEncoder(w).Encode([]map[string]any{{"id": 1, "title": "Alpha Audit"}})
	})
	mux.HandleFunc("/project/1/add-report", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"message": "Follow-up report added"})
	})
	c, srv := newTestClient(t, mux)
	defer srv.Close()

	if _, err := c.Projects(context.Background()); err != nil {
		t.Fatalf("Projects: %v", err)
	}

	tmp := filepath.Join(t.TempDir(), "r.pdf")
	if err := writeFile(t, tmp, "pdf bytes"); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	if err := c.AddReport(context.Background(), 1, tmp); err != nil {
		t.Fatalf("AddReport: %v", err)
	}

	if _, err := c.Projects(context.Background()); err != nil {
		t.Fatalf("Projects after mutation: %v", err)
	}
	if n := listCalls.Load(); n != 2 {
		t.Errorf("listing served %d times from server, want 2", n)
	}
}

func TestLogoutClearsSessionEvenWhenServerUnreachable(t *testing.T) {
	session, err := NewFileSession(filepath.Join(t.TempDir(), "s.json"))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	_ = session.Set(keyUser, "alice@example.com")
	_ = session.Set(keyToken, "jwt")
	c := New("http://127.0.0.1:1", session)

	if err := c.Logout(context.Background()); err == nil {
		t.Error("expected transport error from Logout")
	}
	if _, ok := c.CurrentUser(); ok {
		t.Error("session not cleared on Logout")
	}
}
