package boundary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewResolver(srv.URL, "poisk-test/1.0", t.TempDir(), 5*time.Second)
}

func TestResolve_NormalizesBoundingBox(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		if q := req.URL.Query().Get("q"); q != "Тверская область" {
			t.Errorf("Unexpected query: %q", q)
		}
		w.Write([]byte(`[{"display_name":"Тверская область, Россия",
			"boundingbox":["55.6324","58.8800","30.9521","38.3178"],
			"lat":"57.1","lon":"34.5"}]`))
	})

	box, err := r.Resolve(context.Background(), "Тверская область")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if box.South != 55.6324 || box.North != 58.88 || box.West != 30.9521 || box.East != 38.3178 {
		t.Errorf("Unexpected normalized box: %+v", box)
	}
}

func TestResolve_NotFound(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := r.Resolve(context.Background(), "Нигдеград")
	if !errors.Is(err, ErrBoundaryNotFound) {
		t.Errorf("Expected ErrBoundaryNotFound, got %v", err)
	}
}

func TestResolve_CachesIndefinitely(t *testing.T) {
	calls := 0
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls++
		w.Write([]byte(`[{"boundingbox":["55.0","56.0","37.0","38.0"]}]`))
	})

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), "Москва"); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	if calls != 1 {
		t.Errorf("Expected exactly 1 upstream call, got %d", calls)
	}
}

func TestResolve_ErrorsNotCached(t *testing.T) {
	calls := 0
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"boundingbox":["55.0","56.0","37.0","38.0"]}]`))
	})

	if _, err := r.Resolve(context.Background(), "Казань"); err == nil {
		t.Fatal("Expected error from 503")
	}
	if _, err := r.Resolve(context.Background(), "Казань"); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", calls)
	}
}

func TestResolve_MalformedBox(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"boundingbox":["55.0","oops","37.0","38.0"]}]`))
	})

	if _, err := r.Resolve(context.Background(), "Москва"); err == nil {
		t.Error("Expected error for malformed bounding box")
	}
}
