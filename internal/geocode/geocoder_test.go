package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolve_FirstResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if key := req.URL.Query().Get("key"); key != "key-b" {
			t.Errorf("Expected first non-empty credential, got %q", key)
		}
		w.Write([]byte(`[{"lat":"55.7558","lon":"37.6173"},{"lat":"0","lon":"0"}]`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL, "poisk-test/1.0", []string{"", "key-b", "key-c"},
		time.Millisecond, 5*time.Second)

	coords, err := g.Resolve(context.Background(), "Москва, Тверская 1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if coords == nil || coords.Lat != 55.7558 || coords.Lng != 37.6173 {
		t.Errorf("Unexpected coordinates: %+v", coords)
	}
}

func TestResolve_MissingCredential(t *testing.T) {
	g := NewGeocoder("http://unused", "poisk-test/1.0", nil, time.Millisecond, time.Second)

	_, err := g.Resolve(context.Background(), "Москва")
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("Expected ErrMissingCredential, got %v", err)
	}
}

func TestResolve_NotFoundIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL, "poisk-test/1.0", []string{"k"}, time.Millisecond, time.Second)

	coords, err := g.Resolve(context.Background(), "несуществующий адрес")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if coords != nil {
		t.Errorf("Expected nil for empty result, got %+v", coords)
	}
}

func TestResolve_ServerErrorIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL, "poisk-test/1.0", []string{"k"}, time.Millisecond, time.Second)

	coords, err := g.Resolve(context.Background(), "Москва")
	if err != nil {
		t.Fatalf("Expected non-success to degrade to nil, got error %v", err)
	}
	if coords != nil {
		t.Errorf("Expected nil on server error, got %+v", coords)
	}
}

func TestResolve_EmptyAddress(t *testing.T) {
	g := NewGeocoder("http://unused", "poisk-test/1.0", []string{"k"}, time.Millisecond, time.Second)

	coords, err := g.Resolve(context.Background(), "")
	if err != nil || coords != nil {
		t.Errorf("Expected nil/nil for empty address, got %+v / %v", coords, err)
	}
}

func TestResolve_PacesCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"lat":"55.0","lon":"37.0"}]`))
	}))
	defer srv.Close()

	delay := 50 * time.Millisecond

	start := time.Now()
	g := NewGeocoder(srv.URL, "poisk-test/1.0", []string{"k"}, delay, time.Second)
	for i := 0; i < 3; i++ {
		if _, err := g.Resolve(context.Background(), "Москва"); err != nil {
			t.Fatal(err)
		}
	}
	// Every call waits out the delay, the first one included.
	if elapsed := time.Since(start); elapsed < 3*delay {
		t.Errorf("Expected at least %v of pacing, got %v", 3*delay, elapsed)
	}
}

func TestResolve_FirstCallPaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"lat":"55.0","lon":"37.0"}]`))
	}))
	defer srv.Close()

	delay := 50 * time.Millisecond

	start := time.Now()
	g := NewGeocoder(srv.URL, "poisk-test/1.0", []string{"k"}, delay, time.Second)
	if _, err := g.Resolve(context.Background(), "Москва"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < delay {
		t.Errorf("Expected the first call to wait %v, got %v", delay, elapsed)
	}
}
