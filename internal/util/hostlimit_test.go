package util

import (
	"context"
	"testing"
)

func TestHostLimiter_New(t *testing.T) {
	l := NewHostLimiter(10, 5)
	if l.defaultBurst != 5 {
		t.Errorf("Expected burst 5, got %d", l.defaultBurst)
	}

	l2 := NewHostLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("Expected burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestHostLimiter_Wait(t *testing.T) {
	l := NewHostLimiter(100, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "https://overpass-api.de/api/interpreter"); err != nil {
		t.Errorf("Expected wait to succeed, got %v", err)
	}
	if err := l.Wait(ctx, "https://nominatim.openstreetmap.org/search"); err != nil {
		t.Errorf("Expected wait on a different host to succeed, got %v", err)
	}
}

func TestHostLimiter_PerHostIsolation(t *testing.T) {
	l := NewHostLimiter(1, 1)

	if !l.Allow("https://overpass-api.de/api/interpreter") {
		t.Error("Expected first request to pass")
	}
	if l.Allow("https://overpass-api.de/api/interpreter") {
		t.Error("Expected second request to the same host to be limited")
	}
	if !l.Allow("https://nominatim.openstreetmap.org/search") {
		t.Error("Expected a different host to be unaffected")
	}
}

func TestHostLimiter_SetHostRate(t *testing.T) {
	l := NewHostLimiter(10, 10)
	l.SetHostRate("nominatim.openstreetmap.org", 0.1, 1)

	if !l.Allow("https://nominatim.openstreetmap.org/search") {
		t.Error("Expected first request to pass")
	}
	if l.Allow("https://nominatim.openstreetmap.org/search") {
		t.Error("Expected second request to be limited by the host override")
	}
	if !l.Allow("https://overpass-api.de/api/interpreter") {
		t.Error("Expected other hosts to keep the default rate")
	}
}

func TestExtractHost(t *testing.T) {
	host, err := extractHost("https://overpass-api.de/api/interpreter")
	if err != nil {
		t.Fatalf("Expected host to parse, got %v", err)
	}
	if host != "overpass-api.de" {
		t.Errorf("Expected overpass-api.de, got %s", host)
	}

	if _, err := extractHost("::invalid"); err == nil {
		t.Error("Expected error for invalid URL")
	}
}
