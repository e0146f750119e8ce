package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ddanilov/poisk/internal/model"
)

func testBox() model.BoundingBox {
	return model.BoundingBox{South: 55.0, West: 37.0, North: 56.0, East: 38.0}
}

func TestFetch_SubstitutesBoundingBox(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		req.ParseForm()
		gotQuery = req.PostForm.Get("data")
		w.Write([]byte(`{"elements":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "poisk-test/1.0", 5*time.Second)
	tpl := model.CategoryTemplate{Code: "museum", Label: "Музеи",
		Query: `node["tourism"="museum"]({{bbox}});out;`}

	if _, err := c.Fetch(context.Background(), tpl, testBox()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !strings.Contains(gotQuery, "55.000000,37.000000,56.000000,38.000000") {
		t.Errorf("Expected bbox substitution in query, got %q", gotQuery)
	}
	if strings.Contains(gotQuery, "{{bbox}}") {
		t.Error("Expected placeholder to be fully substituted")
	}
}

func TestFetch_MapsElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"elements":[
			{"type":"node","id":101,"lat":55.5,"lon":37.5,
			 "tags":{"name":"Water Museum","name:ru":"Музей Воды",
			         "addr:street":"Саринский проезд","addr:housenumber":"13",
			         "addr:city":"Москва"}},
			{"type":"way","id":202,"center":{"lat":55.6,"lon":37.6},
			 "tags":{"name":"Old Factory"}},
			{"type":"node","id":303,"lat":55.7,"lon":37.7,"tags":{}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "poisk-test/1.0", 5*time.Second)
	tpl := model.CategoryTemplate{Code: "museum", Label: "Музеи", Query: `({{bbox}});out;`}

	candidates, err := c.Fetch(context.Background(), tpl, testBox())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(candidates))
	}

	node := candidates[0]
	if node.ExternalID != "node/101" {
		t.Errorf("Unexpected external id: %s", node.ExternalID)
	}
	if node.Name != "Музей Воды" {
		t.Errorf("Expected localized name preferred, got %q", node.Name)
	}
	if node.Coords == nil || node.Coords.Lat != 55.5 || node.Coords.Lng != 37.5 {
		t.Errorf("Unexpected node coords: %+v", node.Coords)
	}
	if node.Address != "Саринский проезд, 13, Москва" {
		t.Errorf("Unexpected address: %q", node.Address)
	}
	if node.Category != "museum" {
		t.Errorf("Expected derived category, got %q", node.Category)
	}

	way := candidates[1]
	if way.Name != "Old Factory" {
		t.Errorf("Expected fallback to default-language name, got %q", way.Name)
	}
	if way.Coords == nil || way.Coords.Lat != 55.6 {
		t.Errorf("Expected centroid coords for way, got %+v", way.Coords)
	}

	unnamed := candidates[2]
	if unnamed.Name != "" {
		t.Errorf("Expected empty name, never a placeholder, got %q", unnamed.Name)
	}
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "poisk-test/1.0", 5*time.Second)
	tpl := model.CategoryTemplate{Code: "museum", Label: "Музеи", Query: `({{bbox}});out;`}

	candidates, err := c.Fetch(context.Background(), tpl, testBox())
	if err == nil {
		t.Error("Expected error for non-200 status")
	}
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates on failure, got %d", len(candidates))
	}
}

func TestValidateCategories_DefaultSet(t *testing.T) {
	if err := ValidateCategories(DefaultCategories()); err != nil {
		t.Errorf("Expected built-in set to validate, got %v", err)
	}

	tests := []struct {
		name string
		cats []model.CategoryTemplate
	}{
		{"empty set", nil},
		{"missing code", []model.CategoryTemplate{{Label: "x", Query: "({{bbox}})"}}},
		{"missing label", []model.CategoryTemplate{{Code: "x", Query: "({{bbox}})"}}},
		{"missing placeholder", []model.CategoryTemplate{{Code: "x", Label: "x", Query: "static"}}},
		{"duplicate code", []model.CategoryTemplate{
			{Code: "x", Label: "x", Query: "({{bbox}})"},
			{Code: "x", Label: "y", Query: "({{bbox}})"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateCategories(tt.cats); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadCategories_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	doc := `categories:
  - code: fountain
    label: Фонтаны
    query: 'node["amenity"="fountain"]({{bbox}});out;'
    kinds: [fountain]
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cats, err := LoadCategories(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(cats) != 1 || cats[0].Code != "fountain" || cats[0].Label != "Фонтаны" {
		t.Errorf("Unexpected categories: %+v", cats)
	}
}

func TestLoadCategories_InvalidFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	if err := os.WriteFile(path, []byte("categories:\n  - code: broken\n    label: x\n    query: no-placeholder\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCategories(path); err == nil {
		t.Error("Expected validation error for query without placeholder")
	}
}

func TestLoadCategories_EmptyPathUsesBuiltin(t *testing.T) {
	cats, err := LoadCategories("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(cats) == 0 {
		t.Error("Expected built-in categories")
	}
}
