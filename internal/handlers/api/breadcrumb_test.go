package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/forgecommerce/storefront/internal/breadcrumb"
	"github.com/forgecommerce/storefront/internal/handlers/api"
	"github.com/forgecommerce/storefront/internal/services/category"
)

// fakeCatalog serves fixed paths and trees keyed by slug.
type fakeCatalog struct {
	paths map[string][]string
	trees map[string][]breadcrumb.NavigationItem
	err   error
}

func (f *fakeCatalog) PathsForProduct(_ context.Context, slug string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	paths, ok := f.paths[slug]
	if !ok {
		return nil, fmt.Errorf("getting product %q: %w", slug, category.ErrNotFound)
	}
	return paths, nil
}

func (f *fakeCatalog) TreeForCategory(_ context.Context, slug string) ([]breadcrumb.NavigationItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	tree, ok := f.trees[slug]
	if !ok {
		return nil, fmt.Errorf("getting category %q: %w", slug, category.ErrNotFound)
	}
	return tree, nil
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		paths: map[string][]string{
			"trail-runner": {"/Calçados/Tênis/", "/Calçados/"},
			"orphan":       {},
		},
		trees: map[string][]breadcrumb.NavigationItem{
			"tenis": {
				{Name: "Calçados", Href: "/calcados/d"},
				{Name: "Tênis", Href: "/calcados/tenis"},
			},
		},
	}
}

func breadcrumbMux(catalog api.CatalogLookup, mode breadcrumb.Mode) *http.ServeMux {
	resolver := breadcrumb.NewResolver(mode, breadcrumb.NewMemo(16))
	h := api.NewBreadcrumbHandler(catalog, resolver, breadcrumb.RenderOptions{HomeHref: "/store"}, false, slog.Default())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

type trailResponse struct {
	Visible      bool                        `json:"visible"`
	Mode         string                      `json:"mode"`
	Home         string                      `json:"home"`
	Items        []breadcrumb.NavigationItem `json:"items"`
	Term         string                      `json:"term"`
	ShowOnMobile bool                        `json:"show_on_mobile"`
}

func getJSON(t *testing.T, mux http.Handler, target string, wantStatus int) trailResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != wantStatus {
		t.Fatalf("GET %s status: got %d, want %d (body %s)", target, rr.Code, wantStatus, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}

	var resp trailResponse
	if wantStatus == http.StatusOK {
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return resp
}

// --------------------------------------------------------------------------
// JSON
// --------------------------------------------------------------------------

func TestBreadcrumbJSON_FromQuery(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	q := url.Values{}
	q.Add("category", "/Department/Category/")
	q.Add("category", "/Department/")
	q.Set("term", "lamp")

	resp := getJSON(t, mux, "/api/v1/breadcrumb?"+q.Encode(), http.StatusOK)

	want := []breadcrumb.NavigationItem{
		{Name: "department", Href: "/department/d"},
		{Name: "category", Href: "/department/category"},
	}
	if !reflect.DeepEqual(resp.Items, want) {
		t.Errorf("items: got %+v, want %+v", resp.Items, want)
	}
	if !resp.Visible || resp.Term != "lamp" || resp.Home != "/store" || resp.Mode != "standard" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.ShowOnMobile {
		t.Error("show_on_mobile should default to false")
	}
}

func TestBreadcrumbJSON_Empty(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/breadcrumb", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Errorf("expected empty items array, got %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"visible":false`) {
		t.Errorf("expected invisible trail, got %s", rr.Body.String())
	}
}

func TestBreadcrumbJSON_Modes(t *testing.T) {
	tests := []struct {
		name        string
		defaultMode breadcrumb.Mode
		query       string
		wantVisible bool
		wantMode    string
	}{
		{name: "standard term only", defaultMode: breadcrumb.ModeStandard, query: "term=socks", wantVisible: true, wantMode: "standard"},
		{name: "legacy term only", defaultMode: breadcrumb.ModeLegacy, query: "term=socks", wantVisible: false, wantMode: "legacy"},
		{name: "legacy override", defaultMode: breadcrumb.ModeStandard, query: "term=socks&mode=legacy", wantVisible: false, wantMode: "legacy"},
		{name: "standard override", defaultMode: breadcrumb.ModeLegacy, query: "term=socks&mode=Standard", wantVisible: true, wantMode: "standard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := breadcrumbMux(newCatalog(), tt.defaultMode)
			resp := getJSON(t, mux, "/api/v1/breadcrumb?"+tt.query, http.StatusOK)
			if resp.Visible != tt.wantVisible {
				t.Errorf("visible: got %v, want %v", resp.Visible, tt.wantVisible)
			}
			if resp.Mode != tt.wantMode {
				t.Errorf("mode: got %q, want %q", resp.Mode, tt.wantMode)
			}
		})
	}
}

func TestBreadcrumbJSON_Flags(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	resp := getJSON(t, mux, "/api/v1/breadcrumb?category=/Shoes/Boots/&preserve_case=true&show_on_mobile=1", http.StatusOK)
	if len(resp.Items) != 1 || resp.Items[0].Name != "Boots" {
		t.Errorf("items: got %+v", resp.Items)
	}
	if !resp.ShowOnMobile {
		t.Error("expected show_on_mobile=true")
	}
}

func TestBreadcrumbJSON_Validation(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	tooMany := url.Values{}
	for i := 0; i < 51; i++ {
		tooMany.Add("category", fmt.Sprintf("/C%d/", i))
	}

	tests := []struct {
		name  string
		query string
	}{
		{name: "unknown mode", query: "mode=classic"},
		{name: "bad boolean", query: "show_on_mobile=maybe"},
		{name: "bad preserve_case", query: "preserve_case=sometimes"},
		{name: "term too long", query: "term=" + strings.Repeat("x", 257)},
		{name: "category too long", query: "category=/" + strings.Repeat("x", 600) + "/"},
		{name: "too many categories", query: tooMany.Encode()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/breadcrumb?"+tt.query, nil)
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
			var resp struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding error: %v", err)
			}
			if resp.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestBreadcrumbJSON_Product(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	resp := getJSON(t, mux, "/api/v1/products/trail-runner/breadcrumb?term=Trail+Runner", http.StatusOK)
	want := []breadcrumb.NavigationItem{
		{Name: "calçados", Href: "/calcados/d"},
		{Name: "tênis", Href: "/calcados/tenis"},
	}
	if !reflect.DeepEqual(resp.Items, want) {
		t.Errorf("items: got %+v, want %+v", resp.Items, want)
	}
	if resp.Term != "Trail Runner" {
		t.Errorf("term: got %q", resp.Term)
	}
}

func TestBreadcrumbJSON_ProductWithoutCategories(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	resp := getJSON(t, mux, "/api/v1/products/orphan/breadcrumb", http.StatusOK)
	if resp.Visible {
		t.Errorf("expected invisible trail, got %+v", resp)
	}
}

func TestBreadcrumbJSON_Category(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	resp := getJSON(t, mux, "/api/v1/categories/tenis/breadcrumb", http.StatusOK)
	want := newCatalog().trees["tenis"]
	if !reflect.DeepEqual(resp.Items, want) {
		t.Errorf("items: got %+v, want %+v", resp.Items, want)
	}
}

func TestBreadcrumbJSON_NotFound(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	getJSON(t, mux, "/api/v1/products/missing/breadcrumb", http.StatusNotFound)
	getJSON(t, mux, "/api/v1/categories/missing/breadcrumb", http.StatusNotFound)
}

func TestBreadcrumbJSON_StoreError(t *testing.T) {
	catalog := newCatalog()
	catalog.err = errors.New("connection refused")
	mux := breadcrumbMux(catalog, breadcrumb.ModeStandard)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/trail-runner/breadcrumb", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rr.Body.String(), "connection refused") {
		t.Error("internal error leaked to the client")
	}
}

// --------------------------------------------------------------------------
// HTML fragments
// --------------------------------------------------------------------------

func getFragment(t *testing.T, mux http.Handler, target string) (*httptest.ResponseRecorder, *goquery.Document) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rr.Body.String()))
	if err != nil {
		t.Fatalf("parsing fragment: %v", err)
	}
	return rr, doc
}

func hrefs(doc *goquery.Document) []string {
	var out []string
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.AttrOr("href", ""))
	})
	return out
}

func TestBreadcrumbFragment_Product(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	rr, doc := getFragment(t, mux, "/fragments/products/trail-runner/breadcrumb?term=Trail+Runner")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("content type: got %q", ct)
	}

	want := []string{"/store", "/calcados/d", "/calcados/tenis"}
	if got := hrefs(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("hrefs: got %q, want %q", got, want)
	}
	if term := doc.Find("span.breadcrumb-term").Text(); term != "Trail Runner" {
		t.Errorf("term: got %q", term)
	}
}

func TestBreadcrumbFragment_Category(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	_, doc := getFragment(t, mux, "/fragments/categories/tenis/breadcrumb")
	want := []string{"/store", "/calcados/d", "/calcados/tenis"}
	if got := hrefs(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("hrefs: got %q, want %q", got, want)
	}
	if got := doc.Find("a").Eq(2).Text(); got != "Tênis" {
		t.Errorf("label: got %q", got)
	}
}

func TestBreadcrumbFragment_EmptyRendersNothing(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	rr, _ := getFragment(t, mux, "/fragments/breadcrumb")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rr.Body.String())
	}
}

func TestBreadcrumbFragment_Legacy(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeLegacy)

	_, doc := getFragment(t, mux, "/fragments/breadcrumb?category=/Shoes/")
	if got := doc.Find("a").First().Text(); got != "Home" {
		t.Errorf("home link: got %q, want %q", got, "Home")
	}
	want := []string{"/store", "/shoes/d"}
	if got := hrefs(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("hrefs: got %q, want %q", got, want)
	}
}

func TestBreadcrumbFragment_Errors(t *testing.T) {
	mux := breadcrumbMux(newCatalog(), breadcrumb.ModeStandard)

	tests := []struct {
		target string
		want   int
	}{
		{target: "/fragments/products/missing/breadcrumb", want: http.StatusNotFound},
		{target: "/fragments/categories/missing/breadcrumb", want: http.StatusNotFound},
		{target: "/fragments/breadcrumb?mode=classic", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		rr, _ := getFragment(t, mux, tt.target)
		if rr.Code != tt.want {
			t.Errorf("GET %s: got %d, want %d", tt.target, rr.Code, tt.want)
		}
	}
}
