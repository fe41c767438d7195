package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vanfinder/logging"
	"vanfinder/models"
	"vanfinder/snapshot"
)

func newTestRouter(t *testing.T) (http.Handler, *snapshot.Store) {
	t.Helper()
	store := snapshot.NewStore(&snapshot.File{
		Vendors: []models.Vendor{
			{ID: "A", Name: "Curry Cart", Cuisine: models.CuisineIndian, PriceTier: models.PriceBudget, Rating: 4.5, Open: true, Location: &models.Location{Latitude: 0, Longitude: 0.01}},
			{ID: "B", Name: "Wok Stop", Cuisine: models.CuisineChinese, PriceTier: models.PriceMid, Rating: 3.0, Open: false, Online: true, Location: &models.Location{Latitude: 0, Longitude: 1}},
			{ID: "C", Name: "Pasta Van", Cuisine: models.CuisineItalian, PriceTier: models.PricePremium, Rating: 4.0, Open: true},
		},
	})
	return NewRouter(store, logging.NewWithWriter(io.Discard, "error"), []string{"http://localhost:3000"}, time.Second), store
}

func doRequest(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeSearch(t *testing.T, w *httptest.ResponseRecorder) SearchResponse {
	t.Helper()
	var resp SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func resultIDs(resp SearchResponse) []string {
	var out []string
	for _, v := range resp.Vendors {
		out = append(out, v.ID)
	}
	return out
}

func TestSearch_NoCriteria(t *testing.T) {
	h, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/api/vendors", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	resp := decodeSearch(t, w)
	if resp.MatchedCount != 3 || resp.TotalCount != 3 {
		t.Errorf("expected 3 of 3, got %d of %d", resp.MatchedCount, resp.TotalCount)
	}
	if resp.CriteriaActive {
		t.Error("expected criteria to be inactive")
	}
	if got := strings.Join(resultIDs(resp), ","); got != "A,B,C" {
		t.Errorf("expected input order A,B,C, got %s", got)
	}
}

func TestSearch_WithCriteria(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"min rating", "min_rating=4", "A,C"},
		{"cuisine", "cuisines=indian,italian", "A,C"},
		{"open now", "open_now=true", "A,C"},
		{"distance cap", "max_distance=50&lat=0&lon=0", "A"},
		{"sort by rating", "sort=rating", "A,C,B"},
		{"sort by distance", "sort=distance&lat=0&lon=0", "A,B,C"},
		{"price", "price=mid", "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodGet, "/api/vendors?"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			resp := decodeSearch(t, w)
			if got := strings.Join(resultIDs(resp), ","); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if resp.TotalCount != 3 {
				t.Errorf("expected total 3, got %d", resp.TotalCount)
			}
			if resp.MatchedCount != len(resp.Vendors) {
				t.Errorf("matched count %d does not match %d vendors", resp.MatchedCount, len(resp.Vendors))
			}
		})
	}
}

func TestSearch_DistanceReported(t *testing.T) {
	h, _ := newTestRouter(t)

	resp := decodeSearch(t, doRequest(t, h, http.MethodGet, "/api/vendors?lat=0&lon=0", nil))

	for _, v := range resp.Vendors {
		switch v.ID {
		case "A", "B":
			if v.DistanceKm == nil {
				t.Errorf("expected distance for %s", v.ID)
			}
		case "C":
			if v.DistanceKm != nil {
				t.Errorf("expected no distance for unlocated vendor C, got %v", *v.DistanceKm)
			}
		}
	}
}

type failingStore struct{ *snapshot.Store }

func (failingStore) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	return nil, errors.New("connection refused")
}

func TestSearch_StoreError(t *testing.T) {
	h := NewRouter(failingStore{snapshot.NewStore(nil)}, logging.NewWithWriter(io.Discard, "error"), nil, time.Second)

	w := doRequest(t, h, http.MethodGet, "/api/vendors", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}

// slowStore blocks until the request context is done.
type slowStore struct{ *snapshot.Store }

func (slowStore) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("failed to query vendors: %w", ctx.Err())
}

func TestSearch_RequestTimeout(t *testing.T) {
	h := NewRouter(slowStore{snapshot.NewStore(nil)}, logging.NewWithWriter(io.Discard, "error"), nil, 20*time.Millisecond)

	w := doRequest(t, h, http.MethodGet, "/api/vendors", nil)

	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("expected status 504, got %d", w.Code)
	}
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, http.StatusOK, models.Vendor{ID: "nan", Rating: math.NaN()}, logging.NewWithWriter(io.Discard, "error"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("expected a complete JSON body, got %q: %v", w.Body.String(), err)
	}
	if body["error"] == "" {
		t.Errorf("expected an error message, got %v", body)
	}
}

func TestGetVendor(t *testing.T) {
	h, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/api/vendors/B", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var v models.Vendor
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode vendor: %v", err)
	}
	if v.Name != "Wok Stop" {
		t.Errorf("expected Wok Stop, got %s", v.Name)
	}

	w = doRequest(t, h, http.MethodGet, "/api/vendors/Z", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp["error"] != "Vendor not found" {
		t.Errorf("expected 'Vendor not found', got %s", resp["error"])
	}
}

func TestReviews(t *testing.T) {
	h, store := newTestRouter(t)

	body, _ := json.Marshal(ReviewRequest{Author: "Sam", Rating: 5, Comment: "best dosa"})
	w := doRequest(t, h, http.MethodPost, "/api/vendors/B/reviews", bytes.NewReader(body))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Review
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode review: %v", err)
	}
	if created.ID == "" || created.VendorID != "B" || created.Rating != 5 {
		t.Errorf("unexpected review %+v", created)
	}

	body, _ = json.Marshal(ReviewRequest{Author: "Kim", Rating: 4})
	if w := doRequest(t, h, http.MethodPost, "/api/vendors/B/reviews", bytes.NewReader(body)); w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	w = doRequest(t, h, http.MethodGet, "/api/vendors/B/reviews", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp ReviewsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode reviews: %v", err)
	}
	if resp.Summary.Count != 2 || resp.Summary.Average != 4.5 {
		t.Errorf("expected 2 reviews averaging 4.5, got %+v", resp.Summary)
	}

	v, _ := store.GetVendor(context.Background(), "B")
	if v.Rating != 4.5 || v.ReviewCount != 2 {
		t.Errorf("expected vendor rating refreshed to 4.5 over 2, got %.1f over %d", v.Rating, v.ReviewCount)
	}

	// The refreshed rating feeds straight into search.
	resp2 := decodeSearch(t, doRequest(t, h, http.MethodGet, "/api/vendors?min_rating=4.5", nil))
	if got := strings.Join(resultIDs(resp2), ","); got != "A,B" {
		t.Errorf("expected A,B after review, got %s", got)
	}
}

func TestCreateReview_Errors(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"rating too high", "/api/vendors/A/reviews", `{"author":"x","rating":7}`, http.StatusBadRequest},
		{"malformed body", "/api/vendors/A/reviews", `{"rating":`, http.StatusBadRequest},
		{"unknown field", "/api/vendors/A/reviews", `{"rating":4,"stars":5}`, http.StatusBadRequest},
		{"unknown vendor", "/api/vendors/Z/reviews", `{"author":"x","rating":4}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPost, tt.target, strings.NewReader(tt.body))
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}

	if w := doRequest(t, h, http.MethodGet, "/api/vendors/Z/reviews", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 listing reviews of unknown vendor, got %d", w.Code)
	}
}

func TestMetadataEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		target string
		want   int
	}{
		{"/api/cuisines", len(models.Cuisines)},
		{"/api/price-tiers", 3},
		{"/api/sort-keys", 3},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := doRequest(t, h, http.MethodGet, tt.target, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			var list []string
			if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
				t.Fatalf("failed to decode list: %v", err)
			}
			if len(list) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(list))
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected healthy, got %s", resp.Status)
	}
}

func TestCORS(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/vendors", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected allowed origin header, got %q", got)
	}
}
