package tcdd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/MrSnakeDoc/seatwatch/internal/auth"
	"github.com/MrSnakeDoc/seatwatch/internal/domain"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
)

var testRoute = domain.Route{
	DepartureID:   98,
	DepartureName: "ANKARA GAR",
	ArrivalID:     741,
	ArrivalName:   "KARS",
}

func TestFormatRequestDate(t *testing.T) {
	got := FormatRequestDate(civil.Date{Year: 2024, Month: time.March, Day: 5})
	if got != "05-03-2024 21:00:00" {
		t.Errorf("FormatRequestDate() = %q", got)
	}
}

func TestClientFetch(t *testing.T) {
	date := civil.Date{Year: 2024, Month: time.December, Day: 10}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("unit-id"); got != "42" {
			t.Errorf("unit-id = %q", got)
		}

		var body SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body.SearchRoutes) != 1 || body.SearchRoutes[0].DepartureDate != "10-12-2024 21:00:00" {
			t.Errorf("searchRoutes = %+v", body.SearchRoutes)
		}
		if body.SearchRoutes[0].DepartureStationID != 98 || body.SearchRoutes[0].ArrivalStationName != "KARS" {
			t.Errorf("route = %+v", body.SearchRoutes[0])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"trainLegs":[{"trainAvailabilities":[{"trains":[{"number":"81001","cars":[]}]}]}]}`))
	}))
	defer ts.Close()

	c := NewClient(ClientOptions{Endpoint: ts.URL, UnitID: "42", Route: testRoute}, auth.NewStaticToken("Bearer abc"), logger.Nop())

	resp, err := c.Fetch(context.Background(), date)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.TrainLegs == nil || len(*resp.TrainLegs) != 1 {
		t.Fatalf("TrainLegs = %+v", resp.TrainLegs)
	}
}

func TestClientFetchErrors(t *testing.T) {
	date := civil.Date{Year: 2024, Month: time.December, Day: 10}

	tests := []struct {
		name   string
		status int
		body   string
		token  string
		wantIs error
	}{
		{name: "server error", status: http.StatusInternalServerError, token: "t", wantIs: domain.ErrFetch},
		{name: "unauthorized", status: http.StatusUnauthorized, token: "t", wantIs: domain.ErrAuth},
		{name: "not json", status: http.StatusOK, body: "<html>", token: "t", wantIs: domain.ErrMalformedResponse},
		{name: "no credential", status: http.StatusOK, body: "{}", token: "", wantIs: domain.ErrAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c := NewClient(ClientOptions{Endpoint: ts.URL, Route: testRoute}, auth.NewStaticToken(tt.token), logger.Nop())
			_, err := c.Fetch(context.Background(), date)

			var fe *domain.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("Fetch() error = %v, want *FetchError", err)
			}
			if fe.Date != date {
				t.Errorf("FetchError.Date = %v, want %v", fe.Date, date)
			}
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("Fetch() error = %v, want %v", err, tt.wantIs)
			}
		})
	}
}
