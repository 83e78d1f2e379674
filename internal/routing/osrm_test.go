package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ridepulse/internal/domain/geo"
)

func TestResolveRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/route/v1/driving/76.889709,43.238949;76.928480,43.256540" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":5200.0,"duration":900.0}]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL, 2*time.Second)
	route, err := c.ResolveRoute(context.Background(),
		geo.Point{Latitude: 43.238949, Longitude: 76.889709},
		geo.Point{Latitude: 43.25654, Longitude: 76.92848})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if route.DistanceMeters != 5200 || route.DurationSeconds != 900 {
		t.Fatalf("route: %+v", route)
	}
}

func TestResolveRouteNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL, 2*time.Second)
	_, err := c.ResolveRoute(context.Background(), geo.Point{}, geo.Point{Latitude: 1})
	if !errors.Is(err, ErrRouteUnavailable) {
		t.Fatalf("got %v, want ErrRouteUnavailable", err)
	}
}

func TestResolveRouteProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL, 2*time.Second)
	if _, err := c.ResolveRoute(context.Background(), geo.Point{}, geo.Point{Latitude: 1}); !errors.Is(err, ErrRouteUnavailable) {
		t.Fatalf("got %v, want ErrRouteUnavailable", err)
	}
}

func TestResolveCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Abay 10" {
			t.Errorf("query: %q", got)
		}
		w.Write([]byte(`[{"lat":"43.240000","lon":"76.900000"}]`))
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL, 2*time.Second)
	p, err := c.ResolveCoordinates(context.Background(), "Abay 10")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if p.Latitude != 43.24 || p.Longitude != 76.9 {
		t.Fatalf("point: %+v", p)
	}
}

func TestResolveCoordinatesNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL, 2*time.Second)
	if _, err := c.ResolveCoordinates(context.Background(), "nowhere"); !errors.Is(err, ErrAddressUnresolved) {
		t.Fatalf("got %v, want ErrAddressUnresolved", err)
	}
}
