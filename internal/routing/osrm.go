// Package routing resolves driving routes and addresses through external
// OSRM-compatible HTTP services.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/metrics"
	"ridepulse/internal/ports"
)

// ErrRouteUnavailable is returned when the provider cannot produce a route.
// The caller must not invent a fallback fare from it.
var ErrRouteUnavailable = errors.New("route unavailable")

// ErrAddressUnresolved is returned when geocoding finds no match.
var ErrAddressUnresolved = errors.New("address unresolved")

// OSRMClient performs route lookups against an OSRM HTTP server.
type OSRMClient struct {
	endpoint string
	client   *http.Client
}

var _ ports.RoutingClient = (*OSRMClient)(nil)

func NewOSRMClient(endpoint string, timeout time.Duration) *OSRMClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OSRMClient{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

// ResolveRoute queries OSRM /route between two points.
func (o *OSRMClient) ResolveRoute(ctx context.Context, origin, destination geo.Point) (ports.Route, error) {
	// OSRM route query: /route/v1/driving/{lon1},{lat1};{lon2},{lat2}?overview=false
	u := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false",
		o.endpoint, origin.Longitude, origin.Latitude, destination.Longitude, destination.Latitude)

	started := time.Now()
	defer func() { metrics.RoutingLatency.Observe(time.Since(started).Seconds()) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ports.Route{}, fmt.Errorf("build route request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return ports.Route{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.Route{}, fmt.Errorf("%w: provider status %d", ErrRouteUnavailable, resp.StatusCode)
	}

	var out struct {
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"routes"`
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ports.Route{}, fmt.Errorf("%w: decode response: %v", ErrRouteUnavailable, err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return ports.Route{}, fmt.Errorf("%w: provider code %q", ErrRouteUnavailable, out.Code)
	}

	return ports.Route{
		DistanceMeters:  out.Routes[0].Distance,
		DurationSeconds: out.Routes[0].Duration,
	}, nil
}

// NominatimClient resolves street addresses against a Nominatim-compatible
// geocoding endpoint.
type NominatimClient struct {
	endpoint string
	client   *http.Client
}

var _ ports.GeocodingClient = (*NominatimClient)(nil)

func NewNominatimClient(endpoint string, timeout time.Duration) *NominatimClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NominatimClient{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

// ResolveCoordinates geocodes an address; the first match wins.
func (n *NominatimClient) ResolveCoordinates(ctx context.Context, address string) (geo.Point, error) {
	u := fmt.Sprintf("%s/search?format=json&limit=1&q=%s", n.endpoint, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return geo.Point{}, fmt.Errorf("build geocode request: %w", err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: %v", ErrAddressUnresolved, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("%w: provider status %d", ErrAddressUnresolved, resp.StatusCode)
	}

	var out []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return geo.Point{}, fmt.Errorf("%w: decode response: %v", ErrAddressUnresolved, err)
	}
	if len(out) == 0 {
		return geo.Point{}, ErrAddressUnresolved
	}

	var lat, lng float64
	if _, err := fmt.Sscanf(out[0].Lat, "%f", &lat); err != nil {
		return geo.Point{}, fmt.Errorf("%w: bad latitude %q", ErrAddressUnresolved, out[0].Lat)
	}
	if _, err := fmt.Sscanf(out[0].Lon, "%f", &lng); err != nil {
		return geo.Point{}, fmt.Errorf("%w: bad longitude %q", ErrAddressUnresolved, out[0].Lon)
	}
	return geo.NewPoint(lat, lng)
}
