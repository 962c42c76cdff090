package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
)

const (
	defaultHTTPTimeout = 5 * time.Second
	metersPerKm        = 1000.0
	secondsPerMinute   = 60.0
)

// OSRMEstimator queries an OSRM routing server for road distance and travel
// time. Any transport or protocol failure surfaces as an error; the courier
// selector degrades to the great-circle fallback on its own.
type OSRMEstimator struct {
	baseURL string
	client  *http.Client
}

// NewOSRMEstimator creates an estimator against the given OSRM base URL,
// e.g. "https://router.project-osrm.org".
func NewOSRMEstimator(baseURL string) *OSRMEstimator {
	return &OSRMEstimator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		DistanceMeters  float64 `json:"distance"`
		DurationSeconds float64 `json:"duration"`
	} `json:"routes"`
}

// RouteTo queries the driving profile for the fastest route between two
// points. Distance is rounded to two decimal kilometers to match the quote
// precision, travel time is rounded up to whole minutes.
func (e *OSRMEstimator) RouteTo(ctx context.Context, from, to kernel.GeoPoint) (services.Route, error) {
	// OSRM takes lon,lat pairs.
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		e.baseURL,
		from.Longitude(), from.Latitude(),
		to.Longitude(), to.Latitude(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return services.Route{}, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return services.Route{}, fmt.Errorf("osrm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Route{}, fmt.Errorf("osrm returned status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return services.Route{}, fmt.Errorf("osrm response decode failed: %w", err)
	}

	if body.Code != "Ok" || len(body.Routes) == 0 {
		return services.Route{}, fmt.Errorf("osrm found no route: %s", body.Code)
	}

	route := body.Routes[0]
	distanceKm := math.Round(route.DistanceMeters/metersPerKm*100) / 100
	minutes := int(math.Ceil(route.DurationSeconds / secondsPerMinute))

	return services.Route{
		DistanceKm: distanceKm,
		Minutes:    minutes,
	}, nil
}
