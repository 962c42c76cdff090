package services

import (
	"context"
	"errors"
	"math"
	"sort"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// ErrCourierNotFound is returned when no matchable courier is available for
// an order: the candidate list is empty or every candidate is excluded,
// off duty, inactive or unpositioned.
var ErrCourierNotFound = errors.New("courier not found")

// Route is a distance/time estimate between two points.
type Route struct {
	DistanceKm float64
	Minutes    int
}

// RouteEstimator estimates travel from a courier position to the pickup
// point. A routed implementation may fail per call (network); the selector
// treats such couriers as having no distance and sorts them last.
type RouteEstimator interface {
	RouteTo(ctx context.Context, from, to kernel.GeoPoint) (Route, error)
}

// CourierSelector finds the single best courier for an order: the matchable,
// non-excluded courier with the shortest estimated travel time to the pickup
// point.
//
// Selection rules:
//   - Couriers that are not matchable (off duty, inactive, no position) are
//     skipped
//   - Estimation failures never abort the search: the courier sorts last
//   - If estimation fails for every candidate, the whole search is re-run
//     against the fallback estimator (closed-form great-circle)
//   - Ties break on ascending straight-line distance, then on courier id,
//     so selection is deterministic
type CourierSelector struct {
	primary  RouteEstimator
	fallback RouteEstimator
}

// NewCourierSelector creates a selector with a primary estimator and a
// fallback used when the primary fails for every candidate. The fallback
// must not depend on the network.
func NewCourierSelector(primary, fallback RouteEstimator) CourierSelector {
	return CourierSelector{primary: primary, fallback: fallback}
}

type rankedCourier struct {
	courier    *courier.Courier
	route      Route
	straightKm float64
	failed     bool
}

// SelectNearest returns the best courier for the pickup point together with
// its route estimate, or ErrCourierNotFound when no candidate qualifies.
func (s CourierSelector) SelectNearest(
	ctx context.Context,
	pickup kernel.GeoPoint,
	candidates []*courier.Courier,
) (*courier.Courier, Route, error) {
	if err := pickup.Validate(); err != nil {
		return nil, Route{}, err
	}

	ranked, err := s.rank(ctx, pickup, candidates, s.primary)
	if err != nil {
		return nil, Route{}, err
	}
	if len(ranked) == 0 {
		return nil, Route{}, ErrCourierNotFound
	}

	if allFailed(ranked) && s.fallback != nil {
		ranked, err = s.rank(ctx, pickup, candidates, s.fallback)
		if err != nil {
			return nil, Route{}, err
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.failed != b.failed {
			return !a.failed
		}
		if a.route.Minutes != b.route.Minutes {
			return a.route.Minutes < b.route.Minutes
		}
		if a.straightKm != b.straightKm {
			return a.straightKm < b.straightKm
		}
		return a.courier.ID().String() < b.courier.ID().String()
	})

	best := ranked[0]
	return best.courier, best.route, nil
}

func (s CourierSelector) rank(
	ctx context.Context,
	pickup kernel.GeoPoint,
	candidates []*courier.Courier,
	estimator RouteEstimator,
) ([]rankedCourier, error) {
	ranked := make([]rankedCourier, 0, len(candidates))
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if !c.IsMatchable() {
			continue
		}

		position := *c.LastPosition()
		straightKm, err := position.GreatCircleDistanceKm(pickup)
		if err != nil {
			return nil, err
		}

		route, err := estimator.RouteTo(ctx, position, pickup)
		if err != nil {
			ranked = append(ranked, rankedCourier{
				courier:    c,
				route:      Route{DistanceKm: math.Inf(1), Minutes: math.MaxInt},
				straightKm: straightKm,
				failed:     true,
			})
			continue
		}

		ranked = append(ranked, rankedCourier{
			courier:    c,
			route:      route,
			straightKm: straightKm,
		})
	}

	return ranked, nil
}

func allFailed(ranked []rankedCourier) bool {
	for _, r := range ranked {
		if !r.failed {
			return false
		}
	}
	return len(ranked) > 0
}
