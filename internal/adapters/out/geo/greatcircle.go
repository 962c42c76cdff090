// Package geo provides the route estimation adapters: an OSRM-backed
// estimator for real road routes and a closed-form great-circle estimator
// used as quoting baseline and network-free fallback.
package geo

import (
	"context"
	"fmt"
	"math"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"
)

const minutesPerHour = 60

// GreatCircleEstimator derives a route from the great-circle distance and a
// configured average travel speed. It never fails on the network and always
// returns the same estimate for the same pair of points, which makes it the
// fallback of choice for the courier selector.
type GreatCircleEstimator struct {
	averageSpeedKmh float64
}

// NewGreatCircleEstimator creates an estimator with the deployment's
// configured average courier speed.
func NewGreatCircleEstimator(averageSpeedKmh float64) (GreatCircleEstimator, error) {
	if averageSpeedKmh <= 0 {
		return GreatCircleEstimator{}, errs.NewValueIsInvalidErrorWithCause("average speed",
			fmt.Errorf("%f is not positive", averageSpeedKmh))
	}

	return GreatCircleEstimator{averageSpeedKmh: averageSpeedKmh}, nil
}

// RouteTo estimates travel from one point to another. The travel time is
// rounded up: a courier is never promised to arrive earlier than possible.
func (e GreatCircleEstimator) RouteTo(_ context.Context, from, to kernel.GeoPoint) (services.Route, error) {
	distanceKm, err := from.GreatCircleDistanceKm(to)
	if err != nil {
		return services.Route{}, err
	}

	minutes := int(math.Ceil(distanceKm / e.averageSpeedKmh * minutesPerHour))

	return services.Route{
		DistanceKm: distanceKm,
		Minutes:    minutes,
	}, nil
}
