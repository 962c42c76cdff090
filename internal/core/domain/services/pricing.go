package services

import (
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// PricingCalculator maps delivery distance to courier earnings and the
// customer delivery fee. It is pure: identical inputs always produce
// bit-identical amounts.
//
// Earnings formula: basePrice + distanceKm * perKmRate, rounded to two
// decimal places. The customer fee applies an optional markup on top of the
// earnings; a zero markup makes fee and earnings equal, which is the default
// deployment configuration.
type PricingCalculator struct {
	basePrice kernel.Money
	perKmRate float64
	feeMarkup float64
}

// NewPricingCalculator creates a calculator from deployment configuration.
// basePrice and perKmRate must be non-negative; feeMarkup is a fraction
// (0.10 means the customer pays 10% over courier earnings).
func NewPricingCalculator(basePrice, perKmRate, feeMarkup float64) (PricingCalculator, error) {
	if perKmRate < 0 {
		return PricingCalculator{}, errs.NewValueIsInvalidErrorWithCause("per-km rate",
			fmt.Errorf("%f is negative", perKmRate))
	}
	if feeMarkup < 0 {
		return PricingCalculator{}, errs.NewValueIsInvalidErrorWithCause("fee markup",
			fmt.Errorf("%f is negative", feeMarkup))
	}

	base, err := kernel.NewMoneyFromFloat(basePrice)
	if err != nil {
		return PricingCalculator{}, err
	}

	return PricingCalculator{
		basePrice: base,
		perKmRate: perKmRate,
		feeMarkup: feeMarkup,
	}, nil
}

// CalculateEarnings returns what the courier is paid for a delivery of the
// given distance.
func (p PricingCalculator) CalculateEarnings(distanceKm float64) (kernel.Money, error) {
	if distanceKm < 0 {
		return kernel.Money{}, errs.NewValueIsInvalidErrorWithCause("distance",
			fmt.Errorf("%f is negative", distanceKm))
	}

	distancePart, err := kernel.NewMoneyFromFloat(distanceKm * p.perKmRate)
	if err != nil {
		return kernel.Money{}, err
	}

	return p.basePrice.Add(distancePart)
}

// CalculateFee returns what the customer pays for a delivery of the given
// distance: earnings plus the configured markup.
func (p PricingCalculator) CalculateFee(distanceKm float64) (kernel.Money, error) {
	earnings, err := p.CalculateEarnings(distanceKm)
	if err != nil {
		return kernel.Money{}, err
	}
	if p.feeMarkup == 0 {
		return earnings, nil
	}

	return earnings.MulFloat(1 + p.feeMarkup)
}
