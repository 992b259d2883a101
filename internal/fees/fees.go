// Package fees converts net donation amounts into gross charge amounts.
package fees

import "errors"

// ErrNegativeAmount is returned when the base amount is below zero.
var ErrNegativeAmount = errors.New("amount must not be negative")

// ComputeGross returns the amount to charge so that the intended donation
// survives the processor's cut. The processor keeps 2.9% of the gross charge
// plus a fixed 30 minor units, so the smallest sufficient gross is
// ceil((base+30) / 0.971). Integer ceiling division keeps the result exact.
func ComputeGross(baseAmountCents int64, coverFees bool) (int64, error) {
	if baseAmountCents < 0 {
		return 0, ErrNegativeAmount
	}
	if !coverFees {
		return baseAmountCents, nil
	}
	net := baseAmountCents + 30
	return (net*1000 + 970) / 971, nil
}
