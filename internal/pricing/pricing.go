// Package pricing computes shipment costs from parcel geometry and the
// destination rate table. Computation is pure and safe for concurrent use.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
)

// cm³ per m³
var cubicCmPerM3 = decimal.NewFromInt(1_000_000)

// InvalidInputError reports a parcel with non-positive weight or dimensions.
// Upstream validation should have rejected it; reaching the engine with such
// data indicates a data bug, so it is surfaced instead of coerced to zero.
type InvalidInputError struct {
	TrackingNumber string
	Field          string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("parcel %s: %s must be positive", e.TrackingNumber, e.Field)
}

// Compute returns the cost of shipping the given parcels to a destination:
//
//	cost = base_rate + totalWeightKg*weight_rate + totalVolumeM3*volume_rate
//
// Volume is length*width*height in cm³ converted to m³. An empty parcel set
// costs exactly the base rate. The result is kept at full precision; callers
// round to 2 decimal places at the point of persistence.
func Compute(parcels []entity.Parcel, rate *entity.Destination) (decimal.Decimal, error) {
	totalWeight := decimal.Zero
	totalVolumeCm3 := decimal.Zero

	for i := range parcels {
		p := &parcels[i]
		if !p.WeightKg.IsPositive() {
			return decimal.Zero, &InvalidInputError{TrackingNumber: p.TrackingNumber, Field: "weight_kg"}
		}
		if p.LengthCm <= 0 {
			return decimal.Zero, &InvalidInputError{TrackingNumber: p.TrackingNumber, Field: "length_cm"}
		}
		if p.WidthCm <= 0 {
			return decimal.Zero, &InvalidInputError{TrackingNumber: p.TrackingNumber, Field: "width_cm"}
		}
		if p.HeightCm <= 0 {
			return decimal.Zero, &InvalidInputError{TrackingNumber: p.TrackingNumber, Field: "height_cm"}
		}

		totalWeight = totalWeight.Add(p.WeightKg)
		volume := decimal.NewFromInt(int64(p.LengthCm)).
			Mul(decimal.NewFromInt(int64(p.WidthCm))).
			Mul(decimal.NewFromInt(int64(p.HeightCm)))
		totalVolumeCm3 = totalVolumeCm3.Add(volume)
	}

	totalVolumeM3 := totalVolumeCm3.Div(cubicCmPerM3)

	cost := rate.BaseRate.
		Add(totalWeight.Mul(rate.WeightRatePerKg)).
		Add(totalVolumeM3.Mul(rate.VolumeRatePerM3))

	return cost, nil
}
