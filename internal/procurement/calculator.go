package procurement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kapas-trade/kapas-trade/internal/dospec"
)

// BuildCostSheet prices a purchase commitment. The candy rate is quoted per
// 100kg, so cotton value is lots x assumed weight x rate / 100. EMD uses the
// tiered rate for the lot count and GST applies to the cotton value.
func BuildCostSheet(policy Policy, input CostSheetInput) (CostSheet, error) {
	if input.Lots < 1 {
		return CostSheet{}, fmt.Errorf("%w: lots must be at least 1", ErrInvalidInput)
	}
	if input.CandyRate <= 0 {
		return CostSheet{}, fmt.Errorf("%w: candy rate must be positive", ErrInvalidInput)
	}
	zone, err := dospec.ParseZone(input.Zone)
	if err != nil {
		return CostSheet{}, fmt.Errorf("%w: zone %q", ErrInvalidInput, input.Zone)
	}

	assumedWeight := policy.zoneBaseKg(zone) / policy.CandyFactor
	cottonValue := round2(float64(input.Lots) * assumedWeight * input.CandyRate / 100)
	emdRate := policy.EMDRateFor(input.Lots)
	emd := round2(cottonValue * emdRate)
	gst := round2(cottonValue * policy.GSTRate)

	return CostSheet{
		Lots:            input.Lots,
		CandyRate:       input.CandyRate,
		Zone:            zone,
		AssumedWeightKg: round2(assumedWeight),
		CottonValue:     cottonValue,
		EMDRate:         emdRate,
		EMDAmount:       emd,
		GSTAmount:       gst,
		TotalPayable:    round2(cottonValue + gst),
	}, nil
}

func round2(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}
