package dospec

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// interestRate is the fixed simple-interest rate applied to DO payment
	// installments. Contract terms, not configuration.
	interestRate = 0.05
	// freeLiftingDays is the carrying window with no late-lifting charge.
	freeLiftingDays = 15
)

// liftingTier returns the monthly late-lifting rate for a carrying-day count.
// The rate applies once per delivery event, not pro-rated per day.
func liftingTier(totalCarryingDays int) (float64, string) {
	switch {
	case totalCarryingDays <= freeLiftingDays:
		return 0, "No charges"
	case totalCarryingDays <= 45:
		return 0.005, "0.50% per month"
	case totalCarryingDays <= 75:
		return 0.0075, "0.75% per month"
	default:
		return 0.01, "1.00% per month"
	}
}

// Calculate computes per-lot settlement results and the aggregate summary.
// It is a pure function of its inputs; any malformed lot fails the whole
// calculation naming the offending lot index.
func Calculate(lots []Lot, bidPrice, cottonValue, gstRate float64, zone Zone) ([]LotResult, Summary, error) {
	if len(lots) == 0 {
		return nil, Summary{}, fmt.Errorf("at least one lot required: %w", ErrInvalidInput)
	}
	if bidPrice <= 0 {
		return nil, Summary{}, fmt.Errorf("bid price must be positive: %w", ErrInvalidInput)
	}
	if cottonValue < 0 {
		return nil, Summary{}, fmt.Errorf("cotton value must not be negative: %w", ErrInvalidInput)
	}
	if gstRate < 0 {
		return nil, Summary{}, fmt.Errorf("gst rate must not be negative: %w", ErrInvalidInput)
	}

	assumedWeight := AssumedWeightKg(zone)

	results := make([]LotResult, 0, len(lots))
	var summary Summary
	for i, lot := range lots {
		if err := validateLot(i, lot); err != nil {
			return nil, Summary{}, err
		}
		res := calculateLot(lot, assumedWeight, bidPrice, cottonValue, gstRate)
		results = append(results, res)
		summary.TotalWeightDifference += res.WeightDifferenceAmount
		summary.TotalInterest += res.InterestAmount
		summary.TotalLateLifting += res.LateLiftingCharge
	}
	summary.TotalWeightDifference = round2(summary.TotalWeightDifference)
	summary.TotalInterest = round2(summary.TotalInterest)
	summary.TotalLateLifting = round3(summary.TotalLateLifting)
	return results, summary, nil
}

func validateLot(index int, lot Lot) error {
	fail := func(reason string) error {
		return fmt.Errorf("lot %d: %s: %w", index, reason, ErrInvalidInput)
	}
	if lot.EMDPaidDate.IsZero() {
		return fail("emd paid date required")
	}
	if lot.ActualWeight <= 0 {
		return fail("actual weight must be positive")
	}
	if len(lot.Installments) == 0 {
		return fail("at least one DO payment installment required")
	}
	for _, inst := range lot.Installments {
		if inst.Date.IsZero() {
			return fail("installment date required")
		}
		if inst.Amount < 0 {
			return fail("installment amount must not be negative")
		}
	}
	if len(lot.Deliveries) == 0 {
		return fail("at least one delivery event required")
	}
	for _, d := range lot.Deliveries {
		if d.Date.IsZero() {
			return fail("delivery date required")
		}
		if d.Lots <= 0 {
			return fail("delivery lot count must be positive")
		}
		if d.AdditionalCarryingDays < 0 {
			return fail("additional carrying days must not be negative")
		}
	}
	return nil
}

func calculateLot(lot Lot, assumedWeight, bidPrice, cottonValue, gstRate float64) LotResult {
	res := LotResult{}

	diff := round2((lot.ActualWeight - assumedWeight) * bidPrice * candyFactor)
	res.WeightDifferenceAmount = diff
	switch {
	case diff > 0:
		res.WeightCase = WeightCaseCustomerPaysUs
	case diff < 0:
		res.WeightCase = WeightCaseWePayCustomer
	default:
		res.WeightCase = WeightCaseNoDifference
	}

	var interest float64
	for _, inst := range lot.Installments {
		days := daysBetweenCeil(lot.EMDPaidDate, inst.Date)
		interest += float64(days) * interestRate / 365 * inst.Amount
	}
	res.InterestAmount = round2(interest)

	// The free window anchors at the first installment's date for every
	// delivery event, not at each delivery's own installment.
	anchor := lot.Installments[0].Date
	var lateTotal float64
	res.LateLiftingBreakdown = make([]ChargeDetail, 0, len(lot.Deliveries))
	for _, d := range lot.Deliveries {
		totalCarryingDays := daysBetweenCeil(anchor, d.Date) + d.AdditionalCarryingDays
		rate, label := liftingTier(totalCarryingDays)
		detail := ChargeDetail{
			Date:              d.Date,
			Lots:              d.Lots,
			TotalCarryingDays: totalCarryingDays,
			Rate:              rate,
			RateLabel:         label,
		}
		if rate > 0 {
			base := cottonValue * rate * float64(d.Lots)
			gst := base * gstRate
			detail.BaseCharge = round3(base)
			detail.GST = round3(gst)
			detail.EventCharge = round3(base + gst)
			lateTotal += base + gst
		}
		res.LateLiftingBreakdown = append(res.LateLiftingBreakdown, detail)
	}
	res.LateLiftingCharge = round3(lateTotal)

	return res
}

// daysBetweenCeil counts calendar days from one date to another, rounding any
// partial day up and clamping to zero when the end precedes the start.
func daysBetweenCeil(from, to time.Time) int {
	diff := to.Sub(from)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// round2 rounds half away from zero to 2 decimal places.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// round3 rounds half away from zero to 3 decimal places.
func round3(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(3).Float64()
	return f
}
