// Package dospec computes delivery-order specification settlements for cotton
// lots: weight-difference amounts, interest accrued over partial DO payments,
// and tiered late-lifting charges.
package dospec

import (
	"errors"
	"time"
)

// Zone identifies the procurement zone a delivery order belongs to.
type Zone string

const (
	// ZoneSouth covers the southern procurement branches.
	ZoneSouth Zone = "South Zone"
	// ZoneOther covers every other branch.
	ZoneOther Zone = "Other Zone"
)

// candyFactor converts candy-denominated rates to per-kg arithmetic.
const candyFactor = 0.2812

// zoneBaseKg is the policy table for assumed per-lot base weight. Keeping it
// table-driven stops the 48/47 constants drifting between call sites.
var zoneBaseKg = map[Zone]float64{
	ZoneSouth: 48,
	ZoneOther: 47,
}

// ParseZone validates a zone string at the request boundary.
func ParseZone(s string) (Zone, error) {
	switch Zone(s) {
	case ZoneSouth, ZoneOther:
		return Zone(s), nil
	}
	return "", ErrUnknownZone
}

// AssumedWeightKg derives the contractual assumed weight for a zone. Unknown
// zones fall back to the Other Zone base, matching long-standing settlement
// behaviour.
func AssumedWeightKg(zone Zone) float64 {
	base, ok := zoneBaseKg[zone]
	if !ok {
		base = zoneBaseKg[ZoneOther]
	}
	return base / candyFactor
}

// Installment is one partial DO payment.
type Installment struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// DeliveryEvent is one partial lifting of the physical lot.
type DeliveryEvent struct {
	Date                   time.Time `json:"date"`
	Lots                   int       `json:"lots"`
	AdditionalCarryingDays int       `json:"additional_carrying_days"`
}

// Lot is one cotton lot under a customer's delivery order.
type Lot struct {
	EMDPaidDate  time.Time       `json:"emd_paid_date"`
	ActualWeight float64         `json:"actual_weight"`
	MoisturePct  float64         `json:"moisture_percentage"`
	Installments []Installment   `json:"do_payment_dates"`
	Deliveries   []DeliveryEvent `json:"delivery_dates"`
}

// WeightCase classifies the weight-difference settlement direction.
type WeightCase string

const (
	WeightCaseCustomerPaysUs WeightCase = "CUSTOMER_PAYS_US"
	WeightCaseWePayCustomer  WeightCase = "WE_PAY_CUSTOMER"
	WeightCaseNoDifference   WeightCase = "NO_DIFFERENCE"
)

// ChargeDetail is one late-lifting breakdown row per delivery event.
type ChargeDetail struct {
	Date              time.Time `json:"date"`
	Lots              int       `json:"lots"`
	TotalCarryingDays int       `json:"total_carrying_days"`
	Rate              float64   `json:"rate"`
	RateLabel         string    `json:"rate_label"`
	BaseCharge        float64   `json:"base_charge"`
	GST               float64   `json:"gst"`
	EventCharge       float64   `json:"event_charge"`
}

// LotResult is the computed settlement for one lot.
type LotResult struct {
	WeightDifferenceAmount float64        `json:"weight_difference_amount"`
	WeightCase             WeightCase     `json:"weight_case"`
	InterestAmount         float64        `json:"interest_amount"`
	LateLiftingCharge      float64        `json:"late_lifting_charge"`
	LateLiftingBreakdown   []ChargeDetail `json:"late_lifting_breakdown"`
}

// Summary aggregates settlement amounts across all lots of a calculation.
type Summary struct {
	TotalWeightDifference float64 `json:"total_weight_difference"`
	TotalInterest         float64 `json:"total_interest"`
	TotalLateLifting      float64 `json:"total_late_lifting"`
}

// Sentinel errors surfaced by the calculator.
var (
	ErrInvalidInput = errors.New("dospec: invalid input")
	ErrUnknownZone  = errors.New("dospec: unknown zone")
)
