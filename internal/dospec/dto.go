package dospec

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// CalculateRequest is the JSON body accepted by POST /do-specs.
type CalculateRequest struct {
	CustomerID  int64        `json:"customer_id" validate:"required,gt=0"`
	TotalLots   int          `json:"total_lots" validate:"required,min=1"`
	BidPrice    float64      `json:"bid_price" validate:"required,gt=0"`
	EMDAmount   float64      `json:"emd_amount" validate:"gte=0"`
	CottonValue float64      `json:"cotton_value" validate:"required,gt=0"`
	GSTRate     float64      `json:"gst_rate" validate:"gte=0"`
	Zone        string       `json:"zone" validate:"required"`
	Lots        []LotPayload `json:"lots" validate:"required,min=1,dive"`
}

// InstallmentPayload is one partial DO payment in the request body.
type InstallmentPayload struct {
	Date   string  `json:"date" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// DeliveryPayload is one partial delivery event in the request body.
type DeliveryPayload struct {
	Date                   string `json:"date" validate:"required"`
	Lots                   int    `json:"lots" validate:"required,min=1"`
	AdditionalCarryingDays int    `json:"additional_carrying_days" validate:"gte=0"`
}

// LotPayload is one lot in the request body.
type LotPayload struct {
	EMDPaidDate  string               `json:"emd_paid_date" validate:"required"`
	MoisturePct  float64              `json:"moisture_percentage" validate:"gte=0"`
	ActualWeight float64              `json:"actual_weight" validate:"required,gt=0"`
	Installments []InstallmentPayload `json:"do_payment_dates" validate:"required,min=1,dive"`
	Deliveries   []DeliveryPayload    `json:"delivery_dates" validate:"required,min=1,dive"`
}

// ToDomain converts the wire payload into domain lots, rejecting malformed
// dates with the offending lot index.
func (r CalculateRequest) ToDomain() ([]Lot, Zone, error) {
	zone, err := ParseZone(r.Zone)
	if err != nil {
		return nil, "", fmt.Errorf("zone %q: %w", r.Zone, ErrInvalidInput)
	}
	lots := make([]Lot, 0, len(r.Lots))
	for i, lp := range r.Lots {
		lot, err := lp.toDomain()
		if err != nil {
			return nil, "", fmt.Errorf("lot %d: %s: %w", i, err, ErrInvalidInput)
		}
		lots = append(lots, lot)
	}
	return lots, zone, nil
}

func (p LotPayload) toDomain() (Lot, error) {
	emdDate, err := parseDate(p.EMDPaidDate)
	if err != nil {
		return Lot{}, fmt.Errorf("emd paid date: %v", err)
	}
	lot := Lot{
		EMDPaidDate:  emdDate,
		ActualWeight: p.ActualWeight,
		MoisturePct:  p.MoisturePct,
		Installments: make([]Installment, 0, len(p.Installments)),
		Deliveries:   make([]DeliveryEvent, 0, len(p.Deliveries)),
	}
	for _, ip := range p.Installments {
		date, err := parseDate(ip.Date)
		if err != nil {
			return Lot{}, fmt.Errorf("installment date: %v", err)
		}
		lot.Installments = append(lot.Installments, Installment{Date: date, Amount: ip.Amount})
	}
	for _, dp := range p.Deliveries {
		date, err := parseDate(dp.Date)
		if err != nil {
			return Lot{}, fmt.Errorf("delivery date: %v", err)
		}
		lot.Deliveries = append(lot.Deliveries, DeliveryEvent{
			Date:                   date,
			Lots:                   dp.Lots,
			AdditionalCarryingDays: dp.AdditionalCarryingDays,
		})
	}
	return lot, nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected %s, got %q", dateLayout, value)
	}
	return t, nil
}
