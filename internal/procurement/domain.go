// Package procurement prices cotton purchase commitments: the cost sheet a
// trader signs off before bidding, covering cotton value, EMD and GST.
package procurement

import (
	"errors"
	"time"

	"github.com/kapas-trade/kapas-trade/internal/dospec"
)

// Policy carries the commercial constants the cost sheet arithmetic needs.
// Wiring copies these from the application TradePolicy.
type Policy struct {
	GSTRate         float64
	CandyFactor     float64
	SouthZoneBaseKg float64
	OtherZoneBaseKg float64

	EMDRateSmall float64
	EMDRateMid   float64
	EMDRateLarge float64
	SmallLotMax  int
	MidLotMax    int
}

// EMDRateFor picks the earnest-money rate tier for a lot count.
func (p Policy) EMDRateFor(lots int) float64 {
	switch {
	case lots <= p.SmallLotMax:
		return p.EMDRateSmall
	case lots <= p.MidLotMax:
		return p.EMDRateMid
	default:
		return p.EMDRateLarge
	}
}

func (p Policy) zoneBaseKg(zone dospec.Zone) float64 {
	if zone == dospec.ZoneSouth {
		return p.SouthZoneBaseKg
	}
	return p.OtherZoneBaseKg
}

// CostSheetInput is the request payload for a new cost sheet.
type CostSheetInput struct {
	Lots      int     `json:"lots" validate:"required,min=1"`
	CandyRate float64 `json:"candy_rate" validate:"required,gt=0"`
	Zone      string  `json:"zone" validate:"required"`
}

// CostSheet is a priced purchase commitment.
type CostSheet struct {
	ID              int64     `json:"id"`
	Lots            int       `json:"lots"`
	CandyRate       float64   `json:"candy_rate"`
	Zone            dospec.Zone `json:"zone"`
	AssumedWeightKg float64   `json:"assumed_weight_kg"`
	CottonValue     float64   `json:"cotton_value"`
	EMDRate         float64   `json:"emd_rate"`
	EMDAmount       float64   `json:"emd_amount"`
	GSTAmount       float64   `json:"gst_amount"`
	TotalPayable    float64   `json:"total_payable"`
	CreatedBy       int64     `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// Sentinel errors for the procurement package.
var (
	ErrInvalidInput = errors.New("procurement: invalid input")
	ErrNotFound     = errors.New("procurement: cost sheet not found")
)
