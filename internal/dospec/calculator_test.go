package dospec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func validLot() Lot {
	return Lot{
		EMDPaidDate:  day("2024-01-01"),
		ActualWeight: 170,
		Installments: []Installment{{Date: day("2024-01-10"), Amount: 100000}},
		Deliveries:   []DeliveryEvent{{Date: day("2024-01-20"), Lots: 1}},
	}
}

func TestAssumedWeight(t *testing.T) {
	require.InDelta(t, 48/0.2812, AssumedWeightKg(ZoneSouth), 1e-9)
	require.InDelta(t, 47/0.2812, AssumedWeightKg(ZoneOther), 1e-9)
	// Unrecognised zones fall back to the Other Zone base.
	require.Equal(t, AssumedWeightKg(ZoneOther), AssumedWeightKg(Zone("West Zone")))
}

func TestParseZone(t *testing.T) {
	zone, err := ParseZone("South Zone")
	require.NoError(t, err)
	require.Equal(t, ZoneSouth, zone)

	_, err = ParseZone("west zone")
	require.ErrorIs(t, err, ErrUnknownZone)
}

func TestWeightDifferenceNoDifference(t *testing.T) {
	lot := validLot()
	lot.ActualWeight = AssumedWeightKg(ZoneSouth)

	results, _, err := Calculate([]Lot{lot}, 50000, 200000, 0.05, ZoneSouth)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, WeightCaseNoDifference, results[0].WeightCase)
	assert.Zero(t, results[0].WeightDifferenceAmount)
}

func TestWeightDifferenceExample(t *testing.T) {
	// South Zone assumed weight is 48/0.2812 ≈ 170.697 kg, so 180 kg at a
	// 50000 bid collapses to (180*0.2812 - 48) * 50000 = 130800.
	lot := validLot()
	lot.ActualWeight = 180

	results, _, err := Calculate([]Lot{lot}, 50000, 200000, 0.05, ZoneSouth)
	require.NoError(t, err)
	assert.Equal(t, WeightCaseCustomerPaysUs, results[0].WeightCase)
	assert.InDelta(t, 130800.00, results[0].WeightDifferenceAmount, 0.01)
}

func TestWeightDifferenceWePayCustomer(t *testing.T) {
	lot := validLot()
	lot.ActualWeight = 150

	results, _, err := Calculate([]Lot{lot}, 50000, 200000, 0.05, ZoneSouth)
	require.NoError(t, err)
	assert.Equal(t, WeightCaseWePayCustomer, results[0].WeightCase)
	assert.Negative(t, results[0].WeightDifferenceAmount)
}

func TestWeightDifferenceMonotonic(t *testing.T) {
	prev := -1e18
	for _, weight := range []float64{150, 160, 170, 170.7, 180, 200} {
		lot := validLot()
		lot.ActualWeight = weight
		results, _, err := Calculate([]Lot{lot}, 50000, 200000, 0.05, ZoneSouth)
		require.NoError(t, err)
		require.Greater(t, results[0].WeightDifferenceAmount, prev)
		prev = results[0].WeightDifferenceAmount
	}
}

func TestInterestAccrual(t *testing.T) {
	lot := validLot()
	lot.EMDPaidDate = day("2024-01-01")
	lot.Installments = []Installment{{Date: day("2024-01-31"), Amount: 100000}}

	results, _, err := Calculate([]Lot{lot}, 50000, 200000, 0.05, ZoneSouth)
	require.NoError(t, err)
	// 30 days at 5% p.a. on 100000.
	assert.InDelta(t, 410.96, results[0].InterestAmount, 0.005)
}

func TestInterestInstallmentBeforeEMDContributesZero(t *testing.T) {
	lot := validLot()
	lot.EMDPaidDate = day("2024-02-01")
	lot.Installments = []Installment{
		{Date: day("2024-01-15"), Amount: 500000}, // predates EMD: zero days
		{Date: day("2024-02-01"), Amount: 500000}, // same day: zero days
	}

	results, _, err := Calculate([]Lot{lot}, 50000, 200000, 0.05, ZoneSouth)
	require.NoError(t, err)
	assert.Zero(t, results[0].InterestAmount)
}

func TestInterestNonNegative(t *testing.T) {
	lot := validLot()
	lot.Installments = []Installment{
		{Date: day("2023-12-01"), Amount: 250000},
		{Date: day("2024-03-01"), Amount: 250000},
	}
	results, _, err := Calculate([]Lot{lot}, 50000, 200000, 0.05, ZoneSouth)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, results[0].InterestAmount, 0.0)
}

func TestLateLiftingTierBoundaries(t *testing.T) {
	cases := []struct {
		days int
		rate float64
	}{
		{15, 0},
		{16, 0.005},
		{45, 0.005},
		{46, 0.0075},
		{75, 0.0075},
		{76, 0.01},
	}
	for _, tc := range cases {
		rate, _ := liftingTier(tc.days)
		assert.Equal(t, tc.rate, rate, "days=%d", tc.days)
	}
}

func TestLateLiftingAnchoredAtFirstInstallment(t *testing.T) {
	lot := validLot()
	lot.Installments = []Installment{
		{Date: day("2024-01-01"), Amount: 100000},
		{Date: day("2024-03-01"), Amount: 100000},
	}
	// 20 days after the FIRST installment even though a later installment
	// exists: 0.50% tier applies.
	lot.Deliveries = []DeliveryEvent{{Date: day("2024-01-21"), Lots: 2}}

	results, _, err := Calculate([]Lot{lot}, 50000, 200000, 0.10, ZoneSouth)
	require.NoError(t, err)
	require.Len(t, results[0].LateLiftingBreakdown, 1)
	row := results[0].LateLiftingBreakdown[0]
	assert.Equal(t, 20, row.TotalCarryingDays)
	assert.Equal(t, 0.005, row.Rate)
	// base = 200000 * 0.005 * 2 = 2000, gst = 200, event = 2200
	assert.InDelta(t, 2000, row.BaseCharge, 0.001)
	assert.InDelta(t, 200, row.GST, 0.001)
	assert.InDelta(t, 2200, row.EventCharge, 0.001)
	assert.InDelta(t, 2200, results[0].LateLiftingCharge, 0.001)
}

func TestLateLiftingAdditionalCarryingDaysShiftTier(t *testing.T) {
	lot := validLot()
	lot.Installments = []Installment{{Date: day("2024-01-01"), Amount: 100000}}
	// 10 days since DO plus 40 pre-agreed carrying days lands in the 0.75% tier.
	lot.Deliveries = []DeliveryEvent{{Date: day("2024-01-11"), Lots: 1, AdditionalCarryingDays: 40}}

	results, _, err := Calculate([]Lot{lot}, 50000, 100000, 0, ZoneSouth)
	require.NoError(t, err)
	row := results[0].LateLiftingBreakdown[0]
	assert.Equal(t, 50, row.TotalCarryingDays)
	assert.Equal(t, 0.0075, row.Rate)
	assert.InDelta(t, 750, row.EventCharge, 0.001)
}

func TestLateLiftingFreeWindowChargesNothing(t *testing.T) {
	lot := validLot()
	lot.Installments = []Installment{{Date: day("2024-01-01"), Amount: 100000}}
	lot.Deliveries = []DeliveryEvent{{Date: day("2024-01-10"), Lots: 3}}

	results, _, err := Calculate([]Lot{lot}, 50000, 200000, 0.05, ZoneSouth)
	require.NoError(t, err)
	row := results[0].LateLiftingBreakdown[0]
	assert.Equal(t, "No charges", row.RateLabel)
	assert.Zero(t, row.BaseCharge)
	assert.Zero(t, row.EventCharge)
	assert.Zero(t, results[0].LateLiftingCharge)
}

func TestSummaryAggregation(t *testing.T) {
	lotA := validLot()
	lotA.ActualWeight = 180
	lotB := validLot()
	lotB.ActualWeight = 160

	results, summary, err := Calculate([]Lot{lotA, lotB}, 50000, 200000, 0.05, ZoneSouth)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t,
		results[0].WeightDifferenceAmount+results[1].WeightDifferenceAmount,
		summary.TotalWeightDifference, 0.01)
	assert.InDelta(t,
		results[0].InterestAmount+results[1].InterestAmount,
		summary.TotalInterest, 0.01)
	assert.InDelta(t,
		results[0].LateLiftingCharge+results[1].LateLiftingCharge,
		summary.TotalLateLifting, 0.001)
}

func TestCalculateValidation(t *testing.T) {
	t.Run("no lots", func(t *testing.T) {
		_, _, err := Calculate(nil, 50000, 200000, 0.05, ZoneSouth)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("negative gst", func(t *testing.T) {
		_, _, err := Calculate([]Lot{validLot()}, 50000, 200000, -0.01, ZoneSouth)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing installments names lot index", func(t *testing.T) {
		good := validLot()
		bad := validLot()
		bad.Installments = nil
		_, _, err := Calculate([]Lot{good, bad}, 50000, 200000, 0.05, ZoneSouth)
		require.ErrorIs(t, err, ErrInvalidInput)
		require.Contains(t, err.Error(), "lot 1")
	})

	t.Run("missing deliveries", func(t *testing.T) {
		bad := validLot()
		bad.Deliveries = nil
		_, _, err := Calculate([]Lot{bad}, 50000, 200000, 0.05, ZoneSouth)
		require.ErrorIs(t, err, ErrInvalidInput)
		require.Contains(t, err.Error(), "lot 0")
	})

	t.Run("negative carrying days", func(t *testing.T) {
		bad := validLot()
		bad.Deliveries = []DeliveryEvent{{Date: day("2024-01-20"), Lots: 1, AdditionalCarryingDays: -1}}
		_, _, err := Calculate([]Lot{bad}, 50000, 200000, 0.05, ZoneSouth)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 1.13, round2(1.125))
	assert.Equal(t, -1.13, round2(-1.125))
	assert.Equal(t, 2.001, round3(2.0005))
}

func TestDaysBetweenCeil(t *testing.T) {
	anchor := day("2024-01-01")
	assert.Equal(t, 0, daysBetweenCeil(anchor, anchor))
	assert.Equal(t, 0, daysBetweenCeil(anchor, day("2023-12-31")))
	assert.Equal(t, 1, daysBetweenCeil(anchor, day("2024-01-02")))
	assert.Equal(t, 1, daysBetweenCeil(anchor, anchor.Add(30*time.Minute)))
}
