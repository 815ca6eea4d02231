package procurement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapas-trade/kapas-trade/internal/dospec"
)

func testPolicy() Policy {
	return Policy{
		GSTRate:         0.05,
		CandyFactor:     0.2812,
		SouthZoneBaseKg: 48,
		OtherZoneBaseKg: 47,
		EMDRateSmall:    0.10,
		EMDRateMid:      0.075,
		EMDRateLarge:    0.05,
		SmallLotMax:     10,
		MidLotMax:       50,
	}
}

func TestBuildCostSheetSouthZone(t *testing.T) {
	sheet, err := BuildCostSheet(testPolicy(), CostSheetInput{
		Lots: 10, CandyRate: 50000, Zone: "South Zone",
	})
	require.NoError(t, err)

	assert.Equal(t, dospec.ZoneSouth, sheet.Zone)
	// 48 / 0.2812 = 170.697... kg assumed per lot.
	assert.InDelta(t, 170.70, sheet.AssumedWeightKg, 0.011)
	// 10 lots x 170.697kg x 50000/100.
	assert.InDelta(t, 853485.06, sheet.CottonValue, 0.011)
	assert.Equal(t, 0.10, sheet.EMDRate)
	assert.InDelta(t, 85348.51, sheet.EMDAmount, 0.011)
	assert.InDelta(t, 42674.25, sheet.GSTAmount, 0.011)
	assert.InDelta(t, sheet.CottonValue+sheet.GSTAmount, sheet.TotalPayable, 0.011)
}

func TestBuildCostSheetOtherZoneBase(t *testing.T) {
	sheet, err := BuildCostSheet(testPolicy(), CostSheetInput{
		Lots: 1, CandyRate: 40000, Zone: "Other Zone",
	})
	require.NoError(t, err)
	assert.InDelta(t, 47.0/0.2812, sheet.AssumedWeightKg, 0.011)
}

func TestEMDRateTiers(t *testing.T) {
	policy := testPolicy()
	cases := map[int]float64{
		1:   0.10,
		10:  0.10,
		11:  0.075,
		50:  0.075,
		51:  0.05,
		200: 0.05,
	}
	for lots, want := range cases {
		assert.Equal(t, want, policy.EMDRateFor(lots), "lots=%d", lots)
	}
}

func TestBuildCostSheetValidation(t *testing.T) {
	policy := testPolicy()

	_, err := BuildCostSheet(policy, CostSheetInput{Lots: 0, CandyRate: 100, Zone: "South Zone"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = BuildCostSheet(policy, CostSheetInput{Lots: 1, CandyRate: 0, Zone: "South Zone"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = BuildCostSheet(policy, CostSheetInput{Lots: 1, CandyRate: 100, Zone: "North Zone"})
	require.ErrorIs(t, err, ErrInvalidInput)
}
