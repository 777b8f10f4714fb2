package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrancheAmount(t *testing.T) {
	tests := []struct {
		name   string
		total  string
		first  string
		second string
	}{
		{"even", "1050.00", "525.00", "525.00"},
		{"odd cent goes to the second tranche", "100.01", "50.01", "50.00"},
		{"single cent", "0.01", "0.01", "0.00"},
		{"zero", "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			first := TrancheAmount(total, TrancheFirst, nil)
			assert.True(t, first.Equal(decimal.RequireFromString(tt.first)), "first: %s", first)

			released := &Release{Tranche: TrancheFirst, Amount: first, State: ReleaseConfirmed}
			second := TrancheAmount(total, TrancheSecond, released)
			assert.True(t, second.Equal(decimal.RequireFromString(tt.second)), "second: %s", second)
			assert.True(t, first.Add(second).Equal(total), "tranches must sum to the total")
		})
	}
}

func TestTrancheAmount_SecondUsesConfirmedFirstAmount(t *testing.T) {
	total := decimal.RequireFromString("200.00")
	first := &Release{Tranche: TrancheFirst, Amount: decimal.RequireFromString("90.00"), State: ReleaseConfirmed}
	assert.Equal(t, "110.00", TrancheAmount(total, TrancheSecond, first).StringFixed(2))

	failed := &Release{Tranche: TrancheFirst, Amount: decimal.RequireFromString("90.00"), State: ReleaseFailedState}
	assert.Equal(t, "100.00", TrancheAmount(total, TrancheSecond, failed).StringFixed(2))
}

func TestReleasedAmount_CountsConfirmedOnly(t *testing.T) {
	releases := []*Release{
		{Tranche: TrancheFirst, Amount: decimal.NewFromInt(50), State: ReleaseConfirmed},
		{Tranche: TrancheSecond, Amount: decimal.NewFromInt(50), State: ReleasePending},
		nil,
	}
	assert.True(t, ReleasedAmount(releases).Equal(decimal.NewFromInt(50)))
	assert.NotNil(t, FindRelease(releases, TrancheSecond))
	assert.Nil(t, FindRelease(releases[:1], TrancheSecond))
}

func TestParseMilestone(t *testing.T) {
	m, err := ParseMilestone(" Shipment_Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, MilestoneShipmentConfirmed, m)
	assert.Equal(t, TrancheFirst, m.Tranche())
	assert.Equal(t, TrancheSecond, MilestoneDeliveryConfirmed.Tranche())

	_, err = ParseMilestone("paid")
	assert.Error(t, err)
}
