package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityBooking/pkg/types"
)

func TestSlotGrid_StartTimes(t *testing.T) {
	starts := DefaultSlotGrid().StartTimes()

	require.Len(t, starts, 9)
	assert.Equal(t, types.TimeString("09:00"), starts[0])
	assert.Equal(t, types.TimeString("17:00"), starts[len(starts)-1])
}

func TestSlotGrid_Contains(t *testing.T) {
	g := DefaultSlotGrid()

	assert.True(t, g.Contains("09:00"))
	assert.True(t, g.Contains("17:00"))
	assert.False(t, g.Contains("18:00"), "slot would end after closing")
	assert.False(t, g.Contains("08:00"))
	assert.False(t, g.Contains("10:30"))
	assert.False(t, g.Contains("garbage"))

	half := SlotGrid{OpenHour: 9, CloseHour: 11, DurationMinutes: 30}
	assert.True(t, half.Contains("10:30"))
	assert.False(t, half.Contains("11:00"))
}

func TestSlotGrid_EndFor(t *testing.T) {
	end, err := DefaultSlotGrid().EndFor("10:00")
	require.NoError(t, err)
	assert.Equal(t, types.TimeString("11:00"), end)

	_, err = DefaultSlotGrid().EndFor("23:30")
	assert.ErrorIs(t, err, types.ErrTimeOverflow)
}
