package display

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplay_ValidityFlag(t *testing.T) {
	d := New(Info{ID: 1, Name: "eDP-1"})

	assert.True(t, d.IsValid())
	d.Invalidate()
	assert.False(t, d.IsValid())

	// The snapshot itself never changes.
	assert.Equal(t, 1, d.ID())
	assert.Equal(t, "eDP-1", d.Name())
}

func TestCompatParams_Native(t *testing.T) {
	info := Native.Apply(Info{
		Geometry:   Geometry{Width: 2560, Height: 1440},
		DensityDPI: 109,
	})

	assert.Equal(t, 2560, info.AdjustedWidth)
	assert.Equal(t, 1440, info.AdjustedHeight)
}

func TestCompatParams_TargetDPI(t *testing.T) {
	compat := CompatParams{TargetDPI: 96}
	info := compat.Apply(Info{
		Geometry:   Geometry{Width: 3840, Height: 2160},
		DensityDPI: 192,
	})

	assert.Equal(t, 1920, info.AdjustedWidth)
	assert.Equal(t, 1080, info.AdjustedHeight)
}

func TestCompatParams_Scale(t *testing.T) {
	compat := CompatParams{Scale: 0.5}
	info := compat.Apply(Info{
		Geometry:   Geometry{Width: 1920, Height: 1080},
		DensityDPI: 96,
	})

	assert.Equal(t, 960, info.AdjustedWidth)
	assert.Equal(t, 540, info.AdjustedHeight)
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "added", EventAdded.String())
	assert.Equal(t, "removed", EventRemoved.String())
	assert.Equal(t, "changed", EventChanged.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}

func TestEvent_JSON(t *testing.T) {
	data, err := json.Marshal(Event{Kind: EventRemoved, ID: 12})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"removed","display_id":12}`, string(data))
}
