package registry

import (
	"sync"
	"testing"

	"github.com/displayhub/displayhub/internal/authority"
	"github.com/displayhub/displayhub/internal/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInfo(id int) display.Info {
	return display.Info{
		ID:   id,
		Name: "DP-1",
		Geometry: display.Geometry{
			Width:  1920,
			Height: 1080,
		},
		DensityDPI: 96,
	}
}

func TestGetDisplay_UnknownID(t *testing.T) {
	fake := authority.NewFake()
	reg := New(fake, display.Native)

	d, ok := reg.GetDisplay(42)
	assert.Nil(t, d)
	assert.False(t, ok)
}

func TestGetDisplay_CachesAcrossLookups(t *testing.T) {
	fake := authority.NewFake()
	fake.AddDisplay(testInfo(1))
	reg := New(fake, display.Native)

	first, ok := reg.GetDisplay(1)
	require.True(t, ok)

	second, ok := reg.GetDisplay(1)
	require.True(t, ok)

	assert.Same(t, first, second)
	assert.Equal(t, 1, fake.MaterializeCount(1), "repeat lookups must not hit the authority")
}

func TestGetDisplay_AbsentAfterRemoval(t *testing.T) {
	fake := authority.NewFake()
	fake.AddDisplay(testInfo(1))
	reg := New(fake, display.Native)

	d, ok := reg.GetDisplay(1)
	require.True(t, ok)
	require.True(t, d.IsValid())

	fake.RemoveDisplay(1)
	require.False(t, d.IsValid(), "authority must invalidate handed-out snapshots")

	gone, ok := reg.GetDisplay(1)
	assert.Nil(t, gone)
	assert.False(t, ok)
}

func TestGetDisplay_RematerializesAfterReadd(t *testing.T) {
	fake := authority.NewFake()
	fake.AddDisplay(testInfo(1))
	reg := New(fake, display.Native)

	first, ok := reg.GetDisplay(1)
	require.True(t, ok)

	fake.RemoveDisplay(1)
	fake.AddDisplay(testInfo(1))

	second, ok := reg.GetDisplay(1)
	require.True(t, ok)
	assert.NotSame(t, first, second)
	assert.True(t, second.IsValid())
	assert.Equal(t, first.Info(), second.Info())
}

func TestGetDisplays_PartialFailure(t *testing.T) {
	fake := authority.NewFake()
	fake.AddDisplay(testInfo(1))
	fake.AddDisplay(testInfo(2))
	fake.AddDisplay(testInfo(3))
	fake.FailMaterialize(2, true)

	reg := New(fake, display.Native)

	displays := reg.GetDisplays()
	require.Len(t, displays, 2)

	ids := []int{displays[0].ID(), displays[1].ID()}
	assert.ElementsMatch(t, []int{1, 3}, ids)
	for _, d := range displays {
		assert.NotNil(t, d)
	}
}

func TestGetDisplays_ExcludesRemoved(t *testing.T) {
	fake := authority.NewFake()
	fake.AddDisplay(testInfo(1))
	fake.AddDisplay(testInfo(2))
	reg := New(fake, display.Native)

	require.Len(t, reg.GetDisplays(), 2)

	fake.RemoveDisplay(2)
	displays := reg.GetDisplays()
	require.Len(t, displays, 1)
	assert.Equal(t, 1, displays[0].ID())
}

func TestGetDisplays_TrustsFreshListing(t *testing.T) {
	fake := authority.NewFake()
	fake.AddDisplay(testInfo(1))
	reg := New(fake, display.Native)

	cached, ok := reg.GetDisplay(1)
	require.True(t, ok)

	// Invalidate the snapshot while the authority still lists the id. A
	// full listing trusts the fresh enumeration, a point lookup does not.
	cached.Invalidate()

	displays := reg.GetDisplays()
	require.Len(t, displays, 1)
	assert.Same(t, cached, displays[0])

	replaced, ok := reg.GetDisplay(1)
	require.True(t, ok)
	assert.NotSame(t, cached, replaced)
}

func TestGetDisplay_AppliesCompatParams(t *testing.T) {
	fake := authority.NewFake()
	fake.AddDisplay(testInfo(1))

	reg := New(fake, display.CompatParams{TargetDPI: 48})

	d, ok := reg.GetDisplay(1)
	require.True(t, ok)
	assert.Equal(t, 960, d.Info().AdjustedWidth)
	assert.Equal(t, 540, d.Info().AdjustedHeight)
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	fake := authority.NewFake()
	for id := 1; id <= 8; id++ {
		fake.AddDisplay(testInfo(id))
	}
	reg := New(fake, display.Native)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				reg.GetDisplay(1 + (n+j)%8)
				if j%10 == 0 {
					reg.GetDisplays()
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, reg.GetDisplays(), 8)
}
