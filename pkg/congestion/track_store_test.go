package congestion

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackStoreFirstSighting(t *testing.T) {
	s := NewTrackStore(3)

	speed, ok := s.Update(7, image.Pt(12, 34), 2, "car", 30)
	assert.False(t, ok)
	assert.Zero(t, speed)

	track := s.Get(7)
	require.NotNil(t, track)
	assert.Equal(t, image.Pt(12, 34), track.Position)
	assert.Equal(t, "car", track.ClassName)
	assert.Empty(t, track.SpeedHistory)
	assert.Zero(t, track.SmoothedSpeed)
}

func TestTrackStoreSmoothing(t *testing.T) {
	s := NewTrackStore(3)

	positions := []image.Point{{0, 0}, {10, 0}, {20, 0}, {30, 0}}
	var speeds []float64
	for _, p := range positions {
		if speed, ok := s.Update(1, p, 0, "car", 10); ok {
			speeds = append(speeds, speed)
		}
	}

	assert.Equal(t, []float64{100, 100, 100}, speeds)
	assert.InDelta(t, 100.0, s.Get(1).SmoothedSpeed, 1e-9)
}

func TestTrackStoreWindowKeepsMostRecent(t *testing.T) {
	const window = 3
	s := NewTrackStore(window)

	// step grows by one pixel each frame so every instantaneous speed differs
	x := 0
	s.Update(1, image.Pt(x, 0), 0, "truck", 1)
	var all []float64
	for step := 1; step <= 7; step++ {
		x += step
		speed, ok := s.Update(1, image.Pt(x, 0), 0, "truck", 1)
		require.True(t, ok)
		all = append(all, speed)

		assert.LessOrEqual(t, len(s.Get(1).SpeedHistory), window)
	}

	track := s.Get(1)
	assert.Equal(t, all[len(all)-window:], track.SpeedHistory)
	assert.InDelta(t, (5.0+6.0+7.0)/3, track.SmoothedSpeed, 1e-9)
}

func TestTrackStoreZeroMotion(t *testing.T) {
	s := NewTrackStore(5)

	for i := 0; i < 10; i++ {
		speed, _ := s.Update(4, image.Pt(50, 60), 1, "bus", 25)
		assert.Zero(t, speed)
	}
	assert.Zero(t, s.Get(4).SmoothedSpeed)
}

func TestTrackStoreLastWriteWinsClass(t *testing.T) {
	s := NewTrackStore(5)

	s.Update(9, image.Pt(0, 0), 2, "car", 10)
	s.Update(9, image.Pt(0, 1), 7, "truck", 10)

	track := s.Get(9)
	assert.Equal(t, 7, track.ClassID)
	assert.Equal(t, "truck", track.ClassName)
	assert.Equal(t, image.Pt(0, 1), track.Position)
}

func TestTrackStorePrune(t *testing.T) {
	s := NewTrackStore(5)

	s.UpdateAt(1, 1, image.Pt(0, 0), 0, "car", 10)
	s.UpdateAt(5, 2, image.Pt(0, 0), 0, "car", 10)

	assert.Zero(t, s.Prune(10, 0), "ttl 0 never prunes")
	assert.Equal(t, 2, s.Len())

	assert.Equal(t, 1, s.Prune(10, 5))
	assert.Nil(t, s.Get(1))
	assert.NotNil(t, s.Get(2))

	_, ok := s.UpdateAt(11, 1, image.Pt(5, 5), 0, "car", 10)
	assert.False(t, ok, "a pruned track comes back as a first sighting")
}

func TestTrackStorePruneKeepsUnframedTracks(t *testing.T) {
	s := NewTrackStore(5)

	s.Update(1, image.Pt(0, 0), 0, "car", 10)
	s.Update(1, image.Pt(3, 4), 0, "car", 10)
	s.UpdateAt(2, 2, image.Pt(0, 0), 0, "bus", 10)

	assert.Equal(t, 1, s.Prune(100, 5))
	require.NotNil(t, s.Get(1))
	assert.Equal(t, 50.0, s.Get(1).SmoothedSpeed)
	assert.Nil(t, s.Get(2))
}
