package congestion

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func vehicle(id int, x, y int) Detection {
	return Detection{
		TrackID:   intPtr(id),
		ClassID:   2,
		ClassName: "car",
		Center:    image.Pt(x, y),
		Box:       image.Rect(x-5, y-5, x+5, y+5),
	}
}

func newTestAnalyzer(t *testing.T, cfg Config) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(cfg)
	require.NoError(t, err)
	return a
}

func TestAnalyzerEmptyFrame(t *testing.T) {
	a := newTestAnalyzer(t, DefaultConfig())

	res := a.Analyze(nil, 30)

	assert.Equal(t, 1, res.Frame)
	assert.Zero(t, res.VehicleCount)
	assert.Empty(t, res.InstantSpeeds)
	assert.Empty(t, res.Tracks)
	assert.False(t, res.IsCongested)
	assert.Zero(t, res.MeanInstantSpeed)
}

func TestAnalyzerSmoothedSpeedScenario(t *testing.T) {
	a := newTestAnalyzer(t, Config{VehicleThreshold: 6, SpeedThreshold: 75, SpeedWindow: 3})

	first := a.Analyze([]Detection{vehicle(1, 0, 0)}, 10)
	require.Len(t, first.Tracks, 1)
	assert.False(t, first.Tracks[0].HasInstantSpeed)
	assert.Zero(t, first.Tracks[0].SmoothedSpeed)
	assert.Empty(t, first.InstantSpeeds)

	var last *FrameResult
	for _, x := range []int{10, 20, 30} {
		last = a.Analyze([]Detection{vehicle(1, x, 0)}, 10)
		assert.Equal(t, []float64{100}, last.InstantSpeeds)
	}

	require.Len(t, last.Tracks, 1)
	info := last.Tracks[0]
	assert.True(t, info.HasInstantSpeed)
	assert.InDelta(t, 100.0, info.InstantSpeed, 1e-9)
	assert.InDelta(t, 100.0, info.SmoothedSpeed, 1e-9)
	assert.Equal(t, image.Pt(30, 0), info.Position)
	assert.Equal(t, 4, last.Frame)
}

// slowScene seeds seven tracks then moves each by the given per-frame distance at 1 fps,
// so the instantaneous speed of track i is exactly steps[i].
func slowScene(t *testing.T, steps []int) *FrameResult {
	t.Helper()
	a := newTestAnalyzer(t, DefaultConfig())

	seed := make([]Detection, 0, len(steps))
	for i := range steps {
		seed = append(seed, vehicle(i+1, 0, i*100))
	}
	res := a.Analyze(seed, 1)
	require.False(t, res.IsCongested, "first sightings carry no speed evidence")

	moved := make([]Detection, 0, len(steps))
	for i, step := range steps {
		moved = append(moved, vehicle(i+1, step, i*100))
	}
	return a.Analyze(moved, 1)
}

func TestAnalyzerCongestedScene(t *testing.T) {
	res := slowScene(t, []int{50, 60, 55, 40, 45, 50, 30})

	assert.Equal(t, 7, res.VehicleCount)
	assert.Equal(t, []float64{50, 60, 55, 40, 45, 50, 30}, res.InstantSpeeds)
	assert.InDelta(t, 330.0/7, res.MeanInstantSpeed, 1e-9)
	assert.True(t, res.IsCongested)
}

func TestAnalyzerFlowingScene(t *testing.T) {
	res := slowScene(t, []int{80, 80, 80, 80, 80, 80, 80})

	assert.InDelta(t, 80.0, res.MeanInstantSpeed, 1e-9)
	assert.False(t, res.IsCongested)
}

func TestAnalyzerUntrackedBoxes(t *testing.T) {
	a := newTestAnalyzer(t, Config{VehicleThreshold: 2, SpeedThreshold: 75, SpeedWindow: 30})

	untracked := Detection{ClassID: 2, ClassName: "car", Center: image.Pt(1, 1)}

	a.Analyze([]Detection{vehicle(1, 0, 0), untracked, untracked}, 1)
	res := a.Analyze([]Detection{vehicle(1, 1, 0), untracked, untracked}, 1)

	// untracked boxes count as vehicles but never as tracks or uniques
	assert.Equal(t, 3, res.VehicleCount)
	assert.Len(t, res.Tracks, 1)
	assert.Equal(t, []float64{1}, res.InstantSpeeds)
	assert.Equal(t, 1, res.UniqueTotal)
	assert.True(t, res.IsCongested)
	assert.Equal(t, 1, a.Tracks().Len())
}

func TestAnalyzerUniqueCounts(t *testing.T) {
	a := newTestAnalyzer(t, DefaultConfig())

	truck := vehicle(3, 0, 0)
	truck.ClassName = "truck"
	truck.ClassID = 7

	a.Analyze([]Detection{truck, vehicle(1, 0, 0)}, 30)
	a.Analyze([]Detection{vehicle(1, 0, 0), vehicle(2, 0, 0)}, 30)
	res := a.Analyze([]Detection{vehicle(2, 0, 0)}, 30)

	assert.Equal(t, 3, res.UniqueTotal)
	assert.Equal(t, []ClassCount{{ClassName: "truck", Count: 1}, {ClassName: "car", Count: 2}}, res.UniqueCounts)
	assert.Equal(t, a.Uniques().Total(), res.UniqueTotal)
}

func TestAnalyzerTrackTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrackTTLFrames = 2
	a := newTestAnalyzer(t, cfg)

	a.Analyze([]Detection{vehicle(1, 0, 0)}, 10)
	a.Analyze(nil, 10)
	a.Analyze(nil, 10)
	a.Analyze(nil, 10)
	assert.Zero(t, a.Tracks().Len())

	res := a.Analyze([]Detection{vehicle(1, 10, 0)}, 10)
	assert.Empty(t, res.InstantSpeeds, "expired track restarts as a first sighting")
	assert.Equal(t, 1, res.UniqueTotal, "uniqueness is never pruned")
}
