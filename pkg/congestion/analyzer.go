package congestion

import "fmt"

// Analyzer folds detection batches, one frame at a time, into track state and
// produces the per-frame congestion verdict. Frames must be fed in order from a
// single goroutine: a track's speed depends on the position stored by the
// previous frame.
type Analyzer struct {
	cfg     Config
	tracks  *TrackStore
	uniques *UniqueRegistry
	frame   int
}

// NewAnalyzer validates cfg and returns an analyzer with empty state.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewAnalyzer: %w", err)
	}

	return &Analyzer{
		cfg:     cfg,
		tracks:  NewTrackStore(cfg.SpeedWindow),
		uniques: NewUniqueRegistry(),
	}, nil
}

// Tracks exposes the track store, mostly for inspection.
func (a *Analyzer) Tracks() *TrackStore {
	return a.tracks
}

// Uniques exposes the cumulative unique object registry.
func (a *Analyzer) Uniques() *UniqueRegistry {
	return a.uniques
}

// Analyze processes the detections of the next frame.
//
// Boxes without a track id are left out of tracking and unique counting but
// still count toward VehicleCount: the verdict uses every box the detector
// reported, tracked or not.
func (a *Analyzer) Analyze(detections []Detection, fps float64) *FrameResult {
	a.frame++

	res := &FrameResult{
		Frame:         a.frame,
		Tracks:        make([]TrackInfo, 0, len(detections)),
		VehicleCount:  len(detections),
		InstantSpeeds: make([]float64, 0, len(detections)),
	}

	for _, det := range detections {
		if det.TrackID == nil {
			continue
		}
		id := *det.TrackID

		speed, ok := a.tracks.UpdateAt(a.frame, id, det.Center, det.ClassID, det.ClassName, fps)
		if ok {
			res.InstantSpeeds = append(res.InstantSpeeds, speed)
		}
		a.uniques.Record(det.ClassName, id)

		res.Tracks = append(res.Tracks, TrackInfo{
			ID:              id,
			ClassID:         det.ClassID,
			ClassName:       det.ClassName,
			Position:        det.Center,
			Box:             det.Box,
			InstantSpeed:    speed,
			HasInstantSpeed: ok,
			SmoothedSpeed:   a.tracks.Get(id).SmoothedSpeed,
		})
	}

	res.IsCongested = IsCongested(res.VehicleCount, res.InstantSpeeds, a.cfg.VehicleThreshold, a.cfg.SpeedThreshold)
	res.MeanInstantSpeed = meanSpeed(res.InstantSpeeds)
	res.UniqueTotal = a.uniques.Total()
	res.UniqueCounts = a.uniques.PerClassCounts()

	a.tracks.Prune(a.frame, a.cfg.TrackTTLFrames)

	return res
}
