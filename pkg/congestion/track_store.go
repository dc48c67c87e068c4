package congestion

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// Track is the state kept for a single tracker identifier.
type Track struct {
	ID        int
	Position  image.Point
	ClassID   int
	ClassName string

	// SpeedHistory holds the most recent instantaneous speeds, oldest first.
	SpeedHistory []float64

	// SmoothedSpeed is the mean of SpeedHistory, 0 while it is empty.
	SmoothedSpeed float64

	// lastFrame is the frame of the last update, noFrame when fed through Update.
	lastFrame int
}

const noFrame = -1

// TrackStore owns every track seen so far. It is not safe for concurrent use,
// a single analysis loop must own it.
type TrackStore struct {
	window int
	tracks map[int]*Track
}

// NewTrackStore returns an empty store keeping at most window speeds per track.
// window must be positive, NewAnalyzer validates it before getting here.
func NewTrackStore(window int) *TrackStore {
	return &TrackStore{
		window: window,
		tracks: make(map[int]*Track),
	}
}

// Update folds one observation of track id into the store.
// On first sighting the track is created and ok is false: there is no previous
// position to measure against. Otherwise the returned speed is the
// instantaneous reading, the windowed mean is on the track itself.
// Tracks updated this way carry no frame number and are never pruned.
func (s *TrackStore) Update(id int, position image.Point, classID int, className string, fps float64) (speed float64, ok bool) {
	return s.UpdateAt(noFrame, id, position, classID, className, fps)
}

// UpdateAt is Update for an observation made at frame, which Prune ages
// tracks against.
func (s *TrackStore) UpdateAt(frame, id int, position image.Point, classID int, className string, fps float64) (speed float64, ok bool) {
	track, exists := s.tracks[id]
	if !exists {
		s.tracks[id] = &Track{
			ID:           id,
			Position:     position,
			ClassID:      classID,
			ClassName:    className,
			SpeedHistory: make([]float64, 0, s.window),
			lastFrame:    frame,
		}
		return 0, false
	}

	speed = EstimateSpeed(position, track.Position, fps)

	track.SpeedHistory = append(track.SpeedHistory, speed)
	if len(track.SpeedHistory) > s.window {
		// drop the oldest reading, copy down so the backing array does not creep
		copy(track.SpeedHistory, track.SpeedHistory[1:])
		track.SpeedHistory = track.SpeedHistory[:s.window]
	}
	track.SmoothedSpeed = stat.Mean(track.SpeedHistory, nil)

	track.Position = position
	track.ClassID = classID
	track.ClassName = className
	track.lastFrame = frame

	return speed, true
}

// Get returns the track for id, or nil if it was never seen (or was pruned).
func (s *TrackStore) Get(id int) *Track {
	return s.tracks[id]
}

// Len returns the number of tracks held.
func (s *TrackStore) Len() int {
	return len(s.tracks)
}

// Prune drops tracks whose last update is more than ttl frames before frame and
// returns how many were removed. A non-positive ttl keeps everything, and so do
// tracks last fed through Update.
func (s *TrackStore) Prune(frame, ttl int) int {
	if ttl <= 0 {
		return 0
	}

	removed := 0
	for id, track := range s.tracks {
		if track.lastFrame != noFrame && frame-track.lastFrame > ttl {
			delete(s.tracks, id)
			removed++
		}
	}

	return removed
}
