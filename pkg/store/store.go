package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trafficlens/congestion/pkg/congestion"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no run matches the query.
var ErrNotFound = errors.New("run not found")

// Store archives analysis runs and their per-frame verdicts.
// Nothing in it is ever loaded back into an analyzer.
type Store struct {
	db *sql.DB
}

// Run describes one analysis of a video.
type Run struct {
	ID               string     `json:"id"`
	Video            string     `json:"video"`
	FPS              float64    `json:"fps"`
	VehicleThreshold int        `json:"vehicle_threshold"`
	SpeedThreshold   float64    `json:"speed_threshold"`
	SpeedWindow      int        `json:"speed_window"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	UniqueTotal      int        `json:"unique_total"`
}

// Summary is the report served for a run.
type Summary struct {
	Run
	Frames          int                     `json:"frames"`
	CongestedFrames int                     `json:"congested_frames"`
	MeanSpeed       float64                 `json:"mean_speed"`
	UniqueCounts    []congestion.ClassCount `json:"unique_counts"`
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer at a time, sqlite serializes them anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema.
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			video TEXT NOT NULL,
			fps REAL NOT NULL,
			vehicle_threshold INTEGER NOT NULL,
			speed_threshold REAL NOT NULL,
			speed_window INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			unique_total INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS frames (
			run_id TEXT NOT NULL,
			frame INTEGER NOT NULL,
			vehicle_count INTEGER NOT NULL,
			mean_speed REAL NOT NULL,
			congested INTEGER NOT NULL,
			PRIMARY KEY (run_id, frame),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE TABLE IF NOT EXISTS unique_counts (
			run_id TEXT NOT NULL,
			class_name TEXT NOT NULL,
			ord INTEGER NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (run_id, class_name),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_video_time ON runs(video, started_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// CreateRun records the start of an analysis and returns it with a fresh id.
func (s *Store) CreateRun(video string, fps float64, cfg congestion.Config) (*Run, error) {
	run := &Run{
		ID:               uuid.New().String(),
		Video:            video,
		FPS:              fps,
		VehicleThreshold: cfg.VehicleThreshold,
		SpeedThreshold:   cfg.SpeedThreshold,
		SpeedWindow:      cfg.SpeedWindow,
		StartedAt:        time.Now().UTC(),
	}

	query := `INSERT INTO runs (id, video, fps, vehicle_threshold, speed_threshold, speed_window, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, run.ID, run.Video, run.FPS, run.VehicleThreshold, run.SpeedThreshold, run.SpeedWindow, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// SaveFrame stores the verdict of one analyzed frame.
func (s *Store) SaveFrame(runID string, res *congestion.FrameResult) error {
	query := `INSERT INTO frames (run_id, frame, vehicle_count, mean_speed, congested)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, frame) DO UPDATE SET
			vehicle_count = excluded.vehicle_count,
			mean_speed = excluded.mean_speed,
			congested = excluded.congested`

	_, err := s.db.Exec(query, runID, res.Frame, res.VehicleCount, res.MeanInstantSpeed, res.IsCongested)
	if err != nil {
		return fmt.Errorf("failed to save frame %d: %w", res.Frame, err)
	}
	return nil
}

// FinishRun stamps the run as done and stores the cumulative unique counts.
func (s *Store) FinishRun(runID string, counts []congestion.ClassCount) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	total := 0
	for i, c := range counts {
		total += c.Count
		_, err := tx.Exec(`INSERT INTO unique_counts (run_id, class_name, ord, count) VALUES (?, ?, ?, ?)
			ON CONFLICT(run_id, class_name) DO UPDATE SET ord = excluded.ord, count = excluded.count`,
			runID, c.ClassName, i, c.Count)
		if err != nil {
			return fmt.Errorf("failed to save unique count: %w", err)
		}
	}

	result, err := tx.Exec(`UPDATE runs SET finished_at = ?, unique_total = ? WHERE id = ?`, time.Now().UTC(), total, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// LatestRun returns the most recently started run of video.
func (s *Store) LatestRun(video string) (*Run, error) {
	query := `SELECT id, video, fps, vehicle_threshold, speed_threshold, speed_window, started_at, finished_at, unique_total
		FROM runs WHERE video = ? ORDER BY started_at DESC LIMIT 1`

	return s.scanRun(s.db.QueryRow(query, video))
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(runID string) (*Run, error) {
	query := `SELECT id, video, fps, vehicle_threshold, speed_threshold, speed_window, started_at, finished_at, unique_total
		FROM runs WHERE id = ?`

	return s.scanRun(s.db.QueryRow(query, runID))
}

func (s *Store) scanRun(row *sql.Row) (*Run, error) {
	run := &Run{}
	var finishedAt sql.NullTime

	err := row.Scan(&run.ID, &run.Video, &run.FPS, &run.VehicleThreshold, &run.SpeedThreshold, &run.SpeedWindow,
		&run.StartedAt, &finishedAt, &run.UniqueTotal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return run, nil
}

// RunSummary aggregates the frames and unique counts of a run.
func (s *Store) RunSummary(runID string) (*Summary, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Run: *run, UniqueCounts: make([]congestion.ClassCount, 0)}

	err = s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(congested), 0), COALESCE(AVG(mean_speed), 0) FROM frames WHERE run_id = ?`, runID).
		Scan(&summary.Frames, &summary.CongestedFrames, &summary.MeanSpeed)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate frames: %w", err)
	}

	rows, err := s.db.Query(`SELECT class_name, count FROM unique_counts WHERE run_id = ? ORDER BY ord`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unique counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c congestion.ClassCount
		if err := rows.Scan(&c.ClassName, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan unique count: %w", err)
		}
		summary.UniqueCounts = append(summary.UniqueCounts, c)
	}

	return summary, rows.Err()
}
