// Package metrics samples the world every few ticks, keeps a session view
// in memory and, when storage is enabled, writes the samples to SQLite.
package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eyeoverthink/phiworld/internal/bus"
	"github.com/eyeoverthink/phiworld/internal/world"
)

// Sample is one periodic world measurement.
type Sample struct {
	RunID string    `json:"run_id"`
	At    time.Time `json:"at"`
	world.Stats
}

// Sample keys carried in a tick event's Values map.
const (
	keyPopulation    = "population"
	keyPending       = "pending"
	keyBirths        = "births"
	keyDeaths        = "deaths"
	keyEnergy        = "avg_energy"
	keyConsciousness = "avg_consciousness"
	keyCoherence     = "avg_coherence"
	keyGeneration    = "max_generation"
	keyDimension     = "max_dimension"
	keyInTrial       = "in_trial"
)

// TickEvent packs world stats into a bus event for run.
func TickEvent(runID string, s world.Stats) bus.Event {
	e := bus.NewEvent(bus.EventTick)
	e.Tick = s.Tick
	e.Details = runID
	e.Values = map[string]float64{
		keyPopulation:    float64(s.Population),
		keyPending:       float64(s.Pending),
		keyBirths:        float64(s.Births),
		keyDeaths:        float64(s.Deaths),
		keyEnergy:        s.AvgEnergy,
		keyConsciousness: s.AvgConsciousness,
		keyCoherence:     s.AvgCoherence,
		keyGeneration:    float64(s.MaxGeneration),
		keyDimension:     float64(s.MaxDimension),
		keyInTrial:       float64(s.InTrial),
	}
	return e
}

// SampleFromEvent unpacks a TickEvent.
func SampleFromEvent(e bus.Event) Sample {
	v := e.Values
	return Sample{
		RunID: e.Details,
		At:    e.Timestamp,
		Stats: world.Stats{
			Tick:             e.Tick,
			Population:       int(v[keyPopulation]),
			Pending:          int(v[keyPending]),
			Births:           int64(v[keyBirths]),
			Deaths:           int64(v[keyDeaths]),
			AvgEnergy:        v[keyEnergy],
			AvgConsciousness: v[keyConsciousness],
			AvgCoherence:     v[keyCoherence],
			MaxGeneration:    int(v[keyGeneration]),
			MaxDimension:     int(v[keyDimension]),
			InTrial:          int(v[keyInTrial]),
		},
	}
}

// RunSummary aggregates the stored samples of one run.
type RunSummary struct {
	RunID          string  `json:"run_id"`
	Samples        int64   `json:"samples"`
	FinalTick      int64   `json:"final_tick"`
	PeakPopulation int     `json:"peak_population"`
	MaxGeneration  int     `json:"max_generation"`
	AvgEnergy      float64 `json:"avg_energy"`
	Births         int64   `json:"births"`
	Deaths         int64   `json:"deaths"`
}

// Store keeps samples in the metrics_ticks table.
type Store struct {
	db *sql.DB
}

// NewStore creates the metrics table on db if needed.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := []string{`
	CREATE TABLE IF NOT EXISTS metrics_ticks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		population INTEGER NOT NULL,
		pending INTEGER NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		avg_energy REAL NOT NULL,
		avg_consciousness REAL NOT NULL,
		avg_coherence REAL NOT NULL,
		max_generation INTEGER NOT NULL,
		max_dimension INTEGER NOT NULL,
		in_trial INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_ticks_run ON metrics_ticks(run_id, tick)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Insert stores one sample.
func (s *Store) Insert(ctx context.Context, sm Sample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics_ticks (
			run_id, tick, population, pending, births, deaths,
			avg_energy, avg_consciousness, avg_coherence,
			max_generation, max_dimension, in_trial, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sm.RunID, sm.Tick, sm.Population, sm.Pending, sm.Births, sm.Deaths,
		sm.AvgEnergy, sm.AvgConsciousness, sm.AvgCoherence,
		sm.MaxGeneration, sm.MaxDimension, sm.InTrial, sm.At.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert metrics sample: %w", err)
	}
	return nil
}

// Summary aggregates the samples of runID.
func (s *Store) Summary(ctx context.Context, runID string) (RunSummary, error) {
	sum := RunSummary{RunID: runID}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MAX(tick), 0), COALESCE(MAX(population), 0),
		       COALESCE(MAX(max_generation), 0), COALESCE(AVG(avg_energy), 0),
		       COALESCE(MAX(births), 0), COALESCE(MAX(deaths), 0)
		FROM metrics_ticks WHERE run_id = ?`, runID,
	).Scan(&sum.Samples, &sum.FinalTick, &sum.PeakPopulation, &sum.MaxGeneration, &sum.AvgEnergy, &sum.Births, &sum.Deaths)
	if err != nil {
		return sum, fmt.Errorf("summarize run %s: %w", runID, err)
	}
	return sum, nil
}

// Runs lists run IDs, most recent first.
func (s *Store) Runs(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id FROM metrics_ticks
		GROUP BY run_id ORDER BY MAX(created_at) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}
