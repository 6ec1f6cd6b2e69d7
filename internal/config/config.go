package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/eyeoverthink/phiworld/internal/escape"
	"github.com/eyeoverthink/phiworld/internal/laws"
	"github.com/eyeoverthink/phiworld/internal/node"
	"github.com/eyeoverthink/phiworld/internal/theme"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PHIWORLD"

// Config holds all configuration of a phiworld host. It is loaded from
// ~/.phiworld/config.yaml and can be overridden by environment variables.
type Config struct {
	World   WorldConfig   `mapstructure:"world" yaml:"world"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	Ledger  LedgerConfig  `mapstructure:"ledger" yaml:"ledger"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Stream  StreamConfig  `mapstructure:"stream" yaml:"stream"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	UI      UIConfig      `mapstructure:"ui" yaml:"ui"`
}

// WorldConfig tunes the simulation.
type WorldConfig struct {
	// Seed drives every random stream; runs with the same seed and
	// configuration are identical.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
	// DT is the simulated seconds per tick.
	DT float64 `mapstructure:"dt" yaml:"dt"`
	// TickRate is the number of ticks per wall-clock second for real-time
	// hosts (shell, watch, serve).
	TickRate int `mapstructure:"tick_rate" yaml:"tick_rate"`
	// InitialNodes is the size of the founding population.
	InitialNodes int `mapstructure:"initial_nodes" yaml:"initial_nodes"`

	Bounds BoundsConfig `mapstructure:"bounds" yaml:"bounds"`

	MaxPopulation   int     `mapstructure:"max_population" yaml:"max_population"`
	EnergyDecay     float64 `mapstructure:"energy_decay" yaml:"energy_decay"`
	SizeThreshold   float64 `mapstructure:"size_threshold" yaml:"size_threshold"`
	EnergyThreshold float64 `mapstructure:"energy_threshold" yaml:"energy_threshold"`
	ChildEnergy     float64 `mapstructure:"child_energy" yaml:"child_energy"`
	EagerEnergy     float64 `mapstructure:"eager_energy" yaml:"eager_energy"`

	BrainCadence        int     `mapstructure:"brain_cadence" yaml:"brain_cadence"`
	ReproductionCadence int     `mapstructure:"reproduction_cadence" yaml:"reproduction_cadence"`
	NeighborRadius      float64 `mapstructure:"neighbor_radius" yaml:"neighbor_radius"`
	MaxSpeed            float64 `mapstructure:"max_speed" yaml:"max_speed"`
}

// BoundsConfig is the world rectangle.
type BoundsConfig struct {
	MinX float64 `mapstructure:"min_x" yaml:"min_x"`
	MaxX float64 `mapstructure:"max_x" yaml:"max_x"`
	MinY float64 `mapstructure:"min_y" yaml:"min_y"`
	MaxY float64 `mapstructure:"max_y" yaml:"max_y"`
}

// ArchiveConfig tunes resurrection.
type ArchiveConfig struct {
	EnergyFloor  float64 `mapstructure:"energy_floor" yaml:"energy_floor"`
	EnergyFactor float64 `mapstructure:"energy_factor" yaml:"energy_factor"`
	// Rehydrate reloads stored fragments into the archive on start.
	Rehydrate bool `mapstructure:"rehydrate" yaml:"rehydrate"`
}

// LedgerConfig bounds the in-memory ledger window.
type LedgerConfig struct {
	Window int `mapstructure:"window" yaml:"window"`
}

// StorageConfig selects the SQLite database.
type StorageConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver  string `mapstructure:"driver" yaml:"driver"`
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
}

// MetricsConfig controls tick sampling.
type MetricsConfig struct {
	Enabled     bool `mapstructure:"enabled" yaml:"enabled"`
	SampleEvery int  `mapstructure:"sample_every" yaml:"sample_every"`
}

// StreamConfig configures the WebSocket event stream.
type StreamConfig struct {
	Addr   string `mapstructure:"addr" yaml:"addr"`
	Replay int    `mapstructure:"replay" yaml:"replay"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// UIConfig styles the terminal views.
type UIConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// Default returns the standard configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".phiworld")

	params := node.DefaultParams()
	lawCfg := laws.DefaultConfig()
	archive := escape.DefaultConfig()

	return &Config{
		World: WorldConfig{
			Seed:         1618,
			DT:           1.0 / 60,
			TickRate:     60,
			InitialNodes: 8,
			Bounds: BoundsConfig{
				MinX: lawCfg.Bounds.MinX,
				MaxX: lawCfg.Bounds.MaxX,
				MinY: lawCfg.Bounds.MinY,
				MaxY: lawCfg.Bounds.MaxY,
			},
			MaxPopulation:       lawCfg.Reproduction.MaxPopulation,
			EnergyDecay:         params.EnergyDecay,
			SizeThreshold:       params.SizeThreshold,
			EnergyThreshold:     params.EnergyThreshold,
			ChildEnergy:         params.ChildEnergy,
			EagerEnergy:         lawCfg.Reproduction.EagerEnergy,
			BrainCadence:        lawCfg.Brain.Cadence,
			ReproductionCadence: lawCfg.Reproduction.Cadence,
			NeighborRadius:      lawCfg.Brain.NeighborRadius,
			MaxSpeed:            lawCfg.Brain.MaxSpeed,
		},
		Archive: ArchiveConfig{
			EnergyFloor:  archive.EnergyFloor,
			EnergyFactor: archive.EnergyFactor,
			Rehydrate:    true,
		},
		Ledger: LedgerConfig{Window: 4096},
		Storage: StorageConfig{
			Enabled: true,
			Driver:  "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Metrics: MetricsConfig{Enabled: true, SampleEvery: 60},
		Stream:  StreamConfig{Addr: "127.0.0.1:8765", Replay: 100},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(baseDir, "logs", "phiworld.log"),
		},
		UI: UIConfig{Theme: theme.DefaultID},
	}
}

// DefaultPath returns ~/.phiworld/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".phiworld", "config.yaml"), nil
}

// Load reads the default config file, creating it with defaults if it does
// not exist.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads configuration from path and merges environment
// overrides such as PHIWORLD_WORLD_MAX_POPULATION=50. A missing file is
// created with default values first.
func LoadFromPath(path string) (*Config, error) {
	path = expandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from the defaults so keys missing from an older file keep
	// their standard values.
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.DataDir = expandPath(cfg.Storage.DataDir)
	cfg.Logging.File = expandPath(cfg.Logging.File)
	return cfg, nil
}

// SaveToPath writes the configuration as YAML.
func (c *Config) SaveToPath(path string) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return writeConfigFile(path, c)
}

// YAML renders the configuration as it would be saved.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// Validate checks the configuration for values the simulation cannot run
// with.
func (c *Config) Validate() error {
	w := c.World
	if w.DT <= 0 {
		return fmt.Errorf("world.dt must be positive")
	}
	if w.TickRate <= 0 {
		return fmt.Errorf("world.tick_rate must be positive")
	}
	if w.InitialNodes < 0 {
		return fmt.Errorf("world.initial_nodes cannot be negative")
	}
	if w.Bounds.MinX >= w.Bounds.MaxX || w.Bounds.MinY >= w.Bounds.MaxY {
		return fmt.Errorf("world.bounds must have min < max on both axes")
	}
	if w.MaxPopulation < 1 {
		return fmt.Errorf("world.max_population must be at least 1")
	}
	if w.InitialNodes > w.MaxPopulation {
		return fmt.Errorf("world.initial_nodes (%d) exceeds max_population (%d)", w.InitialNodes, w.MaxPopulation)
	}
	for name, v := range map[string]float64{
		"energy_threshold": w.EnergyThreshold,
		"child_energy":     w.ChildEnergy,
		"eager_energy":     w.EagerEnergy,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("world.%s must be within [0, 1], got %v", name, v)
		}
	}
	if w.EnergyDecay < 0 {
		return fmt.Errorf("world.energy_decay cannot be negative")
	}
	if w.BrainCadence < 1 || w.ReproductionCadence < 1 {
		return fmt.Errorf("world cadences must be at least 1")
	}

	if c.Archive.EnergyFloor < 0 || c.Archive.EnergyFloor > 1 {
		return fmt.Errorf("archive.energy_floor must be within [0, 1]")
	}
	if c.Archive.EnergyFactor < 0 {
		return fmt.Errorf("archive.energy_factor cannot be negative")
	}
	if c.Ledger.Window < 1 {
		return fmt.Errorf("ledger.window must be at least 1")
	}

	if c.Storage.Enabled {
		if c.Storage.Driver != "sqlite" && c.Storage.Driver != "sqlite3" {
			return fmt.Errorf("invalid storage driver '%s', must be 'sqlite' or 'sqlite3'", c.Storage.Driver)
		}
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir cannot be empty")
		}
	}
	if c.Metrics.Enabled && c.Metrics.SampleEvery < 1 {
		return fmt.Errorf("metrics.sample_every must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}
	if _, err := theme.Get(c.UI.Theme); err != nil {
		return fmt.Errorf("ui.theme: %w", err)
	}
	return nil
}

// NodeParams converts the world section into node lifecycle parameters.
func (c *Config) NodeParams() node.Params {
	p := node.DefaultParams()
	p.SizeThreshold = c.World.SizeThreshold
	p.EnergyThreshold = c.World.EnergyThreshold
	p.EnergyDecay = c.World.EnergyDecay
	p.ChildEnergy = c.World.ChildEnergy
	return p
}

// Laws converts the world section into law tunables.
func (c *Config) Laws() laws.Config {
	cfg := laws.DefaultConfig()
	b := c.World.Bounds
	cfg.Bounds = laws.Region{MinX: b.MinX, MaxX: b.MaxX, MinY: b.MinY, MaxY: b.MaxY}
	cfg.Brain.Cadence = c.World.BrainCadence
	cfg.Brain.NeighborRadius = c.World.NeighborRadius
	cfg.Brain.MaxSpeed = c.World.MaxSpeed
	cfg.Reproduction.Cadence = c.World.ReproductionCadence
	cfg.Reproduction.MaxPopulation = c.World.MaxPopulation
	cfg.Reproduction.EagerEnergy = c.World.EagerEnergy
	return cfg
}

// Escape converts the archive section into resurrection tuning.
func (c *Config) Escape() escape.Config {
	return escape.Config{EnergyFloor: c.Archive.EnergyFloor, EnergyFactor: c.Archive.EnergyFactor}
}

func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
