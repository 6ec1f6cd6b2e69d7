// Package config provides configuration management for phiworld hosts.
//
// # Overview
//
// Configuration is loaded with Viper from a YAML file and environment
// variables. The file lives at ~/.phiworld/config.yaml and is created with
// default values on first use.
//
// # Environment Variables
//
// Every value can be overridden with a PHIWORLD_ variable; nested keys are
// joined with underscores:
//   - PHIWORLD_WORLD_SEED=42
//   - PHIWORLD_WORLD_MAX_POPULATION=50
//   - PHIWORLD_STORAGE_DRIVER=sqlite3
//   - PHIWORLD_LOGGING_LEVEL=debug
//
// # Configuration Sections
//
//   - world: seed, tick length, bounds, population cap, lifecycle thresholds
//     and law cadences
//   - archive: resurrection energy and fragment rehydration
//   - ledger: in-memory block window
//   - storage: SQLite driver and data directory
//   - metrics: tick sampling
//   - stream: WebSocket event stream address
//   - logging: level and log file
//
// Config values are converted into the simulation's own types with
// NodeParams, Laws and Escape.
package config
