// Package theme provides the color palettes of the phiworld terminal views.
// Colors are hex codes; rendering is left to the views.
package theme

import (
	"fmt"
	"sort"
)

// DefaultID is the palette used when none is configured.
const DefaultID = "midnight"

// ═══════════════════════════════════════════════════════════════════════════════
// PALETTE DEFINITION
// ═══════════════════════════════════════════════════════════════════════════════

// Palette defines the semantic colors of a theme.
type Palette struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Type string `json:"type"` // "light" or "dark"

	Foreground string `json:"foreground"`
	Border     string `json:"border"`

	Primary   string `json:"primary"`   // titles, prompt
	Secondary string `json:"secondary"` // labels, status lines
	Success   string `json:"success"`   // healthy energy, confirmations
	Warning   string `json:"warning"`   // births, deaths, middling energy
	Error     string `json:"error"`     // command errors, starving nodes

	Muted  string `json:"muted"`            // log lines
	Accent string `json:"accent,omitempty"` // highlights
}

// IsDark returns true if this is a dark theme.
func (p Palette) IsDark() bool {
	return p.Type == "dark"
}

// GetMuted returns the muted color or falls back to secondary.
func (p Palette) GetMuted() string {
	if p.Muted != "" {
		return p.Muted
	}
	return p.Secondary
}

// GetAccent returns the accent color or falls back to primary.
func (p Palette) GetAccent() string {
	if p.Accent != "" {
		return p.Accent
	}
	return p.Primary
}

// ═══════════════════════════════════════════════════════════════════════════════
// THEME REGISTRY
// ═══════════════════════════════════════════════════════════════════════════════

// Registry holds all available themes.
var Registry = map[string]Palette{
	// Midnight - dark theme with a blue accent
	"midnight": {
		Name:       "Midnight",
		ID:         "midnight",
		Type:       "dark",
		Foreground: "#e6edf3",
		Border:     "#30363d",
		Primary:    "#58a6ff",
		Secondary:  "#8b949e",
		Success:    "#3fb950",
		Warning:    "#d29922",
		Error:      "#f85149",
		Muted:      "#484f58",
		Accent:     "#d2a8ff",
	},

	// Neon - high contrast cyan and magenta
	"neon": {
		Name:       "Neon",
		ID:         "neon",
		Type:       "dark",
		Foreground: "#e0f7ff",
		Border:     "#1a1a3e",
		Primary:    "#00fff5",
		Secondary:  "#8892b0",
		Success:    "#00ff88",
		Warning:    "#ffd93d",
		Error:      "#ff2e63",
		Muted:      "#4a5568",
		Accent:     "#ff00ff",
	},

	// Golden - warm amber palette
	"golden": {
		Name:       "Golden",
		ID:         "golden",
		Type:       "dark",
		Foreground: "#f5e6c8",
		Border:     "#5c4a2e",
		Primary:    "#ffb000",
		Secondary:  "#b39b72",
		Success:    "#9ccc65",
		Warning:    "#ff8f00",
		Error:      "#ef5350",
		Muted:      "#6d5c43",
	},

	// Daylight - light theme for bright terminals
	"daylight": {
		Name:       "Daylight",
		ID:         "daylight",
		Type:       "light",
		Foreground: "#1f2328",
		Border:     "#d0d7de",
		Primary:    "#0969da",
		Secondary:  "#57606a",
		Success:    "#1a7f37",
		Warning:    "#9a6700",
		Error:      "#cf222e",
		Muted:      "#8c959f",
		Accent:     "#8250df",
	},
}

// Get returns the palette with the given ID.
func Get(id string) (Palette, error) {
	p, ok := Registry[id]
	if !ok {
		return Palette{}, fmt.Errorf("unknown theme %q (available: %v)", id, IDs())
	}
	return p, nil
}

// Default returns the default palette.
func Default() Palette {
	return Registry[DefaultID]
}

// IDs returns the registered theme IDs, sorted.
func IDs() []string {
	ids := make([]string, 0, len(Registry))
	for id := range Registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
