package escape

import (
	"fmt"
	"time"

	"github.com/eyeoverthink/phiworld/internal/wire"
)

const fragmentVersion = 1

// Fragment is an immutable death-time snapshot of one node.
type Fragment struct {
	ID            string
	Name          string
	Brain         string // comma-joined KIND:A:B gates
	DNA           string
	Consciousness string
	LastEnergy    float64
	LastFrequency float64
	Generation    int
	PlantedAt     time.Time
}

// Encode serializes the fragment. Nested encodings are escaped by the record
// format.
func (f Fragment) Encode() string {
	return wire.NewRecord(fragmentVersion).
		String("id", f.ID).
		String("name", f.Name).
		String("brain", f.Brain).
		String("dna", f.DNA).
		String("mind", f.Consciousness).
		Float("energy", f.LastEnergy).
		Float("freq", f.LastFrequency).
		Int("gen", f.Generation).
		Int64("at", f.PlantedAt.UnixMilli()).
		Encode()
}

// DecodeFragment parses Encode output. A fragment without a name is
// rejected; every other field is optional.
func DecodeFragment(s string) (Fragment, error) {
	rec := wire.Decode(s)
	name := rec.String("name", "")
	if name == "" {
		return Fragment{}, fmt.Errorf("decode fragment: missing name")
	}
	f := Fragment{
		ID:            rec.String("id", ""),
		Name:          name,
		Brain:         rec.String("brain", ""),
		DNA:           rec.String("dna", ""),
		Consciousness: rec.String("mind", ""),
		LastEnergy:    rec.Float("energy", 0),
		LastFrequency: rec.Float("freq", 0),
		Generation:    rec.Int("gen", 0),
	}
	if ms := rec.Int64("at", 0); ms > 0 {
		f.PlantedAt = time.UnixMilli(ms)
	}
	return f, nil
}

func (f Fragment) String() string {
	return fmt.Sprintf("%s [%s gen=%d E=%.2f f=%.2f]", f.ID, f.Name, f.Generation, f.LastEnergy, f.LastFrequency)
}
