package structure

import "fmt"

// Placement describes how a piece relates to the terrain beneath it.
type Placement int

const (
	// Rigid pieces keep their authored shape and need ground built under them.
	Rigid Placement = iota
	// TerrainFitting pieces follow the terrain surface themselves.
	TerrainFitting
)

func (p Placement) String() string {
	switch p {
	case Rigid:
		return "rigid"
	case TerrainFitting:
		return "terrain_fitting"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

func (p Placement) MarshalText() ([]byte, error) {
	switch p {
	case Rigid, TerrainFitting:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("unknown placement %d", int(p))
	}
}

func (p *Placement) UnmarshalText(text []byte) error {
	switch string(text) {
	case "rigid":
		*p = Rigid
	case "terrain_fitting":
		*p = TerrainFitting
	default:
		return fmt.Errorf("unknown placement %q", string(text))
	}
	return nil
}
