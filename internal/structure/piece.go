package structure

import "structfill/internal/world"

// Piece is one component of a generated structure.
type Piece struct {
	Name   string            `json:"name"`
	Bounds world.BoundingBox `json:"bounds"`
	Origin world.BlockPos    `json:"origin"`
	// GroundLevelDelta is the vertical offset from Origin to the height the
	// piece expects to rest on.
	GroundLevelDelta int       `json:"groundLevelDelta"`
	Placement        Placement `json:"placement"`
}

// TargetLevel is the y of the topmost ground block the piece should sit on.
func (p Piece) TargetLevel() int {
	return p.Origin.Y + (p.GroundLevelDelta - 1)
}

// IntersectsChunk reports whether the piece footprint touches the chunk grown
// by margin blocks on every horizontal side.
func (p Piece) IntersectsChunk(pos world.ChunkPos, margin int) bool {
	return p.Bounds.IntersectsArea(
		pos.MinBlockX()-margin,
		pos.MinBlockZ()-margin,
		pos.MaxBlockX()+margin,
		pos.MaxBlockZ()+margin,
	)
}
