package terrainbase

import (
	"structfill/internal/structure"
	"structfill/internal/world"
)

// Collect gathers the rigid pieces of every referenced structure start that
// come within the search margin of the chunk at pos. Missing and invalid
// starts are skipped.
func (b *Builder) Collect(lookup structure.Lookup, pos world.ChunkPos) []structure.Piece {
	var pieces []structure.Piece
	for _, category := range b.categories {
		for _, id := range lookup.StructureReferences(pos, category) {
			start, ok := lookup.StructureStart(world.ChunkPosFromID(id), category)
			if !ok || !start.Valid() {
				continue
			}
			for _, piece := range start.Pieces {
				if !piece.IntersectsChunk(pos, b.margin) {
					continue
				}
				if piece.Placement != structure.Rigid {
					continue
				}
				pieces = append(pieces, piece)
			}
		}
	}
	return pieces
}
