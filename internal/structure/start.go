package structure

import "structfill/internal/world"

// Start is a structure anchored at a chunk, together with all of its pieces.
type Start struct {
	Category string
	Chunk    world.ChunkPos
	Pieces   []Piece
}

// Valid reports whether the start describes a structure that was actually
// placed. Starts without pieces are placeholders.
func (s *Start) Valid() bool {
	return s != nil && len(s.Pieces) > 0
}

// Bounds encloses every piece of the start. The second result is false when
// the start has no pieces.
func (s *Start) Bounds() (world.BoundingBox, bool) {
	if !s.Valid() {
		return world.BoundingBox{}, false
	}
	box := s.Pieces[0].Bounds
	for _, piece := range s.Pieces[1:] {
		box = box.Union(piece.Bounds)
	}
	return box, true
}

// referencedChunks lists the chunks that should hold a reference to the start:
// its own chunk and every chunk touched by its bounds grown by margin.
func referencedChunks(start *Start, margin int) []world.ChunkPos {
	out := []world.ChunkPos{start.Chunk}
	box, ok := start.Bounds()
	if !ok {
		return out
	}
	box = box.ExpandHorizontal(margin)
	lo := world.ChunkPosForBlock(box.MinX, box.MinZ)
	hi := world.ChunkPosForBlock(box.MaxX, box.MaxZ)
	for z := lo.Z; z <= hi.Z; z++ {
		for x := lo.X; x <= hi.X; x++ {
			pos := world.ChunkPos{X: x, Z: z}
			if pos != start.Chunk {
				out = append(out, pos)
			}
		}
	}
	return out
}
