package terrainbase

import (
	"testing"

	"structfill/internal/structure"
	"structfill/internal/world"
)

func villageIndex(t *testing.T) *structure.MemoryIndex {
	t.Helper()
	index := structure.NewMemoryIndex(12)
	start := structure.Start{
		Category: "village",
		Chunk:    world.ChunkPos{X: 6, Z: 6},
		Pieces:   []structure.Piece{rigid(100, 100, 115, 115, 64, 1)},
	}
	if err := index.Put(start); err != nil {
		t.Fatalf("Put: %v", err)
	}
	return index
}

func TestFlattenFillsUnderFootprint(t *testing.T) {
	index := villageIndex(t)
	builder := New(flattenConfig())
	chunk := newFlatChunk(t, world.ChunkPos{X: 6, Z: 6}, 60)

	stats := builder.Flatten(index, chunk, 96, 96)
	if stats.Pieces != 1 {
		t.Fatalf("expected one piece, got %+v", stats)
	}
	if stats.Columns < 144 || stats.Blocks < 576 {
		t.Fatalf("expected at least the footprint to be filled, got %+v", stats)
	}

	for z := 100; z <= 111; z++ {
		for x := 100; x <= 111; x++ {
			lx, lz := x&15, z&15
			for y := 61; y <= 64; y++ {
				if got := chunk.Block(lx, y, lz); got.Material != world.MaterialStone || !got.IsSolid() {
					t.Fatalf("column %d,%d: expected filler at y=%d, got %+v", x, z, y, got)
				}
			}
			if got := chunk.Block(lx, 65, lz); !got.IsAir() {
				t.Fatalf("column %d,%d: fill rose above the target level", x, z)
			}
		}
	}
}

func TestFlattenLeavesColumnsBeyondRadius(t *testing.T) {
	index := villageIndex(t)
	builder := New(flattenConfig())
	chunk := newFlatChunk(t, world.ChunkPos{X: 5, Z: 6}, 60)

	builder.Flatten(index, chunk, 80, 96)

	// Radius is 11 for a 15 wide footprint; from x=89 westward the squared
	// distance is at least 121 and never below the noise-scaled radius.
	for z := 0; z < world.ChunkSize; z++ {
		for x := 80; x <= 89; x++ {
			if top := columnTop(chunk, x&15, z); top != 60 {
				t.Fatalf("column %d,%d beyond the apron changed to %d", x, 96+z, top)
			}
		}
	}
}

func TestFlattenWithoutPiecesDoesNothing(t *testing.T) {
	builder := New(flattenConfig())
	chunk := newFlatChunk(t, world.ChunkPos{X: 0, Z: 0}, 60)
	before := snapshot(chunk)

	if stats := builder.Flatten(structure.NewMemoryIndex(12), chunk, 0, 0); stats != (Stats{}) {
		t.Fatalf("expected no work, got %+v", stats)
	}
	if len(snapshot(chunk)) != len(before) {
		t.Fatalf("chunk changed without pieces")
	}
}
