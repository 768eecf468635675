package structure

import (
	"reflect"
	"sync"
	"testing"

	"structfill/internal/world"
)

func rigidPiece(minX, minZ, maxX, maxZ int) Piece {
	return Piece{
		Name:             "piece",
		Bounds:           world.BoundingBox{MinX: minX, MinY: 64, MinZ: minZ, MaxX: maxX, MaxY: 72, MaxZ: maxZ},
		Origin:           world.BlockPos{X: minX, Y: 64, Z: minZ},
		GroundLevelDelta: 1,
		Placement:        Rigid,
	}
}

func TestPieceIntersectsChunkWithMargin(t *testing.T) {
	piece := rigidPiece(100, 100, 115, 115)
	tests := []struct {
		name   string
		pos    world.ChunkPos
		margin int
		want   bool
	}{
		{name: "overlapping", pos: world.ChunkPos{X: 6, Z: 6}, margin: 0, want: true},
		{name: "adjacent without margin", pos: world.ChunkPos{X: 8, Z: 6}, margin: 0, want: false},
		{name: "adjacent within margin", pos: world.ChunkPos{X: 8, Z: 6}, margin: 13, want: true},
		{name: "adjacent one block short", pos: world.ChunkPos{X: 8, Z: 6}, margin: 12, want: false},
		{name: "beyond margin", pos: world.ChunkPos{X: 9, Z: 6}, margin: 12, want: false},
		{name: "west within margin", pos: world.ChunkPos{X: 5, Z: 6}, margin: 12, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := piece.IntersectsChunk(tt.pos, tt.margin); got != tt.want {
				t.Fatalf("IntersectsChunk(%v, %d) = %v, want %v", tt.pos, tt.margin, got, tt.want)
			}
		})
	}
	if level := piece.TargetLevel(); level != 64 {
		t.Fatalf("TargetLevel = %d, want 64", level)
	}
}

func TestStartBoundsAndValidity(t *testing.T) {
	var empty *Start
	if empty.Valid() {
		t.Fatalf("nil start must be invalid")
	}
	if (&Start{Category: "village"}).Valid() {
		t.Fatalf("start without pieces must be invalid")
	}

	start := &Start{
		Category: "village",
		Chunk:    world.ChunkPos{X: 6, Z: 6},
		Pieces:   []Piece{rigidPiece(100, 100, 105, 105), rigidPiece(110, 90, 120, 101)},
	}
	box, ok := start.Bounds()
	if !ok {
		t.Fatalf("expected bounds for valid start")
	}
	if box.MinX != 100 || box.MinZ != 90 || box.MaxX != 120 || box.MaxZ != 105 {
		t.Fatalf("unexpected bounds %+v", box)
	}
}

func TestReferencedChunksCoverInflatedBounds(t *testing.T) {
	start := &Start{
		Category: "village",
		Chunk:    world.ChunkPos{X: 6, Z: 6},
		Pieces:   []Piece{rigidPiece(100, 100, 115, 110)},
	}
	got := referencedChunks(start, 0)
	want := []world.ChunkPos{{X: 6, Z: 6}, {X: 7, Z: 6}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("referencedChunks = %v, want %v", got, want)
	}

	inflated := referencedChunks(start, 12)
	if len(inflated) != 9 {
		t.Fatalf("expected 3x3 chunks with margin, got %v", inflated)
	}
}

func TestMemoryIndexRecordsReferences(t *testing.T) {
	index := NewMemoryIndex(12)
	start := Start{
		Category: "village",
		Chunk:    world.ChunkPos{X: 6, Z: 6},
		Pieces:   []Piece{rigidPiece(100, 100, 115, 115)},
	}
	if err := index.Put(start); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := index.Put(start); err != nil {
		t.Fatalf("Put again: %v", err)
	}

	refs := index.StructureReferences(world.ChunkPos{X: 7, Z: 7}, "village")
	if !reflect.DeepEqual(refs, []int64{start.Chunk.ID()}) {
		t.Fatalf("unexpected references %v", refs)
	}
	if refs := index.StructureReferences(world.ChunkPos{X: 7, Z: 7}, "pillager_outpost"); len(refs) != 0 {
		t.Fatalf("references must be scoped by category, got %v", refs)
	}
	if refs := index.StructureReferences(world.ChunkPos{X: 20, Z: 20}, "village"); len(refs) != 0 {
		t.Fatalf("far chunk should hold no references, got %v", refs)
	}

	loaded, ok := index.StructureStart(world.ChunkPosFromID(refs[0]), "village")
	if !ok || !loaded.Valid() {
		t.Fatalf("expected stored start to load")
	}
	loaded.Pieces[0].Name = "mutated"
	again, _ := index.StructureStart(start.Chunk, "village")
	if again.Pieces[0].Name != "piece" {
		t.Fatalf("index must hand out copies")
	}
	if index.Len() != 1 {
		t.Fatalf("expected one start, got %d", index.Len())
	}
}

func TestMemoryIndexRejectsMissingCategory(t *testing.T) {
	index := NewMemoryIndex(0)
	if err := index.Put(Start{Chunk: world.ChunkPos{}}); err == nil {
		t.Fatalf("expected error for start without category")
	}
}

func TestMemoryIndexConcurrentReads(t *testing.T) {
	index := NewMemoryIndex(12)
	for i := 0; i < 8; i++ {
		start := Start{
			Category: "village",
			Chunk:    world.ChunkPos{X: i, Z: 0},
			Pieces:   []Piece{rigidPiece(i*16, 0, i*16+8, 8)},
		}
		if err := index.Put(start); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(x int) {
			defer wg.Done()
			pos := world.ChunkPos{X: x, Z: 0}
			for _, id := range index.StructureReferences(pos, "village") {
				if _, ok := index.StructureStart(world.ChunkPosFromID(id), "village"); !ok {
					t.Errorf("reference %d from %v has no start", id, pos)
				}
			}
		}(i)
	}
	wg.Wait()
}
