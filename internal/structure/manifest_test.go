package structure

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"structfill/internal/world"
)

const sampleManifestYAML = `
structures:
  - category: village
    chunk: {x: 6, z: 6}
    pieces:
      - name: town_center
        bounds:
          min: {x: 100, y: 64, z: 100}
          max: {x: 115, y: 72, z: 115}
        origin: {x: 100, y: 64, z: 100}
        groundLevelDelta: 1
        placement: rigid
      - name: street
        bounds:
          min: {x: 116, y: 63, z: 104}
          max: {x: 140, y: 63, z: 106}
        origin: {x: 116, y: 63, z: 104}
        placement: terrain_fitting
  - category: pillager_outpost
    pieces:
      - bounds:
          min: {x: -40, y: 70, z: 8}
          max: {x: -30, y: 90, z: 18}
        origin: {x: -40, y: 70, z: 8}
        groundLevelDelta: 2
        placement: rigid
`

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifestYAML(t *testing.T) {
	manifest, err := LoadManifest(writeManifest(t, "structures.yaml", sampleManifestYAML))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	starts := manifest.Starts()
	if len(starts) != 2 {
		t.Fatalf("expected two starts, got %d", len(starts))
	}
	village := starts[0]
	if village.Chunk != (world.ChunkPos{X: 6, Z: 6}) {
		t.Fatalf("unexpected village chunk %v", village.Chunk)
	}
	if village.Pieces[1].Placement != TerrainFitting {
		t.Fatalf("expected second piece to fit terrain")
	}
	if want := (world.BoundingBox{MinX: 100, MinY: 64, MinZ: 100, MaxX: 115, MaxY: 72, MaxZ: 115}); village.Pieces[0].Bounds != want {
		t.Fatalf("unexpected bounds %+v", village.Pieces[0].Bounds)
	}

	outpost := starts[1]
	if outpost.Chunk != (world.ChunkPos{X: -3, Z: 0}) {
		t.Fatalf("expected outpost anchored at origin chunk, got %v", outpost.Chunk)
	}
	if outpost.Pieces[0].GroundLevelDelta != 2 {
		t.Fatalf("groundLevelDelta not decoded")
	}
}

func TestLoadManifestJSON(t *testing.T) {
	const doc = `{"structures":[{"category":"village","pieces":[{"bounds":{"min":{"x":0,"y":0,"z":0},"max":{"x":4,"y":4,"z":4}},"origin":{"x":0,"y":0,"z":0},"placement":"rigid"}]}]}`
	manifest, err := LoadManifest(writeManifest(t, "structures.json", doc))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	index := NewMemoryIndex(12)
	if err := manifest.Apply(index); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := index.StructureStart(world.ChunkPos{}, "village"); !ok {
		t.Fatalf("expected applied start in index")
	}
}

func TestDecodeManifestRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown placement",
			doc:  `{"structures":[{"category":"village","pieces":[{"bounds":{"min":{"x":0,"y":0,"z":0},"max":{"x":1,"y":1,"z":1}},"origin":{"x":0,"y":0,"z":0},"placement":"hover"}]}]}`,
			want: "validate manifest",
		},
		{
			name: "missing category",
			doc:  `{"structures":[{"pieces":[{"bounds":{"min":{"x":0,"y":0,"z":0},"max":{"x":1,"y":1,"z":1}},"origin":{"x":0,"y":0,"z":0},"placement":"rigid"}]}]}`,
			want: "validate manifest",
		},
		{
			name: "fractional coordinate",
			doc:  `{"structures":[{"category":"village","pieces":[{"bounds":{"min":{"x":0.5,"y":0,"z":0},"max":{"x":1,"y":1,"z":1}},"origin":{"x":0,"y":0,"z":0},"placement":"rigid"}]}]}`,
			want: "validate manifest",
		},
		{
			name: "inverted bounds",
			doc:  `{"structures":[{"category":"village","pieces":[{"bounds":{"min":{"x":5,"y":0,"z":0},"max":{"x":1,"y":1,"z":1}},"origin":{"x":0,"y":0,"z":0},"placement":"rigid"}]}]}`,
			want: "min exceeds max",
		},
		{
			name: "malformed",
			doc:  `{"structures":`,
			want: "parse manifest",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeManifest([]byte(tt.doc), false)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml")); err == nil || !strings.Contains(err.Error(), "read manifest") {
		t.Fatalf("expected read error, got %v", err)
	}
}
