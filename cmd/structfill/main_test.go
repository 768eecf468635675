package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"structfill/internal/config"
	"structfill/internal/world"
)

const testManifest = `
structures:
  - category: village
    chunk: {x: 6, z: 6}
    pieces:
      - name: hall
        bounds:
          min: {x: 100, y: 90, z: 100}
          max: {x: 115, y: 98, z: 115}
        origin: {x: 100, y: 90, z: 100}
        groundLevelDelta: 1
        placement: rigid
`

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "structures.yaml")
	if err := os.WriteFile(manifestPath, []byte(testManifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	t.Cleanup(func() { world.SetStorageProvider(world.NewMemoryStorageProvider()) })

	cfg := config.Default()
	cfg.World.Origin = config.ChunkIndex{X: 6, Z: 6}
	cfg.World.ChunksPerAxis = 2
	cfg.Terrain.Workers = 2
	cfg.Structures.ManifestPath = manifestPath
	cfg.Structures.IndexPath = filepath.Join(dir, "index", "structures.db")
	cfg.Storage.Path = filepath.Join(dir, "chunks")
	cfg.Pipeline.PreviewDir = filepath.Join(dir, "preview")

	summary, err := run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Chunks != 4 {
		t.Fatalf("expected four chunks, got %+v", summary)
	}
	if summary.Pieces != 4 || summary.Blocks == 0 {
		t.Fatalf("expected the hall to be founded in every chunk, got %+v", summary)
	}

	for _, path := range []string{cfg.Structures.IndexPath, filepath.Join(cfg.Storage.Path, "7", "chunk_7.bin"), filepath.Join(cfg.Pipeline.PreviewDir, "chunk_6_6.png")} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to exist: %v", path, err)
		}
	}
}

func TestOpenIndexDefaultsToMemory(t *testing.T) {
	index, err := openIndex(config.StructureConfig{ReferenceMargin: 12})
	if err != nil {
		t.Fatalf("openIndex: %v", err)
	}
	defer index.Close()
	if refs := index.StructureReferences(world.ChunkPos{}, "village"); len(refs) != 0 {
		t.Fatalf("expected empty index, got %v", refs)
	}
}
