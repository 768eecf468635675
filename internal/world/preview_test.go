package world

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveChunkPreviewWritesPNG(t *testing.T) {
	useMemoryStorage(t)

	chunk := NewChunk(ChunkPos{X: 2, Z: -1}, 0, 16)
	for x := 0; x < ChunkSize; x++ {
		chunk.SetColumnBlocks(x, 0, []Block{NewSolid(MaterialStone), NewSolid(MaterialGrass)})
	}

	dir := filepath.Join(t.TempDir(), "preview")
	path, err := SaveChunkPreview(chunk, dir)
	if err != nil {
		t.Fatalf("SaveChunkPreview: %v", err)
	}
	if filepath.Base(path) != "chunk_2_-1.png" {
		t.Fatalf("unexpected preview name %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}

	size := ChunkSize * previewPixelsPerBlock
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		t.Fatalf("unexpected preview size %v", b)
	}

	grass, _ := parseHexColor(DefaultAppearances[MaterialGrass])
	r, g, b, _ := img.At(previewPixelsPerBlock/2, previewPixelsPerBlock/2).RGBA()
	want := applyLighting(grass, 0.75)
	if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
		t.Fatalf("expected grass colour at first column, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestSaveChunkPreviewRequiresDirectory(t *testing.T) {
	chunk := NewChunk(ChunkPos{}, 0, 4)
	if _, err := SaveChunkPreview(chunk, ""); err == nil {
		t.Fatalf("expected error for empty directory")
	}
	if _, err := SaveChunkPreview(nil, t.TempDir()); err == nil {
		t.Fatalf("expected error for nil chunk")
	}
}
