package world

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	previewPixelsPerBlock = 8
	previewAmbientLight   = 0.35
)

// SaveChunkPreview renders a top-down PNG of the chunk surface. Each column is
// drawn in the colour of its topmost block, shaded by the height difference to
// its north-west neighbour so steps and aprons stand out.
func SaveChunkPreview(chunk *Chunk, outputDir string) (string, error) {
	if chunk == nil {
		return "", fmt.Errorf("chunk is nil")
	}
	if err := ensurePreviewDir(outputDir); err != nil {
		return "", err
	}

	img := renderSurface(chunk)

	path := filepath.Join(outputDir, fmt.Sprintf("chunk_%d_%d.png", chunk.Key.X, chunk.Key.Z))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create preview: %w", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return path, nil
}

func renderSurface(chunk *Chunk) *image.NRGBA {
	size := ChunkSize * previewPixelsPerBlock
	img := image.NewNRGBA(image.Rect(0, 0, size, size))

	var heights [ChunkSize][ChunkSize]int
	var tops [ChunkSize][ChunkSize]Block
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			top := chunk.TopBlockY(HeightmapWorldSurface, x, z)
			heights[x][z] = top
			tops[x][z] = chunk.Block(x, top-1, z)
		}
	}

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			light := 0.75
			if x > 0 && z > 0 {
				light += 0.08 * float64(heights[x][z]-heights[x-1][z-1])
			}
			col := applyLighting(resolveBlockColor(tops[x][z]), light)
			fillRect(img, x*previewPixelsPerBlock, z*previewPixelsPerBlock, previewPixelsPerBlock, col)
		}
	}
	return img
}

func fillRect(img *image.NRGBA, x0, y0, size int, col color.NRGBA) {
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			img.SetNRGBA(x, y, col)
		}
	}
}

func resolveBlockColor(block Block) color.NRGBA {
	if blockIsAir(block) {
		return color.NRGBA{R: 10, G: 10, B: 18, A: 255}
	}
	if hex, ok := DefaultAppearances[block.Material]; ok {
		if col, ok := parseHexColor(hex); ok {
			return col
		}
	}
	return color.NRGBA{R: 128, G: 128, B: 128, A: 255}
}

func parseHexColor(value string) (color.NRGBA, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(trimmed) != 6 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}

func applyLighting(base color.NRGBA, factor float64) color.NRGBA {
	factor = clamp(factor, previewAmbientLight, 1)
	r := uint8(math.Round(float64(base.R) * factor))
	g := uint8(math.Round(float64(base.G) * factor))
	b := uint8(math.Round(float64(base.B) * factor))
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func ensurePreviewDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("output directory is empty")
	}
	return os.MkdirAll(dir, 0o755)
}
