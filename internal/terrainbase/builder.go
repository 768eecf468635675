// Package terrainbase builds ground up to the base of rigid structure pieces
// so they neither float nor sink, tapering the fill outward in a
// noise-roughened apron.
package terrainbase

import (
	"math"

	"structfill/internal/config"
	"structfill/internal/noise"
	"structfill/internal/structure"
	"structfill/internal/world"
)

const (
	// MinBorderRadius is the smallest apron radius any piece receives.
	MinBorderRadius = 5
	// minRadius2 keeps the noise-scaled squared radius strictly positive.
	minRadius2 = 1
)

// Chunk is the chunk surface the builder reads and writes. Writes must not
// trigger neighbour updates.
type Chunk interface {
	Pos() world.ChunkPos
	TopBlockY(kind world.HeightmapKind, localX, localZ int) int
	Block(localX, y, localZ int) world.Block
	SetBlock(localX, y, localZ int, block world.Block) bool
}

// Stats summarises the work done for one chunk.
type Stats struct {
	Pieces  int // pieces whose apron reached the chunk
	Columns int // columns that received at least one block
	Blocks  int // blocks written
}

func (s *Stats) add(other Stats) {
	s.Pieces += other.Pieces
	s.Columns += other.Columns
	s.Blocks += other.Blocks
}

// Builder fills terrain under structure pieces. It holds no mutable state and
// may be shared by goroutines working on different chunks.
type Builder struct {
	noise         noise.Field
	radiusFactor  float64
	alphaExponent float64
	margin        int
	categories    []string
	filler        world.Block
}

// New creates a builder whose apron noise is seeded from cfg.Seed.
func New(cfg config.FlattenConfig) *Builder {
	return NewWithNoise(cfg, noise.NewPerlin(cfg.Seed))
}

// NewWithNoise creates a builder that draws its apron noise from field.
func NewWithNoise(cfg config.FlattenConfig, field noise.Field) *Builder {
	exponent := cfg.AlphaExponent
	if exponent <= 0 {
		exponent = 2
	}
	categories := make([]string, len(cfg.Categories))
	copy(categories, cfg.Categories)
	return &Builder{
		noise:         field,
		radiusFactor:  cfg.RadiusFactor,
		alphaExponent: exponent,
		margin:        cfg.SearchMargin,
		categories:    categories,
		filler:        world.NewSolid(cfg.FillerMaterial),
	}
}

// Flatten collects the pieces affecting the chunk and builds their bases.
// originX and originZ are the block coordinates of the chunk's first column.
func (b *Builder) Flatten(lookup structure.Lookup, chunk Chunk, originX, originZ int) Stats {
	pieces := b.Collect(lookup, chunk.Pos())
	if len(pieces) == 0 {
		return Stats{}
	}
	return b.BuildBases(chunk, pieces, originX, originZ)
}

// BuildBases fills the ground beneath each piece inside the chunk whose first
// column is (originX, originZ). Existing solid blocks are never replaced.
func (b *Builder) BuildBases(chunk Chunk, pieces []structure.Piece, originX, originZ int) Stats {
	var stats Stats
	chunkArea := world.BoundingBox{
		MinX: originX,
		MinZ: originZ,
		MaxX: originX + world.ChunkSize - 1,
		MaxZ: originZ + world.ChunkSize - 1,
	}
	for _, piece := range pieces {
		stats.add(b.buildBase(chunk, piece, chunkArea))
	}
	return stats
}

// BorderRadius is the apron radius for a footprint.
func (b *Builder) BorderRadius(footprint world.BoundingBox) int {
	shortSide := min(footprint.SpanX(), footprint.SpanZ())
	return max(MinBorderRadius, roundHalfUp(float64(shortSide)*b.radiusFactor))
}

func (b *Builder) buildBase(chunk Chunk, piece structure.Piece, chunkArea world.BoundingBox) Stats {
	footprint := piece.Bounds
	radius := b.BorderRadius(footprint)
	area, ok := footprint.ExpandHorizontal(radius).Intersection(chunkArea)
	if !ok {
		return Stats{}
	}

	stats := Stats{Pieces: 1}
	target := piece.TargetLevel()
	border2 := float64(radius * radius)
	for z := area.MinZ; z <= area.MaxZ; z++ {
		for x := area.MinX; x <= area.MaxX; x++ {
			lx, lz := x&(world.ChunkSize-1), z&(world.ChunkSize-1)

			surface := chunk.TopBlockY(world.HeightmapOceanFloor, lx, lz) - 1
			height := target - surface
			if height <= 0 {
				continue
			}

			radius2 := math.Max(minRadius2, border2*b.noise.Sample(x, z))
			alpha := Alpha(footprint, radius2, x, z)
			if alpha == 0 {
				continue
			}
			if alpha < 1 {
				alpha = math.Pow(alpha, b.alphaExponent)
				height = roundHalfUp(alpha * float64(height))
			}

			if written := b.fillColumn(chunk, lx, lz, surface, height); written > 0 {
				stats.Columns++
				stats.Blocks += written
			}
		}
	}
	return stats
}

// fillColumn writes filler from surface+height down to surface, stopping at
// the first solid block.
func (b *Builder) fillColumn(chunk Chunk, lx, lz, surface, height int) int {
	written := 0
	for y := surface + height; y >= surface; y-- {
		if chunk.Block(lx, y, lz).IsSolid() {
			break
		}
		if chunk.SetBlock(lx, y, lz, b.filler) {
			written++
		}
	}
	return written
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
