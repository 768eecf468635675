package world

import (
	"fmt"

	"structfill/internal/config"
)

// ChunkSize is the horizontal edge length of a chunk in blocks.
const ChunkSize = 16

// ChunkPos identifies a chunk in global chunk space.
type ChunkPos struct {
	X int
	Z int
}

// ChunkPosFromID decodes a packed chunk id produced by ChunkPos.ID.
func ChunkPosFromID(id int64) ChunkPos {
	return ChunkPos{
		X: int(int32(uint32(uint64(id)))),
		Z: int(int32(uint32(uint64(id) >> 32))),
	}
}

// ChunkPosForBlock returns the chunk holding the block column at (x, z).
func ChunkPosForBlock(x, z int) ChunkPos {
	return ChunkPos{X: floorDiv(x, ChunkSize), Z: floorDiv(z, ChunkSize)}
}

// ID packs the position into a single integer: low 32 bits hold X, high 32 bits Z.
func (p ChunkPos) ID() int64 {
	return int64(uint64(uint32(int32(p.X))) | uint64(uint32(int32(p.Z)))<<32)
}

func (p ChunkPos) MinBlockX() int { return p.X * ChunkSize }
func (p ChunkPos) MinBlockZ() int { return p.Z * ChunkSize }
func (p ChunkPos) MaxBlockX() int { return p.X*ChunkSize + ChunkSize - 1 }
func (p ChunkPos) MaxBlockZ() int { return p.Z*ChunkSize + ChunkSize - 1 }

func (p ChunkPos) String() string {
	return fmt.Sprintf("[%d, %d]", p.X, p.Z)
}

// BlockPos describes a block position in global block space. Y is up.
type BlockPos struct {
	X int
	Y int
	Z int
}

// BoundingBox is an axis-aligned box with inclusive min/max corners.
type BoundingBox struct {
	MinX, MinY, MinZ int
	MaxX, MaxY, MaxZ int
}

// ChunkArea returns the horizontal footprint of a chunk. Y is left at zero.
func ChunkArea(pos ChunkPos) BoundingBox {
	return BoundingBox{
		MinX: pos.MinBlockX(),
		MinZ: pos.MinBlockZ(),
		MaxX: pos.MaxBlockX(),
		MaxZ: pos.MaxBlockZ(),
	}
}

func (b BoundingBox) SpanX() int { return b.MaxX - b.MinX }
func (b BoundingBox) SpanZ() int { return b.MaxZ - b.MinZ }

// IntersectsArea reports whether the horizontal extent of b overlaps the
// inclusive rectangle [minX,maxX]x[minZ,maxZ].
func (b BoundingBox) IntersectsArea(minX, minZ, maxX, maxZ int) bool {
	return b.MaxX >= minX && b.MinX <= maxX && b.MaxZ >= minZ && b.MinZ <= maxZ
}

// Intersects compares horizontal extents only.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return b.IntersectsArea(other.MinX, other.MinZ, other.MaxX, other.MaxZ)
}

// ContainsColumn reports whether the block column (x, z) lies within the
// horizontal extent of b, corners included.
func (b BoundingBox) ContainsColumn(x, z int) bool {
	return x >= b.MinX && x <= b.MaxX && z >= b.MinZ && z <= b.MaxZ
}

// ExpandHorizontal grows the box by r on the X and Z axes, leaving Y untouched.
func (b BoundingBox) ExpandHorizontal(r int) BoundingBox {
	return BoundingBox{
		MinX: b.MinX - r,
		MinY: b.MinY,
		MinZ: b.MinZ - r,
		MaxX: b.MaxX + r,
		MaxY: b.MaxY,
		MaxZ: b.MaxZ + r,
	}
}

// Intersection returns the horizontal overlap of the two boxes and false when
// they do not touch.
func (b BoundingBox) Intersection(other BoundingBox) (BoundingBox, bool) {
	if !b.Intersects(other) {
		return BoundingBox{}, false
	}
	return BoundingBox{
		MinX: max(b.MinX, other.MinX),
		MinY: b.MinY,
		MinZ: max(b.MinZ, other.MinZ),
		MaxX: min(b.MaxX, other.MaxX),
		MaxY: b.MaxY,
		MaxZ: min(b.MaxZ, other.MaxZ),
	}, true
}

// Union returns the smallest box enclosing both boxes.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBox{
		MinX: min(b.MinX, other.MinX),
		MinY: min(b.MinY, other.MinY),
		MinZ: min(b.MinZ, other.MinZ),
		MaxX: max(b.MaxX, other.MaxX),
		MaxY: max(b.MaxY, other.MaxY),
		MaxZ: max(b.MaxZ, other.MaxZ),
	}
}

// Region delineates the contiguous square of chunks processed in one run.
type Region struct {
	Origin        ChunkPos
	ChunksPerAxis int
	MinY          int
	Height        int
}

func NewRegion(cfg *config.Config) Region {
	return Region{
		Origin:        ChunkPos{X: cfg.World.Origin.X, Z: cfg.World.Origin.Z},
		ChunksPerAxis: cfg.World.ChunksPerAxis,
		MinY:          cfg.World.MinY,
		Height:        cfg.World.Height,
	}
}

func (r Region) Contains(pos ChunkPos) bool {
	return pos.X >= r.Origin.X &&
		pos.Z >= r.Origin.Z &&
		pos.X < r.Origin.X+r.ChunksPerAxis &&
		pos.Z < r.Origin.Z+r.ChunksPerAxis
}

// Chunks lists every chunk of the region in row-major order.
func (r Region) Chunks() []ChunkPos {
	if r.ChunksPerAxis <= 0 {
		return nil
	}
	out := make([]ChunkPos, 0, r.ChunksPerAxis*r.ChunksPerAxis)
	for z := 0; z < r.ChunksPerAxis; z++ {
		for x := 0; x < r.ChunksPerAxis; x++ {
			out = append(out, ChunkPos{X: r.Origin.X + x, Z: r.Origin.Z + z})
		}
	}
	return out
}

func floorDiv(value, size int) int {
	if size <= 0 {
		return 0
	}
	if value >= 0 {
		return value / size
	}
	return -((-value - 1) / size) - 1
}
