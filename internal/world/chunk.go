package world

import (
	"log"
	"sync"
)

// HeightmapKind selects which blocks count when looking for the top of a column.
type HeightmapKind int

const (
	// HeightmapWorldSurface stops at the highest non-air block.
	HeightmapWorldSurface HeightmapKind = iota
	// HeightmapOceanFloor stops at the highest solid block, ignoring liquids
	// and cover.
	HeightmapOceanFloor
)

// Chunk stores a 16x16 grid of block columns over a fixed vertical range.
type Chunk struct {
	Key    ChunkPos
	mu     sync.RWMutex
	store  BlockStorage
	minY   int
	height int

	restored bool
}

func NewChunk(key ChunkPos, minY, height int) *Chunk {
	store, err := getStorageProvider().NewStorage(key)
	if err != nil {
		log.Printf("chunk storage unavailable for %v: %v", key, err)
		store, _ = newMemoryStorageProvider().NewStorage(key)
	}
	c := &Chunk{
		Key:    key,
		store:  store,
		minY:   minY,
		height: height,
	}
	c.restored = c.HasStoredBlocks()
	return c
}

func (c *Chunk) Pos() ChunkPos { return c.Key }
func (c *Chunk) MinY() int     { return c.minY }
func (c *Chunk) Height() int   { return c.height }

func (c *Chunk) columnIndex(localX, localZ int) int {
	return localZ*ChunkSize + localX
}

func inColumnRange(localX, localZ int) bool {
	return localX >= 0 && localZ >= 0 && localX < ChunkSize && localZ < ChunkSize
}

func trimColumn(column []Block) []Block {
	end := len(column)
	for end > 0 && blockIsAir(column[end-1]) {
		end--
	}
	return column[:end]
}

func (c *Chunk) storage() BlockStorage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// Column returns a copy of the stored column at the local coordinates, bottom
// up from MinY, with trailing air trimmed.
func (c *Chunk) Column(localX, localZ int) []Block {
	if !inColumnRange(localX, localZ) {
		return nil
	}
	store := c.storage()
	if store == nil {
		return nil
	}
	idx := c.columnIndex(localX, localZ)
	column, ok, err := store.LoadColumn(idx)
	if err != nil {
		log.Printf("chunk %v load column %d: %v", c.Key, idx, err)
		return nil
	}
	if !ok {
		return nil
	}
	return column
}

// Block returns the block at local column (localX, localZ) and world height y.
// Positions outside the chunk read as air.
func (c *Chunk) Block(localX, y, localZ int) Block {
	offset := y - c.minY
	if offset < 0 || offset >= c.height {
		return Air
	}
	column := c.Column(localX, localZ)
	if offset >= len(column) || blockIsAir(column[offset]) {
		return Air
	}
	return column[offset]
}

// SetBlock writes a block without touching neighbours. It reports false when
// the position is outside the chunk or storage failed.
func (c *Chunk) SetBlock(localX, y, localZ int, block Block) bool {
	offset := y - c.minY
	if !inColumnRange(localX, localZ) || offset < 0 || offset >= c.height {
		return false
	}
	idx := c.columnIndex(localX, localZ)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return false
	}
	column, ok, err := c.store.LoadColumn(idx)
	if err != nil {
		log.Printf("chunk %v load column %d: %v", c.Key, idx, err)
		return false
	}
	if !ok {
		column = make([]Block, offset+1)
	} else if offset >= len(column) {
		expanded := make([]Block, offset+1)
		copy(expanded, column)
		column = expanded
	}
	if blockIsAir(block) {
		column[offset] = Block{}
	} else {
		column[offset] = block
	}
	return c.persist(idx, trimColumn(column))
}

// SetColumnBlocks replaces the entire vertical column at the given local
// coordinates; blocks[0] lands at MinY.
func (c *Chunk) SetColumnBlocks(localX, localZ int, blocks []Block) bool {
	if !inColumnRange(localX, localZ) {
		return false
	}
	if len(blocks) > c.height {
		blocks = blocks[:c.height]
	}
	column := make([]Block, len(blocks))
	copy(column, blocks)
	idx := c.columnIndex(localX, localZ)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return false
	}
	return c.persist(idx, trimColumn(column))
}

// persist must be called with c.mu held.
func (c *Chunk) persist(idx int, column []Block) bool {
	var err error
	if len(column) == 0 {
		err = c.store.Delete(idx)
	} else {
		err = c.store.SaveColumn(idx, column)
	}
	if err != nil {
		log.Printf("chunk %v persist column %d: %v", c.Key, idx, err)
		return false
	}
	return true
}

// TopBlockY returns one above the highest block in the column matching kind,
// or MinY when the column holds no such block.
func (c *Chunk) TopBlockY(kind HeightmapKind, localX, localZ int) int {
	column := c.Column(localX, localZ)
	for i := len(column) - 1; i >= 0; i-- {
		block := column[i]
		switch kind {
		case HeightmapOceanFloor:
			if block.IsSolid() {
				return c.minY + i + 1
			}
		default:
			if !blockIsAir(block) {
				return c.minY + i + 1
			}
		}
	}
	return c.minY
}

// ForEachBlock iterates over non-air blocks, invoking fn with global coordinates.
func (c *Chunk) ForEachBlock(fn func(pos BlockPos, block Block) bool) {
	store := c.storage()
	if store == nil {
		return
	}
	originX := c.Key.MinBlockX()
	originZ := c.Key.MinBlockZ()
	if err := store.ForEach(func(idx int, column []Block) bool {
		localX := idx % ChunkSize
		localZ := idx / ChunkSize
		for offset, block := range column {
			if blockIsAir(block) {
				continue
			}
			pos := BlockPos{X: originX + localX, Y: c.minY + offset, Z: originZ + localZ}
			if !fn(pos, block) {
				return false
			}
		}
		return true
	}); err != nil {
		log.Printf("chunk %v iterate blocks: %v", c.Key, err)
	}
}

// HasStoredBlocks reports whether the chunk already has any persisted block data.
func (c *Chunk) HasStoredBlocks() bool {
	hasBlocks := false
	c.ForEachBlock(func(BlockPos, Block) bool {
		hasBlocks = true
		return false
	})
	return hasBlocks
}

// Restored reports whether the chunk already held persisted blocks when it
// was opened. A restored chunk has been through a previous run.
func (c *Chunk) Restored() bool {
	return c.restored
}

// Close releases any resources held by the chunk's underlying storage.
func (c *Chunk) Close() error {
	store := c.storage()
	if store == nil {
		return nil
	}
	return store.Close()
}
