// Package structure records generated structures and answers the chunk-local
// queries terrain passes make against them.
package structure

import (
	"fmt"
	"slices"
	"sync"

	"structfill/internal/world"
)

// Lookup is the read side of a structure index. Implementations must be safe
// for concurrent use.
type Lookup interface {
	// StructureReferences returns the packed ids of chunks holding a start of
	// category that may overlap pos.
	StructureReferences(pos world.ChunkPos, category string) []int64
	// StructureStart returns the start of category anchored at pos.
	StructureStart(pos world.ChunkPos, category string) (*Start, bool)
}

// Index is a Lookup that can also record starts.
type Index interface {
	Lookup
	Put(start Start) error
	Close() error
}

type indexKey struct {
	pos      world.ChunkPos
	category string
}

// MemoryIndex keeps starts and references in process memory.
type MemoryIndex struct {
	margin int

	mu     sync.RWMutex
	starts map[indexKey]*Start
	refs   map[indexKey][]int64
}

// NewMemoryIndex creates an index that references a start from every chunk
// within margin blocks of its bounds.
func NewMemoryIndex(margin int) *MemoryIndex {
	return &MemoryIndex{
		margin: margin,
		starts: make(map[indexKey]*Start),
		refs:   make(map[indexKey][]int64),
	}
}

// Put records the start, replacing any start of the same category at the same
// chunk.
func (m *MemoryIndex) Put(start Start) error {
	if start.Category == "" {
		return fmt.Errorf("start at %v has no category", start.Chunk)
	}
	stored := start
	stored.Pieces = slices.Clone(start.Pieces)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts[indexKey{pos: start.Chunk, category: start.Category}] = &stored
	id := start.Chunk.ID()
	for _, pos := range referencedChunks(&stored, m.margin) {
		key := indexKey{pos: pos, category: start.Category}
		if !slices.Contains(m.refs[key], id) {
			m.refs[key] = append(m.refs[key], id)
		}
	}
	return nil
}

func (m *MemoryIndex) StructureReferences(pos world.ChunkPos, category string) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.refs[indexKey{pos: pos, category: category}])
}

func (m *MemoryIndex) StructureStart(pos world.ChunkPos, category string) (*Start, bool) {
	m.mu.RLock()
	start, ok := m.starts[indexKey{pos: pos, category: category}]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	dup := *start
	dup.Pieces = slices.Clone(start.Pieces)
	return &dup, true
}

// Len returns the number of recorded starts.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.starts)
}

func (m *MemoryIndex) Close() error {
	return nil
}
