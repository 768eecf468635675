package world

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Generator describes base terrain population for chunks.
type Generator interface {
	Generate(ctx context.Context, pos ChunkPos, minY, height int) (*Chunk, error)
}

// Manager keeps the authoritative chunk state for a region.
type Manager struct {
	region    Region
	generator Generator

	mu     sync.RWMutex
	chunks map[ChunkPos]*Chunk
}

func NewManager(region Region, generator Generator) *Manager {
	return &Manager{
		region:    region,
		generator: generator,
		chunks:    make(map[ChunkPos]*Chunk),
	}
}

func (m *Manager) Region() Region {
	return m.region
}

// Chunk returns the cached chunk for pos, generating it on first use.
func (m *Manager) Chunk(ctx context.Context, pos ChunkPos) (*Chunk, error) {
	if !m.region.Contains(pos) {
		return nil, fmt.Errorf("chunk %v outside region", pos)
	}

	m.mu.RLock()
	ch, ok := m.chunks[pos]
	m.mu.RUnlock()
	if ok {
		return ch, nil
	}

	ch, err := m.generator.Generate(ctx, pos, m.region.MinY, m.region.Height)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.chunks[pos]; ok {
		return existing, nil
	}
	m.chunks[pos] = ch
	return ch, nil
}

// Loaded returns the chunk for pos if it has already been generated.
func (m *Manager) Loaded(pos ChunkPos) (*Chunk, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.chunks[pos]
	return ch, ok
}

// Close releases the storage of every cached chunk.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for pos, ch := range m.chunks {
		if err := ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chunk %v: %w", pos, err))
		}
		delete(m.chunks, pos)
	}
	return errors.Join(errs...)
}
