// Package pipeline runs the base-building pass over every chunk of a region.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"structfill/internal/config"
	"structfill/internal/structure"
	"structfill/internal/terrainbase"
	"structfill/internal/world"
)

// Summary totals the work of one run.
type Summary struct {
	Chunks   int
	Pieces   int
	Columns  int
	Blocks   int
	Previews int
}

func (s *Summary) add(stats terrainbase.Stats) {
	s.Chunks++
	s.Pieces += stats.Pieces
	s.Columns += stats.Columns
	s.Blocks += stats.Blocks
}

// Pipeline obtains each chunk from the manager and builds structure bases in
// it. Chunks are independent, so they are processed by a pool of workers.
type Pipeline struct {
	manager      *world.Manager
	builder      *terrainbase.Builder
	lookup       structure.Lookup
	workers      int
	chunkTimeout time.Duration
	previewDir   string
}

func New(cfg config.PipelineConfig, manager *world.Manager, builder *terrainbase.Builder, lookup structure.Lookup) *Pipeline {
	return &Pipeline{
		manager:      manager,
		builder:      builder,
		lookup:       lookup,
		workers:      cfg.Workers,
		chunkTimeout: cfg.ChunkTimeout.Duration(),
		previewDir:   cfg.PreviewDir,
	}
}

type chunkResult struct {
	pos     world.ChunkPos
	stats   terrainbase.Stats
	preview bool
	err     error
}

// Run processes every chunk of the region. Failed chunks are logged and
// reported together once the rest of the region is done; cancellation stops
// the run between chunks.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	chunks := p.manager.Region().Chunks()
	var summary Summary
	if len(chunks) == 0 {
		return summary, nil
	}

	workers := p.workerCount(len(chunks))
	jobs := make(chan world.ChunkPos, workers)
	results := make(chan chunkResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results <- p.processChunk(ctx, pos)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, pos := range chunks {
			select {
			case <-ctx.Done():
				return
			case jobs <- pos:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var errs []error
	for result := range results {
		if result.err != nil {
			log.Printf("chunk %v failed: %v", result.pos, result.err)
			errs = append(errs, fmt.Errorf("chunk %v: %w", result.pos, result.err))
			continue
		}
		summary.add(result.stats)
		if result.preview {
			summary.Previews++
		}
	}

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return summary, errors.Join(errs...)
}

// ProcessChunk builds structure bases in a single chunk. Chunks restored from
// storage are returned untouched with empty stats.
func (p *Pipeline) ProcessChunk(ctx context.Context, pos world.ChunkPos) (terrainbase.Stats, error) {
	result := p.processChunk(ctx, pos)
	return result.stats, result.err
}

func (p *Pipeline) processChunk(ctx context.Context, pos world.ChunkPos) chunkResult {
	result := chunkResult{pos: pos}
	if err := ctx.Err(); err != nil {
		result.err = err
		return result
	}

	chunkCtx := ctx
	if p.chunkTimeout > 0 {
		var cancel context.CancelFunc
		chunkCtx, cancel = context.WithTimeout(ctx, p.chunkTimeout)
		defer cancel()
	}

	chunk, err := p.manager.Chunk(chunkCtx, pos)
	if err != nil {
		result.err = fmt.Errorf("load chunk: %w", err)
		return result
	}

	// Restored chunks already carry their bases; a second pass widens aprons.
	if chunk.Restored() {
		log.Printf("chunk %v restored from storage, bases already built", pos)
	} else {
		result.stats = p.builder.Flatten(p.lookup, chunk, pos.MinBlockX(), pos.MinBlockZ())
	}
	if result.stats.Pieces > 0 {
		log.Printf("chunk %v flattened: %d pieces, %d columns, %d blocks",
			pos, result.stats.Pieces, result.stats.Columns, result.stats.Blocks)
	}

	if p.previewDir != "" {
		if _, err := world.SaveChunkPreview(chunk, p.previewDir); err != nil {
			log.Printf("chunk %v preview: %v", pos, err)
		} else {
			result.preview = true
		}
	}
	return result
}

func (p *Pipeline) workerCount(totalChunks int) int {
	workers := p.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > totalChunks {
		workers = totalChunks
	}
	if workers <= 0 {
		workers = 1
	}
	return workers
}
