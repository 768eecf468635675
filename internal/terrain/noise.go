package terrain

import (
	"context"
	"fmt"
	"log"
	"math"
	"runtime"
	"sync"

	"structfill/internal/config"
	"structfill/internal/world"
)

const (
	topsoilDepth = 3
	sandDepth    = 4
	// Columns whose surface rises this far above sea level carry snow cover.
	snowlineOffset = 18
)

// NoiseGenerator creates repeatable terrain using hashed value noise.
type NoiseGenerator struct {
	cfg      config.TerrainConfig
	seaLevel int
	seed     int64

	grass  world.Block
	dirt   world.Block
	stone  world.Block
	sand   world.Block
	gravel world.Block
	water  world.Block
	snow   world.Block
}

func NewNoiseGenerator(cfg config.TerrainConfig, seaLevel int) *NoiseGenerator {
	return &NoiseGenerator{
		cfg:      cfg,
		seaLevel: seaLevel,
		seed:     cfg.Seed,
		grass:    world.NewSolid(world.MaterialGrass),
		dirt:     world.NewSolid(world.MaterialDirt),
		stone:    world.NewSolid(world.MaterialStone),
		sand:     world.NewSolid(world.MaterialSand),
		gravel:   world.NewSolid(world.MaterialGravel),
		water:    world.Block{Type: world.BlockLiquid, Material: world.MaterialWater},
		snow:     world.Block{Type: world.BlockCover, Material: world.MaterialSnow},
	}
}

// SurfaceHeight returns the y of the topmost solid block the generator places
// in column (x, z) of a world spanning [minY, minY+height).
func (g *NoiseGenerator) SurfaceHeight(x, z, minY, height int) int {
	noise := g.fractalNoise(float64(x), float64(z))
	surface := int(math.Round(float64(g.cfg.BaseHeight) + noise*g.cfg.Amplitude))
	return clampInt(surface, minY, minY+height-1)
}

func (g *NoiseGenerator) Generate(ctx context.Context, pos world.ChunkPos, minY, height int) (*world.Chunk, error) {
	chunk := world.NewChunk(pos, minY, height)
	if height <= 0 {
		log.Printf("chunk %v generation progress: 100%%", pos)
		return chunk, nil
	}
	if chunk.Restored() {
		log.Printf("chunk %v loaded from storage", pos)
		return chunk, nil
	}

	totalColumns := world.ChunkSize * world.ChunkSize
	log.Printf("chunk %v generation progress: 0%%", pos)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	buffer := newChunkWriteBuffer(chunk)

	type columnTask struct {
		localX int
		localZ int
	}

	type columnResult struct {
		localX int
		localZ int
		column []world.Block
		err    error
	}

	workers := g.workerCount(totalColumns)
	if workers <= 0 {
		workers = 1
	}

	tasks := make(chan columnTask, workers)
	results := make(chan columnResult, workers)

	originX := pos.MinBlockX()
	originZ := pos.MinBlockZ()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				if err := ctx.Err(); err != nil {
					select {
					case results <- columnResult{err: err}:
					default:
					}
					return
				}

				globalX := originX + task.localX
				globalZ := originZ + task.localZ
				surface := g.SurfaceHeight(globalX, globalZ, minY, height)
				column := g.populateColumn(globalX, globalZ, minY, height, surface)

				select {
				case results <- columnResult{localX: task.localX, localZ: task.localZ, column: column}:
				case <-ctx.Done():
					if err := ctx.Err(); err != nil {
						select {
						case results <- columnResult{err: err}:
						default:
						}
					}
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(tasks)
		for z := 0; z < world.ChunkSize; z++ {
			for x := 0; x < world.ChunkSize; x++ {
				select {
				case <-ctx.Done():
					return
				case tasks <- columnTask{localX: x, localZ: z}:
				}
			}
		}
	}()

	generatedColumns := 0
	nextLogPercent := 10
	loggedComplete := false

	for result := range results {
		if result.err != nil {
			cancel()
			return nil, result.err
		}

		buffer.Store(result.localX, result.localZ, result.column)

		generatedColumns++
		progress := generatedColumns * 100 / totalColumns
		if progress >= nextLogPercent {
			if progress > 100 {
				progress = 100
			}
			log.Printf("chunk %v generation progress: %d%%", pos, progress)
			if progress >= 100 {
				loggedComplete = true
				nextLogPercent = 110
			} else {
				nextLogPercent = ((progress / 10) + 1) * 10
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := buffer.Flush(); err != nil {
		return nil, err
	}

	if !loggedComplete {
		log.Printf("chunk %v generation progress: 100%%", pos)
	}

	return chunk, nil
}

// populateColumn lays soil-capped stone up to the surface and floods the
// column up to sea level. blocks[0] sits at minY.
func (g *NoiseGenerator) populateColumn(globalX, globalZ, minY, height, surface int) []world.Block {
	top := surface - minY
	if top < 0 {
		return nil
	}
	waterTop := min(g.seaLevel, minY+height-1) - minY
	snowy := surface-g.seaLevel >= snowlineOffset && top+1 < height

	total := max(top, waterTop) + 1
	if snowy {
		total = max(total, top+2)
	}
	column := make([]world.Block, total)
	fillBlockRange(column, 0, top, g.stone)

	if surface < g.seaLevel+2 {
		fillBlockRange(column, top-sandDepth+1, top, g.sand)
	} else {
		fillBlockRange(column, top-topsoilDepth+1, top-1, g.dirt)
		column[top] = g.grass
	}
	if waterTop > top {
		fillBlockRange(column, top+1, waterTop, g.water)
	}
	if snowy {
		column[top+1] = g.snow
	}

	g.scatterGravel(column, top, globalX, globalZ)
	return column
}

// scatterGravel swaps a few stone blocks below the soil for gravel pockets.
func (g *NoiseGenerator) scatterGravel(column []world.Block, top, globalX, globalZ int) {
	rangeSize := top - topsoilDepth - 2
	if rangeSize <= 0 {
		return
	}
	rng := newDeterministicRNG(globalX, globalZ, g.seed)
	pockets := rng.nextInt(3)
	for i := 0; i < pockets; i++ {
		idx := 1 + rng.nextInt(rangeSize)
		if column[idx] == g.stone {
			column[idx] = g.gravel
		}
	}
}

type deterministicRNG struct {
	state uint64
}

func newDeterministicRNG(x, z int, seed int64) *deterministicRNG {
	state := uint64(uint32(x))<<32 ^ uint64(uint32(z))<<1 ^ uint64(seed)
	if state == 0 {
		state = 0x9e3779b97f4a7c15
	}
	return &deterministicRNG{state: state}
}

func (r *deterministicRNG) next() uint64 {
	r.state ^= r.state << 7
	r.state ^= r.state >> 9
	r.state ^= r.state << 8
	return r.state
}

func (r *deterministicRNG) nextInt(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.next() % uint64(n))
}

// chunkWriteBuffer collects generated columns so the chunk storage sees one
// write per column.
type chunkWriteBuffer struct {
	chunk   *world.Chunk
	columns map[int][]world.Block
}

func newChunkWriteBuffer(chunk *world.Chunk) *chunkWriteBuffer {
	return &chunkWriteBuffer{
		chunk:   chunk,
		columns: make(map[int][]world.Block),
	}
}

func (b *chunkWriteBuffer) Store(localX, localZ int, column []world.Block) {
	b.columns[localZ*world.ChunkSize+localX] = column
}

func (b *chunkWriteBuffer) Flush() error {
	for idx, column := range b.columns {
		localX := idx % world.ChunkSize
		localZ := idx / world.ChunkSize
		if len(column) == 0 {
			continue
		}
		if ok := b.chunk.SetColumnBlocks(localX, localZ, column); !ok {
			return fmt.Errorf("chunk %v failed to persist column (%d,%d)", b.chunk.Key, localX, localZ)
		}
	}
	b.columns = make(map[int][]world.Block)
	return nil
}

func fillBlockRange(column []world.Block, start, end int, value world.Block) {
	if len(column) == 0 {
		return
	}
	if start < 0 {
		start = 0
	}
	if end >= len(column) {
		end = len(column) - 1
	}
	if start > end {
		return
	}
	column[start] = value
	filled := 1
	remaining := end - start + 1
	for filled < remaining {
		copyLen := filled
		if copyLen > remaining-filled {
			copyLen = remaining - filled
		}
		copy(column[start+filled:], column[start:start+copyLen])
		filled += copyLen
	}
}

func (g *NoiseGenerator) fractalNoise(x, z float64) float64 {
	frequency := g.cfg.Frequency
	amplitude := 1.0
	noiseSum := 0.0
	maxAmplitude := 0.0

	for i := 0; i < g.cfg.Octaves; i++ {
		noise := g.valueNoise(x*frequency, z*frequency)
		noiseSum += noise * amplitude
		maxAmplitude += amplitude
		amplitude *= g.cfg.Persistence
		frequency *= g.cfg.Lacunarity
	}

	if maxAmplitude == 0 {
		return 0
	}
	return noiseSum / maxAmplitude
}

func (g *NoiseGenerator) valueNoise(x, z float64) float64 {
	x0 := int(math.Floor(x))
	z0 := int(math.Floor(z))
	x1 := x0 + 1
	z1 := z0 + 1

	sx := smooth(x - float64(x0))
	sz := smooth(z - float64(z0))

	n0 := random2D(x0, z0, g.seed)
	n1 := random2D(x1, z0, g.seed)
	ix0 := lerp(n0, n1, sx)

	n2 := random2D(x0, z1, g.seed)
	n3 := random2D(x1, z1, g.seed)
	ix1 := lerp(n2, n3, sx)

	return lerp(ix0, ix1, sz)
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func random2D(x, z int, seed int64) float64 {
	return float64(hash3(x, z, int(seed))&0xFFFF)/0x8000 - 1.0
}

func hash3(x, y, z int) uint32 {
	h := uint32(x*374761393 + y*668265263 + z*2147483647)
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (g *NoiseGenerator) workerCount(totalColumns int) int {
	if totalColumns <= 0 {
		return 0
	}

	if g.cfg.Workers > 0 {
		if g.cfg.Workers < totalColumns {
			return g.cfg.Workers
		}
		return totalColumns
	}

	workers := runtime.GOMAXPROCS(0) * 2
	if workers <= 0 {
		workers = 1
	}
	if workers > totalColumns {
		workers = totalColumns
	}
	return workers
}
