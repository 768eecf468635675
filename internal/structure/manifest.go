package structure

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"structfill/internal/world"
)

//go:embed schema.json
var manifestSchemaSource string

var (
	schemaOnce     sync.Once
	manifestSchema *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		manifestSchema, schemaErr = jsonschema.CompileString("manifest.schema.json", manifestSchemaSource)
	})
	return manifestSchema, schemaErr
}

// Manifest lists structure starts authored outside the generator.
type Manifest struct {
	Structures []ManifestStart `json:"structures"`
}

type ManifestStart struct {
	Category string          `json:"category"`
	Chunk    *ManifestChunk  `json:"chunk,omitempty"`
	Pieces   []ManifestPiece `json:"pieces"`
}

type ManifestChunk struct {
	X int `json:"x"`
	Z int `json:"z"`
}

type ManifestPiece struct {
	Name             string         `json:"name"`
	Bounds           ManifestBounds `json:"bounds"`
	Origin           ManifestPos    `json:"origin"`
	GroundLevelDelta int            `json:"groundLevelDelta"`
	Placement        Placement      `json:"placement"`
}

type ManifestBounds struct {
	Min ManifestPos `json:"min"`
	Max ManifestPos `json:"max"`
}

type ManifestPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// LoadManifest reads a JSON or YAML (.yaml/.yml) manifest and validates it
// against the embedded schema.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return DecodeManifest(data, ext == ".yaml" || ext == ".yml")
}

// DecodeManifest validates and decodes a manifest document.
func DecodeManifest(data []byte, isYAML bool) (*Manifest, error) {
	if isYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
		data = converted
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := manifest.check(); err != nil {
		return nil, fmt.Errorf("validate manifest: %w", err)
	}
	return &manifest, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// check covers what the schema cannot express.
func (m *Manifest) check() error {
	for i, start := range m.Structures {
		for j, piece := range start.Pieces {
			b := piece.Bounds
			if b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z {
				return fmt.Errorf("structures[%d].pieces[%d].bounds min exceeds max", i, j)
			}
		}
	}
	return nil
}

// Starts converts the manifest into index records. A start without an explicit
// chunk is anchored at the chunk holding its first piece's origin.
func (m *Manifest) Starts() []Start {
	starts := make([]Start, 0, len(m.Structures))
	for _, entry := range m.Structures {
		start := Start{Category: entry.Category, Pieces: make([]Piece, 0, len(entry.Pieces))}
		for _, p := range entry.Pieces {
			start.Pieces = append(start.Pieces, Piece{
				Name: p.Name,
				Bounds: world.BoundingBox{
					MinX: p.Bounds.Min.X, MinY: p.Bounds.Min.Y, MinZ: p.Bounds.Min.Z,
					MaxX: p.Bounds.Max.X, MaxY: p.Bounds.Max.Y, MaxZ: p.Bounds.Max.Z,
				},
				Origin:           world.BlockPos{X: p.Origin.X, Y: p.Origin.Y, Z: p.Origin.Z},
				GroundLevelDelta: p.GroundLevelDelta,
				Placement:        p.Placement,
			})
		}
		switch {
		case entry.Chunk != nil:
			start.Chunk = world.ChunkPos{X: entry.Chunk.X, Z: entry.Chunk.Z}
		case len(start.Pieces) > 0:
			origin := start.Pieces[0].Origin
			start.Chunk = world.ChunkPosForBlock(origin.X, origin.Z)
		}
		starts = append(starts, start)
	}
	return starts
}

// Apply records every start of the manifest in the index.
func (m *Manifest) Apply(index Index) error {
	for _, start := range m.Starts() {
		if err := index.Put(start); err != nil {
			return fmt.Errorf("record %s start at %v: %w", start.Category, start.Chunk, err)
		}
	}
	return nil
}
