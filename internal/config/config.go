package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a JSON and YAML friendly wrapper around time.Duration that
// accepts human readable strings such as "150ms" in configuration files while
// still allowing numeric representations when necessary.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalJSON encodes the duration using the canonical string representation.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON decodes a duration from either a string (e.g. "250ms") or a
// numeric value representing nanoseconds. Empty strings and null values decode
// to zero.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("duration: empty value")
	}
	if string(b) == "null" {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("duration: decode string: %w", err)
		}
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*d = Duration(time.Duration(f))
		return nil
	}
	return fmt.Errorf("duration: invalid value %s", string(b))
}

// MarshalYAML encodes the duration as its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML scalars.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: expected scalar, got kind %d", node.Kind)
	}
	if node.Tag == "!!null" {
		*d = 0
		return nil
	}
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("duration: decode int: %w", err)
		}
		*d = Duration(time.Duration(n))
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config captures everything needed to generate a region of terrain and patch
// it around the structures recorded for that region.
type Config struct {
	World      WorldConfig     `json:"world" yaml:"world"`
	Terrain    TerrainConfig   `json:"terrain" yaml:"terrain"`
	Flatten    FlattenConfig   `json:"flatten" yaml:"flatten"`
	Structures StructureConfig `json:"structures" yaml:"structures"`
	Storage    StorageConfig   `json:"storage" yaml:"storage"`
	Pipeline   PipelineConfig  `json:"pipeline" yaml:"pipeline"`
}

type WorldConfig struct {
	Origin        ChunkIndex `json:"origin" yaml:"origin"`
	ChunksPerAxis int        `json:"chunksPerAxis" yaml:"chunksPerAxis"`
	MinY          int        `json:"minY" yaml:"minY"`
	Height        int        `json:"height" yaml:"height"`
	SeaLevel      int        `json:"seaLevel" yaml:"seaLevel"`
}

type TerrainConfig struct {
	Seed        int64   `json:"seed" yaml:"seed"`
	BaseHeight  int     `json:"baseHeight" yaml:"baseHeight"`
	Frequency   float64 `json:"frequency" yaml:"frequency"`
	Amplitude   float64 `json:"amplitude" yaml:"amplitude"`
	Octaves     int     `json:"octaves" yaml:"octaves"`
	Persistence float64 `json:"persistence" yaml:"persistence"`
	Lacunarity  float64 `json:"lacunarity" yaml:"lacunarity"`
	Workers     int     `json:"workers" yaml:"workers"` // column workers per chunk, 0 = GOMAXPROCS*2
}

// FlattenConfig tunes the terrain patch applied beneath rigid structure pieces.
type FlattenConfig struct {
	Seed           int64    `json:"seed" yaml:"seed"`
	RadiusFactor   float64  `json:"radiusFactor" yaml:"radiusFactor"`     // apron radius as a fraction of the short side
	AlphaExponent  float64  `json:"alphaExponent" yaml:"alphaExponent"`   // steepening applied to partial weights
	SearchMargin   int      `json:"searchMargin" yaml:"searchMargin"`     // chunk inflation when collecting pieces
	Categories     []string `json:"categories" yaml:"categories"`         // structure categories to inspect
	FillerMaterial string   `json:"fillerMaterial" yaml:"fillerMaterial"` // material written into the apron
}

type StructureConfig struct {
	ManifestPath    string `json:"manifestPath" yaml:"manifestPath"`
	IndexPath       string `json:"indexPath" yaml:"indexPath"` // sqlite file; empty keeps the index in memory
	ReferenceMargin int    `json:"referenceMargin" yaml:"referenceMargin"`
}

type StorageConfig struct {
	Path string `json:"path" yaml:"path"` // empty keeps chunks in memory
}

type PipelineConfig struct {
	Workers      int      `json:"workers" yaml:"workers"`
	ChunkTimeout Duration `json:"chunkTimeout" yaml:"chunkTimeout"`
	PreviewDir   string   `json:"previewDir" yaml:"previewDir"`
}

type ChunkIndex struct {
	X int `json:"x" yaml:"x"`
	Z int `json:"z" yaml:"z"`
}

// Load reads configuration from a JSON or YAML file if provided. An empty path
// returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := Decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Decode unmarshals data into cfg, choosing YAML for .yaml/.yml paths and
// JSON otherwise.
func Decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func Default() *Config {
	return &Config{
		World: WorldConfig{
			Origin:        ChunkIndex{X: 0, Z: 0},
			ChunksPerAxis: 8,
			MinY:          0,
			Height:        256,
			SeaLevel:      62,
		},
		Terrain: TerrainConfig{
			Seed:        1337,
			BaseHeight:  64,
			Frequency:   0.01,
			Amplitude:   12,
			Octaves:     4,
			Persistence: 0.5,
			Lacunarity:  2.0,
		},
		Flatten: FlattenConfig{
			Seed:           1337,
			RadiusFactor:   0.75,
			AlphaExponent:  2,
			SearchMargin:   12,
			Categories:     []string{"pillager_outpost", "village"},
			FillerMaterial: "stone",
		},
		Structures: StructureConfig{
			ReferenceMargin: 12,
		},
		Pipeline: PipelineConfig{
			Workers:      4,
			ChunkTimeout: Duration(5 * time.Second),
		},
	}
}

func (c *Config) Validate() error {
	if c.World.ChunksPerAxis <= 0 {
		return errors.New("world.chunksPerAxis must be positive")
	}
	if c.World.Height <= 0 {
		return errors.New("world.height must be positive")
	}
	if c.World.SeaLevel < c.World.MinY || c.World.SeaLevel >= c.World.MinY+c.World.Height {
		return errors.New("world.seaLevel must lie inside the world height range")
	}
	if c.Terrain.Octaves <= 0 {
		return errors.New("terrain.octaves must be positive")
	}
	if c.Terrain.Workers < 0 {
		return errors.New("terrain.workers cannot be negative")
	}
	if c.Flatten.RadiusFactor <= 0 {
		return errors.New("flatten.radiusFactor must be positive")
	}
	if c.Flatten.AlphaExponent <= 0 {
		return errors.New("flatten.alphaExponent must be positive")
	}
	if c.Flatten.SearchMargin < 0 {
		return errors.New("flatten.searchMargin cannot be negative")
	}
	if len(c.Flatten.Categories) == 0 {
		return errors.New("flatten.categories cannot be empty")
	}
	for i, category := range c.Flatten.Categories {
		if category == "" {
			return fmt.Errorf("flatten.categories[%d] must be set", i)
		}
	}
	if c.Flatten.FillerMaterial == "" {
		return errors.New("flatten.fillerMaterial must be set")
	}
	if c.Structures.ReferenceMargin < 0 {
		return errors.New("structures.referenceMargin cannot be negative")
	}
	if c.Pipeline.Workers < 0 {
		return errors.New("pipeline.workers cannot be negative")
	}
	if c.Pipeline.ChunkTimeout < 0 {
		return errors.New("pipeline.chunkTimeout cannot be negative")
	}
	return nil
}
