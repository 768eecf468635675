package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"structfill/internal/config"
	"structfill/internal/pipeline"
	"structfill/internal/structure"
	"structfill/internal/terrain"
	"structfill/internal/terrainbase"
	"structfill/internal/world"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to structfill configuration file")
	flag.Parse()

	wrote, err := overlayConfigFromEnv(cfgPath)
	if err != nil {
		log.Fatalf("sync config: %v", err)
	}
	if wrote {
		log.Printf("configuration from %s merged into %s", envConfig, cfgPath)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	summary, err := run(ctx, cfg)
	log.Printf("processed %d chunks: %d pieces, %d columns, %d blocks, %d previews",
		summary.Chunks, summary.Pieces, summary.Columns, summary.Blocks, summary.Previews)
	if err != nil {
		log.Fatalf("run exited with error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) (pipeline.Summary, error) {
	if cfg.Storage.Path != "" {
		world.SetStorageProvider(world.NewDiskStorageProvider(cfg.Storage.Path))
	}

	index, err := openIndex(cfg.Structures)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer index.Close()

	if cfg.Structures.ManifestPath != "" {
		manifest, err := structure.LoadManifest(cfg.Structures.ManifestPath)
		if err != nil {
			return pipeline.Summary{}, err
		}
		if err := manifest.Apply(index); err != nil {
			return pipeline.Summary{}, fmt.Errorf("apply manifest: %w", err)
		}
		log.Printf("loaded %d structures from %s", len(manifest.Structures), cfg.Structures.ManifestPath)
	}

	generator := terrain.NewNoiseGenerator(cfg.Terrain, cfg.World.SeaLevel)
	manager := world.NewManager(world.NewRegion(cfg), generator)
	defer func() {
		if err := manager.Close(); err != nil {
			log.Printf("close chunks: %v", err)
		}
	}()

	builder := terrainbase.New(cfg.Flatten)
	return pipeline.New(cfg.Pipeline, manager, builder, index).Run(ctx)
}

func openIndex(cfg config.StructureConfig) (structure.Index, error) {
	if cfg.IndexPath == "" {
		return structure.NewMemoryIndex(cfg.ReferenceMargin), nil
	}
	index, err := structure.OpenSQLite(cfg.IndexPath, cfg.ReferenceMargin)
	if err != nil {
		return nil, fmt.Errorf("open structure index: %w", err)
	}
	return index, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
			return
		}

		// Ensure the process terminates if shutdown stalls.
		time.AfterFunc(10*time.Second, func() {
			log.Printf("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	return ctx, cancel
}
