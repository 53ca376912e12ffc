package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"photoinsight/internal/ai"
	"photoinsight/internal/config"
	"photoinsight/internal/exif"
	"photoinsight/internal/imaging"
	"photoinsight/internal/logger"
	"photoinsight/internal/photocache"
	"photoinsight/internal/repository/sqlite"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogDirectory)

	cache, err := photocache.Build(cfg.ImageDirectory, exif.Extractor{}, imaging.Resizer{}, log)
	if err != nil {
		log.Error("Failed to build photo cache: %v", err)
		os.Exit(1)
	}
	log.Info("Photo cache ready: %d photos indexed from %s", len(cache.Images()), cache.Dir())

	if cfg.DetectionEnabled {
		detector, err := ai.NewDetectorService(cfg.ModelPath, cfg.ModelConfigPath, log)
		if err != nil {
			log.Warning("Object detection disabled: %v", err)
		} else {
			// The sweep only reads the immutable cache and writes
			// archive-scoped result files, so it can run alongside queries.
			go runDetectionSweep(cfg, log, cache, detector)
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("Shutting down")
}

// runDetectionSweep analyzes every archive, then indexes the persisted
// results into SQLite so photos can be searched by detected object.
func runDetectionSweep(cfg *config.Config, log *logger.Logger, cache *photocache.Cache, detector *ai.DetectorService) {
	defer detector.Close()

	cache.AnalyzeAll(detector, cfg.DetectionChunkSize, cfg.ConfidenceThreshold, cfg.IOUThreshold)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Error("Failed to open detection database: %v", err)
		return
	}
	defer db.Close()

	repo := sqlite.NewDetectionRepository(db)
	for _, zipName := range distinctArchives(cache.Images()) {
		records, err := cache.ArchiveDetections(zipName)
		if err != nil {
			log.Error("Failed to load detections for %s: %v", zipName, err)
			continue
		}
		if err := repo.ImportArchive(zipName, records); err != nil {
			log.Error("Failed to import detections for %s: %v", zipName, err)
		}
	}
	log.Info("Detection sweep finished")
}

func distinctArchives(refs []photocache.PhotoRef) []string {
	seen := make(map[string]struct{})
	var archives []string
	for _, ref := range refs {
		if _, ok := seen[ref.Archive]; !ok {
			seen[ref.Archive] = struct{}{}
			archives = append(archives, ref.Archive)
		}
	}
	return archives
}
