package photocache

import (
	"time"

	"photoinsight/internal/ai"
	"photoinsight/internal/archive"
)

// DefaultChunkSize is how many photos are fed to the detector per batch
// unless configured otherwise.
const DefaultChunkSize = 100

// DetectionRecord is the persisted element of the per-archive
// object-detection result file.
type DetectionRecord struct {
	Photo      PhotoRef       `json:"photo"`
	Detections []ai.Detection `json:"detections"`
}

// AnalyzeAll runs the object detector over every indexed photo, one archive
// at a time. An archive whose result file already exists is skipped
// entirely. Detection works in fixed-size chunks; a failed chunk is logged
// and skipped so partial results for the archive still get written. All
// errors are recoverable: they are logged, never propagated.
func (c *Cache) AnalyzeAll(det Detector, chunkSize int, confThreshold, iouThreshold float64) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	archives, order := groupByArchive(c.images)

	for _, zipName := range order {
		resultPath := cacheFile(c.dir, zipName, "object_detection")
		if fileExists(resultPath) {
			c.log.Info("Already found %s, skipping creation", resultPath)
			continue
		}

		c.log.Info("Analyzing photo archive %s for object detection", zipName)
		archiveStart := time.Now()

		var results []DetectionRecord
		indices := archives[zipName]
		for chunkStart := 0; chunkStart < len(indices); chunkStart += chunkSize {
			chunkEnd := chunkStart + chunkSize
			if chunkEnd > len(indices) {
				chunkEnd = len(indices)
			}
			chunk := indices[chunkStart:chunkEnd]

			chunkResults, err := c.analyzeChunk(det, zipName, chunk, confThreshold, iouThreshold)
			if err != nil {
				c.log.Error("Object detection error in zip %s: %v", zipName, err)
				continue
			}
			results = append(results, chunkResults...)
		}

		c.log.Info("Processing of archive %s finished in %v", zipName, time.Since(archiveStart))
		if err := writeJSON(resultPath, results); err != nil {
			c.log.Error("Can't serialize object detection results for %s: %v", zipName, err)
		}
	}
}

func (c *Cache) analyzeChunk(det Detector, zipName string, indices []uint, confThreshold, iouThreshold float64) ([]DetectionRecord, error) {
	c.log.Info("Performing object detection on photo chunk with %d items", len(indices))
	chunkStart := time.Now()

	files, err := archive.Extract(c.dir, zipName, indices)
	if err != nil {
		return nil, err
	}

	results := make([]DetectionRecord, 0, len(files))
	for _, f := range files {
		detections, err := det.Predict(f.Data, confThreshold, iouThreshold)
		if err != nil {
			return nil, err
		}
		results = append(results, DetectionRecord{
			Photo:      PhotoRef{Archive: zipName, Entry: f.Name, Index: f.Index},
			Detections: detections,
		})
	}

	c.log.Info("Analysis of chunk finished in %v", time.Since(chunkStart))
	return results, nil
}

// ArchiveDetections loads the persisted detection results for one archive.
// A missing result file yields an empty slice, not an error.
func (c *Cache) ArchiveDetections(zipName string) ([]DetectionRecord, error) {
	path := cacheFile(c.dir, zipName, "object_detection")
	if !fileExists(path) {
		return nil, nil
	}
	var records []DetectionRecord
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchDetections returns the persisted detections for the given photos,
// grouped per ref. Photos from archives that have not been analyzed yet are
// simply absent from the result.
func (c *Cache) FetchDetections(refs []PhotoRef) (map[PhotoRef][]ai.Detection, error) {
	wanted := make(map[PhotoRef]struct{}, len(refs))
	_, order := groupByArchive(refs)
	for _, ref := range refs {
		wanted[ref] = struct{}{}
	}

	detections := make(map[PhotoRef][]ai.Detection)
	for _, zipName := range order {
		records, err := c.ArchiveDetections(zipName)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if _, ok := wanted[r.Photo]; ok {
				detections[r.Photo] = r.Detections
			}
		}
	}
	return detections, nil
}
