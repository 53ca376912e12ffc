// Package photocache is the lazy, disk-backed indexing engine over photo zip
// archives: it builds and merges per-archive metadata caches and answers
// paginated queries against the merged in-memory view.
package photocache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"photoinsight/internal/ai"
	"photoinsight/internal/archive"
	"photoinsight/internal/exif"
	"photoinsight/internal/logger"
)

// PhotoRef is the identity of a single photo: the archive it lives in, its
// entry name and its entry index. The index disambiguates duplicate entry
// names and makes re-extraction O(1).
type PhotoRef struct {
	Archive string `json:"archive"`
	Entry   string `json:"entry"`
	Index   uint   `json:"index"`
}

// ExifResult pairs a photo with its metadata record. It is also the
// persisted element of the per-archive exif sub-cache, so photo identity is
// stored as a structured object rather than a delimiter-joined key.
type ExifResult struct {
	Photo PhotoRef    `json:"photo"`
	Exif  exif.Record `json:"exif"`
}

// Extractor decodes an EXIF record (and optionally the embedded thumbnail)
// from raw image bytes.
type Extractor interface {
	Extract(data []byte, wantThumbnail bool) (exif.Record, []byte, error)
}

// Resizer scales raw image bytes into the thumbnail canvas.
type Resizer interface {
	Resize(data []byte, origW, origH uint) ([]byte, error)
}

// Detector is the black-box object detector contract.
type Detector interface {
	Predict(image []byte, confThreshold, iouThreshold float64) ([]ai.Detection, error)
}

// Cache is the merged in-memory view over all archives. It is built once and
// never mutated afterwards, so concurrent readers need no locking.
type Cache struct {
	dir         string
	images      []PhotoRef
	imageSet    map[PhotoRef]struct{}
	exif        map[PhotoRef]exif.Record
	byYearMonth map[uint]map[uint][]PhotoRef

	extractor Extractor
	resizer   Resizer
	log       *logger.Logger
}

// Build indexes every zip archive under dir. Per archive it lazily creates
// the exif and by-year-month sub-cache files (presence of the file is the
// cache-hit signal), then always loads them back and merges into the global
// view, so in-memory state provably matches what is on disk.
func Build(dir string, extractor Extractor, resizer Resizer, log *logger.Logger) (*Cache, error) {
	c := &Cache{
		dir:         dir,
		imageSet:    make(map[PhotoRef]struct{}),
		exif:        make(map[PhotoRef]exif.Record),
		byYearMonth: make(map[uint]map[uint][]PhotoRef),
		extractor:   extractor,
		resizer:     resizer,
		log:         log,
	}

	zipFiles, err := archive.ListZipFiles(dir)
	if err != nil {
		return nil, err
	}

	for _, zipName := range zipFiles {
		entries, err := archive.ListImages(dir, zipName)
		if err != nil {
			return nil, err
		}
		log.Info("Found zip file %s with %d images", zipName, len(entries))

		for _, e := range entries {
			ref := PhotoRef{Archive: zipName, Entry: e.Name, Index: e.Index}
			if _, seen := c.imageSet[ref]; !seen {
				c.imageSet[ref] = struct{}{}
				c.images = append(c.images, ref)
			}
		}

		records, err := c.loadExifSubCache(zipName, entries)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			c.exif[r.Photo] = r.Exif
		}

		if err := c.loadTemporalSubCache(zipName, records); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// loadExifSubCache builds the archive's exif cache file when absent, then
// reads it back. A single photo's extraction failure is logged and the photo
// skipped; a read or parse failure of the cache file is fatal.
func (c *Cache) loadExifSubCache(zipName string, entries []archive.Entry) ([]ExifResult, error) {
	path := cacheFile(c.dir, zipName, "exif")

	if !fileExists(path) {
		c.log.Info("Exif cache missing for zip %s, extracting", zipName)
		records, err := c.extractArchiveExifs(zipName, entries)
		if err != nil {
			return nil, err
		}
		c.log.Info("Extracted exif from %d images in zip %s", len(records), zipName)
		if err := writeJSON(path, records); err != nil {
			return nil, err
		}
	} else {
		c.log.Info("Exif cache already exists for zip %s, skipping extraction", zipName)
	}

	var records []ExifResult
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// extractArchiveExifs decodes metadata for every image entry of one archive,
// in entry-index order so rebuilds serialize identically.
func (c *Cache) extractArchiveExifs(zipName string, entries []archive.Entry) ([]ExifResult, error) {
	indices := make([]uint, 0, len(entries))
	for _, e := range entries {
		indices = append(indices, e.Index)
	}

	files, err := archive.Extract(c.dir, zipName, indices)
	if err != nil {
		return nil, err
	}

	records := make([]ExifResult, 0, len(files))
	for _, f := range files {
		rec, _, err := c.extractor.Extract(f.Data, false)
		if err != nil {
			c.log.Warning("Failed to extract exif from image %s in zip %s: %v", f.Name, zipName, err)
			continue
		}
		records = append(records, ExifResult{
			Photo: PhotoRef{Archive: zipName, Entry: f.Name, Index: f.Index},
			Exif:  rec,
		})
	}
	return records, nil
}

// loadTemporalSubCache builds the archive's year->month index file from the
// per-archive records when absent, then reads it back and merges it into the
// global index by per-year, per-month list concatenation.
func (c *Cache) loadTemporalSubCache(zipName string, records []ExifResult) error {
	path := cacheFile(c.dir, zipName, "by_year_month")

	if !fileExists(path) {
		c.log.Info("By-year-month cache missing for zip %s, creating", zipName)
		byYearMonth := make(map[uint]map[uint][]PhotoRef)
		for _, r := range records {
			months, ok := byYearMonth[r.Exif.Year]
			if !ok {
				months = make(map[uint][]PhotoRef)
				byYearMonth[r.Exif.Year] = months
			}
			months[r.Exif.Month] = append(months[r.Exif.Month], r.Photo)
		}
		if err := writeJSON(path, byYearMonth); err != nil {
			return err
		}
	} else {
		c.log.Info("By-year-month cache already exists for zip %s, skipping creation", zipName)
	}

	var partial map[uint]map[uint][]PhotoRef
	if err := readJSON(path, &partial); err != nil {
		return err
	}

	for year, months := range partial {
		global, ok := c.byYearMonth[year]
		if !ok {
			global = make(map[uint][]PhotoRef)
			c.byYearMonth[year] = global
		}
		for month, refs := range months {
			global[month] = append(global[month], refs...)
		}
	}
	return nil
}

// Dir returns the directory the cache was built from.
func (c *Cache) Dir() string {
	return c.dir
}

// Images returns all indexed photo refs in archive-scan order. The returned
// slice must be treated as read-only.
func (c *Cache) Images() []PhotoRef {
	return c.images
}

// ExifRecord looks up the metadata record for one photo.
func (c *Cache) ExifRecord(ref PhotoRef) (exif.Record, bool) {
	rec, ok := c.exif[ref]
	return rec, ok
}

// cacheFile forms the per-archive cache file path <dir>/<archive>.<kind>.json.
func cacheFile(dir, zipName, kind string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.json", zipName, kind))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache file %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read cache file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	return nil
}
