package sqlite

import (
	"fmt"

	"photoinsight/internal/photocache"
)

// DetectionRepository indexes per-photo detections for object-name search.
type DetectionRepository struct {
	db *DB
}

// NewDetectionRepository creates a new SQLite detection repository.
func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

// ImportArchive replaces the stored detections for one archive with the
// given result records in a single transaction, so re-imports after a cache
// rebuild stay idempotent.
func (r *DetectionRepository) ImportArchive(archive string, records []photocache.DetectionRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM detections WHERE archive = ?`, archive); err != nil {
		return fmt.Errorf("failed to clear detections for %s: %w", archive, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO detections (archive, entry, entry_index, object_name, confidence, xmin, ymin, xmax, ymax)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		for _, det := range rec.Detections {
			_, err := stmt.Exec(rec.Photo.Archive, rec.Photo.Entry, rec.Photo.Index,
				det.ClassName, det.Confidence, det.XMin, det.YMin, det.XMax, det.YMax)
			if err != nil {
				return fmt.Errorf("failed to insert detection: %w", err)
			}
		}
	}

	return tx.Commit()
}

// SearchByObject returns one page of distinct photos on which the given
// object class was detected (case-insensitive), plus the total match count.
func (r *DetectionRepository) SearchByObject(objectName string, offset, limit int) ([]photocache.PhotoRef, int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	var total int
	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*) FROM (
			SELECT DISTINCT archive, entry, entry_index FROM detections
			WHERE object_name = ? COLLATE NOCASE
		)
	`, objectName).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count detections: %w", err)
	}

	rows, err := r.db.Conn().Query(`
		SELECT DISTINCT archive, entry, entry_index FROM detections
		WHERE object_name = ? COLLATE NOCASE
		ORDER BY archive, entry_index
		LIMIT ? OFFSET ?
	`, objectName, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var refs []photocache.PhotoRef
	for rows.Next() {
		var ref photocache.PhotoRef
		if err := rows.Scan(&ref.Archive, &ref.Entry, &ref.Index); err != nil {
			return nil, 0, fmt.Errorf("failed to scan photo ref: %w", err)
		}
		refs = append(refs, ref)
	}

	return refs, total, rows.Err()
}

// ObjectNames returns all unique detected object names.
func (r *DetectionRepository) ObjectNames() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT object_name FROM detections ORDER BY object_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer rows.Close()

	var objects []string
	for rows.Next() {
		var obj string
		if err := rows.Scan(&obj); err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		objects = append(objects, obj)
	}

	return objects, rows.Err()
}
