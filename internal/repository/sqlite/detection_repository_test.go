package sqlite

import (
	"path/filepath"
	"testing"

	"photoinsight/internal/ai"
	"photoinsight/internal/photocache"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecords() []photocache.DetectionRecord {
	return []photocache.DetectionRecord{
		{
			Photo: photocache.PhotoRef{Archive: "a.zip", Entry: "img1.jpg", Index: 0},
			Detections: []ai.Detection{
				{ClassName: "person", Confidence: 0.91, XMin: 10, YMin: 20, XMax: 110, YMax: 220},
				{ClassName: "dog", Confidence: 0.77, XMin: 5, YMin: 5, XMax: 50, YMax: 60},
			},
		},
		{
			Photo: photocache.PhotoRef{Archive: "a.zip", Entry: "img2.jpg", Index: 1},
			Detections: []ai.Detection{
				{ClassName: "person", Confidence: 0.55, XMin: 0, YMin: 0, XMax: 40, YMax: 80},
			},
		},
		{
			Photo:      photocache.PhotoRef{Archive: "a.zip", Entry: "img3.jpg", Index: 2},
			Detections: nil,
		},
	}
}

func TestImportArchiveAndSearchByObject(t *testing.T) {
	repo := NewDetectionRepository(setupTestDB(t))

	if err := repo.ImportArchive("a.zip", sampleRecords()); err != nil {
		t.Fatalf("ImportArchive failed: %v", err)
	}

	refs, total, err := repo.SearchByObject("person", 0, 10)
	if err != nil {
		t.Fatalf("SearchByObject failed: %v", err)
	}
	if total != 2 || len(refs) != 2 {
		t.Fatalf("Expected 2 photos with a person, got total=%d len=%d", total, len(refs))
	}
	if refs[0].Entry != "img1.jpg" || refs[1].Entry != "img2.jpg" {
		t.Errorf("Unexpected result order: %+v", refs)
	}

	// Matching is case-insensitive.
	_, total, err = repo.SearchByObject("PERSON", 0, 10)
	if err != nil {
		t.Fatalf("SearchByObject failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Case-insensitive search returned %d, want 2", total)
	}

	_, total, err = repo.SearchByObject("cat", 0, 10)
	if err != nil {
		t.Fatalf("SearchByObject failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected no cats, got %d", total)
	}
}

func TestSearchByObject_Pagination(t *testing.T) {
	repo := NewDetectionRepository(setupTestDB(t))
	if err := repo.ImportArchive("a.zip", sampleRecords()); err != nil {
		t.Fatalf("ImportArchive failed: %v", err)
	}

	page1, total, err := repo.SearchByObject("person", 0, 1)
	if err != nil {
		t.Fatalf("SearchByObject failed: %v", err)
	}
	if total != 2 || len(page1) != 1 || page1[0].Entry != "img1.jpg" {
		t.Errorf("First page wrong: total=%d %+v", total, page1)
	}

	page2, _, err := repo.SearchByObject("person", 1, 1)
	if err != nil {
		t.Fatalf("SearchByObject failed: %v", err)
	}
	if len(page2) != 1 || page2[0].Entry != "img2.jpg" {
		t.Errorf("Second page wrong: %+v", page2)
	}
}

func TestImportArchive_IsIdempotent(t *testing.T) {
	repo := NewDetectionRepository(setupTestDB(t))

	if err := repo.ImportArchive("a.zip", sampleRecords()); err != nil {
		t.Fatalf("First import failed: %v", err)
	}
	if err := repo.ImportArchive("a.zip", sampleRecords()); err != nil {
		t.Fatalf("Second import failed: %v", err)
	}

	_, total, err := repo.SearchByObject("person", 0, 10)
	if err != nil {
		t.Fatalf("SearchByObject failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Re-import should not duplicate rows, got total=%d", total)
	}
}

func TestImportArchive_ReplacesOnlyThatArchive(t *testing.T) {
	repo := NewDetectionRepository(setupTestDB(t))

	if err := repo.ImportArchive("a.zip", sampleRecords()); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	other := []photocache.DetectionRecord{{
		Photo:      photocache.PhotoRef{Archive: "b.zip", Entry: "img9.jpg", Index: 0},
		Detections: []ai.Detection{{ClassName: "car", Confidence: 0.8}},
	}}
	if err := repo.ImportArchive("b.zip", other); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	// Wiping a.zip leaves b.zip's rows alone.
	if err := repo.ImportArchive("a.zip", nil); err != nil {
		t.Fatalf("Empty re-import failed: %v", err)
	}
	_, total, err := repo.SearchByObject("person", 0, 10)
	if err != nil {
		t.Fatalf("SearchByObject failed: %v", err)
	}
	if total != 0 {
		t.Errorf("a.zip rows should be gone, got %d", total)
	}
	_, total, err = repo.SearchByObject("car", 0, 10)
	if err != nil {
		t.Fatalf("SearchByObject failed: %v", err)
	}
	if total != 1 {
		t.Errorf("b.zip rows should survive, got %d", total)
	}
}

func TestObjectNames(t *testing.T) {
	repo := NewDetectionRepository(setupTestDB(t))
	if err := repo.ImportArchive("a.zip", sampleRecords()); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	names, err := repo.ObjectNames()
	if err != nil {
		t.Fatalf("ObjectNames failed: %v", err)
	}
	if len(names) != 2 || names[0] != "dog" || names[1] != "person" {
		t.Errorf("Expected [dog person], got %v", names)
	}
}
