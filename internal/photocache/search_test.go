package photocache

import "testing"

func TestClampPage(t *testing.T) {
	cases := []struct {
		total, offset, limit int
		start, end           int
	}{
		{10, 0, 5, 0, 5},
		{10, 5, 5, 5, 10},
		{10, 8, 5, 8, 10},
		{10, 20, 5, 10, 10},
		{10, -3, 5, 0, 5},
		{10, 0, -1, 0, 0},
		{0, 0, 5, 0, 0},
	}
	for _, tc := range cases {
		start, end := clampPage(tc.total, tc.offset, tc.limit)
		if start != tc.start || end != tc.end {
			t.Errorf("clampPage(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tc.total, tc.offset, tc.limit, start, end, tc.start, tc.end)
		}
	}
}

func TestListAll(t *testing.T) {
	dir, extractor := setupArchiveDir(t)
	cache := buildCache(t, dir, extractor, stubResizer{})

	refs, total := cache.ListAll(0, 10)
	if total != 2 || len(refs) != 2 {
		t.Fatalf("ListAll = total %d, page %d", total, len(refs))
	}

	page, total := cache.ListAll(1, 10)
	if total != 2 || len(page) != 1 || page[0].Entry != "img2.png" {
		t.Errorf("Second page wrong: total=%d refs=%+v", total, page)
	}
}

func TestSearchByName(t *testing.T) {
	dir, extractor := setupArchiveDir(t)
	cache := buildCache(t, dir, extractor, stubResizer{})

	refs, total := cache.SearchByName("IMG", "", 0, 1)
	if total != 2 {
		t.Errorf("Expected total 2, got %d", total)
	}
	if len(refs) != 1 || refs[0].Entry != "img1.jpg" {
		t.Errorf("Expected first page [img1.jpg], got %+v", refs)
	}

	refs, total = cache.SearchByName("img2", "", 0, 10)
	if total != 1 || refs[0].Entry != "img2.png" {
		t.Errorf("Expected only img2.png, got total=%d %+v", total, refs)
	}

	if _, total = cache.SearchByName("img", "b.zip", 0, 10); total != 0 {
		t.Errorf("Archive filter b.zip should match nothing, got %d", total)
	}
	if _, total = cache.SearchByName("img", "A.ZIP", 0, 10); total != 2 {
		t.Errorf("Archive filter is case-insensitive, got %d", total)
	}
	if _, total = cache.SearchByName("nothing", "", 0, 10); total != 0 {
		t.Errorf("Expected no matches, got %d", total)
	}
}

func TestSearchByName_PagesReconstructList(t *testing.T) {
	dir, extractor := setupArchiveDir(t)
	cache := buildCache(t, dir, extractor, stubResizer{})

	var all []PhotoRef
	for offset := 0; ; offset++ {
		page, total := cache.SearchByName("img", "", offset, 1)
		if offset >= total {
			break
		}
		all = append(all, page...)
	}
	if len(all) != 2 || all[0].Entry != "img1.jpg" || all[1].Entry != "img2.png" {
		t.Errorf("Pages do not reconstruct the full result list: %+v", all)
	}
}

func TestSearchByYearMonth(t *testing.T) {
	dir, extractor := setupArchiveDir(t)
	cache := buildCache(t, dir, extractor, stubResizer{})

	refs, total := cache.SearchByYearMonth(2021, 5, 0, 10)
	if total != 1 || len(refs) != 1 || refs[0].Entry != "img1.jpg" {
		t.Errorf("Expected img1.jpg in 2021-05, got total=%d %+v", total, refs)
	}

	if _, total = cache.SearchByYearMonth(2021, 6, 0, 10); total != 0 {
		t.Errorf("Empty month bucket should report 0, got %d", total)
	}
	if _, total = cache.SearchByYearMonth(1990, 1, 0, 10); total != 0 {
		t.Errorf("Empty year bucket should report 0, got %d", total)
	}
}

func TestSearchByExifTags(t *testing.T) {
	dir, extractor := setupArchiveDir(t)
	cache := buildCache(t, dir, extractor, stubResizer{})

	// Stored model carries quotes; the query value does not, and matching
	// is case-insensitive.
	results, total, err := cache.SearchByExifTags("model", "x100", "==", 0, 10)
	if err != nil {
		t.Fatalf("SearchByExifTags failed: %v", err)
	}
	if total != 1 || len(results) != 1 || results[0].Photo.Entry != "img1.jpg" {
		t.Errorf("Expected img1.jpg, got total=%d %+v", total, results)
	}
	if results[0].Exif.Year != 2021 {
		t.Errorf("Result should carry the record: %+v", results[0].Exif)
	}

	results, total, err = cache.SearchByExifTags("aperture", "2.0", ">", 0, 10)
	if err != nil {
		t.Fatalf("SearchByExifTags failed: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected 1 photo with aperture > 2.0, got %d", total)
	}

	_, total, err = cache.SearchByExifTags("year", "1990", "==", 0, 10)
	if err != nil {
		t.Fatalf("SearchByExifTags failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected no matches for year 1990, got %d", total)
	}
}

func TestSearchByExifTags_MalformedPredicate(t *testing.T) {
	dir, extractor := setupArchiveDir(t)
	cache := buildCache(t, dir, extractor, stubResizer{})

	if _, _, err := cache.SearchByExifTags("bogus", "x", "==", 0, 10); err == nil {
		t.Error("Expected error for unknown tag")
	}
	if _, _, err := cache.SearchByExifTags("model", "x", ">", 0, 10); err == nil {
		t.Error("Expected error for relational operator on string tag")
	}
	if _, _, err := cache.SearchByExifTags("year", "abc", "==", 0, 10); err == nil {
		t.Error("Expected error for non-numeric literal")
	}
}

func TestExifInfo(t *testing.T) {
	dir, extractor := setupArchiveDir(t)
	cache := buildCache(t, dir, extractor, stubResizer{})

	img1 := PhotoRef{Archive: "a.zip", Entry: "img1.jpg", Index: 0}
	img2 := PhotoRef{Archive: "a.zip", Entry: "img2.png", Index: 1}

	// img2 has no record, so it is omitted rather than reported as an error.
	results := cache.ExifInfo([]PhotoRef{img1, img2})
	if len(results) != 1 || results[0].Photo != img1 {
		t.Errorf("Expected only img1's record, got %+v", results)
	}
}
