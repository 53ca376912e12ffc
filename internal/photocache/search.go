package photocache

import (
	"strings"

	"photoinsight/internal/exif"
)

// clampPage clamps offset to [0, total] and limit to [0, total-offset] and
// returns the slice bounds for the requested page.
func clampPage(total, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

// ListAll returns one page of all indexed photos plus the total count.
func (c *Cache) ListAll(offset, limit int) ([]PhotoRef, int) {
	total := len(c.images)
	start, end := clampPage(total, offset, limit)
	return c.images[start:end], total
}

// SearchByName matches photos whose entry name contains name
// (case-insensitive). A non-empty archiveFilter additionally requires the
// archive name to contain it.
func (c *Cache) SearchByName(name, archiveFilter string, offset, limit int) ([]PhotoRef, int) {
	nameLower := strings.ToLower(name)
	archiveLower := strings.ToLower(archiveFilter)

	var matches []PhotoRef
	for _, ref := range c.images {
		if !strings.Contains(strings.ToLower(ref.Entry), nameLower) {
			continue
		}
		if archiveFilter != "" && !strings.Contains(strings.ToLower(ref.Archive), archiveLower) {
			continue
		}
		matches = append(matches, ref)
	}

	total := len(matches)
	c.log.Info("Found %d images matching name %q", total, name)
	start, end := clampPage(total, offset, limit)
	return matches[start:end], total
}

// SearchByYearMonth returns one page of the photos in the given
// year/month bucket. Unknown capture dates live in the (0, 0) bucket.
func (c *Cache) SearchByYearMonth(year, month uint, offset, limit int) ([]PhotoRef, int) {
	months, ok := c.byYearMonth[year]
	if !ok {
		return nil, 0
	}
	refs, ok := months[month]
	if !ok {
		return nil, 0
	}

	total := len(refs)
	start, end := clampPage(total, offset, limit)
	return refs[start:end], total
}

// SearchByExifTags evaluates a typed (tag, operator, value) predicate over
// every indexed record. A malformed predicate (unknown tag, operator/type
// mismatch, unparsable literal) is an error; it never silently matches
// nothing.
func (c *Cache) SearchByExifTags(tagName, value, operator string, offset, limit int) ([]ExifResult, int, error) {
	if err := exif.ValidateQuery(tagName, value, operator); err != nil {
		return nil, 0, err
	}

	var matches []ExifResult
	for _, ref := range c.images {
		rec, ok := c.exif[ref]
		if !ok {
			continue
		}
		matched, err := rec.MatchesQuery(tagName, value, operator)
		if err != nil || !matched {
			continue
		}
		matches = append(matches, ExifResult{Photo: ref, Exif: rec})
	}

	total := len(matches)
	c.log.Info("Found %d images matching exif tag %s %s %s", total, tagName, operator, value)
	start, end := clampPage(total, offset, limit)
	return matches[start:end], total, nil
}

// ExifInfo returns the metadata records for the given photos. Photos without
// a record (extraction failed at build time) are omitted.
func (c *Cache) ExifInfo(refs []PhotoRef) []ExifResult {
	var results []ExifResult
	for _, ref := range refs {
		if rec, ok := c.exif[ref]; ok {
			results = append(results, ExifResult{Photo: ref, Exif: rec})
		}
	}
	return results
}
