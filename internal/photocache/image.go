package photocache

import (
	"fmt"

	"photoinsight/internal/archive"
	"photoinsight/internal/imaging"
)

// Image is a materialized photo: the ref, the sniffed MIME type of the
// returned bytes and the bytes themselves (embedded thumbnail or resized).
type Image struct {
	Photo PhotoRef
	MIME  string
	Data  []byte
}

// ImageData extracts displayable bytes for the given photos. Refs are
// grouped by archive so each zip is opened once. Per photo the embedded
// EXIF thumbnail is preferred; when the EXIF container is unreadable or
// carries no thumbnail, the full image is decoded and resized instead.
func (c *Cache) ImageData(refs []PhotoRef) ([]Image, error) {
	archives, order := groupByArchive(refs)

	var images []Image
	for _, zipName := range order {
		files, err := archive.Extract(c.dir, zipName, archives[zipName])
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			ref := PhotoRef{Archive: zipName, Entry: f.Name, Index: f.Index}

			data, err := c.thumbnailBytes(ref, f.Data)
			if err != nil {
				return nil, err
			}
			images = append(images, Image{
				Photo: ref,
				MIME:  imaging.DetectMIME(data),
				Data:  data,
			})
		}
	}
	return images, nil
}

func (c *Cache) thumbnailBytes(ref PhotoRef, raw []byte) ([]byte, error) {
	rec, thumb, err := c.extractor.Extract(raw, true)
	if err != nil {
		c.log.Warning("Failed to extract exif from image %s in zip %s: %v", ref.Entry, ref.Archive, err)
		resized, rerr := c.resizer.Resize(raw, 0, 0)
		if rerr != nil {
			return nil, fmt.Errorf("failed to resize image %s in zip %s: %w", ref.Entry, ref.Archive, rerr)
		}
		return resized, nil
	}

	if len(thumb) > 0 {
		return thumb, nil
	}

	resized, err := c.resizer.Resize(raw, rec.Width, rec.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image %s in zip %s: %w", ref.Entry, ref.Archive, err)
	}
	return resized, nil
}

// groupByArchive buckets entry indices per archive, keeping first-seen
// archive order so results are deterministic.
func groupByArchive(refs []PhotoRef) (map[string][]uint, []string) {
	archives := make(map[string][]uint)
	var order []string
	for _, ref := range refs {
		if _, ok := archives[ref.Archive]; !ok {
			order = append(order, ref.Archive)
		}
		archives[ref.Archive] = append(archives[ref.Archive], ref.Index)
	}
	return archives, order
}
