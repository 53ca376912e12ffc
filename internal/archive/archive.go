// Package archive reads photo zip archives: directory listing, image entry
// enumeration and extraction of raw entry bytes by index.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Entry identifies an image entry inside a zip archive.
type Entry struct {
	Index uint
	Name  string
}

// File is an extracted archive entry together with its raw bytes.
type File struct {
	Index uint
	Name  string
	Data  []byte
}

// ListZipFiles returns the names of all zip archives directly under dir.
func ListZipFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("provided path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory %s: %w", dir, err)
	}

	var zipFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			zipFiles = append(zipFiles, e.Name())
		}
	}
	return zipFiles, nil
}

// ListImages enumerates image-like entries in the given archive along with
// their entry indices. The index is positional over all entries, so it can be
// used for extraction later even when non-image entries are interleaved.
func ListImages(dir, zipName string) ([]Entry, error) {
	reader, err := openArchive(dir, zipName)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var images []Entry
	for i, f := range reader.File {
		if IsImageFile(f.Name) {
			images = append(images, Entry{Index: uint(i), Name: f.Name})
		}
	}
	return images, nil
}

// Extract reads the entries at the given indices into memory.
func Extract(dir, zipName string, indices []uint) ([]File, error) {
	reader, err := openArchive(dir, zipName)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var files []File
	for _, idx := range indices {
		if int(idx) >= len(reader.File) {
			return nil, fmt.Errorf("file index %d out of bounds in zip %s", idx, zipName)
		}

		entry := reader.File[idx]
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open entry %s in zip %s: %w", entry.Name, zipName, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read entry %s in zip %s: %w", entry.Name, zipName, err)
		}

		files = append(files, File{Index: idx, Name: entry.Name, Data: data})
	}
	return files, nil
}

// IsImageFile reports whether the entry name looks like a photo we index.
func IsImageFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".jpg") ||
		strings.HasSuffix(lower, ".jpeg") ||
		strings.HasSuffix(lower, ".png")
}

func openArchive(dir, zipName string) (*zip.ReadCloser, error) {
	zipPath := filepath.Join(dir, zipName)
	info, err := os.Stat(zipPath)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("provided zip file path is not a file: %s", zipPath)
	}

	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip %s: %w", zipName, err)
	}
	return reader, nil
}
