package photo

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IndexEntry is one photo known to a local index: its file path, the
// album (bucket) it was indexed under, and when it was added.
type IndexEntry struct {
	Path    string
	Bucket  string
	AddedAt int64 // unix seconds, UTC
}

// Index enumerates the photos available on the local device.
type Index interface {
	Photos(ctx context.Context) ([]IndexEntry, error)
}

// LocalSource resolves albums against a local photo index.
type LocalSource struct {
	index Index
}

// NewLocalSource creates a LocalSource over an index.
func NewLocalSource(index Index) *LocalSource {
	return &LocalSource{index: index}
}

// Resolve returns the photos whose bucket matches the album name, or whose
// file path contains the album name as a path segment. The latter covers
// platforms that expose album membership only through directory layout.
func (s *LocalSource) Resolve(ctx context.Context, query AlbumQuery) ([]Ref, error) {
	entries, err := s.index.Photos(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing local photos: %w", err)
	}

	refs := make([]Ref, 0)
	for _, entry := range entries {
		if !inAlbum(entry, query.Album) {
			continue
		}
		if query.Day != nil && !withinDay(entry.AddedAt, *query.Day) {
			continue
		}
		refs = append(refs, Ref{
			ID:          entry.Path,
			URI:         entry.Path,
			Filename:    filepath.Base(entry.Path),
			ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(entry.Path))),
			AddedAt:     timeFromUnix(entry.AddedAt),
		})
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].AddedAt.After(refs[j].AddedAt)
	})
	return refs, nil
}

// Open reads the photo file from disk.
func (s *LocalSource) Open(_ context.Context, ref Ref) ([]byte, error) {
	data, err := os.ReadFile(ref.URI)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	return data, nil
}

// inAlbum matches the bucket name case-insensitively, falling back to a
// path-segment comparison with separators and casing normalized.
func inAlbum(entry IndexEntry, album string) bool {
	if strings.EqualFold(entry.Bucket, album) {
		return true
	}
	want := normalizeSegment(album)
	path := strings.ReplaceAll(entry.Path, `\`, "/")
	for _, segment := range strings.Split(path, "/") {
		if normalizeSegment(segment) == want {
			return true
		}
	}
	return false
}

// normalizeSegment lowercases a path segment and folds the common word
// separators so "family_photos", "Family-Photos" and "family photos" all
// compare equal.
func normalizeSegment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return s
}

// DirIndex is an Index backed by a directory tree: every regular file in
// a supported image format is a photo, its parent directory is its
// bucket, and its modification time stands in for the added-timestamp.
type DirIndex struct {
	root string
}

// NewDirIndex creates a DirIndex rooted at dir.
func NewDirIndex(dir string) *DirIndex {
	return &DirIndex{root: dir}
}

// Photos walks the tree and returns an entry per supported file.
func (d *DirIndex) Photos(ctx context.Context) ([]IndexEntry, error) {
	entries := make([]IndexEntry, 0)
	err := filepath.WalkDir(d.root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if de.IsDir() {
			return nil
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return err
		}
		entries = append(entries, IndexEntry{
			Path:    path,
			Bucket:  filepath.Base(filepath.Dir(path)),
			AddedAt: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking photo directory: %w", err)
	}
	return entries, nil
}
