// internal/archive/archive.go
package archive

import (
	"archive/tar"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"

	"mvcs/internal/content"
	"mvcs/internal/errors"
	"mvcs/internal/ident"
	"mvcs/internal/project"
	"mvcs/internal/storage"
)

// Export writes the item set of a commit as a zstd-compressed tarball.
// Entries carry the item paths (forward slashes) and the commit date as
// their modification time.
func Export(sp storage.Provider, pool *content.Pool, commit *project.Commit, items map[string]*project.Item, out io.Writer) error {
	modTime, err := time.Parse(ident.StampLayout, commit.Date)
	if err != nil {
		return errors.Corrupt("commit %s has malformed date %q", commit.ID, commit.Date)
	}

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return errors.IO(err, "creating archive encoder")
	}
	tw := tar.NewWriter(enc)

	sorted := make([]*project.Item, 0, len(items))
	for _, item := range items {
		sorted = append(sorted, item)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, item := range sorted {
		file, err := sp.ReadFile(pool.BlobPath(item.Content))
		if err != nil {
			return err
		}
		data, err := file.ReadData()
		if err != nil {
			return err
		}

		hdr := &tar.Header{
			Name:    filepath.ToSlash(item.Path),
			Mode:    0644,
			Size:    int64(len(data)),
			ModTime: modTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return errors.IO(err, "writing archive header for %s", item.Path)
		}
		if _, err := tw.Write(data); err != nil {
			return errors.IO(err, "writing archive entry for %s", item.Path)
		}
	}

	if err := tw.Close(); err != nil {
		return errors.IO(err, "finalizing archive")
	}
	if err := enc.Close(); err != nil {
		return errors.IO(err, "finalizing archive compression")
	}
	return nil
}
