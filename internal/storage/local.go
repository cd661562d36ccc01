// internal/storage/local.go
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"mvcs/internal/errors"
)

const hashChunkSize = 64 * 1024

// Local is the afero-backed Provider. The default backing is the real
// OS filesystem; tests may hand in a memory filesystem.
type Local struct {
	fs  afero.Fs
	log *zap.Logger
}

func NewLocal(logger *zap.Logger) *Local {
	return NewLocalWithFs(afero.NewOsFs(), logger)
}

func NewLocalWithFs(fs afero.Fs, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{fs: fs, log: logger}
}

func (l *Local) Exists(path string) bool {
	_, err := l.fs.Stat(path)
	return err == nil
}

func (l *Local) IsFile(path string) bool {
	info, err := l.fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (l *Local) IsDir(path string) bool {
	info, err := l.fs.Stat(path)
	return err == nil && info.IsDir()
}

func (l *Local) ReadFile(path string) (File, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		return nil, errors.IO(err, "reading file %s", path)
	}
	if info.IsDir() {
		return nil, errors.IO(os.ErrInvalid, "reading file %s: is a directory", path)
	}
	return &localFile{fs: l.fs, path: path}, nil
}

func (l *Local) CreateFile(path string, data []byte) error {
	if err := l.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.IO(err, "creating parent directory for %s", path)
	}
	if err := afero.WriteFile(l.fs, path, data, 0644); err != nil {
		return errors.IO(err, "writing file %s", path)
	}
	return nil
}

func (l *Local) CopyFile(src, dst string) error {
	in, err := l.fs.Open(src)
	if err != nil {
		return errors.IO(err, "opening %s", src)
	}
	defer in.Close()

	if err := l.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.IO(err, "creating parent directory for %s", dst)
	}

	out, err := l.fs.Create(dst)
	if err != nil {
		return errors.IO(err, "creating %s", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.IO(err, "copying %s to %s", src, dst)
	}
	if err := out.Close(); err != nil {
		return errors.IO(err, "closing %s", dst)
	}
	return nil
}

func (l *Local) MoveFile(src, dst string) error {
	if err := l.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.IO(err, "creating parent directory for %s", dst)
	}
	if err := l.fs.Rename(src, dst); err == nil {
		return nil
	}
	// Rename can fail across devices; fall back to copy+delete.
	if err := l.CopyFile(src, dst); err != nil {
		return err
	}
	if err := l.fs.Remove(src); err != nil {
		return errors.IO(err, "removing %s after move", src)
	}
	return nil
}

func (l *Local) CreateDir(path string) error {
	if err := l.fs.MkdirAll(path, 0755); err != nil {
		return errors.IO(err, "creating directory %s", path)
	}
	return nil
}

func (l *Local) DeleteFileOrDir(path string) error {
	if err := l.fs.RemoveAll(path); err != nil {
		return errors.IO(err, "deleting %s", path)
	}
	return nil
}

func (l *Local) ReadDir(dir string, ignore ...string) ([]string, error) {
	ign, err := compileIgnore(ignore)
	if err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, errors.IO(err, "listing directory %s", dir)
	}

	var entries []string
	for _, info := range infos {
		if ign.match(info.Name()) {
			continue
		}
		entries = append(entries, info.Name())
	}
	return entries, nil
}

func (l *Local) ReadDirDeep(dir string, ignore ...string) ([]string, error) {
	ign, err := compileIgnore(ignore)
	if err != nil {
		return nil, err
	}

	var entries []string
	walkErr := afero.Walk(l.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if ign.match(filepath.ToSlash(rel)) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		entries = append(entries, rel)
		return nil
	})
	if walkErr != nil {
		return nil, errors.IO(walkErr, "walking directory %s", dir)
	}
	return entries, nil
}

// localFile implements File against an afero filesystem.
type localFile struct {
	fs   afero.Fs
	path string
}

func (f *localFile) Name() string {
	return filepath.Base(f.path)
}

func (f *localFile) Extension() string {
	return strings.TrimPrefix(filepath.Ext(f.path), ".")
}

func (f *localFile) FullPath() string {
	return f.path
}

func (f *localFile) ReadData() ([]byte, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		return nil, errors.IO(err, "reading %s", f.path)
	}
	return data, nil
}

func (f *localFile) WriteData(data []byte) error {
	if err := afero.WriteFile(f.fs, f.path, data, 0644); err != nil {
		return errors.IO(err, "writing %s", f.path)
	}
	return nil
}

func (f *localFile) DataHash() (string, error) {
	file, err := f.fs.Open(f.path)
	if err != nil {
		return "", errors.IO(err, "opening %s for hashing", f.path)
	}
	defer file.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, file, buf); err != nil {
		return "", errors.IO(err, "hashing %s", f.path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
