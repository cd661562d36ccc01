// internal/content/pool.go
package content

import (
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"mvcs/internal/errors"
	"mvcs/internal/ident"
	"mvcs/internal/storage"
)

const defaultCacheSize = 4096

// Pool is the blob store under <workdir>/.mvcs/contents. Blobs are raw
// copies of working-tree files, addressed by opaque ids; identical bytes
// are stored once.
//
// Rehashing every blob on each dedup lookup is O(n) per file, so the
// pool keeps an in-memory LRU of blob hashes and, when an Index is
// attached, persists them across sessions.
type Pool struct {
	dir   string
	sp    storage.Provider
	ids   ident.Source
	cache *lru.Cache[string, string]
	index *Index
	log   *zap.Logger
}

// NewPool opens the pool rooted at dir, creating it if needed. index
// may be nil; the pool then relies on the LRU alone.
func NewPool(sp storage.Provider, dir string, ids ident.Source, index *Index, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := sp.CreateDir(dir); err != nil {
		return nil, err
	}

	cache, err := lru.New[string, string](defaultCacheSize)
	if err != nil {
		return nil, errors.IO(err, "creating blob hash cache")
	}

	return &Pool{
		dir:   dir,
		sp:    sp,
		ids:   ids,
		cache: cache,
		index: index,
		log:   logger,
	}, nil
}

// BlobPath returns the on-disk location of a blob.
func (p *Pool) BlobPath(id string) string {
	return filepath.Join(p.dir, id)
}

// BlobHash returns the SHA-256 of a blob's bytes, consulting the LRU
// and the persistent index before rehashing the file.
func (p *Pool) BlobHash(id string) (string, error) {
	if hash, ok := p.cache.Get(id); ok {
		return hash, nil
	}
	if p.index != nil {
		if hash, ok := p.index.Get(id); ok {
			p.cache.Add(id, hash)
			return hash, nil
		}
	}

	file, err := p.sp.ReadFile(p.BlobPath(id))
	if err != nil {
		return "", err
	}
	hash, err := file.DataHash()
	if err != nil {
		return "", err
	}

	p.remember(id, hash)
	return hash, nil
}

// FileHash streams the SHA-256 of an arbitrary file. Working-tree files
// mutate freely, so nothing is cached.
func (p *Pool) FileHash(path string) (string, error) {
	file, err := p.sp.ReadFile(path)
	if err != nil {
		return "", err
	}
	return file.DataHash()
}

// Add promotes the file at src into the pool and returns its blob id.
// When a blob in existing already holds identical bytes, that id is
// returned instead and no copy is made.
func (p *Pool) Add(src string, existing []string) (string, error) {
	srcHash, err := p.FileHash(src)
	if err != nil {
		return "", err
	}

	for _, id := range existing {
		blobHash, err := p.BlobHash(id)
		if err != nil {
			return "", err
		}
		if blobHash == srcHash {
			p.log.Debug("blob deduplicated",
				zap.String("source", src),
				zap.String("blob", id))
			return id, nil
		}
	}

	id := p.ids.NewID()
	if err := p.sp.CopyFile(src, p.BlobPath(id)); err != nil {
		return "", err
	}
	p.remember(id, srcHash)

	p.log.Debug("blob stored",
		zap.String("source", src),
		zap.String("blob", id))
	return id, nil
}

func (p *Pool) remember(id, hash string) {
	p.cache.Add(id, hash)
	if p.index != nil {
		if err := p.index.Put(id, hash); err != nil {
			// The index is an optimization; a write failure only costs
			// a rehash next session.
			p.log.Warn("persisting blob hash failed",
				zap.String("blob", id),
				zap.Error(err))
		}
	}
}
