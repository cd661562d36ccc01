// internal/content/index.go
package content

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"mvcs/internal/errors"
)

const blobHashPrefix = "blobhash"

// Index persists blob hashes across sessions in a badger database under
// <workdir>/.mvcs/cache.
type Index struct {
	db *badger.DB
}

func OpenIndex(dir string) (*Index, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.IO(err, "opening hash index at %s", dir)
	}
	return &Index{db: db}, nil
}

// OpenMemoryIndex backs the index with memory only. Tests use it to
// avoid touching disk.
func OpenMemoryIndex() (*Index, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.IO(err, "opening in-memory hash index")
	}
	return &Index{db: db}, nil
}

func (ix *Index) makeKey(blobID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", blobHashPrefix, blobID))
}

func (ix *Index) Get(blobID string) (string, bool) {
	var hash string
	err := ix.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ix.makeKey(blobID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			hash = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return hash, true
}

func (ix *Index) Put(blobID, hash string) error {
	return ix.db.Update(func(txn *badger.Txn) error {
		return txn.Set(ix.makeKey(blobID), []byte(hash))
	})
}

func (ix *Index) Close() error {
	return ix.db.Close()
}
