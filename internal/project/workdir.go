// internal/project/workdir.go
package project

import (
	"os"
	"path/filepath"

	"mvcs/internal/errors"
)

// FindRoot walks up from startDir looking for the directory that holds
// the project directory.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.IO(err, "resolving %s", startDir)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, DirName)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.NotFound("no %s project found above %s", DirName, startDir)
}
