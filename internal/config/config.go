// internal/config/config.go
package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	AuthorID string   `json:"author_id"` // default author for commits
	LogLevel string   `json:"log_level"` // debug, info, warn, error
	Ignore   []string `json:"ignore"`    // extra ignore globs for status/watch
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
	}
}

// Load reads a JSON config file. A missing file is not an error; the
// defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
