package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/iapp-technology/chinda-eval/internal/common/fsutil"
)

// Load reads a configuration file based on its extension and applies
// defaults. Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if cfg.OutputDir, err = fsutil.ExpandHome(cfg.OutputDir); err != nil {
		return cfg, err
	}
	if cfg.Serving.ModelsDir, err = fsutil.ExpandHome(cfg.Serving.ModelsDir); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
