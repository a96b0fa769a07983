package hierarchy

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LevelConfig is the YAML shape of one entry in hierarchy.yaml's level list.
type LevelConfig struct {
	Level                   uint32  `yaml:"level" validate:"gte=0,lte=6"`
	TileSizeDegrees         float64 `yaml:"tile_size" validate:"required,gt=0"`
	RoadImportanceThreshold int     `yaml:"road_importance_threshold" validate:"gte=0"`
	Subdivisions            int32   `yaml:"subdivisions" validate:"required,gt=0"`
}

// Config is the YAML shape of hierarchy.yaml.
type Config struct {
	TileDir string        `yaml:"tile_dir" validate:"required"`
	Levels  []LevelConfig `yaml:"levels" validate:"required,min=1,dive"`
}

// LoadConfig reads and validates a hierarchy config document from path.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("hierarchy: reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("hierarchy: parsing config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("hierarchy: validating config: %w", err)
	}
	return cfg, nil
}

// FromConfig builds a TileHierarchy from a validated Config.
func FromConfig(cfg Config) (*TileHierarchy, error) {
	specs := make([]LevelSpec, len(cfg.Levels))
	for i, lc := range cfg.Levels {
		specs[i] = LevelSpec{
			Level:                   lc.Level,
			TileSizeDegrees:         lc.TileSizeDegrees,
			RoadImportanceThreshold: lc.RoadImportanceThreshold,
			Subdivisions:            lc.Subdivisions,
		}
	}
	return New(specs, cfg.TileDir)
}

// Load reads hierarchy.yaml from path and builds a TileHierarchy from it.
func Load(path string) (*TileHierarchy, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return FromConfig(cfg)
}
