package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/doesim/internal/experiment"
	"github.com/san-kum/doesim/internal/factorial"
	"github.com/san-kum/doesim/internal/models"
	"github.com/san-kum/doesim/internal/storage"
)

const (
	DefaultWorkbook = "experiment.xlsx"
	DefaultSheet    = "Regressions"
	DefaultRange    = "J28:O43"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Levels   int                `yaml:"levels"`
	Factors  int                `yaml:"factors"`
	Dt       float64            `yaml:"dt"`
	Seed     int64              `yaml:"seed"`
	Channel  int                `yaml:"channel"`
	Strict   bool               `yaml:"strict"`
	Params   models.Params      `yaml:"params"`
	Design   []factorial.Factor `yaml:"design"`
	Workbook WorkbookConfig     `yaml:"workbook"`
}

type WorkbookConfig struct {
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"`
	Range string `yaml:"range"`
}

func DefaultConfig() *Config {
	return &Config{
		Levels:  experiment.DefaultLevels,
		Factors: experiment.DefaultFactors,
		Dt:      experiment.DefaultStep,
		Channel: models.PitchRate,
		Params:  models.DefaultParams(),
		Design:  experiment.DefaultDesignFactors(),
		Workbook: WorkbookConfig{
			Path:  DefaultWorkbook,
			Sheet: DefaultSheet,
			Range: DefaultRange,
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file over base. Fields absent from the file keep
// the values in base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	out := *c
	out.Design = append([]factorial.Factor(nil), c.Design...)
	return &out
}

func (c *Config) Validate() error {
	if err := c.Experiment().Validate(); err != nil {
		return err
	}
	if c.Workbook.Path == "" {
		return fmt.Errorf("%w: workbook path is empty", ErrInvalid)
	}
	if c.Workbook.Sheet == "" {
		return fmt.Errorf("%w: sheet name is empty", ErrInvalid)
	}

	rows, cols, err := storage.Dimensions(c.Workbook.Range)
	if err != nil {
		return err
	}
	if width := c.RowWidth(); cols < width {
		return fmt.Errorf("%w: range %s has %d columns, need %d", ErrInvalid, c.Workbook.Range, cols, width)
	}
	runs, err := factorial.Count(c.Levels, c.Factors)
	if err != nil {
		return err
	}
	if rows < runs {
		return fmt.Errorf("%w: range %s has %d rows, need %d", ErrInvalid, c.Workbook.Range, rows, runs)
	}
	return nil
}

// RowWidth is the number of columns written per run: the run number, one
// per design factor, then S.
func (c *Config) RowWidth() int {
	return len(c.Design) + 2
}

// Experiment converts the file layout into a driver config.
func (c *Config) Experiment() experiment.Config {
	return experiment.Config{
		Levels:        c.Levels,
		FactorCount:   c.Factors,
		Step:          c.Dt,
		Base:          c.Params,
		Factors:       append([]factorial.Factor(nil), c.Design...),
		Channel:       c.Channel,
		Seed:          c.Seed,
		ValidateState: c.Strict,
	}
}

// WorkbookPath resolves the workbook against the working directory.
func (c *Config) WorkbookPath() (string, error) {
	if filepath.IsAbs(c.Workbook.Path) {
		return c.Workbook.Path, nil
	}
	return filepath.Abs(c.Workbook.Path)
}
