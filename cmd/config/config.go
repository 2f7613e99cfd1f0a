// Package config maps the viper configuration shared by every command to
// harness components.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Manu343726/hazardbench/pkg/hazard"
	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/Manu343726/hazardbench/pkg/matrix"
	"github.com/Manu343726/hazardbench/pkg/refcache"
	"github.com/Manu343726/hazardbench/pkg/toolchain"
	"github.com/Manu343726/hazardbench/pkg/utils"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Configuration keys
const (
	KeyRoot           = "root"
	KeyWorkers        = "workers"
	KeyAssembler      = "tools.assembler"
	KeyGolden         = "tools.golden"
	KeyDUT            = "tools.dut"
	KeyBuildDir       = "tools.build_dir"
	KeyAssembleTime   = "timeouts.assemble"
	KeyGoldenTime     = "timeouts.golden"
	KeyDUTTime        = "timeouts.dut"
	KeyRunnerStamp    = "runner_stamp"
	KeyGoldenFlags    = "golden_flags"
	KeyLogFile        = "log.file"
	KeyVerbose        = "verbose"
	KeyConfigurations = "configurations"
	KeySimMode        = "sim_mode"
)

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRoot, ".")
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyBuildDir, "build")
	v.SetDefault(KeyAssembleTime, 10*time.Second)
	v.SetDefault(KeyGoldenTime, 10*time.Second)
	v.SetDefault(KeyDUTTime, 3*time.Second)
}

type Tools struct {
	Assembler string `mapstructure:"assembler"`
	Golden    string `mapstructure:"golden"`
	DUT       string `mapstructure:"dut"`
	BuildDir  string `mapstructure:"build_dir"`
}

type Timeouts struct {
	Assemble time.Duration `mapstructure:"assemble"`
	Golden   time.Duration `mapstructure:"golden"`
	DUT      time.Duration `mapstructure:"dut"`
}

type Log struct {
	File string `mapstructure:"file"`
}

// Settings is the decoded configuration
type Settings struct {
	Root        string   `mapstructure:"root"`
	Workers     int      `mapstructure:"workers"`
	Tools       Tools    `mapstructure:"tools"`
	Timeouts    Timeouts `mapstructure:"timeouts"`
	RunnerStamp string   `mapstructure:"runner_stamp"`
	GoldenFlags []string `mapstructure:"golden_flags"`
	Log         Log      `mapstructure:"log"`
	Verbose     bool     `mapstructure:"verbose"`

	// Extra simulator configurations, replacing defaults with the same ID
	Configurations []matrix.Configuration `mapstructure:"configurations"`
	// Restricts verification to a single configuration
	SimMode string `mapstructure:"sim_mode"`
}

// Load decodes the settings from v
func Load(v *viper.Viper) (Settings, error) {
	var settings Settings

	if err := v.Unmarshal(&settings); err != nil {
		return settings, fmt.Errorf("invalid configuration: %w", err)
	}

	root, err := filepath.Abs(settings.Root)
	if err != nil {
		return settings, err
	}
	settings.Root = root

	if settings.RunnerStamp == "" {
		if exe, err := os.Executable(); err == nil {
			settings.RunnerStamp = exe
		}
	}

	return settings, nil
}

func (s Settings) Layout() layout.Layout {
	return layout.New(s.Root)
}

func (s Settings) tool(path, name string, logger *slog.Logger) (*toolchain.Tool, error) {
	return toolchain.Discover(toolchain.ToolConfig{
		Path:        path,
		Name:        name,
		BuildDirs:   []string{s.Tools.BuildDir},
		ProjectRoot: s.Root,
		Logger:      logger,
	})
}

func (s Settings) Assembler(logger *slog.Logger) (*toolchain.Assembler, error) {
	tool, err := s.tool(s.Tools.Assembler, toolchain.AssemblerName, logger)
	if err != nil {
		return nil, err
	}
	return toolchain.NewAssembler(tool, s.Timeouts.Assemble), nil
}

func (s Settings) Golden(logger *slog.Logger) (*toolchain.Simulator, error) {
	tool, err := s.tool(s.Tools.Golden, toolchain.GoldenName, logger)
	if err != nil {
		return nil, err
	}
	return toolchain.NewSimulator(tool, s.Timeouts.Golden), nil
}

func (s Settings) DUT(logger *slog.Logger) (*toolchain.Simulator, error) {
	tool, err := s.tool(s.Tools.DUT, toolchain.DUTName, logger)
	if err != nil {
		return nil, err
	}
	return toolchain.NewSimulator(tool, s.Timeouts.DUT), nil
}

// Cache builds the reference cache, discovering the assembler and the golden
// simulator
func (s Settings) Cache(fs afero.Fs, logger *slog.Logger) (*refcache.Cache, error) {
	assembler, err := s.Assembler(logger)
	if err != nil {
		return nil, err
	}

	golden, err := s.Golden(logger)
	if err != nil {
		return nil, err
	}

	return refcache.New(fs, s.Layout(), assembler, golden, refcache.Options{
		Workers:     s.Workers,
		RunnerStamp: s.RunnerStamp,
		GoldenFlags: s.GoldenFlags,
		Logger:      logger,
	}), nil
}

// SimulatorConfigurations returns the configurations to verify, honoring the
// single configuration selector
func (s Settings) SimulatorConfigurations(mode string) ([]matrix.Configuration, error) {
	if mode == "" {
		mode = s.SimMode
	}
	return matrix.Select(matrix.Merge(matrix.DefaultConfigurations(), s.Configurations), mode)
}

// Definitions loads the suite definitions of the layout, falling back to the
// built-in suites if none were initialized. Non-empty names restrict the
// result to those suites, in the given order.
func Definitions(fs afero.Fs, l layout.Layout, names []string, logger *slog.Logger) ([]hazard.Definition, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var defs []hazard.Definition

	if _, err := fs.Stat(l.DefinitionsDir()); os.IsNotExist(err) {
		logger.Debug("no definitions directory, using built-in suites", "dir", l.DefinitionsDir())
		defs = hazard.DefaultDefinitions()
	} else {
		loaded, err := hazard.LoadDefinitions(fs, l.DefinitionsDir())
		if err != nil {
			return nil, err
		}
		defs = loaded
	}

	if len(names) == 0 {
		return defs, nil
	}

	byName := utils.GenMap(defs, func(def hazard.Definition) string { return def.Name })
	selected := make([]hazard.Definition, 0, len(names))

	for _, name := range names {
		def, ok := byName[name]
		if !ok {
			return nil, utils.MakeError(hazard.ErrInvalidDefinition, "unknown suite '%v', available suites: %v", name, utils.SortedKeys(byName))
		}
		selected = append(selected, def)
	}

	return selected, nil
}
