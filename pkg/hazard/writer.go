package hazard

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/Manu343726/hazardbench/pkg/utils"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ManifestEntry records the descriptor a generated file covers
type ManifestEntry struct {
	Path       string     `yaml:"path"`
	Descriptor Descriptor `yaml:"descriptor"`
}

// Manifest lists every program of a generated suite
type Manifest struct {
	Suite    string          `yaml:"suite"`
	Kind     Kind            `yaml:"kind"`
	Programs []ManifestEntry `yaml:"programs"`
}

// Summary describes a generated suite
type Summary struct {
	Suite string
	Dir   string
	// Number of programs per category
	Categories map[string]int
	Files      int
}

// Writer materializes suites on a filesystem
type Writer struct {
	fs     afero.Fs
	layout layout.Layout
	logger *slog.Logger
	now    func() time.Time
}

func NewWriter(fs afero.Fs, l layout.Layout, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Writer{
		fs:     fs,
		layout: l,
		logger: logger,
		now:    time.Now,
	}
}

func (w *Writer) generationError(def Definition, err error) error {
	return utils.MakeError(ErrGeneration, "suite '%v': %v", def.Name, err)
}

// WriteSuite regenerates a suite from scratch: the suite directory is removed,
// every program and the manifest are written, and the directory modification
// time is refreshed last so that it reflects a completed generation.
func (w *Writer) WriteSuite(def Definition) (Summary, error) {
	summary := Summary{
		Suite:      def.Name,
		Dir:        w.layout.SuiteSourceDir(def.Dir),
		Categories: make(map[string]int),
	}

	programs, err := Generate(def)
	if err != nil {
		return summary, err
	}

	if err := w.fs.RemoveAll(summary.Dir); err != nil {
		return summary, w.generationError(def, err)
	}
	if err := w.fs.MkdirAll(summary.Dir, 0755); err != nil {
		return summary, w.generationError(def, err)
	}

	manifest := Manifest{Suite: def.Name, Kind: def.Kind}

	for _, program := range programs {
		file := filepath.Join(summary.Dir, filepath.FromSlash(program.Path()))

		if err := w.writeProgram(file, program.Program); err != nil {
			return summary, w.generationError(def, err)
		}

		manifest.Programs = append(manifest.Programs, ManifestEntry{Path: program.Path(), Descriptor: program.Descriptor})
		summary.Categories[program.Category]++
		summary.Files++
	}

	if err := w.writeManifest(filepath.Join(summary.Dir, layout.ManifestName), manifest); err != nil {
		return summary, w.generationError(def, err)
	}

	now := w.now()
	if err := w.fs.Chtimes(summary.Dir, now, now); err != nil {
		return summary, w.generationError(def, err)
	}

	w.logger.Info("suite generated", "suite", def.Name, "dir", summary.Dir, "files", summary.Files, "categories", len(summary.Categories))
	return summary, nil
}

func (w *Writer) writeProgram(file string, program Program) error {
	var buffer bytes.Buffer

	if err := Render(&buffer, program); err != nil {
		return err
	}

	if err := w.fs.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return err
	}

	return afero.WriteFile(w.fs, file, buffer.Bytes(), 0644)
}

func (w *Writer) writeManifest(file string, manifest Manifest) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}

	return afero.WriteFile(w.fs, file, data, 0644)
}

// ReadManifest loads the manifest of a generated suite
func ReadManifest(fs afero.Fs, suiteSourceDir string) (Manifest, error) {
	var manifest Manifest

	data, err := afero.ReadFile(fs, filepath.Join(suiteSourceDir, layout.ManifestName))
	if err != nil {
		return manifest, err
	}

	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("invalid manifest in %v: %w", suiteSourceDir, err)
	}

	return manifest, nil
}

// InitDefinitions writes the given definitions to the definitions directory.
// Existing files are kept unless overwrite is set. Returns the written files.
func (w *Writer) InitDefinitions(defs []Definition, overwrite bool) ([]string, error) {
	var written []string

	for _, def := range defs {
		file := w.layout.DefinitionFile(def.Name)

		if !overwrite {
			if _, err := w.fs.Stat(file); err == nil {
				w.logger.Debug("definition kept", "suite", def.Name, "file", file)
				continue
			} else if !os.IsNotExist(err) {
				return written, err
			}
		}

		if err := SaveDefinition(w.fs, file, def); err != nil {
			return written, fmt.Errorf("failed to write definition of suite '%v': %w", def.Name, err)
		}

		written = append(written, file)
	}

	return written, nil
}
