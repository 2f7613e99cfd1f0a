// Package layout describes where hazardbench persists generated sources,
// reference artifacts and run outputs on disk.
package layout

import (
	"path/filepath"
)

const (
	SourcesDirName     = "assembly"
	ReferenceDirName   = "reference"
	RunsDirName        = "runs"
	DefinitionsDirName = "definitions"
	ReportsDirName     = "reports"

	// Assembled program image produced by the assembler
	MemoryImageName = "test.memimg"
	// Final machine state dumped by the golden simulator
	GoldenSnapshotName = "golden.json"
	// Final machine state dumped by the simulator under test
	DUTSnapshotName = "dut.json"
	// Per-suite cache marker stored at the root of the suite reference tree
	MarkerName = ".cache_marker.yaml"
	// Per-suite list of generated programs and their hazard descriptors
	ManifestName = "manifest.yaml"

	SourceExtension     = ".s"
	DefinitionExtension = ".yaml"
	ReportExtension     = ".yaml"
)

// Layout maps suites, test cases and configurations to paths below a single root.
//
// Reference and run trees mirror the source tree: every source file gets a
// directory named after it holding its artifacts, so two sources in the same
// category never share output files.
type Layout struct {
	Root string
}

func New(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) SourcesRoot() string {
	return filepath.Join(l.Root, SourcesDirName)
}

func (l Layout) ReferenceRoot() string {
	return filepath.Join(l.Root, ReferenceDirName)
}

func (l Layout) RunsRoot() string {
	return filepath.Join(l.Root, RunsDirName)
}

func (l Layout) DefinitionsDir() string {
	return filepath.Join(l.Root, DefinitionsDirName)
}

// DefinitionFile returns the path of the generator definition of a suite
func (l Layout) DefinitionFile(suite string) string {
	return filepath.Join(l.DefinitionsDir(), suite+DefinitionExtension)
}

// SuiteSourceDir returns the root of the generated sources of a suite
func (l Layout) SuiteSourceDir(suiteDir string) string {
	return filepath.Join(l.SourcesRoot(), filepath.FromSlash(suiteDir))
}

// SuiteReferenceDir returns the root of the reference artifacts of a suite
func (l Layout) SuiteReferenceDir(suiteDir string) string {
	return filepath.Join(l.ReferenceRoot(), filepath.FromSlash(suiteDir))
}

func (l Layout) MarkerFile(suiteDir string) string {
	return filepath.Join(l.SuiteReferenceDir(suiteDir), MarkerName)
}

// ArtifactDir returns the directory holding the reference artifacts of a source
// file given its path relative to the suite source root
func (l Layout) ArtifactDir(suiteDir, relPath string) string {
	return filepath.Join(l.SuiteReferenceDir(suiteDir), filepath.FromSlash(relPath))
}

func (l Layout) MemoryImage(suiteDir, relPath string) string {
	return filepath.Join(l.ArtifactDir(suiteDir, relPath), MemoryImageName)
}

func (l Layout) GoldenSnapshot(suiteDir, relPath string) string {
	return filepath.Join(l.ArtifactDir(suiteDir, relPath), GoldenSnapshotName)
}

// RunDir returns the directory holding the output of one (case, configuration) cell
func (l Layout) RunDir(configID, suite, relPath string) string {
	return filepath.Join(l.RunsRoot(), configID, suite, filepath.FromSlash(relPath))
}

func (l Layout) DUTSnapshot(configID, suite, relPath string) string {
	return filepath.Join(l.RunDir(configID, suite, relPath), DUTSnapshotName)
}

// ReportFile returns the path of the summary of a verification run
func (l Layout) ReportFile(runID string) string {
	return filepath.Join(l.RunsRoot(), ReportsDirName, runID+ReportExtension)
}

// Suite identifies a generated suite: its name keys definitions and run
// outputs, its directory locates sources and reference artifacts
type Suite struct {
	Name string
	Dir  string
}

func (l Layout) SourceFile(s Suite, relPath string) string {
	return filepath.Join(l.SuiteSourceDir(s.Dir), filepath.FromSlash(relPath))
}
