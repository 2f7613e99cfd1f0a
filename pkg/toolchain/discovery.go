// Package toolchain wraps the external assembler and simulators the harness
// drives: binary discovery, bounded subprocess execution and outcome
// classification.
package toolchain

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/Manu343726/hazardbench/pkg/utils"
)

// Default executable names
const (
	AssemblerName = "assembler_binary"
	GoldenName    = "rvss_binary"
	DUTName       = "rv5s_binary"
)

// ToolConfig locates an external tool
type ToolConfig struct {
	// Explicit path to the executable. Discovery fails if it does not exist.
	Path string

	// Executable name looked up in build directories and PATH
	Name string

	// Build directories searched below each candidate root (default "build")
	BuildDirs []string

	// ProjectRoot is searched before the working directory and the executable location
	ProjectRoot string

	Logger *slog.Logger
}

// Tool is a discovered external executable
type Tool struct {
	name     string
	path     string
	isSystem bool
	logger   *slog.Logger
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Path() string {
	return t.path
}

// IsSystem returns true if the tool was found in PATH
func (t *Tool) IsSystem() bool {
	return t.isSystem
}

// Discover finds a tool.
// Search order:
// 1. Explicit Path in config
// 2. Project build directories (build/, ../build/ relative to the candidate roots)
// 3. System PATH
func Discover(config ToolConfig) (*Tool, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tool := &Tool{name: config.Name, logger: logger}

	if config.Path != "" {
		if info, err := os.Stat(config.Path); err == nil && !info.IsDir() {
			tool.path = config.Path
			if tool.name == "" {
				tool.name = filepath.Base(config.Path)
			}
			return tool, nil
		}
		return nil, utils.MakeError(ErrToolNotFound, "specified path not found: %s", config.Path)
	}

	if config.Name == "" {
		return nil, utils.MakeError(ErrToolNotFound, "no tool name or path configured")
	}

	if path := findProjectTool(config); path != "" {
		tool.path = path
		logger.Debug("tool found in build directory", "tool", config.Name, "path", path)
		return tool, nil
	}

	if path, err := exec.LookPath(executableName(config.Name)); err == nil {
		tool.path = path
		tool.isSystem = true
		logger.Debug("tool found in PATH", "tool", config.Name, "path", path)
		return tool, nil
	}

	return nil, utils.MakeError(ErrToolNotFound, "could not find '%s' in the build directories or PATH; set its path in the configuration", config.Name)
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		return name + ".exe"
	}
	return name
}

// candidateRoots lists the directories build directories are searched under
func candidateRoots(config ToolConfig) []string {
	var roots []string

	if config.ProjectRoot != "" {
		roots = append(roots, config.ProjectRoot)
	}

	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd, filepath.Dir(cwd))
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		roots = append(roots, exeDir, filepath.Dir(exeDir))
	}

	return roots
}

// findProjectTool looks for the tool in the project build directories
func findProjectTool(config ToolConfig) string {
	buildDirs := config.BuildDirs
	if len(buildDirs) == 0 {
		buildDirs = []string{"build"}
	}

	exe := executableName(config.Name)

	for _, root := range candidateRoots(config) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}

		for _, buildDir := range buildDirs {
			paths := []string{
				filepath.Join(absRoot, buildDir, exe),
				filepath.Join(absRoot, buildDir, "bin", exe),
			}

			for _, path := range paths {
				if info, err := os.Stat(path); err == nil && !info.IsDir() {
					return path
				}
			}
		}
	}

	return ""
}
