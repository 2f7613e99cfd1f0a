// Package matrix checks every generated test case against every simulator
// configuration.
package matrix

import (
	"log/slog"
	"os"

	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/Manu343726/hazardbench/pkg/refcache"
	"github.com/spf13/afero"
)

// Case is a generated test program, identified by its suite and its path
// relative to the suite source root
type Case struct {
	Suite   layout.Suite
	RelPath string
}

func (c Case) ID() string {
	return c.Suite.Name + "::" + c.RelPath
}

// Discover lists the cases of the given suites, in suite order and sorted by
// path within each suite. Suites without generated sources are skipped with a
// warning.
func Discover(fs afero.Fs, l layout.Layout, suites []layout.Suite, logger *slog.Logger) ([]Case, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var cases []Case

	for _, suite := range suites {
		if _, err := fs.Stat(l.SuiteSourceDir(suite.Dir)); os.IsNotExist(err) {
			logger.Warn("suite directory not found", "suite", suite.Name, "dir", l.SuiteSourceDir(suite.Dir))
			continue
		}

		sources, err := refcache.Sources(fs, l, suite)
		if err != nil {
			return nil, err
		}

		for _, source := range sources {
			cases = append(cases, Case{Suite: suite, RelPath: source})
		}
	}

	return cases, nil
}
