package refcache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/spf13/afero"
)

// Sources lists the assembly files of a suite as slash separated paths
// relative to the suite source root, sorted
func Sources(fs afero.Fs, l layout.Layout, suite layout.Suite) ([]string, error) {
	root := l.SuiteSourceDir(suite.Dir)

	var sources []string

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), layout.SourceExtension) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		sources = append(sources, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(sources)
	return sources, nil
}
