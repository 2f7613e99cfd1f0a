package refcache

import (
	"github.com/Manu343726/hazardbench/pkg/layout"
)

// Artifact locates the reference outputs of a single source file
type Artifact struct {
	MemoryImage string
	Golden      string
}

func (a Artifact) Files() []string {
	return []string{a.MemoryImage, a.Golden}
}

// Artifact returns the reference outputs of a suite source, given its path
// relative to the suite source root
func (c *Cache) Artifact(suite layout.Suite, source string) Artifact {
	return Artifact{
		MemoryImage: c.layout.MemoryImage(suite.Dir, source),
		Golden:      c.layout.GoldenSnapshot(suite.Dir, source),
	}
}
