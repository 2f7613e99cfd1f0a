package corpus

import (
	"testing"

	"github.com/Manu343726/hazardbench/pkg/hazard"
	"github.com/Manu343726/hazardbench/pkg/layout"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_AllSuites(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := layout.New("/work")
	writer := hazard.NewWriter(fs, l, nil)
	defs := hazard.DefaultDefinitions()

	summaries, err := generate(writer, defs, 2)
	require.NoError(t, err)
	require.Len(t, summaries, len(defs))

	for i, def := range defs {
		assert.Equal(t, def.Name, summaries[i].Suite)
		assert.NotZero(t, summaries[i].Files, def.Name)

		manifest, err := hazard.ReadManifest(fs, l.SuiteSourceDir(def.Dir))
		require.NoError(t, err)
		assert.Len(t, manifest.Programs, summaries[i].Files)
	}
}

func TestGenerate_InvalidDefinition(t *testing.T) {
	writer := hazard.NewWriter(afero.NewMemMapFs(), layout.New("/work"), nil)

	def, ok := hazard.DefaultDefinition("double_dep")
	require.True(t, ok)
	def.Kind = "triple_dependency"

	_, err := generate(writer, []hazard.Definition{def}, 0)
	assert.Error(t, err)
}
