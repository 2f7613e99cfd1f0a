package tools

import (
	"testing"

	"github.com/Manu343726/hazardbench/pkg/hazard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocs_SuiteTopicsRoundTrip(t *testing.T) {
	for _, def := range hazard.DefaultDefinitions() {
		t.Run(def.Name, func(t *testing.T) {
			doc, ok := supportedTopics["suite."+def.Name]
			require.True(t, ok)

			decoded, err := hazard.DecodeDefinition([]byte(doc()))
			require.NoError(t, err)
			assert.Equal(t, def.Name, decoded.Name)
			assert.Equal(t, def.Kind, decoded.Kind)
		})
	}
}

func TestDocs_ValidArgs(t *testing.T) {
	assert.Contains(t, docsCmd.ValidArgs, "layout")
	assert.Contains(t, docsCmd.ValidArgs, "snapshot")
	assert.Contains(t, docsCmd.ValidArgs, "suite.control_data")
	assert.Contains(t, docsCmd.Long, "suite.single_hazards")
}
