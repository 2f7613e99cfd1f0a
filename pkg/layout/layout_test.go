package layout

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayout_MirroredTrees(t *testing.T) {
	l := New("/work")
	rel := "add_addi/add_x1__addi_rs1.s"

	assert.Equal(t, filepath.FromSlash("/work/assembly/multi_hazard/gapped"), l.SuiteSourceDir("multi_hazard/gapped"))
	assert.Equal(t,
		filepath.FromSlash("/work/reference/multi_hazard/gapped/add_addi/add_x1__addi_rs1.s/test.memimg"),
		l.MemoryImage("multi_hazard/gapped", rel))
	assert.Equal(t,
		filepath.FromSlash("/work/reference/multi_hazard/gapped/add_addi/add_x1__addi_rs1.s/golden.json"),
		l.GoldenSnapshot("multi_hazard/gapped", rel))
	assert.Equal(t,
		filepath.FromSlash("/work/runs/5Stage_Ideal/multi_gapped/add_addi/add_x1__addi_rs1.s/dut.json"),
		l.DUTSnapshot("5Stage_Ideal", "multi_gapped", rel))
}

func TestLayout_SuiteFiles(t *testing.T) {
	l := New("root")

	assert.Equal(t, filepath.Join("root", "definitions", "double_dep.yaml"), l.DefinitionFile("double_dep"))
	assert.Equal(t, filepath.Join("root", "reference", "multi_hazard", "double_dep", ".cache_marker.yaml"), l.MarkerFile("multi_hazard/double_dep"))
}

func TestLayout_SourceFile(t *testing.T) {
	l := New("/work")
	suite := Suite{Name: "control_data", Dir: "multi_hazard/control_data"}

	assert.Equal(t,
		filepath.FromSlash("/work/assembly/multi_hazard/control_data/across_branch/add_x1__add_across_branch_rs1.s"),
		l.SourceFile(suite, "across_branch/add_x1__add_across_branch_rs1.s"))
}

func TestLayout_ReportFile(t *testing.T) {
	l := New("root")

	assert.Equal(t, filepath.Join("root", "runs", "reports", "cs0f9ug0000000000000.yaml"), l.ReportFile("cs0f9ug0000000000000"))
}
