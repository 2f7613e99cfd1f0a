package matrix

import (
	"strings"

	"github.com/Manu343726/hazardbench/pkg/toolchain"
	"github.com/Manu343726/hazardbench/pkg/utils"
	"github.com/samber/lo"
)

// Simulator configuration section all hazard handling keys live in
const ConfigSection = "Execution"

// Configuration is a named bundle of hazard handling parameters of the
// simulator under test. Empty parameters are left to the simulator default.
type Configuration struct {
	ID              string `mapstructure:"id" yaml:"id"`
	ProcessorType   string `mapstructure:"processor_type" yaml:"processor_type"`
	DataHazardMode  string `mapstructure:"data_hazard_mode" yaml:"data_hazard_mode,omitempty"`
	BranchStage     string `mapstructure:"branch_stage" yaml:"branch_stage,omitempty"`
	BranchPredictor string `mapstructure:"branch_predictor" yaml:"branch_predictor,omitempty"`
}

// Flags renders the configuration as repeated --config triples
func (c Configuration) Flags() []string {
	var flags []string

	parameters := []struct{ key, value string }{
		{"processor_type", c.ProcessorType},
		{"data_hazard_mode", c.DataHazardMode},
		{"branch_stage", c.BranchStage},
		{"branch_predictor", c.BranchPredictor},
	}

	for _, parameter := range parameters {
		if parameter.value != "" {
			flags = append(flags, toolchain.ConfigFlag(ConfigSection, parameter.key, parameter.value)...)
		}
	}

	return flags
}

var (
	hazardModes = []struct{ name, value string }{
		{"Stall", "stall"},
		{"Forwarding", "forwarding"},
	}
	branchPredictors = []string{"static_not_taken", "static_taken", "dynamic_1bit", "dynamic_2bit"}
)

// DefaultConfigurations returns the idealized five stage pipeline followed by
// every (data hazard mode, branch predictor) combination resolving branches in EX
func DefaultConfigurations() []Configuration {
	configs := []Configuration{
		{ID: "5Stage_Ideal", ProcessorType: "multi_stage", DataHazardMode: "ideal"},
	}

	for _, mode := range hazardModes {
		for _, predictor := range branchPredictors {
			configs = append(configs, Configuration{
				ID:              "5Stage_" + mode.name + "_" + predictor,
				ProcessorType:   "multi_stage",
				DataHazardMode:  mode.value,
				BranchStage:     "ex",
				BranchPredictor: predictor,
			})
		}
	}

	return configs
}

// Merge appends extra configurations, replacing defaults with the same ID
func Merge(base []Configuration, extra []Configuration) []Configuration {
	byID := utils.GenMap(extra, func(c Configuration) string { return c.ID })

	merged := lo.Map(base, func(c Configuration, _ int) Configuration {
		if replacement, ok := byID[c.ID]; ok {
			delete(byID, c.ID)
			return replacement
		}
		return c
	})

	for _, c := range extra {
		if _, ok := byID[c.ID]; ok {
			merged = append(merged, c)
		}
	}

	return merged
}

// Select returns every configuration if id is empty, the configuration with
// that id otherwise
func Select(configs []Configuration, id string) ([]Configuration, error) {
	if id == "" {
		return configs, nil
	}

	if c, ok := lo.Find(configs, func(c Configuration) bool { return c.ID == id }); ok {
		return []Configuration{c}, nil
	}

	ids := lo.Map(configs, func(c Configuration, _ int) string { return c.ID })
	return nil, utils.MakeError(ErrUnknownConfiguration, "'%v' not found; available modes:\n  %v", id, strings.Join(ids, "\n  "))
}
