package matrix_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Manu343726/hazardbench/pkg/matrix"
)

var _ = Describe("Configurations", func() {
	It("should start with the ideal pipeline followed by eight hazard combinations", func() {
		configs := matrix.DefaultConfigurations()

		Expect(configs).To(HaveLen(9))
		Expect(configs[0].ID).To(Equal("5Stage_Ideal"))
		Expect(configs[1].ID).To(Equal("5Stage_Stall_static_not_taken"))
		Expect(configs[8].ID).To(Equal("5Stage_Forwarding_dynamic_2bit"))
	})

	It("should render only the non-empty parameters as flags", func() {
		ideal := matrix.DefaultConfigurations()[0]

		Expect(ideal.Flags()).To(Equal([]string{
			"--config", "Execution", "processor_type", "multi_stage",
			"--config", "Execution", "data_hazard_mode", "ideal",
		}))
	})

	It("should render branch handling flags", func() {
		stall := matrix.DefaultConfigurations()[1]

		Expect(stall.Flags()).To(HaveLen(16))
		Expect(stall.Flags()[12:]).To(Equal([]string{"--config", "Execution", "branch_predictor", "static_not_taken"}))
	})

	Describe("Select", func() {
		It("should return every configuration without an id", func() {
			configs, err := matrix.Select(matrix.DefaultConfigurations(), "")

			Expect(err).NotTo(HaveOccurred())
			Expect(configs).To(HaveLen(9))
		})

		It("should return the named configuration", func() {
			configs, err := matrix.Select(matrix.DefaultConfigurations(), "5Stage_Forwarding_static_taken")

			Expect(err).NotTo(HaveOccurred())
			Expect(configs).To(HaveLen(1))
			Expect(configs[0].DataHazardMode).To(Equal("forwarding"))
			Expect(configs[0].BranchPredictor).To(Equal("static_taken"))
		})

		It("should list the available modes for an unknown id", func() {
			_, err := matrix.Select(matrix.DefaultConfigurations(), "6Stage")

			Expect(err).To(MatchError(matrix.ErrUnknownConfiguration))
			Expect(err.Error()).To(ContainSubstring("5Stage_Ideal"))
			Expect(err.Error()).To(ContainSubstring("5Stage_Stall_dynamic_1bit"))
		})
	})

	Describe("Merge", func() {
		It("should replace defaults and append new configurations", func() {
			merged := matrix.Merge(matrix.DefaultConfigurations(), []matrix.Configuration{
				{ID: "5Stage_Ideal", ProcessorType: "single_stage"},
				{ID: "Custom", ProcessorType: "multi_stage", DataHazardMode: "stall"},
			})

			Expect(merged).To(HaveLen(10))
			Expect(merged[0].ProcessorType).To(Equal("single_stage"))
			Expect(merged[9].ID).To(Equal("Custom"))
		})
	})
})
