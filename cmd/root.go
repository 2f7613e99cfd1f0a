package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Manu343726/hazardbench/cmd/config"
	"github.com/Manu343726/hazardbench/cmd/corpus"
	"github.com/Manu343726/hazardbench/cmd/reference"
	"github.com/Manu343726/hazardbench/cmd/tools"
	"github.com/Manu343726/hazardbench/cmd/verify"
	"github.com/Manu343726/hazardbench/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var logger *logging.Logger

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "hazardbench",
	Short: "Pipeline hazard verification for RISC-V simulators",
	Long: `hazardbench generates corpora of small RISC-V programs exercising pipeline hazards,
builds golden reference states with a functional simulator and checks a pipelined
simulator against them under every hazard handling configuration.

Typical workflow:
  hazardbench corpus init
  hazardbench corpus generate
  hazardbench reference build
  hazardbench verify`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.Install(logging.Options{
			Verbose: viper.GetBool(config.KeyVerbose),
			File:    viper.GetString(config.KeyLogFile),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		logging.ConfigureColor(os.Stdout)
		if file := viper.ConfigFileUsed(); file != "" {
			logger.Debug("using config file", "file", file)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		logging.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(corpus.CorpusCmd, reference.ReferenceCmd, verify.VerifyCmd, tools.ToolsCmd)
	cobra.OnInitialize(initConfig)

	config.SetDefaults(viper.GetViper())

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .hazardbench.yaml in the working or home directory)")
	flags.String("root", ".", "Directory holding the assembly, reference, runs and definitions trees")
	flags.IntP("workers", "j", 0, "Maximum number of concurrent tool invocations (default: number of CPUs)")
	flags.BoolP("verbose", "v", false, "Log debug records")
	flags.String("log-file", "", "Append JSON log records to this file")

	cobra.CheckErr(viper.BindPFlag(config.KeyRoot, flags.Lookup("root")))
	cobra.CheckErr(viper.BindPFlag(config.KeyWorkers, flags.Lookup("workers")))
	cobra.CheckErr(viper.BindPFlag(config.KeyVerbose, flags.Lookup("verbose")))
	cobra.CheckErr(viper.BindPFlag(config.KeyLogFile, flags.Lookup("log-file")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in the working and home directories
		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".hazardbench")
	}

	viper.SetEnvPrefix("hazardbench")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match
	cobra.CheckErr(viper.BindEnv(config.KeySimMode, "SIM_MODE", "HAZARDBENCH_SIM_MODE"))

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
			os.Exit(1)
		}
	}
}
