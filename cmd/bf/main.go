package main

import (
	"os"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nickandperla.net/bfopt"
)

var (
	toolConfigPath string
	verbose        bool
	profileMode    string

	toolConfig *bfopt.ToolConfig
	profiler   interface{ Stop() }
)

var rootCmd = &cobra.Command{
	Use:           "bf",
	Short:         "Parse, optimize and run BF programs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		toolConfig, err = bfopt.LoadToolConfig(toolConfigPath, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}

		level, err := toolConfig.Level()
		if err != nil {
			return err
		}
		if verbose {
			level = log.DebugLevel
		}
		log.SetLevel(level)

		switch profileMode {
		case "":
		case "cpu":
			profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet)
		case "mem":
			profiler = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet)
		default:
			log.Warnf("Unknown profile mode [%s], profiling disabled", profileMode)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profiler != nil {
			profiler.Stop()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&toolConfigPath, "config", "./config.toml", "The config file for bf tools to use")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().StringVar(&profileMode, "profile", "", "Write a cpu or mem profile to the working directory")

	rootCmd.AddCommand(runCmd, dumpCmd, suiteCmd, statsCmd)
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := rootCmd.Execute(); err != nil {
		if profiler != nil {
			profiler.Stop()
		}
		log.Fatalf("%v", err)
	}
}
