package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/mexp/expand"
)

const defaultTimeout = 5 * time.Minute

var (
	cfgFile  string
	timeout  time.Duration
	verbose  bool
	maxDepth int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:              "mexp [paths...]",
	Short:            "mexp - expands macro definitions and invocations in s-expression sources",
	Version:          expand.Version,
	TraverseChildren: true, // Prioritize subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		// no subcommand
		if len(args) == 0 {
			// display help when only 'mexp' is entered
			_ = cmd.Help()
			return
		}
		// Format: mexp [path1 path2 ...] => behaves like the expand subcommand
		expandCmd.Run(cmd, args)
	},
}

func Execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", expand.DefaultConfigFile, "Path to the configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "Timeout for processing all paths")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every macro definition and application")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 0, "Maximum depth of nested macro applications, overrides the configuration (negative: unbounded)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(replCmd)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadConfig reads the configuration file and applies the persistent flags
// the user set on top of it.
func loadConfig(cmd *cobra.Command) (expand.Config, error) {
	config, err := expand.LoadConfig(cfgFile)
	if err != nil {
		return config, err
	}
	if cmd.Flags().Changed("max-depth") {
		config.MaxDepth = maxDepth
	}
	return config, nil
}
