package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/communitypulse/internal/config"
	"github.com/rohankatakam/communitypulse/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	err := rootCmd.Execute()
	logging.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cpulse",
	Short: "CommunityPulse - community metrics and pattern classification for GitHub projects",
	Long: `CommunityPulse measures the community around a GitHub repository over a
90-day snapshot window and classifies it into community patterns.

Five characteristics are computed per community (structure, dispersion,
formality, engagement, longevity) and mapped onto nine patterns such as
FormalGroup, CommunityOfPractice or SocialNetwork.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize logger
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}

		if !verbose {
			if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
				logger.SetLevel(level)
			}
		}
		if cfg.Logging.JSON {
			logger.SetFormatter(&logrus.JSONFormatter{})
		}

		// Library packages log through slog. Outside verbose mode their
		// records only go to the log file.
		logCfg := logging.DefaultConfig(cfg.Logging.Directory, verbose)
		if !verbose {
			logCfg.Level = logging.ParseLevel(cfg.Logging.Level)
			if logCfg.OutputFile != "" {
				logCfg.Output = io.Discard
			}
		}
		logCfg.JSONFormat = logCfg.JSONFormat || cfg.Logging.JSON
		if err := logging.Initialize(logCfg); err != nil {
			logger.WithError(err).Warn("Failed to initialize log file, logging to stderr only")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.cpulse/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Set custom version template
	rootCmd.SetVersionTemplate(`CommunityPulse {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	// Add subcommands
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(authCmd)
}
