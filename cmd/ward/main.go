package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fwdware/ward/internal/errs"
	"github.com/fwdware/ward/internal/repo"
)

var (
	verbose  bool
	logLevel zap.AtomicLevel
	logger   *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ward",
	Short: "ward - file integrity monitor with content-addressed history",
	Long: `ward tracks the checksums of files you care about, keeps a copy of every
tracked version in a content-addressed object store, and records an
append-only history of changes. Run it from anywhere inside a repository;
ward walks up to find the .ward control directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewDevelopmentConfig()
		logLevel = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			logLevel = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		cfg.Level = logLevel
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// openSession opens the repository containing the working directory. The
// config file's verbose setting raises the log level when the flag did not.
func openSession() (*repo.Session, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	sess, err := repo.Open(wd, logger)
	if err != nil {
		return nil, err
	}
	if sess.Settings.Verbose {
		logLevel.SetLevel(zapcore.DebugLevel)
	}
	return sess, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errs.ExitCode(err))
	}
}
