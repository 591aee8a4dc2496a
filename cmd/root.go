package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/remedgen/pkg/batch"
	"github.com/user/remedgen/pkg/config"
	"github.com/user/remedgen/pkg/logging"
)

var (
	DebugMode  bool
	configPath string
	logFile    string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "remedgen",
	Short: "Batch remediation script generator",
	Long: `remedgen turns vulnerability findings (one JSON descriptor per finding)
into bash remediation scripts by asking a language model, in parallel,
under a fixed safety policy.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var paths []string
		if logFile != "" {
			paths = append(paths, logFile)
		}
		l, err := logging.New(DebugMode, paths...)
		if err != nil {
			return usageError(fmt.Errorf("failed to initialize logger: %w", err))
		}
		logger = l
		return nil
	},
}

// ExitError carries the process exit status for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func usageError(err error) error {
	return &ExitError{Code: batch.ExitUsage, Err: err}
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err == nil {
		return batch.ExitOK
	}
	return reportError(err)
}

func reportError(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		// a failed run has already printed its summary
		if exitErr.Err != nil {
			fmt.Fprintln(os.Stderr, "Error:", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	var inputErr *batch.InputError
	if errors.As(err, &inputErr) {
		return batch.ExitCodeForError(err)
	}
	// cobra argument and flag errors
	return batch.ExitUsage
}

// loadConfig reads --config when given, the default location otherwise. The
// result holds file values only; callers that run work use WithEnv.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfigFrom(configPath)
	}
	return config.LoadConfig()
}

func saveConfig(cfg *config.Config) error {
	if configPath != "" {
		return config.SaveConfigTo(configPath, cfg)
	}
	return config.SaveConfig(cfg)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.remedgen/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
}
