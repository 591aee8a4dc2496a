package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/remedgen/pkg/batch"
	"github.com/user/remedgen/pkg/splitter"
)

var splitCmd = &cobra.Command{
	Use:   "split <report.json> <outDir>",
	Short: "Split a cleaned scan report into one descriptor file per finding",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reportPath, outDir := args[0], args[1]

		if _, err := os.Stat(reportPath); os.IsNotExist(err) {
			return &batch.InputError{Path: reportPath, Err: batch.ErrNotFound}
		}

		written, err := splitter.New(outDir).SplitFile(reportPath)
		if err != nil {
			return usageError(err)
		}
		logger.Debug("report split", zap.String("report", reportPath), zap.Int("findings", len(written)))

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d descriptor files to %s\n", len(written), outDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)
}
