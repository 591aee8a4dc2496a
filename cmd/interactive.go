package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/remedgen/pkg/adk"
	"github.com/user/remedgen/pkg/config"
	"github.com/user/remedgen/pkg/engine"
)

var (
	replProvider string
	replModel    string
	replProfile  string
	replOut      string
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Preview scripts for single findings before saving them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		setup, err := prepareRun(ctx, config.Overrides{
			Provider:  replProvider,
			Model:     replModel,
			Profile:   replProfile,
			OutputDir: replOut,
		})
		if err != nil {
			return err
		}
		defer adk.CloseProvider(setup.provider)

		remediator := adk.NewRemediator(setup.provider, setup.system, setup.rc.Timeout, logger)
		writer := engine.NewScriptWriter(setup.rc.OutputDir)

		fmt.Fprintf(out, "Connecting to %s (Model: %s, Policy: %s)...\n", setup.rc.Provider, setup.rc.Model, setup.profile.ID)
		fmt.Fprintln(out, "\n---------------------------------------------------------")
		fmt.Fprintln(out, "Enter the path of a finding descriptor to preview its script.")
		fmt.Fprintln(out, "Type 'save' to write the last preview, 'quit' or 'exit' to stop.")
		fmt.Fprintln(out, "---------------------------------------------------------")

		var last string
		var lastLabel string
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "\n> ")
			if !scanner.Scan() {
				break
			}
			input := strings.TrimSpace(scanner.Text())
			switch input {
			case "":
				continue
			case "quit", "exit":
				return nil
			case "save":
				if last == "" {
					fmt.Fprintln(out, "Nothing to save yet.")
					continue
				}
				art, err := writer.Write(last, lastLabel)
				if err != nil {
					fmt.Fprintf(out, "Error: %v\n", err)
					continue
				}
				fmt.Fprintf(out, "Saved %s\n", art.Path)
				continue
			}

			d, err := engine.ReadDescriptor(input)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}

			fmt.Fprint(out, "Generating... ")
			resp, err := remediator.Remediate(ctx, d)
			fmt.Fprint(out, "\r\033[K")
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			script, err := engine.ExtractScript(resp)
			if err != nil {
				logger.Debug("unrecoverable response", zap.String("finding", d.Name), zap.Int("response_len", len(resp)))
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}

			last, lastLabel = script, d.Name
			fmt.Fprintf(out, "[%s]\n%s\n", d.Name, script)
		}
		return scanner.Err()
	},
}

func init() {
	interactiveCmd.Flags().StringVarP(&replProvider, "provider", "p", "", "Provider (openai, gemini, anthropic)")
	interactiveCmd.Flags().StringVarP(&replModel, "model", "m", "", "Model name")
	interactiveCmd.Flags().StringVar(&replProfile, "profile", "", "Policy profile id")
	interactiveCmd.Flags().StringVarP(&replOut, "out", "o", "", "Output root directory for saved scripts")

	rootCmd.AddCommand(interactiveCmd)
}
