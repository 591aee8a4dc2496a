package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/remedgen/pkg/adk"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		scanner := bufio.NewScanner(cmd.InOrStdin())
		readLine := func() string {
			scanner.Scan()
			return strings.TrimSpace(scanner.Text())
		}

		fmt.Fprintln(out, "Welcome to the remedgen setup wizard")
		fmt.Fprintln(out, "------------------------------------")

		fmt.Fprintln(out, "Step 1: Choose your AI Provider")
		for i, p := range adk.Providers {
			fmt.Fprintf(out, "%d. %s\n", i+1, p)
		}
		fmt.Fprint(out, "Enter number or name > ")
		provider := pickProvider(strings.ToLower(readLine()))
		if provider == "" {
			return usageError(errors.New("invalid provider choice"))
		}

		fmt.Fprintf(out, "\nStep 2: Enter API Key for %s\n", provider)
		fmt.Fprint(out, "> ")
		apiKey := readLine()
		if apiKey == "" {
			return usageError(errors.New("API key cannot be empty"))
		}

		cfg, err := loadConfig()
		if err != nil {
			return usageError(fmt.Errorf("error loading config: %w", err))
		}

		fmt.Fprintln(out, "\nStep 3: Validating key and fetching available models...")
		ctx := cmd.Context()
		tempProvider, err := adk.NewProvider(ctx, adk.ProviderSpec{
			Name:    provider,
			APIKey:  apiKey,
			BaseURL: cfg.Providers[provider].BaseURL,
		})
		if err != nil {
			return usageError(fmt.Errorf("error initializing provider: %w", err))
		}
		defer adk.CloseProvider(tempProvider)

		var selectedModel string
		models, err := tempProvider.ListModels(ctx)
		if err != nil || len(models) == 0 {
			if err != nil {
				fmt.Fprintf(out, "Warning: Could not fetch models from API: %v\n", err)
			}
			fmt.Fprintln(out, "Please enter model name manually (e.g., 'gpt-5-mini', 'gemini-1.5-flash'):")
			fmt.Fprint(out, "> ")
			selectedModel = readLine()
		} else {
			fmt.Fprintf(out, "Successfully retrieved %d models.\n", len(models))
			for i, m := range models {
				fmt.Fprintf(out, "%d. %s\n", i+1, m)
			}
			fmt.Fprint(out, "Select Model (number) > ")
			selIdx, err := strconv.Atoi(readLine())
			if err != nil || selIdx < 1 || selIdx > len(models) {
				fmt.Fprintln(out, "Invalid selection. Using first available model.")
				selectedModel = models[0]
			} else {
				selectedModel = models[selIdx-1]
			}
		}

		fmt.Fprintln(out, "\nStep 4: Saving Configuration...")
		cfg.SelectedProvider = provider
		cfg.SelectedModel = selectedModel
		cfg.SetAPIKey(provider, apiKey)

		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}

		fmt.Fprintln(out, "------------------------------------")
		fmt.Fprintln(out, "Setup Complete!")
		fmt.Fprintf(out, "Provider: %s\n", provider)
		fmt.Fprintf(out, "Model:    %s\n", selectedModel)
		fmt.Fprintln(out, "You can now run 'remedgen generate <path>'")
		return nil
	},
}

// pickProvider accepts a 1-based menu number or a provider name.
func pickProvider(choice string) string {
	if n, err := strconv.Atoi(choice); err == nil {
		if n >= 1 && n <= len(adk.Providers) {
			return adk.Providers[n-1]
		}
		return ""
	}
	if knownProvider(choice) {
		return choice
	}
	return ""
}

func init() {
	configCmd.AddCommand(setupCmd)
}
