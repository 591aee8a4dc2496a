package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/remedgen/pkg/adk"
	"github.com/user/remedgen/pkg/engine"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration (providers, models, keys, policy profiles)",
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Manually set API key for a provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		key, _ := cmd.Flags().GetString("key")
		provider = strings.ToLower(provider)

		if provider == "" || key == "" {
			return usageError(errors.New("--provider and --key are required"))
		}
		if !knownProvider(provider) {
			return usageError(fmt.Errorf("unknown provider: %s", provider))
		}

		cfg, err := loadConfig()
		if err != nil {
			return usageError(fmt.Errorf("error loading config: %w", err))
		}

		cfg.SetAPIKey(provider, key)
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "API key saved for provider: %s\n", provider)
		return nil
	},
}

var setModelCmd = &cobra.Command{
	Use:   "set-model",
	Short: "Manually set the active provider and model",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		model, _ := cmd.Flags().GetString("model")

		cfg, err := loadConfig()
		if err != nil {
			return usageError(fmt.Errorf("error loading config: %w", err))
		}

		if provider != "" {
			provider = strings.ToLower(provider)
			if !knownProvider(provider) {
				return usageError(fmt.Errorf("unknown provider: %s", provider))
			}
			cfg.SelectedProvider = provider
		}
		if model != "" {
			cfg.SelectedModel = model
		}

		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Active configuration updated: Provider=%s, Model=%s\n", cfg.SelectedProvider, cfg.SelectedModel)
		return nil
	},
}

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List available models from the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fileCfg, err := loadConfig()
		if err != nil {
			return usageError(fmt.Errorf("error loading config: %w", err))
		}
		cfg := fileCfg.WithEnv()

		provider := cfg.SelectedProvider
		if provider == "" {
			return usageError(errors.New("no provider selected, run 'remedgen config setup'"))
		}
		apiKey := cfg.GetAPIKey(provider)
		if apiKey == "" {
			return usageError(fmt.Errorf("no API key found for %s", provider))
		}

		fmt.Fprintf(out, "Fetching models for %s...\n", provider)
		ctx := cmd.Context()
		p, err := adk.NewProvider(ctx, adk.ProviderSpec{
			Name:    provider,
			APIKey:  apiKey,
			BaseURL: cfg.Providers[provider].BaseURL,
		})
		if err != nil {
			return usageError(fmt.Errorf("error initializing provider: %w", err))
		}
		defer adk.CloseProvider(p)

		models, err := p.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("error fetching models: %w", err)
		}

		fmt.Fprintf(out, "\nAvailable Models (%s):\n", provider)
		for _, m := range models {
			mark := " "
			if m == cfg.SelectedModel {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %s\n", mark, m)
		}
		return nil
	},
}

var listProfilesCmd = &cobra.Command{
	Use:   "list-profiles",
	Short: "List available policy profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return usageError(fmt.Errorf("error loading config: %w", err))
		}
		dir, _ := cmd.Flags().GetString("profiles-dir")
		if dir == "" {
			dir = cfg.ProfilesDir
		}

		policy := engine.NewPolicyEngine()
		if dir != "" {
			if err := policy.LoadProfiles(dir); err != nil {
				return usageError(err)
			}
		}

		out := cmd.OutOrStdout()
		for _, id := range policy.ListProfiles() {
			p, _ := policy.GetProfile(id)
			mark := " "
			if id == cfg.Profile || (cfg.Profile == "" && id == engine.DefaultProfileID) {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %-16s %s (%s)\n", mark, id, p.Name, p.Platform)
		}
		return nil
	},
}

func knownProvider(name string) bool {
	for _, p := range adk.Providers {
		if p == name {
			return true
		}
	}
	return false
}

func init() {
	setKeyCmd.Flags().StringP("provider", "p", "", "Provider (openai, gemini, anthropic)")
	setKeyCmd.Flags().StringP("key", "k", "", "API Key")

	setModelCmd.Flags().StringP("provider", "p", "", "Provider (openai, gemini, anthropic)")
	setModelCmd.Flags().StringP("model", "m", "", "Model name")

	listProfilesCmd.Flags().String("profiles-dir", "", "Directory of extra policy profiles (*.yaml)")

	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(setModelCmd)
	configCmd.AddCommand(listModelsCmd)
	configCmd.AddCommand(listProfilesCmd)
	rootCmd.AddCommand(configCmd)
}
