package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/remedgen/pkg/adk"
	"github.com/user/remedgen/pkg/batch"
	"github.com/user/remedgen/pkg/config"
	"github.com/user/remedgen/pkg/engine"
	"github.com/user/remedgen/pkg/history"
	"github.com/user/remedgen/pkg/ui"
)

var (
	genOut         string
	genWorkers     int
	genProvider    string
	genModel       string
	genProfile     string
	genProfilesDir string
	genTimeout     time.Duration
	genPlain       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <path> [outDir]",
	Short: "Generate remediation scripts for a descriptor file or directory",
	Long: `Generate reads one finding descriptor (a .json file) or every .json file
directly inside a directory, asks the configured model for a remediation
script per finding, and writes each script as an executable file under
<outDir>/<YYYY-MM-DD>/.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	inputPath := args[0]

	if cmd.Flags().Changed("workers") && genWorkers < 1 {
		return usageError(fmt.Errorf("--workers must be at least 1, got %d", genWorkers))
	}

	files, err := batch.Gather(inputPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No descriptor files found in %s\n", inputPath)
		return nil
	}

	overrides := config.Overrides{
		Provider:    genProvider,
		Model:       genModel,
		OutputDir:   genOut,
		Workers:     genWorkers,
		Timeout:     genTimeout,
		Profile:     genProfile,
		ProfilesDir: genProfilesDir,
	}
	if overrides.OutputDir == "" && len(args) == 2 {
		overrides.OutputDir = args[1]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	setup, err := prepareRun(ctx, overrides)
	if err != nil {
		return err
	}
	defer adk.CloseProvider(setup.provider)
	rc, profile := setup.rc, setup.profile

	runID := uuid.NewString()
	runLogger := logger.With(zap.String("run_id", runID))
	runLogger.Debug("starting run",
		zap.String("input", inputPath),
		zap.Int("files", len(files)),
		zap.String("provider", rc.Provider),
		zap.String("model", rc.Model),
		zap.Int("workers", rc.Workers))

	sched := &batch.Scheduler{
		Workers: rc.Workers,
		Pipeline: &batch.Pipeline{
			Generator: adk.NewRemediator(setup.provider, setup.system, rc.Timeout, runLogger),
			Writer:    engine.NewScriptWriter(rc.OutputDir),
		},
		Logger: runLogger,
	}

	fmt.Fprint(out, ui.RenderBanner(ui.RunInfo{
		Input:    inputPath,
		Output:   rc.OutputDir,
		Provider: rc.Provider,
		Model:    rc.Model,
		Profile:  profile.ID,
		Workers:  rc.Workers,
	}))

	started := time.Now()
	var outcomes []batch.TaskOutcome
	if !genPlain && ui.IsTerminal(os.Stdout) {
		runCtx, cancel := context.WithCancel(ctx)
		err := ui.RunLive(out, cancel, func(observe batch.Observer) {
			sched.Observer = observe
			outcomes = sched.Run(runCtx, files)
		})
		cancel()
		if err != nil {
			runLogger.Warn("progress display failed", zap.Error(err))
		}
	} else {
		sched.Observer = ui.NewPlainPrinter(out).Observe
		outcomes = sched.Run(ctx, files)
	}

	summary := batch.Summarize(runID, outcomes, time.Since(started))
	fmt.Fprint(out, ui.RenderSummary(summary))

	recordRun(runLogger, rc, history.Run{
		ID:        runID,
		StartedAt: started,
		InputPath: inputPath,
		OutputDir: rc.OutputDir,
		Provider:  rc.Provider,
		Model:     rc.Model,
		Workers:   rc.Workers,
	}, summary)

	if code := summary.ExitCode(); code != batch.ExitOK {
		return &ExitError{Code: code}
	}
	return nil
}

// runSetup is everything resolved before the first task is dispatched.
type runSetup struct {
	rc       config.RunConfig
	profile  engine.PolicyProfile
	system   string
	provider adk.LLMProvider
}

// prepareRun resolves configuration, the policy profile and the provider.
// Every error it returns is a usage error.
func prepareRun(ctx context.Context, o config.Overrides) (*runSetup, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, usageError(fmt.Errorf("error loading config: %w", err))
	}
	rc, err := cfg.WithEnv().Resolve(o)
	if err != nil {
		return nil, usageError(err)
	}

	policy := engine.NewPolicyEngine()
	if rc.ProfilesDir != "" {
		if err := policy.LoadProfiles(rc.ProfilesDir); err != nil {
			return nil, usageError(err)
		}
	}
	profile, err := policy.GetProfile(rc.Profile)
	if err != nil {
		return nil, usageError(err)
	}
	system, err := adk.SystemPrompt(profile)
	if err != nil {
		return nil, usageError(err)
	}

	provider, err := adk.NewProvider(ctx, adk.ProviderSpec{
		Name:    rc.Provider,
		APIKey:  rc.APIKey,
		Model:   rc.Model,
		BaseURL: rc.BaseURL,
	})
	if err != nil {
		return nil, usageError(fmt.Errorf("error initializing provider: %w", err))
	}
	return &runSetup{rc: rc, profile: profile, system: system, provider: provider}, nil
}

// recordRun stores the run in the history database. A history failure never
// changes the run's result.
func recordRun(l *zap.Logger, rc config.RunConfig, run history.Run, summary batch.RunSummary) {
	store, err := history.Open(rc.HistoryDB)
	if err != nil {
		l.Warn("history unavailable", zap.String("path", rc.HistoryDB), zap.Error(err))
		return
	}
	defer store.Close()

	if err := store.Record(context.Background(), run, summary); err != nil {
		l.Warn("failed to record run", zap.Error(err))
	}
}

func init() {
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "Output root directory (default out_scripts)")
	generateCmd.Flags().IntVarP(&genWorkers, "workers", "w", 0, "Maximum concurrent tasks (default 5)")
	generateCmd.Flags().StringVarP(&genProvider, "provider", "p", "", "Provider (openai, gemini, anthropic)")
	generateCmd.Flags().StringVarP(&genModel, "model", "m", "", "Model name")
	generateCmd.Flags().StringVar(&genProfile, "profile", "", "Policy profile id (default sysv-ssh)")
	generateCmd.Flags().StringVar(&genProfilesDir, "profiles-dir", "", "Directory of extra policy profiles (*.yaml)")
	generateCmd.Flags().DurationVar(&genTimeout, "timeout", 0, "Per-request generation timeout (default 5m)")
	generateCmd.Flags().BoolVar(&genPlain, "plain", false, "Print one line per task instead of the live view")

	rootCmd.AddCommand(generateCmd)
}
