package main

import (
	"fmt"
	"os"

	"guardian/cmd/guardian/ui"
	"guardian/internal/analyzer"
	"guardian/internal/backend"
	"guardian/internal/config"
	"guardian/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// skipSetupAnnotation marks commands that must run without loading config.
const skipSetupAnnotation = "guardian/skip-setup"

// app holds state resolved once per invocation and shared by subcommands.
type app struct {
	// Global flags
	configPath string
	backendURL string
	skinName   string
	verbose    bool

	cfg    *config.Config
	skin   ui.Skin
	styles ui.Styles
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "guardian",
		Short: "guardian - plagiarism and fake news checks from the terminal",
		Long: `guardian sends text to an analysis service and shows its verdict together
with plagiarism and fake-news likelihoods.

Run without arguments to start the interactive analyzer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := cmd.Annotations[skipSetupAnnotation]; ok {
				a.resolveConfigPath()
				return nil
			}
			// The interactive widget owns the terminal; it only logs to a file.
			return a.setup(cmd == cmd.Root())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/guardian/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.backendURL, "backend-url", "", "Analysis service base URL (overrides config and environment)")
	rootCmd.PersistentFlags().StringVar(&a.skinName, "skin", "", "Presentation skin: integrity or guardian")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newAnalyzeCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) resolveConfigPath() string {
	if a.configPath == "" {
		a.configPath = config.DefaultConfigPath()
	}
	return a.configPath
}

// setup loads configuration, applies flag overrides, validates the result and
// initializes logging.
func (a *app) setup(interactive bool) error {
	path := a.resolveConfigPath()

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.backendURL != "" {
		cfg.Service.BaseURL = a.backendURL
	}
	if a.skinName != "" {
		cfg.UI.Skin = a.skinName
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if err := logging.Initialize(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
		Quiet:  interactive,
	}); err != nil {
		return err
	}
	a.logger = logging.Get(logging.CategoryBoot)

	skin, err := ui.LookupSkin(cfg.UI.Skin)
	if err != nil {
		return err
	}
	a.skin = skin
	a.styles = ui.NewStyles(ui.DetectTheme(cfg.UI.DarkMode))

	a.logger.Debug("configuration resolved",
		zap.String("config", path),
		zap.String("endpoint", backend.ResolveBaseURL(cfg.Service.BaseURL)+backend.AnalyzePath),
		zap.String("skin", skin.Name),
		zap.Duration("timeout", cfg.GetTimeout()))
	return nil
}

// newScorer builds the analysis service client from the resolved config.
func (a *app) newScorer() *backend.Client {
	return backend.New(backend.Config{
		BaseURL:   a.cfg.Service.BaseURL,
		Timeout:   a.cfg.GetTimeout(),
		RateLimit: a.cfg.Service.RateLimit,
		Logger:    logging.Get(logging.CategoryAPI),
	})
}

func (a *app) newOrchestrator(scorer analyzer.Scorer) *analyzer.Orchestrator {
	return analyzer.New(scorer, analyzer.WithLogger(logging.Get(logging.CategoryAnalyzer)))
}
