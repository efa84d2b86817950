// Package cli implements the sercha-kb command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-kb/internal/app"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/core/services"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	configDir string
	verbose   bool
	docsDir   string
)

// pipelineFactory opens pipelines for one command or request.
type pipelineFactory interface {
	Open(ctx context.Context, variant string) (*app.Runtime, error)
	Close() error
}

// settingsService is built from the config directory on first use unless
// injected.
var settingsService driving.SettingsService

// newFactory builds the pipeline factory for effective settings.
var newFactory = func(settings domain.Settings) pipelineFactory {
	return app.NewFactory(settings)
}

// lookupEnv reads environment overrides.
var lookupEnv = os.LookupEnv

var rootCmd = &cobra.Command{
	Use:   "sercha-kb",
	Short: "Answer questions from a folder of documents",
	Long: `sercha-kb indexes a directory of documents into a vector index and
answers questions about them with a generative model, citing the passages
it used.

Configure providers with 'sercha-kb settings', then try:
  sercha-kb run "What are the hazards of sulfuric acid?"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		logger.SetOutput(cmd.ErrOrStderr())
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "",
		"config directory (default ~/.sercha-kb)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&docsDir, "docs", "", "documents directory (overrides docs_dir)")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context, v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.ExecuteContext(ctx)
}

// SetSettingsService injects the settings service, bypassing the file store.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

func initServices() error {
	if settingsService != nil {
		return nil
	}

	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService = services.NewSettingsService(store, ai.NewConfigValidator())
	return nil
}

// loadSettings returns stored settings with environment and flag
// overrides applied.
func loadSettings() (domain.Settings, error) {
	stored, err := settingsService.Get()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	settings := *stored

	if err := services.ApplyEnv(&settings, lookupEnv); err != nil {
		return domain.Settings{}, err
	}
	if docsDir != "" {
		settings.DocsDir = filepath.Clean(docsDir)
	}
	return settings, nil
}

// openPipelines builds a factory from the effective settings and opens one
// runtime for variant. The returned func releases both.
func openPipelines(ctx context.Context, variant string) (*app.Runtime, func(), error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}

	factory := newFactory(settings)
	rt, err := factory.Open(ctx, variant)
	if err != nil {
		_ = factory.Close()
		return nil, nil, err
	}

	release := func() {
		if err := rt.Close(); err != nil {
			logger.Warn("closing pipelines: %v", err)
		}
		if err := factory.Close(); err != nil {
			logger.Warn("closing index: %v", err)
		}
	}
	return rt, release, nil
}

// Describe formats err for the terminal, naming its category.
func Describe(err error) string {
	switch kind := domain.Classify(err); kind {
	case domain.ErrorKindNoRelevantDocs:
		return fmt.Sprintf("no relevant documents found: %v", err)
	case domain.ErrorKindServiceUnavailable:
		return fmt.Sprintf("service unavailable: %v", err)
	case domain.ErrorKindConfig:
		return fmt.Sprintf("configuration error: %v\nRun 'sercha-kb settings' to review the configuration.", err)
	case domain.ErrorKindInternal:
		return err.Error()
	default:
		return fmt.Sprintf("%s error: %v", kind, err)
	}
}
