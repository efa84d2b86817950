package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-kb/internal/app"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

var tuiVariant string

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch an interactive session over the documents directory.

The documents are ingested on start. Ask questions one after another and
browse the passages each answer was grounded on.

Controls:
  Enter    - Ask
  n        - New question
  r        - Re-ingest documents
  ↑/k, ↓/j - Browse sources
  ?        - Toggle help
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiVariant, "variant", app.DefaultVariant,
		"chunking profile: "+strings.Join(app.Variants(), ", "))
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	rt, release, err := openPipelines(cmd.Context(), tuiVariant)
	if err != nil {
		return err
	}
	defer release()

	// Log lines would tear the alternate screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(cmd.ErrOrStderr())

	app, err := tui.NewApp(tui.NewPorts(rt.Ingestion, rt.Answers))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
