package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/http"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start a JSON API over the pipelines.

Endpoints:
  GET  /health        liveness
  GET  /version       build version
  GET  /v1/variants   chunking variants
  POST /v1/ingest     index the documents directory
  POST /v1/ask        answer a question from the index
  POST /v1/run        ingest, answer and save the timed result

With the memory index backend every request builds a fresh index, so
/v1/ask only finds documents when a durable backend is configured.`,
	RunE: runServe,
}

func init() {
	defaults := http.DefaultConfig()
	serveCmd.Flags().StringVar(&serveHost, "host", defaults.Host, "listen address")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", defaults.Port, "listen port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	factory := newFactory(settings)
	defer func() {
		_ = factory.Close()
	}()

	cfg := http.DefaultConfig()
	cfg.Host = serveHost
	cfg.Port = servePort
	cfg.Version = version

	server := http.NewServer(cfg, factory)
	cmd.Printf("Listening on http://%s\n", server.Addr())
	return server.Start(cmd.Context())
}
