package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/app"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// snippetLength is the longest passage excerpt printed under an answer.
const snippetLength = 160

var (
	pipelineVariant string
	pipelineJSON    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index a directory of documents",
	Long: `Extracts, cleans, chunks and embeds every accepted file in dir (default
docs_dir) and writes the chunks to the vector index.

Files that cannot be read are reported and skipped. With the memory index
backend the index lives only for this command; use a durable backend
(sqlite, redis, postgres) to ask questions later.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Answer a question from the existing index",
	Long: `Retrieves the passages closest to the query from the vector index and
asks the configured model to answer from them. Requires a durable index
backend populated by 'sercha-kb ingest'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Ingest the documents and answer one question",
	Long: `Ingests docs_dir, answers the query and writes the answer with the elapsed
time to output.path.

Without a query, asks: ` + app.DefaultQuery,
	RunE: runRun,
}

func init() {
	for _, cmd := range []*cobra.Command{ingestCmd, askCmd, runCmd} {
		cmd.Flags().StringVar(&pipelineVariant, "variant", app.DefaultVariant,
			"chunking profile: "+strings.Join(app.Variants(), ", "))
		cmd.Flags().BoolVar(&pipelineJSON, "json", false, "output results as JSON")
		rootCmd.AddCommand(cmd)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	rt, release, err := openPipelines(cmd.Context(), pipelineVariant)
	if err != nil {
		return err
	}
	defer release()

	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}

	report, err := rt.Ingestion.Ingest(cmd.Context(), dir)
	if err != nil {
		return err
	}

	if pipelineJSON {
		return outputJSON(cmd, reportJSON(report))
	}
	outputReport(cmd, report)
	if !rt.Settings.Index.Backend.IsDurable() {
		cmd.Println("Note: the memory index is discarded when this command exits.")
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	rt, release, err := openPipelines(cmd.Context(), pipelineVariant)
	if err != nil {
		return err
	}
	defer release()

	answer, err := rt.Answers.Answer(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	if pipelineJSON {
		return outputJSON(cmd, answerJSON(answer))
	}
	outputAnswer(cmd, answer)
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		query = app.DefaultQuery
	}

	rt, release, err := openPipelines(cmd.Context(), pipelineVariant)
	if err != nil {
		return err
	}
	defer release()

	result, err := rt.Runs.Run(cmd.Context(), "", query)
	if err != nil {
		return err
	}

	if pipelineJSON {
		return outputJSON(cmd, map[string]any{
			"answer":        answerJSON(result.Answer),
			"report":        reportJSON(result.Report),
			"artifact_path": result.ArtifactPath,
		})
	}

	outputAnswer(cmd, result.Answer)
	t := result.Answer.Timings
	cmd.Printf("%s: %s seconds\n", domain.LabelIngestion, formatSeconds(t.Ingestion.Seconds()))
	cmd.Printf("%s: %s seconds\n", domain.LabelRetrieval, formatSeconds(t.Retrieval.Seconds()))
	cmd.Printf("%s: %s seconds\n", domain.LabelTotal, formatSeconds(t.Total.Seconds()))
	cmd.Printf("Result written to %s\n", result.ArtifactPath)
	return nil
}

func outputReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Indexed %d of %d document(s) from %s, %d chunk(s)\n",
		report.Indexed(), len(report.Outcomes), report.Dir, report.ChunksWritten)
	for _, f := range report.Failures() {
		cmd.Printf("  skipped %s at %s: %v\n", f.Path, f.Stage, f.Err)
	}
}

func outputAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)
	cmd.Println()
	cmd.Println("Sources:")
	for i, h := range answer.Hits {
		cmd.Printf("  [%d] %s #%d (%.3f)\n", i+1, h.Chunk.Source, h.Chunk.Position, h.Score)
		cmd.Printf("      %s\n", snippet(h.Chunk.Content))
	}
	cmd.Println()
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLength {
		return s
	}
	return string(r[:snippetLength]) + "..."
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func answerJSON(a *domain.Answer) map[string]any {
	sources := make([]map[string]any, 0, len(a.Hits))
	for _, h := range a.Hits {
		sources = append(sources, map[string]any{
			"source":   h.Chunk.Source,
			"position": h.Chunk.Position,
			"score":    h.Score,
			"content":  h.Chunk.Content,
		})
	}
	return map[string]any{
		"query":   a.Query,
		"answer":  a.Text,
		"sources": sources,
		"timings": map[string]float64{
			"ingestion_seconds": a.Timings.Ingestion.Seconds(),
			"retrieval_seconds": a.Timings.Retrieval.Seconds(),
			"total_seconds":     a.Timings.Total.Seconds(),
		},
	}
}

func reportJSON(r *domain.IngestReport) map[string]any {
	docs := make([]map[string]any, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		doc := map[string]any{"path": o.Path, "stage": string(o.Stage), "chunks": o.Chunks}
		if o.Err != nil {
			doc["error"] = o.Err.Error()
		}
		docs = append(docs, doc)
	}
	return map[string]any{
		"dir":       r.Dir,
		"indexed":   r.Indexed(),
		"failed":    len(r.Failures()),
		"chunks":    r.ChunksWritten,
		"seconds":   r.Duration.Seconds(),
		"documents": docs,
	}
}
