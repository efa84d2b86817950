package domain

import "time"

// IngestStage is a state of the ingestion state machine.
type IngestStage string

// Ingestion stages, in order. Failed is terminal and reachable from any stage.
const (
	IngestStageListing    IngestStage = "listing"
	IngestStageExtracting IngestStage = "extracting"
	IngestStageCleaning   IngestStage = "cleaning"
	IngestStageChunking   IngestStage = "chunking"
	IngestStageEmbedding  IngestStage = "embedding"
	IngestStageWriting    IngestStage = "writing"
	IngestStageDone       IngestStage = "done"
	IngestStageFailed     IngestStage = "failed"
)

// String returns the string representation.
func (s IngestStage) String() string {
	return string(s)
}

// QueryStage is a state of the retrieval-generation state machine.
type QueryStage string

// Query stages, in order. Failed is terminal and reachable from any stage.
const (
	QueryStageEmbedQuery    QueryStage = "embed_query"
	QueryStageSearch        QueryStage = "search"
	QueryStageBuildPrompt   QueryStage = "build_prompt"
	QueryStageGenerate      QueryStage = "generate"
	QueryStageExtractAnswer QueryStage = "extract_answer"
	QueryStageDone          QueryStage = "done"
	QueryStageFailed        QueryStage = "failed"
)

// String returns the string representation.
func (s QueryStage) String() string {
	return string(s)
}

// DocumentOutcome records how far one document got through ingestion.
type DocumentOutcome struct {
	// Path is the source file path.
	Path string

	// Stage is Done on success. On failure it is the stage that failed.
	Stage IngestStage

	// Chunks is the number of chunks written to the index.
	Chunks int

	// Err is the per-document failure, nil on success.
	Err error
}

// Failed reports whether the document did not reach the index.
func (o DocumentOutcome) Failed() bool {
	return o.Err != nil
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// Dir is the ingested directory.
	Dir string

	// Outcomes holds one entry per listed file, in processing order.
	Outcomes []DocumentOutcome

	// ChunksWritten is the total number of index entries added.
	ChunksWritten int

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}

// Indexed returns the number of documents that reached the index.
func (r *IngestReport) Indexed() int {
	n := 0
	for i := range r.Outcomes {
		if !r.Outcomes[i].Failed() {
			n++
		}
	}
	return n
}

// Failures returns the outcomes of documents that failed.
func (r *IngestReport) Failures() []DocumentOutcome {
	var failed []DocumentOutcome
	for i := range r.Outcomes {
		if r.Outcomes[i].Failed() {
			failed = append(failed, r.Outcomes[i])
		}
	}
	return failed
}

// ScoredChunk is one retrieval hit.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the cosine similarity to the query, higher is closer.
	Score float64
}

// Timings is the elapsed time breakdown of a run.
type Timings struct {
	// Ingestion covers listing through writing the index.
	Ingestion time.Duration

	// Retrieval covers query embedding through answer extraction.
	Retrieval time.Duration

	// Total is Ingestion plus Retrieval.
	Total time.Duration
}

// Answer is the result of one retrieval-generation query.
type Answer struct {
	// Query is the question as asked.
	Query string

	// Text is the first reply of the generative model.
	Text string

	// Prompt is the assembled prompt sent to the model.
	Prompt string

	// Hits are the retrieved chunks the prompt was built from.
	Hits []ScoredChunk

	// Timings is filled by the run coordinator. Retrieval is also
	// set when the pipeline runs on its own.
	Timings Timings
}

// RunResult is the result of a coordinated ingest-then-answer run.
type RunResult struct {
	Answer       *Answer
	Report       *IngestReport
	ArtifactPath string
}
