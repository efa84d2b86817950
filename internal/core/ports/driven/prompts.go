package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations fall back to the built-in
	// default or return an error when none exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer grounds an answer in retrieved context. It is a Go
	// text/template with {{.Context}} and {{.Query}} fields.
	PromptAnswer = "answer"
)
