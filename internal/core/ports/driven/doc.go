// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Extractor: Turns a document file into text (local PDF parser or layout service)
//   - PostProcessorPipeline: Cleans text and splits it into chunks
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Stores chunk embeddings and answers similarity queries
//   - LLMService: Generates answers from prompts
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//   - ResultStore: Persists answers as result artifacts
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, normaliser, or postprocessor package
package driven
