// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// IngestionPipeline and RetrievalPipeline are the two state machines of a
// run; Coordinator sequences them and times each phase. SettingsService
// builds the domain.Settings every other constructor receives.
package services
