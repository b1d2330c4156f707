// Package pipeline sequences the five processing stages of a job:
// download, caption check, transcription, translation, and rendering.
// The orchestrator drives the external collaborators, classifies their
// failures, executes the recovery policy, persists a checkpoint after
// every completed stage, and reports everything it does as a stream of
// typed events.
package pipeline
