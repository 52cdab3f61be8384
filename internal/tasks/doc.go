// Package tasks runs the long-lived workflows behind the HTTP API and the CLI with real-time
// progress reporting.
//
// # Pipeline
//
// [Pipeline.CreateAndProcess] takes a submission from creation to a terminal status:
//
//  1. Transcribe (audio and video inputs only)
//  2. Analyze the transcript into a [models.MasterAnalysis]
//  3. Generate every requested platform concurrently and wait for all of them
//  4. Store one output per platform, count usage, mark the project READY
//
// A platform that fails to generate is stored as a failed output and the project still becomes
// READY. Any other failure marks the project FAILED and returns a [*ProcessingError].
//
// [Pipeline.Regenerate] replaces the content of a single platform in place.
//
// # YouTube
//
// [YouTubePublisher] stores one OAuth connection per user, refreshes access tokens that are
// within [models.TokenRefreshBuffer] of expiry and uploads Shorts through the resumable API.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates. A nil channel is allowed.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for
// advanced UI rendering.
//
// # Export
//
// [Exporter.BulkExport] writes many projects with a rate-limited worker pool and a JSON manifest.
package tasks
