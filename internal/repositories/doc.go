// Package repositories implements SQLite persistence for the domain entities.
//
// Implementations:
//   - [UserRepository] : accounts, settings, onboarding and the usage counter
//   - [ProjectRepository] : projects with soft delete and forward-only status updates
//   - [OutputRepository] : per-platform outputs, edited overrides and regeneration writes
//   - [FeedbackRepository] : ratings keyed by (output, user) and aggregate stats
//   - [YouTubeConnectionRepository] : one OAuth connection per user
//
// Reads that take an owner id return [shared.ErrNotFound] both when the row is absent and
// when it belongs to someone else, so callers cannot tell the two apart.
package repositories
