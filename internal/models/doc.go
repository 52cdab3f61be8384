// Package models defines the domain entities of the content repurposing service.
//
// Persistent entities:
//   - [User] : account with plan tier, usage counter, onboarding progress and brand voice
//   - [Project] : one repurposing job driven through the [Status] state machine
//   - [Output] : generated content for one [Platform] of a project, with an optional edited override
//   - [Feedback] : a user's thumbs rating and comment on one output
//   - [YouTubeConnection] : OAuth tokens and channel identity for publishing short videos
//
// Value types:
//   - [MasterAnalysis] : structured extraction reused by every platform generation
//   - [ShortVideoScript] : timed script plus upload metadata for the short-video platform
//
// Every persistent entity implements [Model] so repositories can validate before writing.
package models
