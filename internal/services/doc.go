// Package services implements the external collaborators the rest of the application calls
// through narrow interfaces.
//
// # AI collaborators
//
// [Transcriber], [Analyzer] and [Generator] make up the processing pipeline's view of an AI
// provider. [NewAI] picks one of two implementations:
//   - [OpenAIClient] calls the chat completion and transcription endpoints through go-openai,
//     with a per-call timeout, a shared rate limiter and retries on transient failures.
//   - [MockAI] returns canned content instantly and can be told to fail chosen phases or platforms.
//
// Generation errors are data. [Generator.Generate] always returns a [GenerationResult] and never
// an error, so the pipeline's fan-out needs no per-platform error handling.
//
// # Storage
//
// [LocalStorage] saves uploads under a configured directory and resolves the returned URLs back
// to disk paths for transcription.
//
// # YouTube
//
// [YouTubeClient] wraps the Google OAuth endpoints (consent URL, code exchange, refresh, revoke),
// the Data API channel lookup and the two-phase resumable upload. A quota rejection during upload
// initialization is reported as [shared.ErrQuotaExceeded].
package services
