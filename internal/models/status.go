package models

import (
	"fmt"

	"github.com/desertthunder/contentforge/internal/shared"
)

// Status is a project's position in the processing pipeline.
type Status string

const (
	StatusUploading    Status = "UPLOADING"
	StatusTranscribing Status = "TRANSCRIBING"
	StatusAnalyzing    Status = "ANALYZING"
	StatusGenerating   Status = "GENERATING"
	StatusReady        Status = "READY"
	StatusFailed       Status = "FAILED"
)

// pipeline order; READY and FAILED share the terminal rank
var statusRank = map[Status]int{
	StatusUploading:    0,
	StatusTranscribing: 1,
	StatusAnalyzing:    2,
	StatusGenerating:   3,
	StatusReady:        4,
	StatusFailed:       4,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// CanTransition reports whether moving from s to next keeps the pipeline moving forward.
// FAILED is reachable from any non-terminal state. Re-setting the current state is allowed.
func (s Status) CanTransition(next Status) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	return statusRank[next] >= statusRank[s]
}

// InputType is the kind of source material a project starts from.
type InputType string

const (
	InputText  InputType = "TEXT"
	InputAudio InputType = "AUDIO"
	InputVideo InputType = "VIDEO"
)

// ParseInputType validates an input type string.
func ParseInputType(s string) (InputType, error) {
	switch t := InputType(s); t {
	case InputText, InputAudio, InputVideo:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown input type %q", shared.ErrInvalidInput, s)
}

// NeedsTranscription reports whether the input must be transcribed before analysis.
func (t InputType) NeedsTranscription() bool {
	return t == InputAudio || t == InputVideo
}
