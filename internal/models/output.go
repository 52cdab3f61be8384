package models

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/contentforge/internal/shared"
)

// Output is one platform's generated content for a project.
type Output struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"projectId"`
	Platform      Platform       `json:"platform"`
	Content       string         `json:"content"`
	EditedContent *string        `json:"editedContent"`
	Metadata      OutputMetadata `json:"metadata"`
	Timestamps
}

// OutputMetadata is stored as JSON next to the content.
type OutputMetadata map[string]any

const metadataErrorKey = "error"

// NewOutput creates an output from generated content.
func NewOutput(projectID string, platform Platform, content string) *Output {
	return &Output{ProjectID: projectID, Platform: platform, Content: content}
}

// NewFailedOutput records a platform whose generation failed: empty content plus the error message.
func NewFailedOutput(projectID string, platform Platform, message string) *Output {
	return &Output{
		ProjectID: projectID,
		Platform:  platform,
		Metadata:  OutputMetadata{metadataErrorKey: message},
	}
}

func (o *Output) Key() string { return o.ID }

// Validate checks that the output belongs to a project and names a known platform.
func (o *Output) Validate() error {
	if o.ID == "" || o.ProjectID == "" {
		return fmt.Errorf("%w: output id and project are required", shared.ErrInvalidInput)
	}
	if !o.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", shared.ErrInvalidInput, o.Platform)
	}
	return nil
}

// EffectiveContent is the edited override when present, else the generated content.
func (o *Output) EffectiveContent() string {
	if o.EditedContent != nil {
		return *o.EditedContent
	}
	return o.Content
}

// ErrorMessage returns the recorded generation error, or "".
func (o *Output) ErrorMessage() string {
	if o.Metadata == nil {
		return ""
	}
	msg, _ := o.Metadata[metadataErrorKey].(string)
	return msg
}

// Failed reports whether generation for this output failed.
func (o *Output) Failed() bool {
	return o.ErrorMessage() != ""
}

// MarshalMetadata encodes metadata for storage; nil for none.
func (m OutputMetadata) MarshalMetadata() (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output metadata: %w", err)
	}
	s := string(b)
	return &s, nil
}

// UnmarshalMetadata decodes stored metadata. Invalid JSON yields nil.
func UnmarshalMetadata(raw string) OutputMetadata {
	if raw == "" {
		return nil
	}
	var m OutputMetadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return m
}
