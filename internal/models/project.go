package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/contentforge/internal/shared"
)

// DefaultProjectTitle is used when a project is submitted without a title.
const DefaultProjectTitle = "Untitled Project"

// Project is one repurposing job owned by a single user.
type Project struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Title          string     `json:"title"`
	InputType      InputType  `json:"inputType"`
	InputText      string     `json:"inputText,omitempty"`
	FileURL        string     `json:"fileUrl,omitempty"`
	Transcript     string     `json:"transcript,omitempty"`
	MasterAnalysis string     `json:"masterAnalysis,omitempty"`
	Status         Status     `json:"status"`
	Outputs        []*Output  `json:"outputs"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`
	Timestamps
}

// NewProject creates a project in its initial pipeline state.
func NewProject(userID, title string, inputType InputType, inputText, fileURL string) *Project {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultProjectTitle
	}
	return &Project{
		UserID:    userID,
		Title:     title,
		InputType: inputType,
		InputText: inputText,
		FileURL:   fileURL,
		Status:    StatusTranscribing,
		Outputs:   []*Output{},
	}
}

func (p *Project) Key() string { return p.ID }

// Validate checks that the project has an owner and usable input.
func (p *Project) Validate() error {
	if p.ID == "" || p.UserID == "" {
		return fmt.Errorf("%w: project id and owner are required", shared.ErrInvalidInput)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, p.Status)
	}
	switch p.InputType {
	case InputText:
		if strings.TrimSpace(p.InputText) == "" {
			return fmt.Errorf("%w: input text is required", shared.ErrInvalidInput)
		}
	case InputAudio, InputVideo:
		if strings.TrimSpace(p.FileURL) == "" {
			return fmt.Errorf("%w: file reference is required for %s input", shared.ErrInvalidInput, p.InputType)
		}
	default:
		return fmt.Errorf("%w: unknown input type %q", shared.ErrInvalidInput, p.InputType)
	}
	return nil
}

// SourceText is the text generation works from: the transcript, else the raw input text.
func (p *Project) SourceText() string {
	if p.Transcript != "" {
		return p.Transcript
	}
	return p.InputText
}

// Analysis decodes the stored master analysis, or returns the empty shape.
func (p *Project) Analysis() MasterAnalysis {
	return ParseAnalysis(p.MasterAnalysis)
}

// OutputFor returns the output for platform, if one exists.
func (p *Project) OutputFor(platform Platform) *Output {
	for _, o := range p.Outputs {
		if o.Platform == platform {
			return o
		}
	}
	return nil
}
