package tasks

import (
	"fmt"

	"github.com/desertthunder/contentforge/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase     Phase  // Operation phase
	ProjectID string // Project the update is about, if any
	Step      int    // Current step number within phase
	Total     int    // Total steps in this phase
	Message   string // Human-readable message for display
	Data      any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Transcribe Phase = iota
	Analyze
	Generate
	Complete
	Failed
	Export
)

func (p Phase) String() string {
	switch p {
	case Transcribe:
		return "transcribe"
	case Analyze:
		return "analyze"
	case Generate:
		return "generate"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	case Export:
		return "export"
	default:
		return ""
	}
}

// sendProgress sends update without blocking; a nil or full channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func transcribeUpdate(projectID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:     Transcribe,
		ProjectID: projectID,
		Step:      1,
		Total:     1,
		Message:   "Transcribing source media...",
	}
}

func analyzeUpdate(projectID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:     Analyze,
		ProjectID: projectID,
		Step:      1,
		Total:     1,
		Message:   "Analyzing content...",
	}
}

func generateUpdate(projectID string, step, total int, platform models.Platform, errMsg string) ProgressUpdate {
	if step == 0 {
		return ProgressUpdate{
			Phase:     Generate,
			ProjectID: projectID,
			Total:     total,
			Message:   fmt.Sprintf("Generating %d outputs...", total),
		}
	}
	if errMsg != "" {
		return ProgressUpdate{
			Phase:     Generate,
			ProjectID: projectID,
			Step:      step,
			Total:     total,
			Message:   fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, platform.Label(), errMsg),
			Data:      platform,
		}
	}
	return ProgressUpdate{
		Phase:     Generate,
		ProjectID: projectID,
		Step:      step,
		Total:     total,
		Message:   fmt.Sprintf("[%d/%d] ✓ %s", step, total, platform.Label()),
		Data:      platform,
	}
}

func completeUpdate(p *models.Project) ProgressUpdate {
	return ProgressUpdate{
		Phase:     Complete,
		ProjectID: p.ID,
		Step:      1,
		Total:     1,
		Message:   fmt.Sprintf("Project ready: %s (%d outputs)", p.Title, len(p.Outputs)),
		Data:      p,
	}
}

func failedUpdate(projectID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:     Failed,
		ProjectID: projectID,
		Step:      1,
		Total:     1,
		Message:   fmt.Sprintf("Processing failed: %v", err),
	}
}

func exportUpdate(step, total int, title string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   Export,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
		}
	}
	return ProgressUpdate{
		Phase:   Export,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, title),
	}
}
