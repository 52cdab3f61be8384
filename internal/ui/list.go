package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/contentforge/internal/models"
)

var (
	_ list.Item = projectItem{}
	_ list.Item = outputItem{}
)

const previewWidth = 60

// projectItem wraps [models.Project] to implement [list.Item].
type projectItem struct {
	project *models.Project
}

func (i projectItem) FilterValue() string { return i.project.Title }
func (i projectItem) Title() string       { return i.project.Title }
func (i projectItem) Description() string {
	desc := fmt.Sprintf("%s • %d outputs", styles.Status(i.project.Status), len(i.project.Outputs))
	if !i.project.CreatedAt.IsZero() {
		desc = fmt.Sprintf("%s • %s", desc, i.project.CreatedAt.Local().Format("Jan 2 15:04"))
	}
	return desc
}

// outputItem wraps [models.Output] to implement [list.Item].
type outputItem struct {
	output  *models.Output
	unsaved bool
}

func (i outputItem) FilterValue() string { return string(i.output.Platform) }
func (i outputItem) Title() string {
	title := i.output.Platform.Label()
	if i.output.EditedContent != nil {
		title += " (edited)"
	}
	if i.unsaved {
		title += " • unsaved"
	}
	return title
}
func (i outputItem) Description() string {
	if i.output.Failed() {
		return styles.err.Render("failed: " + i.output.ErrorMessage())
	}
	return preview(i.output.EffectiveContent(), previewWidth)
}

// preview flattens s to one line of at most n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func projectItems(projects []*models.Project) []list.Item {
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = projectItem{project: p}
	}
	return items
}

// outputItems marks outputs that have a draft in drafts.
func outputItems(outputs []*models.Output, drafts map[string]string) []list.Item {
	items := make([]list.Item, len(outputs))
	for i, o := range outputs {
		_, unsaved := drafts[o.ID]
		items[i] = outputItem{output: o, unsaved: unsaved}
	}
	return items
}
