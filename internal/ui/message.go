package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/contentforge/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProjectsFetched MsgKind = iota
	MsgProjectFetched
	MsgPollTick
	MsgRegenerated
	MsgSaved
)

type projectsResult struct {
	projects []*models.Project
	err      error
}

type projectResult struct {
	project *models.Project
	err     error
}

type regenerateResult struct {
	output *models.Output
	err    error
}

type saveResult struct {
	output *models.Output
	err    error
}

// projectsFetchedMsg is the constructor for [MsgProjectsFetched]
func projectsFetchedMsg(projects []*models.Project, err error) Msg {
	return Msg{kind: MsgProjectsFetched, data: projectsResult{projects, err}}
}

// projectFetchedMsg is the constructor for [MsgProjectFetched]
func projectFetchedMsg(project *models.Project, err error) Msg {
	return Msg{kind: MsgProjectFetched, data: projectResult{project, err}}
}

// pollTickMsg is the constructor for [MsgPollTick]. An empty projectID polls the project list.
func pollTickMsg(projectID string) Msg {
	return Msg{kind: MsgPollTick, data: projectID}
}

// regeneratedMsg is the constructor for [MsgRegenerated]
func regeneratedMsg(output *models.Output, err error) Msg {
	return Msg{kind: MsgRegenerated, data: regenerateResult{output, err}}
}

// savedMsg is the constructor for [MsgSaved]
func savedMsg(output *models.Output, err error) Msg {
	return Msg{kind: MsgSaved, data: saveResult{output, err}}
}
