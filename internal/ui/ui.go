package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/models"
)

// PollInterval is how often a project that is still processing is fetched again.
const PollInterval = 2 * time.Second

// Client is the slice of the API the TUI needs. [services.APIClient] implements it.
type Client interface {
	Projects(ctx context.Context) ([]*models.Project, error)
	Project(ctx context.Context, id string) (*models.Project, error)
	Regenerate(ctx context.Context, projectID string, platform models.Platform) (*models.Output, error)
	EditOutput(ctx context.Context, id string, content *string) (*models.Output, error)
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ProjectListView ViewState = iota
	OutputListView
	OutputView
	ConfirmView
	EditView
	DiscardView
)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	client      Client
	logger      *log.Logger
	view        ViewState
	width       int
	height      int
	projectList list.Model
	outputList  list.Model
	content     viewport.Model
	editor      textarea.Model
	spinner     spinner.Model
	project     *models.Project
	output      *models.Output
	drafts      map[string]string
	discardFrom ViewState
	discardQuit bool
	loading     bool
	flash       string
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model reading from client.
func NewModel(ctx context.Context, client Client, logger *log.Logger) *Model {
	return &Model{
		ctx:         ctx,
		client:      client,
		logger:      logger,
		view:        ProjectListView,
		projectList: newList("Projects"),
		outputList:  newList("Outputs"),
		content:     viewport.New(0, 0),
		editor:      newEditor(),
		drafts:      map[string]string{},
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		loading:     true,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

func newEditor() textarea.Model {
	t := textarea.New()
	t.CharLimit = 0
	t.MaxHeight = 0
	t.ShowLineNumbers = false
	return t
}

// Init starts the spinner and loads the project list.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchProjects())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.projectList.SetSize(msg.Width-4, msg.Height-6)
		m.outputList.SetSize(msg.Width-4, msg.Height-8)
		m.content.Width = msg.Width - 4
		m.content.Height = msg.Height - 8
		m.editor.SetWidth(msg.Width - 4)
		m.editor.SetHeight(msg.Height - 8)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case ProjectListView:
			return m.handleProjectListKeys(msg)
		case OutputListView:
			return m.handleOutputListKeys(msg)
		case OutputView:
			return m.handleOutputKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case EditView:
			return m.handleEditKeys(msg)
		case DiscardView:
			return m.handleDiscardKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProjectsFetched:
		res := msg.data.(projectsResult)
		m.loading = false
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		cmd := m.projectList.SetItems(projectItems(res.projects))
		if anyProcessing(res.projects) {
			return m, tea.Batch(cmd, poll(""))
		}
		return m, cmd

	case MsgProjectFetched:
		res := msg.data.(projectResult)
		m.loading = false
		if res.err != nil {
			m.logger.Warn("Failed to fetch project", "err", res.err)
			m.flash = res.err.Error()
			return m, nil
		}
		if m.project == nil || m.project.ID != res.project.ID {
			return m, nil
		}
		m.project = res.project
		cmd := m.outputList.SetItems(outputItems(res.project.Outputs, m.drafts))
		m.outputList.Title = res.project.Title
		if !res.project.Status.Terminal() {
			return m, tea.Batch(cmd, poll(res.project.ID))
		}
		return m, cmd

	case MsgPollTick:
		projectID := msg.data.(string)
		switch {
		case projectID == "" && m.view == ProjectListView:
			return m, m.fetchProjects()
		case projectID != "" && m.project != nil && m.project.ID == projectID:
			return m, m.fetchProject(projectID)
		}
		return m, nil

	case MsgRegenerated:
		res := msg.data.(regenerateResult)
		m.loading = false
		if res.err != nil {
			m.flash = "Regenerate failed: " + res.err.Error()
			m.view = OutputView
			return m, nil
		}
		delete(m.drafts, res.output.ID)
		m.replaceOutput(res.output)
		m.flash = res.output.Platform.Label() + " regenerated"
		m.showOutput(res.output)
		return m, nil

	case MsgSaved:
		res := msg.data.(saveResult)
		m.loading = false
		if res.err != nil {
			m.flash = "Save failed: " + res.err.Error()
			return m, nil
		}
		delete(m.drafts, res.output.ID)
		m.replaceOutput(res.output)
		m.flash = "Saved"
		if res.output.EditedContent == nil {
			m.flash = "Using generated content"
		}
		m.showOutput(res.output)
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" +
			m.help.ShortHelpView([]key.Binding{m.keys.refresh, m.keys.quit})
	}

	switch m.view {
	case ProjectListView:
		return m.renderProjectList()
	case OutputListView:
		return m.renderOutputList()
	case OutputView:
		return m.renderOutput()
	case ConfirmView:
		return m.renderConfirm()
	case EditView:
		return m.renderEdit()
	case DiscardView:
		return m.renderDiscard()
	default:
		return ""
	}
}

func (m *Model) handleProjectListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.projectList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.err = nil
		m.loading = true
		return m, m.fetchProjects()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.projectList.SelectedItem().(projectItem); ok {
			m.project = item.project
			m.flash = ""
			m.outputList.Title = item.project.Title
			cmd := m.outputList.SetItems(outputItems(item.project.Outputs, m.drafts))
			m.outputList.Select(0)
			m.view = OutputListView
			return m, tea.Batch(cmd, m.fetchProject(item.project.ID))
		}
	}
	return m.updateLists(msg)
}

func (m *Model) handleOutputListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.outputList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m.leave(true)
	case key.Matches(msg, m.keys.back):
		return m.leave(false)
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.outputList.SelectedItem().(outputItem); ok {
			m.showOutput(item.output)
			return m, nil
		}
	}
	return m.updateLists(msg)
}

func (m *Model) handleOutputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.leave(true)
	case key.Matches(msg, m.keys.back):
		m.view = OutputListView
		m.flash = ""
		return m, nil
	case key.Matches(msg, m.keys.regenerate):
		if !m.loading && m.project != nil && m.project.Status.Terminal() {
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.edit):
		if m.loading || m.output.Failed() {
			return m, nil
		}
		m.editor.SetValue(m.currentText(m.output))
		m.flash = ""
		m.view = EditView
		return m, m.editor.Focus()
	case key.Matches(msg, m.keys.saveDraft):
		if draft, ok := m.drafts[m.output.ID]; ok && !m.loading {
			m.loading = true
			return m, m.save(m.output.ID, &draft)
		}
		return m, nil
	case key.Matches(msg, m.keys.revert):
		if m.output.EditedContent != nil && !m.loading {
			m.loading = true
			return m, m.save(m.output.ID, nil)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = OutputView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.loading = true
		m.flash = ""
		m.view = OutputView
		return m, m.regenerate(m.project.ID, m.output.Platform)
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

// handleEditKeys passes everything but save and esc to the editor. esc keeps the text as a draft.
func (m *Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.save):
		m.stash(m.editor.Value())
		m.editor.Blur()
		m.showOutput(m.output)
		draft, ok := m.drafts[m.output.ID]
		if !ok {
			m.flash = "No changes"
			return m, nil
		}
		m.loading = true
		return m, m.save(m.output.ID, &draft)
	case key.Matches(msg, m.keys.back):
		m.stash(m.editor.Value())
		m.editor.Blur()
		m.showOutput(m.output)
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *Model) handleDiscardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		clear(m.drafts)
		if m.discardQuit {
			return m, tea.Quit
		}
		return m.closeProject()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = m.discardFrom
		return m, nil
	}
	return m, nil
}

// leave closes the project or quits, asking first when drafts would be lost.
func (m *Model) leave(quit bool) (tea.Model, tea.Cmd) {
	if len(m.drafts) > 0 {
		m.discardFrom = m.view
		m.discardQuit = quit
		m.view = DiscardView
		return m, nil
	}
	if quit {
		return m, tea.Quit
	}
	return m.closeProject()
}

func (m *Model) closeProject() (tea.Model, tea.Cmd) {
	m.view = ProjectListView
	m.project = nil
	m.output = nil
	m.flash = ""
	return m, m.fetchProjects()
}

// stash records text as a draft for the open output, or drops the draft when text matches what
// the server has.
func (m *Model) stash(text string) {
	if text == m.output.EffectiveContent() {
		delete(m.drafts, m.output.ID)
	} else {
		m.drafts[m.output.ID] = text
	}
	if m.project != nil {
		m.outputList.SetItems(outputItems(m.project.Outputs, m.drafts))
	}
}

// currentText is the draft for o if there is one, else its effective content.
func (m *Model) currentText(o *models.Output) string {
	if draft, ok := m.drafts[o.ID]; ok {
		return draft
	}
	return o.EffectiveContent()
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ProjectListView:
		m.projectList, cmd = m.projectList.Update(msg)
	case OutputListView:
		m.outputList, cmd = m.outputList.Update(msg)
	case EditView:
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m *Model) showOutput(o *models.Output) {
	m.output = o
	m.content.SetContent(m.outputBody(o))
	m.content.GotoTop()
	m.view = OutputView
}

// replaceOutput swaps the regenerated output into the open project.
func (m *Model) replaceOutput(o *models.Output) {
	if m.project == nil {
		return
	}
	replaced := false
	for i, existing := range m.project.Outputs {
		if existing.ID == o.ID || existing.Platform == o.Platform {
			m.project.Outputs[i] = o
			replaced = true
		}
	}
	if !replaced {
		m.project.Outputs = append(m.project.Outputs, o)
	}
	m.outputList.SetItems(outputItems(m.project.Outputs, m.drafts))
}

func (m *Model) fetchProjects() tea.Cmd {
	return func() tea.Msg {
		projects, err := m.client.Projects(m.ctx)
		return projectsFetchedMsg(projects, err)
	}
}

func (m *Model) fetchProject(id string) tea.Cmd {
	return func() tea.Msg {
		project, err := m.client.Project(m.ctx, id)
		return projectFetchedMsg(project, err)
	}
}

func (m *Model) regenerate(projectID string, platform models.Platform) tea.Cmd {
	return func() tea.Msg {
		output, err := m.client.Regenerate(m.ctx, projectID, platform)
		return regeneratedMsg(output, err)
	}
}

func (m *Model) save(id string, content *string) tea.Cmd {
	return func() tea.Msg {
		output, err := m.client.EditOutput(m.ctx, id, content)
		return savedMsg(output, err)
	}
}

func poll(projectID string) tea.Cmd {
	return tea.Tick(PollInterval, func(time.Time) tea.Msg {
		return pollTickMsg(projectID)
	})
}

func anyProcessing(projects []*models.Project) bool {
	for _, p := range projects {
		if !p.Status.Terminal() {
			return true
		}
	}
	return false
}

func (m *Model) outputBody(o *models.Output) string {
	if o.Failed() {
		return styles.err.Render("Generation failed: "+o.ErrorMessage()) + "\n\nPress g to try again."
	}
	return m.currentText(o)
}

func (m *Model) renderProjectList() string {
	if m.loading && len(m.projectList.Items()) == 0 {
		return fmt.Sprintf("%s Loading projects...", m.spinner.View())
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.projectList.View(), helpView)
}

func (m *Model) renderOutputList() string {
	var b strings.Builder
	if m.project != nil && !m.project.Status.Terminal() {
		fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), processingLabel(m.project.Status))
	}
	b.WriteString(m.outputList.View())
	if m.flash != "" {
		b.WriteString("\n" + styles.warn.Render(m.flash))
	}
	b.WriteString("\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderOutput() string {
	if m.output == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(m.output.Platform.Label()) + "\n")
	_, unsaved := m.drafts[m.output.ID]
	switch {
	case unsaved:
		b.WriteString(styles.warn.Render("Unsaved edits. Press s to save them.") + "\n\n")
	case m.output.EditedContent != nil:
		b.WriteString(styles.help.Render("Showing your edited version.") + "\n\n")
	}
	b.WriteString(m.content.View())
	switch {
	case m.loading:
		fmt.Fprintf(&b, "\n\n%s Working...", m.spinner.View())
	case m.flash != "":
		b.WriteString("\n\n" + styles.ok.Render(m.flash))
	}

	bindings := []key.Binding{m.keys.edit}
	if unsaved {
		bindings = append(bindings, m.keys.saveDraft)
	}
	if m.output.EditedContent != nil {
		bindings = append(bindings, m.keys.revert)
	}
	bindings = append(bindings, m.keys.regenerate, m.keys.back, m.keys.quit)
	b.WriteString("\n\n" + m.help.ShortHelpView(bindings))
	return b.String()
}

func (m *Model) renderEdit() string {
	title := styles.title.Render("Editing " + m.output.Platform.Label())
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.save, m.keys.back})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.editor.View(), helpView)
}

func (m *Model) renderDiscard() string {
	title := styles.title.Render("Discard unsaved edits?")
	info := fmt.Sprintf("\n%d output(s) have edits that were not saved.\n", len(m.drafts))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Regenerate %s content?", m.output.Platform.Label()))
	info := "\nThe generated text is replaced and unsaved edits to it are dropped. A saved edit stays until you press u.\n"
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func processingLabel(s models.Status) string {
	switch s {
	case models.StatusUploading:
		return "Uploading..."
	case models.StatusTranscribing:
		return "Transcribing..."
	case models.StatusAnalyzing:
		return "Analyzing content..."
	case models.StatusGenerating:
		return "Generating platform content..."
	}
	return "Processing..."
}
