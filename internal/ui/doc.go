// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses a user's projects through the HTTP API:
//  1. [ProjectListView] : Browse projects with their pipeline status
//  2. [OutputListView] : Per-platform outputs of the selected project
//  3. [OutputView] : Read one output (edited content wins over generated)
//  4. [ConfirmView] : Confirm regenerating the open output
//  5. [EditView] : Edit an output in a textarea
//  6. [DiscardView] : Confirm leaving a project with unsaved edits
//
// Edits live in a local draft map keyed by output ID until they are saved, so unsaved text is
// never mistaken for the server's copy. Regenerating an output drops its draft.
//
// Projects that have not reached READY or FAILED are fetched again every [PollInterval] while a
// spinner shows the current phase. The (view) [Model] implements bubbletea/Elm's standard
// Init/Update/View pattern, receiving messages via the Msg union type.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, e, s, u, g, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
