package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/docfold/docfold-cli/internal/adapters/driving/tui/keymap"
	"github.com/docfold/docfold-cli/internal/adapters/driving/tui/messages"
	"github.com/docfold/docfold-cli/internal/adapters/driving/tui/styles"
	"github.com/docfold/docfold-cli/internal/core/domain"
)

// resultLimit is how many hits one query fetches.
const resultLimit = 20

// focusArea tracks which pane receives key input.
type focusArea int

const (
	// focusInput is the query input pane.
	focusInput focusArea = iota

	// focusResults is the ranked result list.
	focusResults

	// focusContent is the document content pane.
	focusContent
)

// App is the search TUI following the Elm architecture.
// It implements tea.Model for use with bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	input    textinput.Model
	results  []domain.RankedResult
	selected int

	contentTitle string
	content      string
	scroll       int

	focus     focusArea
	searching bool
	err       error

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the search TUI with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	ti := textinput.New()
	ti.Placeholder = "Search documentation..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	return &App{
		ports:  ports,
		ctx:    context.Background(),
		styles: styles.DefaultStyles(),
		keys:   keymap.DefaultKeyMap(),
		input:  ti,
		focus:  focusInput,
		width:  80,
		height: 24,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init initialises the application.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.SearchCompleted:
		a.searching = false
		a.err = msg.Err
		if msg.Err == nil {
			a.results = msg.Results
			a.selected = 0
			a.focus = focusResults
			a.input.Blur()
		}
		return a, nil

	case messages.DocumentLoaded:
		a.err = msg.Err
		if msg.Err == nil && msg.Document != nil {
			a.contentTitle = msg.Document.Title
			a.content = msg.Document.Content
			a.scroll = 0
			a.focus = focusContent
		}
		return a, nil
	}

	if a.focus == focusInput {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Quit) {
		return a, tea.Quit
	}

	switch a.focus {
	case focusInput:
		return a.handleInputKey(msg)
	case focusResults:
		return a.handleResultsKey(msg)
	case focusContent:
		return a.handleContentKey(msg)
	}
	return a, nil
}

func (a *App) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Search):
		query := strings.TrimSpace(a.input.Value())
		if query == "" {
			return a, nil
		}
		a.searching = true
		a.err = nil
		return a, a.searchCmd(query)

	case key.Matches(msg, a.keys.Back):
		if len(a.results) > 0 {
			a.focus = focusResults
			a.input.Blur()
			return a, nil
		}
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.selected > 0 {
			a.selected--
		}

	case key.Matches(msg, a.keys.Down):
		if a.selected < len(a.results)-1 {
			a.selected++
		}

	case key.Matches(msg, a.keys.Select):
		return a, a.openSelected()

	case key.Matches(msg, a.keys.NewSearch):
		a.focus = focusInput
		a.input.SetValue("")
		return a, a.input.Focus()

	case key.Matches(msg, a.keys.Back):
		a.focus = focusInput
		return a, a.input.Focus()
	}
	return a, nil
}

func (a *App) handleContentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.scroll > 0 {
			a.scroll--
		}

	case key.Matches(msg, a.keys.Down):
		a.scroll++

	case key.Matches(msg, a.keys.Back):
		a.focus = focusResults
		a.content = ""
		a.contentTitle = ""
	}
	return a, nil
}

// searchCmd runs a query off the update loop.
func (a *App) searchCmd(query string) tea.Cmd {
	return func() tea.Msg {
		opts := domain.SearchOptions{Limit: resultLimit}
		results, err := a.ports.Search.Search(a.ctx, query, opts)
		return messages.SearchCompleted{Query: query, Results: results, Err: err}
	}
}

// openSelected loads the highlighted result's document content.
// Feature hits have no content pane; they keep the list focused.
func (a *App) openSelected() tea.Cmd {
	if a.selected >= len(a.results) || a.ports.Documents == nil {
		return nil
	}

	r := a.results[a.selected]
	if r.Kind != domain.ResultKindDocument {
		return nil
	}

	return func() tea.Msg {
		doc, err := a.ports.Documents.Get(a.ctx, r.ID)
		return messages.DocumentLoaded{Document: doc, Err: err}
	}
}

// View renders the application.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("docfold search"))
	b.WriteString("\n\n")
	b.WriteString(a.styles.InputField.Render(a.input.View()))
	b.WriteString("\n\n")

	switch {
	case a.err != nil:
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
		b.WriteString("\n")
	case a.searching:
		b.WriteString(a.styles.Muted.Render("Searching..."))
		b.WriteString("\n")
	case a.focus == focusContent:
		b.WriteString(a.viewContent())
	default:
		b.WriteString(a.viewResults())
	}

	b.WriteString("\n")
	b.WriteString(a.viewHelp())
	return b.String()
}

func (a *App) viewResults() string {
	if len(a.results) == 0 {
		return a.styles.Muted.Render("No results. Type a query and press enter.") + "\n"
	}

	var b strings.Builder
	for i := range a.results {
		r := &a.results[i]
		line := fmt.Sprintf("%s (%s, %.2f)", r.Title, r.Kind, r.Score)

		if i == a.selected && a.focus == focusResults {
			b.WriteString(a.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(a.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")

		if r.Summary != "" {
			b.WriteString(a.styles.Muted.Render("    " + r.Summary))
			b.WriteString("\n")
		}
		if len(r.RelatedServices) > 0 {
			b.WriteString(a.styles.Muted.Render("    services: " + strings.Join(r.RelatedServices, ", ")))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a *App) viewContent() string {
	lines := strings.Split(a.content, "\n")

	visible := a.height - 10
	if visible < 5 {
		visible = 5
	}
	if a.scroll > len(lines)-1 {
		a.scroll = len(lines) - 1
	}
	end := a.scroll + visible
	if end > len(lines) {
		end = len(lines)
	}

	body := strings.Join(lines[a.scroll:end], "\n")
	return a.styles.Title.Render(a.contentTitle) + "\n" + a.styles.Pane.Render(body) + "\n"
}

func (a *App) viewHelp() string {
	var entries []string
	switch a.focus {
	case focusInput:
		entries = []string{"enter search", "esc back", "ctrl+c quit"}
	case focusResults:
		entries = []string{"↑/↓ move", "enter open", "n new search", "ctrl+c quit"}
	case focusContent:
		entries = []string{"↑/↓ scroll", "esc back", "ctrl+c quit"}
	}
	return a.styles.Muted.Render(strings.Join(entries, " · "))
}

// Query returns the current query input. Used by tests.
func (a *App) Query() string {
	return a.input.Value()
}

// Results returns the current result set. Used by tests.
func (a *App) Results() []domain.RankedResult {
	return a.results
}

// SelectedIndex returns the highlighted result index. Used by tests.
func (a *App) SelectedIndex() int {
	return a.selected
}

// Err returns the last error. Used by tests.
func (a *App) Err() error {
	return a.err
}
