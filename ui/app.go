package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cmdhub/model"
	"cmdhub/runner"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

// Store is what the browser needs from the API. *client.Client satisfies it.
type Store interface {
	List(ctx context.Context) ([]model.Command, error)
	Create(ctx context.Context, c model.Command) (model.Command, error)
	Update(ctx context.Context, c model.Command) error
	Delete(ctx context.Context, id int64) (model.Command, error)
}

const requestTimeout = 10 * time.Second

type mode int

const (
	modeNormal mode = iota
	modeAdd
	modeEdit
	modeDelete
	modeParam
)

var formLabels = []string{"How to", "Platform", "Command line"}

type App struct {
	store    Store
	commands []model.Command
	filtered []model.Command

	mode   mode
	cursor int
	width  int
	height int
	err    string
	status string

	searchInput textinput.Model

	output      viewport.Model
	outputLines []string
	running     bool
	outputChan  chan runner.Line
	cancelRun   context.CancelFunc

	formInputs []textinput.Model
	formFocus  int
	editing    *model.Command
	saving     bool

	paramNames  []string
	paramValues map[string]string
	paramIndex  int
	paramInput  textinput.Model
	pending     *model.Command
}

func NewApp(store Store) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	commands, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	search := textinput.New()
	search.Placeholder = "Search commands..."
	search.Focus()

	return &App{
		store:       store,
		commands:    commands,
		filtered:    commands,
		searchInput: search,
		output:      viewport.New(80, 10),
		paramValues: make(map[string]string),
	}, nil
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

type outputMsg runner.Line

// Store calls run as tea.Cmds and report back with these.
type (
	loadedMsg struct {
		commands []model.Command
		err      error
	}
	savedMsg struct {
		status string
		err    error
	}
	deletedMsg struct{ err error }
)

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width - 4   // app padding
		a.height = msg.Height - 2 // app padding
		a.output.Width = a.width - 4
		a.output.Height = a.height / 3
		return a, nil

	case loadedMsg:
		if msg.err != nil {
			a.err = msg.err.Error()
			return a, nil
		}
		a.commands = msg.commands
		a.filter()
		return a, nil

	case savedMsg:
		a.saving = false
		if msg.err != nil {
			a.err = msg.err.Error()
			return a, nil
		}
		a.status = msg.status
		a.mode = modeNormal
		a.searchInput.Focus()
		return a, a.loadCommands()

	case deletedMsg:
		if msg.err != nil {
			a.err = msg.err.Error()
			return a, nil
		}
		a.status = "Deleted!"
		return a, a.loadCommands()

	case outputMsg:
		if msg.Done {
			a.stopRun()
			if msg.Err != "" {
				a.outputLines = append(a.outputLines, errorStyle.Render("Error: "+msg.Err))
			}
			a.setOutput()
			return a, nil
		}
		line := msg.Text
		if msg.Stderr {
			line = errorStyle.Render(line)
		}
		a.outputLines = append(a.outputLines, line)
		a.setOutput()
		return a, waitForOutput(a.outputChan)

	case tea.KeyMsg:
		a.err = ""
		a.status = ""

		switch a.mode {
		case modeNormal:
			return a.updateNormal(msg)
		case modeAdd, modeEdit:
			return a.updateForm(msg)
		case modeDelete:
			return a.updateDelete(msg)
		case modeParam:
			return a.updateParam(msg)
		}
	}

	return a, nil
}

func (a *App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		a.stopRun()
		return a, tea.Quit

	case "up", "ctrl+k":
		if a.cursor > 0 {
			a.cursor--
		}

	case "down", "ctrl+j":
		if a.cursor < len(a.filtered)-1 {
			a.cursor++
		}

	case "enter":
		if len(a.filtered) > 0 && !a.running {
			return a.runSelected()
		}

	case "ctrl+x":
		if a.running {
			a.cancelRun()
		}

	case "ctrl+a":
		a.mode = modeAdd
		a.editing = nil
		a.initForm(nil)

	case "ctrl+e":
		if len(a.filtered) > 0 {
			a.mode = modeEdit
			c := a.filtered[a.cursor]
			a.editing = &c
			a.initForm(&c)
		}

	case "ctrl+d":
		if len(a.filtered) > 0 {
			a.mode = modeDelete
		}

	case "ctrl+r":
		return a, a.loadCommands()

	case "esc":
		a.searchInput.SetValue("")
		a.filter()

	default:
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		a.filter()
		return a, cmd
	}

	return a, nil
}

func (a *App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		a.stopRun()
		return a, tea.Quit

	case "esc":
		a.mode = modeNormal
		a.searchInput.Focus()
		return a, nil

	case "tab", "down":
		a.formFocus = (a.formFocus + 1) % len(a.formInputs)
		return a, a.focusFormInput()

	case "shift+tab", "up":
		a.formFocus--
		if a.formFocus < 0 {
			a.formFocus = len(a.formInputs) - 1
		}
		return a, a.focusFormInput()

	case "enter":
		return a.submitForm()

	default:
		var cmd tea.Cmd
		a.formInputs[a.formFocus], cmd = a.formInputs[a.formFocus].Update(msg)
		return a, cmd
	}
}

func (a *App) updateDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		a.mode = modeNormal
		if len(a.filtered) == 0 {
			return a, nil
		}
		id := a.filtered[a.cursor].ID
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			_, err := a.store.Delete(ctx, id)
			return deletedMsg{err: err}
		}

	case "n", "N", "esc":
		a.mode = modeNormal
		return a, nil
	}

	return a, nil
}

func (a *App) updateParam(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "esc":
		a.mode = modeNormal
		a.searchInput.Focus()
		return a, nil

	case "enter":
		a.paramValues[a.paramNames[a.paramIndex]] = a.paramInput.Value()
		a.paramIndex++
		if a.paramIndex >= len(a.paramNames) {
			return a.execute()
		}
		a.paramInput.SetValue("")
		a.paramInput.Placeholder = a.paramNames[a.paramIndex]
		return a, nil

	default:
		var cmd tea.Cmd
		a.paramInput, cmd = a.paramInput.Update(msg)
		return a, cmd
	}
}

func (a *App) runSelected() (tea.Model, tea.Cmd) {
	c := a.filtered[a.cursor]
	a.pending = &c
	a.paramValues = make(map[string]string)

	params := runner.ExtractParams(c.CommandLine)
	if len(params) == 0 {
		return a.execute()
	}

	a.mode = modeParam
	a.paramNames = params
	a.paramIndex = 0
	a.paramInput = textinput.New()
	a.paramInput.Placeholder = params[0]
	a.paramInput.Focus()
	return a, nil
}

func (a *App) execute() (tea.Model, tea.Cmd) {
	line := runner.SubstituteParams(a.pending.CommandLine, a.paramValues)

	a.running = true
	a.outputLines = []string{cmdPreviewStyle.Render("$ " + line), ""}
	a.setOutput()

	a.mode = modeNormal
	a.searchInput.Focus()

	ctx, cancel := context.WithCancel(context.Background())
	a.cancelRun = cancel
	a.outputChan = make(chan runner.Line)
	go runner.Run(ctx, line, a.outputChan)

	return a, waitForOutput(a.outputChan)
}

func (a *App) stopRun() {
	if a.cancelRun != nil {
		a.cancelRun()
		a.cancelRun = nil
	}
	a.running = false
}

func (a *App) setOutput() {
	a.output.SetContent(strings.Join(a.outputLines, "\n"))
	a.output.GotoBottom()
}

func waitForOutput(ch chan runner.Line) tea.Cmd {
	return func() tea.Msg {
		l, ok := <-ch
		if !ok {
			return outputMsg{Done: true}
		}
		return outputMsg(l)
	}
}

func (a *App) initForm(c *model.Command) {
	placeholders := []string{
		"How to (e.g., list open ports)",
		"Platform (e.g., Linux)",
		"Command line (use {{param}} for dynamic values)",
	}

	a.formInputs = make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		in := textinput.New()
		in.Placeholder = p
		in.CharLimit = model.MaxFieldLength
		a.formInputs[i] = in
	}
	if c != nil {
		a.formInputs[0].SetValue(c.HowTo)
		a.formInputs[1].SetValue(c.Platform)
		a.formInputs[2].SetValue(c.CommandLine)
	}

	a.formInputs[0].Focus()
	a.formFocus = 0
}

func (a *App) focusFormInput() tea.Cmd {
	for i := range a.formInputs {
		a.formInputs[i].Blur()
	}
	return a.formInputs[a.formFocus].Focus()
}

func (a *App) submitForm() (tea.Model, tea.Cmd) {
	if a.saving {
		return a, nil
	}
	c := model.Command{
		HowTo:       strings.TrimSpace(a.formInputs[0].Value()),
		Platform:    strings.TrimSpace(a.formInputs[1].Value()),
		CommandLine: strings.TrimSpace(a.formInputs[2].Value()),
	}
	if a.editing != nil {
		c.ID = a.editing.ID
	}

	if err := model.Validate(c); err != nil {
		a.err = err.Error()
		return a, nil
	}
	if a.isDuplicate(c) {
		a.err = "A command with this exact command line already exists"
		return a, nil
	}

	a.saving = true
	adding := a.mode == modeAdd
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if adding {
			_, err := a.store.Create(ctx, c)
			return savedMsg{status: "Added!", err: err}
		}
		return savedMsg{status: "Updated!", err: a.store.Update(ctx, c)}
	}
}

// isDuplicate reports whether another loaded command has the same command line.
func (a *App) isDuplicate(c model.Command) bool {
	for _, other := range a.commands {
		if other.ID != c.ID && strings.TrimSpace(other.CommandLine) == c.CommandLine {
			return true
		}
	}
	return false
}

// loadCommands fetches the list off the event loop.
func (a *App) loadCommands() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		commands, err := a.store.List(ctx)
		return loadedMsg{commands: commands, err: err}
	}
}

func (a *App) filter() {
	query := a.searchInput.Value()
	if query == "" {
		a.filtered = a.commands
	} else {
		targets := make([]string, len(a.commands))
		for i, c := range a.commands {
			targets[i] = c.HowTo + " " + c.Platform + " " + c.CommandLine
		}

		matches := fuzzy.Find(query, targets)
		a.filtered = make([]model.Command, len(matches))
		for i, m := range matches {
			a.filtered[i] = a.commands[m.Index]
		}
	}

	if a.cursor >= len(a.filtered) {
		a.cursor = max(0, len(a.filtered)-1)
	}
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("cmdhub"))
	b.WriteString("\n\n")
	b.WriteString(a.searchInput.View())
	b.WriteString("\n\n")

	listHeight := max(3, a.height-a.output.Height-10)
	if a.mode == modeAdd || a.mode == modeEdit {
		b.WriteString(a.renderForm())
	} else {
		b.WriteString(a.renderList(listHeight))
	}

	if a.mode == modeDelete && len(a.filtered) > 0 {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render(fmt.Sprintf("Delete '%s'? (y/n)", a.filtered[a.cursor].HowTo)))
		b.WriteString("\n")
	}

	if a.mode == modeParam {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("Enter value for {{%s}}: ", a.paramNames[a.paramIndex])))
		b.WriteString(a.paramInput.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(outputTitleStyle.Render("OUTPUT"))
	b.WriteString("\n")
	b.WriteString(borderStyle.Width(a.width - 4).Render(a.output.View()))
	b.WriteString("\n")

	if a.err != "" {
		b.WriteString(errorStyle.Render("Error: " + a.err))
		b.WriteString("\n")
	}
	if a.status != "" {
		b.WriteString(successStyle.Render(a.status))
		b.WriteString("\n")
	}

	b.WriteString(a.renderHelp())

	return appStyle.Render(b.String())
}

func (a *App) renderList(height int) string {
	if len(a.filtered) == 0 {
		return mutedStyle.Render("No commands found. Press ctrl+a to add one.\n")
	}

	// each command takes two lines
	visible := max(1, height/2)
	start := 0
	if a.cursor >= visible {
		start = a.cursor - visible + 1
	}
	end := min(start+visible, len(a.filtered))

	var lines []string
	for i := start; i < end; i++ {
		c := a.filtered[i]
		prefix := "  "
		style := normalStyle
		if i == a.cursor {
			prefix = "▸ "
			style = selectedStyle
		}

		title := style.Render(prefix+c.HowTo) + " " + platformStyle.Render("["+c.Platform+"]")
		preview := cmdPreviewStyle.Render("  " + truncate(c.CommandLine, a.width-10))
		lines = append(lines, title, preview)
	}

	return strings.Join(lines, "\n") + "\n"
}

func (a *App) renderForm() string {
	var b strings.Builder

	title := "Add Command"
	if a.mode == modeEdit {
		title = "Edit Command"
	}
	b.WriteString(labelStyle.Render(title))
	b.WriteString("\n\n")

	for i, input := range a.formInputs {
		b.WriteString(labelStyle.Render(formLabels[i] + ": "))
		style := inputStyle
		if i == a.formFocus {
			style = focusedInputStyle
		}
		b.WriteString(style.Width(a.width - 20).Render(input.View()))
		b.WriteString("\n\n")
	}

	b.WriteString(helpStyle.Render("tab: next field • enter: save • esc: cancel"))
	b.WriteString("\n")

	return b.String()
}

func (a *App) renderHelp() string {
	if a.mode != modeNormal {
		return ""
	}

	keys := []struct{ key, desc string }{
		{"enter", "run"},
		{"ctrl+a", "add"},
		{"ctrl+e", "edit"},
		{"ctrl+d", "delete"},
		{"ctrl+r", "reload"},
		{"ctrl+c", "quit"},
	}
	if a.running {
		keys = append([]struct{ key, desc string }{{"ctrl+x", "stop"}}, keys...)
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = helpKeyStyle.Render(k.key) + " " + helpStyle.Render(k.desc)
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 4 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
