package ui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voice-quiz/internal/domain"
)

// Controls is the command surface the TUI drives.
type Controls interface {
	Start()
	SubmitAnswer(token string)
	RequestRepeat()
	RequestCapture()
	StopCapture()
	Reset()
}

// Model renders quiz snapshots and forwards key presses.
type Model struct {
	snap     domain.Snapshot
	updates  <-chan domain.Snapshot
	controls Controls
	progress progress.Model
	spinner  spinner.Model
	width    int
	noColor  bool
	quitting bool
}

type Options struct {
	NoColor bool
}

func NewModel(initial domain.Snapshot, updates <-chan domain.Snapshot, controls Controls, opts Options) Model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	if opts.NoColor {
		bar = progress.New(progress.WithSolidFill("7"), progress.WithWidth(40))
	}
	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	if !opts.NoColor {
		spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	}
	return Model{
		snap:     initial,
		updates:  updates,
		controls: controls,
		progress: bar,
		spinner:  spin,
		noColor:  opts.NoColor,
	}
}

// SnapshotMsg carries a new orchestrator snapshot.
type SnapshotMsg struct {
	Snapshot domain.Snapshot
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.updates), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.progress.Width = max(min(typed.Width-20, 60), 10)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed.String())
	case SnapshotMsg:
		m.snap = typed.Snapshot
		return m, waitForSnapshot(m.updates)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	action, token := actionForKey(key, m.snap)
	switch action {
	case ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case ActionStart:
		m.controls.Start()
	case ActionRepeat:
		m.controls.RequestRepeat()
	case ActionListen:
		m.controls.RequestCapture()
	case ActionStop:
		m.controls.StopCapture()
	case ActionReset:
		m.controls.Reset()
	case ActionAnswer:
		m.controls.SubmitAnswer(token)
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return render(m)
}

// waitForSnapshot blocks until the orchestrator publishes a new snapshot.
func waitForSnapshot(updates <-chan domain.Snapshot) tea.Cmd {
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		snap, ok := <-updates
		if !ok {
			return tea.Quit()
		}
		return SnapshotMsg{Snapshot: snap}
	}
}
