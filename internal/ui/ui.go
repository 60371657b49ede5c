package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dclone/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	WatchView ViewState = iota
	ResultView
)

// ProgressFunc fetches the latest snapshot of the watched task.
type ProgressFunc func(ctx context.Context) (*models.Progress, error)

// WatchOpts configures a [Model].
type WatchOpts struct {
	Title      string
	Interval   time.Duration // delay between polls
	ExitOnDone bool          // quit as soon as the task is terminal
}

// Model watches one clone task until it completes or fails.
type Model struct {
	ctx        context.Context
	fetch      ProgressFunc
	title      string
	interval   time.Duration
	exitOnDone bool

	view     ViewState
	progress *models.Progress
	err      error
	width    int
	height   int

	bar     progress.Model
	spinner spinner.Model
	errors  list.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a watcher polling fetch.
func NewModel(ctx context.Context, fetch ProgressFunc, opts WatchOpts) *Model {
	if opts.Interval <= 0 {
		opts.Interval = 500 * time.Millisecond
	}
	if opts.Title == "" {
		opts.Title = "Cloning"
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	errs := list.New(nil, delegate, 0, 0)
	errs.Title = "Errors"
	errs.SetShowHelp(false)
	errs.SetFilteringEnabled(false)

	return &Model{
		ctx:        ctx,
		fetch:      fetch,
		title:      opts.Title,
		interval:   opts.Interval,
		exitOnDone: opts.ExitOnDone,
		view:       WatchView,
		bar:        progress.New(progress.WithDefaultGradient()),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		errors:     errs,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Progress returns the last snapshot seen, or nil before the first poll.
func (m *Model) Progress() *models.Progress {
	return m.progress
}

// Err returns the error that stopped polling, if any.
func (m *Model) Err() error {
	return m.err
}

// Init starts the spinner and the first poll.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-4, 10), 80)
		m.errors.SetSize(msg.Width-4, max(msg.Height-12, 3))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		if m.view == ResultView {
			var cmd tea.Cmd
			m.errors, cmd = m.errors.Update(msg)
			return m, cmd
		}
		return m, nil

	case progressMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultView
			return m, m.done()
		}

		m.progress = msg.progress
		if m.progress.Status.IsTerminal() {
			m.view = ResultView
			m.errors.SetItems(errorItems(m.progress.Errors))
			return m, m.done()
		}
		return m, m.tick()

	case tickMsg:
		if m.view == ResultView {
			return m, nil
		}
		return m, m.poll()

	case spinner.TickMsg:
		if m.view == ResultView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case WatchView:
		return m.renderWatch()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) poll() tea.Cmd {
	return func() tea.Msg {
		p, err := m.fetch(m.ctx)
		return progressMsg{progress: p, err: err}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) done() tea.Cmd {
	if m.exitOnDone {
		return tea.Quit
	}
	return nil
}

func (m *Model) renderWatch() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")

	if m.progress == nil {
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), styles.label.Render("Starting..."))
		b.WriteString("\n" + m.help.ShortHelpView(m.keys.ShortHelp()))
		return b.String()
	}

	p := m.progress
	status := styles.StatusStyle(string(p.Status)).Render(string(p.Status))
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), status)
	fmt.Fprintf(&b, "%s\n", m.bar.ViewAs(ratio(p.Percentage)))
	fmt.Fprintf(&b, "%s %d/%d (%.1f%%)\n", styles.label.Render("Items:"), p.Completed, p.Total, p.Percentage)

	if p.CurrentFile != "" {
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Current:"), p.CurrentFile)
	}
	if n := len(p.Errors); n > 0 {
		b.WriteString(styles.warn.Render(fmt.Sprintf("%d error(s) so far", n)) + "\n")
	}

	b.WriteString("\n" + m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderResult() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n" + m.help.ShortHelpView(m.keys.ShortHelp()))
		return b.String()
	}

	p := m.progress
	switch p.Status {
	case models.StatusCompleted:
		b.WriteString(styles.ok.Render("Clone completed"))
	default:
		b.WriteString(styles.err.Render("Clone failed"))
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %d/%d\n", styles.label.Render("Items:"), p.Completed, p.Total)
	if p.Result != nil {
		fmt.Fprintf(&b, "%s %s (%s)\n", styles.label.Render("Copy:"), p.Result.Name, p.Result.ID)
	}

	if len(p.Errors) > 0 {
		b.WriteString("\n" + m.errors.View() + "\n")
		b.WriteString("\n" + m.help.FullHelpView(m.keys.FullHelp()))
		return b.String()
	}

	b.WriteString("\n" + m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

// ratio converts a percentage into the 0..1 range the progress bar expects.
func ratio(percentage float64) float64 {
	return min(max(percentage/100, 0), 1)
}
