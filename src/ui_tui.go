package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type phase int

const (
	phaseScanning phase = iota
	phaseSorting
	phaseDone
)

const recentLogSize = 12

type model struct {
	config   SourceConfig
	sorter   *Sorter
	ctx      context.Context
	cancel   context.CancelFunc
	events   chan tea.Msg
	result   chan runDoneMsg
	spinner  spinner.Model
	progress progress.Model

	currentPhase phase
	total        int
	processed    int
	bytes        int64
	failed       int
	recent       []Decision

	summary *RunSummary
	err     error

	width  int
	height int
}

type scannedMsg struct {
	total int
}

type decisionMsg Decision

type runDoneMsg struct {
	summary *RunSummary
	err     error
}

func initialModel(ctx context.Context, config SourceConfig, sorter *Sorter) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
	)
	// Updated when WindowSizeMsg arrives
	p.Width = 60

	ctx, cancel := context.WithCancel(ctx)
	return model{
		config:       config,
		sorter:       sorter,
		ctx:          ctx,
		cancel:       cancel,
		events:       make(chan tea.Msg, 100),
		result:       make(chan runDoneMsg, 1),
		spinner:      s,
		progress:     p,
		currentPhase: phaseScanning,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		startRun(m.ctx, m.config, m.sorter, m.events, m.result),
		waitForEvent(m.events),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		progressWidth := msg.Width - 35
		if progressWidth < 20 {
			progressWidth = 20
		}
		m.progress.Width = progressWidth
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "enter":
			if m.currentPhase == phaseDone {
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scannedMsg:
		m.total = msg.total
		m.currentPhase = phaseSorting
		return m, waitForEvent(m.events)

	case decisionMsg:
		d := Decision(msg)
		m.processed++
		if d.Action == ActionError {
			m.failed++
		}
		m.recent = append([]Decision{d}, m.recent...)
		if len(m.recent) > recentLogSize {
			m.recent = m.recent[:recentLogSize]
		}
		return m, waitForEvent(m.events)

	case runDoneMsg:
		m.currentPhase = phaseDone
		m.summary = msg.summary
		m.err = msg.err
		if m.summary != nil {
			m.bytes = m.summary.BytesCopied
		}
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		MarginLeft(2)

	b.WriteString(titleStyle.Render("FileFinder"))
	b.WriteString("\n\n")

	configStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginLeft(2)
	modeStr := map[bool]string{true: "DRY RUN", false: "COPY"}[m.config.DryRun]
	b.WriteString(configStyle.Render(fmt.Sprintf(
		"%s → %s | Names: %s | Overwrite: %s | Depth: %d | %s",
		truncatePath(m.config.SourcePath, 25),
		truncatePath(m.config.DestinationPath, 25),
		m.config.FileNameMode,
		m.config.OverwritePolicy,
		m.config.MaxRecursionDepth,
		modeStr,
	)))
	b.WriteString("\n\n")

	b.WriteString("  ")
	phases := []string{"Searching", "Copying", "Done"}
	for i, name := range phases {
		if i > 0 {
			b.WriteString(" → ")
		}
		if int(m.currentPhase) == i {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render(name))
		} else if int(m.currentPhase) > i {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("✓"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(name))
		}
	}
	b.WriteString("\n\n")

	switch m.currentPhase {
	case phaseScanning:
		b.WriteString(fmt.Sprintf("  %s Searching for files in %s. This will take a while\n",
			m.spinner.View(), truncatePath(m.config.SourcePath, 50)))

	case phaseSorting:
		b.WriteString(fmt.Sprintf("  %s Copying [%d out of %d files]\n\n", m.spinner.View(), m.processed, m.total))
		if m.total > 0 {
			percent := float64(m.processed) / float64(m.total)
			b.WriteString("  ")
			b.WriteString(m.progress.ViewAs(percent))
			b.WriteString(fmt.Sprintf(" %d%%", int(percent*100)))
			if m.failed > 0 {
				b.WriteString(fmt.Sprintf(" • %d failed", m.failed))
			}
			b.WriteString("\n")
		}
		b.WriteString(m.renderRecent())

	case phaseDone:
		b.WriteString(m.renderDone())
	}

	b.WriteString("\n\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginLeft(2)
	if m.currentPhase == phaseDone {
		b.WriteString(helpStyle.Render("enter: quit • q: quit"))
	} else {
		b.WriteString(helpStyle.Render("q: stop after the current file"))
	}
	b.WriteString("\n")

	return b.String()
}

// renderRecent shows the latest decisions, errors highlighted
func (m model) renderRecent() string {
	if len(m.recent) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).MarginLeft(2).Render("Log"))
	b.WriteString("\n")

	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).MarginLeft(2)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).MarginLeft(2)

	maxLen := m.width - 10
	if maxLen < 40 {
		maxLen = 40
	}
	for _, d := range m.recent {
		line := truncatePath(describeDecision(d), maxLen)
		if d.Action == ActionError {
			b.WriteString(errStyle.Render(line))
		} else {
			b.WriteString(okStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderDone() string {
	if m.err != nil && (m.summary == nil || m.summary.TotalFound == 0) {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).MarginLeft(2)
		return errStyle.Render("✗ " + m.err.Error())
	}

	var buf bytes.Buffer
	WriteSummary(&buf, m.summary)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		MarginLeft(2)

	doneStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true).
		MarginLeft(2)

	var b strings.Builder
	b.WriteString(doneStyle.Render(fmt.Sprintf("✓ Complete! %s copied", humanize.Bytes(uint64(m.bytes)))))
	b.WriteString("\n\n")
	b.WriteString(boxStyle.Render(strings.TrimRight(buf.String(), "\n")))
	return b.String()
}

// describeDecision is the one-line log entry for a decision
func describeDecision(d Decision) string {
	dest := filepath.Join(d.Directory, d.FileName)
	switch d.Action {
	case ActionCopy:
		return fmt.Sprintf("Copied %s to %s", d.SourcePath, dest)
	case ActionOverwrite:
		return fmt.Sprintf("Replaced %s", dest)
	case ActionKeep:
		return fmt.Sprintf("Kept existing %s", dest)
	default:
		return fmt.Sprintf("File %s caused an error", d.SourcePath)
	}
}

// Commands

// startRun runs the sorter in the background and forwards its events
func startRun(ctx context.Context, config SourceConfig, sorter *Sorter, events chan<- tea.Msg, result chan<- runDoneMsg) tea.Cmd {
	return func() tea.Msg {
		send := func(msg tea.Msg) {
			select {
			case events <- msg:
			case <-ctx.Done():
			}
		}

		sorter.OnScanned = func(total int) { send(scannedMsg{total: total}) }
		sorter.OnDecision = func(d Decision) { send(decisionMsg(d)) }

		go func() {
			summary, err := sorter.Run(ctx, config)
			done := runDoneMsg{summary: summary, err: err}
			result <- done
			send(done)
			close(events)
		}()
		return nil
	}
}

// waitForEvent delivers the next event from the run
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// runTUI shows the run in a bubbletea program and returns once the sorter
// has stopped, even when the user quits early
func runTUI(ctx context.Context, config SourceConfig, sorter *Sorter) (*RunSummary, error) {
	m := initialModel(ctx, config, sorter)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		m.cancel()
		return nil, fmt.Errorf("tui: %w", err)
	}

	done := <-m.result
	return done.summary, done.err
}

// truncatePath shortens a file path for display
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	if maxLen > 10 {
		return "..." + path[len(path)-maxLen+3:]
	}

	return path[:maxLen]
}
