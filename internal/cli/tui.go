package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spotdeck/spotdeck/pkg/artwork"
)

// Progress bar styles
var (
	barFilledStyle = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
	failLineStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// maxFailureLines bounds the failure log shown under the progress bar.
const maxFailureLines = 5

// =============================================================================
// ArtworkModel - Live progress for an artwork batch
// =============================================================================

// Messages forwarded from the orchestrator's observer into the TUI.
type (
	artworkProgressMsg artwork.Progress
	artworkItemMsg     artwork.Item
	artworkDoneMsg     struct{ err error }
)

// ArtworkModel is the bubbletea model showing artwork batch progress.
type ArtworkModel struct {
	Total        int
	Completed    int
	Failed       int
	Status       string
	Width        int
	descriptions []string
	failures     []string
	cancel       context.CancelFunc
	cancelled    bool
	done         bool
}

// NewArtworkModel creates a progress model for a batch of len(descriptions)
// items. cancel is invoked when the user aborts with ctrl+c or q.
func NewArtworkModel(descriptions []string, cancel context.CancelFunc) ArtworkModel {
	return ArtworkModel{
		Total:        len(descriptions),
		Width:        40,
		descriptions: descriptions,
		cancel:       cancel,
	}
}

func (m ArtworkModel) Init() tea.Cmd {
	return nil
}

func (m ArtworkModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// Signal cancellation and wait for the batch to unwind; the
			// done message quits the program.
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
	case artworkProgressMsg:
		m.Completed = msg.Completed
		m.Status = msg.Status
	case artworkItemMsg:
		if msg.Err != nil {
			m.Failed++
			m.failures = append(m.failures, m.failureLine(msg.Index, msg.Err))
			if len(m.failures) > maxFailureLines {
				m.failures = m.failures[len(m.failures)-maxFailureLines:]
			}
		}
	case artworkDoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.Width = msg.Width - 20
		if m.Width < 10 {
			m.Width = 10
		}
	}
	return m, nil
}

func (m ArtworkModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	b.WriteString(StyleTitle.Render("Generating artwork"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q abort"))
	b.WriteString("\n\n")

	b.WriteString(m.bar())
	b.WriteString(fmt.Sprintf(" %d/%d", m.Completed, m.Total))
	if m.Failed > 0 {
		b.WriteString(StyleWarning.Render(fmt.Sprintf("  %d failed", m.Failed)))
	}
	b.WriteString("\n")

	if m.cancelled {
		b.WriteString(StyleWarning.Render("Cancelling..."))
		b.WriteString("\n")
	} else if m.Status != "" {
		b.WriteString(StyleDim.Render(m.Status))
		b.WriteString("\n")
	}

	for _, line := range m.failures {
		b.WriteString(failLineStyle.Render("  " + iconError + " " + line))
		b.WriteString("\n")
	}

	return b.String()
}

// bar renders the filled/empty progress bar.
func (m ArtworkModel) bar() string {
	filled := 0
	if m.Total > 0 {
		filled = m.Completed * m.Width / m.Total
	}
	if filled > m.Width {
		filled = m.Width
	}
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", m.Width-filled))
}

// failureLine formats a per-item failure using the symbol's description
// when available.
func (m ArtworkModel) failureLine(index int, err error) string {
	name := fmt.Sprintf("symbol %d", index)
	if index >= 0 && index < len(m.descriptions) && m.descriptions[index] != "" {
		name = m.descriptions[index]
	}
	return fmt.Sprintf("%s: %v", name, err)
}

// =============================================================================
// TUI Runner
// =============================================================================

// runWithArtworkTUI executes run under a live progress display. The observer
// it hands to run forwards orchestrator events into the bubbletea program;
// run's error is returned unchanged after the display shuts down.
func runWithArtworkTUI(ctx context.Context, descriptions []string, run func(ctx context.Context, obs artwork.Observer) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewArtworkModel(descriptions, cancel), tea.WithOutput(os.Stderr))

	errCh := make(chan error, 1)
	go func() {
		obs := artwork.ObserverFuncs{
			Progress: func(pr artwork.Progress) { p.Send(artworkProgressMsg(pr)) },
			Item:     func(item artwork.Item) { p.Send(artworkItemMsg(item)) },
		}
		err := run(ctx, obs)
		errCh <- err
		p.Send(artworkDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("progress display: %w", err)
	}
	return <-errCh
}
