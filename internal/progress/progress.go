// Package progress shows a spinner with the number of processed lines while a
// run is in flight.
package progress

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const refreshInterval = 120 * time.Millisecond

type refreshMsg struct{}

type doneMsg struct{}

type model struct {
	spinner spinner.Model
	counter *atomic.Int64
	start   time.Time
	done    bool

	countStyle lipgloss.Style
	dimStyle   lipgloss.Style
}

func newModel(counter *atomic.Int64) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	return model{
		spinner:    s,
		counter:    counter,
		start:      time.Now(),
		countStyle: lipgloss.NewStyle().Bold(true),
		dimStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refresh())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case refreshMsg:
		if m.done {
			return m, nil
		}
		return m, refresh()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		return ""
	}
	lines := m.counter.Load()
	elapsed := time.Since(m.start)
	rate := 0.0
	if s := elapsed.Seconds(); s > 0 {
		rate = float64(lines) / s
	}
	return fmt.Sprintf("%s %s lines processed %s\n",
		m.spinner.View(),
		m.countStyle.Render(fmt.Sprint(lines)),
		m.dimStyle.Render(fmt.Sprintf("(%.0f/s)", rate)))
}

// Indicator is a running spinner.
type Indicator struct {
	prog *tea.Program
	done chan struct{}
}

// Start draws the spinner on w until Stop is called. counter is read on every
// refresh and must not be nil.
func Start(w io.Writer, counter *atomic.Int64) *Indicator {
	p := tea.NewProgram(newModel(counter),
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler())
	ind := &Indicator{prog: p, done: make(chan struct{})}
	go func() {
		defer close(ind.done)
		_, _ = p.Run()
	}()
	return ind
}

// Stop clears the spinner and waits for it to exit.
func (i *Indicator) Stop() {
	i.prog.Send(doneMsg{})
	<-i.done
}
