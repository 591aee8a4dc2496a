package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/user/remedgen/pkg/batch"
	"github.com/user/remedgen/pkg/engine"
)

const maxRecent = 6

// eventMsg carries a scheduler event into the program loop.
type eventMsg batch.Event

// doneMsg is sent once the scheduler has returned.
type doneMsg struct{}

type activeTask struct {
	file  string
	stage engine.Stage
}

type liveModel struct {
	total     int
	succeeded int
	failed    int
	active    map[int]activeTask
	recent    []string
	spinner   spinner.Model
	bar       progress.Model
	done      bool
}

func newLiveModel() liveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusActive
	return liveModel{
		active:  make(map[int]activeTask),
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m liveModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m = m.apply(batch.Event(msg))
		return m, nil

	case doneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		width := msg.Width - 20
		if width > 60 {
			width = 60
		}
		if width > 10 {
			m.bar.Width = width
		}
		return m, nil
	}
	return m, nil
}

func (m liveModel) apply(ev batch.Event) liveModel {
	if ev.Total > m.total {
		m.total = ev.Total
	}
	switch ev.Kind {
	case batch.TaskStarted:
		m.active[ev.Index] = activeTask{file: ev.File}
	case batch.StageChanged:
		t := m.active[ev.Index]
		t.file = ev.File
		t.stage = ev.Stage
		m.active[ev.Index] = t
	case batch.TaskFinished:
		delete(m.active, ev.Index)
		line := ""
		if ev.Outcome != nil && ev.Outcome.OK() {
			m.succeeded++
			line = statusOK.Render("✓ ") + filepath.Base(ev.File)
		} else {
			m.failed++
			reason := "failed"
			if ev.Outcome != nil && ev.Outcome.Err != nil {
				reason = ev.Outcome.Err.Error()
			}
			line = statusFailed.Render("✗ ") + filepath.Base(ev.File) + dimStyle.Render("  "+truncate(reason, 60))
		}
		m.recent = append(m.recent, line)
		if len(m.recent) > maxRecent {
			m.recent = m.recent[len(m.recent)-maxRecent:]
		}
	}
	return m
}

func (m liveModel) finished() int {
	return m.succeeded + m.failed
}

func (m liveModel) percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.finished()) / float64(m.total)
}

func (m liveModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Generating remediation scripts"))
	sb.WriteString(fmt.Sprintf("  %d/%d", m.finished(), m.total))
	if m.failed > 0 {
		sb.WriteString(statusFailed.Render(fmt.Sprintf("  %d failed", m.failed)))
	}
	sb.WriteString("\n")
	sb.WriteString(m.bar.ViewAs(m.percent()))
	sb.WriteString("\n\n")

	indexes := make([]int, 0, len(m.active))
	for i := range m.active {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		t := m.active[i]
		stage := string(t.stage)
		if stage == "" {
			stage = "starting"
		}
		sb.WriteString(fmt.Sprintf("%s %-42s %s\n",
			m.spinner.View(), truncate(filepath.Base(t.file), 42), dimStyle.Render(stage)))
	}

	for _, line := range m.recent {
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// RunLive renders progress for work until it returns. work receives the
// observer to hand to the scheduler; RunLive does not return before work
// has finished. If the program exits first (interrupt), stop is called so
// work can wind down.
func RunLive(out io.Writer, stop func(), work func(observe batch.Observer)) error {
	p := tea.NewProgram(newLiveModel(), tea.WithOutput(out), tea.WithInput(nil))

	workDone := make(chan struct{})
	go func() {
		defer close(workDone)
		work(func(ev batch.Event) {
			p.Send(eventMsg(ev))
		})
		p.Send(doneMsg{})
	}()

	final, err := p.Run()
	if m, ok := final.(liveModel); (!ok || !m.done) && stop != nil {
		stop()
	}
	<-workDone
	return err
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
