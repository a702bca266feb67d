package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hprofkit/hprofctl/internal/hprof/engine"
	"github.com/hprofkit/hprofctl/utils"
)

// progressMsg carries one engine.Progress sample into the bubbletea event
// loop; tickMsg drives the elapsed-time/throughput readout independently of
// how often the engine actually reports.
type (
	progressMsg struct{ bytesConsumed int64 }
	doneMsg     struct{}
	tickMsg     time.Time
)

type progressModel struct {
	bar      progress.Model
	fileSize int64
	consumed int64
	start    time.Time
	done     bool
}

func newProgressModel(fileSize int64) progressModel {
	return progressModel{
		bar:      progress.New(progress.WithDefaultGradient()),
		fileSize: fileSize,
		start:    time.Now(),
	}
}

func (m progressModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.consumed = msg.bytesConsumed
		return m, nil
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 4
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	ratio := 0.0
	if m.fileSize > 0 {
		ratio = float64(m.consumed) / float64(m.fileSize)
	}
	elapsed := time.Since(m.start)
	throughput := utils.MemorySize(0)
	if elapsed > 0 {
		throughput = utils.MemorySize(float64(m.consumed) / elapsed.Seconds())
	}

	bar := m.bar.ViewAs(ratio)
	return fmt.Sprintf("%s\n%s / %s  (%s/s)  elapsed %s\n",
		bar,
		utils.MemorySize(m.consumed),
		utils.MemorySize(m.fileSize),
		throughput,
		utils.FormatDuration(elapsed))
}

// runProgressBar drives a bubbletea program off engine's progress channel
// until it closes, then quits. It is intentionally simple: one pipe from
// channel to program, no independent polling of ingestion state.
func runProgressBar(fileSize int64, ch <-chan engine.Progress) {
	p := tea.NewProgram(newProgressModel(fileSize))

	go func() {
		for prog := range ch {
			p.Send(progressMsg{bytesConsumed: prog.BytesConsumed})
		}
		p.Send(doneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		fmt.Println("progress display error:", err)
	}
}
