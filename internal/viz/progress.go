package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/rdsim/internal/rdsys"
)

const barWidth = 40

type (
	TickMsg     time.Time
	ProgressMsg float64
	DoneMsg     struct {
		Trajectories []*rdsys.Trajectory
		Err          error
	}
)

// Progress shows a running simulation. It quits once DoneMsg arrives; keys
// q and ctrl+c only request cancellation.
type Progress struct {
	title      string
	percent    float64
	started    time.Time
	frame      int
	cancel     context.CancelFunc
	cancelling bool
	done       bool
	result     DoneMsg
}

func NewProgress(title string, cancel context.CancelFunc) Progress {
	return Progress{title: title, cancel: cancel, started: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/15, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (p Progress) Init() tea.Cmd {
	return tick()
}

func (p Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !p.cancelling && p.cancel != nil {
				p.cancel()
			}
			p.cancelling = true
		}
	case ProgressMsg:
		p.percent = float64(msg)
	case DoneMsg:
		p.done = true
		p.result = msg
		return p, tea.Quit
	case TickMsg:
		if p.done {
			return p, nil
		}
		p.frame++
		return p, tick()
	}
	return p, nil
}

func (p Progress) View() string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(p.title) + "\n\n")

	status := StatusRunning.Render(AnimatedSpinner(p.frame) + " running")
	switch {
	case p.done && p.result.Err != nil:
		status = StatusFailed.Render("✗ " + p.result.Err.Error())
	case p.done && incomplete(p.result.Trajectories):
		status = StatusFailed.Render("✗ failed, partial output kept")
	case p.done:
		status = StatusRunning.Render("✓ complete")
	case p.cancelling:
		status = StatusFailed.Render(AnimatedSpinner(p.frame) + " cancelling")
	}
	s.WriteString(status + "\n")
	s.WriteString(ProgressBar(p.percent/100, barWidth) + fmt.Sprintf(" %5.1f%%", p.percent) + "\n")
	s.WriteString(Subtle.Render("elapsed "+time.Since(p.started).Round(time.Millisecond).String()) + "\n")
	if !p.done {
		s.WriteString("\n" + KeyHint.Render("q: cancel") + "\n")
	}
	return s.String()
}

func (p Progress) Percent() float64 { return p.percent }
func (p Progress) Done() bool       { return p.done }

// Result is the outcome delivered by DoneMsg.
func (p Progress) Result() ([]*rdsys.Trajectory, error) {
	return p.result.Trajectories, p.result.Err
}

func incomplete(trs []*rdsys.Trajectory) bool {
	for _, tr := range trs {
		if tr != nil && tr.Incomplete {
			return true
		}
	}
	return false
}

// RunFunc runs a simulation, reporting progress percentages.
type RunFunc func(ctx context.Context, progress func(percent float64)) ([]*rdsys.Trajectory, error)

// RunLive runs fn while displaying a Progress view, and returns its result.
func RunLive(ctx context.Context, title string, fn RunFunc, opts ...tea.ProgramOption) ([]*rdsys.Trajectory, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(NewProgress(title, cancel), opts...)
	go func() {
		trs, err := fn(ctx, func(p float64) { prog.Send(ProgressMsg(p)) })
		prog.Send(DoneMsg{Trajectories: trs, Err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		return nil, err
	}
	return final.(Progress).Result()
}
