package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focusmate/internal/timer"
)

// TimerFeed carries machine hooks into the UI goroutine. Pass OnChange and
// Notify to the machine options.
type TimerFeed struct {
	changes     chan timer.Snapshot
	transitions chan timer.Transition
	done        chan struct{}
}

func NewTimerFeed() *TimerFeed {
	return &TimerFeed{
		changes:     make(chan timer.Snapshot, 1),
		transitions: make(chan timer.Transition, 4),
		done:        make(chan struct{}),
	}
}

// OnChange keeps only the latest snapshot for the UI.
func (f *TimerFeed) OnChange(s timer.Snapshot) {
	for {
		select {
		case f.changes <- s:
			return
		default:
		}
		select {
		case <-f.changes:
		default:
		}
	}
}

func (f *TimerFeed) Notify(t timer.Transition) {
	select {
	case f.transitions <- t:
	default:
	}
}

// Close releases the UI commands waiting on the feed.
func (f *TimerFeed) Close() {
	select {
	case <-f.done:
	default:
		close(f.done)
	}
}

type snapshotMsg timer.Snapshot

type transitionMsg timer.Transition

func (f *TimerFeed) waitSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-f.changes:
			return snapshotMsg(s)
		case <-f.done:
			return nil
		}
	}
}

func (f *TimerFeed) waitTransition() tea.Cmd {
	return func() tea.Msg {
		select {
		case t := <-f.transitions:
			return transitionMsg(t)
		case <-f.done:
			return nil
		}
	}
}

// TimerModel is the interactive focus timer screen.
type TimerModel struct {
	machine  *timer.Machine
	feed     *TimerFeed
	settings timer.Settings
	snap     timer.Snapshot
	notice   string
	progress progress.Model
	help     help.Model
	keys     timerKeys
}

func NewTimerModel(machine *timer.Machine, feed *TimerFeed, settings timer.Settings) TimerModel {
	return TimerModel{
		machine:  machine,
		feed:     feed,
		settings: settings,
		snap:     machine.Snapshot(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		help:     help.New(),
		keys:     defaultTimerKeys,
	}
}

// Notice shows a one-line message under the timer until the next one.
func (m TimerModel) Notice(text string) TimerModel {
	m.notice = text
	return m
}

func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(m.feed.waitSnapshot(), m.feed.waitTransition())
}

func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.machine.Toggle()
		case key.Matches(msg, m.keys.Reset):
			m.machine.Reset()
		case key.Matches(msg, m.keys.Switch):
			m.machine.SwitchMode()
			m.notice = ""
		case key.Matches(msg, m.keys.Focus):
			next := timer.NextPreset(timer.FocusPresets, m.snap.FocusMinutes)
			if err := m.machine.SetFocusMinutes(next); err != nil {
				m.notice = err.Error()
			}
		case key.Matches(msg, m.keys.Break):
			next := timer.NextPreset(timer.BreakPresets, m.snap.BreakMinutes)
			if err := m.machine.SetBreakMinutes(next); err != nil {
				m.notice = err.Error()
			}
		default:
			return m, nil
		}
		m.snap = m.machine.Snapshot()
		return m, nil

	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-8, 10), 60)
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snap = timer.Snapshot(msg)
		return m, m.feed.waitSnapshot()

	case transitionMsg:
		m.notice = transitionNotice(timer.Transition(msg))
		cmds := []tea.Cmd{m.feed.waitTransition()}
		if m.settings.EnableSound {
			cmds = append(cmds, bell)
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m TimerModel) View() string {
	s := m.snap
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("FocusMate") + "  " + modeBadge(s.Mode == timer.ModeFocus) + "\n")
	sb.WriteString(clockStyle.Render(timer.FormatClock(s.TimeLeft)) + "\n")

	elapsed := 0.0
	if d := s.Duration(); d > 0 {
		elapsed = 1 - float64(s.TimeLeft)/float64(d)
	}
	sb.WriteString("  " + m.progress.ViewAs(min(max(elapsed, 0), 1)) + "\n\n")

	state := "paused"
	if s.IsRunning {
		state = "running"
	}
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-16s", label)) + value + "\n")
	}
	row("Status:", state)
	row("Presets:", fmt.Sprintf("focus %dm  break %dm", s.FocusMinutes, s.BreakMinutes))
	row("Sessions today:", fmt.Sprintf("%d", s.SessionsToday))
	row("Focus time:", FormatMinutes(s.TotalFocusTime))
	row("Streak:", fmt.Sprintf("%d", s.CurrentStreak))

	if m.notice != "" {
		sb.WriteString("\n  " + noticeStyle.Render(m.notice) + "\n")
	}
	sb.WriteString("\n  " + m.help.View(m.keys) + "\n")
	return lipgloss.NewStyle().Padding(1, 0).Render(sb.String())
}

func transitionNotice(t timer.Transition) string {
	if t.From == timer.ModeFocus {
		return fmt.Sprintf("Focus session complete (+%dm). Time for a break.", t.FocusMinutes)
	}
	return "Break over. Back to focus."
}

// FormatMinutes renders minutes as "1h 05m" or "45m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

func bell() tea.Msg {
	fmt.Fprint(os.Stderr, "\a")
	return nil
}

// RunTimer blocks until the user quits the timer screen.
func RunTimer(model TimerModel) error {
	defer model.feed.Close()
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
