package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"focusmate/internal/presence"
	"focusmate/internal/timer"
)

const feedLines = 8

// roomLink joins a room replica to its channel. It is shared by the UI,
// the tick runner and the transport's receive goroutine.
type roomLink struct {
	state   *presence.RoomState
	ch      presence.Channel
	changed chan struct{}
	done    chan struct{}
	log     *zap.Logger
}

func (l *roomLink) signal() {
	select {
	case l.changed <- struct{}{}:
	default:
	}
}

func (l *roomLink) receive(ev presence.Event) {
	if l.state.Apply(ev) {
		l.signal()
	}
}

func (l *roomLink) publish(events []presence.Event) {
	for _, ev := range events {
		if err := l.ch.Publish(ev); err != nil {
			l.log.Debug("publishing room event", zap.String("type", string(ev.Type())), zap.Error(err))
		}
	}
	l.signal()
}

type roomChangedMsg struct{}

func (l *roomLink) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-l.changed:
			return roomChangedMsg{}
		case <-l.done:
			return nil
		}
	}
}

// RoomModel is the team focus room screen.
type RoomModel struct {
	link        *roomLink
	unsubscribe func()
	view        presence.View
	progress    progress.Model
	help        help.Model
	keys        roomKeys
	notice      string
}

// NewRoomModel subscribes to ch; Close releases the subscription.
func NewRoomModel(state *presence.RoomState, ch presence.Channel, log *zap.Logger) RoomModel {
	link := &roomLink{
		state:   state,
		ch:      ch,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
		log:     log,
	}
	return RoomModel{
		link:        link,
		unsubscribe: ch.Subscribe(link.receive),
		view:        state.View(),
		progress:    progress.New(progress.WithSolidFill("205"), progress.WithWidth(20)),
		help:        help.New(),
		keys:        defaultRoomKeys,
	}
}

// Notice shows a one-line message under the room header.
func (m RoomModel) Notice(text string) RoomModel {
	m.notice = text
	return m
}

// Tick advances the shared timer one second and broadcasts it. The tick
// runner calls it.
func (m RoomModel) Tick() {
	if tick, ok := m.link.state.Tick(); ok {
		m.link.publish([]presence.Event{tick})
	}
}

func (m RoomModel) Close() {
	m.unsubscribe()
	select {
	case <-m.link.done:
	default:
		close(m.link.done)
	}
}

func (m RoomModel) Init() tea.Cmd {
	return m.link.wait()
}

func (m RoomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		state := m.link.state
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Join):
			m.link.publish(state.JoinFocus())
		case key.Matches(msg, m.keys.Break):
			m.link.publish(state.TakeBreak())
		case key.Matches(msg, m.keys.Stop):
			m.link.publish(state.StopSession())
		default:
			return m, nil
		}
		m.view = state.View()
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case roomChangedMsg:
		m.view = m.link.state.View()
		return m, m.link.wait()
	}
	return m, nil
}

func (m RoomModel) View() string {
	v := m.view
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Team room "+v.Room.Code) + "  " + modeBadge(v.Timer.Mode == presence.ModeFocus) + "\n")
	if m.notice != "" {
		sb.WriteString("  " + noticeStyle.Render(m.notice) + "\n")
	}

	state := "stopped"
	if v.Timer.IsRunning {
		state = "running"
	}
	sb.WriteString(clockStyle.Render(timer.FormatClock(v.Timer.TimeLeft)) + dimStyle.Render(state) + "\n")

	stats := fmt.Sprintf("%d members  %d focusing  %d on break", v.Room.ActiveMembers, v.Room.FocusingNow, v.Room.OnBreak)
	if v.Room.TeamEnergy > 0 {
		stats += fmt.Sprintf("  energy %d%%", v.Room.TeamEnergy)
	}
	sb.WriteString("  " + dimStyle.Render(stats) + "\n\n")

	members := []string{sectionHeader.Render("Members")}
	for _, mem := range v.Members {
		members = append(members, m.memberLine(mem, mem.ID == v.SelfID))
	}

	feed := []string{sectionHeader.Render("Activity")}
	if len(v.Activities) == 0 {
		feed = append(feed, dimStyle.Render("(quiet so far)"))
	}
	for i, a := range v.Activities {
		if i == feedLines {
			break
		}
		feed = append(feed, fmt.Sprintf("%s %s %s", labelStyle.Render(a.User), a.Action, dimStyle.Render(a.Timestamp)))
	}

	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(strings.Join(members, "\n")),
		" ",
		panelStyle.Render(strings.Join(feed, "\n")),
	))
	sb.WriteString("\n\n  " + m.help.View(m.keys) + "\n")
	return sb.String()
}

func (m RoomModel) memberLine(mem presence.Member, self bool) string {
	name := mem.Name
	if self {
		name += " (you)"
	}
	var status string
	switch mem.Status {
	case presence.StatusFocusing:
		status = focusingStyle.Render("focusing")
	case presence.StatusBreak:
		status = onBreakStyle.Render("on break")
	default:
		status = idleStyle.Render("idle")
	}
	line := fmt.Sprintf("%-18s %s", name, status)
	if mem.Status == presence.StatusFocusing {
		line += " " + m.progress.ViewAs(float64(min(max(mem.Progress, 0), 100))/100)
	}
	if mem.TimeLeft != "" {
		line += " " + dimStyle.Render(mem.TimeLeft)
	}
	return line
}

// RunRoom blocks until the user leaves the room screen.
func RunRoom(model RoomModel) error {
	defer model.Close()
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
