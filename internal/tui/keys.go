package tui

import "github.com/charmbracelet/bubbles/key"

type timerKeys struct {
	Toggle key.Binding
	Reset  key.Binding
	Switch key.Binding
	Focus  key.Binding
	Break  key.Binding
	Quit   key.Binding
}

func (k timerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Reset, k.Switch, k.Focus, k.Break, k.Quit}
}

func (k timerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultTimerKeys = timerKeys{
	Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/pause")),
	Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Switch: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "switch mode")),
	Focus:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "focus preset")),
	Break:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "break preset")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type roomKeys struct {
	Join  key.Binding
	Break key.Binding
	Stop  key.Binding
	Quit  key.Binding
}

func (k roomKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Join, k.Break, k.Stop, k.Quit}
}

func (k roomKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultRoomKeys = roomKeys{
	Join:  key.NewBinding(key.WithKeys("j", " "), key.WithHelp("j", "join focus")),
	Break: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "take break")),
	Stop:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
