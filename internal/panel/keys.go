package panel

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	LoadMore key.Binding
	Delete   key.Binding
	Open     key.Binding
	Copy     key.Binding
	Login    key.Binding
	Register key.Binding
	Privacy  key.Binding
	Terms    key.Binding
	Logout   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		LoadMore: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Open:     key.NewBinding(key.WithKeys("enter", "o"), key.WithHelp("enter", "open page")),
		Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Login:    key.NewBinding(key.WithKeys("l", "enter"), key.WithHelp("l", "get started")),
		Register: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "register")),
		Privacy:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "privacy policy")),
		Terms:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "terms")),
		Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "sign out")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// bindings shown on the welcome screen
type welcomeKeys struct{ keyMap }

func (k welcomeKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Login, k.Register, k.Quit}
}

func (k welcomeKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Login, k.Register}, {k.Privacy, k.Terms}, {k.Help, k.Quit}}
}

// bindings shown over the word list
type listKeys struct{ keyMap }

func (k listKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Copy, k.Delete, k.LoadMore, k.Help}
}

func (k listKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Open, k.Copy, k.Delete},
		{k.LoadMore, k.Logout},
		{k.Help, k.Quit},
	}
}
