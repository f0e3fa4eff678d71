package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Search   key.Binding
	NextCat  key.Binding
	PrevCat  key.Binding
	More     key.Binding
	Open     key.Binding
	Copy     key.Binding
	Speak    key.Binding
	Back     key.Binding
	Quit     key.Binding
	ForceEnd key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		NextCat:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next category")),
		PrevCat:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev category")),
		More:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Speak:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "read aloud")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceEnd: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// listHelp is the key help shown under the card list.
func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Search, k.NextCat, k.More, k.Open, k.Quit}
}

// modalHelp is the key help shown under an open record.
func (k keyMap) modalHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Copy, k.Speak, k.Back, k.Quit}
}
