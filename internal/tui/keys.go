package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev        key.Binding
	Next        key.Binding
	Left        key.Binding
	Right       key.Binding
	Up          key.Binding
	Down        key.Binding
	CarouselL   key.Binding
	CarouselR   key.Binding
	WeekPrev    key.Binding
	WeekNext    key.Binding
	Granularity key.Binding
	Layout      key.Binding
	Today       key.Binding
	Refresh     key.Binding
	Command     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev: key.NewBinding(
			key.WithKeys("h", "pgup"),
			key.WithHelp("h", "prev period"),
		),
		Next: key.NewBinding(
			key.WithKeys("l", "pgdown"),
			key.WithHelp("l", "next period"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "prev day"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next day"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "prev week"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "next week"),
		),
		CarouselL: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "scroll back"),
		),
		CarouselR: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "scroll on"),
		),
		WeekPrev: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev week row"),
		),
		WeekNext: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next week row"),
		),
		Granularity: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "month/week/2wk"),
		),
		Layout: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle layout"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Command: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "command"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Granularity, k.Layout, k.Today, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Left, k.Right, k.Up, k.Down},
		{k.CarouselL, k.CarouselR, k.WeekPrev, k.WeekNext},
		{k.Granularity, k.Layout, k.Today, k.Refresh},
		{k.Command, k.Help, k.Quit},
	}
}
