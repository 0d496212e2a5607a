package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parkingmate/parkmate/pkg/client"
	"github.com/parkingmate/parkmate/pkg/domain"
)

type spacesLoadedMsg struct {
	address string
	spaces  []domain.ParkingSpace
	err     error
}

// spacesModel is the home page: every published space, optionally
// filtered by an address search.
type spacesModel struct {
	api       Backend
	spaces    []domain.ParkingSpace
	cursor    int
	searching bool   // true when typing in search
	query     string // text being typed
	address   string // filter last applied
	loading   bool
	err       string
	width     int
	height    int
}

func newSpacesModel(api Backend) spacesModel {
	return spacesModel{api: api, loading: true}
}

func (m spacesModel) Init() tea.Cmd {
	return m.load()
}

func (m spacesModel) load() tea.Cmd {
	api := m.api
	address := m.address
	return func() tea.Msg {
		spaces, err := api.ListSpaces(context.Background(), address)
		return spacesLoadedMsg{address: address, spaces: spaces, err: err}
	}
}

func (m spacesModel) Update(msg tea.Msg) (spacesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spacesLoadedMsg:
		if msg.address != m.address {
			// A newer search is in flight.
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = client.Describe(msg.err)
			return m, nil
		}
		m.err = ""
		m.spaces = msg.spaces
		if m.cursor >= len(m.spaces) {
			m.cursor = 0
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m spacesModel) updateSearch(msg tea.KeyMsg) (spacesModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.address = strings.TrimSpace(m.query)
		m.cursor = 0
		m.loading = true
		return m, m.load()
	case "esc":
		m.searching = false
		m.query = m.address
		return m, nil
	default:
		m.query = editRune(m.query, msg.String())
	}
	return m, nil
}

func (m spacesModel) updateList(msg tea.KeyMsg) (spacesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.spaces)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Search):
		m.searching = true
		m.query = m.address
	case key.Matches(msg, keys.Back):
		if m.address != "" {
			m.address = ""
			m.query = ""
			m.loading = true
			return m, m.load()
		}
	case key.Matches(msg, keys.Refresh):
		m.loading = true
		return m, m.load()
	case key.Matches(msg, keys.Open):
		if m.cursor < len(m.spaces) {
			id := m.spaces[m.cursor].ID
			return m, func() tea.Msg { return openSpaceMsg{id: id} }
		}
	}
	return m, nil
}

func (m spacesModel) helpKeys() string {
	if m.searching {
		return " " + helpEntry("enter", "search") + "  " + helpEntry("esc", "cancel")
	}
	return helpBar(keys.Up, keys.Down, keys.Open, keys.Search, keys.Refresh, keys.Help, keys.Quit)
}

func (m spacesModel) View() string {
	var b strings.Builder

	switch {
	case m.searching:
		b.WriteString(" " + searchStyle.Render("/") + " " + m.query + accentStyle.Render("█") + "\n")
	case m.address != "":
		b.WriteString(" " + dimStyle.Render("address contains ") + searchStyle.Render(m.address) +
			"  " + metaStyle.Render("(esc to clear)") + "\n")
	default:
		b.WriteString(" " + inputPlaceholder("/ search by address") + "\n")
	}

	sepW := m.width - 2
	if sepW < 4 {
		sepW = 4
	}
	b.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")

	if m.loading && len(m.spaces) == 0 {
		b.WriteString(" " + dimStyle.Render("loading spaces..."))
		return b.String()
	}
	if m.err != "" {
		b.WriteString(" " + errorStyle.Render("error: "+m.err))
		return b.String()
	}
	if len(m.spaces) == 0 {
		b.WriteString(" " + dimStyle.Render("no parking spaces yet"))
		return b.String()
	}

	// Two lines per space.
	maxVisible := (m.height - 2) / 2
	if maxVisible < 3 {
		maxVisible = 10
	}
	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	end := start + maxVisible
	if end > len(m.spaces) {
		end = len(m.spaces)
	}

	addrWidth := m.width - 24
	if addrWidth < 20 {
		addrWidth = 20
	}
	for i := start; i < end; i++ {
		s := m.spaces[i]
		cursor := "  "
		style := normalStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			style = selectedStyle
		}
		price := priceStyle.Render(domain.FormatWon(s.PricePerHour) + "/h")
		fmt.Fprintf(&b, " %s%s  %s\n", cursor, style.Render(truncStr(s.Address, addrWidth)), price)

		meta := truncStr(strings.TrimSpace(s.Description), addrWidth)
		if s.OwnerName != "" {
			if meta != "" {
				meta += " · "
			}
			meta += "owner " + s.OwnerName
		}
		fmt.Fprintf(&b, "   %s\n", dimStyle.Render(meta))
	}
	return b.String()
}

func inputPlaceholder(s string) string {
	return metaStyle.Italic(true).Render(s)
}
