package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"cloudstocks/internal/views"
	"cloudstocks/pkg/cloudstocks"
)

// Listing column widths.
const (
	colName     = 32
	colSymbol   = 8
	colIndustry = 28
)

func (m *Model) fetchListing(t views.ListingTicket) tea.Cmd {
	l := m.listing
	return func() tea.Msg {
		rows, err := l.Fetch(context.Background(), t)
		return listingMsg{ctrl: l, t: t, rows: rows, err: err}
	}
}

// industryLabel is the label of the industry selector at idx.
func industryLabel(idx int) string {
	if idx == 0 {
		return "All industries"
	}
	return cloudstocks.Industries[idx-1]
}

func industryValue(idx int) string {
	if idx == 0 {
		return ""
	}
	return cloudstocks.Industries[idx-1]
}

func (m *Model) listingKey(msg tea.KeyMsg) tea.Cmd {
	if m.nameInput.Focused() {
		switch msg.String() {
		case "enter", "esc", "tab":
			m.nameInput.Blur()
			return nil
		}
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		m.listing.SetName(m.nameInput.Value())
		m.cursor = 0
		return cmd
	}

	switch msg.String() {
	case "/":
		return m.nameInput.Focus()
	case "i":
		m.industryIdx = (m.industryIdx + 1) % (len(cloudstocks.Industries) + 1)
		m.cursor = 0
		return m.fetchListing(m.listing.SetIndustry(industryValue(m.industryIdx)))
	case "I":
		n := len(cloudstocks.Industries) + 1
		m.industryIdx = (m.industryIdx + n - 1) % n
		m.cursor = 0
		return m.fetchListing(m.listing.SetIndustry(industryValue(m.industryIdx)))
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.ensureVisible(m.cursor + listingHeaderLines)
	case "down", "j":
		if m.cursor < len(m.listing.Visible())-1 {
			m.cursor++
		}
		m.ensureVisible(m.cursor + listingHeaderLines)
	case "enter":
		vis := m.listing.Visible()
		if m.cursor < len(vis) {
			m.deps.Nav.Push(m.listing.Select(vis[m.cursor].Symbol))
		}
	}
	return nil
}

func (m *Model) clampCursor() {
	if m.listing == nil {
		return
	}
	if n := len(m.listing.Visible()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// ensureVisible scrolls the viewport so line is on screen.
func (m *Model) ensureVisible(line int) {
	if !m.ready {
		return
	}
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case line >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

// listingHeaderLines is the number of body lines above the first row.
const listingHeaderLines = 5

func (m Model) renderListing() string {
	l := m.listing
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(labelStyle.Render(" Industry: ") + industryLabel(m.industryIdx) + dimStyle.Render("  (i/I to change)"))
	b.WriteString("\n ")
	if m.nameInput.Focused() || m.nameInput.Value() != "" {
		b.WriteString(m.nameInput.View())
	} else {
		b.WriteString(dimStyle.Render("name: (press / to filter)"))
	}
	b.WriteString("\n\n")

	if !l.ShowTable() {
		b.WriteString(" " + errorStyle.Render(l.Message()) + "\n")
		return b.String()
	}

	b.WriteString(colHeadStyle.Render(fmt.Sprintf(" %s %s %s",
		padOrTrunc("Name", colName), padOrTrunc("Symbol", colSymbol), padOrTrunc("Industry", colIndustry))))
	b.WriteString("\n")

	for i, s := range l.Visible() {
		hl := i == m.cursor
		marker := " "
		if hl {
			marker = ">"
		}
		b.WriteString(hlStyle(labelStyle, hl).Render(marker))
		b.WriteString(hlStyle(plainStyle, hl).Render(padOrTrunc(s.Name, colName) + " "))
		b.WriteString(hlStyle(symbolStyle, hl).Render(padOrTrunc(s.Symbol, colSymbol)))
		b.WriteString(hlStyle(dimStyle, hl).Render(" " + padOrTrunc(s.Industry, colIndustry)))
		b.WriteString("\n")
	}
	return b.String()
}
