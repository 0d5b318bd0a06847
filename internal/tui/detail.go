package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"cloudstocks/internal/store"
	"cloudstocks/internal/views"
)

// History column widths.
const (
	colDate   = 12
	colPrice  = 10
	colVolume = 14

	chartHeight = 10
)

func (m *Model) fetchHistory(d *views.Detail, t views.HistoryTicket) tea.Cmd {
	return func() tea.Msg {
		recs, err := d.Fetch(context.Background(), t)
		return historyMsg{ctrl: d, t: t, recs: recs, err: err}
	}
}

func (m *Model) fetchHeader(d *views.Detail) tea.Cmd {
	return func() tea.Msg {
		det, err := d.FetchHeader(context.Background())
		return headerMsg{ctrl: d, det: det, err: err}
	}
}

func (m *Model) detailKey(msg tea.KeyMsg) tea.Cmd {
	d := m.detail

	if m.fromInput.Focused() || m.toInput.Focused() {
		switch msg.String() {
		case "esc":
			r := d.Range()
			m.fromInput.SetValue(r.From)
			m.toInput.SetValue(r.To)
			m.fromInput.Blur()
			m.toInput.Blur()
			return nil
		case "tab":
			if m.fromInput.Focused() {
				m.fromInput.Blur()
				return m.toInput.Focus()
			}
			m.toInput.Blur()
			return m.fromInput.Focus()
		case "enter":
			t, err := d.SetRange(strings.TrimSpace(m.fromInput.Value()), strings.TrimSpace(m.toInput.Value()))
			if err != nil {
				m.status = err.Error()
				return nil
			}
			m.status = ""
			m.fromInput.Blur()
			m.toInput.Blur()
			return m.fetchHistory(d, t)
		}
		var cmd tea.Cmd
		if m.fromInput.Focused() {
			m.fromInput, cmd = m.fromInput.Update(msg)
		} else {
			m.toInput, cmd = m.toInput.Update(msg)
		}
		return cmd
	}

	switch msg.String() {
	case "f":
		if d.Authenticated() {
			return m.fromInput.Focus()
		}
	case "t":
		if d.Authenticated() {
			return m.toInput.Focus()
		}
	case "x":
		return m.exportCmd()
	}
	return nil
}

// exportCmd writes the displayed history to a Parquet file in the export
// directory.
func (m *Model) exportCmd() tea.Cmd {
	d := m.detail
	recs := d.Records()
	if len(recs) == 0 {
		m.status = "Nothing to export"
		return nil
	}
	var from, to string
	if d.Authenticated() {
		r := d.Range()
		from, to = r.From, r.To
	}
	path := filepath.Join(m.deps.ExportDir, store.ExportName(d.Symbol(), from, to))
	sym := d.Symbol()
	return func() tea.Msg {
		err := store.ExportFile(path, sym, recs)
		return exportMsg{path: path, rows: len(recs), err: err}
	}
}

func (m Model) renderDetail() string {
	d := m.detail
	h := d.Header()
	var b strings.Builder

	b.WriteString("\n ")
	b.WriteString(symbolStyle.Render(h.Name))
	b.WriteString(dimStyle.Render("  " + d.Symbol() + "  " + h.Industry))
	b.WriteString("\n\n")

	if d.Authenticated() {
		b.WriteString(" " + m.fromInput.View() + "   " + m.toInput.View())
		b.WriteString("\n\n")
	} else {
		b.WriteString(" " + proStyle.Render(" "+views.ProBadge+" "))
		b.WriteString("\n\n")
	}

	switch d.State() {
	case views.StateIdle, views.StateFetching:
		if len(d.Rows()) == 0 && d.Message() == "" {
			b.WriteString(dimStyle.Render("  Loading..."))
			b.WriteString("\n")
			return b.String()
		}
	}

	if msg := d.Message(); msg != "" {
		b.WriteString(" " + errorStyle.Render(msg) + "\n")
	}

	if d.ShowChart() {
		b.WriteString(m.renderChart(d.Points()))
		b.WriteString("\n\n")
	}

	if d.ShowTable() {
		b.WriteString(colHeadStyle.Render(fmt.Sprintf(" %s%s%s%s%s%s",
			padOrTrunc("Date", colDate),
			padLeft("Open", colPrice), padLeft("High", colPrice),
			padLeft("Low", colPrice), padLeft("Close", colPrice),
			padLeft("Volume", colVolume))))
		b.WriteString("\n")
		for _, r := range d.Rows() {
			st := gainStyle
			if r.Close < r.Open {
				st = lossStyle
			}
			b.WriteString(" " + padOrTrunc(r.Date, colDate))
			b.WriteString(padLeft(views.FormatPrice(r.Open), colPrice))
			b.WriteString(padLeft(views.FormatPrice(r.High), colPrice))
			b.WriteString(padLeft(views.FormatPrice(r.Low), colPrice))
			b.WriteString(st.Render(padLeft(views.FormatPrice(r.Close), colPrice)))
			b.WriteString(dimStyle.Render(padLeft(views.FormatVolume(r.Volume), colVolume)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderChart plots closing prices oldest to newest.
func (m Model) renderChart(points []views.ChartPoint) string {
	ys, oldest, newest := views.ChartSeries(points)
	w := m.width - 12
	if w < 20 {
		w = 20
	}
	caption := fmt.Sprintf("Closing price %s to %s", views.FormatDate(oldest), views.FormatDate(newest))
	return asciigraph.Plot(ys,
		asciigraph.Height(chartHeight),
		asciigraph.Width(w),
		asciigraph.Offset(3),
		asciigraph.Caption(caption),
	)
}
