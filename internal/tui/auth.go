package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"cloudstocks/internal/views"
)

func (m *Model) formKey(msg tea.KeyMsg) tea.Cmd {
	if !m.editing() {
		switch msg.String() {
		case "tab", "enter", "e":
			return m.emailInput.Focus()
		}
		return nil
	}

	switch msg.String() {
	case "esc":
		m.blurAll()
		return nil
	case "tab", "shift+tab", "up", "down":
		if m.emailInput.Focused() {
			m.emailInput.Blur()
			return m.passInput.Focus()
		}
		m.passInput.Blur()
		return m.emailInput.Focus()
	case "enter":
		if m.emailInput.Focused() {
			m.emailInput.Blur()
			return m.passInput.Focus()
		}
		return m.submitForm()
	}

	var cmd tea.Cmd
	if m.emailInput.Focused() {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passInput, cmd = m.passInput.Update(msg)
	}
	return cmd
}

// submitForm sends the credentials of whichever form is mounted.
func (m *Model) submitForm() tea.Cmd {
	email := strings.TrimSpace(m.emailInput.Value())
	password := m.passInput.Value()
	if email == "" || password == "" {
		m.status = "Email and password are required"
		return nil
	}
	m.status = "Submitting..."

	if l := m.login; l != nil {
		return func() tea.Msg {
			res, err := l.Request(context.Background(), email, password)
			return authMsg{ctrl: l, email: email, res: res, err: err}
		}
	}
	r := m.register
	return func() tea.Msg {
		res, err := r.Request(context.Background(), email, password)
		return authMsg{ctrl: r, email: email, res: res, err: err}
	}
}

func (m *Model) applyAuth(msg authMsg) tea.Cmd {
	var to string
	switch c := msg.ctrl.(type) {
	case *views.Login:
		if c != m.login {
			return nil
		}
		to = c.Apply(msg.email, msg.res, msg.err)
	case *views.Register:
		if c != m.register {
			return nil
		}
		to = c.Apply(msg.email, msg.res, msg.err)
	default:
		return nil
	}

	switch {
	case msg.err != nil:
		m.status = ""
	case to == "":
		m.status = ""
		m.passInput.SetValue("")
		return m.passInput.Focus()
	default:
		m.blurAll()
	}
	return nil
}

func (m Model) renderForm(title string, hidden bool, formErr string) string {
	var b strings.Builder
	b.WriteString("\n ")
	b.WriteString(symbolStyle.Render(strings.TrimSuffix(title, " - CloudStocks")))
	b.WriteString("\n\n")

	if hidden {
		b.WriteString(dimStyle.Render("  You are already logged in."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(" " + m.emailInput.View() + "\n")
	b.WriteString(" " + m.passInput.View() + "\n\n")
	if formErr != "" {
		b.WriteString(" " + errorStyle.Render(formErr) + "\n")
	}
	if !m.editing() {
		b.WriteString(dimStyle.Render("  press enter to edit"))
		b.WriteString("\n")
	}
	return b.String()
}
