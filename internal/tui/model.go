// Package tui renders the CloudStocks screens in the terminal with
// bubbletea. All state lives in the views controllers; this package maps
// keys onto controller calls, runs fetches as commands, and draws.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"cloudstocks/internal/nav"
	"cloudstocks/internal/session"
	"cloudstocks/internal/views"
	"cloudstocks/pkg/cloudstocks"
)

// API is everything the screens need from the CloudStocks client.
type API interface {
	views.StockAPI
	views.AuthAPI
}

// Deps are the shared objects the screens are built from.
type Deps struct {
	API       API
	Session   *session.Session
	Nav       *nav.Navigator
	Refetch   *nav.RefetchSignal
	Defaults  cloudstocks.SearchParam
	ExportDir string
	Logger    *slog.Logger
}

// Messages.
type tickMsg time.Time

type listingMsg struct {
	ctrl *views.Listing
	t    views.ListingTicket
	rows []cloudstocks.StockSummary
	err  error
}

type historyMsg struct {
	ctrl *views.Detail
	t    views.HistoryTicket
	recs []cloudstocks.HistoryRecord
	err  error
}

type headerMsg struct {
	ctrl *views.Detail
	det  *cloudstocks.StockDetail
	err  error
}

type authMsg struct {
	ctrl  any // *views.Login or *views.Register
	email string
	res   *cloudstocks.AuthResult
	err   error
}

type exportMsg struct {
	path string
	rows int
	err  error
}

const tickInterval = time.Second

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the root bubbletea model. It owns whichever screen the current
// location resolves to and swaps it when the location changes.
type Model struct {
	deps  Deps
	shell *nav.Shell
	log   *slog.Logger

	// Routing.
	loc   string
	route nav.Route

	// Mounted screen; only the one matching route is non-nil.
	listing  *views.Listing
	detail   *views.Detail
	login    *views.Login
	register *views.Register

	// Listing.
	cursor      int
	industryIdx int // 0 = all, otherwise Industries[industryIdx-1]
	nameInput   textinput.Model

	// Detail.
	fromInput textinput.Model
	toInput   textinput.Model

	// Login / register.
	emailInput textinput.Model
	passInput  textinput.Model

	status   string
	pending  []tea.Cmd
	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

// New builds the root model and mounts the screen for the navigator's
// current location.
func New(deps Deps) Model {
	m := Model{
		deps:       deps,
		shell:      nav.NewShell(deps.Session, deps.Nav, deps.Refetch, deps.Logger),
		log:        deps.Logger,
		nameInput:  newInput("name: ", "filter by name"),
		fromInput:  newInput("from: ", "YYYY-MM-DD"),
		toInput:    newInput("to: ", "YYYY-MM-DD"),
		emailInput: newInput("email:    ", "you@example.com"),
		passInput:  newInput("password: ", ""),
	}
	m.passInput.EchoMode = textinput.EchoPassword
	m.passInput.EchoCharacter = '*'
	m.pending = m.sync()
	return m
}

func newInput(prompt, placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = placeholder
	ti.CharLimit = 64
	return ti
}

// Init starts the tick loop and the first screen's fetches.
func (m Model) Init() tea.Cmd {
	cmds := append([]tea.Cmd{tickCmd()}, m.pending...)
	return tea.Batch(cmds...)
}

// Route returns the resolved route of the mounted screen.
func (m Model) Route() nav.Route { return m.route }

// sync mounts the screen for the navigator's location when it has changed
// and returns the commands the new screen needs.
func (m *Model) sync() []tea.Cmd {
	var cmds []tea.Cmd
	// Mounting can navigate again (unknown routes, authenticated login).
	for i := 0; i < 4; i++ {
		cur := m.deps.Nav.Current()
		if cur.String() == m.loc {
			return cmds
		}
		m.loc = cur.String()
		m.route = nav.Resolve(cur.Path)
		m.log.Debug("route", "location", m.loc, "view", m.route.View.String())
		cmds = append(cmds, m.mount()...)
	}
	return cmds
}

func (m *Model) mount() []tea.Cmd {
	m.listing, m.detail, m.login, m.register = nil, nil, nil, nil
	m.status = ""
	m.blurAll()
	if m.ready {
		m.viewport.GotoTop()
	}

	switch m.route.View {
	case nav.ViewListing:
		m.listing = views.NewListing(m.deps.API, m.log)
		m.cursor = 0
		m.industryIdx = 0
		m.nameInput.SetValue("")
		return []tea.Cmd{tea.SetWindowTitle(views.ListingTitle), m.fetchListing(m.listing.Mount())}

	case nav.ViewDetail:
		d := views.NewDetail(m.route.Symbol, m.deps.API, m.deps.Session, m.deps.Refetch, m.deps.Defaults, m.log)
		m.detail = d
		r := d.Range()
		m.fromInput.SetValue(r.From)
		m.toInput.SetValue(r.To)
		return []tea.Cmd{tea.SetWindowTitle(d.Title()), m.fetchHeader(d), m.fetchHistory(d, d.Mount())}

	case nav.ViewLogin:
		m.login = views.NewLogin(m.deps.API, m.deps.Session, m.deps.Nav, m.log)
		m.resetForm()
		if m.login.Mount() {
			return nil
		}
		return []tea.Cmd{tea.SetWindowTitle(views.LoginTitle), m.emailInput.Focus()}

	case nav.ViewRegister:
		m.register = views.NewRegister(m.deps.API, m.deps.Session, m.deps.Nav, m.log)
		m.resetForm()
		if m.register.Mount() {
			return nil
		}
		return []tea.Cmd{tea.SetWindowTitle(views.RegisterTitle), m.emailInput.Focus()}

	default:
		m.log.Info("unknown route, redirecting", "location", m.loc)
		m.deps.Nav.Replace("/")
		return nil
	}
}

func (m *Model) resetForm() {
	m.emailInput.SetValue("")
	m.passInput.SetValue("")
}

func (m *Model) blurAll() {
	m.nameInput.Blur()
	m.fromInput.Blur()
	m.toInput.Blur()
	m.emailInput.Blur()
	m.passInput.Blur()
}

// editing reports whether a text input has focus, in which case printable
// keys go to the input rather than to shortcuts.
func (m *Model) editing() bool {
	return m.nameInput.Focused() || m.fromInput.Focused() || m.toInput.Focused() ||
		m.emailInput.Focused() || m.passInput.Focused()
}

// Update handles keys, window resizes and fetch results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if cmd, quit := m.handleKey(msg); quit {
			return m, tea.Quit
		} else if cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 2 // header + footer
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

	case tickMsg:
		cmds = append(cmds, m.pollRefetch(), tickCmd())

	case listingMsg:
		// Transport failures are logged by the controller; the screen keeps
		// what it was showing.
		if msg.ctrl == m.listing {
			msg.ctrl.Apply(msg.t, msg.rows, msg.err)
			m.clampCursor()
		}

	case historyMsg:
		if msg.ctrl == m.detail {
			msg.ctrl.Apply(msg.t, msg.recs, msg.err)
		}

	case headerMsg:
		if msg.ctrl == m.detail {
			msg.ctrl.ApplyHeader(msg.det, msg.err)
			cmds = append(cmds, tea.SetWindowTitle(msg.ctrl.Title()))
		}

	case authMsg:
		cmds = append(cmds, m.applyAuth(msg))

	case exportMsg:
		if msg.err != nil {
			m.log.Error("exporting history", "path", msg.path, "error", msg.err)
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.log.Info("exported history", "path", msg.path, "rows", msg.rows)
			m.status = fmt.Sprintf("Exported %d rows to %s", msg.rows, msg.path)
		}
	}

	cmds = append(cmds, m.sync()...)

	if m.ready {
		var cmd tea.Cmd
		m.viewport.SetContent(m.renderBody())
		if _, isKey := msg.(tea.KeyMsg); !isKey {
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// handleKey dispatches a key press. It reports true when the program
// should exit.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if !m.editing() {
		switch msg.String() {
		case "q":
			return nil, true
		case "l":
			if !m.deps.Session.IsAuthenticated() && m.login == nil {
				m.shell.GoLogin()
			}
			return nil, false
		case "r":
			if !m.deps.Session.IsAuthenticated() && m.register == nil {
				m.shell.GoRegister()
			}
			return nil, false
		case "o":
			if m.deps.Session.IsAuthenticated() {
				if err := m.shell.Logout(); err != nil {
					m.status = "Logout incomplete: " + err.Error()
				}
				return m.pollRefetch(), false
			}
			return nil, false
		case "esc", "backspace":
			m.deps.Nav.Back()
			return nil, false
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd, false
		}
	}

	switch {
	case m.listing != nil:
		return m.listingKey(msg), false
	case m.detail != nil:
		return m.detailKey(msg), false
	case m.login != nil, m.register != nil:
		return m.formKey(msg), false
	}
	return nil, false
}

// pollRefetch starts a refetch on the detail screen when the signal is up.
func (m *Model) pollRefetch() tea.Cmd {
	if m.detail == nil {
		return nil
	}
	t, ok := m.detail.PollRefetch()
	if !ok {
		return nil
	}
	m.log.Debug("refetching after session change", "symbol", t.Symbol)
	return m.fetchHistory(m.detail, t)
}

// View draws the navigation bar, the mounted screen, and the key help.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.headerBar() + "\n" + m.viewport.View() + "\n" + m.footerBar()
}

func (m Model) title() string {
	switch {
	case m.listing != nil:
		return views.ListingTitle
	case m.detail != nil:
		return m.detail.Title()
	case m.login != nil:
		return views.LoginTitle
	case m.register != nil:
		return views.RegisterTitle
	}
	return "CloudStocks"
}

func (m Model) headerBar() string {
	bar := m.shell.Bar()
	right := bar.Welcome
	for _, a := range bar.Actions {
		right += "  [" + actionKey(a) + "] " + a.String()
	}
	left := " " + m.title()
	gap := m.width - len([]rune(left)) - len([]rune(right)) - 1
	if gap < 1 {
		gap = 1
	}
	return titleStyle.Render(padOrTrunc(left+strings.Repeat(" ", gap)+right+" ", m.width))
}

func actionKey(a nav.Action) string {
	switch a {
	case nav.ActionLogin:
		return "l"
	case nav.ActionRegister:
		return "r"
	default:
		return "o"
	}
}

func (m Model) footerBar() string {
	var help string
	switch {
	case m.editing():
		help = " enter apply  tab next field  esc cancel"
	case m.listing != nil:
		help = " q quit  up/dn select  enter open  i industry  / name"
	case m.detail != nil:
		help = " q quit  esc back  x export"
		if m.detail.Authenticated() {
			help += "  f from  t to"
		}
	default:
		help = " q quit  esc back"
	}
	left := help
	if m.status != "" {
		left += "    " + m.status
	}
	right := fmt.Sprintf("%.0f%% ", m.viewport.ScrollPercent()*100)
	gap := m.width - len([]rune(left)) - len(right)
	if gap < 0 {
		gap = 0
	}
	return footerStyle.Render(padOrTrunc(left+strings.Repeat(" ", gap)+right, m.width))
}

func (m Model) renderBody() string {
	switch {
	case m.listing != nil:
		return m.renderListing()
	case m.detail != nil:
		return m.renderDetail()
	case m.login != nil:
		return m.renderForm(views.LoginTitle, m.login.Hidden(), m.login.FormError())
	case m.register != nil:
		return m.renderForm(views.RegisterTitle, m.register.Hidden(), m.register.FormError())
	}
	return ""
}
