package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type entryKind int

const (
	entrySent entryKind = iota
	entryReply
	entryError
	entryIgnored
)

type entry struct {
	kind    entryKind
	content string
}

type dispatchResultMsg struct {
	replies []string
	err     error
}

type model struct {
	ctx      context.Context
	dispatch DispatchFunc
	info     Info

	theme     theme
	spinner   spinner.Model
	input     textinput.Model
	viewport  viewport.Model
	entries   []entry
	width     int
	height    int
	isReady   bool
	isLoading bool
	lastErr   string
	followLog bool
	sent      int
	replied   int
}

func newModel(ctx context.Context, dispatch DispatchFunc, info Info) *model {
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("222"))

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = "Type a message, e.g. " + info.Prefix + "help"
	in.Focus()
	in.CharLimit = 0

	return &model{
		ctx:       ctx,
		dispatch:  dispatch,
		info:      info,
		theme:     defaultTheme(),
		spinner:   spin,
		input:     in,
		viewport:  viewport.New(80, 12),
		width:     100,
		height:    28,
		followLog: true,
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeComponents()
		m.refreshViewport(false)
		m.isReady = true
		return m, nil
	case tea.MouseMsg:
		m.handleViewportMouse(typed)
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}

		if m.handleViewportKey(typed) {
			return m, nil
		}

		if typed.String() == "enter" {
			return m, m.submit()
		}
	case spinner.TickMsg:
		if !m.isLoading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case dispatchResultMsg:
		m.applyResult(typed)
		return m, nil
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the typed line; it is a no-op while a dispatch is in flight.
func (m *model) submit() tea.Cmd {
	if m.isLoading {
		return nil
	}

	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	if IsExitCommand(text) {
		return tea.Quit
	}

	m.lastErr = ""
	m.entries = append(m.entries, entry{kind: entrySent, content: text})
	m.sent++
	m.input.SetValue("")
	m.isLoading = true
	m.followLog = true
	m.refreshViewport(true)

	return tea.Batch(m.spinner.Tick, dispatchCmd(m.ctx, m.dispatch, text))
}

func (m *model) applyResult(result dispatchResultMsg) {
	m.isLoading = false

	switch {
	case result.err != nil:
		m.lastErr = result.err.Error()
		m.entries = append(m.entries, entry{kind: entryError, content: result.err.Error()})
	case len(result.replies) == 0:
		m.lastErr = ""
		m.entries = append(m.entries, entry{kind: entryIgnored, content: "no reply"})
	default:
		m.lastErr = ""
		for _, reply := range result.replies {
			m.entries = append(m.entries, entry{kind: entryReply, content: reply})
		}
		m.replied += len(result.replies)
	}

	m.refreshViewport(false)
}

func (m *model) View() string {
	if !m.isReady {
		m.resizeComponents()
		m.refreshViewport(false)
	}

	header := m.theme.header.Width(m.width - 2).Render("vkcommands console")
	meta := m.theme.headerMeta.Render(fmt.Sprintf(
		"peer:%d · user:%d · prefix:%s · commands:%d · sent/replies:%d/%d",
		m.info.PeerID,
		m.info.UserID,
		displayOrNA(m.info.Prefix),
		m.info.Commands,
		m.sent,
		m.replied,
	))
	line := m.theme.divider.Width(m.width - 2).Render(strings.Repeat("─", max(8, m.width-2)))

	status := m.theme.status.Render("Enter send  ·  PgUp/PgDn scroll  ·  End jump latest  ·  Ctrl+C/Esc quit")
	if m.isLoading {
		status = m.theme.statusBusy.Render(fmt.Sprintf("%s dispatching...", m.spinner.View()))
	}
	if m.lastErr != "" {
		status = m.theme.statusErr.Render("last command failed")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		meta,
		line,
		m.theme.viewport.Width(m.width-2).Render(m.viewport.View()),
		status,
		m.theme.inputLabel.Render("Message")+" "+m.theme.hint.Render("(exit, quit or :q to leave)"),
		m.theme.input.Width(m.width-2).Render(m.input.View()),
	)
}

func (m *model) resizeComponents() {
	w := max(50, m.width-6)
	h := max(8, m.height-10)

	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - 2
}

func (m *model) refreshViewport(forceBottom bool) {
	previousOffset := m.viewport.YOffset

	sections := make([]string, 0, len(m.entries))
	for _, item := range m.entries {
		sections = append(sections, m.renderEntry(item))
	}

	m.viewport.SetContent(strings.Join(sections, "\n"))
	if m.followLog || forceBottom {
		m.viewport.GotoBottom()
		m.followLog = true
		return
	}

	maxOffset := max(0, m.viewport.TotalLineCount()-m.viewport.Height)
	m.viewport.SetYOffset(min(previousOffset, maxOffset))
}

func (m *model) renderEntry(item entry) string {
	body := strings.TrimSpace(item.content)

	switch item.kind {
	case entrySent:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.theme.sentTitle.Render(fmt.Sprintf("peer %d", m.info.PeerID)),
			m.theme.sentBox.Width(m.viewport.Width).Render(body),
		)
	case entryReply:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.theme.replyTitle.Render("bot"),
			m.theme.replyBox.Width(m.viewport.Width).Render(body),
		)
	case entryError:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.theme.errorTitle.Render("error"),
			m.theme.errorBox.Width(m.viewport.Width).Render(body),
		)
	default:
		return m.theme.hint.Render("  " + body)
	}
}

func (m *model) handleViewportKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "pgup", "ctrl+b", "alt+up", "ctrl+up":
		m.viewport.PageUp()
		m.followLog = false
		return true
	case "pgdown", "ctrl+f", "alt+down", "ctrl+down":
		m.viewport.PageDown()
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	case "home":
		m.viewport.GotoTop()
		m.followLog = false
		return true
	case "end":
		m.viewport.GotoBottom()
		m.followLog = true
		return true
	default:
		return false
	}
}

func (m *model) handleViewportMouse(msg tea.MouseMsg) bool {
	if msg.Action != tea.MouseActionPress {
		return false
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.ScrollUp(3)
		m.followLog = false
		return true
	case tea.MouseButtonWheelDown:
		m.viewport.ScrollDown(3)
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	default:
		return false
	}
}

func dispatchCmd(ctx context.Context, dispatch DispatchFunc, text string) tea.Cmd {
	return func() tea.Msg {
		replies, err := dispatch(ctx, text)
		return dispatchResultMsg{replies: replies, err: err}
	}
}

func displayOrNA(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "n/a"
	}

	return trimmed
}

// IsExitCommand reports whether input asks to leave the console.
func IsExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", ":q":
		return true
	default:
		return false
	}
}
