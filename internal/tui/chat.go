// Package tui is the interactive chat view.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rcliao/synapse/internal/chat"
	"github.com/rcliao/synapse/internal/model"
)

type sentMsg struct{ err error }

type renamedMsg struct{ err error }

// Model is a bubbletea model over one chat.Conversation.
type Model struct {
	ctx  context.Context
	conv *chat.Conversation

	input   textinput.Model
	spinner spinner.Model

	width  int
	height int
	scroll int // lines scrolled up from the bottom

	busy     bool
	status   string
	err      string
	quitting bool
}

// NewModel returns a chat view. ctx bounds every request the view issues.
func NewModel(ctx context.Context, conv *chat.Conversation) Model {
	in := textinput.New()
	in.Placeholder = "Ask about your memories... (/title NAME, /new, /quit)"
	in.CharLimit = 4000
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = dimStyle

	return Model{
		ctx:     ctx,
		conv:    conv,
		input:   in,
		spinner: sp,
		width:   100,
		height:  30,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-4)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sentMsg:
		m.busy = false
		m.status = ""
		m.scroll = 0
		if msg.err != nil {
			m.err = msg.err.Error()
		}
		return m, nil

	case renamedMsg:
		m.busy = false
		m.status = ""
		if msg.err != nil {
			m.err = "rename failed: " + msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "pgup":
		m.scroll += m.pageSize()
		return m, nil

	case "pgdown":
		m.scroll = max(0, m.scroll-m.pageSize())
		return m, nil

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.busy {
			return m, nil
		}
		m.input.SetValue("")
		m.err = ""
		return m.submit(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	switch {
	case text == "/quit":
		m.quitting = true
		return m, tea.Quit

	case text == "/new":
		m.conv.Reset()
		m.scroll = 0
		return m, nil

	case text == "/title" || strings.HasPrefix(text, "/title "):
		if _, ok := m.conv.Chat(); !ok {
			m.err = "no chat yet; send a message first"
			return m, nil
		}
		m.busy = true
		m.status = "renaming"
		return m, tea.Batch(m.spinner.Tick, m.rename(strings.TrimPrefix(text, "/title")))
	}

	m.busy = true
	m.status = "thinking"
	return m, tea.Batch(m.spinner.Tick, m.send(text))
}

func (m Model) send(text string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.conv.Send(m.ctx, text)
		return sentMsg{err: err}
	}
}

func (m Model) rename(title string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.conv.Rename(m.ctx, title)
		return renamedMsg{err: err}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.conv.Title()))
	b.WriteString("\n")

	lines := m.renderMessages()
	visible := m.visibleRows()
	end := len(lines) - m.scroll
	if end < 0 {
		end = 0
	}
	start := max(0, end-visible)
	shown := 0
	for _, line := range lines[start:end] {
		b.WriteString(line)
		b.WriteString("\n")
		shown++
	}
	for ; shown < visible; shown++ {
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m Model) statusLine() string {
	switch {
	case m.busy:
		return m.spinner.View() + " " + dimStyle.Render(m.status+"...")
	case m.err != "":
		return errorStyle.Render(m.err)
	}
	return statusBarStyle.Render("enter: send  pgup/pgdn: scroll  esc: quit")
}

// visibleRows is the height left for messages after title, status and input.
func (m Model) visibleRows() int {
	return max(1, m.height-3)
}

func (m Model) pageSize() int {
	return max(1, m.visibleRows()-2)
}

func (m Model) renderMessages() []string {
	msgs := m.conv.Messages()
	if len(msgs) == 0 {
		return []string{dimStyle.Render(" No messages yet.")}
	}

	maxWidth := max(20, m.width-2)
	var lines []string
	for _, msg := range msgs {
		lines = append(lines, roleHeader(msg, maxWidth))

		textStyle := lipgloss.NewStyle()
		if msg.Role == model.RoleAssistant {
			textStyle = assistantTextStyle
		}
		for _, wl := range wrapText(msg.Content, maxWidth-2) {
			lines = append(lines, " "+textStyle.Render(wl))
		}
		lines = append(lines, "")
	}
	return lines
}

func roleHeader(msg model.ChatMessage, width int) string {
	switch {
	case msg.Role == model.RoleUser:
		label := " YOU"
		if strings.HasPrefix(msg.ID, chat.TempUserPrefix) {
			label += " (sending)"
		}
		return userRoleStyle.Render(pad(label, width))
	case strings.HasPrefix(msg.ID, chat.TempErrorPrefix):
		return errorRoleStyle.Render(pad(" ERROR", width))
	}
	return assistantRoleStyle.Render(pad(" ASSISTANT", width))
}

// wrapText splits text into lines of at most maxWidth runes.
func wrapText(text string, maxWidth int) []string {
	var result []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > maxWidth {
			result = append(result, string(runes[:maxWidth]))
			runes = runes[maxWidth:]
		}
		result = append(result, string(runes))
	}
	return result
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// Run starts the chat view on the terminal and blocks until the user quits.
func Run(ctx context.Context, conv *chat.Conversation) error {
	p := tea.NewProgram(NewModel(ctx, conv), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat view: %w", err)
	}
	return nil
}
