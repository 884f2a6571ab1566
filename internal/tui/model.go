// Package tui implements the chat interface over the web-memory agent.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"webmemory/internal/domain"
)

// Asker is the TUI-facing subset of the agent.
type Asker interface {
	Ask(ctx context.Context, threadID, question string) (domain.Answer, error)
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	agent    Asker
	threadID string
	profile  string

	input      textinput.Model
	viewport   viewport.Model
	transcript []entry
	waiting    bool
	ready      bool
	status     string
}

type entry struct {
	role string
	text string
}

type answerMsg struct {
	text string
	err  error
}

// New creates a new chat model bound to one conversation thread.
func New(agent Asker, threadID, profile string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask something about your browsing history"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		agent:    agent,
		threadID: threadID,
		profile:  profile,
		input:    ti,
		viewport: vp,
		status:   "Ready. Type a question and press Enter.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + profile, status, input box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			// Never show raw error text: it may quote retrieved content.
			m.transcript = append(m.transcript, entry{role: domain.RoleAssistant, text: "An internal error occurred. Please try again."})
			m.status = "The agent failed to process the request."
		} else {
			m.transcript = append(m.transcript, entry{role: domain.RoleAssistant, text: msg.text})
			m.status = "Ready."
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.transcript = append(m.transcript, entry{role: domain.RoleUser, text: q})
				m.input.SetValue("")
				m.waiting = true
				m.status = "Searching memory..."
				m.viewport.SetContent(m.renderTranscript())
				m.viewport.GotoBottom()
				return m, askCmd(m.agent, m.threadID, q)
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func askCmd(agent Asker, threadID, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := agent.Ask(context.Background(), threadID, question)
		if err != nil {
			return answerMsg{err: err}
		}
		return answerMsg{text: answer.Text}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Personal Web Memory Agent")
	profile := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(firstLine(m.profile))
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + profile + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "No messages yet."
	}
	var b strings.Builder
	for i, e := range m.transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch e.role {
		case domain.RoleUser:
			b.WriteString(userStyle.Render("You: "))
		default:
			b.WriteString(agentStyle.Render("Agent: "))
		}
		b.WriteString(e.text)
	}
	if m.waiting {
		b.WriteString("\n\n")
		b.WriteString(agentStyle.Render("Agent: "))
		b.WriteString("…")
	}
	return b.String()
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	agentStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
