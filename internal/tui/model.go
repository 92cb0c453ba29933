package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
)

type role int

const (
	roleUser role = iota
	roleAssistant
)

type message struct {
	role     role
	text     string
	sources  []domain.Source
	degraded bool
	isError  bool
}

// answerMsg carries the result of an ask command back into Update.
type answerMsg struct {
	resp *domain.AskResponse
	err  error
}

// filterKeys maps the toggle shortcuts to themes.
var filterKeys = map[string]domain.Theme{
	"ctrl+a": domain.ThemeAI,
	"ctrl+u": domain.ThemeUXUI,
	"ctrl+w": domain.ThemeWeb3,
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	client   AskClient
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	messages []message
	filters  map[domain.Theme]bool
	summary  bool
	pending  bool
	ready    bool
}

// New creates a chat model backed by client.
func New(client AskClient, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the case studies and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		client:   client,
		timeout:  timeout,
		input:    ti,
		viewport: vp,
		filters:  map[domain.Theme]bool{},
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + filters, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil

	case answerMsg:
		m.pending = false
		if msg.err != nil {
			m.messages = append(m.messages, message{role: roleAssistant, text: "Error: " + msg.err.Error(), isError: true})
		} else {
			m.messages = append(m.messages, message{
				role:     roleAssistant,
				text:     msg.resp.Answer,
				sources:  msg.resp.Sources,
				degraded: msg.resp.Degraded,
			})
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		key := msg.String()
		if theme, ok := filterKeys[key]; ok {
			m.filters[theme] = !m.filters[theme]
			return m, nil
		}
		switch key {
		case "ctrl+s":
			m.summary = !m.summary
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending {
				return m, nil
			}
			m.messages = append(m.messages, message{role: roleUser, text: q})
			m.input.SetValue("")
			m.pending = true
			m.refresh()
			return m, m.ask(q, m.activeFilters(), m.mode())
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(cmd, vpCmd)
}

func (m Model) ask(question string, filters []domain.Theme, mode domain.AnswerMode) tea.Cmd {
	client, timeout := m.client, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		resp, err := client.Ask(ctx, question, filters, mode)
		return answerMsg{resp: resp, err: err}
	}
}

// activeFilters returns the enabled themes in canonical order.
func (m Model) activeFilters() []domain.Theme {
	var out []domain.Theme
	for _, t := range domain.AllThemes {
		if m.filters[t] {
			out = append(out, t)
		}
	}
	return out
}

func (m Model) mode() domain.AnswerMode {
	if m.summary {
		return domain.ModeSummary
	}
	return domain.ModeAnswer
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the header, transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Case Study Assistant")
	filters := mutedStyle.Render(m.renderFilters())
	transcript := transcriptStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	return header + "\n" + filters + "\n" + transcript + "\n" + input + "\n" + statusStyle.Render(m.status())
}

func (m Model) status() string {
	if m.pending {
		return "Thinking..."
	}
	return "ctrl+a AI · ctrl+u UX/UI · ctrl+w Web3 · ctrl+s summary · ctrl+c quit"
}

func (m Model) renderFilters() string {
	parts := make([]string, 0, len(domain.AllThemes)+1)
	for _, t := range domain.AllThemes {
		box := "[ ]"
		if m.filters[t] {
			box = "[x]"
		}
		parts = append(parts, box+" "+string(t))
	}
	mode := "answer"
	if m.summary {
		mode = "summary"
	}
	return strings.Join(parts, "  ") + "   mode: " + mode
}

func (m Model) renderTranscript() string {
	if len(m.messages) == 0 {
		return mutedStyle.Render("Ask a question about the case studies.")
	}
	var sb strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch {
		case msg.role == roleUser:
			sb.WriteString(userStyle.Render("You: ") + msg.text)
		case msg.isError:
			sb.WriteString(errorStyle.Render(msg.text))
		default:
			sb.WriteString(assistantStyle.Render("Assistant: ") + msg.text)
			if msg.degraded {
				sb.WriteString("\n" + mutedStyle.Render("(generator unavailable, showing excerpt)"))
			}
			for _, s := range msg.sources {
				sb.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("  • %s %s", s.Title, s.URL)))
			}
		}
	}
	return sb.String()
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
