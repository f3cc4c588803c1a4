// Package tui is an interactive question-answering chat over the index.
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

	"ragqa/internal/domain"
)

// Answerer is the TUI-facing subset of the answer use case.
type Answerer interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

type exchange struct {
	question string
	answer   *domain.Answer
	err      error
}

type answerMsg struct {
	question string
	answer   *domain.Answer
	err      error
}

// Model is the Bubble Tea model for the chat.
type Model struct {
	service  Answerer
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	summary  string
	status   string
	pending  bool
	ready    bool
}

// New creates a chat model. timeout bounds each answer; zero means none.
func New(service Answerer, summary string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		service:  service,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(0, 0),
		summary:  summary,
		status:   "Ready. Ctrl+C to quit.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := historyBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, summary, status, input box
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.refresh()
		return m, nil

	case answerMsg:
		m.pending = false
		m.history = append(m.history, exchange{question: msg.question, answer: msg.answer, err: msg.err})
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Answered with %d sources", len(msg.answer.Sources))
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending {
				return m, nil
			}
			m.pending = true
			m.input.Reset()
			m.status = "Thinking..."
			return m, m.ask(q)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	service, timeout := m.service, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		answer, err := service.Answer(ctx, question)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderHistory(m.history, m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("RAG Question Answering")
	summary := mutedStyle.Render(m.summary)
	history := historyBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + history + "\n" + input + "\n" + status
}

func renderHistory(history []exchange, width int) string {
	if len(history) == 0 {
		return mutedStyle.Render("No questions yet.")
	}

	wrap := lipgloss.NewStyle().Width(max(10, width-2))
	var sb strings.Builder
	for i, ex := range history {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(questionStyle.Render("Q: " + ex.question))
		sb.WriteString("\n")
		if ex.err != nil {
			sb.WriteString(errorStyle.Render(wrap.Render(ex.err.Error())))
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(wrap.Render(ex.answer.Answer))
		sb.WriteString("\n")
		for j, src := range ex.answer.Sources {
			sb.WriteString(mutedStyle.Render(fmt.Sprintf("  [%d] %s: %s", j+1, src.Title, preview(src.Content, 80))))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

var (
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
