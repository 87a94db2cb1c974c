// Package tui is the interactive terminal chat with an A2A agent.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/igorsilveira/helloext/pkg/a2a"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	inputStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type Message struct {
	Role       string
	Content    string
	Extensions []string
}

// Reply is the agent's answer and the extensions the server applied.
type Reply struct {
	Text       string
	Extensions []string
}

type SendFunc func(input string) (Reply, error)

type Model struct {
	name     string
	messages []Message
	input    string
	sendFn   SendFunc
	width    int
	height   int
	waiting  bool
}

func NewModel(name string, sendFn SendFunc) Model {
	return Model{
		name:   name,
		sendFn: sendFn,
	}
}

type responseMsg struct {
	reply Reply
	err   error
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Messages() []Message {
	return m.messages
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.waiting || strings.TrimSpace(m.input) == "" {
				return m, nil
			}
			return m.submitInput()
		case "backspace":
			if len(m.input) > 0 {
				r := []rune(m.input)
				m.input = string(r[:len(r)-1])
			}
		default:
			if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
				m.input += string(msg.Runes)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case responseMsg:
		m.waiting = false
		if msg.err != nil {
			m.messages = append(m.messages, Message{
				Role:    "error",
				Content: msg.err.Error(),
			})
		} else {
			m.messages = append(m.messages, Message{
				Role:       "assistant",
				Content:    msg.reply.Text,
				Extensions: msg.reply.Extensions,
			})
		}
	}

	return m, nil
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input)
	m.messages = append(m.messages, Message{Role: "user", Content: text})
	m.input = ""
	m.waiting = true

	sendFn := m.sendFn
	return m, func() tea.Msg {
		reply, err := sendFn(text)
		return responseMsg{reply: reply, err: err}
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(dimStyle.Render(m.name + " (Ctrl+C to quit)"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n\n")

	for _, msg := range m.messages {
		switch msg.Role {
		case "user":
			b.WriteString(userStyle.Render("You: "))
			b.WriteString(msg.Content)
		case "assistant":
			b.WriteString(assistantStyle.Render("Agent: "))
			b.WriteString(msg.Content)
			if len(msg.Extensions) > 0 {
				b.WriteString("\n")
				b.WriteString(dimStyle.Render("  extensions: " + strings.Join(msg.Extensions, ", ")))
			}
		case "error":
			b.WriteString(errorStyle.Render("Error: "))
			b.WriteString(msg.Content)
		}
		b.WriteString("\n\n")
	}

	if m.waiting {
		b.WriteString(dimStyle.Render("Waiting for agent..."))
		b.WriteString("\n\n")
	}

	b.WriteString(dimStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")
	prompt := inputStyle.Render("> " + m.input)
	if !m.waiting {
		prompt += dimStyle.Render("█")
	}
	b.WriteString(prompt)

	return b.String()
}

func Run(name string, sendFn SendFunc) error {
	p := tea.NewProgram(NewModel(name, sendFn), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// ClientSender sends every input as a message/send call through c.
func ClientSender(c *a2a.Client, timeout time.Duration) SendFunc {
	return func(input string) (Reply, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		var res a2a.SendResult
		call, err := c.Call(ctx, a2a.MethodMessageSend, a2a.MessageSendParams{
			Message: *a2a.NewTextMessage(a2a.RoleUser, input),
		}, &res)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: res.Text(), Extensions: call.Activated.List()}, nil
	}
}
