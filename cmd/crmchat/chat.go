package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/crmchat/client"
	"github.com/a-h/crmchat/models"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type ChatCommand struct {
	ServerURL  string `help:"The URL of the chat server." env:"CRMCHAT_SERVER_URL" default:"http://localhost:9020"`
	LocationID string `help:"The CRM location (sub-account) ID to send with each message." env:"CRM_LOCATION_ID" default:""`
	ContactID  string `help:"The contact ID to send with each message." default:""`
	UserID     string `help:"The user ID to send with each message." default:""`
}

func (c ChatCommand) Run(ctx context.Context) (err error) {
	cc := client.New(c.ServerURL)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	toServer := make(chan string)
	fromServer := make(chan chatMessage)

	go func() {
		for {
			var msg string
			select {
			case msg = <-toServer:
			case <-ctx.Done():
				return
			}
			resp, err := cc.ChatPost(ctx, models.ChatPostRequest{
				Message:    msg,
				LocationID: c.LocationID,
				ContactID:  c.ContactID,
				UserID:     c.UserID,
			})
			reply := chatMessage{role: roleAssistant, content: resp.Response, calledCRM: resp.FunctionCalled}
			switch {
			case err != nil:
				reply = chatMessage{role: roleError, content: err.Error()}
			case resp.Error:
				reply.role = roleError
			}
			select {
			case fromServer <- reply:
			case <-ctx.Done():
				return
			}
		}
	}()

	p := tea.NewProgram(newModel(ctx, toServer, fromServer))
	if _, err = p.Run(); err != nil {
		return err
	}
	return nil
}

type role int

const (
	roleUser role = iota
	roleAssistant
	roleError
)

type chatMessage struct {
	role      role
	content   string
	calledCRM bool
}

// Dracula color scheme.
var (
	Background  = lipgloss.Color("#282a36")
	CurrentLine = lipgloss.Color("#44475a")
	Comment     = lipgloss.Color("#6272a4")
	Cyan        = lipgloss.Color("#8be9fd")
	Orange      = lipgloss.Color("#ffb86c")
	Pink        = lipgloss.Color("#ff79c6")
	Purple      = lipgloss.Color("#bd93f9")
	Red         = lipgloss.Color("#ff5555")
)

var headerStyle = lipgloss.NewStyle().Background(CurrentLine).Foreground(Purple).Bold(true).Padding(1)

const header = "CRM assistant: ask about your contacts, opportunities and conversations."

var roleToStyle = map[role]lipgloss.Style{
	roleUser:      lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Pink),
	roleAssistant: lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Cyan),
	roleError:     lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Red),
}

var roleToIcon = map[role]string{
	roleUser:      "🥷",
	roleAssistant: "✨",
	roleError:     "⚠️",
}

var crmBadge = lipgloss.NewStyle().Foreground(Orange).Render("[crm]")

func formatMessage(msg chatMessage, width int) string {
	style, ok := roleToStyle[msg.role]
	if !ok {
		return msg.content
	}
	icon, ok := roleToIcon[msg.role]
	if !ok {
		icon = "🤷"
	}
	text := icon + " " + msg.content
	if msg.calledCRM {
		text = icon + " " + crmBadge + " " + msg.content
	}
	return style.Render(wordwrap.String(strings.TrimSpace(text), width))
}

type model struct {
	viewport viewport.Model
	textarea textarea.Model
	ctx      context.Context
	width    int
	messages []chatMessage
	waiting  bool

	toServer   chan string
	fromServer chan chatMessage
}

func newModel(ctx context.Context, toServer chan string, fromServer chan chatMessage) model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your CRM..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 1000
	ta.SetHeight(3)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	vp := viewport.New(80, 20)
	vp.SetContent(headerStyle.Render(header))

	return model{
		ctx:        ctx,
		textarea:   ta,
		viewport:   vp,
		width:      80,
		toServer:   toServer,
		fromServer: fromServer,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.subscribe(),
	)
}

func (m model) subscribe() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.fromServer:
			return msg
		case <-m.ctx.Done():
			return tea.Quit()
		}
	}
}

func (m model) render() string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(header))
	sb.WriteString("\n")
	for _, msg := range m.messages {
		sb.WriteString(formatMessage(msg, m.width))
		sb.WriteString("\n")
	}
	if m.waiting {
		sb.WriteString(lipgloss.NewStyle().Foreground(Comment).Margin(1).Render("thinking..."))
	}
	return sb.String()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case chatMessage:
		m.messages = append(m.messages, msg)
		m.waiting = false
		m.viewport.SetContent(m.render())
		m.viewport.GotoBottom()
		return m, m.subscribe()
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-4, 20)
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - m.textarea.Height() - 3
		m.textarea.SetWidth(msg.Width)
		m.viewport.SetContent(m.render())
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			v := strings.TrimSpace(m.textarea.Value())
			if v == "" || m.waiting {
				return m, nil
			}
			m.textarea.Reset()
			m.messages = append(m.messages, chatMessage{role: roleUser, content: v})
			m.waiting = true
			m.viewport.SetContent(m.render())
			m.viewport.GotoBottom()
			return m, send(m.ctx, m.toServer, v)
		default:
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(msg)
			return m, cmd
		}
	case cursor.BlinkMsg:
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

// send hands the message to the server goroutine without blocking the update loop.
func send(ctx context.Context, toServer chan string, msg string) tea.Cmd {
	return func() tea.Msg {
		select {
		case toServer <- msg:
		case <-ctx.Done():
		}
		return nil
	}
}

func (m model) View() string {
	return fmt.Sprintf("%s\n\n%s",
		m.viewport.View(),
		m.textarea.View(),
	) + "\n\n"
}
