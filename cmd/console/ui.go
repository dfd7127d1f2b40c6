package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
	"github.com/muesli/reflow/wordwrap"
)

const PlaceHolderText = "challenge address=0x... (type help for commands)"

type entryKind int

const (
	entrySent entryKind = iota
	entryReply
	entryNote
	entryError
)

type entry struct {
	kind entryKind
	text string
	env  iwc.Envelope
}

// ConsoleUI is the BubbleTea model that plays the game client.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config    *ConsoleConfig
	socket    *bridgeSocket
	viewport  viewport.Model
	textarea  textarea.Model
	entries   []entry
	lastReply string
	pending   int
	connected bool
	ready     bool
	width     int
	height    int
}

var (
	panelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3).
			PaddingRight(3)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	sentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	grantedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Bold(true)

	deniedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // red
			Bold(true)

	dataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

const helpText = `Commands:
  address                              REQUEST_ADDRESS
  challenge address=0x...              REQUEST_CHALLENGE
  sign original=<text>                 REQUEST_SIGNATURE
  email email=a@b.c                    CHECK_EMAIL_AVAILABILITY
  username username=ann                CHECK_USERNAME_AVAILABILITY
  otp email=a@b.c                      SEND_OTP_EMAIL
  signup address= username= email= otpCode= signature=
  signin address= signature=
  mint address=0x... referrer=0x...
  Full action names work too. Ctrl+Y copies the last reply, Ctrl+C quits.`

func NewConsoleUI(cfg *ConsoleConfig, socket *bridgeSocket) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 2000
	ta.SetWidth(60)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	vp := viewport.New(60, 20)
	vp.MouseWheelEnabled = true

	return ConsoleUI{
		config:    cfg,
		socket:    socket,
		textarea:  ta,
		viewport:  vp,
		connected: true,
		entries: []entry{
			{kind: entryNote, text: "Connected to " + socketURL(cfg.BridgeURL) + " as " + cfg.Origin},
		},
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 6
		m.viewport.Height = msg.Height - 6
		m.textarea.SetWidth(msg.Width - 6)
		m.ready = true
		m.render()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyCtrlY:
			if m.lastReply == "" {
				m.note(entryNote, "No reply to copy yet")
			} else if err := clipboard.WriteAll(m.lastReply); err != nil {
				m.note(entryError, "Copy failed: "+err.Error())
			} else {
				m.note(entryNote, "Last reply copied to clipboard")
			}
			return m, nil

		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.EqualFold(input, "help") {
				m.note(entryNote, helpText)
				return m, nil
			}
			if !m.connected {
				m.note(entryError, "Not connected to the bridge")
				return m, nil
			}

			env, err := parseCommand(input)
			if err != nil {
				m.note(entryError, err.Error())
				return m, nil
			}
			m.pending++
			m.entries = append(m.entries, entry{kind: entrySent, env: env})
			m.render()
			return m, m.sendEnvelope(env)
		}

	case replyMsg:
		if m.pending > 0 {
			m.pending--
		}
		if raw, err := json.Marshal(msg.env); err == nil {
			m.lastReply = string(raw)
		}
		m.entries = append(m.entries, entry{kind: entryReply, env: msg.env})
		m.render()
		return m, nil

	case disconnectedMsg:
		m.connected = false
		m.note(entryError, "Disconnected: "+msg.err.Error())
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *ConsoleUI) note(kind entryKind, text string) {
	m.entries = append(m.entries, entry{kind: kind, text: text})
	m.render()
}

// render rebuilds the transcript for the current viewport width
func (m *ConsoleUI) render() {
	width := m.viewport.Width
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("IWC CONSOLE") + "\n\n")

	for _, e := range m.entries {
		switch e.kind {
		case entrySent:
			content.WriteString(sentStyle.Render("→ "+label(e.env.Action)) + "\n")
			content.WriteString(formatData(e.env.Data, width) + "\n")
		case entryReply:
			style := grantedStyle
			if isDenial(e.env.Action) {
				style = deniedStyle
			}
			content.WriteString(style.Render("← "+label(e.env.Action)) + "\n")
			content.WriteString(formatData(e.env.Data, width) + "\n")
		case entryNote:
			content.WriteString(noteStyle.Render(wordwrap.String(e.text, width)) + "\n\n")
		case entryError:
			content.WriteString(deniedStyle.Render(wordwrap.String(e.text, width)) + "\n\n")
		}
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

func formatData(data map[string]any, width int) string {
	if len(data) == 0 {
		return dataStyle.Render("  {}") + "\n"
	}
	raw, err := json.MarshalIndent(data, "  ", "  ")
	if err != nil {
		return dataStyle.Render(fmt.Sprintf("  %v", data)) + "\n"
	}
	return dataStyle.Render("  "+wordwrap.String(string(raw), width-2)) + "\n"
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "Starting..."
	}

	status := "connected"
	if !m.connected {
		status = "disconnected"
	}
	if m.pending > 0 {
		status += fmt.Sprintf(" · %d awaiting reply", m.pending)
	}

	return panelStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.viewport.View(),
			statusStyle.Render(status),
			m.textarea.View(),
		),
	)
}
