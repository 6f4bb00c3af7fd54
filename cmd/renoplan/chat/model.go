// Package chat provides the interactive TUI chat interface for renoplan.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"renoplan/cmd/renoplan/ui"
	"renoplan/internal/assets"
	"renoplan/internal/shards"
)

// Backend is what the chat needs from the wired application.
type Backend interface {
	Process(ctx context.Context, text string) *shards.Response
	Upload(ctx context.Context, path string, category assets.Category) (assets.Reference, error)
	Renderings() string
	Images() string
	SetAttach(on bool)
	SessionID() string
}

// Message is one entry of the conversation.
type Message struct {
	Role        string // user, assistant or system
	Content     string
	Destination string
	Time        time.Time
}

type responseMsg struct {
	resp *shards.Response
}

type uploadMsg struct {
	ref assets.Reference
	err error
}

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctx      context.Context
	backend  Backend
	styles   ui.Styles
	renderer *glamour.TermRenderer

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	history []Message
	width   int
	height  int
	ready   bool
	busy    bool
	quit    bool
}

// New creates the chat model.
func New(ctx context.Context, backend Backend) Model {
	styles := ui.DefaultStyles()

	ta := textarea.New()
	ta.Placeholder = "Describe your renovation, or /help"
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	var renderer *glamour.TermRenderer
	if styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(glamour.WithStylePath("dark"), glamour.WithWordWrap(80))
	} else {
		renderer, _ = glamour.NewTermRenderer(glamour.WithStylePath("light"), glamour.WithWordWrap(80))
	}

	return Model{
		ctx:      ctx,
		backend:  backend,
		styles:   styles,
		renderer: renderer,
		textarea: ta,
		spinner:  sp,
		history: []Message{{
			Role:    "assistant",
			Content: welcomeText,
			Time:    time.Now(),
		}},
	}
}

const welcomeText = `Welcome! Tell me which room you want to renovate.
Upload photos with **/upload path [current_room|inspiration|reference]**, then ask for a plan.
After a rendering is created, just say what to change ("make the cabinets cream").`

const helpText = `**Commands**
- /upload <path> [category]: add a photo (default category current_room)
- /images: list uploaded images
- /renderings: list renderings and versions
- /attach on|off: attach uploaded images to the next message
- /session: show the session id
- /quit: leave`

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textarea.SetWidth(max(msg.Width-4, 10))
		vpHeight := max(msg.Height-m.textarea.Height()-4, 3)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quit = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			return m.submit(input)
		}

	case responseMsg:
		m.busy = false
		m.appendResponse(msg.resp)
		return m, nil

	case uploadMsg:
		m.busy = false
		if msg.err != nil {
			m.appendSystem("Upload failed: " + msg.err.Error())
		} else {
			m.appendSystem(fmt.Sprintf("Added **%s** as %s. It will be attached to your next message.", msg.ref.Filename, msg.ref.Category))
		}
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit(input string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(input, "/") {
		return m.command(input)
	}
	m.history = append(m.history, Message{Role: "user", Content: input, Time: time.Now()})
	m.busy = true
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, m.process(input))
}

func (m Model) process(input string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		return responseMsg{resp: backend.Process(ctx, input)}
	}
}

func (m Model) command(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/exit":
		m.quit = true
		return m, tea.Quit
	case "/help":
		m.appendSystem(helpText)
	case "/images":
		m.appendSystem(m.backend.Images())
	case "/renderings":
		m.appendSystem(m.backend.Renderings())
	case "/session":
		m.appendSystem("Session: `" + m.backend.SessionID() + "`")
	case "/attach":
		on := len(fields) < 2 || fields[1] != "off"
		m.backend.SetAttach(on)
		if on {
			m.appendSystem("Uploaded images will be attached to your next message.")
		} else {
			m.appendSystem("Uploaded images will not be attached.")
		}
	case "/upload":
		if len(fields) < 2 {
			m.appendSystem("Usage: /upload <path> [current_room|inspiration|reference]")
			return m, nil
		}
		cat := assets.CategoryCurrentRoom
		if len(fields) > 2 {
			parsed, err := assets.ParseCategory(fields[2])
			if err != nil {
				m.appendSystem(err.Error())
				return m, nil
			}
			cat = parsed
		}
		m.busy = true
		ctx, backend, path := m.ctx, m.backend, fields[1]
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			ref, err := backend.Upload(ctx, path, cat)
			return uploadMsg{ref: ref, err: err}
		})
	default:
		m.appendSystem("Unknown command " + fields[0] + ". Type /help.")
	}
	return m, nil
}

func (m *Model) appendResponse(resp *shards.Response) {
	text := resp.Text
	if resp.Rendering != nil && resp.Rendering.Path != "" {
		text += "\n\n`" + resp.Rendering.Path + "`"
	}
	if len(resp.Sources) > 0 {
		text += "\n\n**Sources**\n- " + strings.Join(resp.Sources, "\n- ")
	}
	m.history = append(m.history, Message{
		Role:        "assistant",
		Content:     text,
		Destination: string(resp.Destination),
		Time:        time.Now(),
	})
	m.refresh()
}

func (m *Model) appendSystem(text string) {
	m.history = append(m.history, Message{Role: "system", Content: text, Time: time.Now()})
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	var sb strings.Builder
	for _, msg := range m.history {
		switch msg.Role {
		case "user":
			sb.WriteString(m.styles.Bold.Foreground(m.styles.Theme.Primary).MarginTop(1).Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(msg.Content) + "\n\n")
		case "system":
			sb.WriteString(m.safeRenderMarkdown(msg.Content))
		default:
			header := m.styles.Bold.Foreground(m.styles.Theme.Accent).MarginTop(1).Render("renoplan")
			if badge := m.styles.DestinationBadge(msg.Destination); badge != "" {
				header += " " + badge
			}
			sb.WriteString(header + "\n")
			sb.WriteString(m.safeRenderMarkdown(msg.Content) + "\n")
		}
	}
	return sb.String()
}

// safeRenderMarkdown renders markdown with panic recovery
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()
	if m.renderer != nil && content != "" {
		if rendered, err := m.renderer.Render(content); err == nil {
			return rendered
		}
	}
	return content
}

func (m Model) View() string {
	if m.quit {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	header := m.styles.Header.Render("renoplan") + " " + m.styles.Muted.Render(m.backend.SessionID())
	status := m.styles.Footer.Render("enter: send • /help • esc: quit")
	if m.busy {
		status = m.styles.Footer.Render(m.spinner.View() + " working on it...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.styles.RenderDivider(m.width),
		m.textarea.View(),
		status,
	)
}
