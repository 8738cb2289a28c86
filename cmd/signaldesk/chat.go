// Interactive chat interface built on bubbletea. The chat model is a pure
// consumer of the engine: it implements the transcript and workspace sinks
// and renders whatever the orchestrator emits.
package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/NivraSD/SignalDesk-sub005/internal/config"
	"github.com/NivraSD/SignalDesk-sub005/internal/gateway"
	"github.com/NivraSD/SignalDesk-sub005/internal/orchestrator"
	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

// sinkEvent carries one engine emission into the UI loop.
type sinkEvent struct {
	msg  *types.Message
	item *types.WorkItem
}

// chatSinks bridges the orchestrator's sink callbacks into bubbletea
// messages. The channel is buffered so the turn worker never blocks on a
// busy UI frame; once the UI is gone, shutdown releases any sender still
// draining queued turns.
type chatSinks struct {
	events chan sinkEvent
	quit   chan struct{}
	once   sync.Once
}

func newChatSinks(buffer int) *chatSinks {
	return &chatSinks{
		events: make(chan sinkEvent, buffer),
		quit:   make(chan struct{}),
	}
}

// shutdown stops accepting events. Safe to call more than once.
func (s *chatSinks) shutdown() {
	s.once.Do(func() { close(s.quit) })
}

func (s *chatSinks) send(ev sinkEvent) {
	select {
	case <-s.quit:
		return
	default:
	}
	select {
	case s.events <- ev:
	case <-s.quit:
	}
}

func (s *chatSinks) AppendMessage(msg types.Message) {
	s.send(sinkEvent{msg: &msg})
}

func (s *chatSinks) AddWorkItem(item types.WorkItem) {
	s.send(sinkEvent{item: &item})
}

type sinkEventMsg sinkEvent

func waitForEvent(events chan sinkEvent) tea.Cmd {
	return func() tea.Msg {
		return sinkEventMsg(<-events)
	}
}

var (
	chatTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

type chatModel struct {
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer

	orch  *orchestrator.Orchestrator
	sinks *chatSinks

	lines     []string
	workspace []types.WorkItem
	isLoading bool
	err       error

	width  int
	height int
	ready  bool
}

func newChatModel(orch *orchestrator.Orchestrator, sinks *chatSinks) chatModel {
	ti := textinput.New()
	ti.Placeholder = "What are we working on?"
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(78),
	)
	if err != nil {
		renderer = nil
	}

	return chatModel{
		textinput: ti,
		spinner:   sp,
		renderer:  renderer,
		orch:      orch,
		sinks:     sinks,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForEvent(m.sinks.events))
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.textinput.Value())
			if text == "" || m.isLoading {
				break
			}
			m.textinput.Reset()
			m.isLoading = true
			if err := m.orch.Submit(text); err != nil {
				m.err = err
				m.isLoading = false
			}
		}

	case sinkEventMsg:
		m.applyEvent(sinkEvent(msg))
		m.refreshViewport()
		cmds = append(cmds, waitForEvent(m.sinks.events))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *chatModel) applyEvent(ev sinkEvent) {
	switch {
	case ev.msg != nil:
		m.lines = append(m.lines, m.renderMessage(*ev.msg))
		if ev.msg.Role == types.RoleAssistant {
			m.isLoading = false
		}
	case ev.item != nil:
		m.workspace = append(m.workspace, *ev.item)
	}
}

func (m *chatModel) renderMessage(msg types.Message) string {
	switch msg.Role {
	case types.RoleUser:
		return userStyle.Render("you: ") + msg.Text
	case types.RoleAssistant:
		text := msg.Text
		if m.renderer != nil {
			if out, err := m.renderer.Render(msg.Text); err == nil {
				text = out
			}
		}
		label := assistantLabelStyle.Render("signaldesk:")
		if msg.Mode != "" {
			label += statusStyle.Render(" [" + string(msg.Mode) + "]")
		}
		return label + "\n" + text
	case types.RoleWorkItem:
		if msg.WorkItem != nil {
			return renderCard(*msg.WorkItem)
		}
	}
	return msg.Text
}

func (m *chatModel) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m chatModel) View() string {
	if !m.ready {
		return "starting..."
	}

	header := chatTitleStyle.Render("SignalDesk") +
		statusStyle.Render(fmt.Sprintf("  workspace: %d items", len(m.workspace)))

	status := ""
	if m.isLoading {
		status = m.spinner.View() + " thinking..."
	}
	if m.err != nil {
		status = statusStyle.Render("error: " + m.err.Error())
	}

	return header + "\n" + m.viewport.View() + "\n" + status + "\n" + m.textinput.View()
}

// runInteractiveChat wires the engine to the chat UI and blocks until exit.
// The config file is watched for the lifetime of the chat; gateway settings
// apply to the next turn without restarting the session.
func runInteractiveChat() error {
	gen, err := gateway.New(rootCmd.Context(), cfg.Gateway, logger)
	if err != nil {
		return err
	}
	rgen := newReloadableGenerator(gen)

	watcher, err := config.NewWatcher(cfgPath, newGatewayReloader(rgen, logger), logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(rootCmd.Context()); err != nil {
		logger.Warn("config hot reload disabled", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	sinks := newChatSinks(64)
	orch, err := orchestrator.New(orchestrator.Config{
		Generator:  rgen,
		Transcript: sinks,
		Workspace:  sinks,
		QueueSize:  cfg.Chat.QueueSize,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer orch.Close()
	defer sinks.shutdown()

	p := tea.NewProgram(newChatModel(orch, sinks), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
