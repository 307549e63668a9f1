package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/llmcouncil/internal/api"
	apierrors "github.com/diogo/llmcouncil/internal/errors"
	"github.com/diogo/llmcouncil/internal/models"
	"github.com/diogo/llmcouncil/internal/render"
	"github.com/diogo/llmcouncil/internal/stream"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	conversationCreatedMsg struct {
		conv *models.Conversation
		err  error
	}
	conversationListMsg struct {
		metas []models.ConversationMeta
		err   error
	}
	conversationLoadedMsg struct {
		conv *models.Conversation
		err  error
	}
	// streamStartedMsg carries the session for a request token. A nil
	// session with a non-nil err means the request never left the ground.
	streamStartedMsg struct {
		token   string
		session *api.StreamSession
		err     error
	}
	// streamEventMsg carries one decoded event tagged with the request
	// token it belongs to. Events whose token does not match the current
	// assembler are stale and must be dropped.
	streamEventMsg struct {
		token string
		event *stream.Event
	}
	// streamClosedMsg is sent when the event channel drains. err is the
	// transport error, nil on clean shutdown.
	streamClosedMsg struct {
		token string
		err   error
	}
	roomsLoadedForChatMsg struct {
		rooms []models.Room
		err   error
	}
)

// Model represents the TUI state
type Model struct {
	client api.CouncilAPI

	mode      models.Mode
	room      string
	modelName string

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	conversation   *models.Conversation
	assembler      *stream.Assembler
	session        *api.StreamSession
	attachment     *api.Attachment
	attachmentName string
	loading        bool
	ready          bool
	err            error
	animationFrame int

	// Room selection state
	selectingRoom bool
	roomsList     []models.Room
	roomsCursor   int
	roomsLoading  bool
	roomsFilter   string

	// Conversation selection state
	selectingConv bool
	convList      []models.ConversationMeta
	convCursor    int
	convLoading   bool

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model
func NewChatModel(client api.CouncilAPI, mode models.Mode, room, modelName string) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask the council..."
	ta.CharLimit = 8000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		client:    client,
		mode:      mode,
		room:      room,
		modelName: modelName,
		textarea:  ta,
		spinner:   s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.createConversation(),
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.selectingRoom {
		return m.updateRoomSelection(msg)
	}
	if m.selectingConv {
		return m.updateConvSelection(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.closeStream()
			return m, tea.Quit

		case "esc":
			if m.loading {
				// Cancel the in-flight request; stale events get fenced out
				m.closeStream()
				m.loading = false
				if m.conversation != nil {
					m.conversation.RollbackExchange()
					m.updateViewport()
				}
			} else {
				return m, tea.Quit
			}

		case "enter":
			if !m.loading && strings.TrimSpace(m.textarea.Value()) != "" {
				input := strings.TrimSpace(m.textarea.Value())
				if handled, model, cmd := m.handleCommand(input); handled {
					return model, cmd
				}

				if m.conversation == nil {
					m.err = fmt.Errorf("no active conversation")
					return m, nil
				}

				// Optimistic placeholder pair
				m.conversation.AppendExchange(input)
				m.updateViewport()
				m.viewport.GotoBottom()

				m.loading = true
				m.err = nil
				m.animationFrame = 0
				m.textarea.Reset()

				m.assembler = stream.NewAssembler(m.conversation.ID)
				cmd = m.startStream(input, m.assembler.Token())
				m.attachment = nil
				m.attachmentName = ""

				return m, tea.Batch(
					cmd,
					m.spinner.Tick,
					animationTick(),
				)
			}
		}

	case conversationCreatedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.conversation = msg.conv
			m.err = nil
			m.updateViewport()
		}

	case conversationLoadedMsg:
		m.convLoading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.closeStream()
			m.loading = false
			m.conversation = msg.conv
			m.assembler = nil
			m.err = nil
			m.updateViewport()
			m.viewport.GotoBottom()
		}

	case conversationListMsg:
		m.convLoading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.convList = msg.metas
		}

	case streamStartedMsg:
		if m.assembler == nil || msg.token != m.assembler.Token() {
			if msg.session != nil {
				msg.session.Close()
			}
			break
		}
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
			if m.conversation != nil {
				m.conversation.RollbackExchange()
				m.updateViewport()
			}
			break
		}
		m.session = msg.session
		cmds = append(cmds, waitForEvent(msg.session, msg.token))

	case streamEventMsg:
		// Fencing: events from a superseded request are dropped whole
		if m.assembler == nil || msg.token != m.assembler.Token() {
			break
		}
		effect, err := m.assembler.Apply(m.conversation, msg.event)
		if err != nil {
			if apierrors.IsStreamError(err) {
				m.loading = false
				m.err = err
			}
			// Parse errors skip the event; the stream stays alive
		}
		switch effect {
		case stream.EffectRefreshList:
			cmds = append(cmds, m.loadConversationList())
		case stream.EffectComplete:
			m.loading = false
			cmds = append(cmds, m.loadConversationList())
		}
		m.updateViewport()
		m.viewport.GotoBottom()
		if m.assembler.Done() {
			m.closeStream()
		} else if m.session != nil {
			cmds = append(cmds, waitForEvent(m.session, msg.token))
		}

	case streamClosedMsg:
		if m.assembler == nil || msg.token != m.assembler.Token() {
			break
		}
		m.session = nil
		if msg.err != nil && m.loading {
			// Transport died mid-run: drop the placeholder pair
			m.loading = false
			m.err = msg.err
			if m.conversation != nil {
				m.conversation.RollbackExchange()
				m.updateViewport()
			}
		} else if m.loading && m.assembler != nil && !m.assembler.Done() {
			// Stream ended without a terminal event
			m.loading = false
		}

	case roomsLoadedForChatMsg:
		m.roomsLoading = false
		if msg.err != nil {
			m.selectingRoom = false
			m.err = msg.err
		} else {
			m.roomsList = msg.rooms
		}

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleCommand processes slash commands from the input box. Returns
// handled=false when the input is a regular message.
func (m Model) handleCommand(input string) (bool, tea.Model, tea.Cmd) {
	if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
		m.closeStream()
		return true, m, tea.Quit
	}

	if !strings.HasPrefix(input, "/") {
		return false, m, nil
	}

	fields := strings.Fields(input)
	name := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	switch name {
	case "/rooms", "/room":
		m.textarea.Reset()
		if arg != "" {
			m.room = arg
			return true, m, nil
		}
		m.selectingRoom = true
		m.roomsLoading = true
		m.roomsCursor = 0
		m.roomsFilter = ""
		return true, m, m.loadRoomsForChat()

	case "/mode":
		m.textarea.Reset()
		if arg == "" {
			m.err = fmt.Errorf("usage: /mode <chat|council|image|file>")
			return true, m, nil
		}
		if !models.IsValidMode(arg) {
			m.err = fmt.Errorf("unknown mode %q", arg)
			return true, m, nil
		}
		m.mode = models.ModeFromName(arg)
		m.err = nil
		return true, m, nil

	case "/model":
		m.textarea.Reset()
		if arg != "" {
			m.modelName = arg
		}
		return true, m, nil

	case "/file":
		m.textarea.Reset()
		if arg == "" {
			m.err = fmt.Errorf("usage: /file <path>")
			return true, m, nil
		}
		attachment, err := api.AttachFile(arg)
		if err != nil {
			m.err = err
			return true, m, nil
		}
		m.attachment = attachment
		m.attachmentName = attachment.Filename
		m.err = nil
		return true, m, nil

	case "/new":
		m.textarea.Reset()
		m.closeStream()
		m.loading = false
		m.assembler = nil
		m.err = nil
		return true, m, m.createConversation()

	case "/list":
		m.textarea.Reset()
		m.selectingConv = true
		m.convLoading = true
		m.convCursor = 0
		return true, m, m.loadConversationList()
	}

	m.textarea.Reset()
	m.err = fmt.Errorf("unknown command %q", name)
	return true, m, nil
}

// closeStream tears down the active stream session, if any.
func (m *Model) closeStream() {
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	if m.selectingRoom {
		return m.renderRoomSelector()
	}
	if m.selectingConv {
		return m.renderConvSelector()
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerParts := []string{
		titleStyle.Render("⚖ LLM Council"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(string(m.mode)),
		hintStyle.Render("  •  "),
		subtitleStyle.Render("room: " + m.room),
	}
	if m.mode == models.ModeChat && m.modelName != "" {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(m.modelName),
		)
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	header := headerStyle.Width(contentWidth).Render(headerContent)
	sections = append(sections, header)

	// Messages area
	var messagesContent string
	if m.conversation == nil || len(m.conversation.Messages) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}

	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent)
	sections = append(sections, messagesPanel)

	// Input area
	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputLabel := inputLabelStyle.Render("You")
		if m.attachmentName != "" {
			inputLabel += hintStyle.Render("  📎 " + m.attachmentName)
		}
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabel,
			m.textarea.View(),
		)
	}

	inputPanel := inputPanelStyle.Width(contentWidth).Render(inputContent)
	sections = append(sections, inputPanel)

	// Status bar
	statusBar := m.renderStatusBar(contentWidth)
	sections = append(sections, statusBar)

	// Error display
	if m.err != nil {
		sections = append(sections, m.formatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("⚖")
	title := welcomeTitleStyle.Width(width).Render("Welcome to LLM Council")
	subtitle := welcomeStyle.Width(width).Render("Ask a question and let the council deliberate")
	hints := welcomeStyle.Width(width).Render("/mode  /rooms  /model  /file  /new  /list")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		hints,
		"",
	)

	contentHeight := lipgloss.Height(content)
	topPadding := (height - contentHeight) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinIdx := frame % len(chars)
	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)

		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" " + m.loadingLabel() + " ")

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, m.renderStageBadges())
}

// loadingLabel describes what the backend is currently doing.
func (m Model) loadingLabel() string {
	if m.assembler == nil {
		return "Sending"
	}
	switch m.assembler.Phase() {
	case stream.PhaseAwaitingStage1:
		return "Council is answering"
	case stream.PhaseStage1Done, stream.PhaseAwaitingStage2:
		return "Council is ranking"
	case stream.PhaseStage2Done, stream.PhaseAwaitingStage3:
		return "Chairman is deliberating"
	case stream.PhaseStreaming:
		return "Model is responding"
	case stream.PhaseAwaitingImage:
		return "Generating image"
	default:
		return "Working"
	}
}

// renderStageBadges shows the three council stages as a compact progress line.
func (m Model) renderStageBadges() string {
	if m.conversation == nil {
		return ""
	}
	msg := m.conversation.LastMessage()
	if msg == nil || msg.Loading == nil {
		return ""
	}

	badge := func(label string, active, done bool) string {
		switch {
		case done:
			return stageDoneStyle.Render("✓" + label)
		case active:
			return stagePendingStyle.Render("…" + label)
		default:
			return stageIdleStyle.Render("·" + label)
		}
	}

	l := msg.Loading
	s1 := badge("S1", l.Stage1, len(msg.Stage1) > 0)
	s2 := badge("S2", l.Stage2, len(msg.Stage2) > 0)
	s3 := badge("S3", l.Stage3, msg.Stage3 != nil && !l.Stage3)
	return s1 + " " + s2 + " " + s3
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Cancel/Quit"},
		{"↑↓", "Scroll"},
		{"/mode", string(m.mode)},
	}

	var items []string
	for _, s := range shortcuts {
		item := lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		)
		items = append(items, item)
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  │  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// createConversation returns a command that creates a fresh conversation.
func (m Model) createConversation() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		conv, err := client.CreateConversation(context.Background())
		return conversationCreatedMsg{conv: conv, err: err}
	}
}

// loadConversationList returns a command that fetches conversation metadata.
func (m Model) loadConversationList() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		metas, err := client.ListConversations(context.Background())
		return conversationListMsg{metas: metas, err: err}
	}
}

// startStream kicks off a streaming request for the current conversation.
// The token tags every message the stream produces so stale requests can
// be fenced out after the user moves on.
func (m Model) startStream(prompt, token string) tea.Cmd {
	client := m.client
	convID := m.conversation.ID
	req := api.SendMessageRequest{
		Content:    prompt,
		Mode:       m.mode,
		Room:       m.room,
		Model:      m.modelName,
		Attachment: m.attachment,
	}
	if req.Attachment != nil {
		req.Mode = models.ModeFile
	}
	return func() tea.Msg {
		session, err := client.StreamMessage(context.Background(), convID, req)
		return streamStartedMsg{token: token, session: session, err: err}
	}
}

// waitForEvent reads one event from the session channel. Re-issued after
// each delivery until the channel drains.
func waitForEvent(session *api.StreamSession, token string) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-session.Events()
		if !ok {
			return streamClosedMsg{token: token, err: session.Err()}
		}
		return streamEventMsg{token: token, event: ev}
	}
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	if m.conversation == nil {
		m.viewport.SetContent("")
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i := range m.conversation.Messages {
		msg := &m.conversation.Messages[i]
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.Role == models.RoleUser {
			label := userLabelStyle.Render("⬤ You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Content)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render("⚖ Council")
			if msg.Metadata != nil && msg.Metadata.Mode != "" {
				label += subtitleStyle.Render("  (" + string(msg.Metadata.Mode) + ")")
			}
			content.WriteString(label + "\n")

			if msg.IsPending() && msg.FinalText() == "" {
				content.WriteString(hintStyle.Render("  waiting for the council..."))
				content.WriteString("\n")
				continue
			}

			md := render.CouncilMarkdown(msg)
			rendered, err := render.MarkdownWithWidth(md, bubbleWidth-4)
			if err != nil {
				rendered = md
			}
			rendered = strings.TrimRight(rendered, "\n")
			content.WriteString(rendered)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// formatError formats an error with structured error details for display
func (m Model) formatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("⚠ Error: %v", err)))

	detailStyle := lipgloss.NewStyle().Foreground(colorTextDim).PaddingLeft(2)
	tipStyle := lipgloss.NewStyle().Foreground(colorPrimary).PaddingLeft(2)

	if apiErr, ok := apierrors.AsAPIError(err); ok {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render(fmt.Sprintf("HTTP Status: %d (%s)", apiErr.StatusCode, apiErr.Endpoint)))
	}

	switch {
	case apierrors.IsNotFound(err):
		sb.WriteString("\n")
		sb.WriteString(tipStyle.Render("💡 The conversation is gone. Use /new to start another"))
	case apierrors.IsStreamError(err):
		sb.WriteString("\n")
		sb.WriteString(tipStyle.Render("💡 The council run failed. Try sending again"))
	}

	return sb.String()
}

// RunChat starts the chat TUI
func RunChat(client api.CouncilAPI, mode models.Mode, room, modelName string) error {
	m := NewChatModel(client, mode, room, modelName)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}

// loadRoomsForChat returns a command that loads rooms from the API
func (m Model) loadRoomsForChat() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		list, err := client.ListRooms(context.Background())
		if err != nil {
			return roomsLoadedForChatMsg{err: err}
		}
		return roomsLoadedForChatMsg{rooms: list.Rooms}
	}
}
