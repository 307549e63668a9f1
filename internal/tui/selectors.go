package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/llmcouncil/internal/models"
)

// updateRoomSelection handles updates when the room selector overlay is open
func (m Model) updateRoomSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case roomsLoadedForChatMsg:
		m.roomsLoading = false
		if msg.err != nil {
			m.selectingRoom = false
			m.err = msg.err
		} else {
			m.roomsList = msg.rooms
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			m.selectingRoom = false
			m.roomsList = nil
			m.roomsCursor = 0
			m.roomsFilter = ""

		case "up", "k":
			if len(m.filteredRooms()) > 0 {
				m.roomsCursor--
				if m.roomsCursor < 0 {
					m.roomsCursor = len(m.filteredRooms()) - 1
				}
			}

		case "down", "j":
			if len(m.filteredRooms()) > 0 {
				m.roomsCursor++
				if m.roomsCursor >= len(m.filteredRooms()) {
					m.roomsCursor = 0
				}
			}

		case "enter":
			filtered := m.filteredRooms()
			if len(filtered) > 0 && m.roomsCursor < len(filtered) {
				m.room = filtered[m.roomsCursor].ID
				m.selectingRoom = false
				m.roomsList = nil
				m.roomsCursor = 0
				m.roomsFilter = ""
			}

		case "backspace":
			if len(m.roomsFilter) > 0 {
				m.roomsFilter = m.roomsFilter[:len(m.roomsFilter)-1]
				m.roomsCursor = 0
			}

		default:
			// Typing narrows the list (printable characters only)
			if len(msg.String()) == 1 {
				r := []rune(msg.String())[0]
				if r >= ' ' && r <= '~' {
					m.roomsFilter += msg.String()
					m.roomsCursor = 0
				}
			}
		}
	}

	return m, nil
}

// filteredRooms returns the rooms list filtered by roomsFilter
func (m Model) filteredRooms() []models.Room {
	if m.roomsFilter == "" {
		return m.roomsList
	}

	filter := strings.ToLower(m.roomsFilter)
	var filtered []models.Room
	for _, room := range m.roomsList {
		if strings.Contains(strings.ToLower(room.Name), filter) ||
			strings.Contains(strings.ToLower(room.Description), filter) {
			filtered = append(filtered, room)
		}
	}
	return filtered
}

// renderRoomSelector renders the room selection overlay
func (m Model) renderRoomSelector() string {
	width := m.width - 8
	if width < 40 {
		width = 40
	}

	var content strings.Builder

	title := selectorTitleStyle.Render("🏛 Select a Room")
	if m.room != "" {
		title += hintStyle.Render(fmt.Sprintf("  (current: %s)", m.room))
	}
	content.WriteString(title)
	content.WriteString("\n\n")

	if m.roomsFilter != "" {
		filterLine := inputLabelStyle.Render("🔍 ") + m.roomsFilter + "_"
		content.WriteString(filterLine)
		content.WriteString("\n\n")
	}

	if m.roomsLoading {
		content.WriteString(loadingStyle.Render("  Loading rooms..."))
	} else if len(m.roomsList) == 0 {
		content.WriteString(hintStyle.Render("  No rooms found"))
	} else {
		filtered := m.filteredRooms()
		if len(filtered) == 0 {
			content.WriteString(hintStyle.Render("  No rooms match filter"))
		} else {
			maxItems := 8
			startIdx := 0
			if m.roomsCursor >= maxItems {
				startIdx = m.roomsCursor - maxItems + 1
			}
			endIdx := startIdx + maxItems
			if endIdx > len(filtered) {
				endIdx = len(filtered)
			}

			if startIdx > 0 {
				content.WriteString(hintStyle.Render("  ↑ more above"))
				content.WriteString("\n")
			}

			for i := startIdx; i < endIdx; i++ {
				room := filtered[i]
				cursor := "  "
				nameStyle := selectorItemStyle
				if i == m.roomsCursor {
					cursor = selectorSelectedStyle.Render("▸ ")
					nameStyle = selectorSelectedStyle
				}

				name := nameStyle.Render(room.Name)
				line := cursor + name
				if room.ID == m.room {
					line += stageDoneStyle.Render(" ✓")
				}

				if room.Description != "" {
					maxDesc := width - len(room.Name) - 10
					if maxDesc > 10 {
						desc := room.Description
						if len(desc) > maxDesc {
							desc = desc[:maxDesc-3] + "..."
						}
						line += selectorDescStyle.Render(" - " + desc)
					}
				}

				content.WriteString(line)
				content.WriteString("\n")
			}

			if endIdx < len(filtered) {
				content.WriteString(hintStyle.Render("  ↓ more below"))
				content.WriteString("\n")
			}
		}
	}

	content.WriteString("\n")
	content.WriteString(selectorShortcuts())

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2).
		Width(width)

	return boxStyle.Render(content.String())
}

// updateConvSelection handles updates when the conversation selector is open
func (m Model) updateConvSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case conversationListMsg:
		m.convLoading = false
		if msg.err != nil {
			m.selectingConv = false
			m.err = msg.err
		} else {
			m.convList = msg.metas
		}

	case conversationLoadedMsg:
		m.convLoading = false
		m.selectingConv = false
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

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			m.selectingConv = false
			m.convCursor = 0

		case "up", "k":
			if len(m.convList) > 0 {
				m.convCursor--
				if m.convCursor < 0 {
					m.convCursor = len(m.convList) - 1
				}
			}

		case "down", "j":
			if len(m.convList) > 0 {
				m.convCursor++
				if m.convCursor >= len(m.convList) {
					m.convCursor = 0
				}
			}

		case "enter":
			if len(m.convList) > 0 && m.convCursor < len(m.convList) {
				id := m.convList[m.convCursor].ID
				m.convLoading = true
				return m, m.loadConversation(id)
			}
		}
	}

	return m, nil
}

// loadConversation returns a command that fetches a full conversation.
func (m Model) loadConversation(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		conv, err := client.GetConversation(context.Background(), id)
		return conversationLoadedMsg{conv: conv, err: err}
	}
}

// renderConvSelector renders the conversation selection overlay
func (m Model) renderConvSelector() string {
	width := m.width - 8
	if width < 40 {
		width = 40
	}

	var content strings.Builder

	content.WriteString(selectorTitleStyle.Render("🗂 Conversations"))
	content.WriteString("\n\n")

	if m.convLoading {
		content.WriteString(loadingStyle.Render("  Loading conversations..."))
	} else if len(m.convList) == 0 {
		content.WriteString(hintStyle.Render("  No conversations yet"))
	} else {
		maxItems := 10
		startIdx := 0
		if m.convCursor >= maxItems {
			startIdx = m.convCursor - maxItems + 1
		}
		endIdx := startIdx + maxItems
		if endIdx > len(m.convList) {
			endIdx = len(m.convList)
		}

		if startIdx > 0 {
			content.WriteString(hintStyle.Render("  ↑ more above"))
			content.WriteString("\n")
		}

		for i := startIdx; i < endIdx; i++ {
			meta := m.convList[i]
			cursor := "  "
			nameStyle := selectorItemStyle
			if i == m.convCursor {
				cursor = selectorSelectedStyle.Render("▸ ")
				nameStyle = selectorSelectedStyle
			}

			title := meta.Title
			if title == "" {
				title = "(untitled)"
			}
			maxTitle := width - 24
			if maxTitle > 10 && len(title) > maxTitle {
				title = title[:maxTitle-3] + "..."
			}

			line := cursor + nameStyle.Render(title) +
				selectorDescStyle.Render(fmt.Sprintf("  %d msgs", meta.MessageCount))
			if m.conversation != nil && meta.ID == m.conversation.ID {
				line += stageDoneStyle.Render(" ✓")
			}

			content.WriteString(line)
			content.WriteString("\n")
		}

		if endIdx < len(m.convList) {
			content.WriteString(hintStyle.Render("  ↓ more below"))
			content.WriteString("\n")
		}
	}

	content.WriteString("\n")
	content.WriteString(selectorShortcuts())

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2).
		Width(width)

	return boxStyle.Render(content.String())
}

// selectorShortcuts renders the shared selector status bar
func selectorShortcuts() string {
	shortcuts := []string{
		statusKeyStyle.Render("↑↓") + statusDescStyle.Render(" Navigate"),
		statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Select"),
		statusKeyStyle.Render("Esc") + statusDescStyle.Render(" Cancel"),
	}
	return strings.Join(shortcuts, "  │  ")
}
