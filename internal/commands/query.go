package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/llmcouncil/internal/api"
	apierrors "github.com/diogo/llmcouncil/internal/errors"
	"github.com/diogo/llmcouncil/internal/models"
	"github.com/diogo/llmcouncil/internal/render"
	"github.com/diogo/llmcouncil/internal/stream"
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				MarginBottom(0)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)
)

// runQuery sends a single message and prints the response.
// If rawOutput is true, only the raw answer text is printed without decoration.
func runQuery(prompt string, rawOutput bool) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	cfg := loadedConfig()
	client := newClient(cfg)

	mode, err := getMode(cfg)
	if err != nil {
		return err
	}
	room := getRoom(cfg)
	modelName := getModel(cfg)

	if cfg.Verbose && !rawOutput {
		fmt.Fprintf(os.Stderr, "[verbose] Server: %s\n", client.BaseURL())
		fmt.Fprintf(os.Stderr, "[verbose] Mode: %s\n", mode)
	}

	ctx := context.Background()

	var spin *spinner
	if !rawOutput {
		spin = newSpinner("Contacting council server")
		spin.start()
	}

	if err := client.Health(ctx); err != nil {
		if !rawOutput {
			spin.stopWithError()
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Server unreachable"))
		}
		return fmt.Errorf("server unreachable: %w", err)
	}

	// Let the backend pick a room from the prompt when configured and
	// none was forced on the command line.
	if mode == models.ModeCouncil && cfg.AutoDetectRoom && roomFlag == "" {
		if !rawOutput {
			spin.setMessage("Detecting council room")
		}
		detection, err := client.DetectRoom(ctx, prompt)
		if err == nil && detection.DetectedRoom != "" {
			room = detection.DetectedRoom
			if cfg.Verbose && !rawOutput {
				fmt.Fprintf(os.Stderr, "[verbose] Detected room: %s (%s)\n", detection.DetectedRoom, detection.RoomName)
			}
		}
	}

	conv, err := client.CreateConversation(ctx)
	if err != nil {
		if !rawOutput {
			spin.stopWithError()
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to create conversation"))
		}
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	req := api.SendMessageRequest{
		Content: prompt,
		Mode:    mode,
		Room:    room,
		Model:   modelName,
	}

	if attachFlag != "" {
		attachment, err := api.AttachFile(attachFlag)
		if err != nil {
			if !rawOutput {
				spin.stopWithError()
				fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to attach file"))
			}
			return fmt.Errorf("failed to attach file: %w", err)
		}
		req.Attachment = attachment
		req.Mode = models.ModeFile
	}

	if cfg.Stream {
		streamFlag = true
	}

	if !rawOutput {
		spin.setMessage(spinnerLabelFor(req.Mode))
	}

	startTime := time.Now()
	msg, err := streamQuery(ctx, client, conv, req, spin, rawOutput)
	requestDuration := time.Since(startTime)

	if err != nil {
		if !rawOutput {
			spin.stopWithError()
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Council run failed"))
		}
		return fmt.Errorf("council run failed: %w", err)
	}
	if !rawOutput {
		spin.stopWithSuccess("Done")
	}

	if cfg.Verbose && !rawOutput {
		fmt.Fprintf(os.Stderr, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
		if len(msg.Stage1) > 0 {
			fmt.Fprintf(os.Stderr, "[verbose] %d council members answered\n", len(msg.Stage1))
		}
	}

	text := msg.FinalText()
	if text == "" {
		return apierrors.ErrNoContent
	}

	// Raw output mode: only the answer text
	if rawOutput {
		if outputFlag != "" {
			return os.WriteFile(outputFlag, []byte(text), 0o644)
		}
		fmt.Print(text)
		return nil
	}

	fmt.Fprintln(os.Stderr)

	if cfg.CopyToClipboard {
		if err := clipboard.WriteAll(text); err != nil {
			warnMsg := lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			)
			fmt.Fprintln(os.Stderr, warnMsg)
		} else {
			clipMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard")
			fmt.Fprintln(os.Stderr, clipMsg)
		}
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(render.CouncilMarkdown(msg)), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		successMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Response saved to %s", outputFlag),
		)
		fmt.Fprintln(os.Stderr, successMsg)
		return nil
	}

	termWidth := getTerminalWidth()
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	label := assistantLabelStyle.Render("⚖ Council")
	if msg.Metadata != nil && msg.Metadata.Model != "" {
		label += lipgloss.NewStyle().Foreground(colorTextDim).Render("  " + msg.Metadata.Model)
	}
	fmt.Println(label)

	// Full transcript for council runs, plain answer otherwise
	md := render.CouncilMarkdown(msg)
	rendered, err := render.MarkdownWithWidth(md, contentWidth)
	if err != nil {
		rendered = md
	}
	rendered = strings.TrimRight(rendered, "\n")

	bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
	fmt.Println(bubble)

	return nil
}

// streamQuery runs the streaming request end to end and returns the
// assembled assistant message.
func streamQuery(ctx context.Context, client api.CouncilAPI, conv *models.Conversation, req api.SendMessageRequest, spin *spinner, rawOutput bool) (*models.Message, error) {
	conv.AppendExchange(req.Content)
	assembler := stream.NewAssembler(conv.ID)

	session, err := client.StreamMessage(ctx, conv.ID, req)
	if err != nil {
		conv.RollbackExchange()
		return nil, err
	}
	defer session.Close()

	showStages := streamFlag && !rawOutput
	var streamErr error
	for ev := range session.Events() {
		_, err := assembler.Apply(conv, ev)
		if err != nil {
			if apierrors.IsStreamError(err) {
				streamErr = err
				break
			}
			// Malformed payload: keep consuming
			continue
		}
		if showStages {
			printStageProgress(conv, ev)
		}
		if !rawOutput && spin != nil {
			spin.setMessage(phaseLabel(assembler.Phase()))
		}
		if assembler.Done() {
			break
		}
	}

	if streamErr != nil {
		return nil, streamErr
	}
	if err := session.Err(); err != nil {
		conv.RollbackExchange()
		return nil, err
	}

	msg := conv.LastMessage()
	if msg == nil || msg.Role != models.RoleAssistant {
		return nil, apierrors.ErrNoContent
	}
	return msg, nil
}

// printStageProgress writes one line per completed stage to stderr,
// so the run is followable without waiting for the final verdict.
func printStageProgress(conv *models.Conversation, ev *stream.Event) {
	msg := conv.LastMessage()
	if msg == nil {
		return
	}

	dim := lipgloss.NewStyle().Foreground(colorTextDim)
	ok := lipgloss.NewStyle().Foreground(colorSuccess)

	switch ev.Type {
	case stream.EventStage1Complete:
		var names []string
		for _, r := range msg.Stage1 {
			names = append(names, r.Model)
		}
		fmt.Fprintf(os.Stderr, "\r\033[K%s %s\n",
			ok.Render("✓ Stage 1"), dim.Render(fmt.Sprintf("%d answers (%s)", len(msg.Stage1), strings.Join(names, ", "))))
	case stream.EventStage2Complete:
		fmt.Fprintf(os.Stderr, "\r\033[K%s %s\n",
			ok.Render("✓ Stage 2"), dim.Render(fmt.Sprintf("%d peer rankings collected", len(msg.Stage2))))
	case stream.EventStage3Complete:
		model := ""
		if msg.Stage3 != nil {
			model = msg.Stage3.Model
		}
		fmt.Fprintf(os.Stderr, "\r\033[K%s %s\n",
			ok.Render("✓ Stage 3"), dim.Render("verdict by "+model))
	case stream.EventTitleComplete:
		if title, err := ev.Title(); err == nil && title != "" {
			fmt.Fprintf(os.Stderr, "\r\033[K%s %s\n", ok.Render("✓ Title"), dim.Render(title))
		}
	}
}

// spinnerLabelFor returns the initial spinner label for a request mode
func spinnerLabelFor(mode models.Mode) string {
	switch mode {
	case models.ModeCouncil:
		return "Convening the council"
	case models.ModeImage:
		return "Generating image"
	case models.ModeFile:
		return "Analyzing document"
	default:
		return "Asking the model"
	}
}

// phaseLabel maps assembler phases to spinner labels
func phaseLabel(p stream.Phase) string {
	switch p {
	case stream.PhaseAwaitingStage1:
		return "Stage 1: council members answering"
	case stream.PhaseStage1Done, stream.PhaseAwaitingStage2:
		return "Stage 2: ranking anonymized answers"
	case stream.PhaseStage2Done, stream.PhaseAwaitingStage3:
		return "Stage 3: chairman synthesizing verdict"
	case stream.PhaseStreaming:
		return "Model responding"
	case stream.PhaseAwaitingImage:
		return "Generating image"
	default:
		return "Waiting for the council"
	}
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if apiErr, ok := apierrors.AsAPIError(err); ok {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", apiErr.StatusCode)))
		if apiErr.Endpoint != "" {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", apiErr.Endpoint)))
		}
	}

	switch {
	case apierrors.IsNotFound(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The conversation no longer exists on the server"))
	case apierrors.IsStreamError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The backend reported a failure mid-run. Try again"))
	case errors.Is(err, apierrors.ErrServerUnavailable):
		sb.WriteString(dimStyle.Render("\n  Hint: Is the council server running? Check the --url flag"))
	}

	return sb.String()
}
