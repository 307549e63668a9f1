package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/diogo/llmcouncil/internal/models"
)

// CouncilMarkdown builds the markdown source for one assistant message.
// Chat and image answers are just their final text; council answers get
// one section per deliberation stage so the full run stays inspectable.
func CouncilMarkdown(msg *models.Message) string {
	if msg.ModeLabel() != models.ModeCouncil {
		return msg.FinalText()
	}

	var sb strings.Builder

	if len(msg.Stage1) > 0 {
		sb.WriteString("## Stage 1 — Individual Answers\n\n")
		for _, resp := range msg.Stage1 {
			fmt.Fprintf(&sb, "### %s\n\n%s\n\n", resp.Model, resp.Response)
		}
	}

	if len(msg.Stage2) > 0 {
		sb.WriteString("## Stage 2 — Peer Rankings\n\n")
		for _, ranking := range msg.Stage2 {
			fmt.Fprintf(&sb, "### %s\n\n%s\n\n", ranking.Model, ranking.Ranking)
		}
		if msg.Metadata != nil && len(msg.Metadata.AggregateRankings) > 0 {
			sb.WriteString(aggregateTable(msg.Metadata.AggregateRankings))
		}
	}

	if msg.Stage3 != nil {
		sb.WriteString("## Final Verdict")
		if msg.Stage3.Model != "" {
			fmt.Fprintf(&sb, " — %s", msg.Stage3.Model)
		}
		sb.WriteString("\n\n")
		sb.WriteString(msg.Stage3.Response)
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return msg.Content
	}
	return sb.String()
}

// aggregateTable formats the averaged peer rankings, best first
func aggregateTable(rankings []models.AggregateRanking) string {
	sorted := make([]models.AggregateRanking, len(rankings))
	copy(sorted, rankings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].AverageRank < sorted[j].AverageRank
	})

	var sb strings.Builder
	sb.WriteString("| Model | Average Rank |\n|---|---|\n")
	for _, r := range sorted {
		fmt.Fprintf(&sb, "| %s | %.2f |\n", r.Model, r.AverageRank)
	}
	sb.WriteString("\n")
	return sb.String()
}
