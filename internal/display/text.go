package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kdimtricp/vidagent/internal/models"
)

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Underline(true)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	timestampStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	goodStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
	badStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff8c00"))
)

const minWrap = 20

// RenderText lays out a snapshot for a terminal of the given width.
func RenderText(s Snapshot, width int) string {
	wrap := width - 4
	if wrap < minWrap {
		wrap = minWrap
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Session " + s.SessionID))
	b.WriteString("\n")

	switch {
	case s.Status == models.StatusError:
		b.WriteString(errorStyle.Render(wordwrap.String("Analysis failed: "+s.Error, wrap)))
		b.WriteString("\n")
		return b.String()
	case s.Status != models.StatusCompleted:
		status := string(s.Status)
		if status == "" {
			status = "unknown"
		}
		b.WriteString(helperStyle.Render(fmt.Sprintf("Status: %s (poll %d)", status, s.Polls)))
		b.WriteString("\n")
		if s.Error != "" {
			b.WriteString(errorStyle.Render(wordwrap.String(s.Error, wrap)))
			b.WriteString("\n")
		}
		return b.String()
	}

	result := s.Result
	if result == nil {
		result = &models.AnalysisResult{}
	}

	writeTranscript(&b, result.Transcript, wrap)
	writeScenes(&b, result.Scenes, wrap)
	writeComparison(&b, result.Comparison, wrap)
	return b.String()
}

func writeTranscript(b *strings.Builder, t *models.Transcript, wrap int) {
	b.WriteString("\n")
	b.WriteString(sectionHeaderStyle.Render("Transcript"))
	b.WriteString("\n")
	if t == nil {
		b.WriteString(helperStyle.Render("No transcript."))
		b.WriteString("\n")
		return
	}

	if len(t.Segments) == 0 {
		b.WriteString(wordwrap.String(t.FullText, wrap))
		b.WriteString("\n")
		return
	}
	for _, seg := range t.Segments {
		stamp := timestampStyle.Render(fmt.Sprintf("[%s-%s]", formatSeconds(seg.Start), formatSeconds(seg.End)))
		b.WriteString(stamp + " " + wordwrap.String(seg.Text, wrap-lipgloss.Width(stamp)-1))
		b.WriteString("\n")
	}
}

func writeScenes(b *strings.Builder, s *models.SceneTimeline, wrap int) {
	b.WriteString("\n")
	b.WriteString(sectionHeaderStyle.Render("Scenes"))
	b.WriteString("\n")
	if s == nil {
		b.WriteString(helperStyle.Render("No scenes."))
		b.WriteString("\n")
		return
	}

	if s.Summary != "" {
		b.WriteString(wordwrap.String(s.Summary, wrap))
		b.WriteString("\n")
	}
	for _, scene := range s.Timeline {
		stamp := timestampStyle.Render(fmt.Sprintf("[%s-%s]", formatSeconds(scene.Start), formatSeconds(scene.End)))
		b.WriteString(stamp + " " + wordwrap.String(scene.Description, wrap-lipgloss.Width(stamp)-1))
		b.WriteString("\n")
	}
}

func writeComparison(b *strings.Builder, c *models.Comparison, wrap int) {
	b.WriteString("\n")
	b.WriteString(sectionHeaderStyle.Render("Speech and visuals"))
	b.WriteString("\n")
	if c == nil {
		b.WriteString(helperStyle.Render("No comparison."))
		b.WriteString("\n")
		return
	}

	overall := c.OverallAnalysis
	fmt.Fprintf(b, "Match score: %s  Coherence: %s\n", formatPercent(overall.AverageMatchScore), overall.CoherenceLevel)
	for _, insight := range overall.KeyInsights {
		b.WriteString("  - " + wordwrap.String(insight, wrap-4))
		b.WriteString("\n")
	}

	if len(c.SynchronizedMoments) > 0 {
		b.WriteString(goodStyle.Render(fmt.Sprintf("Synchronized moments (%d)", len(c.SynchronizedMoments))))
		b.WriteString("\n")
		writeMoments(b, c.SynchronizedMoments, wrap)
	}
	if len(c.MismatchedMoments) > 0 {
		b.WriteString(badStyle.Render(fmt.Sprintf("Mismatched moments (%d)", len(c.MismatchedMoments))))
		b.WriteString("\n")
		writeMoments(b, c.MismatchedMoments, wrap)
	}
}

func writeMoments(b *strings.Builder, moments []models.Moment, wrap int) {
	for _, m := range moments {
		line := fmt.Sprintf("  %s %s", timestampStyle.Render(formatSeconds(m.Timestamp)), formatPercent(m.MatchScore))
		if m.TranscriptText != "" {
			line += " said: " + m.TranscriptText
		}
		if m.VisualDescription != "" {
			line += " shown: " + m.VisualDescription
		}
		b.WriteString(wordwrap.String(line, wrap))
		b.WriteString("\n")
	}
}

func formatSeconds(sec float64) string {
	total := int(sec)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Scores arrive either as 0..1 fractions or already as percentages.
func formatPercent(score float64) string {
	if score <= 1 {
		score *= 100
	}
	return fmt.Sprintf("%.0f%%", score)
}
