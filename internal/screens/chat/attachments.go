package chat

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	conv "github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/ui/components"
	"github.com/aitutor/tutorchat/internal/ui/theme"
)

// renderAttachment draws a card for a structured payload. Unknown kinds
// and undecodable payloads render nothing.
func renderAttachment(att *conv.Attachment, width int) string {
	if att == nil {
		return ""
	}
	inner := max(width-4, 10)

	var body string
	switch att.Kind {
	case conv.KindProgress:
		var p conv.ProgressSummary
		if att.Decode(&p) != nil {
			return ""
		}
		body = renderProgress(p, inner)
	case conv.KindHelp:
		var h conv.HelpCard
		if att.Decode(&h) != nil {
			return ""
		}
		body = renderHelp(h)
	case conv.KindFlashcards:
		var d conv.FlashcardDeck
		if att.Decode(&d) != nil {
			return ""
		}
		body = renderFlashcards(d, inner)
	case conv.KindTopics:
		var t conv.TopicList
		if att.Decode(&t) != nil {
			return ""
		}
		body = bullets(t.Topics)
	case conv.KindAssessment:
		var a conv.Assessment
		if att.Decode(&a) != nil {
			return ""
		}
		body = theme.Hint.Render("Reply with your answers in one message.") + "\n" + numbered(a.Questions, inner)
	default:
		return ""
	}
	return theme.Card.Width(width).Render(body)
}

func renderProgress(p conv.ProgressSummary, width int) string {
	bar := components.ProgressBar{
		Label: "Answered",
		Done:  p.Confirmed,
		Total: p.Sent,
		Width: min(width, 40),
	}
	lines := []string{
		bar.View(),
		fmt.Sprintf("Sent %d · Failed %d · Retries %d", p.Sent, p.Failed, p.Retries),
	}
	var perTab []string
	for _, tab := range conv.AllTabs() {
		if n := p.PerTab[tab]; n > 0 {
			perTab = append(perTab, fmt.Sprintf("%s %d", tab.Label(), n))
		}
	}
	if len(perTab) > 0 {
		lines = append(lines, theme.Hint.Render(strings.Join(perTab, " · ")))
	}
	return strings.Join(lines, "\n")
}

func renderHelp(h conv.HelpCard) string {
	keyWidth := 0
	for _, e := range h.Entries {
		keyWidth = max(keyWidth, lipgloss.Width(e.Key))
	}
	keyStyle := theme.Selected.Width(keyWidth + 2)
	lines := make([]string, len(h.Entries))
	for i, e := range h.Entries {
		lines[i] = keyStyle.Render(e.Key) + e.Description
	}
	return strings.Join(lines, "\n")
}

func renderFlashcards(d conv.FlashcardDeck, width int) string {
	if len(d.Cards) == 0 {
		return theme.Hint.Render("No cards yet.")
	}
	cards := make([]string, len(d.Cards))
	for i, c := range d.Cards {
		front := theme.Selected.Render(fmt.Sprintf("Q%d ", i+1)) + c.Front
		back := theme.Hint.Width(width).Render(c.Back)
		cards[i] = front + "\n" + back
	}
	return strings.Join(cards, "\n\n")
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "• " + it
	}
	return strings.Join(lines, "\n")
}

func numbered(items []string, width int) string {
	style := lipgloss.NewStyle().Width(width)
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = style.Render(fmt.Sprintf("%d. %s", i+1, it))
	}
	return strings.Join(lines, "\n")
}
