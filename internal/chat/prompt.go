package chat

import (
	"fmt"
	"strings"

	"github.com/campusbot/campusbot/internal/model"
	"github.com/campusbot/campusbot/internal/search"
)

// buildPrompt assembles the generation prompt: retrieved entries truncated to
// the character budget, the last few history turns, and whatever context is
// resolved. Bounded inputs keep the prompt size independent of conversation
// length and corpus size.
func buildPrompt(sess *model.Session, out *Outcome, rs *search.ResultSet, charBudget, historyTurns int) string {
	var b strings.Builder
	b.WriteString("You are a helpful campus assistant for a multi-campus university.\n")

	if info := userInfoLine(sess); info != "" {
		b.WriteString("\n")
		b.WriteString(info)
		b.WriteString("\n")
	}

	if out.Resumed {
		fmt.Fprintf(&b, "\nThe user just provided their role/campus. Answer their original question using that context: %q\n", out.Query)
	} else if turns := sess.RecentHistory(historyTurns); len(turns) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range turns {
			label := "User"
			if turn.Speaker == model.SpeakerAssistant {
				label = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", label, turn.Text)
		}
	}

	b.WriteString("\nGuidelines:\n")
	b.WriteString("- Prioritize information for the user's campus and role when known.\n")
	b.WriteString("- Use the specific details from the knowledge entries: building numbers, room numbers, exact names.\n")
	b.WriteString("- For follow-up questions like \"where?\" or \"how much?\", use the conversation context.\n")
	b.WriteString("- Stay conversational and brief (2-3 sentences).\n")
	b.WriteString("- If the knowledge entries do not cover the question, say so plainly.\n")
	b.WriteString("- Never reference entry numbers.\n")

	b.WriteString("\nKnowledge entries:\n")
	b.WriteString(formatEntries(rs, charBudget))

	fmt.Fprintf(&b, "\nCurrent question: %s\n", out.Query)
	return b.String()
}

func userInfoLine(sess *model.Session) string {
	switch {
	case sess.Role != "" && sess.Campus != "":
		return fmt.Sprintf("You are helping a %s at the %s campus.", sess.Role, sess.Campus)
	case sess.Role != "":
		return fmt.Sprintf("You are helping a %s.", sess.Role)
	case sess.Campus != "":
		return fmt.Sprintf("You are helping someone at the %s campus.", sess.Campus)
	default:
		return ""
	}
}

func formatEntries(rs *search.ResultSet, charBudget int) string {
	var b strings.Builder
	for i, r := range rs.Results {
		entry := fmt.Sprintf("--- Entry %d ---\nCategory: %s\nAudience: %s\nQ: %s\nA: %s\n",
			i+1, r.Entry.Category, r.Entry.Audience, r.Entry.Question, r.Entry.Answer)
		if charBudget > 0 && b.Len()+len(entry) > charBudget {
			break
		}
		b.WriteString(entry)
	}
	return b.String()
}
