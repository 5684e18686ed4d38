package retrieval

import (
	"regexp"
	"strings"
)

// DefaultFocusQuestion is asked when a task's wording leaves no action.
const DefaultFocusQuestion = "Want to keep working on what you started?"

var (
	personPrefixRe = regexp.MustCompile(`(?i)^(the\s+)?(player|you|i)('s)?\s+`)
	intentRe       = regexp.MustCompile(`(?i)^(wants you to|asked you to|needs you to|needs to|need to|has to|have to|must|should|wants to|want to|plans to|plan to|hopes to|hope to|is trying to|trying to|aims to|aim to|would like to|to)(\s+|$)`)
	workOnRe       = regexp.MustCompile(`(?i)^(keep )?work(ing)? on\s+`)
)

// FocusQuestion turns a task's content into a follow-up question.
func FocusQuestion(taskContent string) string {
	action := trimPunct(taskContent)
	action = personPrefixRe.ReplaceAllString(action, "")
	for {
		next := intentRe.ReplaceAllString(action, "")
		if next == action {
			break
		}
		action = next
	}
	action = workOnRe.ReplaceAllString(action, "")
	action = trimPunct(action)
	if len(action) < 3 {
		return DefaultFocusQuestion
	}
	return "Want to keep working on " + action + "?"
}

func trimPunct(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".!?;, ")
}
