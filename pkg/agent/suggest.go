package agent

import (
	"regexp"
	"strings"

	"github.com/haivivi/mediaforge/pkg/store"
)

// Built-in agent ids with reply-specific behavior.
const (
	IDAngle    = "angle"
	IDDeep     = "deep"
	IDScripter = "scripter"
	IDPrompter = "prompter"
	IDMeta     = "meta"
	IDShorter  = "shorter"
)

// Suggestion is a reply, or a part of one, that can be added to the process
// list.
type Suggestion struct {
	Title   string         `json:"title"`
	Content string         `json:"content"`
	Type    store.ItemType `json:"type"`
}

// Item converts s into a process item authored by agentID.
func (s Suggestion) Item(agentID string) store.ProcessItem {
	return store.ProcessItem{
		Title:         s.Title,
		Content:       s.Content,
		SourceAgentID: agentID,
		Type:          s.Type,
	}
}

var topicLines = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\*\*Тема:\*\*\s*\*\*(.+?)\*\*`),
	regexp.MustCompile(`(?i)(?:\d+\.\s*)?\*\*Тема:\s*(.*?)\*\*`),
}

var (
	decisionTitle  = regexp.MustCompile(`РЕШЕНИЯ:\s*«([^»]+)»`)
	videoNameTitle = regexp.MustCompile(`\*\*Название ролика:\*\*\s*\*\*(.*?)\*\*`)
	firstH2        = regexp.MustCompile(`(?m)^##\s*(.*)`)

	deepCmd     = regexp.MustCompile(`/deep`)
	goCmd       = regexp.MustCompile(`/go`)
	scripterCmd = regexp.MustCompile(`/(eat|punch|clear_story)`)
	prompterCmd = regexp.MustCompile(`/(eat|export)`)
)

// Suggest returns the process-item suggestions for a finished reply. userText
// is the user turn that produced modelText. Agents without reply rules, and
// replies that do not answer one of their commands, yield nothing.
func Suggest(agentID, userText, modelText string) []Suggestion {
	if modelText == "" {
		return nil
	}
	trimmed := strings.TrimSpace(userText)
	switch agentID {
	case IDAngle:
		switch {
		case strings.HasPrefix(trimmed, "/idea"):
			return topicSuggestions(modelText)
		case strings.Contains(trimmed, "/deep"):
			return []Suggestion{{
				Title:   "Deep Dive: " + stripFirst(deepCmd, userText),
				Content: modelText,
				Type:    store.TypeDeepResearch,
			}}
		}
	case IDDeep:
		if strings.Contains(trimmed, "/go") {
			title := ResearchTitle(modelText)
			if title == "" {
				title = "Исследование по: " + ellipsis(stripFirst(goCmd, userText), 30)
			}
			return []Suggestion{{Title: title, Content: modelText, Type: store.TypeResearch}}
		}
	case IDScripter:
		if scripterCmd.MatchString(trimmed) {
			return []Suggestion{{
				Title:   "Сценарий по: " + ellipsis(stripFirst(scripterCmd, userText), 30),
				Content: modelText,
				Type:    store.TypeScript,
			}}
		}
	case IDPrompter:
		if p, ok := ExportProposal(agentID, userText, modelText); ok {
			return []Suggestion{p}
		}
	}
	return nil
}

// ExportProposal reports whether a prompter reply to /eat or /export should
// be offered as the final item of the pipeline. Confirming it archives the
// process list (see Room.ConfirmExport).
func ExportProposal(agentID, userText, modelText string) (Suggestion, bool) {
	if agentID != IDPrompter || modelText == "" || !prompterCmd.MatchString(userText) {
		return Suggestion{}, false
	}
	return Suggestion{
		Title:   "Визуал: " + ellipsis(stripFirst(prompterCmd, userText), 40),
		Content: modelText,
		Type:    store.TypeScript,
	}, true
}

// ResearchTitle extracts the working title from a research document: the
// «quoted» decision name, the bold video name, or the first level-2 header.
// It returns "" when none is present.
func ResearchTitle(text string) string {
	if m := decisionTitle.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1])
	}
	if m := videoNameTitle.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1])
	}
	if m := firstH2.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(strings.NewReplacer("«", "", "»", "").Replace(m[1]))
	}
	return ""
}

// topicSuggestions returns one topic per "**Тема:** **...**" or
// "**Тема: ...**" line.
func topicSuggestions(text string) []Suggestion {
	var out []Suggestion
	for _, line := range strings.Split(text, "\n") {
		for _, re := range topicLines {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if title := strings.TrimSpace(m[1]); title != "" {
				out = append(out, Suggestion{Title: title, Content: title, Type: store.TypeTopic})
				break
			}
		}
	}
	return out
}

// stripFirst removes the first match of re and trims the result.
func stripFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc != nil {
		s = s[:loc[0]] + s[loc[1]:]
	}
	return strings.TrimSpace(s)
}

// ellipsis keeps the first n runes of s and appends "...".
func ellipsis(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r) + "..."
}
